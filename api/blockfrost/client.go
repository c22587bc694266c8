package blockfrost

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"chaingraph-backend/internal/utils"
)

// DefaultMainnetURL is the public Blockfrost mainnet base URL
const DefaultMainnetURL = "https://cardano-mainnet.blockfrost.io/api/v0"

// APIError represents a non-2xx response from Blockfrost
type APIError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Endpoint   string `json:"endpoint"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("blockfrost: %s returned %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// IsRateLimited reports whether the API asked us to back off
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// Block is the /blocks response shape
type Block struct {
	Hash    string `json:"hash"`
	Height  int64  `json:"height"`
	Slot    int64  `json:"slot"`
	Time    int64  `json:"time"`
	TxCount int    `json:"tx_count"`
}

// TxDetails is the /txs/{hash} response shape
type TxDetails struct {
	Hash        string `json:"hash"`
	Block       string `json:"block"`
	BlockHeight int64  `json:"block_height"`
	Fees        string `json:"fees"`
}

// TxAmount is one unit/quantity pair of a UTxO
type TxAmount struct {
	Unit     string `json:"unit"`
	Quantity string `json:"quantity"`
}

// TxUTxOEntry is one input or output of /txs/{hash}/utxos
type TxUTxOEntry struct {
	Address     string     `json:"address"`
	TxHash      string     `json:"tx_hash"`
	OutputIndex int        `json:"output_index"`
	Amount      []TxAmount `json:"amount"`
	Collateral  bool       `json:"collateral"`
}

// TxUTxOs is the /txs/{hash}/utxos response shape
type TxUTxOs struct {
	Hash    string        `json:"hash"`
	Inputs  []TxUTxOEntry `json:"inputs"`
	Outputs []TxUTxOEntry `json:"outputs"`
}

// Lovelace extracts the lovelace quantity from a UTxO amount list
func (e TxUTxOEntry) Lovelace() int64 {
	for _, a := range e.Amount {
		if a.Unit == "lovelace" {
			if v, err := strconv.ParseInt(a.Quantity, 10, 64); err == nil {
				return v
			}
		}
	}
	return 0
}

// Config holds Blockfrost client configuration
type Config struct {
	BaseURL    string        `json:"baseUrl"`
	ProjectID  string        `json:"projectId"`
	Timeout    time.Duration `json:"timeout"`
	MaxRetries int           `json:"maxRetries"`
}

// DefaultConfig returns default Blockfrost client configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:    DefaultMainnetURL,
		Timeout:    30 * time.Second,
		MaxRetries: 3,
	}
}

// Client talks to the Blockfrost REST API
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new Blockfrost client
func NewClient(config Config) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				MaxConnsPerHost:     50,
				IdleConnTimeout:     90 * time.Second,
				DisableKeepAlives:   false,
			},
		},
	}
}

// LatestBlock fetches the chain tip
func (c *Client) LatestBlock(ctx context.Context) (*Block, error) {
	var block Block
	if err := c.get(ctx, "/blocks/latest", &block); err != nil {
		return nil, err
	}
	return &block, nil
}

// BlockTxs fetches the transaction hashes of a block
func (c *Client) BlockTxs(ctx context.Context, blockHash string) ([]string, error) {
	var hashes []string
	if err := c.get(ctx, "/blocks/"+blockHash+"/txs", &hashes); err != nil {
		return nil, err
	}
	return hashes, nil
}

// Tx fetches transaction details
func (c *Client) Tx(ctx context.Context, hash string) (*TxDetails, error) {
	var tx TxDetails
	if err := c.get(ctx, "/txs/"+hash, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// TxUTxOs fetches the resolved inputs and outputs of a transaction
func (c *Client) TxUTxOs(ctx context.Context, hash string) (*TxUTxOs, error) {
	var utxos TxUTxOs
	if err := c.get(ctx, "/txs/"+hash+"/utxos", &utxos); err != nil {
		return nil, err
	}
	return &utxos, nil
}

// get performs a GET with retries and exponential backoff. Rate-limit
// responses back off harder than transient network errors.
func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	backoff := time.Second
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			utils.LogDebug("BLOCKFROST", "Retry %d for %s after %v", attempt, endpoint, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > 30*time.Second {
				backoff = 30 * time.Second
			}
		}

		lastErr = c.doGet(ctx, endpoint, out)
		if lastErr == nil {
			return nil
		}
		if apiErr, ok := lastErr.(*APIError); ok {
			if apiErr.IsRateLimited() {
				backoff = 10 * time.Second
				continue
			}
			if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
				// Client errors do not heal on retry
				return lastErr
			}
		}
	}
	return utils.WrapError(lastErr, utils.ErrorTypeNetwork, "REQUEST_FAILED",
		fmt.Sprintf("request to %s failed after %d retries", endpoint, c.config.MaxRetries), "BLOCKFROST")
}

func (c *Client) doGet(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("project_id", c.config.ProjectID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   endpoint,
		}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
