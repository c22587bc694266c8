package models

import (
	"fmt"
	"time"
)

// Block represents a Cardano block as delivered by the chain data provider
type Block struct {
	Hash      string    `json:"hash"`
	Height    int64     `json:"height"`
	Slot      int64     `json:"slot"`
	Timestamp time.Time `json:"timestamp"`
	TxCount   int       `json:"tx_count"`
	TxHashes  []string  `json:"tx_hashes,omitempty"`
}

// Validate checks block data consistency
func (b *Block) Validate() error {
	if b.Hash == "" {
		return fmt.Errorf("block hash is required")
	}
	if b.Height <= 0 {
		return fmt.Errorf("block %s: height must be positive, got %d", b.Hash, b.Height)
	}
	return nil
}

// TxInput is a consumed UTxO: the address that funded the transaction and
// the output it spends
type TxInput struct {
	Address string `json:"address"`
	TxHash  string `json:"tx_hash"`
	Index   int    `json:"output_index"`
	Amount  int64  `json:"amount"`
}

// TxOutput is a produced UTxO: the receiving address and the lovelace value
type TxOutput struct {
	Address string `json:"address"`
	Index   int    `json:"output_index"`
	Amount  int64  `json:"amount"`
}

// Transaction represents a Cardano transaction with its resolved inputs
// and outputs
type Transaction struct {
	Hash        string     `json:"hash"`
	BlockHash   string     `json:"block_hash"`
	BlockHeight int64      `json:"block_height"`
	Fee         int64      `json:"fee"`
	Inputs      []TxInput  `json:"inputs"`
	Outputs     []TxOutput `json:"outputs"`
}

// Validate checks transaction data consistency
func (t *Transaction) Validate() error {
	if t.Hash == "" {
		return fmt.Errorf("transaction hash is required")
	}
	if t.BlockHash == "" {
		return fmt.Errorf("transaction %s: block hash is required", t.Hash)
	}
	for i, out := range t.Outputs {
		if out.Address == "" {
			return fmt.Errorf("transaction %s: output %d has no address", t.Hash, i)
		}
		if out.Amount < 0 {
			return fmt.Errorf("transaction %s: output %d has negative amount", t.Hash, i)
		}
	}
	for i, in := range t.Inputs {
		if in.Address == "" {
			return fmt.Errorf("transaction %s: input %d has no address", t.Hash, i)
		}
	}
	return nil
}

// TotalOutput returns the summed lovelace value of all outputs
func (t *Transaction) TotalOutput() int64 {
	var total int64
	for _, out := range t.Outputs {
		total += out.Amount
	}
	return total
}
