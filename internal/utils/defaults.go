package utils

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DefaultGetChannelBufferSize returns the buffer size for a named channel,
// with an environment override (CHANNEL_BUFFER_<name>)
func DefaultGetChannelBufferSize(channelName string, fallback int) int {
	defaults := map[string]int{
		"GraphUpdates":     2000,
		"Snapshots":        200,
		"ClientSend":       256,
		"ClientRegister":   100,
		"ClientUnregister": 100,
	}

	envVar := fmt.Sprintf("CHANNEL_BUFFER_%s", channelName)
	if envVal := os.Getenv(envVar); envVal != "" {
		if size, err := strconv.Atoi(envVal); err == nil && size > 0 {
			return size
		}
	}

	if size, exists := defaults[channelName]; exists {
		return size
	}
	if fallback > 0 {
		return fallback
	}
	return 1000
}

// DefaultGenerateID generates a unique ID with a prefix
func DefaultGenerateID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}
