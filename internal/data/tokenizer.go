package data

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/repo"
)

// DefaultEncoding is the BPE used by the gpt-3.5 and gpt-4 families
const DefaultEncoding = "cl100k_base"

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTokenCounter loads a tiktoken encoding. The first call may fetch the
// BPE ranks into TIKTOKEN_CACHE_DIR.
func NewTokenCounter(encoding string) (repo.TokenCounter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load encoding %s: %w", encoding, err)
	}
	return &tiktokenCounter{enc: enc}, nil
}

// Count returns the number of tokens in text
func (c *tiktokenCounter) Count(text string) (int, error) {
	return len(c.enc.Encode(text, nil, nil)), nil
}
