package merge

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

const (
	defaultTokenModel    = "gpt-4o"
	defaultTokenEncoding = "cl100k_base"
)

// TokenCounter estimates token counts for text content.
type TokenCounter interface {
	Name() string
	Count(text string) (int, error)
}

type tiktokenCounter struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// NewTokenCounter returns a TokenCounter for the requested model, falling
// back to the cl100k_base encoding when the model is unknown.
func NewTokenCounter(model string) (TokenCounter, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultTokenModel
	}

	encoding, err := tiktoken.EncodingForModel(model)
	if err == nil && encoding != nil {
		return &tiktokenCounter{encoding: encoding, name: model}, nil
	}

	fallback, fallbackErr := tiktoken.GetEncoding(defaultTokenEncoding)
	if fallbackErr != nil {
		return nil, fmt.Errorf("initialize fallback tokenizer: %w", fallbackErr)
	}
	return &tiktokenCounter{encoding: fallback, name: defaultTokenEncoding}, nil
}

func (c *tiktokenCounter) Name() string { return c.name }

func (c *tiktokenCounter) Count(text string) (int, error) {
	return len(c.encoding.Encode(text, nil, nil)), nil
}
