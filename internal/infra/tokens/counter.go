// Package tokens estimates token counts for usage accounting when the
// provider response carries no usage block.
package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Counter lazily initializes a tiktoken encoding and reuses it. Routed
// models rarely map onto a known tokenizer name, so counting is
// best-effort on cl100k_base.
type Counter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
}

func NewCounter() *Counter { return &Counter{} }

func (c *Counter) Count(text string) int {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			c.enc = enc
		}
	})
	if c.enc == nil {
		// tokenizer data unavailable, fall back to a rough 4 chars/token
		return len(text) / 4
	}
	return len(c.enc.Encode(text, nil, nil))
}
