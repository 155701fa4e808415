// Package tokenizer provides model-aware token counting for budgeting and
// cost estimation. Counts are advisory, not billing-authoritative.
package tokenizer

import (
	"hash/fnv"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkoukk/tiktoken-go"
)

// fallbackEncoding is used for models tiktoken does not know. cl100k_base is
// the GPT-4 tokenizer and a reasonable approximation for other modern LLMs.
const fallbackEncoding = "cl100k_base"

// charsPerToken is the last-resort heuristic when no encoding is available
// at all (e.g. encoding data cannot be loaded).
const charsPerToken = 4

// memoSize bounds the count memo. Estimation is re-run every time the user
// changes model or target in the pre-flight loop, so repeated chapters are
// the common case.
const memoSize = 4096

type memoKey struct {
	model string
	hash  uint64
}

// Counter counts tokens for arbitrary text under a model's tokenization
// scheme. It is safe for concurrent use and deterministic for a fixed model.
type Counter struct {
	mu        sync.Mutex
	encodings map[string]*tiktoken.Tiktoken
	memo      *lru.Cache[memoKey, int]
}

// NewCounter builds a Counter with an empty encoding cache.
func NewCounter() *Counter {
	memo, _ := lru.New[memoKey, int](memoSize)
	return &Counter{
		encodings: make(map[string]*tiktoken.Tiktoken),
		memo:      memo,
	}
}

// Count returns the token count of text under the given model's encoding.
// Unknown models fall back to cl100k_base; if no encoding can be loaded the
// count degrades to a character heuristic rather than failing.
func (c *Counter) Count(text, model string) int {
	if text == "" {
		return 0
	}

	key := memoKey{model: model, hash: hashText(text)}
	if n, ok := c.memo.Get(key); ok {
		return n
	}

	n := c.encode(text, model)
	c.memo.Add(key, n)
	return n
}

func (c *Counter) encode(text, model string) int {
	enc := c.encodingFor(model)
	if enc == nil {
		return (len(text) + charsPerToken - 1) / charsPerToken
	}
	// Allow special tokens so inputs containing sequences like
	// "<|endoftext|>" are counted instead of rejected.
	return len(enc.Encode(text, []string{"all"}, nil))
}

func (c *Counter) encodingFor(model string) *tiktoken.Tiktoken {
	c.mu.Lock()
	defer c.mu.Unlock()

	if enc, ok := c.encodings[model]; ok {
		return enc
	}

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			slog.Warn("no tokenizer encoding available, using character heuristic",
				slog.String("model", model),
				slog.Any("error", err),
			)
			enc = nil
		}
	}
	c.encodings[model] = enc
	return enc
}

func hashText(text string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(text))
	return h.Sum64()
}
