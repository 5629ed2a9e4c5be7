// Package chunk groups content items into bounded text batches for
// generation prompts.
package chunk

import (
	"strings"
	"unicode/utf8"
)

// Ellipsis marks text that was cut to fit a limit.
const Ellipsis = "..."

const (
	DefaultBatchSize = 8
	DefaultMaxChars  = 8000
	DefaultMinChars  = 100
)

type Options struct {
	BatchSize int
	MaxChars  int
	MinChars  int
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.MaxChars <= 0 {
		o.MaxChars = DefaultMaxChars
	}
	if o.MinChars <= 0 {
		o.MinChars = DefaultMinChars
	}
	return o
}

// Group splits items into consecutive batches of at most size items.
// The last batch may be shorter.
func Group(items []string, size int) [][]string {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var batches [][]string
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end])
	}
	return batches
}

// Chunk joins each batch with newlines, drops batches shorter than
// MinChars and truncates the rest to MaxChars.
func Chunk(items []string, opts Options) []string {
	opts = opts.withDefaults()
	var out []string
	for _, batch := range Group(items, opts.BatchSize) {
		text := strings.Join(batch, "\n")
		if utf8.RuneCountInString(text) < opts.MinChars {
			continue
		}
		out = append(out, Truncate(text, opts.MaxChars))
	}
	return out
}

// Truncate cuts s to max runes and appends Ellipsis when anything was cut.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + Ellipsis
}
