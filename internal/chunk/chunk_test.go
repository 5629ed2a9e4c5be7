package chunk

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func items(n int, text string) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = text
	}
	return out
}

func TestGroupPreservesOrder(t *testing.T) {
	in := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	batches := Group(in, 4)
	assert.Len(t, batches, 3)

	var joined []string
	for _, b := range batches {
		assert.LessOrEqual(t, len(b), 4)
		joined = append(joined, b...)
	}
	assert.Equal(t, in, joined)
	assert.Empty(t, Group(nil, 8))
}

func TestChunk(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		opts  Options
		want  int
	}{
		{name: "seventeen items make three batches", items: items(17, strings.Repeat("x", 120)), want: 3},
		{name: "trailing short batch is skipped", items: items(17, strings.Repeat("x", 20)), want: 2},
		{name: "short batches are skipped", items: items(3, "tiny"), want: 0},
		{name: "empty input", items: nil, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, Chunk(tt.items, tt.opts), tt.want)
		})
	}
}

func TestChunkTruncatesLongBatches(t *testing.T) {
	in := items(8, strings.Repeat("y", 2000))
	out := Chunk(in, Options{MaxChars: 8000})
	assert.Len(t, out, 1)
	assert.Equal(t, 8000+len(Ellipsis), utf8.RuneCountInString(out[0]))
	assert.True(t, strings.HasSuffix(out[0], Ellipsis))
}

func TestChunkKeepsBatchAtExactlyMinChars(t *testing.T) {
	out := Chunk([]string{strings.Repeat("z", 100)}, Options{MinChars: 100})
	assert.Equal(t, []string{strings.Repeat("z", 100)}, out)
}

func TestTruncateCountsRunes(t *testing.T) {
	assert.Equal(t, "héllo", Truncate("héllo", 5))
	assert.Equal(t, "hé...", Truncate("héllo", 2))
}
