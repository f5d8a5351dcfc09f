package domain

import (
	"math/rand"
	"strings"
)

// FallbackWords is used when no usable word list was loaded.
var FallbackWords = []string{"قلم", "كتاب", "شمس", "قمر", "بحر", "جبل", "زهرة", "بيت"}

// WordPicker supplies secret words for turns.
type WordPicker interface {
	PickRandom() string
}

// WordBank is a fixed, non-empty list of drawable words.
type WordBank struct {
	words []string
}

// NewWordBank builds a bank from words, skipping blanks. An empty result falls
// back to FallbackWords.
func NewWordBank(words []string) *WordBank {
	cleaned := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			cleaned = append(cleaned, w)
		}
	}
	if len(cleaned) == 0 {
		cleaned = append(cleaned, FallbackWords...)
	}
	return &WordBank{words: cleaned}
}

// PickRandom returns a uniformly random word
func (b *WordBank) PickRandom() string {
	return b.words[rand.Intn(len(b.words))]
}

// Size returns the number of words in the bank
func (b *WordBank) Size() int {
	return len(b.words)
}

// Words returns a copy of the bank's words
func (b *WordBank) Words() []string {
	out := make([]string, len(b.words))
	copy(out, b.words)
	return out
}
