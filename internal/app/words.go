package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"neondraw/internal/domain"
)

// wordFile is the on-disk word list format: {"words": ["...", ...]}
type wordFile struct {
	Words []string `json:"words"`
}

// LoadWordBank loads the word list at path. Any problem reading it, or an
// empty list, falls back to the built-in words so the server always starts.
func LoadWordBank(path string, logger zerolog.Logger) *domain.WordBank {
	if path == "" {
		logger.Info().Int("words", len(domain.FallbackWords)).Msg("no word list configured, using built-in words")
		return domain.NewWordBank(nil)
	}

	words, err := readWordFile(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("failed to load word list, using built-in words")
		return domain.NewWordBank(nil)
	}

	bank := domain.NewWordBank(words)
	logger.Info().Str("path", path).Int("words", bank.Size()).Msg("word list loaded")
	return bank
}

func readWordFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}

	var file wordFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse word list: %w", err)
	}
	if len(file.Words) == 0 {
		return nil, fmt.Errorf("word list %s is empty", path)
	}

	return file.Words, nil
}
