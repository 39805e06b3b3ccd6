package script

import (
	"encoding/json"
	"math/rand"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Obfuscator substitutes sensitive words at caption-display time. Each
// mapped word carries one or more replacement options; one is picked at
// random per occurrence. Timeline JSON keeps the original words, only
// exported captions are obfuscated.
type Obfuscator struct {
	options map[string][]string
	intn    func(n int) int
}

// NewObfuscator loads a JSON map of lowercased words to replacement
// options. A missing or malformed file degrades to a no-op obfuscator
// with a logged warning, never an error.
func NewObfuscator(path string, logger zerolog.Logger) *Obfuscator {
	o := &Obfuscator{
		options: map[string][]string{},
		intn:    rand.Intn,
	}
	if path == "" {
		logger.Debug().Msg("no obfuscation file configured")
		return o
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).
			Msg("obfuscation file unreadable, no words will be obfuscated")
		return o
	}

	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Warn().Err(err).Str("path", path).
			Msg("obfuscation file is not a valid JSON word map, no words will be obfuscated")
		return o
	}

	for word, opts := range raw {
		o.options[strings.ToLower(word)] = opts
	}
	logger.Info().Int("words", len(o.options)).Str("path", path).
		Msg("obfuscation map loaded")
	return o
}

// Replace returns a replacement for word when its lowercase form is
// mapped, otherwise the word unchanged.
func (o *Obfuscator) Replace(word string) string {
	opts, ok := o.options[strings.ToLower(word)]
	if !ok || len(opts) == 0 {
		return word
	}
	return opts[o.intn(len(opts))]
}

// Len reports how many words are mapped.
func (o *Obfuscator) Len() int {
	return len(o.options)
}
