package helper

import (
	"encoding/json"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// NewID returns a random identifier such as "snapshot-0b6f…"
func NewID(prefix string) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate UUID: %w", err)
	}
	return prefix + "-" + id.String(), nil
}

// PrettyPrint writes v to w as indented JSON
func PrettyPrint(w io.Writer, v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Warn().Err(err).Msg("Error pretty printing")
		return
	}
	fmt.Fprintln(w, string(b))
}

// Shorten cuts s to at most n runes, marking the cut with an ellipsis
func Shorten(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "…"
}
