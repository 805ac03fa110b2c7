package legacy

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Freddiekinns/chess-opening-explorer-sub002/store"
)

// RecalculateMatchScore derives a fresh relevance score from the textual
// overlap between a video title and an opening's name, aliases and ECO
// code. The score is the fraction of the opening's name tokens found in
// the title, with a bonus when the ECO code itself appears; the result is
// bounded to [0,1].
//
// An opening with no usable name cannot be scored; the caller falls back
// to the legacy score in that case.
func RecalculateMatchScore(title string, opening *store.Opening) (float64, error) {
	if opening == nil || strings.TrimSpace(opening.Name) == "" {
		return 0, fmt.Errorf("legacy: cannot score against unnamed opening")
	}

	titleTokens := tokenize(title)
	if len(titleTokens) == 0 {
		return 0, fmt.Errorf("legacy: empty video title")
	}

	nameTokens := tokenize(opening.Name)
	for _, alias := range opening.Aliases {
		nameTokens = append(nameTokens, tokenize(alias)...)
	}

	inTitle := make(map[string]bool, len(titleTokens))
	for _, t := range titleTokens {
		inTitle[t] = true
	}

	matched := 0
	distinct := make(map[string]bool)
	for _, t := range nameTokens {
		if distinct[t] {
			continue
		}
		distinct[t] = true
		if inTitle[t] {
			matched++
		}
	}
	if len(distinct) == 0 {
		return 0, fmt.Errorf("legacy: opening name has no scorable tokens")
	}

	score := float64(matched) / float64(len(distinct))
	if opening.ECO != "" && inTitle[strings.ToLower(opening.ECO)] {
		score += 0.1
	}
	return clampScore(score), nil
}

// tokenize lowercases and splits on non-alphanumeric runs, dropping
// one-character tokens that match everything.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) > 1 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
