// Package fenpath converts between FEN position keys and their
// filesystem-safe filename form. The mapping is bijective: every legal
// FEN round-trips exactly, so a filename alone identifies a position.
package fenpath

import "strings"

// emptyFieldToken is the on-disk stand-in for a FEN field that is empty
// ("-"), most commonly the en-passant field. A bare "-" cannot survive the
// filename encoding because spaces also become hyphens.
const emptyFieldToken = "dash"

// ToFilename converts a FEN position key to its filesystem-safe form:
// rank separators ('/') become underscores, field separators (spaces)
// become hyphens, and an empty field ("-") becomes the literal "dash".
//
//	rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1
//	→ rnbqkbnr_pppppppp_8_8_8_8_PPPPPPPP_RNBQKBNR-w-KQkq-dash-0-1
//
// The transform is pure, stateless and lossless for every legal FEN: no
// FEN field ever contains '-', ' ' or the literal "dash", so ToFEN inverts
// it exactly.
func ToFilename(fen string) string {
	fields := strings.Split(fen, " ")
	for i, f := range fields {
		if f == "-" {
			fields[i] = emptyFieldToken
		}
	}
	return strings.ReplaceAll(strings.Join(fields, "-"), "/", "_")
}

// ToFEN is the exact inverse of ToFilename.
func ToFEN(name string) string {
	fields := strings.Split(strings.ReplaceAll(name, "_", "/"), "-")
	for i, f := range fields {
		if f == emptyFieldToken {
			fields[i] = "-"
		}
	}
	return strings.Join(fields, " ")
}
