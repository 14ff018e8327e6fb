package service

import (
	"fmt"
	"strings"
)

// Built-in placeholder tokens.
const (
	TokenYear     = "YYYY"
	TokenYearTwo  = "YY"
	TokenMonth    = "MM"
	TokenDay      = "DD"
	TokenDate     = "YYYYMMDD"
	TokenSequence = "SEQ"
	TokenClient   = "CLIENT"
)

// Padding bounds for the {SEQ} placeholder.
const (
	MinSeqPadding = 1
	MaxSeqPadding = 12
)

const (
	unknownClient   = "UNKNOWN"
	clientMaxLength = 10
)

var builtinTokens = map[string]struct{}{
	TokenYear:     {},
	TokenYearTwo:  {},
	TokenMonth:    {},
	TokenDay:      {},
	TokenDate:     {},
	TokenSequence: {},
	TokenClient:   {},
}

// IsBuiltinToken reports whether name is computed by the generator rather than supplied by callers.
func IsBuiltinToken(name string) bool {
	_, ok := builtinTokens[name]
	return ok
}

func placeholder(token string) string {
	return "{" + token + "}"
}

// ValidateTemplate checks that template is non-empty, that its braces form flat balanced
// tokens and that padding is within MinSeqPadding..MaxSeqPadding.
func ValidateTemplate(template string, padding int) error {
	if strings.TrimSpace(template) == "" {
		return fmt.Errorf("%w: template is empty", ErrInvalidTemplate)
	}
	if padding < MinSeqPadding || padding > MaxSeqPadding {
		return fmt.Errorf("%w: sequence padding %d outside %d..%d", ErrInvalidTemplate, padding, MinSeqPadding, MaxSeqPadding)
	}
	_, err := scanTokens(template)
	return err
}

// Placeholders lists the distinct tokens of template in order of first appearance.
// Malformed templates yield the tokens found before the first error.
func Placeholders(template string) []string {
	tokens, _ := scanTokens(template)
	return tokens
}

func scanTokens(template string) ([]string, error) {
	var tokens []string
	seen := make(map[string]struct{})
	open := -1

	for i, r := range template {
		switch r {
		case '{':
			if open >= 0 {
				return tokens, fmt.Errorf("%w: nested '{' at offset %d", ErrInvalidTemplate, i)
			}
			open = i
		case '}':
			if open < 0 {
				return tokens, fmt.Errorf("%w: unmatched '}' at offset %d", ErrInvalidTemplate, i)
			}
			token := template[open+1 : i]
			if strings.TrimSpace(token) == "" {
				return tokens, fmt.Errorf("%w: empty placeholder at offset %d", ErrInvalidTemplate, open)
			}
			if _, ok := seen[token]; !ok {
				seen[token] = struct{}{}
				tokens = append(tokens, token)
			}
			open = -1
		}
	}
	if open >= 0 {
		return tokens, fmt.Errorf("%w: unclosed '{' at offset %d", ErrInvalidTemplate, open)
	}
	return tokens, nil
}

// normalizeClient upper-cases name, strips spaces and hyphens and keeps the first ten characters.
func normalizeClient(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, strings.ToUpper(strings.TrimSpace(name)))

	if cleaned == "" {
		return unknownClient
	}
	if runes := []rune(cleaned); len(runes) > clientMaxLength {
		cleaned = string(runes[:clientMaxLength])
	}
	return cleaned
}

func padSequence(value int64, padding int) string {
	if padding < MinSeqPadding {
		padding = MinSeqPadding
	}
	return fmt.Sprintf("%0*d", padding, value)
}

func applyReplacements(template string, replacements map[string]string) string {
	pairs := make([]string, 0, len(replacements)*2)
	for token, value := range replacements {
		pairs = append(pairs, placeholder(token), value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
