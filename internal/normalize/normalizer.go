// Package normalize turns raw catalog product names into search keys.
package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Mode selects how aggressively dosage information is stripped.
type Mode string

const (
	// ModeTerse keeps only the first few letter-only words (brand-bearing).
	ModeTerse Mode = "terse"
	// ModePrecision keeps dosage tokens such as "500MG" and allows longer keys.
	ModePrecision Mode = "precision"
)

// ParseMode converts a flag value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeTerse:
		return ModeTerse, nil
	case ModePrecision:
		return ModePrecision, nil
	default:
		return "", fmt.Errorf("unknown normalizer mode %q (expected %q or %q)", s, ModeTerse, ModePrecision)
	}
}

var (
	parenthesizedRe = regexp.MustCompile(`\([^)]*\)`)
	separatorRe     = regexp.MustCompile(`[,/]`)
	numericRe       = regexp.MustCompile(`^[\d.\-]+$`)
	dosageCodeRe    = regexp.MustCompile(`^\d+\p{L}+$`)
)

// Normalizer computes search keys for one mode. It is immutable and safe for concurrent use.
type Normalizer struct {
	mode         Mode
	rules        ModeRules
	tokenRe      *regexp.Regexp
	noise        map[string]struct{}
	minKeyLength int
}

// New builds a normalizer for mode from profile.
func New(profile Profile, mode Mode) (*Normalizer, error) {
	rules := profile.Rules(mode)
	if rules.MaxTokens < 1 {
		return nil, fmt.Errorf("normalizer mode %s: max_tokens must be positive", mode)
	}

	tokenRe, err := regexp.Compile(rules.TokenPattern)
	if err != nil {
		return nil, fmt.Errorf("normalizer mode %s: invalid token pattern: %w", mode, err)
	}

	noise := make(map[string]struct{}, len(profile.NoiseWords))
	for _, w := range profile.NoiseWords {
		noise[strings.ToUpper(strings.TrimSpace(w))] = struct{}{}
	}

	return &Normalizer{
		mode:         mode,
		rules:        rules,
		tokenRe:      tokenRe,
		noise:        noise,
		minKeyLength: profile.MinKeyLength,
	}, nil
}

// Mode returns the mode the normalizer was built for.
func (n *Normalizer) Mode() Mode {
	return n.mode
}

// Normalize returns the search key for rawName. An empty result means "do not search".
func (n *Normalizer) Normalize(rawName string) string {
	raw := strings.TrimSpace(norm.NFC.String(rawName))
	if raw == "" {
		return n.rules.Placeholder
	}

	name := parenthesizedRe.ReplaceAllString(raw, "")
	name = separatorRe.ReplaceAllString(name, " ")

	kept := make([]string, 0, n.rules.MaxTokens)
	for _, token := range n.tokenRe.FindAllString(name, -1) {
		token = strings.ToUpper(strings.Trim(token, ".-"))
		if !n.keep(token) {
			continue
		}
		kept = append(kept, strings.ToLower(token))
		if len(kept) == n.rules.MaxTokens {
			break
		}
	}

	key := strings.Join(kept, " ")
	if utf8.RuneCountInString(key) <= n.minKeyLength {
		return strings.ToLower(strings.Fields(raw)[0])
	}
	return key
}

func (n *Normalizer) keep(token string) bool {
	if utf8.RuneCountInString(token) <= 1 {
		return false
	}
	if _, isNoise := n.noise[token]; isNoise {
		return false
	}
	if numericRe.MatchString(token) {
		return false
	}
	if n.rules.DropDosageCodes && dosageCodeRe.MatchString(token) {
		return false
	}
	return true
}

var defaultNormalizers = func() map[Mode]*Normalizer {
	profile := DefaultProfile()
	out := make(map[Mode]*Normalizer, 2)
	for _, mode := range []Mode{ModeTerse, ModePrecision} {
		n, err := New(profile, mode)
		if err != nil {
			panic(fmt.Sprintf("default normalizer profile is invalid: %v", err))
		}
		out[mode] = n
	}
	return out
}()

// Normalize computes the search key for rawName using the default profile.
func Normalize(rawName string, mode Mode) string {
	n, ok := defaultNormalizers[mode]
	if !ok {
		n = defaultNormalizers[ModeTerse]
	}
	return n.Normalize(rawName)
}
