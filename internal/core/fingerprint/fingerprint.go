// Package fingerprint computes deterministic identity keys for shift
// locations and customers, tolerant to casing, whitespace, accents, and
// common OCR confusions.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"unicode"
)

// pool of NFD decompose+strip-combining-marks+NFC recompose transformer chains
var accentChain = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		)
	},
}

var (
	nonAlnumSpaceDash = regexp.MustCompile(`[^A-Za-z0-9\s\-']`)
	digitZeroOrO      = regexp.MustCompile(`[0o]`)
	digitOneOrIL      = regexp.MustCompile(`[1il|]`)
	nonAlnum          = regexp.MustCompile(`[^a-z0-9]`)
)

// companyNoiseTokens are stripped from customer names before picking a surname
var companyNoiseTokens = map[string]struct{}{
	"ab":      {},
	"hb":      {},
	"kb":      {},
	"ltd":     {},
	"llc":     {},
	"inc":     {},
	"co":      {},
	"group":   {},
	"gruppen": {},
}

// Location computes the identity key for a shift's street/number/place
// components. postalArea is preferred over city when both are present
func Location(street, streetNumber, postalArea, city string) string {
	place := postalArea
	if place == "" {
		place = city
	}
	parts := []string{
		normalizeComponent(street),
		normalizeComponent(streetNumber),
		normalizeComponent(place),
	}
	return hashHex(strings.Join(parts, "|"))
}

// Customer computes the identity key for a customer display name, tolerant
// to middle names and noise tokens (company suffixes)
func Customer(customerName string) string {
	normalized := strings.ToLower(normalizeReadable(customerName))
	var rawTokens []string
	for _, t := range strings.Fields(normalized) {
		if t != "" {
			rawTokens = append(rawTokens, t)
		}
	}
	tokens := make([]string, 0, len(rawTokens))
	for _, t := range rawTokens {
		if _, noise := companyNoiseTokens[t]; !noise {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) == 0 {
		tokens = rawTokens
	}
	if len(tokens) == 0 {
		return hashHex("")
	}

	surname := tokens[0]
	for _, t := range tokens[1:] {
		if len(t) > len(surname) {
			surname = t
		}
	}

	var initials []string
	for _, t := range tokens {
		if t != surname && t != "" {
			initials = append(initials, t[:1])
		}
	}
	sortStrings(initials)

	source := surname + "|" + strings.Join(initials, "")
	return hashHex(source)
}

func sortStrings(ss []string) {
	for i := 1; i < len(ss); i++ {
		for j := i; j > 0 && ss[j-1] > ss[j]; j-- {
			ss[j-1], ss[j] = ss[j], ss[j-1]
		}
	}
}

// normalizeComponent folds a single address component to an OCR-tolerant key
func normalizeComponent(value string) string {
	base := strings.ToLower(normalizeReadable(value))
	if base == "" {
		return ""
	}
	base = digitZeroOrO.ReplaceAllString(base, "o")
	base = digitOneOrIL.ReplaceAllString(base, "l")
	base = nonAlnum.ReplaceAllString(base, "")
	return base
}

// normalizeReadable collapses whitespace, strips accents, and drops
// punctuation other than hyphens and apostrophes
func normalizeReadable(value string) string {
	collapsed := strings.Join(strings.Fields(value), " ")
	if collapsed == "" {
		return ""
	}
	stripped := stripAccents(collapsed)
	alnum := nonAlnumSpaceDash.ReplaceAllString(stripped, " ")
	return strings.Join(strings.Fields(alnum), " ")
}

func stripAccents(s string) string {
	tr := accentChain.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	accentChain.Put(tr)
	if err != nil {
		return s
	}
	return out
}

func hashHex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
