// Package language resolves the supported learning languages between their
// short codes, full names, speech locales and OCR model identifiers.
package language

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"

	"github.com/shiksha-ai/server/internal/apperr"
)

// Tag is one supported language in every representation the upstream
// services need. The fields of a Tag never disagree with each other.
type Tag struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Locale  string `json:"locale"`
	OCRCode string `json:"ocrCode"`
}

var (
	English = Tag{Code: "en", Name: "english", Locale: "en-US", OCRCode: "eng"}
	Hindi   = Tag{Code: "hi", Name: "hindi", Locale: "hi-IN", OCRCode: "hin"}
	Punjabi = Tag{Code: "pa", Name: "punjabi", Locale: "pa-IN", OCRCode: "pan"}
)

// Default is used when a request omits its language.
var Default = English

var tags = []Tag{English, Hindi, Punjabi}

// Index maps built at init time.
var (
	byName   map[string]Tag
	byLocale map[string]Tag
	byOCR    map[string]Tag
)

func init() {
	byName = make(map[string]Tag, len(tags)*2)
	byLocale = make(map[string]Tag, len(tags)*2)
	byOCR = make(map[string]Tag, len(tags))
	for _, t := range tags {
		byName[t.Code] = t
		byName[t.Name] = t
		byLocale[strings.ToLower(t.Locale)] = t
		byLocale[t.Code] = t
		byOCR[t.OCRCode] = t
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Resolve accepts a short code ("hi") or a full name ("Hindi"), ignoring case
// and surrounding whitespace. Anything else is an UnsupportedLanguage error.
func Resolve(input string) (Tag, error) {
	if t, ok := byName[normalize(input)]; ok {
		return t, nil
	}
	return Tag{}, apperr.E(apperr.UnsupportedLanguage,
		"Unsupported language '%s'. Supported languages: %s", strings.TrimSpace(input), Supported())
}

// ResolveOrDefault resolves input, falling back to Default when input is blank.
func ResolveOrDefault(input string) (Tag, error) {
	if strings.TrimSpace(input) == "" {
		return Default, nil
	}
	return Resolve(input)
}

// FromLocale maps an upstream locale such as "hi-IN" or "pa-in" back to a Tag.
// A bare code is also accepted since some services report only the language.
func FromLocale(locale string) (Tag, bool) {
	locale = normalize(locale)
	if t, ok := byLocale[locale]; ok {
		return t, true
	}
	base, _, _ := strings.Cut(locale, "-")
	t, ok := byLocale[base]
	return t, ok
}

// FromOCRCode maps a Tesseract model id back to a Tag.
func FromOCRCode(code string) (Tag, bool) {
	t, ok := byOCR[normalize(code)]
	return t, ok
}

// All returns the supported languages in registry order.
func All() []Tag {
	out := make([]Tag, len(tags))
	copy(out, tags)
	return out
}

// Supported renders the supported languages for error messages.
func Supported() string {
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		parts = append(parts, t.Code+" ("+t.Name+")")
	}
	return strings.Join(parts, ", ")
}

// DisplayName returns the title-cased language name, e.g. "Punjabi".
func (t Tag) DisplayName() string {
	return cases.Title(xlanguage.English).String(t.Name)
}

// BCP47 parses the locale into an x/text tag.
func (t Tag) BCP47() (xlanguage.Tag, error) {
	return xlanguage.Parse(t.Locale)
}

// IsZero reports whether t is the zero Tag.
func (t Tag) IsZero() bool {
	return t.Code == ""
}

// DetectScript guesses the language of text from its letters: Devanagari
// means Hindi, Gurmukhi means Punjabi, anything else English. When scripts
// are mixed the one with more letters wins.
func DetectScript(text string) Tag {
	var devanagari, gurmukhi int
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Devanagari, r):
			devanagari++
		case unicode.Is(unicode.Gurmukhi, r):
			gurmukhi++
		}
	}
	switch {
	case devanagari == 0 && gurmukhi == 0:
		return English
	case gurmukhi > devanagari:
		return Punjabi
	default:
		return Hindi
	}
}
