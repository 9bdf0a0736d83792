package normalize

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/internal/language"
)

// ParsedGrammar is the structured content of a model's sectioned reply.
type ParsedGrammar struct {
	Corrected    string
	HasCorrected bool
	Changes      []entities.GrammarChange
	Suggestions  []string
}

const (
	sectionCorrected   = "corrected"
	sectionChanges     = "changes"
	sectionSuggestions = "suggestions"
)

var (
	// Matches "CORRECTED: x", "**Corrected:** x", "## CHANGES:", "__Suggestions__:".
	headerPattern = regexp.MustCompile(`(?i)^\s*(?:#{1,6}\s*)?[*_]{0,2}\s*(corrected(?:\s+text)?|changes|suggestions)\s*[*_]{0,2}\s*:\s*[*_]{0,2}\s?(.*)$`)
	bulletPattern = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)
	changePattern = regexp.MustCompile(`^(.*?)\s*(?:->|→|=>)\s*(.*?)(?:\s*:\s+(.*))?$`)
	fencePattern  = regexp.MustCompile("^\\s*```")
	sentenceEnd   = regexp.MustCompile(`[.!?।॥]+`)
)

var emptyMarkers = map[string]bool{
	"none": true, "n/a": true, "na": true, "no changes": true,
	"no changes needed": true, "no suggestions": true, "-": true,
}

func isEmptyMarker(s string) bool {
	return emptyMarkers[strings.ToLower(strings.Trim(strings.TrimSpace(s), ".*_"))]
}

// sectionOrder is the order sections appear in the reply format.
var sectionOrder = map[string]int{sectionCorrected: 0, sectionChanges: 1, sectionSuggestions: 2}

// ParseGrammar extracts the CORRECTED, CHANGES and SUGGESTIONS sections from
// model output. Headers match case-insensitively at line start and may carry
// markdown emphasis. Sections only move forward, so a body line that looks
// like an earlier or repeated header stays in the body. When the same later
// header appears twice before the next section, the last one is the header.
// Absent sections are empty. Text before the first header is ignored.
func ParseGrammar(raw string) ParsedGrammar {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	headers := make([][]string, len(lines))
	for i, line := range lines {
		if fencePattern.MatchString(line) {
			continue
		}
		headers[i] = headerPattern.FindStringSubmatch(line)
	}
	final := finalHeaders(headers)

	var (
		current  = -1
		name     string
		sections = map[string][]string{}
		seen     = map[string]bool{}
	)
	for i, line := range lines {
		if fencePattern.MatchString(line) {
			continue
		}
		if m := headers[i]; m != nil && final[i] {
			section := canonicalSection(m[1])
			if order := sectionOrder[section]; order > current {
				current, name = order, section
				seen[section] = true
				if rest := strings.TrimSpace(m[2]); rest != "" {
					sections[section] = append(sections[section], rest)
				}
				continue
			}
		}
		if name != "" {
			sections[name] = append(sections[name], line)
		}
	}

	p := ParsedGrammar{
		Changes:     make([]entities.GrammarChange, 0),
		Suggestions: make([]string, 0),
	}

	corrected := strings.TrimSpace(strings.Join(sections[sectionCorrected], "\n"))
	if seen[sectionCorrected] && corrected != "" && !isEmptyMarker(corrected) {
		p.Corrected = corrected
		p.HasCorrected = true
	}

	for _, line := range sections[sectionChanges] {
		item := strings.TrimSpace(bulletPattern.ReplaceAllString(line, ""))
		if item == "" || isEmptyMarker(item) {
			continue
		}
		p.Changes = append(p.Changes, parseChange(item))
	}

	for _, line := range sections[sectionSuggestions] {
		item := strings.TrimSpace(bulletPattern.ReplaceAllString(line, ""))
		if item == "" || isEmptyMarker(item) {
			continue
		}
		p.Suggestions = append(p.Suggestions, item)
	}

	return p
}

// finalHeaders marks which header lines may open a section. The first
// section's header is its first occurrence. A later section's header is the
// last of its occurrences before a header of a section after it.
func finalHeaders(headers [][]string) []bool {
	final := make([]bool, len(headers))
	pending := map[string]bool{}
	for i := len(headers) - 1; i >= 0; i-- {
		if headers[i] == nil {
			continue
		}
		section := canonicalSection(headers[i][1])
		order := sectionOrder[section]
		final[i] = order == 0 || !pending[section]
		pending[section] = true
		for other, o := range sectionOrder {
			if o < order {
				pending[other] = false
			}
		}
	}
	return final
}

func canonicalSection(name string) string {
	name = strings.ToLower(name)
	if strings.HasPrefix(name, sectionCorrected) {
		return sectionCorrected
	}
	return name
}

func parseChange(item string) entities.GrammarChange {
	m := changePattern.FindStringSubmatch(item)
	if m == nil {
		return entities.GrammarChange{Explanation: item, Type: changeType(item)}
	}
	c := entities.GrammarChange{
		Original:    unquote(m[1]),
		Corrected:   unquote(m[2]),
		Explanation: strings.TrimSpace(m[3]),
	}
	c.Type = changeType(c.Explanation)
	return c
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range []string{`"`, `'`, "`", "“", "‘"} {
		closing := map[string]string{"“": "”", "‘": "’"}[q]
		if closing == "" {
			closing = q
		}
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, closing) && len(s) >= len(q)+len(closing) {
			return strings.TrimSpace(s[len(q) : len(s)-len(closing)])
		}
	}
	return s
}

var changeTypeKeywords = []struct {
	kind     string
	keywords []string
}{
	{"spelling", []string{"spell", "typo", "misspel", "वर्तनी", "ਸ਼ਬਦ-ਜੋੜ"}},
	{"punctuation", []string{"punctuation", "comma", "period", "full stop", "apostrophe", "विराम", "ਵਿਰਾਮ"}},
	{"tense", []string{"tense", "काल", "ਕਾਲ"}},
	{"agreement", []string{"agreement", "subject-verb", "singular", "plural", "agree", "लिंग", "वचन", "ਲਿੰਗ", "ਵਚਨ"}},
	{"article", []string{"article"}},
	{"word_order", []string{"word order", "order of"}},
	{"style", []string{"style", "clarity", "wordy", "concise", "formal", "शैली", "ਸ਼ੈਲੀ"}},
}

func changeType(explanation string) string {
	lower := strings.ToLower(explanation)
	for _, ct := range changeTypeKeywords {
		for _, kw := range ct.keywords {
			if strings.Contains(lower, kw) {
				return ct.kind
			}
		}
	}
	return "grammar"
}

// FormatGrammar renders p in the section format ParseGrammar reads.
// For canonical input, FormatGrammar(ParseGrammar(s)) == s.
func FormatGrammar(p ParsedGrammar) string {
	var b strings.Builder
	b.WriteString("CORRECTED: ")
	b.WriteString(p.Corrected)
	b.WriteString("\nCHANGES:")
	for _, c := range p.Changes {
		b.WriteString("\n- ")
		if c.Original == "" && c.Corrected == "" {
			b.WriteString(c.Explanation)
			continue
		}
		b.WriteString(c.Original)
		b.WriteString(" -> ")
		b.WriteString(c.Corrected)
		if c.Explanation != "" {
			b.WriteString(": ")
			b.WriteString(c.Explanation)
		}
	}
	b.WriteString("\nSUGGESTIONS:")
	for _, s := range p.Suggestions {
		b.WriteString("\n- ")
		b.WriteString(s)
	}
	return b.String()
}

// GrammarConfidence scores how much of the original survived correction:
// word overlap similarity minus half the relative length change, in [0,1].
func GrammarConfidence(original, corrected string) float64 {
	a, b := Words(original), Words(corrected)
	if len(a) == 0 && len(b) == 0 {
		return 1
	}

	counts := make(map[string]int, len(a))
	for _, w := range a {
		counts[w]++
	}
	common := 0
	for _, w := range b {
		if counts[w] > 0 {
			counts[w]--
			common++
		}
	}
	similarity := 2 * float64(common) / float64(len(a)+len(b))

	origLen := utf8.RuneCountInString(strings.TrimSpace(original))
	corrLen := utf8.RuneCountInString(strings.TrimSpace(corrected))
	penalty := math.Min(math.Abs(float64(origLen-corrLen))/math.Max(float64(origLen), 1), 0.5)

	return Round(Unit(similarity-0.5*penalty), 4)
}

// Grammar builds the API result for original text from raw model output.
// The raw output itself is never part of the result.
func Grammar(original, raw string, lang language.Tag, checkType string) entities.GrammarResult {
	p := ParseGrammar(raw)
	corrected := p.Corrected
	if !p.HasCorrected {
		corrected = original
	}

	totalErrors := len(p.Changes)
	if totalErrors == 0 && normalizeSpace(corrected) != normalizeSpace(original) {
		totalErrors = differingPositions(Words(original), Words(corrected))
		if totalErrors == 0 {
			totalErrors = 1
		}
	}

	byType := make(map[string]int)
	for _, c := range p.Changes {
		byType[c.Type]++
	}

	return entities.GrammarResult{
		OriginalText:  original,
		CorrectedText: corrected,
		Changes:       p.Changes,
		Suggestions:   p.Suggestions,
		Confidence:    GrammarConfidence(original, corrected),
		HasErrors:     totalErrors > 0,
		Statistics: entities.GrammarStatistics{
			TotalErrors:    totalErrors,
			WordCount:      len(strings.Fields(original)),
			CharacterCount: utf8.RuneCountInString(original),
			SentenceCount:  countSentences(original),
			ChangesByType:  byType,
		},
		Language:  lang.Name,
		CheckType: checkType,
	}
}

// BatchSummary aggregates grammar results.
func BatchSummary(results []entities.GrammarResult) entities.BatchSummary {
	s := entities.BatchSummary{TotalTexts: len(results)}
	confs := make([]float64, 0, len(results))
	for _, r := range results {
		if r.HasErrors {
			s.TextsWithErrors++
		}
		s.TotalErrors += r.Statistics.TotalErrors
		confs = append(confs, r.Confidence)
	}
	s.AverageConfidence = Round(Unit(mean(confs)), 4)
	return s
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func differingPositions(a, b []string) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	diff := 0
	for i := 0; i < n; i++ {
		if i >= len(a) || i >= len(b) || a[i] != b[i] {
			diff++
		}
	}
	return diff
}

func countSentences(text string) int {
	n := 0
	for _, part := range sentenceEnd.Split(text, -1) {
		if strings.TrimSpace(part) != "" {
			n++
		}
	}
	return n
}
