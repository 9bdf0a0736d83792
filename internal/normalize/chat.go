package normalize

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shiksha-ai/server/internal/language"
)

// EnrichThreshold is the reply length, in characters, above which a reply
// with a known subject is wrapped in the learning template.
const EnrichThreshold = 100

type subject struct {
	name     string
	keywords []string
	labels   map[string]string
}

var subjects = []subject{
	{"grammar", []string{"grammar", "tense", "tenses", "noun", "nouns", "verb", "verbs", "adjective", "adjectives", "pronoun", "sentence", "व्याकरण", "संज्ञा", "क्रिया", "ਵਿਆਕਰਣ", "ਨਾਂਵ", "ਕਿਰਿਆ"},
		map[string]string{"en": "Grammar", "hi": "व्याकरण", "pa": "ਵਿਆਕਰਣ"}},
	{"vocabulary", []string{"vocabulary", "word", "words", "meaning", "synonym", "antonym", "शब्द", "अर्थ", "ਸ਼ਬਦ", "ਅਰਥ"},
		map[string]string{"en": "Vocabulary", "hi": "शब्दावली", "pa": "ਸ਼ਬਦਾਵਲੀ"}},
	{"pronunciation", []string{"pronunciation", "pronounce", "accent", "उच्चारण", "ਉਚਾਰਣ"},
		map[string]string{"en": "Pronunciation", "hi": "उच्चारण", "pa": "ਉਚਾਰਣ"}},
	{"math", []string{"math", "maths", "mathematics", "algebra", "geometry", "fraction", "fractions", "गणित", "ਗਣਿਤ"},
		map[string]string{"en": "Mathematics", "hi": "गणित", "pa": "ਗਣਿਤ"}},
	{"science", []string{"science", "physics", "chemistry", "biology", "विज्ञान", "ਵਿਗਿਆਨ"},
		map[string]string{"en": "Science", "hi": "विज्ञान", "pa": "ਵਿਗਿਆਨ"}},
	{"history", []string{"history", "historical", "इतिहास", "ਇਤਿਹਾਸ"},
		map[string]string{"en": "History", "hi": "इतिहास", "pa": "ਇਤਿਹਾਸ"}},
	{"geography", []string{"geography", "map", "continent", "भूगोल", "ਭੂਗੋਲ"},
		map[string]string{"en": "Geography", "hi": "भूगोल", "pa": "ਭੂਗੋਲ"}},
	{"literature", []string{"literature", "poem", "poetry", "story", "novel", "साहित्य", "कविता", "ਸਾਹਿਤ", "ਕਵਿਤਾ"},
		map[string]string{"en": "Literature", "hi": "साहित्य", "pa": "ਸਾਹਿਤ"}},
	{"writing", []string{"essay", "writing", "letter", "paragraph", "निबंध", "लेखन", "ਲੇਖ", "ਲਿਖਣਾ"},
		map[string]string{"en": "Writing", "hi": "लेखन", "pa": "ਲਿਖਣਾ"}},
}

// DetectSubject returns the first subject whose keyword appears as a word
// of message, or "".
func DetectSubject(message string) string {
	words := make(map[string]bool)
	for _, w := range Words(message) {
		words[w] = true
	}
	for _, s := range subjects {
		for _, kw := range s.keywords {
			if words[kw] {
				return s.name
			}
		}
	}
	return ""
}

// SubjectLabel is the display name of a subject in a language. Unknown
// subjects are shown as given.
func SubjectLabel(name string, lang language.Tag) string {
	for _, s := range subjects {
		if s.name == name {
			if label, ok := s.labels[lang.Code]; ok {
				return label
			}
			return s.labels[language.English.Code]
		}
	}
	return name
}

var enrichTemplates = map[string]string{
	"en": "📚 Topic: %s\n\n%s\n\n💡 Keep practicing! Ask me for an exercise on this topic whenever you are ready.",
	"hi": "📚 विषय: %s\n\n%s\n\n💡 अभ्यास करते रहें! जब भी तैयार हों, इस विषय पर अभ्यास के लिए मुझसे पूछें।",
	"pa": "📚 ਵਿਸ਼ਾ: %s\n\n%s\n\n💡 ਅਭਿਆਸ ਜਾਰੀ ਰੱਖੋ! ਜਦੋਂ ਵੀ ਤਿਆਰ ਹੋਵੋ, ਇਸ ਵਿਸ਼ੇ 'ਤੇ ਅਭਿਆਸ ਲਈ ਮੈਨੂੰ ਪੁੱਛੋ।",
}

// EnrichReply wraps reply in the learning template when a subject is set and
// the reply is longer than EnrichThreshold characters. It reports whether
// the reply was changed.
func EnrichReply(reply, subjectName string, lang language.Tag) (string, bool) {
	reply = strings.TrimSpace(reply)
	if subjectName == "" || utf8.RuneCountInString(reply) <= EnrichThreshold {
		return reply, false
	}
	tmpl, ok := enrichTemplates[lang.Code]
	if !ok {
		tmpl = enrichTemplates[language.English.Code]
	}
	return fmt.Sprintf(tmpl, SubjectLabel(subjectName, lang), reply), true
}
