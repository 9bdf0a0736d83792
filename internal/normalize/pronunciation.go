package normalize

import (
	"fmt"
	"strings"

	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/internal/language"
)

// Speaking rate bands in words per minute, by difficulty.
var rateBands = map[string][2]float64{
	"beginner":     {60, 140},
	"intermediate": {90, 160},
	"advanced":     {110, 190},
}

const (
	longPause        = 1.0 // seconds between words
	pausePenalty     = 5.0
	maxPausePenalty  = 30.0
	confidenceWeight = 0.6
)

// Pronunciation scores a transcription against the text the learner was
// asked to read. All scores are in [0,100].
func Pronunciation(t entities.TranscriptionResult, in entities.PronunciationInput) entities.PronunciationResult {
	target := Words(in.TargetText)
	spoken := Words(t.Transcript)

	matchedIdx, spokenIdx := lcs(target, spoken)

	matched := make([]string, 0, len(matchedIdx))
	missing := make([]string, 0)
	inMatch := make(map[int]bool, len(matchedIdx))
	for _, i := range matchedIdx {
		inMatch[i] = true
		matched = append(matched, target[i])
	}
	for i, w := range target {
		if !inMatch[i] {
			missing = append(missing, w)
		}
	}
	extra := make([]string, 0)
	spokenMatch := make(map[int]bool, len(spokenIdx))
	for _, j := range spokenIdx {
		spokenMatch[j] = true
	}
	for j, w := range spoken {
		if !spokenMatch[j] {
			extra = append(extra, w)
		}
	}

	var accuracy float64
	if len(target) > 0 {
		accuracy = 100 * float64(len(matchedIdx)) / float64(len(target))
	}
	completeness := completenessScore(target, spoken)

	rate := 0.0
	if t.Duration > 0 {
		rate = float64(len(spoken)) / t.Duration * 60
	}
	fluency := fluencyScore(t, rate, in.Difficulty, accuracy, completeness)
	pronunciation := pronunciationScore(t, accuracy)

	scores := entities.PronunciationScores{
		Pronunciation: Round(Percent(pronunciation), 1),
		Fluency:       Round(Percent(fluency), 1),
		Accuracy:      Round(Percent(accuracy), 1),
		Completeness:  Round(Percent(completeness), 1),
	}
	switch in.EvaluationType {
	case "fluency":
		scores.Overall = scores.Fluency
	case "accuracy":
		scores.Overall = scores.Accuracy
	case "completeness":
		scores.Overall = scores.Completeness
	case "comprehensive":
		scores.Overall = Round(Percent((scores.Pronunciation+scores.Fluency+scores.Accuracy+scores.Completeness)/4), 1)
	default:
		scores.Overall = scores.Pronunciation
	}

	return entities.PronunciationResult{
		Transcript:     t.Transcript,
		TargetText:     in.TargetText,
		Language:       in.Language.Name,
		EvaluationType: in.EvaluationType,
		Difficulty:     in.Difficulty,
		Scores:         scores,
		Grade:          grade(scores.Overall),
		MatchedWords:   matched,
		MissingWords:   missing,
		ExtraWords:     extra,
		Feedback:       feedback(scores, missing, rate, in.Difficulty, in.Language),
		SpeakingRate:   Round(rate, 1),
		Duration:       t.Duration,
	}
}

// lcs returns the indexes in a and b of one longest common subsequence.
func lcs(a, b []string) ([]int, []int) {
	dp := make([][]int, len(a)+1)
	for i := range dp {
		dp[i] = make([]int, len(b)+1)
	}
	for i := len(a) - 1; i >= 0; i-- {
		for j := len(b) - 1; j >= 0; j-- {
			if a[i] == b[j] {
				dp[i][j] = dp[i+1][j+1] + 1
			} else if dp[i+1][j] >= dp[i][j+1] {
				dp[i][j] = dp[i+1][j]
			} else {
				dp[i][j] = dp[i][j+1]
			}
		}
	}
	var ai, bi []int
	for i, j := 0, 0; i < len(a) && j < len(b); {
		switch {
		case a[i] == b[j]:
			ai = append(ai, i)
			bi = append(bi, j)
			i++
			j++
		case dp[i+1][j] >= dp[i][j+1]:
			i++
		default:
			j++
		}
	}
	return ai, bi
}

func completenessScore(target, spoken []string) float64 {
	want := make(map[string]bool, len(target))
	for _, w := range target {
		want[w] = true
	}
	if len(want) == 0 {
		return 0
	}
	got := make(map[string]bool, len(spoken))
	for _, w := range spoken {
		if want[w] {
			got[w] = true
		}
	}
	return 100 * float64(len(got)) / float64(len(want))
}

func fluencyScore(t entities.TranscriptionResult, rate float64, difficulty string, accuracy, completeness float64) float64 {
	if rate == 0 {
		return (accuracy + completeness) / 2
	}
	band, ok := rateBands[difficulty]
	if !ok {
		band = rateBands["intermediate"]
	}
	var score float64
	switch {
	case rate < band[0]:
		score = 100 * rate / band[0]
	case rate > band[1]:
		score = 100 * band[1] / rate
	default:
		score = 100
	}

	penalty := 0.0
	for i := 1; i < len(t.Words); i++ {
		if t.Words[i].StartTime-t.Words[i-1].EndTime > longPause {
			penalty += pausePenalty
		}
	}
	if penalty > maxPausePenalty {
		penalty = maxPausePenalty
	}
	return score - penalty
}

func pronunciationScore(t entities.TranscriptionResult, accuracy float64) float64 {
	confs := make([]float64, 0, len(t.Words))
	for _, w := range t.Words {
		if w.Confidence > 0 {
			confs = append(confs, w.Confidence)
		}
	}
	conf := mean(confs)
	if len(confs) == 0 {
		conf = t.Confidence
	}
	if conf <= 0 {
		return accuracy
	}
	return confidenceWeight*Unit(conf)*100 + (1-confidenceWeight)*accuracy
}

func grade(overall float64) string {
	switch {
	case overall >= 90:
		return "A"
	case overall >= 80:
		return "B"
	case overall >= 70:
		return "C"
	case overall >= 60:
		return "D"
	default:
		return "F"
	}
}

var feedbackText = map[string]map[string]string{
	"excellent": {
		"en": "Excellent reading! Your pronunciation is clear.",
		"hi": "बहुत बढ़िया! आपका उच्चारण स्पष्ट है।",
		"pa": "ਬਹੁਤ ਵਧੀਆ! ਤੁਹਾਡਾ ਉਚਾਰਣ ਸਾਫ਼ ਹੈ।",
	},
	"missing": {
		"en": "Some words were missed or unclear: %s",
		"hi": "कुछ शब्द छूट गए या स्पष्ट नहीं थे: %s",
		"pa": "ਕੁਝ ਸ਼ਬਦ ਰਹਿ ਗਏ ਜਾਂ ਸਾਫ਼ ਨਹੀਂ ਸਨ: %s",
	},
	"incomplete": {
		"en": "Try to read the whole text from start to finish.",
		"hi": "पूरा पाठ शुरू से अंत तक पढ़ने की कोशिश करें।",
		"pa": "ਪੂਰਾ ਪਾਠ ਸ਼ੁਰੂ ਤੋਂ ਅੰਤ ਤੱਕ ਪੜ੍ਹਨ ਦੀ ਕੋਸ਼ਿਸ਼ ਕਰੋ।",
	},
	"slow": {
		"en": "Try to read a little faster and with fewer pauses.",
		"hi": "थोड़ा तेज़ और कम रुककर पढ़ने की कोशिश करें।",
		"pa": "ਥੋੜ੍ਹਾ ਤੇਜ਼ ਅਤੇ ਘੱਟ ਰੁਕ ਕੇ ਪੜ੍ਹਨ ਦੀ ਕੋਸ਼ਿਸ਼ ਕਰੋ।",
	},
	"fast": {
		"en": "Slow down a little so every word is clear.",
		"hi": "थोड़ा धीरे पढ़ें ताकि हर शब्द साफ़ सुनाई दे।",
		"pa": "ਥੋੜ੍ਹਾ ਹੌਲੀ ਪੜ੍ਹੋ ਤਾਂ ਜੋ ਹਰ ਸ਼ਬਦ ਸਾਫ਼ ਸੁਣਾਈ ਦੇਵੇ।",
	},
	"practice": {
		"en": "Keep practicing: listen to the text read aloud and repeat it.",
		"hi": "अभ्यास जारी रखें: पाठ को सुनें और दोहराएँ।",
		"pa": "ਅਭਿਆਸ ਜਾਰੀ ਰੱਖੋ: ਪਾਠ ਨੂੰ ਸੁਣੋ ਅਤੇ ਦੁਹਰਾਓ।",
	},
}

func localized(key string, lang language.Tag) string {
	if s, ok := feedbackText[key][lang.Code]; ok {
		return s
	}
	return feedbackText[key][language.English.Code]
}

func feedback(s entities.PronunciationScores, missing []string, rate float64, difficulty string, lang language.Tag) []string {
	out := make([]string, 0, 3)
	if s.Overall >= 90 && len(missing) == 0 {
		return append(out, localized("excellent", lang))
	}
	if len(missing) > 0 {
		shown := missing
		if len(shown) > 5 {
			shown = shown[:5]
		}
		out = append(out, fmt.Sprintf(localized("missing", lang), strings.Join(shown, ", ")))
	}
	if s.Completeness < 80 {
		out = append(out, localized("incomplete", lang))
	}
	if band, ok := rateBands[difficulty]; ok && rate > 0 {
		switch {
		case rate < band[0]:
			out = append(out, localized("slow", lang))
		case rate > band[1]:
			out = append(out, localized("fast", lang))
		}
	}
	if s.Overall < 60 {
		out = append(out, localized("practice", lang))
	}
	if len(out) == 0 {
		out = append(out, localized("excellent", lang))
	}
	return out
}
