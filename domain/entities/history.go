package entities

import "time"

// Feature names a user-facing operation recorded in the activity history.
type Feature string

const (
	FeatureOCR           Feature = "ocr"
	FeatureSpeech        Feature = "speech"
	FeaturePronunciation Feature = "pronunciation"
	FeatureGrammar       Feature = "grammar"
	FeatureGrammarBatch  Feature = "grammar_batch"
	FeatureChat          Feature = "chat"
	FeatureExport        Feature = "export"
)

// Features lists every recordable feature.
var Features = []Feature{
	FeatureOCR, FeatureSpeech, FeaturePronunciation, FeatureGrammar,
	FeatureGrammarBatch, FeatureChat, FeatureExport,
}

// HistoryRecord is a short summary of one successful operation.
type HistoryRecord struct {
	ID            string    `json:"id" bson:"_id"`
	UserID        string    `json:"userId" bson:"user_id"`
	Feature       Feature   `json:"feature" bson:"feature"`
	Language      string    `json:"language" bson:"language"`
	InputSummary  string    `json:"inputSummary" bson:"input_summary"`
	OutputSummary string    `json:"outputSummary" bson:"output_summary"`
	Confidence    float64   `json:"confidence" bson:"confidence"`
	CreatedAt     time.Time `json:"createdAt" bson:"created_at"`
}

// FeatureStats aggregates one feature's history.
type FeatureStats struct {
	Count             int     `json:"count"`
	AverageConfidence float64 `json:"averageConfidence"`
}

// HistoryStats aggregates a user's history.
type HistoryStats struct {
	Total     int                      `json:"total"`
	ByFeature map[Feature]FeatureStats `json:"byFeature"`
	Languages map[string]int           `json:"languages"`
	LastUsed  *time.Time               `json:"lastUsed,omitempty"`
}

// HistoryFilter narrows a history listing.
type HistoryFilter struct {
	Feature Feature
	Limit   int
}

// ComputeHistoryStats folds records into stats. Stores that cannot aggregate
// natively use this.
func ComputeHistoryStats(records []HistoryRecord) HistoryStats {
	stats := HistoryStats{
		ByFeature: make(map[Feature]FeatureStats),
		Languages: make(map[string]int),
	}
	sums := make(map[Feature]float64)
	for i := range records {
		r := records[i]
		stats.Total++
		fs := stats.ByFeature[r.Feature]
		fs.Count++
		stats.ByFeature[r.Feature] = fs
		sums[r.Feature] += r.Confidence
		if r.Language != "" {
			stats.Languages[r.Language]++
		}
		if stats.LastUsed == nil || r.CreatedAt.After(*stats.LastUsed) {
			created := r.CreatedAt
			stats.LastUsed = &created
		}
	}
	for f, fs := range stats.ByFeature {
		fs.AverageConfidence = sums[f] / float64(fs.Count)
		stats.ByFeature[f] = fs
	}
	return stats
}
