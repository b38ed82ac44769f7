package search

// Match is one log returned by vector similarity.
type Match struct {
	LogID       string  `json:"log_id"`
	Content     string  `json:"content"`
	LogDate     string  `json:"log_date"`
	ProjectName string  `json:"project_name,omitempty"`
	Similarity  float64 `json:"similarity"`
}

// Options tunes a semantic search.
type Options struct {
	Threshold float64
	Limit     int
}

// Answer is a question answered from retrieved logs.
type Answer struct {
	Answer  string  `json:"answer"`
	Sources []Match `json:"sources"`
}

// BackfillResult reports an embedding backfill run.
type BackfillResult struct {
	Created   int `json:"created"`
	Failed    int `json:"failed"`
	Remaining int `json:"remaining"`
}

const (
	DefaultThreshold = 0.7
	DefaultLimit     = 10

	askThreshold = 0.4
	askCount     = 20

	DefaultBackfillLimit = 15
	MaxBackfillLimit     = 30
	backfillScan         = 500
)
