package rest

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"jobrec/internal/corpus"
	"jobrec/internal/domain"
	"jobrec/internal/snippet"
)

// skillList accepts either a JSON string or an array of strings.
type skillList []string

func (s *skillList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = skillList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errors.New("skills must be a string or an array of strings")
	}
	*s = many
	return nil
}

type recommendRequest struct {
	Skills skillList `json:"skills"`
	// NumRecommendations and TopK are aliases; TopK wins when both are set.
	NumRecommendations *int     `json:"num_recommendations"`
	TopK               *int     `json:"top_k"`
	Threshold          *float64 `json:"threshold"`
}

func (r recommendRequest) maxResults(fallback int) int {
	switch {
	case r.TopK != nil:
		return *r.TopK
	case r.NumRecommendations != nil:
		return *r.NumRecommendations
	default:
		return fallback
	}
}

// RecommendedJob is one match in a recommendation response.
type RecommendedJob struct {
	JobID      int64   `json:"jobId"`
	Title      string  `json:"title"`
	Skills     string  `json:"skills"`
	Similarity float64 `json:"similarity"`
}

// RecommendResponse is the body of a successful POST /recommend.
type RecommendResponse struct {
	RecommendedJobs []RecommendedJob `json:"recommendedJobs"`
}

// NewRecommendResponse converts results, shortening each job text around query
// when snippets is non-nil. An empty result gives an empty, non-nil list.
func NewRecommendResponse(results []domain.Result, snippets *snippet.Extractor, query string) RecommendResponse {
	jobs := make([]RecommendedJob, len(results))
	for i, res := range results {
		text := res.DisplayText
		if snippets != nil {
			text = snippets.Extract(text, query)
		}
		jobs[i] = RecommendedJob{JobID: res.ID, Title: res.Title, Skills: text, Similarity: res.Score}
	}
	return RecommendResponse{RecommendedJobs: jobs}
}

// jobPayload accepts both the jobs.csv shape (jobId, title, skills) and the
// jobs table shape (job_id, title, description, role).
type jobPayload struct {
	JobID       *int64 `json:"jobId"`
	JobIDSnake  *int64 `json:"job_id"`
	Title       string `json:"title"`
	Skills      string `json:"skills"`
	Description string `json:"description"`
	Role        string `json:"role"`
}

func (p jobPayload) record() (domain.JobRecord, error) {
	id := p.JobID
	if id == nil {
		id = p.JobIDSnake
	}
	if id == nil {
		return domain.JobRecord{}, errors.New("job without jobId")
	}
	text := strings.TrimSpace(p.Skills)
	if text == "" {
		text = corpus.JoinFields(p.Title, p.Role, p.Description)
	}
	return domain.JobRecord{ID: *id, Title: p.Title, Text: text}, nil
}

type healthResponse struct {
	Status    string     `json:"status"`
	Encoder   string     `json:"encoder"`
	IndexSize int        `json:"index_size"`
	Dimension int        `json:"dimension,omitempty"`
	BuiltAt   *time.Time `json:"built_at,omitempty"`
}

type indexedResponse struct {
	Indexed int `json:"indexed"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
