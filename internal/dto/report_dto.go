package dto

// QuestionReport is the aggregated result for one question. Exactly one of
// the payload groups is populated depending on the question type.
type QuestionReport struct {
	QuestionType string `json:"question_type"`

	// MULTIPLECHOICE / MULTIPLESELECT / SCALEMULTIPLECHOICE
	Labels []string `json:"labels,omitempty"`
	Counts []int    `json:"counts,omitempty"`

	// NUMBER (confidence-weighted)
	WeightedAverage *float64 `json:"weighted_average,omitempty"`

	// SLIDEREVIEW: page number -> comments
	Pages map[string][]string `json:"pages,omitempty"`

	// Free text
	Answers []string `json:"answers,omitempty"`
}

// ArtifactReportResponse is the full aggregation result for one artifact.
type ArtifactReportResponse struct {
	ArtifactID uint                                 `json:"artifact_id"`
	Sections   map[string]map[string]QuestionReport `json:"sections"`
	Keywords   map[string]float64                   `json:"keywords"`
}
