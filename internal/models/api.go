package models

type UploadResponse struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	FileType     string `json:"file_type"`
}

type EvaluateRequest struct {
	JobDescriptionIDs []string `json:"job_description_ids" validate:"required"`
	ResumeIDs         []string `json:"resume_ids" validate:"required"`
	HardWeight        *float64 `json:"hard_weight,omitempty"`
	SemanticWeight    *float64 `json:"semantic_weight,omitempty"`
}

type EvaluateResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	TotalPairs int    `json:"total_pairs"`
}

type ResultResponse struct {
	ID           string          `json:"id"`
	Status       string          `json:"status"`
	Result       *EvaluationData `json:"result,omitempty"`
	Failures     []Failure       `json:"failures,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
}

type EvaluationData struct {
	Weights ScoreWeights  `json:"weights"`
	Total   int           `json:"total"`
	Matched int           `json:"matched"`
	Rows    []MatchResult `json:"rows"`
	TopByJD []JobRanking  `json:"top_by_jd,omitempty"`
	Filters FilterOptions `json:"filters"`
}

// JobRanking holds the best candidates for one job description.
type JobRanking struct {
	JD         string        `json:"jd"`
	Candidates []MatchResult `json:"candidates"`
}

// FilterOptions lists the distinct values a result table can be filtered on.
type FilterOptions struct {
	JobDescriptions []string `json:"job_descriptions"`
	JobRoles        []string `json:"job_roles"`
	Locations       []string `json:"locations"`
}

type SearchRequest struct {
	Text    string `json:"text"`
	DocType string `json:"doc_type"`
	Limit   int    `json:"limit"`
}
