package refresh

// IngestionStatus mirrors the remote service's ingestion lifecycle:
// CREATED -> QUEUED/INITIALIZED/RUNNING -> COMPLETED/FAILED/CANCELLED.
type IngestionStatus string

const (
	StatusCreated     IngestionStatus = "CREATED"
	StatusQueued      IngestionStatus = "QUEUED"
	StatusInitialized IngestionStatus = "INITIALIZED"
	StatusRunning     IngestionStatus = "RUNNING"
	StatusCompleted   IngestionStatus = "COMPLETED"
	StatusFailed      IngestionStatus = "FAILED"
	StatusCancelled   IngestionStatus = "CANCELLED"
)

// Started reports whether the remote job has begun work. A started job has
// observed the narrowed query, so the filter can safely be restored.
func (s IngestionStatus) Started() bool {
	switch s {
	case StatusQueued, StatusInitialized, StatusRunning:
		return true
	default:
		return false
	}
}

// Terminal reports whether the job has finished, successfully or not.
func (s IngestionStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// Outcome records how one dataset fared during a run. It is created once per
// dataset and never mutated afterwards.
type Outcome struct {
	DatasetID         string `json:"dataset_id"`
	DatasetName       string `json:"dataset_name"`
	TargetDate        string `json:"target_date,omitempty"`
	RollingWindowDays int    `json:"rolling_window_days"`
	IngestionID       string `json:"ingestion_id,omitempty"`
	QueryNarrowed     bool   `json:"sql_modified"`
	QueryRestored     bool   `json:"sql_reverted"`
	RefreshStarted    bool   `json:"refresh_started"`
	IngestionResult   string `json:"ingestion_result,omitempty"` // only when completion wait is enabled
	Status            string `json:"status"`
	Error             string `json:"error,omitempty"`
	Order             int    `json:"processing_order"`
}

// Summary aggregates every dataset's outcome for one run. It is the source
// of truth returned to the caller; logs are advisory only.
type Summary struct {
	TargetDate    string    `json:"target_date"`
	TotalDatasets int       `json:"total_datasets"`
	Successful    int       `json:"successful"`
	Failed        int       `json:"failed"`
	SuccessRate   string    `json:"success_rate"`
	Results       []Outcome `json:"results"`
}
