package types

// RunReport is the end-of-run summary shown to the operator.
type RunReport struct {
	RunID       string `json:"run_id"`
	DryRun      bool   `json:"dry_run"`
	Cleared     int64  `json:"cleared"`
	Reused      int    `json:"reused"`
	Processed   int    `json:"processed"`
	Found       int    `json:"found"`
	NotFound    int    `json:"not_found"`
	Unresolved  int    `json:"unresolved"`
	Exhausted   int    `json:"exhausted"`
	Unpersisted int    `json:"unpersisted"`
	Batches     int    `json:"batches"`
	// ActiveTotal and WithImage are read from the store after the run; zero in dry-run.
	ActiveTotal int64  `json:"active_total"`
	WithImage   int64  `json:"with_image"`
	LogPath     string `json:"log_path,omitempty"`
}
