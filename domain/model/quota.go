package model

// QuotaStatus is a read-only snapshot of the current quota epoch.
type QuotaStatus struct {
	EpochID    string  `json:"epoch_id"`
	Used       int64   `json:"used"`
	Limit      int64   `json:"limit"`
	Remaining  int64   `json:"remaining"`
	Percentage float64 `json:"percentage"`
	// Warning is set once usage crosses the configured threshold; callers
	// use it to skip optional expensive operations before hard exhaustion.
	Warning bool `json:"warning"`
}
