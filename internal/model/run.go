package model

// RunSummary describes one stored pipeline run.
type RunSummary struct {
	ID              string
	CreatedAt       string // RFC 3339
	PhasesPath      string
	EventsPath      string
	DateFrom        string
	DateTo          string
	Strict          bool
	TaxonomyVersion int
	Phases          int
	Matches         int
	Teams           int
}
