package domain

import "time"

// QueryLog is the append-only audit record of one completed answer.
type QueryLog struct {
	ID            int64     `json:"id" yaml:"id" db:"id"`
	Question      string    `json:"question" yaml:"question" db:"question"`
	Requester     string    `json:"requester" yaml:"requester" db:"requester"`
	HasSource     bool      `json:"hasSource" yaml:"hasSource" db:"has_source"`
	Confidence    float64   `json:"confidenceScore" yaml:"confidenceScore" db:"confidence"`
	CitedDocument string    `json:"citedDocument,omitempty" yaml:"citedDocument,omitempty" db:"cited_document"`
	CreatedAt     time.Time `json:"timestamp" yaml:"timestamp" db:"created_at"`
}

// AccuracyReport is the share of sourced answers among recent queries.
type AccuracyReport struct {
	// Window is the configured number of recent queries considered.
	Window int `json:"window" yaml:"window"`

	// Total is how many queries were found in the window.
	Total int `json:"total" yaml:"total"`

	// WithSource counts answers that cited the supplied context.
	WithSource int `json:"withSource" yaml:"withSource"`

	// Accuracy is WithSource/Total as a percentage; 100 when Total is zero.
	Accuracy float64 `json:"accuracy" yaml:"accuracy"`
}
