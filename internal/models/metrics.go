package models

import "time"

// SystemMetrics is an aggregated instrumentation snapshot for status endpoints.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CheckInsTotal            uint64    `json:"check_ins_total"`
	PromptsIssuedTotal       uint64    `json:"prompts_issued_total"`
	PollerTicksTotal         uint64    `json:"poller_ticks_total"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
