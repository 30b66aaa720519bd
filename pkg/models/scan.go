package models

import "time"

// ScanResult pairs the full device population of one scan with its miner
// subset. It is never persisted.
type ScanResult struct {
	Devices []Device `json:"devices"`
	Miners  []Device `json:"miners"`
}

// ScanOutcome is the wire envelope returned by a scan invocation. A
// successful outcome always carries both lists, even when empty. On failure
// Success is false, Error is set, and both lists are null.
type ScanOutcome struct {
	Success     bool      `json:"success"`
	ScanID      string    `json:"scanId,omitempty"`
	Range       string    `json:"range,omitempty"`
	CompletedAt time.Time `json:"completedAt,omitzero"`
	Devices     []Device  `json:"devices"`
	Miners      []Device  `json:"miners"`
	Error       string    `json:"error,omitempty"`
}

// Scan statuses recorded in the scan journal.
const (
	ScanStatusRunning   = "running"
	ScanStatusCompleted = "completed"
	ScanStatusFailed    = "failed"
)

// ScanRecord is the journal entry for one scan. It carries counts only,
// never device data.
type ScanRecord struct {
	ID        string `json:"id"`
	Range     string `json:"range"`
	StartedAt string `json:"startedAt"`
	EndedAt   string `json:"endedAt,omitempty"`
	Status    string `json:"status"`
	Total     int    `json:"total"`
	Miners    int    `json:"miners"`
	Error     string `json:"error,omitempty"`
}

// TypeCount is one bar of the miner-type histogram.
type TypeCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// MinerSummary backs the miner detector cards.
type MinerSummary struct {
	Count         int         `json:"count"`
	TotalHashRate float64     `json:"totalHashRate"`
	Types         []TypeCount `json:"types"`
}
