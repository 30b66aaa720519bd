package detect

import "github.com/HerbHall/minerwatch/pkg/models"

// Event topics published by the detect module.
const (
	TopicScanStarted   = "detect.scan.started"
	TopicScanCompleted = "detect.scan.completed"
	TopicScanFailed    = "detect.scan.failed"
	TopicMinerDetected = "detect.miner.detected"
)

// Topics lists every topic the module publishes.
var Topics = []string{TopicScanStarted, TopicScanCompleted, TopicScanFailed, TopicMinerDetected}

// ScanEvent is the payload of the scan lifecycle topics.
type ScanEvent struct {
	ScanID string `json:"scanId"`
	Range  string `json:"range"`
	Total  int    `json:"total"`
	Miners int    `json:"miners"`
	Error  string `json:"error,omitempty"`
}

// MinerEvent is the payload of TopicMinerDetected.
type MinerEvent struct {
	ScanID string         `json:"scanId"`
	Device *models.Device `json:"device"`
}
