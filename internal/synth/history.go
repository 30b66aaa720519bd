package synth

import (
	"time"

	"github.com/HerbHall/minerwatch/pkg/models"
)

// HistoryLength is the number of hourly points in a connection history.
const HistoryLength = 24

// History returns HistoryLength hourly samples, oldest first, the last one
// stamped at now. Each call draws fresh volumes.
func (s *Synthesizer) History(now time.Time) []models.TrafficSample {
	history := make([]models.TrafficSample, HistoryLength)
	for j := range history {
		history[j] = models.TrafficSample{
			Timestamp:     now.Add(-time.Duration(HistoryLength-1-j) * time.Hour),
			TrafficVolume: s.src.HistoryTraffic(),
		}
	}
	return history
}
