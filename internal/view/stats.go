package view

import "github.com/HerbHall/minerwatch/pkg/models"

// MinerTypeHistogram counts miners per type in first-occurrence order.
// Devices without a type are skipped.
func MinerTypeHistogram(miners []models.Device) []models.TypeCount {
	index := make(map[string]int)
	out := []models.TypeCount{}
	for i := range miners {
		if miners[i].MinerType == nil {
			continue
		}
		name := *miners[i].MinerType
		if j, ok := index[name]; ok {
			out[j].Value++
			continue
		}
		index[name] = len(out)
		out = append(out, models.TypeCount{Name: name, Value: 1})
	}
	return out
}

// TotalHashRate sums the hash rates of miners; absent rates count as 0.
func TotalHashRate(miners []models.Device) float64 {
	var total float64
	for i := range miners {
		total += miners[i].HashRateValue()
	}
	return total
}

// Summarize builds the miner detector summary.
func Summarize(miners []models.Device) models.MinerSummary {
	return models.MinerSummary{
		Count:         len(miners),
		TotalHashRate: TotalHashRate(miners),
		Types:         MinerTypeHistogram(miners),
	}
}
