// Package view holds the aggregation the dashboard views consume: location
// grouping, text and kind filters, table sorting and miner statistics. All
// functions are pure and leave their inputs untouched.
package view

import (
	"fmt"

	"github.com/HerbHall/minerwatch/pkg/models"
)

// Level selects the granularity of GroupByLocation.
type Level string

const (
	LevelCity    Level = "city"
	LevelRegion  Level = "region"
	LevelCountry Level = "country"
)

// ParseLevel maps a query value to a Level; unknown values are an error.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelCity, LevelRegion, LevelCountry:
		return Level(s), nil
	case "":
		return LevelCity, nil
	}
	return "", fmt.Errorf("unknown location level %q", s)
}

// Group is one location bucket of the map view.
type Group struct {
	Key        string          `json:"key"`
	Devices    []models.Device `json:"devices"`
	MinerCount int             `json:"minerCount"`
	Icon       string          `json:"icon"`
}

// Key returns the group key of d at level. City keys are "city, region".
func (l Level) Key(d *models.Device) string {
	switch l {
	case LevelRegion:
		return d.Location.Region
	case LevelCountry:
		return d.Location.Country
	default:
		return d.Location.City + ", " + d.Location.Region
	}
}

// GroupByLocation partitions devices by location key. Groups appear in
// first-occurrence order and keep input order within each group.
func GroupByLocation(devices []models.Device, level Level) []Group {
	index := make(map[string]int)
	groups := []Group{}
	for i := range devices {
		key := level.Key(&devices[i])
		gi, ok := index[key]
		if !ok {
			gi = len(groups)
			index[key] = gi
			groups = append(groups, Group{Key: key})
		}
		groups[gi].Devices = append(groups[gi].Devices, devices[i])
		if devices[i].IsMiner {
			groups[gi].MinerCount++
		}
	}
	for i := range groups {
		kind := models.DeviceKindNormal
		if groups[i].MinerCount > 0 {
			kind = models.DeviceKindMiner
		}
		groups[i].Icon = kind.Icon()
	}
	return groups
}
