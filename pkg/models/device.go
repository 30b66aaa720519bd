package models

import "time"

// Location is the resolved geographic position of a device.
type Location struct {
	City     string  `json:"city"`
	Region   string  `json:"region"`
	Country  string  `json:"country"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Accuracy float64 `json:"accuracy"`
}

// TrafficSample is one hourly point of a device's connection history.
type TrafficSample struct {
	Timestamp     time.Time `json:"timestamp"`
	TrafficVolume int64     `json:"trafficVolume"`
}

// Device represents a network device found by a scan.
//
// MinerType and HashRate are set only when IsMiner is true, so consumers can
// tell "not a miner" apart from "miner with zero hash rate".
type Device struct {
	ID                string          `json:"id"`
	IP                string          `json:"ip"`
	MAC               string          `json:"mac"`
	Hostname          string          `json:"hostname"`
	Vendor            string          `json:"vendor"`
	LastSeen          time.Time       `json:"lastSeen"`
	TrafficVolume     int64           `json:"trafficVolume"`
	IsMiner           bool            `json:"isMiner"`
	Confidence        float64         `json:"confidence"`
	MinerType         *string         `json:"minerType,omitempty"`
	HashRate          *float64        `json:"hashRate,omitempty"`
	Location          Location        `json:"location"`
	ConnectionHistory []TrafficSample `json:"connectionHistory"`
}

// Kind reports whether the device is a miner or a regular host.
func (d *Device) Kind() DeviceKind {
	if d.IsMiner {
		return DeviceKindMiner
	}
	return DeviceKindNormal
}

// MinerTypeName returns the miner type, or "" for non-miners.
func (d *Device) MinerTypeName() string {
	if d.MinerType == nil {
		return ""
	}
	return *d.MinerType
}

// HashRateValue returns the hash rate, or 0 for non-miners.
func (d *Device) HashRateValue() float64 {
	if d.HashRate == nil {
		return 0
	}
	return *d.HashRate
}
