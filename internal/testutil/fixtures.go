package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/HerbHall/minerwatch/pkg/models"
)

// NewDevice returns a non-miner Device with fixed defaults, suitable for
// test fixtures. Apply options to override fields.
func NewDevice(opts ...func(*models.Device)) models.Device {
	d := models.Device{
		ID:            uuid.New().String(),
		IP:            "192.168.1.10",
		MAC:           "00:11:22:33:44:55",
		Hostname:      "device-10",
		Vendor:        "TP-Link",
		LastSeen:      Epoch,
		TrafficVolume: 1000,
		Location: models.Location{
			City:     "ایلام",
			Region:   "ایلام",
			Country:  "ایران",
			Lat:      33.6369,
			Lon:      46.4233,
			Accuracy: 0.9,
		},
		ConnectionHistory: []models.TrafficSample{},
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// WithHostname sets the device hostname.
func WithHostname(name string) func(*models.Device) {
	return func(d *models.Device) { d.Hostname = name }
}

// WithIP sets the device IP address.
func WithIP(ip string) func(*models.Device) {
	return func(d *models.Device) { d.IP = ip }
}

// WithMAC sets the device MAC address.
func WithMAC(mac string) func(*models.Device) {
	return func(d *models.Device) { d.MAC = mac }
}

// WithVendor sets the device vendor.
func WithVendor(vendor string) func(*models.Device) {
	return func(d *models.Device) { d.Vendor = vendor }
}

// WithLastSeen sets the device's lastSeen timestamp.
func WithLastSeen(t time.Time) func(*models.Device) {
	return func(d *models.Device) { d.LastSeen = t }
}

// WithTraffic sets the device's aggregate traffic volume.
func WithTraffic(v int64) func(*models.Device) {
	return func(d *models.Device) { d.TrafficVolume = v }
}

// WithCity sets the device's city and region.
func WithCity(city, region string) func(*models.Device) {
	return func(d *models.Device) {
		d.Location.City = city
		d.Location.Region = region
	}
}

// WithCountry sets the device's country.
func WithCountry(country string) func(*models.Device) {
	return func(d *models.Device) { d.Location.Country = country }
}

// AsMiner marks the device as a miner with the given type and hash rate.
func AsMiner(minerType string, hashRate, confidence float64) func(*models.Device) {
	return func(d *models.Device) {
		d.IsMiner = true
		d.MinerType = &minerType
		d.HashRate = &hashRate
		d.Confidence = confidence
	}
}
