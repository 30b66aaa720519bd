package view

import (
	"strings"

	"github.com/HerbHall/minerwatch/pkg/models"
)

// FilterByText keeps devices whose IP or MAC contains term (case-sensitive)
// or whose hostname or vendor contains it case-insensitively. An empty term
// keeps every device.
func FilterByText(devices []models.Device, term string) []models.Device {
	out := make([]models.Device, 0, len(devices))
	if term == "" {
		return append(out, devices...)
	}
	lower := strings.ToLower(term)
	for _, d := range devices {
		if strings.Contains(d.IP, term) ||
			strings.Contains(d.MAC, term) ||
			strings.Contains(strings.ToLower(d.Hostname), lower) ||
			strings.Contains(strings.ToLower(d.Vendor), lower) {
			out = append(out, d)
		}
	}
	return out
}

// FilterByKind keeps miners, non-miners, or everything.
func FilterByKind(devices []models.Device, kind models.DeviceKind) []models.Device {
	out := make([]models.Device, 0, len(devices))
	for _, d := range devices {
		if kind == models.DeviceKindAll || d.Kind() == kind {
			out = append(out, d)
		}
	}
	return out
}

// Miners returns the IsMiner subset in input order.
func Miners(devices []models.Device) []models.Device {
	return FilterByKind(devices, models.DeviceKindMiner)
}
