package models

// DeviceKind is the coarse classification shown by the dashboard filters.
type DeviceKind string

const (
	DeviceKindAll    DeviceKind = "all"
	DeviceKindMiner  DeviceKind = "miner"
	DeviceKindNormal DeviceKind = "normal"
)

// KindIcon maps a DeviceKind to its icon identifier.
// Identifiers use Lucide icon names (https://lucide.dev) for
// compatibility with the React dashboard.
var KindIcon = map[DeviceKind]string{
	DeviceKindAll:    "network",
	DeviceKindMiner:  "alert-triangle",
	DeviceKindNormal: "wifi",
}

// Icon returns the icon identifier for a DeviceKind.
// Returns "help-circle" for unrecognised kinds.
func (k DeviceKind) Icon() string {
	if icon, ok := KindIcon[k]; ok {
		return icon
	}
	return "help-circle"
}

// ParseDeviceKind maps a query value to a DeviceKind. Unknown or empty
// values map to DeviceKindAll.
func ParseDeviceKind(s string) DeviceKind {
	switch DeviceKind(s) {
	case DeviceKindMiner:
		return DeviceKindMiner
	case DeviceKindNormal:
		return DeviceKindNormal
	default:
		return DeviceKindAll
	}
}
