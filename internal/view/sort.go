package view

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/HerbHall/minerwatch/pkg/models"
)

// Field names a sortable device column.
type Field string

const (
	FieldIP            Field = "ip"
	FieldMAC           Field = "mac"
	FieldHostname      Field = "hostname"
	FieldVendor        Field = "vendor"
	FieldLastSeen      Field = "lastSeen"
	FieldTrafficVolume Field = "trafficVolume"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// collationTag is the locale string columns are compared in.
var collationTag = language.Persian

// ParseField validates a sort column name.
func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldIP, FieldMAC, FieldHostname, FieldVendor, FieldLastSeen, FieldTrafficVolume:
		return f, nil
	}
	return "", fmt.Errorf("unknown sort field %q", s)
}

// ParseDirection maps "asc"/"desc" (any case) to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(s)) {
	case Asc:
		return Asc, nil
	case Desc:
		return Desc, nil
	}
	return "", fmt.Errorf("unknown sort direction %q", s)
}

// SortByField returns a stably sorted copy of devices. trafficVolume sorts
// numerically, lastSeen chronologically, and string columns by Persian
// collation.
func SortByField(devices []models.Device, field Field, dir Direction) []models.Device {
	out := slices.Clone(devices)
	if out == nil {
		out = []models.Device{}
	}
	cmp := comparator(field)
	slices.SortStableFunc(out, func(a, b models.Device) int {
		if dir == Desc {
			return cmp(&b, &a)
		}
		return cmp(&a, &b)
	})
	return out
}

func comparator(field Field) func(a, b *models.Device) int {
	switch field {
	case FieldTrafficVolume:
		return func(a, b *models.Device) int {
			switch {
			case a.TrafficVolume < b.TrafficVolume:
				return -1
			case a.TrafficVolume > b.TrafficVolume:
				return 1
			}
			return 0
		}
	case FieldLastSeen:
		return func(a, b *models.Device) int { return a.LastSeen.Compare(b.LastSeen) }
	}

	// A Collator is not safe for concurrent use; each sort gets its own.
	col := collate.New(collationTag)
	get := stringColumn(field)
	return func(a, b *models.Device) int { return col.CompareString(get(a), get(b)) }
}

func stringColumn(field Field) func(d *models.Device) string {
	switch field {
	case FieldMAC:
		return func(d *models.Device) string { return d.MAC }
	case FieldHostname:
		return func(d *models.Device) string { return d.Hostname }
	case FieldVendor:
		return func(d *models.Device) string { return d.Vendor }
	default:
		return func(d *models.Device) string { return d.IP }
	}
}

// SortState is the device table's sort selection.
type SortState struct {
	Field     Field     `json:"field"`
	Direction Direction `json:"direction"`
}

// DefaultSort is the table's initial state: newest first.
func DefaultSort() SortState {
	return SortState{Field: FieldLastSeen, Direction: Desc}
}

// Select returns the state after clicking field's column header: the same
// field flips direction, a new field starts ascending.
func (s SortState) Select(field Field) SortState {
	if field == s.Field {
		if s.Direction == Asc {
			return SortState{Field: field, Direction: Desc}
		}
		return SortState{Field: field, Direction: Asc}
	}
	return SortState{Field: field, Direction: Asc}
}

// Apply sorts devices by the state.
func (s SortState) Apply(devices []models.Device) []models.Device {
	return SortByField(devices, s.Field, s.Direction)
}
