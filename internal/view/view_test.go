package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HerbHall/minerwatch/internal/synth"
	"github.com/HerbHall/minerwatch/internal/testutil"
	"github.com/HerbHall/minerwatch/pkg/catalog"
	"github.com/HerbHall/minerwatch/pkg/models"
)

func batch(seed uint64, n int) []models.Device {
	s := synth.NewSynthesizer(synth.NewSource(seed), catalog.MustValues(), testutil.NewClock().Now)
	return s.Generate(n)
}

func ids(devices []models.Device) []string {
	out := make([]string, len(devices))
	for i, d := range devices {
		out[i] = d.ID
	}
	return out
}

func TestGroupByLocation_FirstOccurrenceOrder(t *testing.T) {
	devices := []models.Device{
		testutil.NewDevice(testutil.WithCity("مهران", "ایلام"), testutil.WithHostname("a")),
		testutil.NewDevice(testutil.WithCity("ایلام", "ایلام"), testutil.WithHostname("b")),
		testutil.NewDevice(testutil.WithCity("مهران", "ایلام"), testutil.WithHostname("c"),
			testutil.AsMiner("Antminer S19", 80, 0.8)),
	}

	groups := GroupByLocation(devices, LevelCity)
	require.Len(t, groups, 2)
	assert.Equal(t, "مهران, ایلام", groups[0].Key)
	assert.Equal(t, "ایلام, ایلام", groups[1].Key)
	assert.Equal(t, []string{"a", "c"}, []string{groups[0].Devices[0].Hostname, groups[0].Devices[1].Hostname})
	assert.Equal(t, 1, groups[0].MinerCount)
	assert.Equal(t, models.DeviceKindMiner.Icon(), groups[0].Icon)
	assert.Equal(t, models.DeviceKindNormal.Icon(), groups[1].Icon)
}

func TestGroupByLocation_Levels(t *testing.T) {
	devices := []models.Device{
		testutil.NewDevice(testutil.WithCity("ایوان", "ایلام")),
		testutil.NewDevice(testutil.WithCity("کرمانشاه", "کرمانشاه")),
		testutil.NewDevice(testutil.WithCity("دهلران", "ایلام"), testutil.WithCountry("عراق")),
	}

	tests := []struct {
		level Level
		want  []string
	}{
		{LevelCity, []string{"ایوان, ایلام", "کرمانشاه, کرمانشاه", "دهلران, ایلام"}},
		{LevelRegion, []string{"ایلام", "کرمانشاه"}},
		{LevelCountry, []string{"ایران", "عراق"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			groups := GroupByLocation(devices, tt.level)
			keys := make([]string, len(groups))
			for i, g := range groups {
				keys[i] = g.Key
			}
			assert.Equal(t, tt.want, keys)
		})
	}
}

func TestGroupByLocation_PartitionsBatch(t *testing.T) {
	devices := batch(7, 60)
	for _, level := range []Level{LevelCity, LevelRegion, LevelCountry} {
		seen := make(map[string]int)
		for _, g := range GroupByLocation(devices, level) {
			for _, d := range g.Devices {
				seen[d.ID]++
				if level.Key(&d) != g.Key {
					t.Errorf("%s: device %s in group %q has key %q", level, d.ID, g.Key, level.Key(&d))
				}
			}
		}
		if len(seen) != len(devices) {
			t.Errorf("%s: grouped %d devices, want %d", level, len(seen), len(devices))
		}
		for id, n := range seen {
			if n != 1 {
				t.Errorf("%s: device %s appears %d times", level, id, n)
			}
		}
	}
}

func TestGroupByLocation_Empty(t *testing.T) {
	if got := GroupByLocation(nil, LevelCity); got == nil || len(got) != 0 {
		t.Errorf("GroupByLocation(nil) = %v, want empty", got)
	}
}

func TestParseLevel(t *testing.T) {
	if l, err := ParseLevel(""); err != nil || l != LevelCity {
		t.Errorf("ParseLevel(\"\") = %q, %v; want city", l, err)
	}
	if _, err := ParseLevel("street"); err == nil {
		t.Error("ParseLevel(street) expected error")
	}
}

func TestFilterByText_Antminer(t *testing.T) {
	devices := []models.Device{
		testutil.NewDevice(testutil.WithVendor("Antminer")),
		testutil.NewDevice(testutil.WithVendor("Cisco")),
		testutil.NewDevice(testutil.WithVendor("Antminer")),
		testutil.NewDevice(testutil.WithVendor("TP-Link")),
		testutil.NewDevice(testutil.WithVendor("Antminer")),
		testutil.NewDevice(testutil.WithVendor("Bitmain")),
	}
	if got := FilterByText(devices, "Antminer"); len(got) != 3 {
		t.Errorf("FilterByText(Antminer) len = %d, want 3", len(got))
	}
	if got := FilterByText(devices, "antminer"); len(got) != 3 {
		t.Errorf("vendor match should be case-insensitive, len = %d", len(got))
	}
}

func TestFilterByText_CaseRules(t *testing.T) {
	d := testutil.NewDevice(
		testutil.WithIP("10.0.0.42"),
		testutil.WithMAC("aa:bb:cc:dd:ee:ff"),
		testutil.WithHostname("Rig-Alpha"),
	)
	devices := []models.Device{d}

	tests := []struct {
		term string
		want int
	}{
		{"", 1},
		{"0.0.42", 1},
		{"aa:bb", 1},
		{"AA:BB", 0}, // MAC is case-sensitive
		{"rig-alpha", 1},
		{"RIG", 1},
		{"nomatch", 0},
	}
	for _, tt := range tests {
		if got := FilterByText(devices, tt.term); len(got) != tt.want {
			t.Errorf("FilterByText(%q) len = %d, want %d", tt.term, len(got), tt.want)
		}
	}
}

func TestFilterByKind(t *testing.T) {
	devices := batch(3, 40)
	miners := FilterByKind(devices, models.DeviceKindMiner)
	normal := FilterByKind(devices, models.DeviceKindNormal)
	all := FilterByKind(devices, models.DeviceKindAll)

	assert.Len(t, all, len(devices))
	assert.Equal(t, len(devices), len(miners)+len(normal))
	for _, d := range miners {
		assert.True(t, d.IsMiner)
	}
	for _, d := range normal {
		assert.False(t, d.IsMiner)
	}
	assert.Equal(t, ids(miners), ids(Miners(devices)))
}

func TestSortByField_Numeric(t *testing.T) {
	devices := []models.Device{
		testutil.NewDevice(testutil.WithHostname("a"), testutil.WithTraffic(900)),
		testutil.NewDevice(testutil.WithHostname("b"), testutil.WithTraffic(10_000)),
		testutil.NewDevice(testutil.WithHostname("c"), testutil.WithTraffic(80)),
	}
	got := SortByField(devices, FieldTrafficVolume, Asc)
	assert.Equal(t, []int64{80, 900, 10_000},
		[]int64{got[0].TrafficVolume, got[1].TrafficVolume, got[2].TrafficVolume})

	got = SortByField(devices, FieldTrafficVolume, Desc)
	assert.Equal(t, "b", got[0].Hostname)

	// Input untouched.
	assert.Equal(t, "a", devices[0].Hostname)
}

func TestSortByField_Chronological(t *testing.T) {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	devices := []models.Device{
		testutil.NewDevice(testutil.WithHostname("mid"), testutil.WithLastSeen(base)),
		testutil.NewDevice(testutil.WithHostname("new"), testutil.WithLastSeen(base.Add(time.Hour))),
		testutil.NewDevice(testutil.WithHostname("old"), testutil.WithLastSeen(base.Add(-time.Hour))),
	}
	got := DefaultSort().Apply(devices)
	assert.Equal(t, []string{"new", "mid", "old"},
		[]string{got[0].Hostname, got[1].Hostname, got[2].Hostname})
}

func TestSortByField_Collated(t *testing.T) {
	devices := []models.Device{
		testutil.NewDevice(testutil.WithVendor("whatsminer")),
		testutil.NewDevice(testutil.WithVendor("Avalon")),
		testutil.NewDevice(testutil.WithVendor("bitmain")),
	}
	got := SortByField(devices, FieldVendor, Asc)
	// Collation orders by letter before case, unlike byte order.
	assert.Equal(t, []string{"Avalon", "bitmain", "whatsminer"},
		[]string{got[0].Vendor, got[1].Vendor, got[2].Vendor})
}

func TestSortByField_StableAndIdempotent(t *testing.T) {
	devices := []models.Device{
		testutil.NewDevice(testutil.WithHostname("1"), testutil.WithVendor("Cisco")),
		testutil.NewDevice(testutil.WithHostname("2"), testutil.WithVendor("Avalon")),
		testutil.NewDevice(testutil.WithHostname("3"), testutil.WithVendor("Cisco")),
		testutil.NewDevice(testutil.WithHostname("4"), testutil.WithVendor("Avalon")),
	}
	once := SortByField(devices, FieldVendor, Asc)
	assert.Equal(t, []string{"2", "4", "1", "3"},
		[]string{once[0].Hostname, once[1].Hostname, once[2].Hostname, once[3].Hostname})

	twice := SortByField(once, FieldVendor, Asc)
	assert.Equal(t, ids(once), ids(twice))

	generated := batch(11, 30)
	for _, f := range []Field{FieldIP, FieldMAC, FieldHostname, FieldVendor, FieldLastSeen, FieldTrafficVolume} {
		a := SortByField(generated, f, Asc)
		assert.Equal(t, ids(a), ids(SortByField(a, f, Asc)), "field %s", f)
	}
}

func TestSortState_Select(t *testing.T) {
	s := DefaultSort()
	assert.Equal(t, SortState{FieldLastSeen, Desc}, s)

	s = s.Select(FieldLastSeen)
	assert.Equal(t, SortState{FieldLastSeen, Asc}, s)

	s = s.Select(FieldVendor)
	assert.Equal(t, SortState{FieldVendor, Asc}, s)

	s = s.Select(FieldVendor)
	assert.Equal(t, SortState{FieldVendor, Desc}, s)

	s = s.Select(FieldIP)
	assert.Equal(t, SortState{FieldIP, Asc}, s)
}

func TestParseFieldAndDirection(t *testing.T) {
	if _, err := ParseField("confidence"); err == nil {
		t.Error("ParseField(confidence) expected error")
	}
	if f, err := ParseField("trafficVolume"); err != nil || f != FieldTrafficVolume {
		t.Errorf("ParseField(trafficVolume) = %q, %v", f, err)
	}
	if d, err := ParseDirection("DESC"); err != nil || d != Desc {
		t.Errorf("ParseDirection(DESC) = %q, %v", d, err)
	}
	if _, err := ParseDirection("up"); err == nil {
		t.Error("ParseDirection(up) expected error")
	}
}

func TestMinerStats(t *testing.T) {
	miners := []models.Device{
		testutil.NewDevice(testutil.AsMiner("Whatsminer M30S", 100, 0.9)),
		testutil.NewDevice(testutil.AsMiner("Antminer S19", 50.5, 0.8)),
		testutil.NewDevice(testutil.AsMiner("Whatsminer M30S", 60, 0.75)),
	}

	assert.Equal(t, []models.TypeCount{
		{Name: "Whatsminer M30S", Value: 2},
		{Name: "Antminer S19", Value: 1},
	}, MinerTypeHistogram(miners))
	assert.InDelta(t, 210.5, TotalHashRate(miners), 1e-9)

	sum := Summarize(miners)
	assert.Equal(t, 3, sum.Count)
	assert.InDelta(t, 210.5, sum.TotalHashRate, 1e-9)
	assert.Len(t, sum.Types, 2)

	empty := Summarize(nil)
	assert.Equal(t, 0, empty.Count)
	assert.NotNil(t, empty.Types)
}

func TestDescribeLocate(t *testing.T) {
	info, err := DescribeLocate("")
	require.NoError(t, err)
	assert.Equal(t, LocateIP, info.Method)
	assert.Equal(t, "MaxMind GeoIP", info.Source)

	for _, m := range LocateMethods() {
		got, err := DescribeLocate(m.Method)
		require.NoError(t, err)
		assert.NotEmpty(t, got.Description)
		assert.NotEmpty(t, got.Accuracy)
	}

	_, err = DescribeLocate("radar")
	assert.Error(t, err)
}
