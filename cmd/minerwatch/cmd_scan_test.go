package main

import (
	"bytes"
	"flag"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HerbHall/minerwatch/internal/detect"
	"github.com/HerbHall/minerwatch/internal/testutil"
	"github.com/HerbHall/minerwatch/internal/view"
	"github.com/HerbHall/minerwatch/pkg/models"
)

func TestPrintOutcome(t *testing.T) {
	minerType := "Antminer S19"
	hashRate := 97.5
	miner := testutil.NewDevice(func(d *models.Device) {
		d.IP = "192.168.1.11"
		d.Hostname = "device-11"
		d.Vendor = "Antminer"
		d.IsMiner = true
		d.Confidence = 0.84
		d.MinerType = &minerType
		d.HashRate = &hashRate
	})
	normal := testutil.NewDevice()

	outcome := models.ScanOutcome{
		Success:     true,
		ScanID:      "scan-1",
		Range:       "192.168.1.0/24",
		CompletedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Devices:     []models.Device{miner, normal},
		Miners:      []models.Device{miner},
	}

	var buf bytes.Buffer
	printOutcome(&buf, outcome, view.FieldIP)
	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")

	require.GreaterOrEqual(t, len(lines), 5)
	assert.True(t, strings.HasPrefix(lines[0], "IP"), "header = %q", lines[0])
	for _, col := range []string{"MAC", "HOSTNAME", "VENDOR", "TRAFFIC", "LAST SEEN", "MINER", "HASH RATE", "LOCATION"} {
		assert.Contains(t, lines[0], col)
	}

	// Sorted by IP: .10 before .11.
	assert.True(t, strings.HasPrefix(lines[1], "192.168.1.10"), "row 1 = %q", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "192.168.1.11"), "row 2 = %q", lines[2])
	assert.Contains(t, lines[2], "84%")
	assert.Contains(t, lines[2], "97.5 MH/s")
	assert.Contains(t, lines[2], "ایلام, ایلام")
	assert.NotContains(t, out, "TH/s")

	assert.Contains(t, out, "scan scan-1 of 192.168.1.0/24: 2 devices, 1 miners, 97.5 MH/s total")
	assert.Contains(t, out, "Antminer S19")
}

func TestPrintOutcome_NoMiners(t *testing.T) {
	var buf bytes.Buffer
	printOutcome(&buf, models.ScanOutcome{
		Success: true,
		ScanID:  "scan-2",
		Range:   "10.0.0.0/32",
		Devices: []models.Device{testutil.NewDevice()},
		Miners:  []models.Device{},
	}, view.FieldIP)

	out := buf.String()
	assert.Contains(t, out, "1 devices, 0 miners, 0.0 MH/s total")
	assert.Contains(t, out, "192.168.1.10")
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		args     []string
		wantCmd  string
		wantRest []string
	}{
		{nil, "serve", nil},
		{[]string{"-config", "minerwatch.yaml"}, "serve", []string{"-config", "minerwatch.yaml"}},
		{[]string{"-h"}, "help", []string{}},
		{[]string{"--help"}, "help", []string{}},
		{[]string{"scan", "-range", "10.0.0.0/8"}, "scan", []string{"-range", "10.0.0.0/8"}},
		{[]string{"version"}, "version", []string{}},
	}
	for _, tt := range tests {
		cmd, rest := parseCommand(tt.args)
		if cmd != tt.wantCmd {
			t.Errorf("parseCommand(%q) cmd = %q, want %q", tt.args, cmd, tt.wantCmd)
		}
		assert.Equal(t, tt.wantRest, rest, "parseCommand(%q) rest", tt.args)
	}
}

func TestScanFlags_DefaultsFollowDetectConfig(t *testing.T) {
	fs, f := newScanFlags(flag.ContinueOnError)
	require.NoError(t, fs.Parse(nil))

	defaults := detect.DefaultConfig()
	assert.Equal(t, 2*time.Second, f.latency)
	assert.Equal(t, defaults.Latency, f.latency)
	assert.Equal(t, defaults.DefaultRange, f.networkRange)
	assert.Equal(t, defaults.DeviceCount, f.count)
	assert.Equal(t, "ip", f.sortField)
}

func TestScanFlags_Overrides(t *testing.T) {
	fs, f := newScanFlags(flag.ContinueOnError)
	require.NoError(t, fs.Parse([]string{"-latency", "0s", "-range", "10.0.0.0/8", "-count", "40", "-seed", "7", "-json"}))

	assert.Zero(t, f.latency)
	assert.Equal(t, "10.0.0.0/8", f.networkRange)
	assert.Equal(t, 40, f.count)
	assert.Equal(t, uint64(7), f.seed)
	assert.True(t, f.asJSON)
}
