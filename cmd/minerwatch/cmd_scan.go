package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/HerbHall/minerwatch/internal/config"
	"github.com/HerbHall/minerwatch/internal/detect"
	"github.com/HerbHall/minerwatch/internal/view"
	"github.com/HerbHall/minerwatch/pkg/models"
	"github.com/HerbHall/minerwatch/pkg/plugin"
)

type scanFlags struct {
	networkRange string
	seed         uint64
	latency      time.Duration
	count        int
	sortField    string
	asJSON       bool
	verbose      bool
}

// newScanFlags binds the scan flags, defaulting to the detect module's
// configured defaults so a bare "minerwatch scan" behaves like the server.
func newScanFlags(handling flag.ErrorHandling) (*flag.FlagSet, *scanFlags) {
	fs := flag.NewFlagSet("scan", handling)
	defaults := detect.DefaultConfig()
	f := &scanFlags{}
	fs.StringVar(&f.networkRange, "range", defaults.DefaultRange, "CIDR range to scan")
	fs.Uint64Var(&f.seed, "seed", 0, "random seed; 0 picks one")
	fs.DurationVar(&f.latency, "latency", defaults.Latency, "simulated scan duration")
	fs.IntVar(&f.count, "count", defaults.DeviceCount, "number of devices to report")
	fs.StringVar(&f.sortField, "sort", "ip", "sort column: ip, mac, hostname, vendor, lastSeen, trafficVolume")
	fs.BoolVar(&f.asJSON, "json", false, "print the scan outcome as JSON")
	fs.BoolVar(&f.verbose, "v", false, "log scan progress to stderr")
	return fs, f
}

func runScan(args []string) {
	fs, f := newScanFlags(flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	field, err := view.ParseField(f.sortField)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := zap.NewNop()
	if f.verbose {
		if logger, err = newLogger("debug", true); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	v := viper.New()
	v.Set("latency", f.latency)
	v.Set("seed", f.seed)
	v.Set("device_count", f.count)
	v.Set("rate_limit", 0)

	m := detect.New(detect.WithRegisterer(prometheus.NewRegistry()))
	if err := m.Init(context.Background(), plugin.Dependencies{Config: config.New(v), Logger: logger}); err != nil {
		fmt.Fprintf(os.Stderr, "scan setup failed: %v\n", err)
		os.Exit(1)
	}
	if err := m.ValidateConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid scan flags: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	outcome, err := m.RunScan(ctx, f.networkRange)
	if err != nil || !outcome.Success {
		fmt.Fprintf(os.Stderr, "scan failed: %s\n", outcome.Error)
		os.Exit(1)
	}

	if f.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(outcome)
		return
	}
	printOutcome(os.Stdout, outcome, field)
}

// printOutcome writes the device table followed by the miner summary.
func printOutcome(out io.Writer, outcome models.ScanOutcome, field view.Field) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "IP\tMAC\tHOSTNAME\tVENDOR\tTRAFFIC\tLAST SEEN\tMINER\tTYPE\tHASH RATE\tLOCATION")
	for _, d := range view.SortByField(outcome.Devices, field, view.Asc) {
		miner, hashRate := "-", "-"
		if d.IsMiner {
			miner = strconv.FormatFloat(d.Confidence*100, 'f', 0, 64) + "%"
			hashRate = strconv.FormatFloat(d.HashRateValue(), 'f', 1, 64) + " MH/s"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s, %s\n",
			d.IP, d.MAC, d.Hostname, d.Vendor, d.TrafficVolume,
			d.LastSeen.Local().Format(time.DateTime),
			miner, d.MinerTypeName(), hashRate, d.Location.City, d.Location.Region)
	}
	_ = tw.Flush()

	summary := view.Summarize(outcome.Miners)
	fmt.Fprintf(out, "\nscan %s of %s: %d devices, %d miners, %.1f MH/s total\n",
		outcome.ScanID, outcome.Range, len(outcome.Devices), summary.Count, summary.TotalHashRate)
	for _, tc := range summary.Types {
		fmt.Fprintf(out, "  %-20s %d\n", tc.Name, tc.Value)
	}
}
