// Command minerwatch serves the miner-detection dashboard API and offers
// one-shot scan, backup and restore commands.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/HerbHall/minerwatch/internal/version"
)

const usage = `usage: minerwatch [command] [flags]

commands:
  serve     run the HTTP server (default)
  scan      run one synthetic scan and print the devices
  backup    archive the database and config
  restore   restore a backup archive
  version   print version information
`

func main() {
	cmd, args := parseCommand(os.Args[1:])
	switch cmd {
	case "serve":
		runServe(args)
	case "scan":
		runScan(args)
	case "backup":
		runBackup(args)
	case "restore":
		runRestore(args)
	case "version":
		fmt.Println(version.Info())
	case "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
}

// parseCommand splits the subcommand from its flags. Bare flags run serve;
// a leading help flag asks for usage.
func parseCommand(args []string) (cmd string, rest []string) {
	if len(args) == 0 {
		return "serve", nil
	}
	switch first := args[0]; {
	case first == "-h" || first == "-help" || first == "--help":
		return "help", args[1:]
	case first != "" && first[0] != '-':
		return first, args[1:]
	}
	return "serve", args
}

// newLogger builds the process logger: JSON in production, console output
// with colour in development.
func newLogger(level string, development bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	var config zap.Config
	if development {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return config.Build(zap.AddStacktrace(zapcore.ErrorLevel))
}
