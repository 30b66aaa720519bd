package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/HerbHall/minerwatch/internal/backup"
)

func runRestore(args []string) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	input := fs.String("input", "", "backup archive to restore (required)")
	dataDir := fs.String("data-dir", ".", "target directory for restored files")
	force := fs.Bool("force", false, "overwrite existing files")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *input == "" {
		fmt.Fprintln(os.Stderr, "error: --input is required")
		fs.Usage()
		os.Exit(1)
	}

	manifest, err := backup.Restore(context.Background(), *input, *dataDir, *force)
	if err != nil {
		fmt.Fprintf(os.Stderr, "restore failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Restored %d file(s) from a %s backup taken %s into %s\n",
		len(manifest.Files), manifest.Version, manifest.CreatedAt.Format("2006-01-02 15:04:05"), *dataDir)
}
