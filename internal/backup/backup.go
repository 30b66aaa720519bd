// Package backup provides tar.gz-based backup and restore for MinerWatch
// data: the SQLite database (settings and scan journal) and, optionally,
// the config file.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/HerbHall/minerwatch/internal/store"
	"github.com/HerbHall/minerwatch/internal/version"
)

// ManifestName is the archive entry describing the backup.
const ManifestName = "manifest.json"

// maxEntrySize bounds a single restored file.
const maxEntrySize = 1 << 30

// ErrUnsafePath is returned for archive entries that would escape the
// target directory.
var ErrUnsafePath = errors.New("unsafe path in archive")

// ErrExists is returned by Restore when a target file exists and force is
// not set.
var ErrExists = errors.New("file already exists")

// Manifest records what a backup contains.
type Manifest struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	Files     []string  `json:"files"`
}

// Backup creates a tar.gz archive containing the SQLite database and an
// optional config file. It performs a WAL checkpoint before copying the
// database to ensure consistency.
func Backup(ctx context.Context, dbPath, configPath, outputPath string) error {
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("database file not found: %w", err)
	}

	if err := checkpointWAL(ctx, dbPath); err != nil {
		return fmt.Errorf("WAL checkpoint failed: %w", err)
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer outFile.Close()

	gw := gzip.NewWriter(outFile)
	tw := tar.NewWriter(gw)

	files := []string{filepath.Base(dbPath)}
	if err := addFileToTar(tw, dbPath, files[0]); err != nil {
		return fmt.Errorf("adding database to archive: %w", err)
	}

	// A missing config file is skipped.
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			name := filepath.Base(configPath)
			if err := addFileToTar(tw, configPath, name); err != nil {
				return fmt.Errorf("adding config to archive: %w", err)
			}
			files = append(files, name)
		}
	}

	manifest, err := json.MarshalIndent(Manifest{
		Version:   version.Short(),
		CreatedAt: time.Now().UTC(),
		Files:     files,
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := tw.WriteHeader(&tar.Header{
		Name:    ManifestName,
		Mode:    0o644,
		Size:    int64(len(manifest)),
		ModTime: time.Now(),
	}); err != nil {
		return fmt.Errorf("adding manifest: %w", err)
	}
	if _, err := tw.Write(manifest); err != nil {
		return fmt.Errorf("adding manifest: %w", err)
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return outFile.Close()
}

// checkpointWAL opens the database, runs a TRUNCATE checkpoint to flush the
// WAL, and closes the connection.
func checkpointWAL(ctx context.Context, dbPath string) error {
	db, err := store.New(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Checkpoint(ctx)
}

// addFileToTar adds a single file to the tar archive under the given name.
func addFileToTar(tw *tar.Writer, filePath, archiveName string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = archiveName

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	_, err = io.Copy(tw, f)
	return err
}

// Restore extracts a Backup archive into dataDir and returns its manifest.
// Existing files are only replaced when force is set. Entries are written
// to a temporary file first so a failed restore never leaves a truncated
// database behind.
func Restore(ctx context.Context, archivePath, dataDir string, force bool) (*Manifest, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	defer gr.Close()

	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	var manifest *Manifest
	tr := tar.NewReader(gr)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if err := checkEntryName(hdr.Name); err != nil {
			return nil, err
		}

		if hdr.Name == ManifestName {
			var m Manifest
			if err := json.NewDecoder(io.LimitReader(tr, maxEntrySize)).Decode(&m); err != nil {
				return nil, fmt.Errorf("reading manifest: %w", err)
			}
			manifest = &m
			continue
		}

		target := filepath.Join(dataDir, hdr.Name)
		if err := extractFile(tr, target, hdr, force); err != nil {
			return nil, fmt.Errorf("restoring %s: %w", hdr.Name, err)
		}
	}

	if manifest == nil {
		return nil, errors.New("archive has no manifest")
	}
	return manifest, nil
}

// checkEntryName accepts only plain file names at the archive root.
func checkEntryName(name string) error {
	if name == "" || path.IsAbs(name) || strings.Contains(name, "..") ||
		strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	return nil
}

func extractFile(r io.Reader, target string, hdr *tar.Header, force bool) error {
	if !force {
		if _, err := os.Stat(target); err == nil {
			return fmt.Errorf("%w: %s (use force to overwrite)", ErrExists, target)
		}
	}
	if hdr.Size > maxEntrySize {
		return fmt.Errorf("entry too large: %d bytes", hdr.Size)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".restore-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, io.LimitReader(r, maxEntrySize)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(hdr.FileInfo().Mode().Perm()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}
