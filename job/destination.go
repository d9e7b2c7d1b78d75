package job

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// destination is the output file for one list. Records are written to a file in the
// tmp dir which only replaces the file in the out dir once the list has been fetched in full.
type destination struct {
	tmpPath string
	outPath string
	file    *os.File
	// records are written here, the file unless wrapped
	writer io.Writer
}

func newDestination(tmpDir, outDir, fileName string) (*destination, error) {
	tmpPath := filepath.Join(tmpDir, fileName)
	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	return &destination{
		tmpPath: tmpPath,
		outPath: filepath.Join(outDir, fileName),
		file:    f,
		writer:  f,
	}, nil
}

func (d *destination) Write(p []byte) (int, error) {
	return d.writer.Write(p)
}

// truncate discards everything written so far, ready for a retry
func (d *destination) truncate() error {
	if err := d.file.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate %s: %w", d.tmpPath, err)
	}
	if _, err := d.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind %s: %w", d.tmpPath, err)
	}
	return nil
}

// promote moves the completed tmp file into the out dir, replacing any previous version
func (d *destination) promote() error {
	if err := d.file.Sync(); err != nil {
		d.discard()
		return fmt.Errorf("failed to sync %s: %w", d.tmpPath, err)
	}
	if err := d.file.Close(); err != nil {
		d.discard()
		return fmt.Errorf("failed to close %s: %w", d.tmpPath, err)
	}

	err := os.Rename(d.tmpPath, d.outPath)
	if err == nil {
		return nil
	}
	slog.Debug("rename failed, copying instead", "from", d.tmpPath, "to", d.outPath, "error", err)

	// tmp and out dirs may be on different filesystems
	if err := copyFile(d.tmpPath, d.outPath); err != nil {
		d.discard()
		return err
	}
	d.discard()
	return nil
}

// discard closes and removes the tmp file
func (d *destination) discard() {
	// the file may already be closed
	_ = d.file.Close()
	if err := os.Remove(d.tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to remove temporary file", "path", d.tmpPath, "error", err)
	}
}

// copyFile copies src to a temporary file beside dst and renames it over dst
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*.partial")
	if err != nil {
		return fmt.Errorf("failed to create file in %s: %w", filepath.Dir(dst), err)
	}
	defer func() {
		if err != nil {
			_ = out.Close()
			_ = os.Remove(out.Name())
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err = out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", out.Name(), err)
	}
	if err = os.Rename(out.Name(), dst); err != nil {
		return fmt.Errorf("failed to move %s to %s: %w", out.Name(), dst, err)
	}
	return nil
}
