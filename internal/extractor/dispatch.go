package extractor

import (
	"os"
	"path/filepath"
)

// Dispatcher decides which extractor to run on a downloaded file. The
// guessed type is treated as a hint only: a failed hinted attempt falls
// back to probing every registered extractor, because servers mislabel
// content and extensions lie. Callers must not assume the winning
// extractor matched the guess.
type Dispatcher struct {
	registry *Registry
}

func NewDispatcher(reg *Registry) *Dispatcher {
	if reg == nil {
		reg = NewRegistry()
	}
	return &Dispatcher{registry: reg}
}

// Extract unpacks src into dataDir and writes the file list to
// fileListFile. Per-extractor failures are swallowed while probing; only
// exhaustion of the whole registry surfaces, as an UnsupportedFormatError
// carrying the hinted extractor's error when there was a hint. Each
// attempt runs in a staging directory next to dataDir, so a failed probe
// never leaves partial output behind and the file list is written only by
// the attempt that wins.
func (d *Dispatcher) Extract(src, dataDir, fileListFile string) error {
	ftype, fencoding := Guess(src)

	var hintErr error
	if ext, ok := d.lookupHint(ftype, fencoding); ok {
		err := d.attempt(ext, src, dataDir, fileListFile)
		if err == nil {
			return nil
		}
		hintErr = err
	}

	var lastErr error
	for _, ext := range d.registry.All() {
		err := d.attempt(ext, src, dataDir, fileListFile)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	cause := hintErr
	if cause == nil {
		cause = lastErr
	}
	return &UnsupportedFormatError{Path: src, Cause: cause}
}

// lookupHint resolves the guessed type to an extractor, preferring the
// archive-type match over the encoding match when both resolve.
func (d *Dispatcher) lookupHint(ftype, fencoding string) (Extractor, bool) {
	if ext, ok := d.registry.Lookup(ftype); ok {
		return ext, true
	}
	return d.registry.Lookup(fencoding)
}

func (d *Dispatcher) attempt(ext Extractor, src, dataDir, fileListFile string) error {
	parent := filepath.Dir(filepath.Clean(dataDir))
	if err := os.MkdirAll(parent, 0755); err != nil {
		return err
	}
	staging, err := os.MkdirTemp(parent, ".extract-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(staging)

	list, err := ext.Extract(src, staging)
	if err != nil {
		return err
	}

	if err := promote(staging, dataDir); err != nil {
		return err
	}
	return list.WriteFile(fileListFile)
}

// promote moves the staged output into dataDir, replacing entries with
// the same name. Staging lives beside dataDir, so renames stay on one
// filesystem.
func promote(staging, dataDir string) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}
	entries, err := os.ReadDir(staging)
	if err != nil {
		return err
	}
	for _, e := range entries {
		target := filepath.Join(dataDir, e.Name())
		if err := os.RemoveAll(target); err != nil {
			return err
		}
		if err := os.Rename(filepath.Join(staging, e.Name()), target); err != nil {
			return err
		}
	}
	return nil
}
