package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type stagedFile struct {
	tmp    string // staged crop
	path   string // final sample path
	backup string // previous file at path, moved aside; empty if there was none
}

// sampleWrite moves staged crops onto their final names. Until finish is
// called the previous files are kept aside and rollback restores them.
type sampleWrite struct {
	store   *Store
	entries []stagedFile
	done    int // entries already renamed onto path
}

// stage writes every crop to a hidden temporary file in the user directory.
// Nothing visible changes if it fails.
func (s *Store) stage(samples []Sample, data [][]byte) (*sampleWrite, error) {
	w := &sampleWrite{store: s}
	for i, sample := range samples {
		dir := filepath.Dir(sample.Path)
		tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", sample.File, uuid.NewString()))
		if err := s.writeFile(tmp, data[i], 0644); err != nil {
			removeQuietly(tmp)
			w.rollback()
			return nil, fmt.Errorf("failed to write sample: %w", err)
		}
		w.entries = append(w.entries, stagedFile{tmp: tmp, path: sample.Path})
	}
	return w, nil
}

func (w *sampleWrite) commit() error {
	for i := range w.entries {
		e := &w.entries[i]
		_, err := os.Lstat(e.path)
		switch {
		case err == nil:
			backup := strings.TrimSuffix(e.tmp, ".tmp") + ".bak"
			if err := w.store.rename(e.path, backup); err != nil {
				return fmt.Errorf("failed to move aside %s: %w", filepath.Base(e.path), err)
			}
			e.backup = backup
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("failed to stat %s: %w", filepath.Base(e.path), err)
		}

		if err := w.store.rename(e.tmp, e.path); err != nil {
			return fmt.Errorf("failed to write sample: %w", err)
		}
		w.done = i + 1
	}
	return nil
}

// rollback puts back every file that commit replaced and drops staged crops.
func (w *sampleWrite) rollback() {
	for i := len(w.entries) - 1; i >= 0; i-- {
		e := w.entries[i]
		if i < w.done {
			removeQuietly(e.path)
		} else {
			removeQuietly(e.tmp)
		}
		if e.backup == "" {
			continue
		}
		if err := os.Rename(e.backup, e.path); err != nil {
			w.store.log.WithError(err).WithField("file", filepath.Base(e.path)).Error("Failed to restore sample after aborted capture")
		}
	}
}

// finish discards the files that were moved aside.
func (w *sampleWrite) finish() {
	for _, e := range w.entries {
		if e.backup == "" {
			continue
		}
		if err := os.RemoveAll(e.backup); err != nil {
			w.store.log.WithError(err).WithField("file", filepath.Base(e.backup)).Warn("Failed to remove replaced sample")
		}
	}
}

func removeQuietly(path string) {
	_ = os.Remove(path)
}
