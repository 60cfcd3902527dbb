// Package dataset is the sample store: one directory per user holding face
// crops and a manifest that records which user and capture sequence every
// crop belongs to.
//
// Layout:
//
//	<root>/<user_id>/manifest.json
//	<root>/<user_id>/<sequence>-<face>.png
//
// The manifest is the only source of labels; file names are never parsed.
package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/renameio"
	"github.com/kozaktomas/facegate/internal/constants"
	"github.com/kozaktomas/facegate/internal/fingerprint"
	"github.com/kozaktomas/facegate/internal/logging"
	"github.com/kozaktomas/facegate/internal/observability"
	"github.com/kozaktomas/facegate/internal/vision"
	"github.com/sirupsen/logrus"
)

var ErrInvalidSequence = errors.New("sequence index must be >= 1")

// Sample is one stored face crop.
type Sample struct {
	UserID     int       `json:"user_id"`
	Sequence   int       `json:"sequence"`
	Face       int       `json:"face"` // detection order within the capture, from 1
	File       string    `json:"file"` // relative to the user directory
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	CapturedAt time.Time `json:"captured_at"`
	DHash      string    `json:"dhash,omitempty"` // difference hash of the crop

	// NearDuplicate is set by Append when the crop matches a sample from
	// another sequence of the same user.
	NearDuplicate bool `json:"-"`

	Path string `json:"-"` // set when listing
}

type manifest struct {
	UserID  int      `json:"user_id"`
	Samples []Sample `json:"samples"`
}

// Store is safe for concurrent use. Writes for one user are serialized,
// different users proceed in parallel.
type Store struct {
	root     string
	detector vision.Detector
	params   vision.DetectParams
	log      *logrus.Entry

	mu    sync.Mutex
	locks map[int]*sync.Mutex

	writeFile func(name string, data []byte, perm os.FileMode) error
	rename    func(oldpath, newpath string) error
}

// New creates a store rooted at root. The detector and params are used to
// find faces in captured frames.
func New(root string, detector vision.Detector, params vision.DetectParams) *Store {
	return &Store{
		root:     root,
		detector: detector,
		params:   params,
		log:      logging.Component("dataset"),
		locks:    make(map[int]*sync.Mutex),

		writeFile: os.WriteFile,
		rename:    os.Rename,
	}
}

// Root returns the dataset root directory.
func (s *Store) Root() string {
	return s.root
}

// UserDir returns the directory holding a user's samples.
func (s *Store) UserDir(userID int) string {
	return filepath.Join(s.root, strconv.Itoa(userID))
}

func (s *Store) lockUser(userID int) func() {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Append detects faces in img and stores one grayscale crop per detected face,
// all under the given sequence index. Each face gets its own file
// (<seq>-<face>.png), so a frame with two faces yields two samples. Entries
// already stored for the same sequence are replaced.
//
// When no face is found the result is empty and nothing but the user
// directory is created.
func (s *Store) Append(userID int, img image.Image, seq int) ([]Sample, error) {
	if seq < constants.FirstSequence {
		return nil, ErrInvalidSequence
	}

	unlock := s.lockUser(userID)
	defer unlock()

	dir := s.UserDir(userID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create user directory: %w", err)
	}

	gray := vision.ToGray(img)
	boxes, err := s.detector.Detect(gray, s.params)
	if err != nil {
		return nil, fmt.Errorf("face detection failed: %w", err)
	}
	if len(boxes) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	var (
		added   []Sample
		encoded [][]byte
	)
	for _, box := range boxes {
		crop := vision.Crop(gray, box)
		if crop == nil {
			observability.CaptureFacesSkipped.Inc()
			s.log.WithFields(logrus.Fields{
				"user_id":  userID,
				"sequence": seq,
				"box":      box.String(),
			}).Warn("Detected face lies outside the frame, skipping")
			continue
		}
		data, err := encodePNG(crop)
		if err != nil {
			return nil, err
		}
		face := len(added) + 1
		name := fmt.Sprintf("%d-%d%s", seq, face, constants.SampleExt)
		added = append(added, Sample{
			UserID:     userID,
			Sequence:   seq,
			Face:       face,
			File:       name,
			Width:      crop.Bounds().Dx(),
			Height:     crop.Bounds().Dy(),
			CapturedAt: now,
			DHash:      fingerprint.Format(fingerprint.DHash(crop)),
			Path:       filepath.Join(dir, name),
		})
		encoded = append(encoded, data)
	}
	if len(added) == 0 {
		return nil, nil
	}

	m, err := s.readManifest(userID)
	if err != nil {
		return nil, err
	}

	// New crops are staged next to their final names and only replace the
	// previous files once all of them are on disk. Until the manifest is
	// written every step can be rolled back.
	w, err := s.stage(added, encoded)
	if err != nil {
		return nil, err
	}
	if err := w.commit(); err != nil {
		w.rollback()
		return nil, err
	}

	var replaced []string
	kept := make([]Sample, 0, len(m.Samples))
	for _, old := range m.Samples {
		if old.Sequence != seq {
			kept = append(kept, old)
			continue
		}
		if !slices.ContainsFunc(added, func(n Sample) bool { return n.File == old.File }) {
			replaced = append(replaced, old.File)
		}
	}
	s.markDuplicates(added, kept)

	m.UserID = userID
	m.Samples = append(kept, added...)
	sortSamples(m.Samples)

	if err := s.writeManifest(userID, m); err != nil {
		w.rollback()
		return nil, err
	}
	w.finish()

	for _, file := range replaced {
		if err := os.Remove(filepath.Join(dir, file)); err != nil && !os.IsNotExist(err) {
			s.log.WithError(err).WithField("file", file).Warn("Failed to remove replaced sample")
		}
	}

	s.log.WithFields(logrus.Fields{
		"user_id":  userID,
		"sequence": seq,
		"faces":    len(added),
	}).Debug("Stored face samples")
	return added, nil
}

// markDuplicates flags new samples whose hash is within
// fingerprint.DuplicateThreshold of an existing one.
func (s *Store) markDuplicates(added, existing []Sample) {
	for i := range added {
		h, err := fingerprint.Parse(added[i].DHash)
		if err != nil {
			continue
		}
		for _, old := range existing {
			oh, err := fingerprint.Parse(old.DHash)
			if err != nil || !fingerprint.Similar(h, oh, fingerprint.DuplicateThreshold) {
				continue
			}
			added[i].NearDuplicate = true
			s.log.WithFields(logrus.Fields{
				"user_id":  added[i].UserID,
				"file":     added[i].File,
				"existing": old.File,
			}).Info("Captured sample is nearly identical to an existing one")
			break
		}
	}
}

// HasUser reports whether a user directory exists.
func (s *Store) HasUser(userID int) bool {
	info, err := os.Stat(s.UserDir(userID))
	return err == nil && info.IsDir()
}

// ListUser returns a user's samples ordered by sequence then face. A missing
// user yields an empty list.
func (s *Store) ListUser(userID int) ([]Sample, error) {
	m, err := s.readManifest(userID)
	if err != nil {
		return nil, err
	}
	dir := s.UserDir(userID)
	for i := range m.Samples {
		m.Samples[i].UserID = m.UserID
		m.Samples[i].Path = filepath.Join(dir, m.Samples[i].File)
	}
	return m.Samples, nil
}

// ListAll walks the whole store and returns every sample ordered by user,
// sequence and face. Unreadable manifests are logged and skipped.
func (s *Store) ListAll() ([]Sample, error) {
	var all []Sample
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == s.root {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || d.Name() != constants.ManifestFile {
			return nil
		}

		m, err := decodeManifest(path)
		if err != nil {
			s.log.WithError(err).WithField("file", path).Warn("Skipping unreadable manifest")
			return nil
		}
		dir := filepath.Dir(path)
		for _, sample := range m.Samples {
			sample.UserID = m.UserID
			sample.Path = filepath.Join(dir, sample.File)
			all = append(all, sample)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk dataset: %w", err)
	}
	slices.SortStableFunc(all, func(a, b Sample) int {
		if a.UserID != b.UserID {
			return a.UserID - b.UserID
		}
		return compareSamples(a, b)
	})
	return all, nil
}

// NextSequence returns the sequence index following the highest stored one.
func (s *Store) NextSequence(userID int) (int, error) {
	samples, err := s.ListUser(userID)
	if err != nil {
		return 0, err
	}
	next := constants.FirstSequence
	for _, sample := range samples {
		next = max(next, sample.Sequence+1)
	}
	return next, nil
}

// Load reads a stored crop as a grayscale raster.
func (s *Store) Load(sample Sample) (*image.Gray, error) {
	f, err := os.Open(sample.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", sample.Path, err)
	}
	return vision.ToGray(img), nil
}

// Purge deletes a user's directory. Purging an unknown user is a no-op.
func (s *Store) Purge(userID int) error {
	unlock := s.lockUser(userID)
	defer unlock()

	if err := os.RemoveAll(s.UserDir(userID)); err != nil {
		return fmt.Errorf("failed to purge user %d: %w", userID, err)
	}
	return nil
}

func (s *Store) readManifest(userID int) (*manifest, error) {
	m, err := decodeManifest(filepath.Join(s.UserDir(userID), constants.ManifestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return &manifest{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Store) writeManifest(userID int, m *manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	path := filepath.Join(s.UserDir(userID), constants.ManifestFile)
	if err := renameio.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func decodeManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &m, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode sample: %w", err)
	}
	return buf.Bytes(), nil
}

func compareSamples(a, b Sample) int {
	if a.Sequence != b.Sequence {
		return a.Sequence - b.Sequence
	}
	return a.Face - b.Face
}

func sortSamples(samples []Sample) {
	slices.SortStableFunc(samples, compareSamples)
}
