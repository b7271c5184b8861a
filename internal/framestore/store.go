// Package framestore keeps the captured frames of a run on disk. The file
// name frame-{row}-{col}.png is the only persisted grid position.
package framestore

import (
	"cmp"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/do/v2"
	"github.com/willie68/go_mapmosaic/internal/calibration"
	"github.com/willie68/go_mapmosaic/internal/grid"
	"github.com/willie68/go_mapmosaic/internal/logging"
	"github.com/willie68/go_mapmosaic/pkg/fileutils"
)

const (
	framePrefix = "frame-"
)

var (
	// ErrBadFrameName the file looks like a frame but the name does not parse
	ErrBadFrameName = errors.New("malformed frame name")
	// ErrOutOfPlan the frame lies outside of the grid
	ErrOutOfPlan = errors.New("frame outside of the grid")

	// only canonical names, so every cell has exactly one file name
	frameRegex = regexp.MustCompile(`^frame-(0|[1-9]\d*)-(0|[1-9]\d*)\.png$`)
)

// Config of the frame store
type Config struct {
	Path string `yaml:"path"`
}

// Store the frame directory of one run, there is only one writer
type Store struct {
	log   *slog.Logger
	path  string
	flock sync.RWMutex
}

// Init creates the store out of the config in the injector and provides it
func Init(inj do.Injector) {
	cfg := do.MustInvoke[*Config](inj)
	s, err := New(cfg.Path)
	if err != nil {
		panic(err)
	}
	do.ProvideValue(inj, s)
}

// New creates the store, the directory is created if absent
func New(path string) (*Store, error) {
	if path == "" {
		path = "frames"
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, errors.Wrapf(err, "can't create frame directory %s", path)
	}
	return &Store{
		log:  logging.New("framestore"),
		path: path,
	}, nil
}

// Dir the directory of the store
func (s *Store) Dir() string {
	return s.path
}

// FrameName the canonical file name of a cell
func FrameName(c grid.Cell) string {
	return fmt.Sprintf("frame-%d-%d.png", c.Row, c.Col)
}

// ParseFrameName gets the cell back out of a canonical file name
func ParseFrameName(name string) (grid.Cell, error) {
	m := frameRegex.FindStringSubmatch(name)
	if m == nil {
		return grid.Cell{}, errors.Wrapf(ErrBadFrameName, "%q", name)
	}
	r, err := strconv.Atoi(m[1])
	if err != nil {
		return grid.Cell{}, errors.Wrapf(ErrBadFrameName, "%q: row: %v", name, err)
	}
	c, err := strconv.Atoi(m[2])
	if err != nil {
		return grid.Cell{}, errors.Wrapf(ErrBadFrameName, "%q: col: %v", name, err)
	}
	return grid.Cell{Row: r, Col: c}, nil
}

// Path the full file name of the frame of a cell
func (s *Store) Path(c grid.Cell) string {
	return filepath.Join(s.path, FrameName(c))
}

// Has checks if a frame for the cell is stored
func (s *Store) Has(c grid.Cell) bool {
	s.flock.RLock()
	defer s.flock.RUnlock()
	return fileutils.FileExists(s.Path(c))
}

// Save stores the frame of a cell, an existing frame is replaced. Returns the
// reference to be put into the grid.
func (s *Store) Save(c grid.Cell, data io.Reader) (string, error) {
	fn := s.Path(c)
	s.flock.Lock()
	defer s.flock.Unlock()
	if err := fileutils.WriteAtomic(fn, data); err != nil {
		return "", errors.Wrapf(err, "can't save frame %s", c)
	}
	return fn, nil
}

// Open opens a stored frame by its reference
func (s *Store) Open(ref string) (io.ReadCloser, error) {
	s.flock.RLock()
	defer s.flock.RUnlock()
	return os.Open(ref)
}

// Hash sha256 of a stored frame
func (s *Store) Hash(c grid.Cell) (string, error) {
	s.flock.RLock()
	defer s.flock.RUnlock()
	return fileutils.HashFile(s.Path(c))
}

// Clear removes all frames of a former run, other files are kept
func (s *Store) Clear() error {
	s.flock.Lock()
	defer s.flock.Unlock()
	count := 0
	err := fileutils.GetFiles(s.path, framePrefix, func(fi fs.DirEntry) bool {
		if !strings.HasSuffix(strings.ToLower(fi.Name()), ".png") {
			return true
		}
		if err := os.Remove(filepath.Join(s.path, fi.Name())); err != nil {
			s.log.Error(fmt.Sprintf("error removing frame %s: %v", fi.Name(), err))
			return true
		}
		count++
		return true
	})
	if err != nil {
		return err
	}
	s.log.Info(fmt.Sprintf("removed %d frames from %s", count, s.path))
	return nil
}

// Scan reads all frame names of the directory. Names that do not parse are
// reported and skipped.
func (s *Store) Scan() (map[grid.Cell]string, []error) {
	s.flock.RLock()
	defer s.flock.RUnlock()
	frames := make(map[grid.Cell]string)
	var errs []error
	err := fileutils.GetFiles(s.path, framePrefix, func(fi fs.DirEntry) bool {
		c, err := ParseFrameName(fi.Name())
		if err != nil {
			errs = append(errs, err)
			return true
		}
		frames[c] = filepath.Join(s.path, fi.Name())
		return true
	})
	if err != nil {
		errs = append(errs, err)
	}
	return frames, errs
}

// Resume rebuilds the grid of a width x height plan out of the stored
// frames. Missing frames stay empty, frames outside the plan are reported.
func (s *Store) Resume(width, height int) (*grid.TileGrid, []error) {
	frames, errs := s.Scan()
	g, err := grid.New(width, height)
	if err != nil {
		errs = append(errs, err)
		return nil, errs
	}
	for c, ref := range frames {
		if err := g.Set(c, ref); err != nil {
			errs = append(errs, errors.Wrapf(ErrOutOfPlan, "%s", FrameName(c)))
		}
	}
	s.report(g, errs)
	return g, errs
}

// ResumeAll rebuilds a grid just big enough for all stored frames. Frames are
// taken in row major order, a frame that would grow the grid beyond
// calibration.MaxTiles cells is reported and skipped.
func (s *Store) ResumeAll() (*grid.TileGrid, []error) {
	frames, errs := s.Scan()
	cells := make([]grid.Cell, 0, len(frames))
	for c := range frames {
		cells = append(cells, c)
	}
	slices.SortFunc(cells, func(a, b grid.Cell) int {
		return cmp.Or(cmp.Compare(a.Row, b.Row), cmp.Compare(a.Col, b.Col))
	})
	width, height := 0, 0
	kept := cells[:0]
	for _, c := range cells {
		w, h := max(width, c.Col+1), max(height, c.Row+1)
		if c.Row >= calibration.MaxTiles || c.Col >= calibration.MaxTiles || w*h > calibration.MaxTiles {
			errs = append(errs, errors.Wrapf(ErrOutOfPlan, "%s exceeds %d cells", FrameName(c), calibration.MaxTiles))
			continue
		}
		width, height = w, h
		kept = append(kept, c)
	}
	g, err := grid.New(width, height)
	if err != nil {
		errs = append(errs, err)
		return nil, errs
	}
	for _, c := range kept {
		_ = g.Set(c, frames[c])
	}
	s.report(g, errs)
	return g, errs
}

func (s *Store) report(g *grid.TileGrid, errs []error) {
	for _, err := range errs {
		s.log.Warn(fmt.Sprintf("skipping frame: %v", err))
	}
	s.log.Info(fmt.Sprintf("resumed %dx%d grid, %d frames found, %d missing", g.Width(), g.Height(), len(g.Filled()), len(g.Missing())))
}
