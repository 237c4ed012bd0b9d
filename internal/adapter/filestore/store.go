package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cwygoda/harvest/internal/domain"
)

// Phase names the step of a persist that failed.
type Phase string

const (
	PhaseStage  Phase = "stage"
	PhaseCommit Phase = "commit"
)

var ErrInvalidName = errors.New("invalid file name")

// PersistError is returned when a payload could not be stored.
type PersistError struct {
	Name  string
	Phase Phase
	Err   error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %s: %v", e.Name, e.Phase, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Options configures a Store.
type Options struct {
	FinalDir   string
	StagingDir string
	// Ext is the file extension without the leading dot.
	Ext    string
	Binary bool
}

// stagedFile is the subset of *os.File used while staging.
type stagedFile interface {
	io.Writer
	Sync() error
	Close() error
}

// Store writes payloads to the staging directory and moves them into the
// final directory with a single rename, so the final path never holds a
// partially written file.
type Store struct {
	finalDir   string
	stagingDir string
	ext        string
	binary     bool
	create     func(path string) (stagedFile, error)
	log        zerolog.Logger
}

// New creates a Store. Both directories must already exist.
func New(opts Options, log zerolog.Logger) *Store {
	return &Store{
		finalDir:   opts.FinalDir,
		stagingDir: opts.StagingDir,
		ext:        opts.Ext,
		binary:     opts.Binary,
		create:     createFile,
		log:        log.With().Str("component", "filestore").Logger(),
	}
}

func createFile(path string) (stagedFile, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
}

// FinalPath returns where the file for name ends up.
func (s *Store) FinalPath(name string) string {
	return filepath.Join(s.finalDir, s.fileName(name))
}

// StagingPath returns where the file for name is staged.
func (s *Store) StagingPath(name string) string {
	return filepath.Join(s.stagingDir, s.fileName(name))
}

func (s *Store) fileName(name string) string {
	return name + "." + s.ext
}

// Exists reports whether a regular file for name is in the final directory.
func (s *Store) Exists(name string) bool {
	if validName(name) != nil {
		return false
	}
	info, err := os.Stat(s.FinalPath(name))
	return err == nil && info.Mode().IsRegular()
}

// Persist stages the payload and commits it to the final directory.
func (s *Store) Persist(ctx context.Context, name string, a *domain.Accepted) error {
	staged, err := s.Stage(name, a)
	if err != nil {
		return err
	}
	return staged.Commit()
}

// Staged is a fully written file in the staging directory awaiting commit.
type Staged struct {
	store     *Store
	name      string
	path      string
	committed bool
}

// Stage writes the payload to the staging directory, replacing any earlier
// staged file of the same name. Nothing is visible at the final path yet.
func (s *Store) Stage(name string, a *domain.Accepted) (*Staged, error) {
	if err := validName(name); err != nil {
		return nil, &PersistError{Name: name, Phase: PhaseStage, Err: err}
	}

	data := a.Payload
	if !s.binary {
		var err error
		if data, err = encodeText(a.Payload, a.Encoding); err != nil {
			return nil, &PersistError{Name: name, Phase: PhaseStage, Err: err}
		}
	}

	path := s.StagingPath(name)
	if err := s.writeStaged(path, data); err != nil {
		os.Remove(path)
		return nil, &PersistError{Name: name, Phase: PhaseStage, Err: err}
	}
	return &Staged{store: s, name: name, path: path}, nil
}

func (s *Store) writeStaged(path string, data []byte) error {
	f, err := s.create(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Path returns the staging path.
func (st *Staged) Path() string { return st.path }

// Commit atomically moves the staged file over the final path. A staged
// file that fails to commit is removed.
func (st *Staged) Commit() error {
	if st.committed {
		return nil
	}
	dst := st.store.FinalPath(st.name)
	if err := os.Rename(st.path, dst); err != nil {
		os.Remove(st.path)
		return &PersistError{Name: st.name, Phase: PhaseCommit, Err: err}
	}
	st.committed = true
	st.store.log.Debug().Str("name", st.name).Str("path", dst).Msg("committed")
	return nil
}

// Sweep removes staged files left behind by an interrupted run.
func (s *Store) Sweep() (int, error) {
	matches, err := filepath.Glob(filepath.Join(s.stagingDir, "*."+s.ext))
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, m := range matches {
		if filepath.Base(m) == LockFile {
			continue
		}
		if err := os.Remove(m); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func validName(name string) error {
	if strings.TrimSpace(name) == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
