package deepcopy

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// scratchArea is the per-copy directory downloads land in.  It is created on first use.
type scratchArea struct {
	fs     afero.Fs
	root   string
	prefix string
	dir    string
}

func newScratchArea(fs afero.Fs, root, prefix string) *scratchArea {
	return &scratchArea{fs: fs, root: root, prefix: prefix}
}

func (s *scratchArea) Dir() (string, error) {
	if s.dir != "" {
		return s.dir, nil
	}
	dir, err := afero.TempDir(s.fs, s.root, s.prefix)
	if err != nil {
		return "", errors.Errorf("deepcopy: could not create scratch directory: %w", err)
	}
	s.dir = dir
	return dir, nil
}

// Discard removes a single downloaded file.  Failing to do so is only logged; Close gets
// another go at it.
func (s *scratchArea) Discard(ctx context.Context, path string) {
	if err := s.fs.Remove(path); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("path", path).Msg("Could not remove scratch file")
	}
}

// Close removes the scratch directory and everything left in it, partial downloads included.
func (s *scratchArea) Close(ctx context.Context) {
	if s.dir == "" {
		return
	}
	if err := s.fs.RemoveAll(s.dir); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("path", s.dir).Msg("Could not remove scratch directory")
		return
	}
	zerolog.Ctx(ctx).Debug().Str("path", s.dir).Msg("Removed scratch directory")
	s.dir = ""
}
