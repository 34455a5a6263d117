package deepcopy

import (
	"fmt"

	"gitlab.com/tozd/go/errors"
)

var (
	// ErrNotFound is what a Repository returns for content that does not exist.
	ErrNotFound = errors.Base("content not found")

	ErrInvalidRef           = errors.Base("invalid content reference")
	ErrInvalidOptions       = errors.Base("invalid copy options")
	ErrOverwriteUnsupported = errors.Base("overwrite on conflict is not supported yet")

	ErrSourceNotFound = errors.Base("source content not found")
	ErrParentNotFound = errors.Base("destination parent not found")

	ErrTitleConflict       = errors.Base("title already exists")
	ErrRenameLimitExceeded = errors.Base("rename limit exceeded")
	ErrProbeFailed         = errors.Base("title probe failed")

	ErrTitleUnresolvable  = errors.Base("title unresolvable")
	ErrCreationFailed     = errors.Base("content creation failed")
	ErrListingFailed      = errors.Base("child listing failed")
	ErrArtifactCopyFailed = errors.Base("child artifact copy failed")
)

// NodeError is a structural failure: it stops one node, and with it the node's subtree.
// It matches both its Kind and its cause under errors.Is.
type NodeError struct {
	Kind     error
	SourceID string
	Title    string
	Err      error
}

func (e *NodeError) Error() string {
	msg := fmt.Sprintf("deepcopy: %s", e.Kind)
	if e.SourceID != "" {
		msg += fmt.Sprintf(" (source %s)", e.SourceID)
	}
	if e.Title != "" {
		msg += fmt.Sprintf(" (title %q)", e.Title)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NodeError) Unwrap() []error {
	return causes(e.Kind, e.Err)
}

// ArtifactError is a failed attachment, comment or label copy.  These are recorded and logged
// but never stop the node they belong to.
type ArtifactError struct {
	Artifact string // attachment, comment, label
	SourceID string
	Name     string
	Err      error
}

func (e *ArtifactError) Error() string {
	msg := fmt.Sprintf("deepcopy: %s copy failed for source %s", e.Artifact, e.SourceID)
	if e.Name != "" {
		msg += fmt.Sprintf(" (%q)", e.Name)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ArtifactError) Unwrap() []error {
	return causes(ErrArtifactCopyFailed, e.Err)
}

// ProbeError is a title existence check that could not be answered.
type ProbeError struct {
	SpaceKey string
	Title    string
	Err      error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("deepcopy: %s for %q in %s: %s", ErrProbeFailed, e.Title, e.SpaceKey, e.Err)
}

func (e *ProbeError) Unwrap() []error {
	return causes(ErrProbeFailed, e.Err)
}

func causes(errs ...error) []error {
	out := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}
