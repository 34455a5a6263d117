package deepcopy

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"
)

// SentinelID is the id carried by every node, comment and attachment that a dry run pretends
// to have created.
const SentinelID = "-1"

// DefaultRenameLimit is how many numbered titles get probed before giving up.
const DefaultRenameLimit = 100

// Expansions understood by Repository lookups.
const (
	ExpandBody      = "body.storage"
	ExpandSpace     = "space"
	ExpandAncestors = "ancestors"
	ExpandContainer = "container"
)

type ContentType int

const (
	PageContent ContentType = iota
	BlogContent
	CommentContent
	AttachmentContent
)

func (c ContentType) String() string {
	switch c {
	case BlogContent:
		return "blogpost"
	case CommentContent:
		return "comment"
	case AttachmentContent:
		return "attachment"
	default:
		return "page"
	}
}

// ParseContentType is the inverse of String.  The empty string means page.
func ParseContentType(s string) (ContentType, error) {
	switch strings.ToLower(s) {
	case "", "page":
		return PageContent, nil
	case "blogpost":
		return BlogContent, nil
	case "comment":
		return CommentContent, nil
	case "attachment":
		return AttachmentContent, nil
	}
	return PageContent, errors.Errorf("deepcopy: unknown content type %q", s)
}

// ContentRef points at existing content, either by ID or by space key and title.
type ContentRef struct {
	ID          string
	SpaceKey    string
	Title       string
	ContentType ContentType
}

func (r ContentRef) IsZero() bool {
	return r.ID == "" && r.SpaceKey == "" && r.Title == ""
}

// Validate rejects a ref that has neither an ID nor both space key and title.
func (r ContentRef) Validate() error {
	if r.ID != "" {
		return nil
	}
	if r.SpaceKey != "" && r.Title != "" {
		return nil
	}
	return errors.Errorf("%w: need an id, or a space key and a title (got %s)", ErrInvalidRef, r)
}

func (r ContentRef) String() string {
	if r.ID != "" {
		return fmt.Sprintf("%s %s", r.ContentType, r.ID)
	}
	return fmt.Sprintf("%s %q in %s", r.ContentType, r.Title, r.SpaceKey)
}

// ContentNode is existing (or dry-run simulated) content as far as copying cares about it.
type ContentNode struct {
	ID       string
	Type     ContentType
	Title    string
	SpaceKey string

	// Body is the storage-format markup, passed through untouched.
	Body string

	// AncestorID is the nearest parent; empty for top-level pages.
	AncestorID string
}

// IsSynthetic reports whether the node only exists in a dry run.
func (n ContentNode) IsSynthetic() bool {
	return n.ID == SentinelID
}

type AttachmentRef struct {
	ID           string
	Title        string
	MediaType    string
	FileSize     int64
	DownloadLink string
}

type CommentRef struct {
	ID    string
	Title string
	Body  string
}

type LabelRef struct {
	Prefix string
	Name   string
}

// CreatePayload describes content to be created.  Pages and blogposts hang off ParentID in
// SpaceKey; comments hang off ContainerID instead.
type CreatePayload struct {
	Type        ContentType
	Title       string
	SpaceKey    string
	ParentID    string
	ContainerID string

	// ContainerType is the type of the content a comment is made on.
	ContainerType ContentType
	Body          string
}

// ContentFilter narrows a content search.  Type is always applied.
type ContentFilter struct {
	SpaceKey string
	Title    string
	Type     ContentType
	Expand   []string
}

// LocalFile is a downloaded attachment waiting to be uploaded.
type LocalFile struct {
	Path      string
	Title     string
	MediaType string
}

// TitlePolicy says what to do when the wanted title is already taken.
type TitlePolicy struct {
	RenameOnConflict bool
	RenameLimit      int
}

// CopySpec is the source of a copy and what to bring along with it.
type CopySpec struct {
	Source ContentRef

	CopyChildren    bool
	CopyAttachments bool
	CopyComments    bool
	CopyLabels      bool

	RenameOnConflict bool
	RenameLimit      int

	// OverwriteOnConflict is not implemented; asking for it fails validation.
	OverwriteOnConflict bool

	// SkipExistingAttachments leaves a same-titled attachment on the destination alone instead
	// of uploading a new version of it.
	SkipExistingAttachments bool

	// ExcludeAttachments are doublestar patterns; matching attachment titles are not copied.
	ExcludeAttachments []string
}

func (s CopySpec) Validate() error {
	if err := s.Source.Validate(); err != nil {
		return errors.Errorf("deepcopy: bad source: %w", err)
	}
	if s.OverwriteOnConflict {
		return ErrOverwriteUnsupported
	}
	if s.RenameOnConflict && s.RenameLimit < 1 {
		return errors.Errorf("%w: rename limit must be at least 1, got %d", ErrInvalidOptions, s.RenameLimit)
	}
	for _, pattern := range s.ExcludeAttachments {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("%w: bad attachment pattern %q", ErrInvalidOptions, pattern)
		}
	}
	return nil
}

func (s CopySpec) TitlePolicy() TitlePolicy {
	return TitlePolicy{
		RenameOnConflict: s.RenameOnConflict,
		RenameLimit:      s.RenameLimit,
	}
}

// excludes reports whether an attachment title matches one of the exclusion patterns.
func (s CopySpec) excludes(title string) bool {
	for _, pattern := range s.ExcludeAttachments {
		if ok, _ := doublestar.Match(pattern, title); ok {
			return true
		}
	}
	return false
}

// DestinationSpec says where the copy goes.
//
// Parent wins when set.  With only SpaceKey the copy lands under that space's homepage, and
// with neither it lands next to the source, under the source's own parent.  Title defaults to
// the source's title.
type DestinationSpec struct {
	Parent   ContentRef
	SpaceKey string
	Title    string
}

func (d DestinationSpec) Validate() error {
	if d.Parent.IsZero() {
		return nil
	}
	if err := d.Parent.Validate(); err != nil {
		return errors.Errorf("deepcopy: bad destination parent: %w", err)
	}
	return nil
}
