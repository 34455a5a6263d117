package deepcopy

import (
	"context"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Repository is everything the copier needs from a Confluence instance.  Implementations must
// report missing content with an error matching ErrNotFound.
type Repository interface {
	GetContentByID(ctx context.Context, id string, expand ...string) (ContentNode, error)
	GetContentByFilter(ctx context.Context, filter ContentFilter) ([]ContentNode, error)
	GetChildrenByType(ctx context.Context, parentID string, childType ContentType) ([]ContentNode, error)
	GetAttachments(ctx context.Context, contentID string) ([]AttachmentRef, error)
	GetComments(ctx context.Context, contentID string, expand ...string) ([]CommentRef, error)
	GetLabels(ctx context.Context, contentID string) ([]LabelRef, error)

	// GetSpaceHomepage returns the homepage of a space.
	GetSpaceHomepage(ctx context.Context, spaceKey string) (ContentNode, error)

	CreateContent(ctx context.Context, payload CreatePayload) (ContentNode, error)

	// CreateOrUpdateAttachment uploads a file.  With an empty existingAttachmentID a new
	// attachment is created, otherwise a new version of that attachment is uploaded.
	CreateOrUpdateAttachment(ctx context.Context, contentID string, file LocalFile, existingAttachmentID string) (AttachmentRef, error)

	AddLabels(ctx context.Context, contentID string, labels []LabelRef) error

	// DownloadAttachment stores the attachment data in destDir and returns the file path.
	DownloadAttachment(ctx context.Context, attachment AttachmentRef, destDir string) (string, error)
}

// ResolveRef looks up the content a ref points at.  A lookup by space and title must match
// exactly one node: none is ErrNotFound, and with several the first one wins.
func ResolveRef(ctx context.Context, repo Repository, ref ContentRef, expand ...string) (ContentNode, error) {
	if err := ref.Validate(); err != nil {
		return ContentNode{}, err
	}
	if ref.ID != "" {
		return repo.GetContentByID(ctx, ref.ID, expand...)
	}

	nodes, err := repo.GetContentByFilter(ctx, ContentFilter{
		SpaceKey: ref.SpaceKey,
		Title:    ref.Title,
		Type:     ref.ContentType,
		Expand:   expand,
	})
	if err != nil {
		return ContentNode{}, err
	}
	switch len(nodes) {
	case 0:
		return ContentNode{}, errors.Errorf("deepcopy: no %s: %w", ref, ErrNotFound)
	case 1:
	default:
		zerolog.Ctx(ctx).Warn().
			Stringer("ref", ref).
			Int("matches", len(nodes)).
			Str("using", nodes[0].ID).
			Msg("Lookup matched more than one item, using the first")
	}
	return nodes[0], nil
}
