package deepcopy

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ExecutionMode decides whether mutations really happen.  The zero value is DryRun.
type ExecutionMode int

const (
	DryRun ExecutionMode = iota
	RealRun
)

func (m ExecutionMode) String() string {
	if m == RealRun {
		return "real-run"
	}
	return "dry-run"
}

func ParseExecutionMode(s string) (ExecutionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dry-run", "dry", "dryrun":
		return DryRun, nil
	case "real-run", "real", "realrun":
		return RealRun, nil
	}
	return DryRun, errors.Errorf("deepcopy: unknown execution mode %q", s)
}

// Gate sits in front of every mutating Repository call.  In DryRun it logs what would have
// been done and hands back synthetic results carrying SentinelID.
type Gate struct {
	mode ExecutionMode
	repo Repository
}

func NewGate(mode ExecutionMode, repo Repository) *Gate {
	return &Gate{mode: mode, repo: repo}
}

func (g *Gate) Mode() ExecutionMode {
	return g.mode
}

func (g *Gate) CreateContent(ctx context.Context, payload CreatePayload) (ContentNode, error) {
	if g.mode == DryRun {
		zerolog.Ctx(ctx).Info().
			Str("mode", g.mode.String()).
			Interface("payload", payload).
			Msgf("Would create %s", payload.Type)
		ancestor := payload.ParentID
		if payload.Type == CommentContent {
			ancestor = payload.ContainerID
		}
		return ContentNode{
			ID:         SentinelID,
			Type:       payload.Type,
			Title:      payload.Title,
			SpaceKey:   payload.SpaceKey,
			Body:       payload.Body,
			AncestorID: ancestor,
		}, nil
	}
	return g.repo.CreateContent(ctx, payload)
}

// TransferAttachment copies one attachment onto destID through the scratch area.  The
// downloaded file is discarded once uploaded, whatever the outcome.  In DryRun nothing is
// downloaded.
func (g *Gate) TransferAttachment(ctx context.Context, scratch *scratchArea, attachment AttachmentRef, destID, existingID string) (AttachmentRef, error) {
	if g.mode == DryRun {
		zerolog.Ctx(ctx).Info().
			Str("mode", g.mode.String()).
			Str("attachment", attachment.Title).
			Str("destination", destID).
			Str("existing", existingID).
			Int64("size", attachment.FileSize).
			Msg("Would copy attachment")
		return AttachmentRef{
			ID:        SentinelID,
			Title:     attachment.Title,
			MediaType: attachment.MediaType,
			FileSize:  attachment.FileSize,
		}, nil
	}

	dir, err := scratch.Dir()
	if err != nil {
		return AttachmentRef{}, err
	}
	path, err := g.repo.DownloadAttachment(ctx, attachment, dir)
	if path != "" {
		defer scratch.Discard(ctx, path)
	}
	if err != nil {
		return AttachmentRef{}, errors.Errorf("deepcopy: download: %w", err)
	}

	uploaded, err := g.repo.CreateOrUpdateAttachment(ctx, destID, LocalFile{
		Path:      path,
		Title:     attachment.Title,
		MediaType: attachment.MediaType,
	}, existingID)
	if err != nil {
		return AttachmentRef{}, errors.Errorf("deepcopy: upload: %w", err)
	}
	return uploaded, nil
}

func (g *Gate) AddLabels(ctx context.Context, contentID string, labels []LabelRef) error {
	if g.mode == DryRun {
		zerolog.Ctx(ctx).Info().
			Str("mode", g.mode.String()).
			Str("destination", contentID).
			Interface("labels", labels).
			Msg("Would add labels")
		return nil
	}
	return g.repo.AddLabels(ctx, contentID, labels)
}

// DestinationAttachments lists what is already attached to a destination node.  Nodes that only
// exist in a dry run have nothing attached.
func (g *Gate) DestinationAttachments(ctx context.Context, contentID string) ([]AttachmentRef, error) {
	if contentID == SentinelID {
		return nil, nil
	}
	return g.repo.GetAttachments(ctx, contentID)
}
