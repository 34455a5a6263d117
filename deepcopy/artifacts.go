package deepcopy

import (
	"context"

	"github.com/rs/zerolog"
)

func (c *Copier) copyAttachments(ctx context.Context, spec CopySpec, scratch *scratchArea, result *Result) {
	logger := zerolog.Ctx(ctx)
	sourceID := result.Source.ID

	attachments, err := c.repo.GetAttachments(ctx, sourceID)
	if err != nil {
		result.fail(ctx, &ArtifactError{Artifact: "attachment", SourceID: sourceID, Err: err})
		return
	}
	if len(attachments) == 0 {
		return
	}

	existing := map[string]string{}
	present, err := c.gate.DestinationAttachments(ctx, result.Node.ID)
	if err != nil {
		result.fail(ctx, &ArtifactError{Artifact: "attachment", SourceID: sourceID, Err: err})
		return
	}
	for _, a := range present {
		existing[a.Title] = a.ID
	}

	for _, attachment := range attachments {
		if spec.excludes(attachment.Title) {
			logger.Debug().Str("attachment", attachment.Title).Msg("Attachment excluded")
			continue
		}
		existingID := existing[attachment.Title]
		if existingID != "" && spec.SkipExistingAttachments {
			logger.Info().Str("attachment", attachment.Title).Str("existing", existingID).Msg("Attachment already present, skipping")
			continue
		}

		copied, err := c.gate.TransferAttachment(ctx, scratch, attachment, result.Node.ID, existingID)
		if err != nil {
			result.fail(ctx, &ArtifactError{Artifact: "attachment", SourceID: sourceID, Name: attachment.Title, Err: err})
			continue
		}
		result.Attachments = append(result.Attachments, copied)
	}
}

func (c *Copier) copyComments(ctx context.Context, result *Result) {
	sourceID := result.Source.ID

	comments, err := c.repo.GetComments(ctx, sourceID, ExpandContainer, ExpandBody)
	if err != nil {
		result.fail(ctx, &ArtifactError{Artifact: "comment", SourceID: sourceID, Err: err})
		return
	}

	for _, comment := range comments {
		copied, err := c.gate.CreateContent(ctx, CreatePayload{
			Type:          CommentContent,
			Title:         comment.Title,
			SpaceKey:      result.Node.SpaceKey,
			ContainerID:   result.Node.ID,
			ContainerType: result.Node.Type,
			Body:          comment.Body,
		})
		if err != nil {
			result.fail(ctx, &ArtifactError{Artifact: "comment", SourceID: sourceID, Name: comment.ID, Err: err})
			continue
		}
		result.Comments = append(result.Comments, copied)
	}
}

func (c *Copier) copyLabels(ctx context.Context, result *Result) {
	sourceID := result.Source.ID

	labels, err := c.repo.GetLabels(ctx, sourceID)
	if err != nil {
		result.fail(ctx, &ArtifactError{Artifact: "label", SourceID: sourceID, Err: err})
		return
	}
	if len(labels) == 0 {
		return
	}

	copies := make([]LabelRef, 0, len(labels))
	for _, l := range labels {
		copies = append(copies, LabelRef{Prefix: l.Prefix, Name: l.Name})
	}
	if err := c.gate.AddLabels(ctx, result.Node.ID, copies); err != nil {
		result.fail(ctx, &ArtifactError{Artifact: "label", SourceID: sourceID, Err: err})
		return
	}
	result.Labels = copies
}
