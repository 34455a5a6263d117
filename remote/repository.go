// Package remote backs the deep copy with a live Confluence instance.
package remote

import (
	"context"
	"path"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/toothbrush/confluence-copy/confluence"
	"github.com/toothbrush/confluence-copy/deepcopy"
)

// Repository implements deepcopy.Repository on top of the REST client.  Downloads are written
// to Fs.
type Repository struct {
	api *confluence.API
	fs  afero.Fs
}

var _ deepcopy.Repository = (*Repository)(nil)

func New(api *confluence.API, fs afero.Fs) *Repository {
	return &Repository{api: api, fs: fs}
}

func (r *Repository) GetContentByID(ctx context.Context, id string, expand ...string) (deepcopy.ContentNode, error) {
	content, err := r.api.GetContentByID(ctx, confluence.ContentByIDQuery{ID: id, Expand: expand})
	if err != nil {
		return deepcopy.ContentNode{}, r.failed(ctx, "GetContentByID", err, map[string]any{"id": id, "expand": expand})
	}
	return toNode(*content), nil
}

func (r *Repository) GetContentByFilter(ctx context.Context, filter deepcopy.ContentFilter) ([]deepcopy.ContentNode, error) {
	found, err := r.api.AllContent(ctx, confluence.ContentQuery{
		Type:     filter.Type.String(),
		SpaceKey: filter.SpaceKey,
		Title:    filter.Title,
		Expand:   filter.Expand,
	})
	if err != nil {
		return nil, r.failed(ctx, "GetContentByFilter", err, map[string]any{
			"space": filter.SpaceKey,
			"title": filter.Title,
			"type":  filter.Type.String(),
		})
	}

	nodes := make([]deepcopy.ContentNode, 0, len(found))
	for _, c := range found {
		node := toNode(c)
		if node.SpaceKey == "" {
			node.SpaceKey = filter.SpaceKey
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func (r *Repository) GetChildrenByType(ctx context.Context, parentID string, childType deepcopy.ContentType) ([]deepcopy.ContentNode, error) {
	if parentID == deepcopy.SentinelID {
		return nil, nil
	}
	children, err := r.api.AllChildren(ctx, confluence.ChildrenQuery{ID: parentID, ChildType: childType.String()})
	if err != nil {
		return nil, r.failed(ctx, "GetChildrenByType", err, map[string]any{"parent": parentID, "type": childType.String()})
	}

	nodes := make([]deepcopy.ContentNode, 0, len(children))
	for _, c := range children {
		node := toNode(c)
		if node.AncestorID == "" {
			node.AncestorID = parentID
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func (r *Repository) GetAttachments(ctx context.Context, contentID string) ([]deepcopy.AttachmentRef, error) {
	if contentID == deepcopy.SentinelID {
		return nil, nil
	}
	found, err := r.api.AllAttachments(ctx, confluence.AttachmentsQuery{ID: contentID})
	if err != nil {
		return nil, r.failed(ctx, "GetAttachments", err, map[string]any{"id": contentID})
	}

	attachments := make([]deepcopy.AttachmentRef, 0, len(found))
	for _, c := range found {
		attachments = append(attachments, toAttachment(c))
	}
	return attachments, nil
}

func (r *Repository) GetComments(ctx context.Context, contentID string, expand ...string) ([]deepcopy.CommentRef, error) {
	if contentID == deepcopy.SentinelID {
		return nil, nil
	}
	found, err := r.api.AllChildren(ctx, confluence.ChildrenQuery{
		ID:        contentID,
		ChildType: deepcopy.CommentContent.String(),
		Expand:    expand,
	})
	if err != nil {
		return nil, r.failed(ctx, "GetComments", err, map[string]any{"id": contentID, "expand": expand})
	}

	comments := make([]deepcopy.CommentRef, 0, len(found))
	for _, c := range found {
		comment := deepcopy.CommentRef{ID: c.ID, Title: c.Title}
		if c.Body != nil {
			comment.Body = c.Body.Storage.Value
		}
		comments = append(comments, comment)
	}
	return comments, nil
}

func (r *Repository) GetLabels(ctx context.Context, contentID string) ([]deepcopy.LabelRef, error) {
	if contentID == deepcopy.SentinelID {
		return nil, nil
	}
	found, err := r.api.AllLabels(ctx, confluence.LabelsQuery{ID: contentID})
	if err != nil {
		return nil, r.failed(ctx, "GetLabels", err, map[string]any{"id": contentID})
	}

	labels := make([]deepcopy.LabelRef, 0, len(found))
	for _, l := range found {
		labels = append(labels, deepcopy.LabelRef{Prefix: l.Prefix, Name: l.Name})
	}
	return labels, nil
}

func (r *Repository) GetSpaceHomepage(ctx context.Context, spaceKey string) (deepcopy.ContentNode, error) {
	space, err := r.api.GetSpace(ctx, confluence.SpaceQuery{Key: spaceKey, Expand: []string{"homepage"}})
	if err != nil {
		return deepcopy.ContentNode{}, r.failed(ctx, "GetSpaceHomepage", err, map[string]any{"space": spaceKey})
	}
	if space.Homepage == nil {
		err := errors.Errorf("remote: space %s has no homepage: %w", spaceKey, deepcopy.ErrNotFound)
		return deepcopy.ContentNode{}, r.failed(ctx, "GetSpaceHomepage", err, map[string]any{"space": spaceKey})
	}

	node := toNode(*space.Homepage)
	node.SpaceKey = spaceKey
	return node, nil
}

func (r *Repository) CreateContent(ctx context.Context, payload deepcopy.CreatePayload) (deepcopy.ContentNode, error) {
	content := confluence.NewContent{
		Type:  payload.Type.String(),
		Title: payload.Title,
		Body: confluence.Body{
			Storage: confluence.Storage{Representation: "storage", Value: payload.Body},
		},
	}
	if payload.SpaceKey != "" {
		content.Space = &confluence.SpaceKey{Key: payload.SpaceKey}
	}
	if payload.ParentID != "" {
		content.Ancestors = []confluence.Ancestor{{ID: payload.ParentID}}
	}
	if payload.ContainerID != "" {
		content.Container = &confluence.Container{ID: payload.ContainerID, Type: payload.ContainerType.String()}
	}

	created, err := r.api.CreateContent(ctx, content)
	if err != nil {
		return deepcopy.ContentNode{}, r.failed(ctx, "CreateContent", err, map[string]any{
			"type":      payload.Type.String(),
			"title":     payload.Title,
			"space":     payload.SpaceKey,
			"parent":    payload.ParentID,
			"container": payload.ContainerID,
		})
	}

	node := toNode(*created)
	if node.SpaceKey == "" {
		node.SpaceKey = payload.SpaceKey
	}
	if node.AncestorID == "" {
		node.AncestorID = payload.ParentID
		if payload.Type == deepcopy.CommentContent {
			node.AncestorID = payload.ContainerID
		}
	}
	return node, nil
}

func (r *Repository) CreateOrUpdateAttachment(ctx context.Context, contentID string, file deepcopy.LocalFile, existingAttachmentID string) (deepcopy.AttachmentRef, error) {
	args := map[string]any{"id": contentID, "file": file.Title, "existing": existingAttachmentID}

	f, err := r.fs.Open(file.Path)
	if err != nil {
		return deepcopy.AttachmentRef{}, r.failed(ctx, "CreateOrUpdateAttachment", errors.Errorf("remote: couldn't open %s: %w", file.Path, err), args)
	}
	defer f.Close()

	var uploaded *confluence.Content
	if existingAttachmentID == "" {
		uploaded, err = r.api.CreateAttachment(ctx, contentID, file.Title, f)
	} else {
		uploaded, err = r.api.UpdateAttachmentData(ctx, contentID, existingAttachmentID, file.Title, f)
	}
	if err != nil {
		return deepcopy.AttachmentRef{}, r.failed(ctx, "CreateOrUpdateAttachment", err, args)
	}
	return toAttachment(*uploaded), nil
}

func (r *Repository) AddLabels(ctx context.Context, contentID string, labels []deepcopy.LabelRef) error {
	wire := make([]confluence.Label, 0, len(labels))
	for _, l := range labels {
		wire = append(wire, confluence.Label{Prefix: l.Prefix, Name: l.Name})
	}
	if _, err := r.api.AddLabels(ctx, contentID, wire); err != nil {
		return r.failed(ctx, "AddLabels", err, map[string]any{"id": contentID, "labels": labels})
	}
	return nil
}

// DownloadAttachment names the local file after the attachment id, since titles may contain
// anything.  A partial file is removed before returning an error.
func (r *Repository) DownloadAttachment(ctx context.Context, attachment deepcopy.AttachmentRef, destDir string) (string, error) {
	args := map[string]any{"id": attachment.ID, "title": attachment.Title, "link": attachment.DownloadLink}
	if attachment.DownloadLink == "" {
		return "", r.failed(ctx, "DownloadAttachment", errors.New("remote: attachment has no download link"), args)
	}

	p := path.Join(destDir, "attachment-"+attachment.ID)
	f, err := r.fs.Create(p)
	if err != nil {
		return "", r.failed(ctx, "DownloadAttachment", errors.Errorf("remote: couldn't create %s: %w", p, err), args)
	}

	n, err := r.api.DownloadAttachment(ctx, attachment.DownloadLink, f)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = errors.Errorf("remote: couldn't close %s: %w", p, closeErr)
	}
	if err != nil {
		_ = r.fs.Remove(p)
		return "", r.failed(ctx, "DownloadAttachment", err, args)
	}

	zerolog.Ctx(ctx).Debug().Str("attachment", attachment.Title).Int64("bytes", n).Str("path", p).Msg("Downloaded attachment")
	return p, nil
}

// failed logs a failing call and makes sure a missing item matches deepcopy.ErrNotFound.
func (r *Repository) failed(ctx context.Context, op string, err error, args map[string]any) error {
	zerolog.Ctx(ctx).Warn().Err(err).Str("op", op).Fields(args).Msg("Confluence call failed")
	if errors.Is(err, confluence.ErrNotFound) && !errors.Is(err, deepcopy.ErrNotFound) {
		return &notFoundError{err: err}
	}
	return err
}

type notFoundError struct {
	err error
}

func (e *notFoundError) Error() string {
	return e.err.Error()
}

func (e *notFoundError) Unwrap() []error {
	return []error{deepcopy.ErrNotFound, e.err}
}
