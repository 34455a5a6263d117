package deepcopy

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// Copier deep-copies a page, and optionally everything below it, to a new place.
//
// A Copier works depth-first on the calling goroutine.  Failures of a single node's
// attachments, comments or labels, and failures of whole child subtrees, are logged and
// recorded on the Result; they do not stop the rest of the copy.  Nothing is ever rolled back.
type Copier struct {
	// Fs holds the scratch area attachments are downloaded to.  It has to be the same
	// filesystem the Repository downloads into.
	Fs afero.Fs

	// ScratchRoot is where the scratch area is created.  Empty means the OS temp dir.
	ScratchRoot string

	// OnNodeCopied, if set, is called after each node and its artifacts are done, before its
	// children are started.
	OnNodeCopied func(result *Result)

	repo   Repository
	gate   *Gate
	titles *TitleResolver
}

func NewCopier(repo Repository, mode ExecutionMode) *Copier {
	return &Copier{
		Fs:     afero.NewOsFs(),
		repo:   repo,
		gate:   NewGate(mode, repo),
		titles: NewTitleResolver(repo),
	}
}

func (c *Copier) Mode() ExecutionMode {
	return c.gate.Mode()
}

// Copy copies spec.Source to dest.  The returned error is only set when the root itself could
// not be copied or the copy was interrupted; everything else ends up in Result.Failures.
func (c *Copier) Copy(ctx context.Context, spec CopySpec, dest DestinationSpec) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := dest.Validate(); err != nil {
		return nil, err
	}

	runID := ulid.Make()
	logger := zerolog.Ctx(ctx).With().
		Str("run", runID.String()).
		Str("mode", c.gate.Mode().String()).
		Logger()
	ctx = logger.WithContext(ctx)

	run := &copyRun{
		spec:    spec,
		scratch: newScratchArea(c.Fs, c.ScratchRoot, "confluence-copy-"+runID.String()+"-"),
		created: map[string]struct{}{},
	}
	defer run.scratch.Close(ctx)

	source, err := ResolveRef(ctx, c.repo, spec.Source, ExpandBody, ExpandSpace, ExpandAncestors)
	if err != nil {
		logger.Error().Err(err).Stringer("source", spec.Source).Msg("Could not get source content to copy")
		return nil, &NodeError{Kind: ErrSourceNotFound, SourceID: spec.Source.ID, Title: spec.Source.Title, Err: err}
	}

	parentID, spaceKey, err := c.destination(ctx, source, dest)
	if err != nil {
		logger.Error().Err(err).Msg("Could not get parent content for new copy")
		return nil, &NodeError{Kind: ErrParentNotFound, SourceID: source.ID, Err: err}
	}

	title := dest.Title
	if title == "" {
		title = source.Title
	}

	logger.Info().
		Str("source", source.ID).
		Str("title", source.Title).
		Str("space", spaceKey).
		Str("parent", parentID).
		Msg("Starting copy")

	result, err := c.copyNode(ctx, run, source, parentID, spaceKey, title)
	if err != nil {
		return result, err
	}

	logger.Info().
		Int("nodes", result.Count()).
		Int("failures", len(result.AllFailures())).
		Msg("Copy finished")
	return result, nil
}

// destination works out the parent and space the copy goes into.
func (c *Copier) destination(ctx context.Context, source ContentNode, dest DestinationSpec) (string, string, error) {
	switch {
	case !dest.Parent.IsZero():
		parent, err := ResolveRef(ctx, c.repo, dest.Parent, ExpandSpace)
		if err != nil {
			return "", "", err
		}
		spaceKey := parent.SpaceKey
		if spaceKey == "" {
			spaceKey = firstNonEmpty(dest.Parent.SpaceKey, dest.SpaceKey)
		}
		return parent.ID, spaceKey, nil

	case dest.SpaceKey != "":
		home, err := c.repo.GetSpaceHomepage(ctx, dest.SpaceKey)
		if err != nil {
			return "", "", errors.Errorf("deepcopy: homepage of space %s: %w", dest.SpaceKey, err)
		}
		return home.ID, dest.SpaceKey, nil

	default:
		if source.AncestorID == "" {
			// A top-level page is copied to the top level of its own space.
			return "", source.SpaceKey, nil
		}
		parent, err := c.repo.GetContentByID(ctx, source.AncestorID, ExpandSpace)
		if err != nil {
			return "", "", errors.Errorf("deepcopy: parent of source: %w", err)
		}
		return parent.ID, firstNonEmpty(parent.SpaceKey, source.SpaceKey), nil
	}
}

// copyRun is the state of one Copy call.
type copyRun struct {
	spec    CopySpec
	scratch *scratchArea

	// created holds the IDs of the nodes made so far.  A copy placed inside its own source
	// shows up when listing children, and must not be copied again.
	created map[string]struct{}
}

func (c *Copier) copyNode(ctx context.Context, run *copyRun, source ContentNode, parentID, spaceKey, title string) (*Result, error) {
	spec := run.spec
	logger := zerolog.Ctx(ctx).With().Str("source", source.ID).Logger()

	resolved, err := c.titles.Resolve(ctx, spaceKey, title, spec.TitlePolicy())
	if err != nil {
		logger.Error().Err(err).Str("title", title).Msg("Could not get a suitable title for the new content")
		return nil, &NodeError{Kind: ErrTitleUnresolvable, SourceID: source.ID, Title: title, Err: err}
	}

	created, err := c.gate.CreateContent(ctx, CreatePayload{
		Type:     source.Type,
		Title:    resolved,
		SpaceKey: spaceKey,
		ParentID: parentID,
		Body:     source.Body,
	})
	if err != nil {
		logger.Error().Err(err).
			Str("title", resolved).
			Str("space", spaceKey).
			Str("parent", parentID).
			Msg("Could not copy content")
		return nil, &NodeError{Kind: ErrCreationFailed, SourceID: source.ID, Title: resolved, Err: err}
	}
	logger.Info().Str("copy", created.ID).Str("title", resolved).Msgf("Copied %s", source.Type)
	if !created.IsSynthetic() {
		run.created[created.ID] = struct{}{}
	}

	result := &Result{Source: source, Node: created}

	if spec.CopyAttachments {
		c.copyAttachments(ctx, spec, run.scratch, result)
	}
	if spec.CopyComments {
		c.copyComments(ctx, result)
	}
	if spec.CopyLabels {
		c.copyLabels(ctx, result)
	}

	if c.OnNodeCopied != nil {
		c.OnNodeCopied(result)
	}

	if !spec.CopyChildren {
		return result, nil
	}

	children, err := c.repo.GetChildrenByType(ctx, source.ID, PageContent)
	if err != nil {
		logger.Error().Err(err).Msg("Could not list child pages")
		result.Failures = append(result.Failures, &NodeError{Kind: ErrListingFailed, SourceID: source.ID, Err: err})
		return result, nil
	}

	for _, child := range children {
		if err := ctx.Err(); err != nil {
			return result, errors.Errorf("deepcopy: copy interrupted: %w", err)
		}
		if _, ok := run.created[child.ID]; ok {
			logger.Debug().Str("child", child.ID).Str("title", child.Title).Msg("Skipping child made by this copy")
			continue
		}

		childResult, err := c.copyChild(ctx, run, child, created.ID, spaceKey)
		if childResult != nil {
			result.Children = append(result.Children, childResult)
		}
		if err != nil {
			if ctx.Err() != nil {
				return result, err
			}
			logger.Warn().Err(err).Str("child", child.ID).Str("title", child.Title).Msg("Child subtree not copied")
			result.Failures = append(result.Failures, err)
		}
	}
	return result, nil
}

// copyChild fetches the full child, body included, and copies it under its own title.
func (c *Copier) copyChild(ctx context.Context, run *copyRun, child ContentNode, parentID, spaceKey string) (*Result, error) {
	source, err := c.repo.GetContentByID(ctx, child.ID, ExpandBody)
	if err != nil {
		return nil, &NodeError{Kind: ErrSourceNotFound, SourceID: child.ID, Title: child.Title, Err: err}
	}
	if source.Title == "" {
		source.Title = child.Title
	}
	return c.copyNode(ctx, run, source, parentID, spaceKey, source.Title)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
