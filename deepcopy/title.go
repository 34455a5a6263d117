package deepcopy

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// TitleResolver picks a title that is free in a destination space.
type TitleResolver struct {
	repo Repository
}

func NewTitleResolver(repo Repository) *TitleResolver {
	return &TitleResolver{repo: repo}
}

// Resolve returns desired when it is free.  Otherwise, with RenameOnConflict, it tries
// "<desired> 0", "<desired> 1", ... up to RenameLimit candidates and returns the first free one.
// A probe that errors is never taken to mean the title is free.
func (r *TitleResolver) Resolve(ctx context.Context, spaceKey, desired string, policy TitlePolicy) (string, error) {
	taken, err := r.taken(ctx, spaceKey, desired)
	if err != nil {
		return "", err
	}
	if !taken {
		return desired, nil
	}
	if !policy.RenameOnConflict {
		return "", errors.Errorf("deepcopy: %q in %s: %w", desired, spaceKey, ErrTitleConflict)
	}

	for i := 0; i < policy.RenameLimit; i++ {
		candidate := fmt.Sprintf("%s %d", desired, i)
		taken, err := r.taken(ctx, spaceKey, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			zerolog.Ctx(ctx).Debug().
				Str("space", spaceKey).
				Str("wanted", desired).
				Str("title", candidate).
				Msg("Renamed to avoid title conflict")
			return candidate, nil
		}
	}
	return "", errors.Errorf("deepcopy: no free title for %q in %s after %d tries: %w", desired, spaceKey, policy.RenameLimit, ErrRenameLimitExceeded)
}

func (r *TitleResolver) taken(ctx context.Context, spaceKey, title string) (bool, error) {
	nodes, err := r.repo.GetContentByFilter(ctx, ContentFilter{
		SpaceKey: spaceKey,
		Title:    title,
		Type:     PageContent,
	})
	if err != nil {
		return false, &ProbeError{SpaceKey: spaceKey, Title: title, Err: err}
	}
	return len(nodes) > 0, nil
}
