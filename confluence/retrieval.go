package confluence

import (
	"context"
	"net/url"
	"strconv"

	"gitlab.com/tozd/go/errors"
)

// pageSize is what we ask for per request when walking a listing.  Confluence Cloud caps most
// listings well below this anyway.
const pageSize = 100

func (api *API) ListAllSpaces(ctx context.Context, includePersonal bool) (map[string]Space, error) {
	spaces := map[string]Space{}

	query := SpacesQuery{
		Limit: 10,
	}

	if !includePersonal {
		// Logic here is a bit confusing.  The `type` parameter may be "global", "personal", or
		// nothing at all for both.  "global" will return spaces like DRE, CORE, etc., while
		// "personal" returns each user's space.  Leaving it empty gives us everything, so we only
		// set this if we _do not_ intend to include personal spaces in our query.
		query.Type = "global"
	}

	all, err := collect(ctx, func(ctx context.Context, start int) ([]Space, Links, error) {
		query.Start = start
		page, err := api.getSpaces(ctx, query)
		if err != nil {
			return nil, Links{}, err
		}
		return page.Results, page.Links, nil
	})
	if err != nil {
		return nil, errors.Errorf("confluence: couldn't list spaces: %w", err)
	}

	for _, space := range all {
		spaces[space.Key] = space
	}

	return spaces, nil
}

// AllContent runs a content search and follows it to the last page.
func (api *API) AllContent(ctx context.Context, query ContentQuery) ([]Content, error) {
	if query.Limit == 0 {
		query.Limit = pageSize
	}

	return collect(ctx, func(ctx context.Context, start int) ([]Content, Links, error) {
		query.Start = start
		page, err := api.GetContent(ctx, query)
		if err != nil {
			return nil, Links{}, err
		}
		return page.Results, page.Links, nil
	})
}

// AllChildren lists every direct child of one type, in the order Confluence returns them.
func (api *API) AllChildren(ctx context.Context, query ChildrenQuery) ([]Content, error) {
	if query.Limit == 0 {
		query.Limit = pageSize
	}

	return collect(ctx, func(ctx context.Context, start int) ([]Content, Links, error) {
		query.Start = start
		page, err := api.GetChildren(ctx, query)
		if err != nil {
			return nil, Links{}, err
		}
		return page.Results, page.Links, nil
	})
}

func (api *API) AllAttachments(ctx context.Context, query AttachmentsQuery) ([]Content, error) {
	if query.Limit == 0 {
		query.Limit = pageSize
	}

	return collect(ctx, func(ctx context.Context, start int) ([]Content, Links, error) {
		query.Start = start
		page, err := api.GetAttachments(ctx, query)
		if err != nil {
			return nil, Links{}, err
		}
		return page.Results, page.Links, nil
	})
}

func (api *API) AllLabels(ctx context.Context, query LabelsQuery) ([]Label, error) {
	if query.Limit == 0 {
		query.Limit = pageSize
	}

	return collect(ctx, func(ctx context.Context, start int) ([]Label, Links, error) {
		query.Start = start
		page, err := api.GetLabels(ctx, query)
		if err != nil {
			return nil, Links{}, err
		}
		return page.Results, page.Links, nil
	})
}

// collect keeps calling fetch with the offset advertised in _links.next until there is none.
func collect[T any](ctx context.Context, fetch func(ctx context.Context, start int) ([]T, Links, error)) ([]T, error) {
	all := []T{}
	start := 0

	for {
		results, links, err := fetch(ctx, start)
		if err != nil {
			return nil, err
		}
		all = append(all, results...)

		if links.Next == "" {
			return all, nil
		}

		next, err := nextStart(links.Next)
		if err != nil {
			return nil, err
		}
		if next <= start {
			return nil, errors.Errorf("confluence: pagination went backwards: %d after %d", next, start)
		}
		start = next
	}
}

func nextStart(next string) (int, error) {
	q, err := url.Parse(next)
	if err != nil {
		return 0, errors.Errorf("confluence: couldn't parse _links.next: %w", err)
	}

	start := q.Query().Get("start")
	if start == "" {
		return 0, errors.New("confluence: expected parameter 'start' was empty")
	}

	n, err := strconv.Atoi(start)
	if err != nil {
		return 0, errors.Errorf("confluence: parameter 'start' was not an int: %w", err)
	}

	return n, nil
}
