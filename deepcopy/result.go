package deepcopy

import (
	"context"

	"github.com/rs/zerolog"
)

// Result is what became of one copied node and, through Children, of its subtree.
type Result struct {
	Source ContentNode
	Node   ContentNode

	Attachments []AttachmentRef
	Comments    []ContentNode
	Labels      []LabelRef

	Children []*Result

	// Failures holds the artifact copies that failed on this node and the child subtrees that
	// could not be copied at all.
	Failures []error
}

func (r *Result) fail(ctx context.Context, err error) {
	zerolog.Ctx(ctx).Warn().Err(err).Str("source", r.Source.ID).Msg("Could not copy artifact")
	r.Failures = append(r.Failures, err)
}

// Walk calls fn for r and every result below it, depth-first, parents before children.
func (r *Result) Walk(fn func(depth int, result *Result)) {
	r.walk(0, fn)
}

func (r *Result) walk(depth int, fn func(int, *Result)) {
	fn(depth, r)
	for _, child := range r.Children {
		child.walk(depth+1, fn)
	}
}

// Count is the number of nodes created (or, in a dry run, that would have been).
func (r *Result) Count() int {
	n := 0
	r.Walk(func(int, *Result) { n++ })
	return n
}

func (r *Result) AllFailures() []error {
	var all []error
	r.Walk(func(_ int, result *Result) {
		all = append(all, result.Failures...)
	})
	return all
}
