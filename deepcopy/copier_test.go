package deepcopy

import (
	"context"
	"fmt"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

const scratchRoot = "/scratch"

// sourceTree builds
//
//	SRC: 1 Root
//	       2 Child A
//	         4 Grandchild
//	       3 Child B
//	DST: 50 Home
func sourceTree(t *testing.T) (*fakeRepo, afero.Fs) {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(scratchRoot, 0o700))

	repo := newFakeRepo(fs)
	repo.page("1", "SRC", "Root", "")
	repo.page("2", "SRC", "Child A", "1")
	repo.page("3", "SRC", "Child B", "1")
	repo.page("4", "SRC", "Grandchild", "2")
	repo.page("50", "DST", "Home", "")
	repo.homepages["DST"] = "50"
	return repo, fs
}

func newTestCopier(repo *fakeRepo, fs afero.Fs, mode ExecutionMode) *Copier {
	c := NewCopier(repo, mode)
	c.Fs = fs
	c.ScratchRoot = scratchRoot
	return c
}

func shape(r *Result) []string {
	var out []string
	r.Walk(func(depth int, result *Result) {
		out = append(out, fmt.Sprintf("%d:%s", depth, result.Node.Title))
	})
	return out
}

func assertScratchEmpty(t *testing.T, fs afero.Fs) {
	t.Helper()
	entries, err := afero.ReadDir(fs, scratchRoot)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

var wholeTree = CopySpec{
	Source:       ContentRef{ID: "1"},
	CopyChildren: true,
}

func TestCopyTreeRealRun(t *testing.T) {
	t.Parallel()

	repo, fs := sourceTree(t)
	result, err := newTestCopier(repo, fs, RealRun).Copy(testContext(t), wholeTree, DestinationSpec{SpaceKey: "DST"})
	require.NoError(t, err)

	assert.Equal(t, []string{"0:Root", "1:Child A", "2:Grandchild", "1:Child B"}, shape(result))
	assert.Equal(t, 4, result.Count())
	assert.Empty(t, result.AllFailures())

	require.Len(t, repo.creates, 4)
	assert.Equal(t, "50", repo.creates[0].ParentID)
	assert.Equal(t, "DST", repo.creates[0].SpaceKey)

	root := result.Node
	childA := result.Children[0].Node
	assert.Equal(t, "50", root.AncestorID)
	assert.Equal(t, root.ID, childA.AncestorID)
	assert.Equal(t, childA.ID, result.Children[0].Children[0].Node.AncestorID)
	assert.Equal(t, root.ID, result.Children[1].Node.AncestorID)

	for _, created := range repo.creates {
		assert.Equal(t, "<p>"+created.Title+"</p>", created.Body)
	}
}

func TestCopyTreeDryRun(t *testing.T) {
	t.Parallel()

	repo, fs := sourceTree(t)
	before := len(repo.nodes)

	result, err := newTestCopier(repo, fs, DryRun).Copy(testContext(t), wholeTree, DestinationSpec{SpaceKey: "DST"})
	require.NoError(t, err)

	assert.Equal(t, []string{"0:Root", "1:Child A", "2:Grandchild", "1:Child B"}, shape(result))
	assert.Empty(t, repo.creates)
	assert.Len(t, repo.nodes, before)

	result.Walk(func(depth int, r *Result) {
		assert.True(t, r.Node.IsSynthetic())
		if depth > 0 {
			assert.Equal(t, SentinelID, r.Node.AncestorID)
		}
	})
	assert.Equal(t, "50", result.Node.AncestorID)
}

func TestDryRunIsIdempotent(t *testing.T) {
	t.Parallel()

	repo, fs := sourceTree(t)
	repo.comments["1"] = []CommentRef{{ID: "c1", Title: "Re: Root", Body: "<p>hi</p>"}}
	repo.labels["2"] = []LabelRef{{Prefix: "global", Name: "draft"}}
	repo.attach("1", "a1", "notes.txt", "hello")

	spec := wholeTree
	spec.CopyAttachments = true
	spec.CopyComments = true
	spec.CopyLabels = true

	c := newTestCopier(repo, fs, DryRun)
	first, err := c.Copy(testContext(t), spec, DestinationSpec{SpaceKey: "DST"})
	require.NoError(t, err)
	second, err := c.Copy(testContext(t), spec, DestinationSpec{SpaceKey: "DST"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Empty(t, repo.creates)
	assert.Empty(t, repo.downloads)
	assert.Empty(t, repo.uploads)
	assert.Empty(t, repo.added)
	assertScratchEmpty(t, fs)
}

func TestCopyBodyUnchanged(t *testing.T) {
	t.Parallel()

	body := `<ac:structured-macro ac:name="code"><ac:plain-text-body><![CDATA[if a < b && c > "d" {}]]></ac:plain-text-body></ac:structured-macro>` +
		"\n<p>ünïcødé &amp; entities&nbsp;</p>  "

	repo, fs := sourceTree(t)
	root := repo.nodes["1"]
	root.Body = body
	repo.nodes["1"] = root

	result, err := newTestCopier(repo, fs, RealRun).Copy(testContext(t), CopySpec{Source: ContentRef{ID: "1"}}, DestinationSpec{SpaceKey: "DST"})
	require.NoError(t, err)
	require.Len(t, repo.creates, 1)
	assert.Equal(t, body, repo.creates[0].Body)
	assert.Equal(t, body, repo.nodes[result.Node.ID].Body)
}

func TestCopySourceBySpaceAndTitle(t *testing.T) {
	t.Parallel()

	repo, fs := sourceTree(t)
	result, err := newTestCopier(repo, fs, RealRun).Copy(testContext(t), CopySpec{
		Source: ContentRef{SpaceKey: "SRC", Title: "Child B"},
	}, DestinationSpec{SpaceKey: "DST", Title: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "3", result.Source.ID)
	assert.Equal(t, "Renamed", result.Node.Title)
}

func TestCopySourceNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source ContentRef
	}{
		{"by id", ContentRef{ID: "999"}},
		{"by title", ContentRef{SpaceKey: "SRC", Title: "Nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo, fs := sourceTree(t)
			result, err := newTestCopier(repo, fs, RealRun).Copy(testContext(t), CopySpec{Source: tt.source}, DestinationSpec{SpaceKey: "DST"})
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, ErrSourceNotFound))
			assert.True(t, errors.Is(err, ErrNotFound))
			assert.Empty(t, repo.creates)
		})
	}
}

func TestCopyDestinations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		source     string
		dest       DestinationSpec
		rename     bool
		wantParent string
		wantSpace  string
		wantTitle  string
	}{
		{"parent id", "1", DestinationSpec{Parent: ContentRef{ID: "50"}}, false, "50", "DST", "Root"},
		{"parent title", "1", DestinationSpec{Parent: ContentRef{SpaceKey: "DST", Title: "Home"}}, false, "50", "DST", "Root"},
		{"space homepage", "1", DestinationSpec{SpaceKey: "DST", Title: "Copy"}, false, "50", "DST", "Copy"},
		{"next to source", "2", DestinationSpec{}, true, "1", "SRC", "Child A 0"},
		{"top level source", "1", DestinationSpec{Title: "Root copy"}, false, "", "SRC", "Root copy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo, fs := sourceTree(t)
			spec := CopySpec{Source: ContentRef{ID: tt.source}, RenameOnConflict: tt.rename, RenameLimit: DefaultRenameLimit}
			result, err := newTestCopier(repo, fs, RealRun).Copy(testContext(t), spec, tt.dest)
			require.NoError(t, err)

			require.Len(t, repo.creates, 1)
			assert.Equal(t, tt.wantParent, repo.creates[0].ParentID)
			assert.Equal(t, tt.wantSpace, repo.creates[0].SpaceKey)
			assert.Equal(t, tt.wantTitle, result.Node.Title)
		})
	}
}

func TestCopyDestinationMissing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		dest DestinationSpec
	}{
		{"parent id", DestinationSpec{Parent: ContentRef{ID: "999"}}},
		{"parent title", DestinationSpec{Parent: ContentRef{SpaceKey: "DST", Title: "Nope"}}},
		{"space", DestinationSpec{SpaceKey: "NOPE"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo, fs := sourceTree(t)
			_, err := newTestCopier(repo, fs, RealRun).Copy(testContext(t), wholeTree, tt.dest)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParentNotFound))
			assert.Empty(t, repo.creates)
		})
	}
}

func TestCopyRootTitleConflict(t *testing.T) {
	t.Parallel()

	repo, fs := sourceTree(t)
	repo.page("", "DST", "Root", "50")

	_, err := newTestCopier(repo, fs, RealRun).Copy(testContext(t), wholeTree, DestinationSpec{SpaceKey: "DST"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTitleUnresolvable))
	assert.True(t, errors.Is(err, ErrTitleConflict))
	assert.Empty(t, repo.creates)

	spec := wholeTree
	spec.RenameOnConflict = true
	spec.RenameLimit = 5
	result, err := newTestCopier(repo, fs, RealRun).Copy(testContext(t), spec, DestinationSpec{SpaceKey: "DST"})
	require.NoError(t, err)
	assert.Equal(t, []string{"0:Root 0", "1:Child A", "2:Grandchild", "1:Child B"}, shape(result))
}

func TestCopyChildFailureContinuesWithSiblings(t *testing.T) {
	t.Parallel()

	repo, fs := sourceTree(t)
	boom := errors.New("boom")
	repo.failCreate["Child A"] = boom

	result, err := newTestCopier(repo, fs, RealRun).Copy(testContext(t), wholeTree, DestinationSpec{SpaceKey: "DST"})
	require.NoError(t, err)

	assert.Equal(t, []string{"0:Root", "1:Child B"}, shape(result))
	require.Len(t, result.Failures, 1)
	assert.True(t, errors.Is(result.Failures[0], ErrCreationFailed))
	assert.True(t, errors.Is(result.Failures[0], boom))

	var nodeErr *NodeError
	require.True(t, errors.As(result.Failures[0], &nodeErr))
	assert.Equal(t, "2", nodeErr.SourceID)

	for _, created := range repo.creates {
		assert.NotEqual(t, "Grandchild", created.Title)
	}
}

func TestCopyChildTitleConflictSkipsSubtree(t *testing.T) {
	t.Parallel()

	repo, fs := sourceTree(t)
	repo.page("", "DST", "Child B", "")

	result, err := newTestCopier(repo, fs, RealRun).Copy(testContext(t), wholeTree, DestinationSpec{SpaceKey: "DST"})
	require.NoError(t, err)
	assert.Equal(t, []string{"0:Root", "1:Child A", "2:Grandchild"}, shape(result))
	require.Len(t, result.AllFailures(), 1)
	assert.True(t, errors.Is(result.AllFailures()[0], ErrTitleUnresolvable))
}

func TestCopyChildListingFailure(t *testing.T) {
	t.Parallel()

	repo, fs := sourceTree(t)
	repo.failChildren["2"] = errors.New("listing down")

	result, err := newTestCopier(repo, fs, RealRun).Copy(testContext(t), wholeTree, DestinationSpec{SpaceKey: "DST"})
	require.NoError(t, err)
	assert.Equal(t, []string{"0:Root", "1:Child A", "1:Child B"}, shape(result))
	require.Len(t, result.Children[0].Failures, 1)
	assert.True(t, errors.Is(result.Children[0].Failures[0], ErrListingFailed))
}

func TestCopyChildGoneMissing(t *testing.T) {
	t.Parallel()

	repo, fs := sourceTree(t)
	repo.failGetByID["3"] = errors.Errorf("gone: %w", ErrNotFound)

	result, err := newTestCopier(repo, fs, RealRun).Copy(testContext(t), wholeTree, DestinationSpec{SpaceKey: "DST"})
	require.NoError(t, err)
	assert.Equal(t, []string{"0:Root", "1:Child A", "2:Grandchild"}, shape(result))
	require.Len(t, result.Failures, 1)
	assert.True(t, errors.Is(result.Failures[0], ErrSourceNotFound))
}

func TestCopyCommentFailureIsolated(t *testing.T) {
	t.Parallel()

	repo, fs := sourceTree(t)
	boom := errors.New("comments unavailable")
	repo.failComments["1"] = boom
	repo.comments["2"] = []CommentRef{{ID: "c2", Title: "Re: Child A", Body: "<p>nice</p>"}}

	spec := wholeTree
	spec.CopyComments = true
	result, err := newTestCopier(repo, fs, RealRun).Copy(testContext(t), spec, DestinationSpec{SpaceKey: "DST"})
	require.NoError(t, err)

	assert.Equal(t, []string{"0:Root", "1:Child A", "2:Grandchild", "1:Child B"}, shape(result))
	require.Len(t, result.Failures, 1)
	assert.True(t, errors.Is(result.Failures[0], ErrArtifactCopyFailed))
	assert.True(t, errors.Is(result.Failures[0], boom))

	childA := result.Children[0]
	require.Len(t, childA.Comments, 1)
	assert.Equal(t, CommentContent, childA.Comments[0].Type)
	assert.Equal(t, childA.Node.ID, childA.Comments[0].AncestorID)
	assert.Equal(t, "<p>nice</p>", childA.Comments[0].Body)
}

func TestCopyComments(t *testing.T) {
	t.Parallel()

	repo, fs := sourceTree(t)
	repo.comments["1"] = []CommentRef{
		{ID: "c1", Title: "Re: Root", Body: "<p>one</p>"},
		{ID: "c2", Title: "Re: Root", Body: "<p>two</p>"},
	}

	spec := CopySpec{Source: ContentRef{ID: "1"}, CopyComments: true}

	dry, err := newTestCopier(repo, fs, DryRun).Copy(testContext(t), spec, DestinationSpec{SpaceKey: "DST"})
	require.NoError(t, err)
	require.Len(t, dry.Comments, 2)
	for _, c := range dry.Comments {
		assert.True(t, c.IsSynthetic())
		assert.Equal(t, SentinelID, c.AncestorID)
	}
	assert.Empty(t, repo.creates)

	live, err := newTestCopier(repo, fs, RealRun).Copy(testContext(t), spec, DestinationSpec{SpaceKey: "DST"})
	require.NoError(t, err)
	require.Len(t, live.Comments, 2)
	require.Len(t, repo.creates, 3)
	assert.Equal(t, CommentContent, repo.creates[1].Type)
	assert.Equal(t, live.Node.ID, repo.creates[1].ContainerID)
	assert.Equal(t, PageContent, repo.creates[1].ContainerType)
	assert.Equal(t, "<p>one</p>", repo.creates[1].Body)
	assert.Equal(t, "<p>two</p>", repo.creates[2].Body)
}

func TestCopyLabels(t *testing.T) {
	t.Parallel()

	repo, fs := sourceTree(t)
	labels := []LabelRef{{Prefix: "global", Name: "runbook"}, {Prefix: "my", Name: "todo"}}
	repo.labels["1"] = labels
	spec := CopySpec{Source: ContentRef{ID: "1"}, CopyLabels: true}

	dry, err := newTestCopier(repo, fs, DryRun).Copy(testContext(t), spec, DestinationSpec{SpaceKey: "DST"})
	require.NoError(t, err)
	assert.Equal(t, labels, dry.Labels)
	assert.Empty(t, repo.added)

	live, err := newTestCopier(repo, fs, RealRun).Copy(testContext(t), spec, DestinationSpec{SpaceKey: "DST"})
	require.NoError(t, err)
	assert.Equal(t, labels, live.Labels)
	assert.Equal(t, labels, repo.added[live.Node.ID])
}

func TestCopyLabelFailure(t *testing.T) {
	t.Parallel()

	repo, fs := sourceTree(t)
	repo.labels["1"] = []LabelRef{{Prefix: "global", Name: "runbook"}}
	repo.failLabels = errors.New("labels down")

	result, err := newTestCopier(repo, fs, RealRun).Copy(testContext(t), CopySpec{Source: ContentRef{ID: "1"}, CopyLabels: true}, DestinationSpec{SpaceKey: "DST"})
	require.NoError(t, err)
	assert.Empty(t, result.Labels)
	require.Len(t, result.Failures, 1)

	var artifactErr *ArtifactError
	require.True(t, errors.As(result.Failures[0], &artifactErr))
	assert.Equal(t, "label", artifactErr.Artifact)
}

func TestCopyAttachments(t *testing.T) {
	t.Parallel()

	repo, fs := sourceTree(t)
	repo.attach("1", "a1", "notes.txt", "hello")
	repo.attach("1", "a2", "diagram.png", "png bytes")
	repo.attach("2", "a3", "child.txt", "child data")

	spec := wholeTree
	spec.CopyAttachments = true
	result, err := newTestCopier(repo, fs, RealRun).Copy(testContext(t), spec, DestinationSpec{SpaceKey: "DST"})
	require.NoError(t, err)
	assert.Empty(t, result.AllFailures())

	require.Len(t, result.Attachments, 2)
	assert.Equal(t, "notes.txt", result.Attachments[0].Title)
	assert.Equal(t, "diagram.png", result.Attachments[1].Title)
	assert.Equal(t, "hello", repo.blobs[result.Attachments[0].ID])
	assert.Equal(t, "png bytes", repo.blobs[result.Attachments[1].ID])
	require.Len(t, result.Children[0].Attachments, 1)
	assert.Equal(t, "child data", repo.blobs[result.Children[0].Attachments[0].ID])

	assert.Len(t, repo.uploads, 3)
	assert.Empty(t, repo.replaced)
	assertScratchEmpty(t, fs)
}

func TestCopyAttachmentsDryRun(t *testing.T) {
	t.Parallel()

	repo, fs := sourceTree(t)
	repo.attach("1", "a1", "notes.txt", "hello")
	repo.attachments[SentinelID] = []AttachmentRef{{ID: "x", Title: "notes.txt"}}

	result, err := newTestCopier(repo, fs, DryRun).Copy(testContext(t), CopySpec{Source: ContentRef{ID: "1"}, CopyAttachments: true}, DestinationSpec{SpaceKey: "DST"})
	require.NoError(t, err)

	require.Len(t, result.Attachments, 1)
	assert.Equal(t, SentinelID, result.Attachments[0].ID)
	assert.Equal(t, "notes.txt", result.Attachments[0].Title)
	assert.Empty(t, repo.downloads)
	assert.Empty(t, repo.uploads)
	assertScratchEmpty(t, fs)
}

func TestCopyAttachmentsExisting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		skip        bool
		wantUploads int
		wantReplace []string
	}{
		{"update", false, 1, []string{"900"}},
		{"skip", true, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo, fs := sourceTree(t)
			repo.attach("1", "a1", "notes.txt", "hello")
			// The copy of the root is going to be content 100.
			repo.attachments["100"] = []AttachmentRef{{ID: "900", Title: "notes.txt"}}

			spec := CopySpec{Source: ContentRef{ID: "1"}, CopyAttachments: true, SkipExistingAttachments: tt.skip}
			result, err := newTestCopier(repo, fs, RealRun).Copy(testContext(t), spec, DestinationSpec{SpaceKey: "DST"})
			require.NoError(t, err)
			require.Equal(t, "100", result.Node.ID)

			assert.Len(t, repo.uploads, tt.wantUploads)
			assert.Equal(t, tt.wantReplace, repo.replaced)
			assert.Empty(t, result.Failures)
		})
	}
}

func TestCopyAttachmentsExcluded(t *testing.T) {
	t.Parallel()

	repo, fs := sourceTree(t)
	repo.attach("1", "a1", "notes.txt", "hello")
	repo.attach("1", "a2", "debug.log", "noise")
	repo.attach("1", "a3", "export/big.zip", "zip")

	spec := CopySpec{
		Source:             ContentRef{ID: "1"},
		CopyAttachments:    true,
		ExcludeAttachments: []string{"*.log", "export/**"},
	}
	result, err := newTestCopier(repo, fs, RealRun).Copy(testContext(t), spec, DestinationSpec{SpaceKey: "DST"})
	require.NoError(t, err)
	require.Len(t, result.Attachments, 1)
	assert.Equal(t, "notes.txt", result.Attachments[0].Title)
	assert.Equal(t, []string{"a1"}, repo.downloads)
}

func TestCopyAttachmentFailuresCleanUp(t *testing.T) {
	t.Parallel()

	repo, fs := sourceTree(t)
	repo.attach("1", "a1", "partial.bin", "never arrives")
	repo.attach("1", "a2", "rejected.txt", "too big")
	repo.attach("1", "a3", "fine.txt", "ok")
	repo.failDownload["partial.bin"] = errors.New("connection reset")
	repo.failUpload["rejected.txt"] = errors.New("413")

	result, err := newTestCopier(repo, fs, RealRun).Copy(testContext(t), CopySpec{Source: ContentRef{ID: "1"}, CopyAttachments: true}, DestinationSpec{SpaceKey: "DST"})
	require.NoError(t, err)

	require.Len(t, result.Attachments, 1)
	assert.Equal(t, "fine.txt", result.Attachments[0].Title)
	require.Len(t, result.Failures, 2)
	for _, failure := range result.Failures {
		assert.True(t, errors.Is(failure, ErrArtifactCopyFailed))
	}
	assertScratchEmpty(t, fs)
}

func TestCopyReportsEachNode(t *testing.T) {
	t.Parallel()

	repo, fs := sourceTree(t)
	c := newTestCopier(repo, fs, DryRun)

	var seen []string
	c.OnNodeCopied = func(r *Result) {
		seen = append(seen, r.Source.ID)
	}
	_, err := c.Copy(testContext(t), wholeTree, DestinationSpec{SpaceKey: "DST"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "4", "3"}, seen)
}

func TestCopyInterrupted(t *testing.T) {
	t.Parallel()

	repo, fs := sourceTree(t)
	ctx, cancel := context.WithCancel(testContext(t))
	defer cancel()
	repo.cancelOnProbe = cancel

	result, err := newTestCopier(repo, fs, RealRun).Copy(ctx, wholeTree, DestinationSpec{SpaceKey: "DST"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, result)
	assert.Equal(t, []string{"0:Root"}, shape(result))
}

func TestCopyRejectsBadOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		spec CopySpec
		dest DestinationSpec
		want error
	}{
		{"no source", CopySpec{}, DestinationSpec{}, ErrInvalidRef},
		{"title without space", CopySpec{Source: ContentRef{Title: "Root"}}, DestinationSpec{}, ErrInvalidRef},
		{"overwrite", CopySpec{Source: ContentRef{ID: "1"}, OverwriteOnConflict: true}, DestinationSpec{}, ErrOverwriteUnsupported},
		{"rename limit", CopySpec{Source: ContentRef{ID: "1"}, RenameOnConflict: true}, DestinationSpec{}, ErrInvalidOptions},
		{"bad pattern", CopySpec{Source: ContentRef{ID: "1"}, ExcludeAttachments: []string{"[a-"}}, DestinationSpec{}, ErrInvalidOptions},
		{"bad parent", CopySpec{Source: ContentRef{ID: "1"}}, DestinationSpec{Parent: ContentRef{Title: "Home"}}, ErrInvalidRef},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo, fs := sourceTree(t)
			_, err := newTestCopier(repo, fs, RealRun).Copy(testContext(t), tt.spec, tt.dest)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Empty(t, repo.creates)
			assert.Empty(t, repo.probes)
		})
	}
}

func TestCopyIntoOwnSubtree(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		parent string
	}{
		{"under the source", "1"},
		{"under a child of the source", "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo, fs := sourceTree(t)
			spec := wholeTree
			spec.RenameOnConflict = true
			spec.RenameLimit = 5

			result, err := newTestCopier(repo, fs, RealRun).Copy(testContext(t), spec, DestinationSpec{Parent: ContentRef{ID: tt.parent}})
			require.NoError(t, err)

			require.Len(t, repo.creates, 4)
			assert.Equal(t, tt.parent, repo.creates[0].ParentID)
			assert.Equal(t, []string{"0:Root 0", "1:Child A 0", "2:Grandchild 0", "1:Child B 0"}, shape(result))
			assert.Empty(t, result.AllFailures())
		})
	}
}

func TestCopyTreeShapeWithAttachments(t *testing.T) {
	t.Parallel()

	for _, mode := range []ExecutionMode{DryRun, RealRun} {
		t.Run(mode.String(), func(t *testing.T) {
			t.Parallel()

			fs := afero.NewMemMapFs()
			require.NoError(t, fs.MkdirAll(scratchRoot, 0o700))
			repo := newFakeRepo(fs)
			repo.page("1", "SRC", "Root", "")
			repo.page("2", "SRC", "Child A", "1")
			repo.page("3", "SRC", "Child B", "1")
			repo.page("50", "DST", "Home", "")
			repo.homepages["DST"] = "50"
			repo.attach("2", "a2", "a.txt", "aaa")
			repo.attach("3", "a3", "b.txt", "bbb")

			spec := wholeTree
			spec.CopyAttachments = true
			result, err := newTestCopier(repo, fs, mode).Copy(testContext(t), spec, DestinationSpec{SpaceKey: "DST"})
			require.NoError(t, err)

			assert.Equal(t, []string{"0:Root", "1:Child A", "1:Child B"}, shape(result))
			assert.Empty(t, result.AllFailures())
			assert.Empty(t, result.Attachments)
			require.Len(t, result.Children, 2)
			for i, want := range []string{"a.txt", "b.txt"} {
				child := result.Children[i]
				require.Len(t, child.Attachments, 1)
				assert.Equal(t, want, child.Attachments[0].Title)
				assert.Equal(t, mode == DryRun, child.Attachments[0].ID == SentinelID)
			}

			if mode == DryRun {
				assert.Empty(t, repo.downloads)
				assert.Empty(t, repo.uploads)
			} else {
				assert.Len(t, repo.uploads, 2)
				assert.Equal(t, "aaa", repo.blobs[result.Children[0].Attachments[0].ID])
				assert.Equal(t, "bbb", repo.blobs[result.Children[1].Attachments[0].ID])
			}
			assertScratchEmpty(t, fs)
		})
	}
}

func TestCopyBlogCommentsKeepContainerType(t *testing.T) {
	t.Parallel()

	repo, fs := sourceTree(t)
	repo.add(ContentNode{ID: "7", Type: BlogContent, Title: "News", SpaceKey: "SRC", Body: "<p>news</p>"})
	repo.comments["7"] = []CommentRef{{ID: "c1", Title: "Re: News", Body: "<p>nice</p>"}}

	result, err := newTestCopier(repo, fs, RealRun).Copy(testContext(t), CopySpec{Source: ContentRef{ID: "7"}, CopyComments: true}, DestinationSpec{SpaceKey: "DST"})
	require.NoError(t, err)
	require.Len(t, result.Comments, 1)

	require.Len(t, repo.creates, 2)
	assert.Equal(t, BlogContent, repo.creates[0].Type)
	assert.Equal(t, CommentContent, repo.creates[1].Type)
	assert.Equal(t, BlogContent, repo.creates[1].ContainerType)
}
