/*
Copyright © 2024 paul <paul@denknerd.org>
*/

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"gitlab.com/tozd/go/errors"

	"github.com/toothbrush/confluence-copy/confluence"
	"github.com/toothbrush/confluence-copy/deepcopy"
	"github.com/toothbrush/confluence-copy/remote"
)

var copyUsage = strings.TrimSpace(`
Copy a page to a new parent, optionally with everything below it.  The source is given by ID, or
by space and title.  The destination is the parent given by ID, or by space and title; failing
that the homepage of --dst-space; failing that, right next to the source.

Nothing is changed unless you pass --dry-run=false.
`)

type copyOptions struct {
	Source      sourceFlags
	DstParentID string
	DstParent   string
	DstSpace    string
	DstTitle    string

	DryRun            bool
	Subpages          bool
	Attachments       bool
	Comments          bool
	Labels            bool
	Rename            bool
	MaxRename         int
	UpdateAttachments bool
	Overwrite         bool

	ExcludeAttachments []string
	ScratchDir         string
	Progress           bool
}

// sourceFlags points at existing content, shared by copy and show.
type sourceFlags struct {
	ID    string
	Space string
	Title string
	Type  string
}

func (s sourceFlags) ref() (deepcopy.ContentRef, error) {
	contentType, err := deepcopy.ParseContentType(s.Type)
	if err != nil {
		return deepcopy.ContentRef{}, err
	}
	ref := deepcopy.ContentRef{ID: s.ID, SpaceKey: s.Space, Title: s.Title, ContentType: contentType}
	if err := ref.Validate(); err != nil {
		return deepcopy.ContentRef{}, errors.Errorf("confluence-copy: give --src-id, or --src-space and --src-title: %w", err)
	}
	return ref, nil
}

func addSourceFlags(cmd *cobra.Command, s *sourceFlags) {
	cmd.Flags().StringVar(&s.ID, "src-id", "", "content ID of the source; wins over --src-space and --src-title")
	cmd.Flags().StringVar(&s.Space, "src-space", "", "space key of the source")
	cmd.Flags().StringVar(&s.Title, "src-title", "", "title of the source")
	cmd.Flags().StringVar(&s.Type, "src-type", "page", "type of the source: page or blogpost")
}

var copyOpts = copyOptions{}

var copyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Deep-copy a page",
	Long:  copyUsage,
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// fail on bad options before asking for a token.
		_, _, mode, err := copyOpts.specs()
		if err != nil {
			return err
		}
		if err := checkRecording(WithVCR, mode); err != nil {
			return err
		}

		conn, err := connectionFromFlags()
		if err != nil {
			return err
		}
		api, done, err := connect(ctx, conn)
		if err != nil {
			return err
		}
		defer done()

		return runCopy(ctx, api, copyOpts, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(copyCmd)

	addSourceFlags(copyCmd, &copyOpts.Source)
	copyCmd.Flags().StringVar(&copyOpts.DstParentID, "dst-parent-id", "", "content ID of the new parent; wins over the other --dst flags")
	copyCmd.Flags().StringVar(&copyOpts.DstParent, "dst-parent", "", "title of the new parent, in --dst-space")
	copyCmd.Flags().StringVar(&copyOpts.DstSpace, "dst-space", "", "space key to copy into")
	copyCmd.Flags().StringVar(&copyOpts.DstTitle, "dst-title", "", "title for the copy of the top page (default: the source's title)")

	copyCmd.Flags().BoolVar(&copyOpts.DryRun, "dry-run", true, "only log what would be done")
	copyCmd.Flags().BoolVar(&copyOpts.Subpages, "subpages", false, "copy sub pages of the source page, recursively")
	copyCmd.Flags().BoolVar(&copyOpts.Attachments, "attachments", false, "copy attachments of all copied pages")
	copyCmd.Flags().BoolVar(&copyOpts.Comments, "comments", false, "copy comments of all copied pages")
	copyCmd.Flags().BoolVar(&copyOpts.Labels, "labels", false, "copy labels of all copied pages")
	copyCmd.Flags().BoolVar(&copyOpts.Rename, "rename", false, "rename copies whose title is already taken in the destination space")
	copyCmd.Flags().IntVar(&copyOpts.MaxRename, "max-rename", deepcopy.DefaultRenameLimit, "number of numbered titles to try with --rename")
	copyCmd.Flags().BoolVar(&copyOpts.UpdateAttachments, "update-attachments", true, "upload a new version of attachments that already exist on the copy; skip them otherwise")
	copyCmd.Flags().BoolVar(&copyOpts.Overwrite, "overwrite", false, "NOT YET SUPPORTED - overwrite existing pages on title conflicts")
	copyCmd.Flags().StringSliceVar(&copyOpts.ExcludeAttachments, "exclude-attachments", []string{}, "glob patterns (doublestar syntax) of attachment titles not to copy")
	copyCmd.Flags().StringVar(&copyOpts.ScratchDir, "scratch-dir", "", "where attachments are downloaded to in transit (default: system temp dir)")
	copyCmd.Flags().BoolVar(&copyOpts.Progress, "progress", false, "show a progress bar instead of per-page log lines")
}

func (o copyOptions) specs() (deepcopy.CopySpec, deepcopy.DestinationSpec, deepcopy.ExecutionMode, error) {
	source, err := o.Source.ref()
	if err != nil {
		return deepcopy.CopySpec{}, deepcopy.DestinationSpec{}, deepcopy.DryRun, err
	}

	spec := deepcopy.CopySpec{
		Source:                  source,
		CopyChildren:            o.Subpages,
		CopyAttachments:         o.Attachments,
		CopyComments:            o.Comments,
		CopyLabels:              o.Labels,
		RenameOnConflict:        o.Rename,
		RenameLimit:             o.MaxRename,
		OverwriteOnConflict:     o.Overwrite,
		SkipExistingAttachments: !o.UpdateAttachments,
		ExcludeAttachments:      o.ExcludeAttachments,
	}
	if err := spec.Validate(); err != nil {
		return deepcopy.CopySpec{}, deepcopy.DestinationSpec{}, deepcopy.DryRun, err
	}

	dest := deepcopy.DestinationSpec{
		SpaceKey: o.DstSpace,
		Title:    o.DstTitle,
	}
	switch {
	case o.DstParentID != "":
		dest.Parent = deepcopy.ContentRef{ID: o.DstParentID}
	case o.DstParent != "":
		if o.DstSpace == "" {
			return deepcopy.CopySpec{}, deepcopy.DestinationSpec{}, deepcopy.DryRun, errors.New("confluence-copy: --dst-parent needs --dst-space")
		}
		dest.Parent = deepcopy.ContentRef{SpaceKey: o.DstSpace, Title: o.DstParent}
	}
	if err := dest.Validate(); err != nil {
		return deepcopy.CopySpec{}, deepcopy.DestinationSpec{}, deepcopy.DryRun, err
	}

	mode := deepcopy.RealRun
	if o.DryRun {
		mode = deepcopy.DryRun
	}
	return spec, dest, mode, nil
}

func runCopy(ctx context.Context, api *confluence.API, opts copyOptions, out io.Writer) error {
	spec, dest, mode, err := opts.specs()
	if err != nil {
		return err
	}

	scratchDir := opts.ScratchDir
	if scratchDir != "" {
		if scratchDir, err = homedir.Expand(scratchDir); err != nil {
			return errors.Errorf("confluence-copy: unable to expand scratch dir: %w", err)
		}
	}

	fs := afero.NewOsFs()
	copier := deepcopy.NewCopier(remote.New(api, fs), mode)
	copier.Fs = fs
	copier.ScratchRoot = scratchDir

	if mode == deepcopy.DryRun {
		color.New(color.FgYellow, color.Bold).Fprintln(os.Stderr, "DRY RUN: nothing will be changed, pass --dry-run=false to copy for real")
	}

	var progress *mpb.Progress
	if opts.Progress {
		// log lines would tear up the bar.
		logger := zerolog.Ctx(ctx).Level(zerolog.WarnLevel)
		ctx = logger.WithContext(ctx)

		progress = mpb.NewWithContext(ctx, mpb.WithWidth(64), mpb.WithOutput(os.Stderr))
		bar := progress.AddBar(0,
			mpb.PrependDecorators(
				decor.Name("copy:", decor.WC{C: decor.DindentRight | decor.DextraSpace}),
			),
			mpb.AppendDecorators(
				decor.CurrentNoUnit("%d pages "),
				decor.Spinner([]string{" /", " -", " \\", " |"}),
			),
		)
		copier.OnNodeCopied = func(*deepcopy.Result) {
			bar.Increment()
		}
		defer func() {
			bar.SetTotal(-1, true)
			progress.Wait()
		}()
	}

	result, err := copier.Copy(ctx, spec, dest)
	if result != nil {
		printResult(out, result)
	}
	if err != nil {
		return errors.Errorf("confluence-copy: copy failed: %w", err)
	}

	if failures := result.AllFailures(); len(failures) > 0 {
		return errors.Errorf("confluence-copy: %d item(s) could not be copied, see above", len(failures))
	}
	return nil
}

// printResult draws the copied tree, one line per page, with failures underneath.
func printResult(out io.Writer, result *deepcopy.Result) {
	ok := color.New(color.FgGreen).SprintFunc()
	simulated := color.New(color.FgYellow).SprintFunc()
	failed := color.New(color.FgRed).SprintFunc()

	result.Walk(func(depth int, r *deepcopy.Result) {
		indent := strings.Repeat("  ", depth)

		mark, id := ok("✓"), r.Node.ID
		if r.Node.IsSynthetic() {
			mark, id = simulated("~"), "(dry run)"
		}
		fmt.Fprintf(out, "%s%s %s -> %s %s", indent, mark, r.Source.ID, id, r.Node.Title)
		if n := len(r.Attachments); n > 0 {
			fmt.Fprintf(out, " [%d attachments]", n)
		}
		if n := len(r.Comments); n > 0 {
			fmt.Fprintf(out, " [%d comments]", n)
		}
		if n := len(r.Labels); n > 0 {
			fmt.Fprintf(out, " [%d labels]", n)
		}
		fmt.Fprintln(out)

		for _, failure := range r.Failures {
			fmt.Fprintf(out, "%s  %s %v\n", indent, failed("✗"), failure)
		}
	})
}
