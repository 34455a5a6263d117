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

	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/toothbrush/confluence-copy/confluence"
	"github.com/toothbrush/confluence-copy/deepcopy"
	"github.com/toothbrush/confluence-copy/preview"
)

var showUsage = strings.TrimSpace(`
Make sure you've got the right page before copying it: print it as Markdown, with a YAML header
saying where it lives.  With --output, the Markdown is written below that directory instead.
`)

var (
	showSource sourceFlags
	showOutput string
)

var showContentCmd = &cobra.Command{
	Use:   "show",
	Short: "Preview a page as Markdown",
	Long:  showUsage,
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		ref, err := showSource.ref()
		if err != nil {
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

		return runShow(ctx, api, ref, showOutput, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(showContentCmd)

	addSourceFlags(showContentCmd, &showSource)
	showContentCmd.Flags().StringVar(&showOutput, "output", "", "directory to write the Markdown into instead of printing it")
}

var showExpand = []string{"body.storage", "body.view", "space", "ancestors", "version"}

func runShow(ctx context.Context, api *confluence.API, ref deepcopy.ContentRef, output string, out io.Writer) error {
	content, err := fetchContent(ctx, api, ref)
	if err != nil {
		return err
	}

	doc, err := preview.NewConverter(api.BaseURI).Convert(*content)
	if err != nil {
		return errors.Errorf("confluence-copy: couldn't render %s: %w", ref, err)
	}

	if output == "" {
		fmt.Fprint(out, doc.String())
		return nil
	}

	dir, err := homedir.Expand(output)
	if err != nil {
		return errors.Errorf("confluence-copy: unable to expand output dir: %w", err)
	}
	written, err := preview.Write(afero.NewOsFs(), dir, doc)
	if err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str("path", written).Msg("Wrote preview")
	return nil
}

func fetchContent(ctx context.Context, api *confluence.API, ref deepcopy.ContentRef) (*confluence.Content, error) {
	if ref.ID != "" {
		content, err := api.GetContentByID(ctx, confluence.ContentByIDQuery{ID: ref.ID, Expand: showExpand})
		if err != nil {
			return nil, errors.Errorf("confluence-copy: couldn't get %s: %w", ref, err)
		}
		return content, nil
	}

	found, err := api.AllContent(ctx, confluence.ContentQuery{
		Type:     ref.ContentType.String(),
		SpaceKey: ref.SpaceKey,
		Title:    ref.Title,
		Expand:   showExpand,
	})
	if err != nil {
		return nil, errors.Errorf("confluence-copy: couldn't look up %s: %w", ref, err)
	}
	if len(found) == 0 {
		return nil, errors.Errorf("confluence-copy: no %s: %w", ref, confluence.ErrNotFound)
	}
	if len(found) > 1 {
		zerolog.Ctx(ctx).Warn().Stringer("ref", ref).Int("matches", len(found)).Msg("Lookup matched more than one item, using the first")
	}
	return &found[0], nil
}
