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

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/toothbrush/confluence-copy/confluence"
)

var listSpacesUsage = strings.TrimSpace(`
If you want to find out what spaces your Confluence wiki has, use this command.
`)

var IncludePersonal bool

var listSpacesCmd = &cobra.Command{
	Use:   "spaces",
	Short: "Print list of spaces",
	Long:  listSpacesUsage,
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		conn, err := connectionFromFlags()
		if err != nil {
			return err
		}
		api, done, err := connect(ctx, conn)
		if err != nil {
			return err
		}
		defer done()

		return listSpaces(ctx, api, IncludePersonal, os.Stdout)
	},
}

func init() {
	listCmd.AddCommand(listSpacesCmd)

	listSpacesCmd.Flags().BoolVar(&IncludePersonal, "include-personal-spaces", false, "list individuals' personal spaces")
}

func listSpaces(ctx context.Context, api *confluence.API, includePersonal bool, out io.Writer) error {
	zerolog.Ctx(ctx).Info().Str("wiki", api.BaseURI.String()).Msg("Listing Confluence spaces")
	spacesRemote, err := api.ListAllSpaces(ctx, includePersonal)
	if err != nil {
		return errors.Errorf("confluence-copy: couldn't list Confluence spaces: %w", err)
	}

	zerolog.Ctx(ctx).Info().Int("count", len(spacesRemote)).Msg("Found spaces")

	spaceKeys := maps.Keys(spacesRemote)
	slices.Sort(spaceKeys)

	fmt.Fprintf(out, "spaces:\n")
	for _, spaceKey := range spaceKeys {
		s := spacesRemote[spaceKey]
		fmt.Fprintf(out, "  - %s: %s\n", spaceKey, s.Name)
	}

	return nil
}
