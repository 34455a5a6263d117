/*
Copyright © 2024 paul <paul@denknerd.org>
*/

package main

import (
	"context"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/toothbrush/confluence-copy/confluence"
	"github.com/toothbrush/confluence-copy/deepcopy"
)

var interactiveUsage = strings.TrimSpace(`
Walks you through logging in and copying, one prompt at a time.  Flags and config still provide
the defaults.
`)

const (
	menuListSpaces = "List spaces"
	menuCopy       = "Deep copy"
	menuExit       = "Exit"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Menu-driven copying",
	Long:  interactiveUsage,
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		conn, mode, err := promptConnection()
		if err != nil {
			return err
		}
		if err := checkRecording(conn.WithVCR, mode); err != nil {
			return err
		}
		api, done, err := connect(ctx, conn)
		if err != nil {
			return err
		}
		defer done()

		pterm.Success.Printfln("Connected to %s, running in %s mode", api.BaseURI, mode)

		for {
			choice, err := pterm.DefaultInteractiveSelect.
				WithOptions([]string{menuListSpaces, menuCopy, menuExit}).
				Show("What next?")
			if err != nil {
				return errors.Errorf("confluence-copy: menu: %w", err)
			}

			switch choice {
			case menuListSpaces:
				if err := listSpaces(ctx, api, false, os.Stdout); err != nil {
					pterm.Error.Println(err)
				}
			case menuCopy:
				if err := interactiveCopy(ctx, api, mode); err != nil {
					pterm.Error.Println(err)
				}
			case menuExit:
				return nil
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

func promptConnection() (connection, deepcopy.ExecutionMode, error) {
	defaultURL := BaseURL
	if defaultURL == "" && ConfluenceInstance != "" {
		defaultURL = "https://" + ConfluenceInstance + ".atlassian.net/wiki/"
	}

	baseURL, err := pterm.DefaultInteractiveTextInput.WithDefaultValue(defaultURL).Show("Confluence base URL")
	if err != nil {
		return connection{}, deepcopy.DryRun, errors.Errorf("confluence-copy: prompt: %w", err)
	}
	username, err := pterm.DefaultInteractiveTextInput.WithDefaultValue(AuthUsername).Show("Username")
	if err != nil {
		return connection{}, deepcopy.DryRun, errors.Errorf("confluence-copy: prompt: %w", err)
	}
	modeChoice, err := pterm.DefaultInteractiveSelect.
		WithOptions([]string{deepcopy.DryRun.String(), deepcopy.RealRun.String()}).
		WithDefaultOption(deepcopy.DryRun.String()).
		Show("Run mode")
	if err != nil {
		return connection{}, deepcopy.DryRun, errors.Errorf("confluence-copy: prompt: %w", err)
	}
	mode, err := deepcopy.ParseExecutionMode(modeChoice)
	if err != nil {
		return connection{}, deepcopy.DryRun, err
	}
	token, err := pterm.DefaultInteractiveTextInput.WithMask("*").Show("API token or password")
	if err != nil {
		return connection{}, deepcopy.DryRun, errors.Errorf("confluence-copy: prompt: %w", err)
	}

	return connection{
		BaseURL:  strings.TrimSpace(baseURL),
		Username: strings.TrimSpace(username),
		Token:    token,
		WithVCR:  WithVCR,
	}, mode, nil
}

func interactiveCopy(ctx context.Context, api *confluence.API, mode deepcopy.ExecutionMode) error {
	opts := copyOptions{
		DryRun:            mode == deepcopy.DryRun,
		MaxRename:         deepcopy.DefaultRenameLimit,
		UpdateAttachments: true,
	}

	var err error
	text := func(prompt string, into *string) {
		if err != nil {
			return
		}
		var answer string
		answer, err = pterm.DefaultInteractiveTextInput.Show(prompt)
		*into = strings.TrimSpace(answer)
	}
	confirm := func(prompt string, into *bool) {
		if err != nil {
			return
		}
		*into, err = pterm.DefaultInteractiveConfirm.WithDefaultValue(false).Show(prompt)
	}

	text("Source content ID", &opts.Source.ID)
	text("Destination parent ID (empty: use a space)", &opts.DstParentID)
	if opts.DstParentID == "" {
		text("Destination space key (empty: next to the source)", &opts.DstSpace)
	}
	text("Title of the copy (empty: keep the source's)", &opts.DstTitle)
	confirm("Copy sub pages?", &opts.Subpages)
	confirm("Copy attachments?", &opts.Attachments)
	confirm("Copy comments?", &opts.Comments)
	confirm("Copy labels?", &opts.Labels)
	confirm("Rename on title conflict?", &opts.Rename)
	if err != nil {
		return errors.Errorf("confluence-copy: prompt: %w", err)
	}

	return runCopy(ctx, api, opts, os.Stdout)
}
