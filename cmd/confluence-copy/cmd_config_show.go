/*
Copyright © 2024 paul <paul@denknerd.org>
*/

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Output current config",
	Long: `
Is something not working for you?  Have a look whether your config is as you expect.  Only the
global settings are shown merged with their flags; copy settings are shown as read from the file.
`,
	Args: cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showConfig(cmd.OutOrStdout())
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}

// effectiveConfig is the config file, with the persistent flags folded in.
func effectiveConfig() YamlConfig {
	c := ParsedConfig
	c.ConfluenceInstance = ConfluenceInstance
	c.BaseURL = BaseURL
	c.AuthUsername = AuthUsername
	c.AuthTokenCmd = AuthTokenCmd
	withVCR := WithVCR
	c.WithVCR = &withVCR
	return c
}

func showConfig(out io.Writer) error {
	dump, err := yaml.Marshal(effectiveConfig())
	if err != nil {
		return errors.Errorf("confluence-copy: couldn't render config: %w", err)
	}

	fmt.Fprintf(out, "# config file: %s\n# debug: %v\n", ConfigActual, Debug)
	fmt.Fprint(out, string(dump))
	return nil
}
