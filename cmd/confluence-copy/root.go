/*
Copyright © 2024 paul <paul@denknerd.org>
*/

package main

import (
	"context"
	"os"
	"reflect"
	"strconv"

	"github.com/fatih/structs"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v2"
)

const (
	configEnv     = "CONFLUENCE_COPY_CONFIG"
	defaultConfig = "~/.config/confluence-copy.yaml"
)

var (
	// Store the result of binding cobra flags
	Config       string
	ConfigActual string
	Debug        bool

	// Command to run to retrieve API Personal Access Token
	AuthTokenCmd []string

	AuthUsername       string
	ConfluenceInstance string
	BaseURL            string
	WithVCR            bool

	ParsedConfig YamlConfig
)

// Build the cobra command that handles our command line tool.
var rootCmd = &cobra.Command{
	Use:   "confluence-copy",
	Short: "Deep-copy Confluence pages, with their children, attachments, comments and labels",
	Long: `
Confluence only copies one page at a time, and loses comments on the way.  This tool copies a page
and, if you like, the whole tree below it, to another parent or another space.  It does a dry run
unless told otherwise.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initializeConfig(cmd); err != nil {
			return errors.Errorf("confluence-copy: failed to initialise config: %w", err)
		}

		level := zerolog.InfoLevel
		if Debug {
			level = zerolog.DebugLevel
		}
		logger := zerolog.Ctx(cmd.Context()).Level(level)
		cmd.SetContext(logger.WithContext(cmd.Context()))

		return nil
	},
}

func init() {
	// Define cobra flags, the default value has the lowest (least significant) precedence
	rootCmd.PersistentFlags().StringVar(&Config, "config", "", "config file location (default: "+defaultConfig+", respects "+configEnv+")")
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "display debug output")
	rootCmd.PersistentFlags().StringSliceVar(&AuthTokenCmd, "auth-token-cmd", []string{}, "shell command to retrieve Atlassian auth token")
	rootCmd.PersistentFlags().StringVar(&AuthUsername, "auth-username", "", "your Atlassian username")
	rootCmd.PersistentFlags().StringVar(&ConfluenceInstance, "confluence-instance", "", "your Atlassian ORG name, e.g. ORG in ORG.atlassian.net")
	rootCmd.PersistentFlags().StringVar(&BaseURL, "base-url", "", "full wiki URL for Server or Data Center, e.g. https://wiki.example.com/ (overrides --confluence-instance)")
	rootCmd.PersistentFlags().BoolVar(&WithVCR, "with-vcr", false, "use go-vcr to record and replay responses")
}

func initializeConfig(cmd *cobra.Command) error {
	explicit := true
	if Config == "" {
		// Did the user provide an ENV?
		if envConfig := os.Getenv(configEnv); envConfig != "" {
			Config = envConfig
		} else {
			// As fallback, search for config in home XDG-ish directory
			Config = defaultConfig
			explicit = false
		}
	}
	config, err := homedir.Expand(Config)
	if err != nil {
		return errors.Errorf("confluence-copy: unable to expand homedir: %w", err)
	}
	ConfigActual = config

	yamlFile, err := os.ReadFile(ConfigActual)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		// Everything can be given as flags, so the default config file is optional.
		zerolog.Ctx(cmd.Context()).Debug().Str("config", ConfigActual).Msg("No config file, using flags only")
		return nil
	}
	if err != nil {
		return errors.Errorf("confluence-copy: error reading config file %s (override with --config): %w", ConfigActual, err)
	}

	// I'd like to bark if a user sets a flag we don't recognise:
	ParsedConfig = YamlConfig{}
	if err := yaml.UnmarshalStrict(yamlFile, &ParsedConfig); err != nil {
		return errors.Errorf("confluence-copy: issue parsing config file: %w", err)
	}

	if err := bindFlags(cmd, ParsedConfig); err != nil {
		return errors.Errorf("confluence-copy: failed to bind flags: %w", err)
	}

	return nil
}

type YamlConfig struct {
	DryRun            *bool `yaml:"dry-run"`
	Subpages          *bool `yaml:"subpages"`
	Attachments       *bool `yaml:"attachments"`
	Comments          *bool `yaml:"comments"`
	Labels            *bool `yaml:"labels"`
	Rename            *bool `yaml:"rename"`
	UpdateAttachments *bool `yaml:"update-attachments"`
	WithVCR           *bool `yaml:"with-vcr"`

	MaxRename *int `yaml:"max-rename"`

	ConfluenceInstance string   `yaml:"confluence-instance"`
	BaseURL            string   `yaml:"base-url"`
	AuthUsername       string   `yaml:"auth-username"`
	AuthTokenCmd       []string `yaml:"auth-token-cmd"`
	ScratchDir         string   `yaml:"scratch-dir"`
	ExcludeAttachments []string `yaml:"exclude-attachments"`
}

// Bind each config file value to its cobra flag, unless the flag was given on the command line.
func bindFlags(cmd *cobra.Command, v YamlConfig) error {
	for _, field := range structs.Fields(v) {
		key := field.Tag("yaml")
		if key == "" {
			return errors.Errorf("confluence-copy: could not retrieve struct tag 'yaml' of %s", field.Name())
		}
		if flag := cmd.Flag(key); flag == nil {
			// the flag is unknown.  but that can legitimately happen if you're running e.g. `list
			// spaces` which has no `subpages` flag but your YAML file does define it.
			continue
		}
		if cmd.Flags().Changed(key) {
			continue
		}

		var values []string
		switch field.Kind() {
		case reflect.Ptr:
			switch p := field.Value().(type) {
			case *bool:
				if p != nil {
					values = append(values, strconv.FormatBool(*p))
				}
			case *int:
				if p != nil {
					values = append(values, strconv.Itoa(*p))
				}
			default:
				return errors.Errorf("confluence-copy: found unrecognised field: %s", field.Name())
			}

		case reflect.String:
			if s := field.Value().(string); s != "" {
				values = append(values, s)
			}

		case reflect.Slice:
			ss, ok := field.Value().([]string)
			if !ok {
				return errors.Errorf("confluence-copy: found unrecognised field: %s", field.Name())
			}
			// yes, repeatedly calling Set() appends to the slice...
			values = append(values, ss...)

		default:
			return errors.Errorf("confluence-copy: found unrecognised field: %s", field.Name())
		}

		for _, value := range values {
			if err := cmd.Flags().Set(key, value); err != nil {
				return errors.Errorf("confluence-copy: bad value %q for %s: %w", value, key, err)
			}
		}
	}

	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return errors.Errorf("confluence-copy: execution error: %w", err)
	}

	return nil
}
