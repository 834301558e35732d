package cmd

import (
	"fmt"

	"codemerge/pkg/logging"
	"codemerge/pkg/merge"
	"codemerge/pkg/version"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootLogger is supplied by main via Execute.
var rootLogger *zap.Logger

// RootCmd is the base command. Invoked without arguments it merges the
// current working directory; an optional positional argument names a
// different root.
var RootCmd = &cobra.Command{
	Use:   "codemerge [directory]",
	Short: "codemerge combines a source tree into a single document",
	Long: `codemerge walks a project directory, selects files by extension, and
concatenates their contents into one output document, optionally preceded by a
rendering of the directory structure. Designed for preparing LLM prompts and
code-review snapshots.`,
	Args:         cobra.MaximumNArgs(1),
	RunE:         runMerge,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(logger *zap.Logger) error {
	rootLogger = logger
	return RootCmd.Execute()
}

func init() {
	flags := RootCmd.Flags()
	flags.StringP("output", "o", "", "destination path for the merged document")
	flags.StringSlice("ext", nil, "file extensions to include (e.g. .go), repeatable")
	flags.StringSlice("ignore-dir", nil, "directory names to prune from traversal, repeatable")
	flags.StringSlice("extra-ignore", nil, "additional ignore patterns for directories (gitignore-style)")
	flags.Bool("tree", true, "prepend a directory-structure section to the output")
	flags.String("decode-policy", "", "handling of undecodable bytes: replace or skip")
	flags.Bool("tokens", false, "report a token count for the merged document")
	flags.String("model", "", "tokenizer model for --tokens")
	flags.Bool("clipboard", false, "copy the merged document to the system clipboard")
	flags.String("config", "", "path to a configuration file")
	flags.Bool("debug", false, "enable debug logging")
}

// runMerge loads layered configuration, applies flag overrides, and runs the merge.
func runMerge(cmd *cobra.Command, args []string) error {
	logger := rootLogger
	flags := cmd.Flags()

	if debug, _ := flags.GetBool("debug"); debug {
		if err := logging.Setup(true, "codemerge", version.Get().Version); err != nil {
			return fmt.Errorf("set up debug logging: %w", err)
		}
		logger = logging.Logger
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	workingDir := ""
	if len(args) == 1 {
		workingDir = args[0]
	}

	configPath, _ := flags.GetString("config")
	cfg, err := merge.LoadConfig(workingDir, configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if flags.Changed("output") {
		cfg.Output, _ = flags.GetString("output")
	}
	if flags.Changed("ext") {
		cfg.Extensions, _ = flags.GetStringSlice("ext")
	}
	if flags.Changed("ignore-dir") {
		cfg.IgnoreDirs, _ = flags.GetStringSlice("ignore-dir")
	}
	if flags.Changed("extra-ignore") {
		cfg.ExtraIgnores, _ = flags.GetStringSlice("extra-ignore")
	}
	if flags.Changed("tree") {
		cfg.Tree, _ = flags.GetBool("tree")
	}
	if flags.Changed("decode-policy") {
		policy, _ := flags.GetString("decode-policy")
		cfg.DecodePolicy = merge.DecodePolicy(policy)
	}
	if flags.Changed("tokens") {
		cfg.Tokens.Enabled, _ = flags.GetBool("tokens")
	}
	if flags.Changed("model") {
		cfg.Tokens.Model, _ = flags.GetString("model")
	}
	if flags.Changed("clipboard") {
		cfg.Clipboard, _ = flags.GetBool("clipboard")
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	return merge.Execute(cfg, logger)
}
