package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/units"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/stanford-oval/thingtalk/compiler/ast"
	"github.com/stanford-oval/thingtalk/compiler/semantic"
	"github.com/stanford-oval/thingtalk/thingpedia"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] file.json ...",
	Short: "Type-check serialized ThingTalk programs.",
	Long: `Check parses each file as a ThingTalk AST in the JSON interchange
form, resolves every primitive against the configured Thingpedia server,
and reports the first type error of each program.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("thingpedia", "", "base URL of the Thingpedia server")
	checkCmd.Flags().Bool("meta", false, "fetch schemas with natural-language metadata")
	checkCmd.Flags().String("max-response-size", "4MB", "largest schema response to accept")
	checkCmd.Flags().BoolP("verbose", "v", false, "log schema fetches")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	hostURL, _ := cmd.Flags().GetString("thingpedia")
	useMeta, _ := cmd.Flags().GetBool("meta")
	maxSize, _ := cmd.Flags().GetString("max-response-size")
	verbose, _ := cmd.Flags().GetBool("verbose")

	var client *thingpedia.Client
	if hostURL != "" {
		client = thingpedia.NewClientTo(hostURL)
	} else {
		client = thingpedia.NewClient()
	}
	if maxSize != "" {
		n, err := units.ParseStrictBytes(maxSize)
		if err != nil {
			return fmt.Errorf("--max-response-size: %w", err)
		}
		client.SetMaxResponseSize(n)
	}
	if verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync()
		client.SetLogger(logger)
	}

	var errs error
	for _, path := range args {
		if err := checkFile(cmd, path, client, useMeta); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", path, err)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", path, err))
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
		}
	}
	if errs != nil {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
	}
	return errs
}

func checkFile(cmd *cobra.Command, path string, schemas thingpedia.SchemaSource, useMeta bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	prog, err := ast.UnmarshalProgram(data)
	if err != nil {
		return err
	}
	return semantic.Check(cmd.Context(), prog, schemas, useMeta)
}
