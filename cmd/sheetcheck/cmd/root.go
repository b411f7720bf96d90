// Package cmd implements the sheetcheck command line, which validates local
// survey files against the same schemas the intake service uses.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/SurveyIntake/internal/logging"
	"github.com/JonMunkholm/SurveyIntake/internal/schema"
)

type options struct {
	rules    string
	logLevel string
}

// NewRootCmd builds the command tree. Each call returns independent flag state.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "sheetcheck",
		Short: "Validate survey spreadsheets and Darwin Core Archives",
		Long: `sheetcheck validates an .xlsx template or a zipped Darwin Core Archive
against a registered schema and prints every finding.

Schemas:
  dwc      - built-in Darwin Core Archive schema
  --rules  - additional YAML/JSON schema documents (file or directory)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), opts.logLevel, "text"))
			if opts.rules == "" {
				return nil
			}
			return registerRules(opts.rules)
		},
	}

	root.PersistentFlags().StringVar(&opts.rules, "rules", "", "schema document or directory of documents to register")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(newValidateCmd())
	root.AddCommand(newSchemasCmd())
	return root
}

// Execute runs the command line and prints any error to stderr.
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		printError(err)
		return err
	}
	return nil
}

// registerRules loads documents from a file or directory into the registry.
// Documents whose name is already registered are skipped.
func registerRules(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("rules: %w", err)
	}

	var docs []*schema.Document
	if info.IsDir() {
		docs, err = schema.LoadDir(path)
	} else {
		var doc *schema.Document
		doc, err = schema.LoadFile(path)
		docs = []*schema.Document{doc}
	}
	if err != nil {
		return err
	}

	for _, doc := range docs {
		if _, err := schema.Get(doc.Name); err == nil {
			slog.Debug("schema already registered, skipping", "key", doc.Name)
			continue
		}
		if err := schema.Add(schema.FromDocument(doc)); err != nil {
			return err
		}
		slog.Debug("schema loaded", "key", doc.Name, "path", path)
	}
	return nil
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
