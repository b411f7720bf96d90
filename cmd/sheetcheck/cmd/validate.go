package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/SurveyIntake/internal/schema"
	"github.com/JonMunkholm/SurveyIntake/internal/submission"
)

// ErrRejected is returned when the file was read but failed validation, so
// scripts can rely on the exit status.
var ErrRejected = errors.New("submission rejected")

type validateOptions struct {
	schema      string
	jsonOut     bool
	maxParallel int
}

func newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a file against a schema",
		Long: `Validates an .xlsx template or a zipped Darwin Core Archive.

Examples:
  sheetcheck validate survey.zip
  sheetcheck validate --schema plots --rules ./rules plots.xlsx
  sheetcheck validate --json survey.zip`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runValidate(ctx, cmd.OutOrStdout(), opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.schema, "schema", "s", "dwc", "schema key")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the full result as JSON")
	cmd.Flags().IntVar(&opts.maxParallel, "parallel", 4, "worksheets validated concurrently (0 = unlimited)")
	return cmd
}

func runValidate(ctx context.Context, out io.Writer, opts *validateOptions, path string) error {
	def, err := schema.Get(opts.schema)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	in, err := submission.Open(def, filepath.Base(path), data)
	if err != nil {
		return fmt.Errorf("%w\n  %s", err, submission.FormatUserError(err))
	}

	result, err := submission.NewService(opts.maxParallel).Validate(ctx, in)
	if err != nil {
		return err
	}

	if opts.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else if err := printResult(out, result); err != nil {
		return err
	}

	if result.Status == submission.StatusRejected {
		return ErrRejected
	}
	return nil
}

func printResult(out io.Writer, r *submission.Result) error {
	fmt.Fprintf(out, "%s: %s (%d errors, %d warnings)\n", r.FileName, r.Status, r.ErrorCount, r.WarningCount)
	for _, name := range r.Unrecognized {
		fmt.Fprintf(out, "  skipped %s\n", name)
	}
	if len(r.Messages) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CLASS\tFILE\tROW\tCOLUMN\tTYPE\tMESSAGE")
	for _, m := range r.Messages {
		row := ""
		if m.Row > 0 {
			row = strconv.Itoa(m.Row)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", m.Class, m.FileName, row, m.Col, m.Type, m.Message)
	}
	return tw.Flush()
}
