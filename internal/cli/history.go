package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/datamove/internal/pipeline"
	"github.com/roach88/datamove/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	RunID    string
	Pass     string
	Graph    string
	Limit    int
}

// HistoryResult lists recorded pipeline steps.
type HistoryResult struct {
	Steps []pipeline.Step `json:"steps"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded pass runs",
		Long: `List pass executions recorded by "datamove rewrite --db".

Without filters the most recent steps are listed, newest first. --run
shows one run in execution order and --pass every execution of one pass.
--graph prints the canonical JSON of a stored graph by hash.

Examples:
  datamove history --db ./datamove.db
  datamove history --db ./datamove.db --run 01928c1e-...
  datamove history --db ./datamove.db --graph 3f2a...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite history store (required)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show the steps of one run")
	cmd.Flags().StringVar(&opts.Pass, "pass", "", "show every execution of one pass")
	cmd.Flags().StringVar(&opts.Graph, "graph", "", "print the stored graph with this hash")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of steps to list (0 for all)")

	return cmd
}

func runHistory(ctx context.Context, cmd *cobra.Command, opts *HistoryOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := opts.resolve(cmd)
	if err != nil {
		return err
	}
	f := opts.formatter(cmd)

	if cfg.DB == "" {
		return NewExitError(ExitCommandError, "--db is required (or set DATAMOVE_DB)")
	}

	st, err := store.Open(cfg.DB)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to open history store", err)
	}
	defer st.Close()

	if opts.Graph != "" {
		data, err := st.Graph(ctx, opts.Graph)
		if errors.Is(err, store.ErrNotFound) {
			return f.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("graph %s not found", opts.Graph), err)
		}
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "failed to read graph", err)
		}
		if opts.Format == "json" {
			_, err = cmd.OutOrStdout().Write(append(data, '\n'))
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	var steps []pipeline.Step
	switch {
	case opts.RunID != "":
		steps, err = st.StepsForRun(ctx, opts.RunID)
	case opts.Pass != "":
		steps, err = st.StepsForPass(ctx, opts.Pass)
	default:
		steps, err = st.ListSteps(ctx, opts.Limit)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to read history", err)
	}
	if opts.RunID != "" && len(steps) == 0 {
		return f.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("run %s not found", opts.RunID), nil)
	}
	if steps == nil {
		steps = []pipeline.Step{}
	}

	if opts.Format == "json" {
		return f.Success(HistoryResult{Steps: steps})
	}
	outputHistoryText(cmd, steps)
	return nil
}

func outputHistoryText(cmd *cobra.Command, steps []pipeline.Step) {
	w := cmd.OutOrStdout()
	if len(steps) == 0 {
		fmt.Fprintln(w, "No recorded runs.")
		return
	}

	fmt.Fprintf(w, "%-6s %-36s %-14s %-8s %-12s %s\n", "SEQ", "RUN", "PASS", "INSERTED", "HASH", "STATUS")
	for _, s := range steps {
		status := "ok"
		if s.Error != "" {
			status = "error: " + s.Error
		} else if !s.Modified {
			status = "unchanged"
		}
		fmt.Fprintf(w, "%-6d %-36s %-14s %-8d %-12s %s\n", s.Seq, s.RunID, s.Pass, s.Inserted, shortHash(s.HashAfter), status)
	}
}

// shortHash truncates a hex digest for display.
func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
