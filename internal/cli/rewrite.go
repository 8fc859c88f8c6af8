package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/datamove/internal/datamove"
	"github.com/roach88/datamove/internal/graphfile"
	"github.com/roach88/datamove/internal/ir"
	"github.com/roach88/datamove/internal/pipeline"
	"github.com/roach88/datamove/internal/profile"
	"github.com/roach88/datamove/internal/store"
)

// RewriteOptions holds flags for the rewrite command.
type RewriteOptions struct {
	*RootOptions
	ProfileDir string
	Profile    string
	Output     string
	Database   string
	NoVerify   bool
}

// RewriteResult is the payload of a successful rewrite.
type RewriteResult struct {
	RunID       string `json:"run_id"`
	Profile     string `json:"profile"`
	Modified    bool   `json:"modified"`
	Inserted    int    `json:"inserted"`
	InputHash   string `json:"input_hash"`
	OutputHash  string `json:"output_hash"`
	Output      string `json:"output,omitempty"`
	Graph       string `json:"graph,omitempty"`
	ToolVersion string `json:"tool_version"`
}

// NewRewriteCommand creates the rewrite command.
func NewRewriteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RewriteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rewrite <graph>",
		Short: "Insert transfer nodes into a graph",
		Long: `Run the add_data_move pass over a graph file.

Every edge from host work into an accelerator operation gets a
from_host/to_device chain, and every edge from an accelerator operation
into host work or the graph output gets a from_device/to_layout/to_host
chain. The rewritten graph is printed, or written with --output.

With --db the run is recorded in the history store together with the
canonical input and output graphs.

Exit codes:
  0 - Graph rewritten
  1 - Pass failed or boundary edges remain
  2 - Command error (unreadable graph, unknown profile, etc.)

Examples:
  datamove rewrite model.yaml
  datamove rewrite model.yaml -o model.moved.yaml
  datamove rewrite model.yaml --profile-dir ./profiles --profile npu_lite
  datamove rewrite model.yaml --db ./datamove.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRewrite(cmd.Context(), cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.ProfileDir, "profile-dir", "", "directory of CUE accelerator profiles")
	cmd.Flags().StringVar(&opts.Profile, "profile", "", "profile name (default \"default\")")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the rewritten graph to this file")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite history store")
	cmd.Flags().BoolVar(&opts.NoVerify, "no-verify", false, "skip the completeness check after the sweep")

	return cmd
}

func runRewrite(ctx context.Context, cmd *cobra.Command, opts *RewriteOptions, graphPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := opts.resolve(cmd)
	if err != nil {
		return err
	}
	f := opts.formatter(cmd)
	logger := newLogger(opts.Verbose, cmd.ErrOrStderr())

	g, err := graphfile.Load(graphPath)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGraph, "failed to load graph", err)
	}
	f.VerboseLog("Loaded %s (%d nodes)", graphPath, g.Len())

	prof, err := profile.Resolve(cfg.ProfileDir, cfg.Profile)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeProfile, "failed to resolve profile", err)
	}
	logProfile(f, prof)

	passOpts := []datamove.Option{datamove.WithLogger(logger)}
	if opts.NoVerify {
		passOpts = append(passOpts, datamove.WithoutVerify())
	}
	pass, err := datamove.New(prof, passOpts...)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeProfile, "invalid profile", err)
	}

	mgrOpts := []pipeline.Option{pipeline.WithLogger(logger)}

	var st *store.Store
	if cfg.DB != "" {
		st, err = store.Open(cfg.DB)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "failed to open history store", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing history store", "error", closeErr)
			}
		}()

		last, err := st.LastSeq(ctx)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "failed to read history store", err)
		}
		if _, err := st.WriteGraph(ctx, g); err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "failed to store input graph", err)
		}
		mgrOpts = append(mgrOpts, pipeline.WithRecorder(st), pipeline.WithClock(pipeline.NewClockAt(last)))
	}

	mgr := pipeline.NewManager([]pipeline.Pass{pass}, mgrOpts...)
	report, err := mgr.Run(ctx, g)
	if err != nil {
		var boundaryErr *datamove.BoundaryError
		if errors.As(err, &boundaryErr) {
			return f.Fail(ExitFailure, ErrCodeBoundary, "rewrite left boundary edges unconverted", err)
		}
		return f.Fail(ExitFailure, ErrCodePass, "rewrite failed", err)
	}

	result := RewriteResult{
		RunID:       report.RunID,
		Profile:     prof.Name,
		Modified:    report.Modified,
		Inserted:    report.Inserted,
		ToolVersion: ir.ToolVersion,
	}
	if n := len(report.Steps); n > 0 {
		result.InputHash = report.Steps[0].HashBefore
		result.OutputHash = report.Steps[n-1].HashAfter
	}

	if st != nil {
		if _, err := st.WriteGraph(ctx, report.Graph); err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "failed to store output graph", err)
		}
	}

	if opts.Output != "" {
		if err := graphfile.Write(opts.Output, report.Graph); err != nil {
			return f.Fail(ExitCommandError, ErrCodeWriteFile, "failed to write graph", err)
		}
		result.Output = opts.Output
	} else {
		result.Graph = report.Graph.String()
	}

	if opts.Format == "json" {
		return f.Success(result)
	}

	w := cmd.OutOrStdout()
	if result.Graph != "" {
		fmt.Fprint(w, result.Graph)
	}
	if !result.Modified {
		fmt.Fprintf(w, "No transfers needed (profile %s, run %s)\n", result.Profile, result.RunID)
		return nil
	}
	fmt.Fprintf(w, "Inserted transfers on %d edge(s) (profile %s, run %s)\n", result.Inserted, result.Profile, result.RunID)
	if result.Output != "" {
		fmt.Fprintf(w, "Wrote %s\n", result.Output)
	}
	return nil
}
