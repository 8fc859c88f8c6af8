package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/datamove/internal/classify"
	"github.com/roach88/datamove/internal/datamove"
	"github.com/roach88/datamove/internal/graphfile"
	"github.com/roach88/datamove/internal/profile"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	ProfileDir string
	Profile    string
}

// BoundaryEdge is one unconverted edge in a check report.
type BoundaryEdge struct {
	Producer  string `json:"producer"`
	Consumer  string `json:"consumer"`
	Index     int    `json:"index"`
	Direction string `json:"direction"`
}

// CheckResult summarizes a graph's domains and remaining boundary edges.
type CheckResult struct {
	Graph      string         `json:"graph"`
	Profile    string         `json:"profile"`
	Nodes      int            `json:"nodes"`
	Classes    map[string]int `json:"classes"`
	Boundaries []BoundaryEdge `json:"boundaries"`
	Complete   bool           `json:"complete"`
}

// reportedClasses fixes the order classes are printed in.
var reportedClasses = []classify.Class{classify.ClassHost, classify.ClassCompute, classify.ClassTransfer}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <graph>",
		Short: "Report boundary edges that still need transfers",
		Long: `Classify every node of a graph and list the edges that cross the
host/accelerator boundary without a transfer chain.

A graph produced by "datamove rewrite" has none.

Exit codes:
  0 - No boundary edges remain
  1 - One or more boundary edges remain
  2 - Command error (unreadable graph, unknown profile, etc.)

Examples:
  datamove check model.yaml
  datamove check model.moved.yaml --profile-dir ./profiles --profile npu_lite`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.ProfileDir, "profile-dir", "", "directory of CUE accelerator profiles")
	cmd.Flags().StringVar(&opts.Profile, "profile", "", "profile name (default \"default\")")

	return cmd
}

func runCheck(cmd *cobra.Command, opts *CheckOptions, graphPath string) error {
	cfg, err := opts.resolve(cmd)
	if err != nil {
		return err
	}
	f := opts.formatter(cmd)

	g, err := graphfile.Load(graphPath)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGraph, "failed to load graph", err)
	}
	prof, err := profile.Resolve(cfg.ProfileDir, cfg.Profile)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeProfile, "failed to resolve profile", err)
	}
	logProfile(f, prof)

	c := prof.Classifier()
	counts := datamove.ClassCounts(c, g)
	result := CheckResult{
		Graph:      graphPath,
		Profile:    prof.Name,
		Nodes:      g.Len(),
		Classes:    make(map[string]int, len(reportedClasses)),
		Boundaries: []BoundaryEdge{},
	}
	for _, class := range reportedClasses {
		result.Classes[class.String()] = counts[class]
	}
	for _, b := range datamove.Check(c, g) {
		result.Boundaries = append(result.Boundaries, BoundaryEdge{
			Producer:  b.Producer,
			Consumer:  b.Consumer,
			Index:     b.Index,
			Direction: b.Direction.String(),
		})
	}
	result.Complete = len(result.Boundaries) == 0

	if result.Complete {
		if opts.Format == "json" {
			return f.Success(result)
		}
		outputCheckText(cmd, result)
		return nil
	}

	msg := fmt.Sprintf("%d boundary edge(s) need transfers", len(result.Boundaries))
	if opts.Format == "json" {
		if err := f.encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: ErrCodeBoundary, Message: msg},
		}); err != nil {
			return err
		}
	} else {
		outputCheckText(cmd, result)
	}
	return NewExitError(ExitFailure, msg)
}

// logProfile reports the resolved profile and its compute set in verbose mode.
func logProfile(f *OutputFormatter, prof *classify.Profile) {
	ops := make([]string, 0, len(prof.ComputeOps))
	for _, op := range prof.SortedComputeOps() {
		ops = append(ops, string(op))
	}
	f.VerboseLog("Using profile %s (device %s, compute: %s)", prof.Name, prof.Device, strings.Join(ops, ", "))
}

func outputCheckText(cmd *cobra.Command, result CheckResult) {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Graph: %s (profile %s)\n", result.Graph, result.Profile)
	fmt.Fprintf(w, "Nodes: %d", result.Nodes)
	for i, class := range reportedClasses {
		sep := ", "
		if i == 0 {
			sep = " ("
		}
		fmt.Fprintf(w, "%s%s %d", sep, class, result.Classes[class.String()])
	}
	fmt.Fprintln(w, ")")

	if result.Complete {
		fmt.Fprintln(w, "✓ No boundary edges")
		return
	}
	fmt.Fprintf(w, "✗ %d boundary edge(s):\n", len(result.Boundaries))
	for _, b := range result.Boundaries {
		fmt.Fprintf(w, "  %s -> %s[%d] (%s)\n", b.Producer, b.Consumer, b.Index, b.Direction)
	}
}
