package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/harunnryd/lectern/cmd/lectern/runtime"

	"github.com/harunnryd/lectern/internal/retrieval"

	"github.com/spf13/cobra"
)

type pathIngestor interface {
	IngestPaths(ctx context.Context, paths ...string) (retrieval.IngestReport, error)
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Ingest course files into the workspace",
	Long:  `Load course YAML files (or directories of them) and index their lessons for retrieval. Courses already indexed are skipped.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeWithRuntime(cmd, func(r *runtime.RuntimeComponents) error {
			return runIngest(r.Ctx, r.Ingestor, os.Stdout, args)
		})
	},
}

func runIngest(ctx context.Context, in pathIngestor, out io.Writer, paths []string) error {
	report, err := in.IngestPaths(ctx, paths...)
	for _, title := range report.Added {
		fmt.Fprintf(out, "✓ Added '%s'\n", title)
	}
	for _, title := range report.Skipped {
		fmt.Fprintf(out, "- Skipped '%s' (already indexed)\n", title)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nIngested %d course(s), %d chunk(s).\n", len(report.Added), report.Chunks)
	return nil
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
