package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/harunnryd/lectern/cmd/lectern/runtime"

	"github.com/harunnryd/lectern/internal/formatter"
	"github.com/harunnryd/lectern/internal/retrieval"
	"github.com/harunnryd/lectern/internal/store"

	"github.com/spf13/cobra"
)

type courseAnalytics interface {
	Courses(ctx context.Context) (retrieval.Analytics, error)
}

type courseLister interface {
	ListCourses() ([]store.CourseRecord, error)
}

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List indexed courses",
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeWithRuntime(cmd, func(r *runtime.RuntimeComponents) error {
			return runCourses(r.Ctx, r.Assistant, r.StoreWorker, os.Stdout)
		})
	},
}

func runCourses(ctx context.Context, analytics courseAnalytics, lister courseLister, out io.Writer) error {
	stats, err := analytics.Courses(ctx)
	if err != nil {
		return fmt.Errorf("failed to read course analytics: %w", err)
	}

	if stats.TotalCourses == 0 {
		fmt.Fprintln(out, "No courses indexed yet.")
		fmt.Fprintln(out, "\nRun 'lectern ingest <path>' to add course materials.")
		return nil
	}

	courses, err := lister.ListCourses()
	if err != nil {
		return fmt.Errorf("failed to list courses: %w", err)
	}

	fmt.Fprintln(out, formatter.NewTableFormatter().FormatCourses(courses))
	fmt.Fprintf(out, "\nTotal: %d course(s)\n", stats.TotalCourses)
	return nil
}

func init() {
	rootCmd.AddCommand(coursesCmd)
}
