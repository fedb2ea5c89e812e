package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/google/subcommands"

	"lendbook/internal/core"
	"lendbook/internal/log"
)

type statsCmd struct {
	logger *log.Logger
}

func (*statsCmd) Name() string     { return "stats" }
func (*statsCmd) Synopsis() string { return "print portfolio totals, rates, and allocation" }
func (*statsCmd) Usage() string {
	return `lendbook-admin stats

  Prints the portfolio summary: position count, principal, weighted
  annual rate, interest totals, and the allocation per source.
`
}

func (c *statsCmd) SetFlags(f *flag.FlagSet) {}

func (c *statsCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	result, err := initBackend(ctx, c.logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer result.Cleanup()

	stats, err := result.Service.Stats(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Investments:\t%d\n", stats.Count)
	fmt.Fprintf(w, "Total principal:\t%d\n", stats.TotalPrincipal)
	fmt.Fprintf(w, "Weighted annual rate:\t%.2f%%\n", stats.WeightedAnnualRate)
	fmt.Fprintf(w, "Expected monthly interest:\t%d\n", stats.MonthlyInterest)
	fmt.Fprintf(w, "Collected interest:\t%d\n", stats.CollectedInterest)

	if len(stats.StatusCounts) > 0 {
		fmt.Fprintf(w, "\nBy status:\n")
		statuses := make([]string, 0, len(stats.StatusCounts))
		for status := range stats.StatusCounts {
			statuses = append(statuses, string(status))
		}
		sort.Strings(statuses)
		for _, status := range statuses {
			fmt.Fprintf(w, "  %s\t%d\n", status, stats.StatusCounts[core.Status(status)])
		}
	}

	if len(stats.Allocation) > 0 {
		fmt.Fprintf(w, "\nAllocation by source:\n")
		sources := make([]string, 0, len(stats.Allocation))
		for source := range stats.Allocation {
			sources = append(sources, source)
		}
		sort.Strings(sources)
		for _, source := range sources {
			fmt.Fprintf(w, "  %s\t%d\n", source, stats.Allocation[source])
		}
	}

	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
