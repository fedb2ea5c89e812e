package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"

	"lendbook/internal/core"
	"lendbook/internal/log"
	"lendbook/internal/services"
)

type importCmd struct {
	logger   *log.Logger
	file     string
	format   string
	strategy string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "merge a CSV table or JSON backup into the ledger" }
func (*importCmd) Usage() string {
	return `lendbook-admin import -file <path> [-format table|json] [-strategy skip|overwrite|clone]

  Reads the file and merges its investments into the collection. The
  format defaults by extension: .csv imports as the tabular form,
  anything else as a JSON document.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "File to import (required)")
	f.StringVar(&c.format, "format", "", "Import format: table or json (default by extension)")
	f.StringVar(&c.strategy, "strategy", "skip", "Merge strategy: skip, overwrite, or clone")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		fmt.Fprintln(os.Stderr, "Error: -file is required")
		return subcommands.ExitUsageError
	}

	format := c.format
	if format == "" {
		if strings.EqualFold(filepath.Ext(c.file), ".csv") {
			format = "table"
		} else {
			format = "json"
		}
	}
	if format != "table" && format != "json" {
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", format)
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(c.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	result, err := initBackend(ctx, c.logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer result.Cleanup()

	strategy := core.MergeStrategy(c.strategy)
	var res services.ImportResult
	switch format {
	case "table":
		reader := csv.NewReader(bytes.NewReader(data))
		reader.FieldsPerRecord = -1
		records, err := reader.ReadAll()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		if len(records) == 0 {
			fmt.Fprintln(os.Stderr, "Error: file holds no rows")
			return subcommands.ExitFailure
		}
		res, err = result.Service.ImportTable(ctx, records[0], records[1:], strategy)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	case "json":
		res, err = result.Service.ImportDocument(ctx, data, strategy)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	fmt.Printf("Imported %d candidates (%d conflicts); collection now holds %d investments\n",
		res.Candidates, res.Conflicts, res.Total)
	return subcommands.ExitSuccess
}
