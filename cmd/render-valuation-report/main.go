package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joelkehle/b2g-transformer/internal/export"
	"github.com/joelkehle/b2g-transformer/internal/site"
	"github.com/joelkehle/b2g-transformer/internal/store"
	"github.com/joelkehle/b2g-transformer/internal/valuation"
)

type options struct {
	input      string
	id         string
	demo       string
	dbDriver   string
	dbDSN      string
	format     string
	output     string
	chromePath string
}

func main() {
	var opts options
	cmd := &cobra.Command{
		Use:   "render-valuation-report",
		Short: "Rebuild a valuation report from a saved run",
		Long: "Loads a run from a JSON file (--input), from the run store (--id), or builds\n" +
			"a demo run for a location (--demo), and writes it as md, html, pdf, xlsx or png.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
		SilenceUsage: true,
	}
	f := cmd.Flags()
	f.StringVar(&opts.input, "input", "", "path to a saved run JSON document")
	f.StringVar(&opts.id, "id", "", "run id to load from the store")
	f.StringVar(&opts.demo, "demo", "", "render the demo report for this location")
	f.StringVar(&opts.dbDriver, "db-driver", "sqlite", "database driver: sqlite or pgx")
	f.StringVar(&opts.dbDSN, "db-dsn", "b2g.db", "database DSN or SQLite file path")
	f.StringVarP(&opts.format, "format", "f", "md", "output format: md, html, pdf, xlsx or png")
	f.StringVarP(&opts.output, "output", "o", "", "output path (defaults to stdout)")
	f.StringVar(&opts.chromePath, "chrome-path", "", "Chromium binary used for pdf output")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	r, err := loadRun(ctx, opts)
	if err != nil {
		return err
	}
	if r.Report == nil {
		return fmt.Errorf("run %s has no report (status %s)", r.ID, r.Status)
	}
	out, err := render(ctx, r, opts)
	if err != nil {
		return err
	}
	if opts.output == "" {
		_, err := os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(opts.output, out, 0o644)
}

func loadRun(ctx context.Context, opts options) (valuation.Run, error) {
	switch {
	case opts.input != "":
		b, err := os.ReadFile(opts.input)
		if err != nil {
			return valuation.Run{}, fmt.Errorf("read input: %w", err)
		}
		var r valuation.Run
		if err := json.Unmarshal(b, &r); err != nil {
			return valuation.Run{}, fmt.Errorf("decode input JSON: %w", err)
		}
		return r, nil
	case opts.id != "":
		repo, err := store.Open(ctx, opts.dbDriver, opts.dbDSN)
		if err != nil {
			return valuation.Run{}, fmt.Errorf("open store: %w", err)
		}
		defer repo.Close()
		return repo.Get(ctx, opts.id)
	case opts.demo != "":
		req := valuation.DefaultRequest()
		req.Location = opts.demo
		now := time.Now().UTC()
		r := valuation.Run{
			ID:          "demo",
			Request:     req,
			Status:      valuation.StatusComplete,
			Source:      valuation.SourceFallback,
			CreatedAt:   now,
			UpdatedAt:   now,
			CompletedAt: &now,
		}
		r.AttachReport(valuation.FallbackReport())
		return r, nil
	default:
		return valuation.Run{}, errors.New("one of --input, --id or --demo is required")
	}
}

func render(ctx context.Context, r valuation.Run, opts options) ([]byte, error) {
	switch opts.format {
	case "md":
		return []byte(valuation.BuildMarkdown(r)), nil
	case "html":
		doc, err := site.RenderReportHTML(valuation.BuildMarkdown(r))
		return []byte(doc), err
	case "pdf":
		return site.NewChromiumPDFRenderer(opts.chromePath).Render(ctx, valuation.BuildMarkdown(r))
	case "xlsx":
		return buffered(func(w io.Writer) error { return export.WriteWorkbook(w, r) })
	case "png":
		return buffered(func(w io.Writer) error {
			return export.RenderCashFlowChart(w, valuation.ActiveScenario(*r.Report), "png")
		})
	default:
		return nil, fmt.Errorf("unsupported format %q", opts.format)
	}
}

func buffered(write func(io.Writer) error) ([]byte, error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
