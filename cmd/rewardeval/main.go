// Command rewardeval runs the recognition pipeline over a labeled folder of
// reward screenshots and reports how many were read correctly.
//
// Usage: rewardeval -dir screens/ [-labels screens/labels.json] [-catalog catalog.json]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"relicscan/internal/catalog"
	"relicscan/internal/evaluate"
	"relicscan/internal/ocr"
	"relicscan/internal/ocr/tesseract"
	"relicscan/internal/pipeline"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
)

var (
	flagDir      = flag.String("dir", "", "Directory of labeled screenshots")
	flagLabels   = flag.String("labels", "", "Labels file (default <dir>/labels.json)")
	flagCatalog  = flag.String("catalog", "catalog.json", "Item catalog")
	flagPrices   = flag.String("prices", "", "Optional price sheet")
	flagMinRate  = flag.Float64("min-rate", 0.95, "Fail unless the success rate exceeds this")
	flagXLSX     = flag.String("xlsx", "", "Write the per-image report to this workbook")
	flagParallel = flag.Int("j", 4, "Number of OCR engines")
	flagVerbose  = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	level := slog.LevelInfo
	if *flagVerbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
	})))

	if *flagDir == "" {
		fmt.Fprintln(os.Stderr, "Usage: rewardeval -dir screens/ [-labels labels.json] [-catalog catalog.json] [-xlsx report.xlsx]")
		os.Exit(2)
	}

	rate, err := run()
	if err != nil {
		slog.Error("evaluation failed", "error", err)
		os.Exit(1)
	}
	if rate <= *flagMinRate {
		slog.Error("success rate too low", "rate", rate, "min", *flagMinRate)
		os.Exit(1)
	}
}

func run() (float64, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	labelsPath := *flagLabels
	if labelsPath == "" {
		labelsPath = filepath.Join(*flagDir, "labels.json")
	}
	labels, err := evaluate.LoadLabels(labelsPath)
	if err != nil {
		return 0, err
	}

	cat, err := catalog.LoadFile(*flagCatalog)
	if err != nil {
		return 0, err
	}
	if *flagPrices != "" {
		if cat, _, err = catalog.LoadPrices(cat, *flagPrices); err != nil {
			return 0, err
		}
	}

	pool := ocr.NewPool(*flagParallel, tesseract.Factory(tesseract.DefaultOptions()))
	defer pool.Close()

	opts := pipeline.DefaultOptions()
	opts.Workers = *flagParallel
	report, err := evaluate.Run(ctx, pipeline.New(cat, pool, opts), *flagDir, labels)
	if err != nil {
		return 0, err
	}

	for _, o := range report.Outcomes {
		if !o.Passed {
			fmt.Printf("FAIL %s\n\texpected %q\n\tgot      %q\n", o.File, o.Expected, o.Got)
		}
	}
	fmt.Printf("%d/%d images correct (%.1f%%)\n", report.Passed(), len(report.Outcomes), 100*report.SuccessRate())

	if *flagXLSX != "" {
		if err := evaluate.WriteXLSX(*flagXLSX, report); err != nil {
			return 0, err
		}
		slog.Info("report written", "path", *flagXLSX)
	}
	return report.SuccessRate(), nil
}
