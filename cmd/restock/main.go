package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/andresuchdata/restock/backend-go/internal/app"
	"github.com/andresuchdata/restock/backend-go/internal/config"
	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/service"
	"github.com/andresuchdata/restock/backend-go/pkg/logger"
	"github.com/urfave/cli/v2"
)

type appKey struct{}

var errNoStore = fmt.Errorf("object storage is disabled: set STORAGE_ENABLED=true or pass --storage-root")

func main() {
	if err := newCLI().Run(os.Args); err != nil {
		logger.Log.Error().Err(err).Msg("restock failed")
		os.Exit(1)
	}
}

func newCLI() *cli.App {
	return &cli.App{
		Name:  "restock",
		Usage: "Forecast demand and compute reorder decisions from a sales CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "sales-file",
				Usage:   "Path to the sales CSV (Date, Product_ID, Sales, Lead_Time, Stock_Level)",
				EnvVars: []string{"APP_SALES_FILE"},
			},
			&cli.StringFlag{
				Name:  "storage-root",
				Usage: "Use a local directory as the object store instead of the configured bucket",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: initApp,
		After:  closeApp,
		Commands: []*cli.Command{
			{
				Name:   "products",
				Usage:  "List the products found in the sales data",
				Action: runProducts,
			},
			{
				Name:   "report",
				Usage:  "Print the replenishment summary and reorder decision for a product",
				Flags:  append([]cli.Flag{productFlag(true)}, costFlags()...),
				Action: runReport,
			},
			{
				Name:   "forecast",
				Usage:  "Print the fitted model and daily demand forecast for a product",
				Flags:  []cli.Flag{productFlag(true)},
				Action: runForecast,
			},
			{
				Name:   "reorders",
				Usage:  "List every product currently below its reorder point",
				Flags:  costFlags(),
				Action: runReorders,
			},
			{
				Name:  "export",
				Usage: "Write history/forecast and decision CSVs, optionally uploading them",
				Flags: append([]cli.Flag{
					productFlag(false),
					&cli.StringFlag{
						Name:    "out",
						Usage:   "Directory receiving series.csv and summary.csv",
						EnvVars: []string{"APP_EXPORT_DIR"},
					},
					&cli.BoolFlag{
						Name:  "upload",
						Usage: "Also upload the files to object storage",
					},
				}, costFlags()...),
				Action: runExport,
			},
			{
				Name:   "exports",
				Usage:  "List exports already published to object storage",
				Action: runExports,
			},
		},
	}
}

func productFlag(required bool) *cli.StringSliceFlag {
	return &cli.StringSliceFlag{
		Name:     "product",
		Aliases:  []string{"p"},
		Usage:    "Product ID (repeatable for export)",
		Required: required,
	}
}

func costFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{
			Name:  "holding-cost",
			Usage: "Holding cost per unit (default from ENGINE_HOLDING_COST)",
		},
		&cli.Float64Flag{
			Name:  "stockout-cost",
			Usage: "Stockout cost per unit (default from ENGINE_STOCKOUT_COST)",
		},
	}
}

func initApp(c *cli.Context) error {
	logger.SetLevel(c.String("log-level"))

	cfg := *config.Load()
	if path := c.String("sales-file"); path != "" {
		cfg.App.SalesFile = path
	}
	if root := c.String("storage-root"); root != "" {
		cfg.Storage.Enabled = true
		cfg.Storage.Driver = "local"
		cfg.Storage.LocalRoot = root
	}

	application, err := app.New(c.Context, &cfg)
	if err != nil {
		return err
	}

	c.Context = context.WithValue(c.Context, appKey{}, application)
	return nil
}

func closeApp(c *cli.Context) error {
	if application, ok := c.Context.Value(appKey{}).(*app.App); ok && application != nil {
		return application.Close()
	}
	return nil
}

func fromContext(c *cli.Context) *app.App {
	return c.Context.Value(appKey{}).(*app.App)
}

func costsFrom(c *cli.Context, defaults domain.CostParameters) domain.CostParameters {
	costs := defaults
	if c.IsSet("holding-cost") {
		costs.HoldingCostPerUnit = c.Float64("holding-cost")
	}
	if c.IsSet("stockout-cost") {
		costs.StockoutCostPerUnit = c.Float64("stockout-cost")
	}
	return costs
}

func runProducts(c *cli.Context) error {
	for _, id := range fromContext(c).Inventory.Products() {
		fmt.Fprintln(c.App.Writer, id)
	}
	return nil
}

func runReport(c *cli.Context) error {
	inventory := fromContext(c).Inventory
	costs := costsFrom(c, inventory.DefaultCosts())

	for _, id := range c.StringSlice("product") {
		result, err := inventory.Decide(c.Context, id, costs)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
		for _, line := range result.Summary.Lines() {
			fmt.Fprintf(w, "%s:\t%s\n", line[0], line[1])
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer)
	}
	return nil
}

func runForecast(c *cli.Context) error {
	inventory := fromContext(c).Inventory

	for _, id := range c.StringSlice("product") {
		fc, err := inventory.Forecast(c.Context, id)
		if err != nil {
			return err
		}

		m := fc.Model
		fmt.Fprintf(c.App.Writer, "%s: trend=%s alpha=%.4f beta=%.4f level=%.4f slope=%.4f sse=%.4f\n",
			fc.ProductID, m.Trend, m.Alpha, m.Beta, m.Level, m.Slope, m.SSE)

		w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tFORECAST")
		for _, p := range fc.Points {
			fmt.Fprintf(w, "%s\t%.2f\n", p.Date.Format("2006-01-02"), p.Quantity)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func runReorders(c *cli.Context) error {
	inventory := fromContext(c).Inventory
	costs := costsFrom(c, inventory.DefaultCosts())

	outcomes, err := inventory.DecideAll(c.Context, costs)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tSTOCK\tREORDER POINT\tORDER QTY")
	for _, r := range service.Reorders(outcomes) {
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\n",
			r.ProductID, r.Decision.CurrentStock, r.Decision.ReorderPoint, r.Decision.OptimalOrderQty)
	}
	for _, o := range outcomes {
		if o.Err != nil {
			logger.Log.Warn().Err(o.Err).Str("product_id", o.ProductID).Msg("product skipped")
		}
	}
	return w.Flush()
}

func runExport(c *cli.Context) error {
	application := fromContext(c)
	costs := costsFrom(c, application.Inventory.DefaultCosts())

	exp, err := application.Inventory.Export(c.Context, c.StringSlice("product"), costs)
	if err != nil {
		return err
	}

	outDir := c.String("out")
	if outDir == "" {
		outDir = application.Config.App.ExportDir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	files := []struct {
		name string
		data []byte
	}{
		{"series.csv", exp.SeriesCSV},
		{"summary.csv", exp.SummaryCSV},
	}
	for _, f := range files {
		path := filepath.Join(outDir, f.name)
		if err := os.WriteFile(path, f.data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintln(c.App.Writer, path)
	}

	if !c.Bool("upload") {
		return nil
	}
	if application.Store == nil {
		return errNoStore
	}
	keys, err := service.Publish(c.Context, application.Store, application.Config.Storage.ExportPrefix, time.Now(), exp)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, strings.Join(keys, "\n"))
	return nil
}

func runExports(c *cli.Context) error {
	application := fromContext(c)
	if application.Store == nil {
		return errNoStore
	}

	objects, err := application.Store.ListObjects(c.Context, application.Config.Storage.ExportPrefix)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tBYTES")
	for _, o := range objects {
		fmt.Fprintf(w, "%s\t%d\n", o.Key, o.Size)
	}
	return w.Flush()
}
