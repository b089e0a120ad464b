package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/sector-cycles/internal/config"
	"github.com/aristath/sector-cycles/internal/database"
	"github.com/aristath/sector-cycles/internal/domain"
	"github.com/aristath/sector-cycles/internal/modules/indices"
	"github.com/aristath/sector-cycles/internal/modules/prices"
	"github.com/aristath/sector-cycles/internal/modules/universe"
	"github.com/aristath/sector-cycles/pkg/logger"
)

// app bundles the wired services the subcommands share.
type app struct {
	db       *database.DB
	universe *universe.Repository
	prices   *prices.Repository
	indices  *indices.Repository
	service  *indices.Service
	log      zerolog.Logger
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func execute() error {
	root := &cobra.Command{
		Use:           "indexctl",
		Short:         "Manage category indices from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(generateCmd())
	root.AddCommand(listCmd())
	root.AddCommand(seriesCmd())
	root.AddCommand(importCmd())

	return root.Execute()
}

// setup loads configuration and opens the database the same way the
// server does, so the CLI operates on the same data files.
func setup() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true})

	analytics, err := config.LoadAnalytics(cfg.AnalyticsPath)
	if err != nil {
		return nil, err
	}

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}

	universeRepo := universe.NewRepository(db.Conn(), log)
	pricesRepo := prices.NewRepository(db.Conn(), log)
	indexRepo := indices.NewRepository(db.Conn(), log)

	builder := indices.NewBuilder(indices.BuilderOptions{
		Membership:      indices.MembershipMode(analytics.Index.Membership),
		MinConstituents: analytics.Index.MinConstituents,
	}, log)
	svc := indices.NewService(universeRepo, pricesRepo, indexRepo, builder, cfg.Workers, log)

	return &app{
		db:       db,
		universe: universeRepo,
		prices:   pricesRepo,
		indices:  indexRepo,
		service:  svc,
		log:      log,
	}, nil
}

func generateCmd() *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Regenerate all category indices",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.db.Close()

			result, err := a.service.GenerateAll(start, end)
			if err != nil {
				return err
			}

			fmt.Printf("Run %s: generated %d of %d categories in %dms (%s to %s)\n",
				result.RunID, result.Generated, result.Processed,
				result.DurationMS, result.StartDate, result.EndDate)
			for _, f := range result.Failures {
				fmt.Printf("  failed %s: %s\n", f.IndexName, f.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD, default one year before end)")
	cmd.Flags().StringVar(&end, "end", "", "end date (YYYY-MM-DD, default today)")
	return cmd
}

func listCmd() *cobra.Command {
	var indexType string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored category indices",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.db.Close()

			names, err := a.indices.ListNames(indexType)
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Printf("%s\t%d constituents\n", n.IndexName, n.ConstituentCount)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&indexType, "type", "", "filter by index type (sector, industry, sector_industry)")
	return cmd
}

func seriesCmd() *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "series <index-name>",
		Short: "Print the value series of one index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.db.Close()

			points, err := a.indices.GetPoints(args[0], start, end)
			if err != nil {
				return err
			}
			for _, p := range points {
				fmt.Printf("%s\t%.4f\n", p.Time, p.IndexValue)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "end date (YYYY-MM-DD)")
	return cmd
}

func importCmd() *cobra.Command {
	var stocksPath, pricesPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import stocks and daily closes from CSV files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if stocksPath == "" && pricesPath == "" {
				return fmt.Errorf("nothing to import, pass --stocks and/or --prices")
			}

			a, err := setup()
			if err != nil {
				return err
			}
			defer a.db.Close()

			if stocksPath != "" {
				n, err := importStocks(a, stocksPath)
				if err != nil {
					return fmt.Errorf("import stocks: %w", err)
				}
				fmt.Printf("Imported %d stocks\n", n)
			}

			if pricesPath != "" {
				n, err := importPrices(a, pricesPath)
				if err != nil {
					return fmt.Errorf("import prices: %w", err)
				}
				fmt.Printf("Imported %d price records\n", n)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&stocksPath, "stocks", "", "CSV with columns symbol,company_name,sector,industry,market_cap")
	cmd.Flags().StringVar(&pricesPath, "prices", "", "CSV with columns time,symbol,close_price")
	return cmd
}

// importStocks reads a stock universe CSV. A header row is detected by
// a non-numeric market_cap column and skipped.
func importStocks(a *app, path string) (int, error) {
	rows, err := readCSV(path, 5)
	if err != nil {
		return 0, err
	}

	var stocks []domain.Stock
	for i, row := range rows {
		marketCap, err := strconv.ParseFloat(row[4], 64)
		if err != nil {
			if i == 0 {
				continue
			}
			return 0, fmt.Errorf("row %d: bad market_cap %q", i+1, row[4])
		}
		stocks = append(stocks, domain.Stock{
			Symbol:      row[0],
			CompanyName: row[1],
			Sector:      row[2],
			Industry:    row[3],
			MarketCap:   marketCap,
		})
	}

	if err := a.universe.UpsertStocks(stocks); err != nil {
		return 0, err
	}
	return len(stocks), nil
}

func importPrices(a *app, path string) (int, error) {
	rows, err := readCSV(path, 3)
	if err != nil {
		return 0, err
	}

	var records []domain.PriceRecord
	for i, row := range rows {
		price, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			if i == 0 {
				continue
			}
			return 0, fmt.Errorf("row %d: bad close_price %q", i+1, row[2])
		}
		records = append(records, domain.PriceRecord{
			Time:       row[0],
			Symbol:     row[1],
			ClosePrice: price,
		})
	}

	if err := a.prices.UpsertPrices(records); err != nil {
		return 0, err
	}
	return len(records), nil
}

func readCSV(path string, fields int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = fields
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
