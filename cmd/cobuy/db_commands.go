package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/brojonat/cobuy/service/db"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply the embedded schema migrations",
		Action: func(c *cli.Context) error {
			pool, err := getPool(c)
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := db.Migrate(context.Background(), pool)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			if c.Bool("json") {
				return outputJSON(map[string]interface{}{"applied": applied})
			}
			for _, f := range applied {
				fmt.Printf("✓ %s\n", f)
			}
			return nil
		},
	}
}

func dbSignalsCommand() *cli.Command {
	return &cli.Command{
		Name:  "signals",
		Usage: "List signals straight from the database",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of signals (0 for all)",
				Value:   20,
			},
		},
		Action: func(c *cli.Context) error {
			pool, err := getPool(c)
			if err != nil {
				return err
			}
			defer pool.Close()

			store := db.NewStore(pool, nil)
			ctx := context.Background()

			signals, err := store.ListSignals(ctx, c.Int("limit"))
			if err != nil {
				return fmt.Errorf("failed to list signals: %w", err)
			}
			total, err := store.CountSignals(ctx)
			if err != nil {
				return fmt.Errorf("failed to count signals: %w", err)
			}

			if c.Bool("json") {
				return outputJSON(map[string]interface{}{
					"signals": signals,
					"total":   total,
				})
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTIME\tTOKEN\tNAME\tWALLETS\tMARKET CAP")
			for _, s := range signals {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s (%s)\t%d\t%s\n",
					s.ID,
					s.Timestamp.Format(time.RFC3339),
					s.TokenAddress,
					s.TokenName,
					s.TokenSymbol,
					s.WalletCount,
					formatStoredMarketCap(s.MarketCap),
				)
			}
			w.Flush()

			fmt.Printf("\nShowing %d of %d signals\n", len(signals), total)
			return nil
		},
	}
}

func getPool(c *cli.Context) (*pgxpool.Pool, error) {
	dbURL := c.String("database-url")
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		return nil, fmt.Errorf("database-url is required (set DATABASE_URL env var or use --database-url)")
	}

	pool, err := db.Connect(context.Background(), dbURL)
	if err != nil {
		return nil, err
	}
	return pool, nil
}
