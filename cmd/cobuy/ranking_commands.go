package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/brojonat/cobuy/client"
	"github.com/brojonat/cobuy/service/metadata"
	"github.com/urfave/cli/v2"
)

func rankingCommand() *cli.Command {
	return &cli.Command{
		Name:    "ranking",
		Aliases: []string{"top"},
		Usage:   "Show signals ranked by market-cap growth since they fired",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "top",
				Aliases: []string{"k"},
				Usage:   "Number of entries (0 uses the server default)",
			},
		},
		Action: func(c *cli.Context) error {
			cl := client.NewClient(c.String("server-url"), nil, nil)
			ctx := context.Background()

			if c.Bool("json") {
				ranking, err := cl.Ranking(ctx, c.Int("top"))
				if err != nil {
					return fmt.Errorf("failed to get ranking: %w", err)
				}
				return outputJSON(ranking)
			}

			text, err := cl.RankingText(ctx, c.Int("top"))
			if err != nil {
				return fmt.Errorf("failed to get ranking: %w", err)
			}
			fmt.Println(text)
			return nil
		},
	}
}

func listSignalsCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List persisted signals, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of signals",
				Value:   20,
			},
		},
		Action: func(c *cli.Context) error {
			cl := client.NewClient(c.String("server-url"), nil, nil)
			signals, err := cl.ListSignals(context.Background(), c.Int("limit"))
			if err != nil {
				return fmt.Errorf("failed to list signals: %w", err)
			}

			if c.Bool("json") {
				return outputJSON(signals)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tTOKEN\tSYMBOL\tWALLETS\tMARKET CAP")
			for _, s := range signals {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					s.Timestamp.Format(time.RFC3339),
					s.TokenAddress,
					s.TokenSymbol,
					s.WalletCount,
					formatStoredMarketCap(s.MarketCapAtSignal),
				)
			}
			w.Flush()

			fmt.Printf("\nTotal: %d signals\n", len(signals))
			return nil
		},
	}
}

// formatStoredMarketCap renders a persisted market cap, where zero means it
// was unavailable when the signal fired.
func formatStoredMarketCap(v float64) string {
	if v <= 0 {
		return metadata.Unavailable
	}
	return metadata.FormatMarketCap(v)
}
