package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/brojonat/cobuy/service/watchlist"
	"github.com/urfave/cli/v2"
)

func validateWatchlistCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate a watchlist file",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "path",
				Usage:   "Watchlist path",
				EnvVars: []string{"WATCHLIST_PATH"},
				Value:   "wallets.json",
			},
		},
		Action: func(c *cli.Context) error {
			path := c.String("path")
			if c.NArg() > 0 {
				path = c.Args().Get(0)
			}

			wallets, err := watchlist.Load(path)
			if err != nil {
				return err
			}

			if c.Bool("json") {
				return outputJSON(wallets)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "LABEL\tADDRESS")
			for _, wallet := range wallets {
				fmt.Fprintf(w, "%s\t%s\n", wallet.Label, wallet.Address)
			}
			w.Flush()

			fmt.Printf("\n✓ %s is valid (%d wallets)\n", path, len(wallets))
			return nil
		},
	}
}
