package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/smdtools/partsdb"
	"github.com/smdtools/partsdb/catalog"
	"github.com/smdtools/partsdb/config"
	"github.com/smdtools/partsdb/export"
	"github.com/smdtools/partsdb/query"
	"github.com/smdtools/partsdb/util"
)

func loadConfig(cmd *cli.Command) config.Config {
	cfg := config.LoadConfig(cmd.String("config"))
	config.ValidateConfig(cfg)

	return cfg
}

func openRepository(cmd *cli.Command) (*catalog.Repository, error) {
	lib := partsdb.NewLibrary(loadConfig(cmd), nil, nil)

	return catalog.Open(lib.DatabasePath())
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "download the remote feed and rebuild the local catalog",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			notifier := partsdb.NewChannelNotifier(256)
			lib := partsdb.NewLibrary(loadConfig(cmd), nil, notifier)

			if err := lib.Sync(ctx); err != nil {
				return err
			}

			for ev := range notifier.C {
				switch ev.Kind {
				case partsdb.EventProgress:
					fmt.Printf("\r%3.0f%%", ev.Percent)
				case partsdb.EventMessage:
					fmt.Printf("\n%s: %s\n", ev.Title, ev.Text)

					if ev.Severity == partsdb.SeverityError {
						return errors.New(ev.Text)
					}
				case partsdb.EventDone:
					fmt.Printf("\n%s\n", ev.Summary)

					return nil
				}
			}

			return nil
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "search the local catalog",
		ArgsUsage: "[keyword]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "manufacturer"},
			&cli.StringFlag{Name: "package"},
			&cli.StringFlag{Name: "category"},
			&cli.StringFlag{Name: "part"},
			&cli.StringFlag{Name: "joints"},
			&cli.BoolFlag{Name: "basic", Usage: "include Basic library parts"},
			&cli.BoolFlag{Name: "extended", Usage: "include Extended library parts"},
			&cli.BoolFlag{Name: "stock", Usage: "only parts with stock"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			lib := partsdb.NewLibrary(loadConfig(cmd), nil, partsdb.LogNotifier{})

			parts, err := lib.Search(ctx, &query.PartsListOptions{
				Keyword:         cmd.Args().First(),
				Manufacturer:    cmd.String("manufacturer"),
				Package:         cmd.String("package"),
				Category:        cmd.String("category"),
				PartNumber:      cmd.String("part"),
				SolderJoints:    cmd.String("joints"),
				IncludeBasic:    cmd.Bool("basic"),
				IncludeExtended: cmd.Bool("extended"),
				InStockOnly:     cmd.Bool("stock"),
			})
			if err != nil {
				return err
			}

			for _, p := range parts {
				fmt.Printf("%-10s %-9s %-24s %-20s %8d  %s\n",
					p.ID, p.LibraryType, p.MFRPart, p.Package, p.Stock, p.Description)
			}

			return nil
		},
	}
}

func rotationsCommand() *cli.Command {
	return &cli.Command{
		Name:  "rotations",
		Usage: "manage footprint rotation corrections",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list all corrections",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					repo, err := openRepository(cmd)
					if err != nil {
						return err
					}

					defer util.Close(repo)

					if err := repo.EnsureRotationTable(ctx); err != nil {
						return err
					}

					corrections, err := repo.Corrections(ctx)
					if err != nil {
						return err
					}

					for _, c := range corrections {
						fmt.Printf("%-40s %8.1f\n", c.Regex, c.Correction)
					}

					return nil
				},
			},
			{
				Name:      "set",
				Usage:     "add or update a correction",
				ArgsUsage: "regex degrees",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 2 {
						return errors.New("expected: regex degrees")
					}

					degrees, err := strconv.ParseFloat(cmd.Args().Get(1), 64)
					if err != nil {
						return fmt.Errorf("parse degrees: %w", err)
					}

					repo, err := openRepository(cmd)
					if err != nil {
						return err
					}

					defer util.Close(repo)

					if err := repo.EnsureRotationTable(ctx); err != nil {
						return err
					}

					correction := catalog.Correction{
						Regex:      cmd.Args().First(),
						Correction: degrees,
					}

					err = repo.UpdateCorrection(ctx, correction)
					if errors.Is(err, catalog.ErrCorrectionNotFound) {
						return repo.AddCorrection(ctx, correction)
					}

					return err
				},
			},
			{
				Name:      "delete",
				Usage:     "delete a correction",
				ArgsUsage: "regex",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					repo, err := openRepository(cmd)
					if err != nil {
						return err
					}

					defer util.Close(repo)

					return repo.DeleteCorrection(ctx, cmd.Args().First())
				},
			},
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "serialize a source catalog to the compressed CSV feed format",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "source", Required: true, Usage: "source sqlite database"},
			&cli.StringFlag{Name: "out", Required: true, Usage: "output .csv.xz file"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			out, err := os.Create(cmd.String("out"))
			if err != nil {
				return err
			}

			defer util.Close(out)

			count, err := export.FromSource(cmd.String("source"), out)
			if err != nil {
				return err
			}

			logrus.Infof("exported %d parts", count)

			return nil
		},
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "partsdb",
		Usage: "local cache of a large electronic-component catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: ".",
				Usage: "directory containing config.yaml",
			},
		},
		Commands: []*cli.Command{
			syncCommand(),
			searchCommand(),
			rotationsCommand(),
			exportCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logrus.Fatal(err)
	}
}
