package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/i474232898/fuel-price-forecast/internal/app"
	"github.com/i474232898/fuel-price-forecast/internal/config"
)

func main() {
	cliApp := &cli.App{
		Name:  "fuelctl",
		Usage: "Ingest, list and forecast German fuel prices",
		Commands: []*cli.Command{
			ingestCommand(),
			searchCommand(),
			placesCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// withApp loads configuration, wires the application and hands it to fn.
func withApp(c *cli.Context, fn func(*app.App, *config.AppConfig) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if dsn := c.String("db"); dsn != "" {
		cfg.DBDSN = dsn
	}

	a, err := app.New(c.Context, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(a, cfg)
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "db",
		Usage: "Database DSN, overrides DB_DSN",
	}
}
