package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/i474232898/fuel-price-forecast/internal/app"
	"github.com/i474232898/fuel-price-forecast/internal/common"
	"github.com/i474232898/fuel-price-forecast/internal/config"
	"github.com/i474232898/fuel-price-forecast/internal/fuel"
)

var allowedRadii = []float64{1, 2, 5, 10, 25}

func ingestCommand() *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "Fetch current station prices for the configured cities",
		Flags: []cli.Flag{
			dbFlag(),
			&cli.StringFlag{
				Name:  "cities",
				Usage: "Comma separated cities, overrides CITIES",
			},
		},
		Action: func(c *cli.Context) error {
			return withApp(c, func(a *app.App, cfg *config.AppConfig) error {
				cities := cfg.Cities
				if list := common.SplitList(c.String("cities")); len(list) > 0 {
					cities = list
				}

				report, err := a.Service.Ingest(c.Context, cities)
				if err != nil {
					return err
				}
				fmt.Printf("run %s: %d records inserted, %d removed\n", report.RunID, report.Inserted, report.Deleted)
				if len(report.Skipped) > 0 {
					fmt.Printf("skipped: %s\n", strings.Join(report.Skipped, ", "))
				}
				return nil
			})
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"forecast"},
		Usage:     "Show nearby stations and the price forecast for a place",
		ArgsUsage: "<place>",
		Flags: []cli.Flag{
			dbFlag(),
			&cli.StringFlag{
				Name:    "fuel",
				Aliases: []string{"f"},
				Usage:   "Fuel type: e5, e10 or diesel",
				Value:   string(fuel.FuelE5),
			},
			&cli.Float64Flag{
				Name:    "radius",
				Aliases: []string{"r"},
				Usage:   "Search radius in kilometers: 1, 2, 5, 10 or 25",
				Value:   5,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the result as JSON",
			},
		},
		Action: searchAction,
	}
}

func searchAction(c *cli.Context) error {
	place := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if place == "" {
		return errors.New("place is required")
	}
	fuelType, err := fuel.ParseFuelType(c.String("fuel"))
	if err != nil {
		return err
	}
	radius := c.Float64("radius")
	if !validRadius(radius) {
		return fmt.Errorf("radius must be one of %v", allowedRadii)
	}

	return withApp(c, func(a *app.App, _ *config.AppConfig) error {
		result, err := a.Service.Search(c.Context, fuel.SearchQuery{Place: place, FuelType: fuelType, RadiusKm: radius})
		if err != nil {
			return err
		}
		if !result.Resolved {
			return fmt.Errorf("place %q not found", place)
		}
		if c.Bool("json") {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}
		printResult(os.Stdout, result)
		return nil
	})
}

func printResult(out io.Writer, r fuel.SearchResult) {
	fmt.Fprintf(out, "%s, %s, %.0f km: %d observations\n\n", r.Place, r.FuelType, r.RadiusKm, len(r.Stations))

	if r.CheapestToday != nil {
		p, _ := r.CheapestToday.Price(r.FuelType)
		fmt.Fprintf(out, "Cheapest today: %s (%s) %s EUR, %.1f km\n\n",
			r.CheapestToday.StationName, r.CheapestToday.Brand, decimal.NewFromFloat(p).StringFixed(3), r.CheapestToday.DistanceKm)
	}

	if len(r.BestPerDay) == 0 {
		fmt.Fprintln(out, "Not enough history for a forecast.")
	} else {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tSTATION\tBRAND\tPRICE")
		for _, p := range r.BestPerDay {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", common.FormatDateDE(p.Date), p.StationName, p.Brand, decimal.NewFromFloat(p.Price).StringFixed(2))
		}
		w.Flush()
	}

	if rec := r.Recommendation; rec != nil {
		fmt.Fprintf(out, "\nRecommendation: %s at %s (%s), %s EUR [%s]\n",
			common.FormatDateDE(rec.Date), rec.StationName, rec.Brand, decimal.NewFromFloat(rec.Price).StringFixed(2), rec.Source)
	}
}

func placesCommand() *cli.Command {
	return &cli.Command{
		Name:  "places",
		Usage: "List places with stored prices",
		Flags: []cli.Flag{dbFlag()},
		Action: func(c *cli.Context) error {
			return withApp(c, func(a *app.App, _ *config.AppConfig) error {
				places, err := a.Service.Places(c.Context)
				if err != nil {
					return err
				}
				for _, p := range places {
					fmt.Println(p)
				}
				return nil
			})
		},
	}
}

func validRadius(r float64) bool {
	for _, allowed := range allowedRadii {
		if r == allowed {
			return true
		}
	}
	return false
}
