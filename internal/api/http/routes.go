package httpapi

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/fuel-price-forecast/internal/common"
	"github.com/i474232898/fuel-price-forecast/internal/fuel"
)

var validate = validator.New()

// SearchService is the part of fuel.Service the handlers use.
type SearchService interface {
	Search(ctx context.Context, q fuel.SearchQuery) (fuel.SearchResult, error)
	Places(ctx context.Context) ([]string, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service SearchService) {
	v1 := app.Group("/api/v1")

	v1.Get("/places", func(c *fiber.Ctx) error {
		places, err := service.Places(c.UserContext())
		if err != nil {
			log.Printf("ERROR: list places: %v", err)
			return fiber.NewError(fiber.StatusServiceUnavailable, "price data is currently unavailable")
		}
		if places == nil {
			places = []string{}
		}
		return c.JSON(fiber.Map{"places": places})
	})

	v1.Get("/search", func(c *fiber.Ctx) error {
		var req searchQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		result, err := service.Search(c.UserContext(), req.toQuery())
		if err != nil {
			switch {
			case errors.Is(err, fuel.ErrInvalidFuelType):
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			case errors.Is(err, fuel.ErrGeocoderUnavailable):
				log.Printf("ERROR: search %q: %v", req.Place, err)
				return fiber.NewError(fiber.StatusServiceUnavailable, "geocoding service is currently unavailable")
			case errors.Is(err, fuel.ErrStoreUnavailable):
				log.Printf("ERROR: search %q: %v", req.Place, err)
				return fiber.NewError(fiber.StatusServiceUnavailable, "price data is currently unavailable")
			}
			log.Printf("ERROR: search %q: %v", req.Place, err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to search fuel prices")
		}
		if !result.Resolved {
			return fiber.NewError(fiber.StatusNotFound, "place not found: "+req.Place)
		}

		return c.JSON(newSearchResponse(result))
	})
}

// searchQuery holds the query parameters of the search endpoint.
type searchQuery struct {
	Place  string `validate:"required"`
	Fuel   string `validate:"oneof=e5 e10 diesel"`
	Radius int    `validate:"oneof=1 2 5 10 25"`
}

func (q *searchQuery) bind(c *fiber.Ctx) error {
	q.Place = strings.TrimSpace(c.Query("place"))
	q.Fuel = strings.ToLower(c.Query("fuel", string(fuel.FuelE5)))

	radius, err := strconv.Atoi(c.Query("radius", "5"))
	if err != nil {
		return errors.New("radius must be one of 1, 2, 5, 10, 25")
	}
	q.Radius = radius
	return nil
}

func (q searchQuery) toQuery() fuel.SearchQuery {
	return fuel.SearchQuery{
		Place:    q.Place,
		FuelType: fuel.FuelType(q.Fuel),
		RadiusKm: float64(q.Radius),
	}
}

// dayRow is a best-per-day entry with a German date label.
type dayRow struct {
	fuel.ForecastPoint
	DateLabel string `json:"dateLabel"`
}

type recommendationView struct {
	fuel.Recommendation
	DateLabel string `json:"dateLabel"`
}

type searchResponse struct {
	Place          string                 `json:"place"`
	FuelType       fuel.FuelType          `json:"fuelType"`
	RadiusKm       float64                `json:"radiusKm"`
	Center         *fuel.Coordinates      `json:"center"`
	Stations       []fuel.StationSnapshot `json:"stations"`
	CheapestToday  *fuel.StationSnapshot  `json:"cheapestToday"`
	BestPerDay     []dayRow               `json:"bestPerDay"`
	Recommendation *recommendationView    `json:"recommendation"`
}

func newSearchResponse(r fuel.SearchResult) searchResponse {
	resp := searchResponse{
		Place:         r.Place,
		FuelType:      r.FuelType,
		RadiusKm:      r.RadiusKm,
		Center:        r.Center,
		Stations:      r.Stations,
		CheapestToday: r.CheapestToday,
		BestPerDay:    make([]dayRow, 0, len(r.BestPerDay)),
	}
	if resp.Stations == nil {
		resp.Stations = []fuel.StationSnapshot{}
	}
	for _, p := range r.BestPerDay {
		resp.BestPerDay = append(resp.BestPerDay, dayRow{ForecastPoint: p, DateLabel: common.FormatDateDE(p.Date)})
	}
	if r.Recommendation != nil {
		resp.Recommendation = &recommendationView{
			Recommendation: *r.Recommendation,
			DateLabel:      common.FormatDateDE(r.Recommendation.Date),
		}
	}
	return resp
}
