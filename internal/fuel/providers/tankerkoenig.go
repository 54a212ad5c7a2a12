package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/i474232898/fuel-price-forecast/internal/fuel"
	"github.com/sony/gobreaker"
)

// errAPIRejected is returned when Tankerkönig answers with ok=false.
var errAPIRejected = errors.New("tankerkoenig rejected request")

// maxRadiusKm is the largest radius list.php accepts.
const maxRadiusKm = 25

// TankerkoenigProvider implements fuel.StationSource for the Tankerkönig list API.
type TankerkoenigProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewTankerkoenigProvider(client *http.Client, apiKey string) *TankerkoenigProvider {
	return &TankerkoenigProvider{
		name:    "tankerkoenig",
		apiKey:  apiKey,
		baseURL: "https://creativecommons.tankerkoenig.de/json/list.php",
		httpCfg: HTTPClientConfig{
			Client:    client,
			Backoff:   defaultBackoff,
			UserAgent: "fuel-price-forecast",
		},
		circuit: newBreaker("tankerkoenig"),
	}
}

func (p *TankerkoenigProvider) Name() string {
	return p.name
}

// FetchStations lists all stations around center with their current e5, e10 and diesel prices,
// sorted by distance.
func (p *TankerkoenigProvider) FetchStations(ctx context.Context, center fuel.Coordinates, radiusKm float64) ([]fuel.StationReading, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("tankerkoenig api key is not configured")
	}
	if radiusKm <= 0 || radiusKm > maxRadiusKm {
		radiusKm = maxRadiusKm
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", strconv.FormatFloat(center.Latitude, 'f', 6, 64))
		values.Set("lng", strconv.FormatFloat(center.Longitude, 'f', 6, 64))
		values.Set("rad", strconv.FormatFloat(radiusKm, 'f', -1, 64))
		values.Set("sort", "dist")
		values.Set("type", "all")
		values.Set("apikey", p.apiKey)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		OK       bool   `json:"ok"`
		Message  string `json:"message"`
		Stations []struct {
			ID          string          `json:"id"`
			Name        string          `json:"name"`
			Brand       string          `json:"brand"`
			Street      string          `json:"street"`
			HouseNumber string          `json:"houseNumber"`
			PostCode    json.RawMessage `json:"postCode"`
			Lat         float64         `json:"lat"`
			Lng         float64         `json:"lng"`
			IsOpen      bool            `json:"isOpen"`
			E5          optionalPrice   `json:"e5"`
			E10         optionalPrice   `json:"e10"`
			Diesel      optionalPrice   `json:"diesel"`
		} `json:"stations"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if !payload.OK {
		return nil, fmt.Errorf("%w: %s", errAPIRejected, payload.Message)
	}

	readings := make([]fuel.StationReading, 0, len(payload.Stations))
	for _, st := range payload.Stations {
		street := st.Street
		if st.HouseNumber != "" {
			street = street + " " + st.HouseNumber
		}
		readings = append(readings, fuel.StationReading{
			ID:       st.ID,
			Name:     st.Name,
			Brand:    st.Brand,
			Street:   street,
			PostCode: parsePostCode(st.PostCode),
			Lat:      st.Lat,
			Lng:      st.Lng,
			IsOpen:   st.IsOpen,
			E5:       st.E5.value,
			E10:      st.E10.value,
			Diesel:   st.Diesel.value,
		})
	}
	return readings, nil
}

// optionalPrice accepts a number, null, or false (closed station / fuel not sold).
type optionalPrice struct {
	value *float64
}

func (o *optionalPrice) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte("false")) {
		o.value = nil
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("invalid price %s: %w", data, err)
	}
	if f <= 0 {
		o.value = nil
		return nil
	}
	o.value = &f
	return nil
}

// parsePostCode accepts both "01067" and 1067; German post codes have five digits.
func parsePostCode(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return fmt.Sprintf("%05d", n)
	}
	return ""
}
