package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-widgets/internal/weather"
)

// DefaultForecastBaseURL is the public Open-Meteo forecast API.
const DefaultForecastBaseURL = "https://api.open-meteo.com/v1"

const currentFields = "temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m"

// OpenMeteoProvider implements weather.Forecaster for the Open-Meteo forecast API.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewOpenMeteoProvider creates a forecaster. An empty baseURL uses DefaultForecastBaseURL.
func NewOpenMeteoProvider(client *http.Client, baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = DefaultForecastBaseURL
	}

	return &OpenMeteoProvider{
		name:    "open-meteo",
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		circuit: newCircuitBreaker("open-meteo-forecast"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) Current(ctx context.Context, lat, lon float64) (weather.Current, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
		values.Set("current", currentFields)
		values.Set("wind_speed_unit", "kmh")

		u := fmt.Sprintf("%s/forecast?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return weather.Current{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Current *struct {
			Temperature *float64 `json:"temperature_2m"`
			Humidity    *float64 `json:"relative_humidity_2m"`
			WeatherCode *int     `json:"weather_code"`
			WindSpeed   *float64 `json:"wind_speed_10m"`
		} `json:"current"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Current{}, fmt.Errorf("%w: decode forecast: %v", weather.ErrUpstream, err)
	}

	cur := payload.Current
	if cur == nil {
		return weather.Current{}, fmt.Errorf("%w: forecast response has no current conditions", weather.ErrUpstream)
	}
	if cur.Temperature == nil || cur.WindSpeed == nil {
		return weather.Current{}, fmt.Errorf("%w: forecast response is missing temperature or wind", weather.ErrUpstream)
	}

	conditions := weather.ConditionUnknown
	if cur.WeatherCode != nil {
		conditions = weather.DescribeCondition(*cur.WeatherCode)
	}

	var humidity *int
	if cur.Humidity != nil {
		h := int(math.Round(*cur.Humidity))
		humidity = &h
	}

	return weather.Current{
		Temperature: *cur.Temperature,
		Unit:        weather.UnitCelsius,
		Conditions:  conditions,
		WindKph:     *cur.WindSpeed,
		Humidity:    humidity,
		Source:      weather.SourceOpenMeteo,
	}, nil
}
