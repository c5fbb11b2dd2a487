package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-widgets/internal/store"
	"github.com/i474232898/weather-widgets/internal/weather"
)

type fakeWeatherService struct {
	snapshot    weather.Snapshot
	err         error
	suggestions []weather.CitySuggestion
	gotLocation string
	gotQuery    string
}

func (f *fakeWeatherService) GetWeatherForLocation(_ context.Context, location string) (weather.Snapshot, error) {
	f.gotLocation = location
	return f.snapshot, f.err
}

func (f *fakeWeatherService) SearchCities(_ context.Context, query string) []weather.CitySuggestion {
	f.gotQuery = query
	if f.suggestions == nil {
		return []weather.CitySuggestion{}
	}
	return f.suggestions
}

func newTestApp(t *testing.T, svc WeatherService) (*fiber.App, *store.SQLiteWidgetStore) {
	t.Helper()

	widgets, err := store.NewSQLiteWidgetStore(filepath.Join(t.TempDir(), "widgets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = widgets.Close() })

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, svc, widgets, nil)
	app.Use(NotFound)
	return app, widgets
}

func do(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func errorMessage(t *testing.T, body []byte) string {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(body, &payload))
	msg, _ := payload["error"].(string)
	return msg
}

func TestGetWeather(t *testing.T) {
	humidity := 55
	svc := &fakeWeatherService{snapshot: weather.Snapshot{
		Location:    "Berlin",
		Temperature: 18.1,
		Unit:        weather.UnitCelsius,
		Conditions:  "Clear sky",
		WindKph:     11,
		Humidity:    &humidity,
		FetchedAt:   time.Date(2024, 1, 2, 3, 4, 5, 6000000, time.UTC),
		Source:      weather.SourceOpenMeteo,
	}}
	app, _ := newTestApp(t, svc)

	resp, body := do(t, app, http.MethodGet, "/weather?location="+url.QueryEscape("  berlin "), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "berlin", svc.gotLocation)

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "Berlin", got["location"])
	assert.Equal(t, 18.1, got["temperature"])
	assert.Equal(t, "°C", got["unit"])
	assert.Equal(t, "Clear sky", got["conditions"])
	assert.Equal(t, 11.0, got["windKph"])
	assert.Equal(t, 55.0, got["humidity"])
	assert.Equal(t, "2024-01-02T03:04:05.006Z", got["fetchedAt"])
	assert.Equal(t, "open-meteo", got["source"])
}

func TestGetWeatherMissingLocation(t *testing.T) {
	app, _ := newTestApp(t, &fakeWeatherService{})

	for _, target := range []string{"/weather", "/weather?location=", "/weather?location=%20%20"} {
		resp, body := do(t, app, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, target)
		assert.Equal(t, msgLocationRequired, errorMessage(t, body))
	}
}

func TestGetWeatherLookupFailure(t *testing.T) {
	svc := &fakeWeatherService{err: &weather.LookupFailedError{
		Location: "Atlantis",
		Err:      errors.New("upstream provider error: server error: 502"),
	}}
	app, _ := newTestApp(t, svc)

	resp, body := do(t, app, http.MethodGet, "/weather?location=atlantis", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Unable to fetch weather data for Atlantis. Please try again later.", errorMessage(t, body))
	assert.NotContains(t, string(body), "502")
}

func TestGetWeatherUnexpectedError(t *testing.T) {
	app, _ := newTestApp(t, &fakeWeatherService{err: errors.New("secret detail")})

	resp, body := do(t, app, http.MethodGet, "/weather?location=x", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, msgWeatherFailed, errorMessage(t, body))
}

func TestSearchCities(t *testing.T) {
	svc := &fakeWeatherService{suggestions: []weather.CitySuggestion{{
		Name: "Berlin", Country: "Germany", State: "Berlin", DisplayName: "Berlin, Berlin, Germany", Lat: 52.52, Lon: 13.405,
	}}}
	app, _ := newTestApp(t, svc)

	resp, body := do(t, app, http.MethodGet, "/weather/search?q=berl", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "berl", svc.gotQuery)
	assert.JSONEq(t, `[{"name":"Berlin","country":"Germany","state":"Berlin","displayName":"Berlin, Berlin, Germany","lat":52.52,"lon":13.405}]`, string(body))
}

func TestSearchCitiesEmpty(t *testing.T) {
	app, _ := newTestApp(t, &fakeWeatherService{})

	resp, body := do(t, app, http.MethodGet, "/weather/search", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))
}

func TestWidgetLifecycle(t *testing.T) {
	app, _ := newTestApp(t, &fakeWeatherService{})

	resp, body := do(t, app, http.MethodPost, "/widgets", `{"location":"  new YORK "}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var created store.Widget
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "New York", created.Location)
	assert.NotEmpty(t, created.ID)

	resp, body = do(t, app, http.MethodGet, "/widgets/"+created.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched store.Widget
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, created.ID, fetched.ID)

	resp, body = do(t, app, http.MethodGet, "/widgets", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []store.Widget
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)

	resp, _ = do(t, app, http.MethodDelete, "/widgets/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = do(t, app, http.MethodGet, "/widgets/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, msgWidgetNotFound, errorMessage(t, body))

	resp, _ = do(t, app, http.MethodDelete, "/widgets/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateWidgetDuplicate(t *testing.T) {
	app, _ := newTestApp(t, &fakeWeatherService{})

	resp, _ := do(t, app, http.MethodPost, "/widgets", `{"location":"Berlin"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := do(t, app, http.MethodPost, "/widgets", `{"location":"BERLIN"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, msgWidgetExists, errorMessage(t, body))
}

func TestCreateWidgetValidation(t *testing.T) {
	app, _ := newTestApp(t, &fakeWeatherService{})

	cases := []struct {
		name string
		body string
		want string
	}{
		{name: "missing", body: `{}`, want: msgWidgetLocation},
		{name: "blank", body: `{"location":"   "}`, want: msgWidgetLocation},
		{name: "too long", body: `{"location":"` + strings.Repeat("a", 101) + `"}`, want: msgLocationTooLong},
		{name: "not json", body: `location=Berlin`, want: msgInvalidBody},
		{name: "wrong type", body: `{"location":42}`, want: msgInvalidBody},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := do(t, app, http.MethodPost, "/widgets", tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tc.want, errorMessage(t, body))
		})
	}
}

func TestListWidgetsEmpty(t *testing.T) {
	app, _ := newTestApp(t, &fakeWeatherService{})

	resp, body := do(t, app, http.MethodGet, "/widgets", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))
}

func TestWidgetInvalidID(t *testing.T) {
	app, _ := newTestApp(t, &fakeWeatherService{})

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		resp, body := do(t, app, method, "/widgets/not-a-uuid", "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, method)
		assert.Equal(t, msgInvalidWidgetID, errorMessage(t, body))
	}
}

func TestUnknownRoute(t *testing.T) {
	app, _ := newTestApp(t, &fakeWeatherService{})

	resp, body := do(t, app, http.MethodGet, "/nope?x=1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "Route not found", payload["error"])
	assert.Equal(t, "/nope?x=1", payload["path"])
}
