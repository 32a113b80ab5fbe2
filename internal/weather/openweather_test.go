package weather

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ai-trip-planner/internal/trip"
)

// forecastPoint builds one three-hourly entry of the forecast response.
func forecastPoint(at time.Time, temp, min, max, pop float64, desc string) map[string]interface{} {
	return map[string]interface{}{
		"dt":      at.Unix(),
		"main":    map[string]float64{"temp": temp, "temp_min": min, "temp_max": max},
		"weather": []map[string]string{{"description": desc}},
		"pop":     pop,
	}
}

func newWeatherServer(t *testing.T, points []map[string]interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("appid") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/geo/1.0/direct":
			if r.URL.Query().Get("q") == "Atlantis" {
				w.Write([]byte("[]"))
				return
			}
			w.Write([]byte(`[{"name": "Tokyo", "lat": 35.68, "lon": 139.76}]`))
		case "/data/2.5/forecast":
			if r.URL.Query().Get("units") != "metric" || r.URL.Query().Get("lat") != "35.68" {
				t.Errorf("unexpected forecast query %s", r.URL.RawQuery)
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"list": points,
				"city": map[string]int{"timezone": 9 * 3600},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func aprilTrip(days int) trip.DateRange {
	start := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	return trip.DateRange{Start: start, End: start.AddDate(0, 0, days-1)}
}

func TestOpenWeatherForecast(t *testing.T) {
	jst := time.FixedZone("JST", 9*3600)
	points := []map[string]interface{}{
		// March 31 local: before the trip
		forecastPoint(time.Date(2025, time.March, 31, 21, 0, 0, 0, jst), 10, 9, 11, 0, "clear sky"),
		// April 1 local, including 01:00 JST which is still March 31 in UTC
		forecastPoint(time.Date(2025, time.April, 1, 1, 0, 0, 0, jst), 8, 7, 9, 0.1, "light rain"),
		forecastPoint(time.Date(2025, time.April, 1, 12, 0, 0, 0, jst), 16, 15, 18, 0.6, "light rain"),
		forecastPoint(time.Date(2025, time.April, 1, 18, 0, 0, 0, jst), 12, 11, 13, 0.2, "overcast clouds"),
		// April 2 local
		forecastPoint(time.Date(2025, time.April, 2, 12, 0, 0, 0, jst), 20, 19, 21, 0, "clear sky"),
	}
	srv := newWeatherServer(t, points)
	client := NewOpenWeatherClient("test-key").WithBaseURL(srv.URL)

	days, err := client.Forecast(context.Background(), "Tokyo, Japan", aprilTrip(2))
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("expected 2 trip days, got %d: %+v", len(days), days)
	}

	first := days[0]
	if first.Date.Day() != 1 || first.MinTemp != 7 || first.MaxTemp != 18 || first.AvgTemp != 12 {
		t.Errorf("unexpected April 1 summary %+v", first)
	}
	if first.Conditions != "light rain" || first.RainChance != 60 {
		t.Errorf("unexpected April 1 conditions %q / %.0f", first.Conditions, first.RainChance)
	}
	if days[1].Conditions != "clear sky" {
		t.Errorf("unexpected April 2 conditions %q", days[1].Conditions)
	}

	t.Run("UnknownPlace", func(t *testing.T) {
		if _, err := client.Forecast(context.Background(), "Atlantis", aprilTrip(2)); err == nil || !strings.Contains(err.Error(), "location not found") {
			t.Errorf("expected ErrLocationNotFound, got %v", err)
		}
	})
}

func TestServiceForecast(t *testing.T) {
	jst := time.FixedZone("JST", 9*3600)
	points := []map[string]interface{}{
		forecastPoint(time.Date(2025, time.April, 1, 12, 0, 0, 0, jst), 16, 14, 18, 0.7, "light rain"),
		forecastPoint(time.Date(2025, time.April, 2, 12, 0, 0, 0, jst), 17, 15, 19, 0.1, "light rain"),
	}
	srv := newWeatherServer(t, points)

	t.Run("Live", func(t *testing.T) {
		s := NewServiceWithClient(NewOpenWeatherClient("test-key").WithBaseURL(srv.URL), nil)
		r := s.Forecast(context.Background(), "Tokyo, Japan", aprilTrip(2))
		if !r.Live() || len(r.Daily) != 2 {
			t.Fatalf("expected a live report, got %+v", r)
		}
		w := r.Weather
		if w.TemperatureRange != "14-19°C" || w.Conditions != "Light rain" || w.Season != "Spring" {
			t.Errorf("unexpected weather %+v", w)
		}
		want := []string{
			"Bring light jacket and layers for variable weather",
			"High chance of rain - bring umbrella and waterproof jacket",
		}
		for i, rec := range want {
			if w.Packing[i] != rec {
				t.Errorf("packing[%d] = %q, want %q", i, w.Packing[i], rec)
			}
		}
		if ctx := r.Format("Tokyo, Japan", aprilTrip(2)); !strings.Contains(ctx, "2025-04-01: 14.0°C - 18.0°C, light rain, Rain: 70%") || !strings.Contains(ctx, "(Source: "+SourceLive+")") {
			t.Errorf("unexpected prompt context:\n%s", ctx)
		}
	})

	t.Run("NoKey", func(t *testing.T) {
		r := NewService("", nil).Forecast(context.Background(), "Tokyo, Japan", aprilTrip(2))
		if r.Live() || r.Weather.Source != SourceNoKey || r.Weather.TemperatureRange != "14-20°C" {
			t.Errorf("expected the seasonal fallback, got %+v", r.Weather)
		}
	})

	t.Run("APIError", func(t *testing.T) {
		s := NewServiceWithClient(NewOpenWeatherClient("wrong-key").WithBaseURL(srv.URL), nil)
		r := s.Forecast(context.Background(), "Tokyo, Japan", aprilTrip(2))
		if r.Weather.Source != SourceAPIError || len(r.Daily) != 0 {
			t.Errorf("expected the API error fallback, got %+v", r)
		}
	})

	t.Run("OutsideWindow", func(t *testing.T) {
		s := NewServiceWithClient(NewOpenWeatherClient("test-key").WithBaseURL(srv.URL), nil)
		later := trip.DateRange{Start: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2025, time.June, 3, 0, 0, 0, 0, time.UTC)}
		r := s.Forecast(context.Background(), "Tokyo, Japan", later)
		if r.Weather.Source != SourceOutOfWindow || r.Weather.Season != "Summer" {
			t.Errorf("expected the seasonal fallback for June, got %+v", r.Weather)
		}
	})
}
