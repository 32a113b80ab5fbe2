package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"ai-trip-planner/internal/trip"
)

const openWeatherBaseURL = "https://api.openweathermap.org"

var (
	// ErrLocationNotFound is returned when geocoding finds no match.
	ErrLocationNotFound = errors.New("location not found")
	// ErrOutsideForecast is returned when no forecast point falls within
	// the trip dates. The free forecast only covers the next five days.
	ErrOutsideForecast = errors.New("trip dates are outside the forecast window")
)

// DailyForecast summarizes the three-hourly points of one local day.
type DailyForecast struct {
	Date       time.Time
	AvgTemp    float64
	MinTemp    float64
	MaxTemp    float64
	Conditions string
	// RainChance is the highest probability of precipitation of the day, 0 to 100.
	RainChance float64
}

// OpenWeatherClient reads the 5 day / 3 hour forecast of OpenWeatherMap.
type OpenWeatherClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewOpenWeatherClient creates a client for the given API key.
func NewOpenWeatherClient(apiKey string) *OpenWeatherClient {
	return &OpenWeatherClient{
		apiKey:  apiKey,
		baseURL: openWeatherBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithBaseURL points the client at another server.
func (c *OpenWeatherClient) WithBaseURL(u string) *OpenWeatherClient {
	c.baseURL = u
	return c
}

type geoResult struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp    float64 `json:"temp"`
			TempMin float64 `json:"temp_min"`
			TempMax float64 `json:"temp_max"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Pop float64 `json:"pop"`
	} `json:"list"`
	City struct {
		// Timezone is the shift from UTC in seconds.
		Timezone int `json:"timezone"`
	} `json:"city"`
}

// Forecast geocodes destination and returns one summary per trip day that
// the forecast covers.
func (c *OpenWeatherClient) Forecast(ctx context.Context, destination string, dates trip.DateRange) ([]DailyForecast, error) {
	var places []geoResult
	err := c.get(ctx, "/geo/1.0/direct", url.Values{
		"q":     {destination},
		"limit": {"1"},
	}, &places)
	if err != nil {
		return nil, fmt.Errorf("failed to geocode %q: %w", destination, err)
	}
	if len(places) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrLocationNotFound, destination)
	}

	var fr forecastResponse
	err = c.get(ctx, "/data/2.5/forecast", url.Values{
		"lat":   {strconv.FormatFloat(places[0].Lat, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(places[0].Lon, 'f', -1, 64)},
		"units": {"metric"},
	}, &fr)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}

	days := summarize(fr, dates)
	if len(days) == 0 {
		return nil, ErrOutsideForecast
	}
	return days, nil
}

func (c *OpenWeatherClient) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	query.Set("appid", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("openweathermap returned status %d: %s", resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// summarize groups forecast points by local date and keeps the days that
// fall within dates.
func summarize(fr forecastResponse, dates trip.DateRange) []DailyForecast {
	zone := time.FixedZone("local", fr.City.Timezone)
	first := civil(dates.Start)
	last := civil(dates.End)

	type bucket struct {
		day        DailyForecast
		temps      float64
		count      int
		conditions map[string]int
		order      []string
	}
	buckets := map[time.Time]*bucket{}

	for _, item := range fr.List {
		local := time.Unix(item.Dt, 0).In(zone)
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
		if day.Before(first) || day.After(last) {
			continue
		}

		b, ok := buckets[day]
		if !ok {
			b = &bucket{
				day:        DailyForecast{Date: day, MinTemp: item.Main.TempMin, MaxTemp: item.Main.TempMax},
				conditions: map[string]int{},
			}
			buckets[day] = b
		}
		b.temps += item.Main.Temp
		b.count++
		if item.Main.TempMin < b.day.MinTemp {
			b.day.MinTemp = item.Main.TempMin
		}
		if item.Main.TempMax > b.day.MaxTemp {
			b.day.MaxTemp = item.Main.TempMax
		}
		if pop := item.Pop * 100; pop > b.day.RainChance {
			b.day.RainChance = pop
		}
		if len(item.Weather) > 0 {
			desc := item.Weather[0].Description
			if b.conditions[desc] == 0 {
				b.order = append(b.order, desc)
			}
			b.conditions[desc]++
		}
	}

	days := make([]DailyForecast, 0, len(buckets))
	for _, b := range buckets {
		b.day.AvgTemp = b.temps / float64(b.count)
		b.day.Conditions = mostCommon(b.order, b.conditions)
		days = append(days, b.day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days
}

// mostCommon returns the most frequent value; ties go to the one seen first.
func mostCommon(order []string, counts map[string]int) string {
	best := ""
	for _, v := range order {
		if best == "" || counts[v] > counts[best] {
			best = v
		}
	}
	return best
}

func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
