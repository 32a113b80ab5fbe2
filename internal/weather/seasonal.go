// Package weather provides a seasonal weather fallback for destinations
// when research does not report conditions for the travel dates.
package weather

import (
	"strings"
	"time"

	"ai-trip-planner/internal/trip"
)

type seasonal struct {
	temp       string
	conditions string
	season     string
}

var knownCities = map[string]map[time.Month]seasonal{
	"tokyo": {
		time.January:   {"5-10°C", "Cold, clear skies", "Winter"},
		time.February:  {"5-12°C", "Cold, occasional snow", "Winter"},
		time.March:     {"10-15°C", "Mild, cherry blossom season begins", "Spring"},
		time.April:     {"14-20°C", "Pleasant spring weather, cherry blossoms", "Spring"},
		time.May:       {"18-24°C", "Warm, occasional rain", "Spring/Summer"},
		time.June:      {"21-27°C", "Humid, rainy season begins", "Summer"},
		time.July:      {"25-31°C", "Hot and humid", "Summer"},
		time.August:    {"26-31°C", "Very hot and humid", "Summer"},
		time.September: {"22-27°C", "Warm, typhoon season", "Fall"},
		time.October:   {"17-22°C", "Pleasant, clear skies", "Fall"},
		time.November:  {"12-17°C", "Cool, fall foliage", "Fall"},
		time.December:  {"7-12°C", "Cold, dry", "Winter"},
	},
	"kyoto": {
		time.March:    {"8-14°C", "Mild, cherry blossom season", "Spring"},
		time.April:    {"13-20°C", "Pleasant, peak cherry blossoms", "Spring"},
		time.November: {"10-17°C", "Cool, stunning fall foliage", "Fall"},
	},
	"osaka": {
		time.March: {"9-15°C", "Mild spring weather", "Spring"},
		time.April: {"14-21°C", "Pleasant, cherry blossoms", "Spring"},
	},
}

// lookup order keeps the result stable when a destination names several cities
var cityOrder = []string{"kyoto", "osaka", "tokyo"}

func seasonFor(month time.Month) seasonal {
	switch month {
	case time.December, time.January, time.February:
		return seasonal{"Variable", "Winter", "Winter"}
	case time.March, time.April, time.May:
		return seasonal{"Variable", "Spring", "Spring"}
	case time.June, time.July, time.August:
		return seasonal{"Variable", "Summer", "Summer"}
	default:
		return seasonal{"Variable", "Fall/Autumn", "Fall"}
	}
}

func lookup(destination string, month time.Month) seasonal {
	dest := strings.ToLower(destination)

	for _, city := range cityOrder {
		if !strings.Contains(dest, city) {
			continue
		}
		if info, ok := knownCities[city][month]; ok {
			return info
		}
	}

	if strings.Contains(dest, "japan") {
		if info, ok := knownCities["tokyo"][month]; ok {
			return info
		}
	}

	return seasonFor(month)
}

// maxRecommendations caps the packing list.
const maxRecommendations = 6

// Seasonal returns typical weather for the month the trip starts in, with
// packing recommendations derived from it.
func Seasonal(destination string, dates trip.DateRange) trip.Weather {
	month := dates.Start.Month()
	info := lookup(destination, month)

	temp := strings.ToLower(info.temp)
	cond := strings.ToLower(info.conditions)
	dest := strings.ToLower(destination)

	var recs []string
	switch {
	case strings.Contains(temp, "cold") || strings.Contains(cond, "cold") ||
		month == time.December || month == time.January || month == time.February:
		recs = append(recs,
			"Pack warm layers and a winter jacket",
			"Bring gloves and scarf for cold weather",
			"Indoor attractions are popular - book ahead",
		)
	case strings.Contains(temp, "hot") || strings.Contains(cond, "hot"):
		recs = append(recs,
			"Light, breathable clothing recommended",
			"Sunscreen and hat essential",
			"Stay hydrated in hot weather",
			"Consider indoor activities during peak heat",
		)
	default:
		recs = append(recs, "Comfortable layers recommended for varying temperatures")
	}

	if strings.Contains(cond, "rain") || month == time.June || month == time.July {
		recs = append(recs, "Pack umbrella - rainy season")
	}

	japan := strings.Contains(dest, "tokyo") || strings.Contains(dest, "kyoto") || strings.Contains(dest, "japan")
	if strings.Contains(cond, "cherry blossom") || (japan && (month == time.March || month == time.April)) {
		recs = append(recs,
			"Cherry blossom season - book accommodations early",
			"Popular hanami spots will be crowded",
			"Perfect time for outdoor photography",
		)
	}

	if strings.Contains(cond, "fall foliage") || strings.Contains(cond, "autumn") {
		recs = append(recs, "Beautiful fall colors - great for photography")
	}

	recs = append(recs,
		"Check weather forecast closer to departure",
		"Comfortable walking shoes essential for sightseeing",
	)

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}

	return trip.Weather{
		TemperatureRange: info.temp,
		Conditions:       info.conditions,
		Season:           info.season,
		Packing:          recs,
	}
}
