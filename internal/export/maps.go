package export

import (
	"net/url"
	"strings"
)

const (
	mapsSearchBase = "https://www.google.com/maps/search/?api=1&query="
	mapsDirBase    = "https://www.google.com/maps/dir/?api=1"
)

// Travel modes accepted by the directions link.
const (
	ModeTransit   = "transit"
	ModeWalking   = "walking"
	ModeDriving   = "driving"
	ModeBicycling = "bicycling"
)

// SearchURL links to a Google Maps search for query, optionally narrowed
// by a location such as the trip destination.
func SearchURL(query, location string) string {
	if location != "" {
		query = query + ", " + location
	}
	return mapsSearchBase + escape(query)
}

// DirectionsURL links to Google Maps directions between two places.
func DirectionsURL(origin, destination, mode string) string {
	if mode == "" {
		mode = ModeTransit
	}
	return mapsDirBase +
		"&origin=" + escape(origin) +
		"&destination=" + escape(destination) +
		"&travelmode=" + mode
}

// escape percent-encodes spaces as %20 rather than "+".
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// placeName extracts the place from an activity line such as
// "Senso-ji Temple - Asakusa - Free" or "Tokyo Skytree (2 hours, ¥2100)".
func placeName(activity string) string {
	name := activity
	if i := strings.Index(name, " - "); i > 0 {
		name = name[:i]
	}
	if i := strings.Index(name, " ("); i > 0 {
		name = name[:i]
	}
	name = strings.Trim(name, " *_:")
	if len(name) < 3 {
		return ""
	}
	return name
}
