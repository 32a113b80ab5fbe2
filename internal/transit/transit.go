// Package transit holds local transit pass guidance for the destinations
// it knows, formatted for the planning prompt.
package transit

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed guides.yaml
var guidesYAML []byte

// Pass is one transit pass or ticket option.
type Pass struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Cost     string `yaml:"cost"`
	Coverage string `yaml:"coverage"`
	HowToGet string `yaml:"how_to_get"`
	Notes    string `yaml:"notes"`
	Booking  string `yaml:"booking"`
}

// CityGuide is the transit guidance for one place.
type CityGuide struct {
	Key             string   `yaml:"key"`
	Passes          []Pass   `yaml:"passes"`
	InterCity       []Pass   `yaml:"inter_city"`
	Recommendations []string `yaml:"recommendations"`
}

var guides = mustLoad(guidesYAML)

func mustLoad(data []byte) []CityGuide {
	var g []CityGuide
	if err := yaml.Unmarshal(data, &g); err != nil {
		panic(fmt.Sprintf("transit: invalid guides.yaml: %v", err))
	}
	return g
}

// generalAdvice is given for places without specific data.
var generalAdvice = []string{
	"Look for rechargeable IC cards (like Suica in Tokyo)",
	"Many cities offer day passes for unlimited transit",
	"Google Maps usually shows best public transit routes",
}

// Lookup finds the guide whose key appears in city, or the other way round.
func Lookup(city string) (CityGuide, bool) {
	c := strings.ToLower(strings.TrimSpace(city))
	if c == "" {
		return CityGuide{}, false
	}
	for _, g := range guides {
		if strings.Contains(c, g.Key) || strings.Contains(g.Key, c) {
			return g, true
		}
	}
	return CityGuide{}, false
}

// Guide returns the transit section of the planning prompt. Multi-city
// trips in Japan get the inter-city strategy; everything else gets the
// guide of the main destination.
func Guide(destination string, additional []string) string {
	cities := append([]string{destination}, additional...)
	if len(cities) > 1 && strings.Contains(strings.ToLower(destination), "japan") {
		return JapanOverview(cities)
	}
	return CityGuideText(destination)
}

// CityGuideText formats the passes, inter-city options and
// recommendations for city.
func CityGuideText(city string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Transportation Guide for %s**\n\n", city)

	g, ok := Lookup(city)
	if !ok {
		b.WriteString("No specific transit pass data available. Check local tourism websites.\n")
		for _, advice := range generalAdvice {
			fmt.Fprintf(&b, "- %s\n", advice)
		}
		return b.String()
	}

	if len(g.Passes) > 0 {
		b.WriteString("**Transit Pass Options:**\n\n")
		for _, p := range g.Passes {
			writePass(&b, p)
		}
	}
	if len(g.InterCity) > 0 {
		b.WriteString("**Inter-City Travel:**\n\n")
		for _, p := range g.InterCity {
			writePass(&b, p)
		}
	}
	if len(g.Recommendations) > 0 {
		b.WriteString("**Recommendations:**\n")
		for _, r := range g.Recommendations {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}
	return b.String()
}

func writePass(b *strings.Builder, p Pass) {
	fmt.Fprintf(b, "**%s**\n", p.Name)
	fmt.Fprintf(b, "- Type: %s\n", p.Type)
	fmt.Fprintf(b, "- Cost: %s\n", p.Cost)
	fmt.Fprintf(b, "- Coverage: %s\n", p.Coverage)
	if p.HowToGet != "" {
		fmt.Fprintf(b, "- Where to buy: %s\n", p.HowToGet)
	}
	if p.Booking != "" {
		fmt.Fprintf(b, "- Booking: %s\n", p.Booking)
	}
	fmt.Fprintf(b, "- Notes: %s\n\n", p.Notes)
}

// JapanOverview is the transit strategy for a multi-city Japan trip: JR
// Pass against individual Shinkansen tickets, then the main local pass of
// each city.
func JapanOverview(cities []string) string {
	var b strings.Builder
	b.WriteString("**Japan Transportation Strategy**\n\n")

	if len(cities) > 1 {
		b.WriteString("**Inter-City Travel (Shinkansen):**\n\n")
		b.WriteString("**JR Pass**: ¥50,000 (7-day) or ¥80,000 (14-day)\n")
		b.WriteString("- Unlimited JR trains including most Shinkansen\n")
		b.WriteString("- **Worth it if**: Tokyo-Kyoto-Osaka + additional trips\n")
		b.WriteString("- **Not worth it if**: Only doing Tokyo-Kyoto round trip (¥26,000 total)\n")
		b.WriteString("- **IMPORTANT**: Must buy BEFORE arriving in Japan\n")
		b.WriteString("- Booking: Purchase online 3 months to 1 week before departure\n\n")

		b.WriteString("**Individual Ticket Costs** (for comparison):\n")
		b.WriteString("- Tokyo → Kyoto: ¥13,320 (2h 15m)\n")
		b.WriteString("- Kyoto → Osaka: ¥560 (30 min)\n")
		b.WriteString("- Osaka → Tokyo: ¥13,870 (2h 30m)\n\n")
	}

	for _, city := range cities {
		g, ok := Lookup(city)
		if !ok || len(g.Passes) == 0 {
			continue
		}
		main := g.Passes[0]
		fmt.Fprintf(&b, "**In %s:**\n", city)
		fmt.Fprintf(&b, "- Get a **%s** (%s) for local transit\n", main.Name, main.Cost)
	}

	b.WriteString("\n**General Tips:**\n")
	b.WriteString("- IC cards (Suica/ICOCA) work nationwide in Japan\n")
	b.WriteString("- Google Maps is accurate for Japanese transit\n")
	b.WriteString("- Trains are punctual - arrive 5 minutes early\n")
	b.WriteString("- Reserve Shinkansen seats during peak season\n")
	return b.String()
}
