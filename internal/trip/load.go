package trip

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type yamlInput struct {
	Destination string `yaml:"destination"`
	Dates       struct {
		StartDate string `yaml:"start_date"`
		EndDate   string `yaml:"end_date"`
	} `yaml:"dates"`
	Preferences struct {
		BudgetLevel         string   `yaml:"budget_level"`
		PacePreference      string   `yaml:"pace_preference"`
		Interests           []string `yaml:"interests"`
		DietaryRestrictions []string `yaml:"dietary_restrictions"`
		SpecialRequests     string   `yaml:"special_requests"`
	} `yaml:"preferences"`
	AdditionalDestinations []string `yaml:"additional_destinations"`
	ReferenceFiles         []string `yaml:"reference_files"`
}

// LoadFile reads trip parameters from a YAML file. The result is not validated.
func LoadFile(path string) (Parameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Parameters{}, fmt.Errorf("failed to read trip file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes trip parameters from YAML, applying the default budget and pace.
func Parse(data []byte) (Parameters, error) {
	var in yamlInput
	if err := yaml.Unmarshal(data, &in); err != nil {
		return Parameters{}, fmt.Errorf("failed to parse trip YAML: %w", err)
	}

	start, err := parseDate("dates.start_date", in.Dates.StartDate)
	if err != nil {
		return Parameters{}, err
	}
	end, err := parseDate("dates.end_date", in.Dates.EndDate)
	if err != nil {
		return Parameters{}, err
	}

	budget := BudgetTier(strings.ToLower(strings.TrimSpace(in.Preferences.BudgetLevel)))
	if budget == "" {
		budget = BudgetMid
	}
	pace := Pace(strings.ToLower(strings.TrimSpace(in.Preferences.PacePreference)))
	if pace == "" {
		pace = PaceModerate
	}
	// "fast-paced" is accepted as an alias seen in hand-written inputs.
	if pace == "fast-paced" {
		pace = PaceFast
	}

	return Parameters{
		Destination: strings.TrimSpace(in.Destination),
		Dates:       DateRange{Start: start, End: end},
		Preferences: Preferences{
			Budget:              budget,
			Pace:                pace,
			Interests:           in.Preferences.Interests,
			DietaryRestrictions: in.Preferences.DietaryRestrictions,
			SpecialRequests:     in.Preferences.SpecialRequests,
		},
		AdditionalDestinations: in.AdditionalDestinations,
		ReferenceFiles:         in.ReferenceFiles,
	}, nil
}

func parseDate(field, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, invalid(field, "%q is not a YYYY-MM-DD date", value)
	}
	return t, nil
}
