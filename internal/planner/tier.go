package planner

import (
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// Tier is the capability tier a run is configured for.
type Tier int

const (
	// TierLenient suits small models: short checklist prompts and a low bar.
	TierLenient Tier = iota
	// TierStrict demands deeper prompts, more rounds and a higher bar.
	TierStrict
)

func (t Tier) String() string {
	switch t {
	case TierStrict:
		return "strict"
	default:
		return "lenient"
	}
}

// ErrUnknownTier is returned by ParseTier for unrecognized names.
var ErrUnknownTier = errors.New("unknown tier")

// ParseTier maps a configuration value to a Tier.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lenient", "lite", "simple":
		return TierLenient, nil
	case "strict", "pro", "advanced":
		return TierStrict, nil
	default:
		return TierLenient, fmt.Errorf("%w %q (want lenient or strict)", ErrUnknownTier, s)
	}
}

//go:embed prompts/*.md
var promptFS embed.FS

// TemplateSet holds the parsed prompts of one tier.
type TemplateSet struct {
	Name     string
	Research *template.Template
	Plan     *template.Template
	Review   *template.Template
}

var funcs = template.FuncMap{
	"join": strings.Join,
}

func mustTemplateSet(name string) TemplateSet {
	load := func(stage string) *template.Template {
		file := fmt.Sprintf("%s_%s.md", stage, name)
		return template.Must(template.New(file).Funcs(funcs).ParseFS(promptFS, "prompts/"+file))
	}
	return TemplateSet{
		Name:     name,
		Research: load("research"),
		Plan:     load("plan"),
		Review:   load("review"),
	}
}

var (
	simpleTemplates   = mustTemplateSet("simple")
	advancedTemplates = mustTemplateSet("advanced")
)

// Profile is everything a tier decides for a run. It is resolved once
// before the loop starts.
type Profile struct {
	Tier          Tier
	Templates     TemplateSet
	MaxIterations int
	Threshold     float64
	DefaultScore  float64
}

// ProfileFor returns the fixed profile of a tier.
func ProfileFor(t Tier) Profile {
	if t == TierStrict {
		return Profile{
			Tier:          TierStrict,
			Templates:     advancedTemplates,
			MaxIterations: 5,
			Threshold:     8.0,
			DefaultScore:  6.0,
		}
	}
	return Profile{
		Tier:          TierLenient,
		Templates:     simpleTemplates,
		MaxIterations: 3,
		Threshold:     7.0,
		DefaultScore:  7.0,
	}
}
