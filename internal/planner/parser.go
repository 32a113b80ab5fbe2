package planner

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ai-trip-planner/internal/trip"
	"ai-trip-planner/internal/weather"
)

// ResponseParser turns free-form generator replies into typed records.
// Implementations never fail: anything they cannot extract is replaced by
// a default and reported in the returned notes.
type ResponseParser interface {
	ParseResearch(text string, params trip.Parameters) (trip.ResearchFindings, []string)
	ParseDraft(text string, params trip.Parameters, research trip.ResearchFindings, version int) (trip.PlanDraft, []string)
	ParseReview(text string, iteration int) (trip.ReviewVerdict, []string)
}

// KeywordParser is the regex and keyword heuristic parser. It is lossy by
// nature: it reads what it recognizes and ignores the rest.
type KeywordParser struct {
	Profile Profile
}

// NewKeywordParser returns a parser using the tier's default score,
// threshold and iteration budget.
func NewKeywordParser(profile Profile) *KeywordParser {
	return &KeywordParser{Profile: profile}
}

var (
	scorePattern       = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)(?:/10| out of 10)`)
	temperaturePattern = regexp.MustCompile(`-?\d+\s*[-–]\s*-?\d+\s*°?\s*[CF]\b`)
	conditionsPattern  = regexp.MustCompile(`(?i)^conditions?\s*:\s*(.+)$`)
	bulletPattern      = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+(.+)$`)
	dayHeaderPattern   = regexp.MustCompile(`(?im)^[\s#*_>-]*day\s+(\d+)\b(.*)$`)
	slotPattern        = regexp.MustCompile(`(?i)^(morning|afternoon|evening)\b(?:\s*\([^)]*\))?\s*[:\-–]?\s*(.*)$`)
	mealPattern        = regexp.MustCompile(`(?i)^(breakfast|lunch|dinner)\b(?:\s*\([^)]*\))?\s*[:\-–]\s*(.+)$`)
	tipPattern         = regexp.MustCompile(`(?i)^(?:tip|note)s?\s*:\s*(.+)$`)
)

type issueCategory struct {
	label    string
	keywords []string
}

// issueCategories is the fixed review checklist.
var issueCategories = []issueCategory{
	{"Geographic routing issues", []string{"geographic", "routing", "backtrack"}},
	{"Too many activities", []string{"activity count", "too many activities", "activities per day"}},
	{"Missing costs", []string{"cost", "price"}},
	{"Doesn't match interests", []string{"interest"}},
	{"Timing unrealistic", []string{"timing", "rushed"}},
}

// ParseReview extracts score, approval and issues from a review reply.
func (p *KeywordParser) ParseReview(text string, iteration int) (trip.ReviewVerdict, []string) {
	var notes []string
	verdict := trip.ReviewVerdict{
		Narrative: text,
		Iteration: iteration,
		Issues:    []string{},
	}

	if score, ok := extractScore(text); ok {
		verdict.Score = score
		verdict.ScoreFound = true
	} else {
		verdict.Score = p.Profile.DefaultScore
		notes = append(notes, fmt.Sprintf("no score found, using default %.1f", p.Profile.DefaultScore))
	}

	byKeyword := hasApproval(text)
	byScore := verdict.ScoreFound && verdict.Score >= p.Profile.Threshold
	verdict.Approved = byKeyword || byScore

	if !verdict.Approved && iteration >= p.Profile.MaxIterations {
		verdict.Approved = true
		verdict.ForceApproved = true
	}

	verdict.Issues = extractIssues(text)
	return verdict, notes
}

func extractScore(text string) (float64, bool) {
	m := scorePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	score, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return clamp(score, 0, 10), true
}

// approvalKeywords are matched as plain substrings of the lowercased
// review; "approve" also covers "approved".
var approvalKeywords = []string{"approve", "looks good"}

func hasApproval(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range approvalKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func extractIssues(text string) []string {
	issues := []string{}
	flagged := make([]bool, len(issueCategories))

	for _, line := range strings.Split(strings.ToLower(text), "\n") {
		if !strings.Contains(line, "fail") {
			continue
		}
		for i, c := range issueCategories {
			if flagged[i] {
				continue
			}
			for _, kw := range c.keywords {
				if strings.Contains(line, kw) {
					flagged[i] = true
					break
				}
			}
		}
	}

	for i, c := range issueCategories {
		if flagged[i] {
			issues = append(issues, c.label)
		}
	}
	return issues
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type researchSection int

const (
	sectionNone researchSection = iota
	sectionAttractions
	sectionTips
	sectionPacking
)

// ParseResearch keeps the whole reply as the summary and picks attractions,
// tips and weather out of it.
func (p *KeywordParser) ParseResearch(text string, params trip.Parameters) (trip.ResearchFindings, []string) {
	var notes []string
	findings := trip.ResearchFindings{
		Destination: params.Destination,
		Summary:     text,
		Attractions: []string{},
		Tips:        []string{},
	}

	section := sectionNone
	for _, raw := range strings.Split(text, "\n") {
		line := cleanLine(raw)
		if line == "" {
			continue
		}

		if m := bulletPattern.FindStringSubmatch(line); m != nil {
			item := cleanLine(m[1])
			if rest, ok := cutPrefixFold(item, "pack:"); ok {
				findings.Weather.Packing = append(findings.Weather.Packing, splitList(rest)...)
				continue
			}
			if m := conditionsPattern.FindStringSubmatch(item); m != nil {
				findings.Weather.Conditions = strings.TrimSpace(m[1])
				continue
			}
			switch section {
			case sectionAttractions:
				findings.Attractions = append(findings.Attractions, item)
			case sectionTips:
				findings.Tips = append(findings.Tips, item)
			case sectionPacking:
				findings.Weather.Packing = append(findings.Weather.Packing, item)
			}
			continue
		}

		if m := conditionsPattern.FindStringSubmatch(line); m != nil {
			findings.Weather.Conditions = strings.TrimSpace(m[1])
			continue
		}

		if isHeading(raw) {
			section = classifyHeading(line)
		}
	}

	if t := temperaturePattern.FindString(text); t != "" {
		findings.Weather.TemperatureRange = t
	}
	findings.Weather.Source = weather.SourceResearchAgent

	if len(findings.Attractions) == 0 {
		notes = append(notes, "no attractions found")
	}

	if findings.Weather.TemperatureRange == "" || findings.Weather.Conditions == "" || len(findings.Weather.Packing) == 0 {
		notes = append(notes, "weather incomplete, using seasonal fallback")
		fallback := weather.Seasonal(params.Destination, params.Dates)
		if findings.Weather.TemperatureRange == "" {
			findings.Weather.TemperatureRange = fallback.TemperatureRange
		}
		if findings.Weather.Conditions == "" {
			findings.Weather.Conditions = fallback.Conditions
		}
		if len(findings.Weather.Packing) == 0 {
			findings.Weather.Packing = fallback.Packing
		}
		findings.Weather.Season = fallback.Season
		findings.Weather.Source = weather.SourceSeasonal
	}

	return findings, notes
}

func isHeading(raw string) bool {
	s := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(s, "#"):
		return true
	case strings.HasPrefix(s, "**") && strings.HasSuffix(strings.TrimSuffix(s, ":"), "**"):
		return true
	case strings.HasSuffix(s, ":") && !bulletPattern.MatchString(s):
		return true
	}
	return false
}

func classifyHeading(heading string) researchSection {
	h := strings.ToLower(heading)
	switch {
	case strings.Contains(h, "attraction") || strings.Contains(h, "must-see") || strings.Contains(h, "must see"):
		return sectionAttractions
	case strings.Contains(h, "tip"):
		return sectionTips
	case strings.Contains(h, "pack"):
		return sectionPacking
	default:
		return sectionNone
	}
}

// Default packing items appended to every itinerary.
var defaultPacking = []string{
	"Comfortable walking shoes",
	"Weather-appropriate clothing",
	"Travel adapter",
	"Portable charger",
}

// ParseDraft builds the structured view of an itinerary narrative. Days the
// narrative does not describe get placeholder activities so the draft
// always covers the whole date range.
func (p *KeywordParser) ParseDraft(text string, params trip.Parameters, research trip.ResearchFindings, version int) (trip.PlanDraft, []string) {
	var notes []string
	n := params.Dates.Days()
	budget := trip.EstimateBudget(params.Preferences.Budget, n)
	sections := splitDays(text)

	days := make([]trip.DayPlan, 0, n)
	var missing []string
	for i := 1; i <= n; i++ {
		section, ok := sections[i]
		if !ok {
			missing = append(missing, strconv.Itoa(i))
		}
		days = append(days, parseDay(i, params.Dates.Day(i), section, budget.PerDay))
	}
	if len(missing) > 0 {
		notes = append(notes, fmt.Sprintf("no narrative for day(s) %s, using placeholders", strings.Join(missing, ", ")))
	}

	draft := trip.NewPlanDraft(params.Destination, params.Dates, days, budget.Total, text)
	draft.Version = version
	draft.PackingList = mergeUnique(research.Weather.Packing, defaultPacking)
	draft.ImportantNotes = []string{
		fmt.Sprintf("Budget level: %s", params.Preferences.Budget),
		fmt.Sprintf("Pace: %s", params.Preferences.Pace),
		"Book popular attractions in advance",
	}
	return draft, notes
}

type daySection struct {
	title string
	lines []string
}

func splitDays(text string) map[int]daySection {
	sections := make(map[int]daySection)
	locs := dayHeaderPattern.FindAllStringSubmatchIndex(text, -1)

	for i, loc := range locs {
		idx, err := strconv.Atoi(text[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		if _, seen := sections[idx]; seen {
			continue
		}
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := text[loc[1]:end]
		sections[idx] = daySection{
			title: strings.Trim(cleanLine(text[loc[4]:loc[5]]), ":-–— "),
			lines: strings.Split(body, "\n"),
		}
	}
	return sections
}

func parseDay(index int, date time.Time, section daySection, perDay float64) trip.DayPlan {
	day := trip.DayPlan{
		Index:         index,
		Date:          date,
		Title:         section.title,
		Meals:         map[string]string{},
		EstimatedCost: perDay,
	}

	var slot *[]string
	for _, raw := range section.lines {
		line := cleanLine(raw)
		if line == "" {
			continue
		}
		item := line
		if m := bulletPattern.FindStringSubmatch(line); m != nil {
			item = cleanLine(m[1])
		}

		if m := slotPattern.FindStringSubmatch(item); m != nil {
			switch strings.ToLower(m[1]) {
			case "morning":
				slot = &day.Morning
			case "afternoon":
				slot = &day.Afternoon
			default:
				slot = &day.Evening
			}
			if rest := strings.TrimSpace(m[2]); rest != "" {
				*slot = append(*slot, rest)
			}
			continue
		}

		if m := mealPattern.FindStringSubmatch(item); m != nil {
			day.Meals[strings.ToLower(m[1])] = strings.TrimSpace(m[2])
			continue
		}

		if m := tipPattern.FindStringSubmatch(item); m != nil {
			day.Notes = append(day.Notes, strings.TrimSpace(m[1]))
			continue
		}

		if slot != nil && bulletPattern.MatchString(line) {
			*slot = append(*slot, item)
		}
	}

	if len(day.Morning) == 0 {
		day.Morning = []string{fmt.Sprintf("Morning activity %d.1", index), fmt.Sprintf("Morning activity %d.2", index)}
	}
	if len(day.Afternoon) == 0 {
		day.Afternoon = []string{fmt.Sprintf("Afternoon activity %d.1", index), fmt.Sprintf("Afternoon activity %d.2", index)}
	}
	if len(day.Evening) == 0 {
		day.Evening = []string{fmt.Sprintf("Evening activity %d.1", index)}
	}
	for _, meal := range []string{"breakfast", "lunch", "dinner"} {
		if _, ok := day.Meals[meal]; !ok {
			day.Meals[meal] = fmt.Sprintf("%s recommendation Day %d", strings.ToUpper(meal[:1])+meal[1:], index)
		}
	}
	day.Notes = append(day.Notes, fmt.Sprintf("Travel tip for day %d", index))
	return day
}

// cleanLine strips markdown decoration and surrounding whitespace.
func cleanLine(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "#>")
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	return strings.TrimSpace(s)
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return strings.TrimSpace(s[len(prefix):]), true
	}
	return s, false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func mergeUnique(lists ...[]string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, list := range lists {
		for _, item := range list {
			key := strings.ToLower(item)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}
