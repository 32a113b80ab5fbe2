package trip

// DailyCosts is the per-day spend of a budget tier, in USD.
type DailyCosts struct {
	Accommodation float64 `json:"accommodation"`
	Food          float64 `json:"food"`
	Activities    float64 `json:"activities"`
	Transport     float64 `json:"transport"`
}

// Total returns the sum of all categories.
func (c DailyCosts) Total() float64 {
	return c.Accommodation + c.Food + c.Activities + c.Transport
}

var dailyCostTable = map[BudgetTier]DailyCosts{
	BudgetLow:    {Accommodation: 50, Food: 30, Activities: 20, Transport: 15},
	BudgetMid:    {Accommodation: 120, Food: 60, Activities: 50, Transport: 30},
	BudgetLuxury: {Accommodation: 300, Food: 150, Activities: 150, Transport: 80},
}

var flightEstimates = map[BudgetTier]float64{
	BudgetLow:    500,
	BudgetMid:    800,
	BudgetLuxury: 1500,
}

// Budget is the cost estimate of a whole trip.
type Budget struct {
	PerDay    float64    `json:"per_day"`
	Subtotal  float64    `json:"subtotal"`
	Flights   float64    `json:"flights"`
	Total     float64    `json:"total"`
	Breakdown DailyCosts `json:"breakdown"`
}

// CostsFor returns the daily costs of a tier. Unknown tiers fall back to mid-range.
func CostsFor(tier BudgetTier) DailyCosts {
	if c, ok := dailyCostTable[tier]; ok {
		return c
	}
	return dailyCostTable[BudgetMid]
}

// EstimateBudget computes the trip total as per-day spend times days plus flights.
func EstimateBudget(tier BudgetTier, days int) Budget {
	costs := CostsFor(tier)
	flights, ok := flightEstimates[tier]
	if !ok {
		flights = flightEstimates[BudgetMid]
	}

	n := float64(days)
	perDay := costs.Total()
	subtotal := perDay * n

	return Budget{
		PerDay:   perDay,
		Subtotal: subtotal,
		Flights:  flights,
		Total:    subtotal + flights,
		Breakdown: DailyCosts{
			Accommodation: costs.Accommodation * n,
			Food:          costs.Food * n,
			Activities:    costs.Activities * n,
			Transport:     costs.Transport * n,
		},
	}
}
