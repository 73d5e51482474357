package extractor

// Result is the outcome of classifying one utterance against one node's
// contract. It lives for a single turn; the engine folds its useful parts
// into the conversation state and discards it.
type Result struct {
	Valid         bool
	Value         any    // one of the typed answers below, nil when invalid
	Clarification string // shown to the caller when Valid is false
}

// BoolAnswer is a yes/no classification.
type BoolAnswer struct {
	Value bool `json:"value"`
}

// ScaleAnswer is a 1-10 rating.
type ScaleAnswer struct {
	Score int `json:"score"`
}

// PriceRange is a currency range in whole dollars. NotSure means the caller
// explicitly had no figure in mind; Min and Max are zero in that case.
// A single quoted figure yields Min == Max.
type PriceRange struct {
	Min     int64 `json:"min"`
	Max     int64 `json:"max"`
	NotSure bool  `json:"not_sure"`
}

// Rooms is a bedroom/bathroom count.
type Rooms struct {
	Bedrooms  int `json:"bedrooms"`
	Bathrooms int `json:"bathrooms"`
}

// OccupancyAnswer is "owner" or "tenant". Vacant properties classify as
// owner-occupied for branching purposes: there is no tenant to ask about.
type OccupancyAnswer struct {
	Status string `json:"status"`
}

const (
	OccupancyOwner  = "owner"
	OccupancyTenant = "tenant"
)

// LeaseAnswer is "annual" or "monthly".
type LeaseAnswer struct {
	Term string `json:"term"`
}

const (
	LeaseAnnual  = "annual"
	LeaseMonthly = "monthly"
)

// TimeframeAnswer is a date or loose timeframe kept as text.
type TimeframeAnswer struct {
	Text string `json:"text"`
}

// EmailAnswer is an address, or an explicit decline.
type EmailAnswer struct {
	Address  string `json:"address,omitempty"`
	Declined bool   `json:"declined,omitempty"`
}

// FreeTextAnswer is a non-trivial free-text response.
type FreeTextAnswer struct {
	Text string `json:"text"`
}

// GenericClarification is used when extraction fails and the node has no
// specific clarification text of its own.
const GenericClarification = "Sorry, I didn't quite catch that — could you rephrase?"
