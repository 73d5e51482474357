package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/propline/coldcall/internal/script"
)

// Deterministic keyword/regex extraction. This is the fail-safe strategy
// behind Extract: it needs no network and is the reference implementation
// the tests pin down. All matching is case-insensitive on word boundaries.

var (
	negativeRe = regexp.MustCompile(`(?i)\b(?:no|nope|not really|never|nah|negative|i don'?t|i haven'?t|not yet)\b`)
	positiveRe = regexp.MustCompile(`(?i)\b(?:yes|yeah|sure|definitely|absolutely|yep|yup|correct|right|true|i do|i am|i have)\b`)

	scaleDigitRe = regexp.MustCompile(`\b(10|[1-9])\b`)

	notSureRe  = regexp.MustCompile(`(?i)\b(?:not sure|don'?t know|no idea|unsure|haven'?t decided)\b`)
	rangeRe    = regexp.MustCompile(`(?i)\$?\s*(\d+(?:,\d{3})*(?:\.\d+)?)\s*(k|thousand|m|million)?\s*(?:-|to|and)\s*\$?\s*(\d+(?:,\d{3})*(?:\.\d+)?)\s*(k|thousand|m|million)?\b`)
	oneAmountRe = regexp.MustCompile(`(?i)\$?\s*(\d+(?:,\d{3})*(?:\.\d+)?)\s*(k|thousand|m|million)?\b`)

	bedBathRe  = regexp.MustCompile(`(?i)\b(\d+)\s*bed(?:room)?s?\s*(?:and|,|/|\s)\s*(\d+)\s*bath(?:room)?s?\b`)
	roomPairRe = regexp.MustCompile(`\b(\d+)\s*[/ ]\s*(\d+)\b`)
	bedOnlyRe  = regexp.MustCompile(`(?i)\b(\d+)\s*bed(?:room)?s?\b`)
	bathOnlyRe = regexp.MustCompile(`(?i)\b(\d+)\s*bath(?:room)?s?\b`)
	numberRe   = regexp.MustCompile(`\d+`)

	tenantRe = regexp.MustCompile(`(?i)\b(?:tenant|renter|renting|rent|leased)\b`)
	ownerRe  = regexp.MustCompile(`(?i)\b(?:owner|myself|me|i live|we live|occupied by me|my home|vacant|empty)\b`)

	annualRe  = regexp.MustCompile(`(?i)\b(?:annual|yearly|year|12 month|one year)\b`)
	monthlyRe = regexp.MustCompile(`(?i)\b(?:month-to-month|monthly|month|mtm)\b`)

	slashDateRe = regexp.MustCompile(`\b\d{1,2}/\d{1,2}(?:/\d{2,4})?\b`)
	monthNameRe = regexp.MustCompile(`(?i)\b(?:january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept?|oct|nov|dec)\b`)
	relTimeRe   = regexp.MustCompile(`(?i)\b\d+\s*(?:months?|weeks?|days?)\b`)
	timePhraseRe = regexp.MustCompile(`(?i)\b(?:next month|next year|end of year|soon)\b`)

	emailRe        = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	emailDeclineRe = regexp.MustCompile(`(?i)\b(?:no|none|don'?t have|prefer not|skip)\b`)
)

// scaleWords maps descriptive condition words to a 1-10 score. Order matters:
// "very good" must win over "good".
var scaleWords = []struct {
	re    *regexp.Regexp
	score int
}{
	{regexp.MustCompile(`(?i)\bexcellent\b`), 10},
	{regexp.MustCompile(`(?i)\bperfect\b`), 10},
	{regexp.MustCompile(`(?i)\bgreat\b`), 9},
	{regexp.MustCompile(`(?i)\bvery good\b`), 8},
	{regexp.MustCompile(`(?i)\bgood\b`), 7},
	{regexp.MustCompile(`(?i)\bdecent\b`), 6},
	{regexp.MustCompile(`(?i)\bokay\b`), 6},
	{regexp.MustCompile(`(?i)\bok\b`), 6},
	{regexp.MustCompile(`(?i)\bfair\b`), 5},
	{regexp.MustCompile(`(?i)\baverage\b`), 5},
	{regexp.MustCompile(`(?i)\bneeds work\b`), 4},
	{regexp.MustCompile(`(?i)\bpoor\b`), 3},
	{regexp.MustCompile(`(?i)\bbad\b`), 2},
	{regexp.MustCompile(`(?i)\bterrible\b`), 1},
}

// Fallback classifies an utterance against a contract using the deterministic
// heuristics only.
func Fallback(q script.Question, utterance string) Result {
	switch q.Contract {
	case script.ContractBoolean:
		return fallbackBoolean(q, utterance)
	case script.ContractScale:
		return fallbackScale(q, utterance)
	case script.ContractPrice:
		return fallbackPrice(q, utterance)
	case script.ContractRooms:
		return fallbackRooms(q, utterance)
	case script.ContractOccupancy:
		return fallbackOccupancy(q, utterance)
	case script.ContractLease:
		return fallbackLease(q, utterance)
	case script.ContractTimeframe:
		return fallbackTimeframe(q, utterance)
	case script.ContractEmail:
		return fallbackEmail(q, utterance)
	case script.ContractFreeText:
		return fallbackFreeText(q, utterance)
	default:
		return invalid(q)
	}
}

func invalid(q script.Question) Result {
	c := q.Clarification
	if c == "" {
		c = GenericClarification
	}
	return Result{Valid: false, Clarification: c}
}

func fallbackBoolean(q script.Question, s string) Result {
	// Negatives win: "not really sure" must not read as a yes.
	if negativeRe.MatchString(s) {
		return Result{Valid: true, Value: BoolAnswer{Value: false}}
	}
	if positiveRe.MatchString(s) {
		return Result{Valid: true, Value: BoolAnswer{Value: true}}
	}
	return invalid(q)
}

func fallbackScale(q script.Question, s string) Result {
	if m := scaleDigitRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return Result{Valid: true, Value: ScaleAnswer{Score: n}}
	}
	for _, w := range scaleWords {
		if w.re.MatchString(s) {
			return Result{Valid: true, Value: ScaleAnswer{Score: w.score}}
		}
	}
	return invalid(q)
}

func fallbackPrice(q script.Question, s string) Result {
	if notSureRe.MatchString(s) {
		return Result{Valid: true, Value: PriceRange{NotSure: true}}
	}
	if m := rangeRe.FindStringSubmatch(s); m != nil {
		min := normalizeAmount(m[1], m[2])
		max := normalizeAmount(m[3], m[4])
		if min > max {
			min, max = max, min
		}
		return Result{Valid: true, Value: PriceRange{Min: min, Max: max}}
	}
	if m := oneAmountRe.FindStringSubmatch(s); m != nil {
		v := normalizeAmount(m[1], m[2])
		return Result{Valid: true, Value: PriceRange{Min: v, Max: v}}
	}
	return invalid(q)
}

// normalizeAmount strips commas and applies the k/m/thousand/million suffix.
func normalizeAmount(num, suffix string) int64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", ""), 64)
	if err != nil {
		return 0
	}
	switch strings.ToLower(suffix) {
	case "k", "thousand":
		v *= 1_000
	case "m", "million":
		v *= 1_000_000
	}
	return int64(v)
}

func fallbackRooms(q script.Question, s string) Result {
	if m := bedBathRe.FindStringSubmatch(s); m != nil {
		return roomsResult(m[1], m[2])
	}
	if m := roomPairRe.FindStringSubmatch(s); m != nil {
		return roomsResult(m[1], m[2])
	}
	bed := bedOnlyRe.FindStringSubmatch(s)
	bath := bathOnlyRe.FindStringSubmatch(s)
	if bed != nil && bath != nil {
		return roomsResult(bed[1], bath[1])
	}
	// Last resort: first two numbers anywhere in the text.
	if nums := numberRe.FindAllString(s, 2); len(nums) == 2 {
		return roomsResult(nums[0], nums[1])
	}
	return invalid(q)
}

func roomsResult(bed, bath string) Result {
	b, _ := strconv.Atoi(bed)
	ba, _ := strconv.Atoi(bath)
	return Result{Valid: true, Value: Rooms{Bedrooms: b, Bathrooms: ba}}
}

func fallbackOccupancy(q script.Question, s string) Result {
	if tenantRe.MatchString(s) {
		return Result{Valid: true, Value: OccupancyAnswer{Status: OccupancyTenant}}
	}
	if ownerRe.MatchString(s) {
		return Result{Valid: true, Value: OccupancyAnswer{Status: OccupancyOwner}}
	}
	return invalid(q)
}

func fallbackLease(q script.Question, s string) Result {
	// Annual first: "12 month lease" must not classify as monthly.
	if annualRe.MatchString(s) {
		return Result{Valid: true, Value: LeaseAnswer{Term: LeaseAnnual}}
	}
	if monthlyRe.MatchString(s) {
		return Result{Valid: true, Value: LeaseAnswer{Term: LeaseMonthly}}
	}
	return invalid(q)
}

func fallbackTimeframe(q script.Question, s string) Result {
	trimmed := strings.TrimSpace(s)
	if slashDateRe.MatchString(trimmed) ||
		monthNameRe.MatchString(trimmed) ||
		relTimeRe.MatchString(trimmed) ||
		timePhraseRe.MatchString(trimmed) {
		return Result{Valid: true, Value: TimeframeAnswer{Text: trimmed}}
	}
	// Any non-trivial text counts as a general timeframe.
	if len(trimmed) > 2 {
		return Result{Valid: true, Value: TimeframeAnswer{Text: trimmed}}
	}
	return invalid(q)
}

func fallbackEmail(q script.Question, s string) Result {
	if m := emailRe.FindString(s); m != "" {
		return Result{Valid: true, Value: EmailAnswer{Address: m}}
	}
	if emailDeclineRe.MatchString(s) {
		return Result{Valid: true, Value: EmailAnswer{Declined: true}}
	}
	return invalid(q)
}

func fallbackFreeText(q script.Question, s string) Result {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) > 2 {
		return Result{Valid: true, Value: FreeTextAnswer{Text: trimmed}}
	}
	return invalid(q)
}
