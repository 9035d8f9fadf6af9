package translate

import (
	"regexp"
	"strconv"
	"strings"
)

// Intent values.
const (
	IntentCost    = "cost"
	IntentQuality = "quality"
)

const kmPerMile = 1.609344

// Hints are request-scoped facts pulled from the question or supplied
// explicitly. They steer the model; nothing downstream requires them.
type Hints struct {
	DRG       string
	ZIP       string
	RadiusKm  float64 // 0 means absent
	Intent    string
	Procedure string
}

var (
	drgPattern       = regexp.MustCompile(`(?i)\bDRG\s*#?\s*(\d{3})\b`)
	zipPattern       = regexp.MustCompile(`\b(\d{5})\b`)
	radiusPattern    = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(miles|mile|mi|kilometers|kilometres|kilometer|kilometre|km)\b`)
	procedurePattern = regexp.MustCompile(`(?i)\bfor\s+(.+?)(?:\s+(?:within|near|in|around|close)\b|[?.,!;]|$)`)
	drgReference     = regexp.MustCompile(`(?i)^(ms-)?drg\b`)
	qualityWords     = regexp.MustCompile(`(?i)\b(best|rated|rating|ratings|quality|top|highest|reputation)\b`)
	costWords        = regexp.MustCompile(`(?i)\b(cheap|cheapest|cheaper|cost|costs|price|prices|pricing|expensive|affordable|lowest|charges?)\b`)
)

// ExtractHints pulls hints from question. Non-empty fields of overrides win
// over anything extracted.
func ExtractHints(question string, overrides Hints) Hints {
	var h Hints
	if m := drgPattern.FindStringSubmatch(question); m != nil {
		h.DRG = m[1]
	}
	// A DRG code is three digits, so any five-digit token is a ZIP candidate.
	if m := zipPattern.FindStringSubmatch(question); m != nil {
		h.ZIP = m[1]
	}
	if m := radiusPattern.FindStringSubmatch(question); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
			if strings.HasPrefix(strings.ToLower(m[2]), "mi") {
				v *= kmPerMile
			}
			h.RadiusKm = v
		}
	}
	if m := procedurePattern.FindStringSubmatch(question); m != nil {
		p := strings.TrimSpace(m[1])
		if p != "" && !drgReference.MatchString(p) {
			h.Procedure = p
		}
	}
	h.Intent = classifyIntent(question)

	if o := strings.TrimSpace(overrides.DRG); o != "" {
		h.DRG = o
	}
	if o := strings.TrimSpace(overrides.ZIP); o != "" {
		h.ZIP = o
	}
	if overrides.RadiusKm > 0 {
		h.RadiusKm = overrides.RadiusKm
	}
	if overrides.Intent != "" {
		h.Intent = overrides.Intent
	}
	if overrides.Procedure != "" {
		h.Procedure = overrides.Procedure
	}
	return h
}

// classifyIntent prefers cost when both kinds of keyword appear.
func classifyIntent(q string) string {
	switch {
	case costWords.MatchString(q):
		return IntentCost
	case qualityWords.MatchString(q):
		return IntentQuality
	}
	return ""
}

// IsZero reports whether no hint is set.
func (h Hints) IsZero() bool {
	return h == Hints{}
}

// String renders the hints as "key=value; ..." in a fixed order, or "none".
func (h Hints) String() string {
	var parts []string
	if h.DRG != "" {
		parts = append(parts, "drg="+h.DRG)
	}
	if h.ZIP != "" {
		parts = append(parts, "zip="+h.ZIP)
	}
	if h.RadiusKm > 0 {
		parts = append(parts, "radius_km="+strconv.FormatFloat(h.RadiusKm, 'f', 2, 64))
	}
	if h.Intent != "" {
		parts = append(parts, "intent="+h.Intent)
	}
	if h.Procedure != "" {
		parts = append(parts, "procedure="+h.Procedure)
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "; ")
}
