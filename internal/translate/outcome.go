package translate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agurod42/outfox-health/internal/apperr"
)

// FallbackGuidance answers any model reply that cannot be decoded.
const FallbackGuidance = "I couldn't turn that into a safe price search. " +
	"Try, for example: 'Who is cheapest for DRG 470 within 25 miles of 10001?'"

// Outcome is either a SQLOutcome or a GuidanceOutcome.
type Outcome interface {
	isOutcome()
}

// SQLOutcome carries a candidate statement. It has not been validated.
type SQLOutcome struct {
	Query string
}

// GuidanceOutcome is a message for the user when no query was produced.
type GuidanceOutcome struct {
	Message  string
	FollowUp string
}

func (SQLOutcome) isOutcome()      {}
func (GuidanceOutcome) isOutcome() {}

type wireOutcome struct {
	Outcome  string  `json:"outcome"`
	SQL      *string `json:"sql"`
	Guidance *string `json:"guidance"`
	FollowUp *string `json:"follow_up"`
}

// Decode parses a model reply. Anything that is not a well-formed outcome
// object becomes GuidanceOutcome{Message: FallbackGuidance}.
func Decode(raw string) Outcome {
	o, err := decode(raw)
	if err != nil {
		return GuidanceOutcome{Message: FallbackGuidance}
	}
	return o
}

func decode(raw string) (Outcome, error) {
	body := stripFences(raw)
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.DisallowUnknownFields()
	var w wireOutcome
	if err := dec.Decode(&w); err != nil {
		return nil, malformed(err, "reply is not an outcome object")
	}
	if dec.More() {
		return nil, malformed(nil, "trailing data after outcome object")
	}

	switch w.Outcome {
	case "sql":
		q := strings.TrimSpace(deref(w.SQL))
		if q == "" {
			return nil, malformed(nil, "sql outcome without sql")
		}
		return SQLOutcome{Query: q}, nil
	case "guidance":
		msg := strings.TrimSpace(deref(w.Guidance))
		if msg == "" {
			msg = FallbackGuidance
		}
		return GuidanceOutcome{Message: msg, FollowUp: strings.TrimSpace(deref(w.FollowUp))}, nil
	default:
		return nil, malformed(nil, fmt.Sprintf("outcome %q is neither sql nor guidance", w.Outcome))
	}
}

func malformed(err error, msg string) error {
	if err != nil {
		return apperr.Wrap(apperr.KindMalformedTranslatorOutput, err, "%s", msg)
	}
	return apperr.New(apperr.KindMalformedTranslatorOutput, "%s", msg)
}

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx < 0 {
			return ""
		}
		s = s[idx+1:]
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
