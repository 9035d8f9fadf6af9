package search

import (
	"fmt"
	"strings"

	"github.com/agurod42/outfox-health/internal/model"
	"github.com/agurod42/outfox-health/internal/translate"
)

// NoMatchesAnswer is returned when a query ran but matched nothing.
const NoMatchesAnswer = "No providers matched your query."

// composeAnswer summarizes the first row, which the query ordered by the
// user's intent.
func composeAnswer(rows []model.ProviderOut, h translate.Hints) string {
	if len(rows) == 0 {
		return NoMatchesAnswer
	}
	top := rows[0]

	code := h.DRG
	if top.MsDrgCode != nil && *top.MsDrgCode != "" {
		code = *top.MsDrgCode
	}
	zip := h.ZIP
	if zip == "" {
		zip = top.Zip
	}

	var subject strings.Builder
	if h.Intent == translate.IntentQuality {
		subject.WriteString("Highest rated")
	} else {
		subject.WriteString("Cheapest")
	}
	if code != "" {
		fmt.Fprintf(&subject, " for DRG %s", code)
	}
	if zip != "" {
		fmt.Fprintf(&subject, " near %s", zip)
	}

	if h.Intent == translate.IntentQuality {
		if top.Rating == nil {
			return fmt.Sprintf("%s: %s (unrated)", subject.String(), top.ProviderName)
		}
		return fmt.Sprintf("%s: %s (rating %d/10)", subject.String(), top.ProviderName, *top.Rating)
	}
	if top.AvgCoveredCharges == nil {
		return fmt.Sprintf("%s: %s (no covered charges reported)", subject.String(), top.ProviderName)
	}
	return fmt.Sprintf("%s: %s with avg covered charges $%s", subject.String(), top.ProviderName, top.AvgCoveredCharges.StringFixed(2))
}
