// Package match selects the best-fit goal template for a loan's metadata.
package match

import (
	"strings"

	"loanline/internal/domain"
	"loanline/internal/store"
)

// LoanMetadata is the slice of loan fields the matcher looks at.
type LoanMetadata struct {
	Purpose        string
	Amount         float64
	PropertyType   string
	EstimatedValue float64
}

// FindBestMatchingTemplate picks a single template, first match wins. The
// precedence is deliberate: high-risk purposes and jumbo amounts escalate to
// the full underwriting plan regardless of other signals, remote-work
// verification is the one specialized carve-out, and everything else gets the
// baseline review. Reordering these rules changes which plan a loan receives.
func FindBestMatchingTemplate(meta LoanMetadata, templates []domain.GoalTemplate) (domain.GoalTemplate, bool) {
	if meta.Purpose == "construction" || meta.Purpose == "home_equity" {
		return byID(templates, store.TemplateFullUnderwriting)
	}
	if meta.Amount > 1_000_000 || meta.EstimatedValue > 1_500_000 {
		return byID(templates, store.TemplateFullUnderwriting)
	}
	if meta.PropertyType == "investment" {
		return byID(templates, store.TemplateRemoteWork)
	}
	return byID(templates, store.TemplateInitialReview)
}

func byID(templates []domain.GoalTemplate, id string) (domain.GoalTemplate, bool) {
	for _, t := range templates {
		if t.ID == id {
			return t, true
		}
	}
	return domain.GoalTemplate{}, false
}

// EvaluateRule checks a single catalog rule against the metadata. Rules are
// descriptive catalog annotations; the matcher above remains authoritative
// for template selection.
func EvaluateRule(rule domain.MatchRule, meta LoanMetadata) bool {
	switch rule.Field {
	case "loan_amount":
		return compareNumber(meta.Amount, rule)
	case "estimated_value":
		return compareNumber(meta.EstimatedValue, rule)
	case "property_type":
		return compareString(meta.PropertyType, rule)
	case "purpose":
		return compareString(meta.Purpose, rule)
	}
	return false
}

func compareNumber(v float64, rule domain.MatchRule) bool {
	want, ok := toFloat(rule.Value)
	if !ok {
		return false
	}
	switch rule.Operator {
	case ">":
		return v > want
	case "<":
		return v < want
	case ">=":
		return v >= want
	case "<=":
		return v <= want
	case "==":
		return v == want
	}
	return false
}

func compareString(v string, rule domain.MatchRule) bool {
	switch rule.Operator {
	case "==":
		s, ok := rule.Value.(string)
		return ok && s == v
	case "in":
		list, ok := rule.Value.([]any)
		if !ok {
			return false
		}
		for _, item := range list {
			if s, ok := item.(string); ok && s == v {
				return true
			}
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// ExtractDocumentMetadata infers loan metadata from an uploaded document's
// file name. This stands in for OCR extraction; the fallbacks mirror the
// values the import flow pre-fills.
func ExtractDocumentMetadata(fileName string) LoanMetadata {
	name := strings.ToLower(fileName)
	purpose := "purchase"
	switch {
	case strings.Contains(name, "purchase"):
		purpose = "purchase"
	case strings.Contains(name, "refi"):
		purpose = "refinance_rate_term"
	case strings.Contains(name, "construction"):
		purpose = "construction"
	}
	return LoanMetadata{
		Purpose:        purpose,
		Amount:         350_000,
		PropertyType:   "single_family",
		EstimatedValue: 500_000,
	}
}
