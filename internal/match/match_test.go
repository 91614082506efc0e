package match

import (
	"testing"

	"loanline/internal/domain"
	"loanline/internal/store"
)

func TestFindBestMatchingTemplatePrecedence(t *testing.T) {
	templates := store.BuiltinTemplates()
	cases := []struct {
		name string
		meta LoanMetadata
		want string
	}{
		{"construction escalates", LoanMetadata{Purpose: "construction", Amount: 100_000}, store.TemplateFullUnderwriting},
		{"home equity escalates", LoanMetadata{Purpose: "home_equity"}, store.TemplateFullUnderwriting},
		{"jumbo amount escalates", LoanMetadata{Purpose: "purchase", Amount: 1_200_000}, store.TemplateFullUnderwriting},
		{"high value escalates", LoanMetadata{Purpose: "purchase", EstimatedValue: 2_000_000}, store.TemplateFullUnderwriting},
		{"investment property gets remote work", LoanMetadata{Purpose: "purchase", PropertyType: "investment", Amount: 400_000}, store.TemplateRemoteWork},
		{"baseline gets initial review", LoanMetadata{Purpose: "purchase", PropertyType: "single_family", Amount: 350_000}, store.TemplateInitialReview},
		// purpose outranks property type
		{"construction investment still escalates", LoanMetadata{Purpose: "construction", PropertyType: "investment"}, store.TemplateFullUnderwriting},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := FindBestMatchingTemplate(tc.meta, templates)
			if !ok {
				t.Fatalf("no template matched")
			}
			if got.ID != tc.want {
				t.Fatalf("got %s, want %s", got.ID, tc.want)
			}
		})
	}
}

func TestFindBestMatchingTemplateMissingCatalog(t *testing.T) {
	if _, ok := FindBestMatchingTemplate(LoanMetadata{Purpose: "purchase"}, nil); ok {
		t.Fatalf("expected no match with empty catalog")
	}
}

func TestEvaluateRule(t *testing.T) {
	meta := LoanMetadata{Purpose: "purchase", Amount: 500_000, PropertyType: "condo", EstimatedValue: 650_000}
	cases := []struct {
		rule domain.MatchRule
		want bool
	}{
		{domain.MatchRule{Field: "loan_amount", Operator: "<=", Value: 1000000}, true},
		{domain.MatchRule{Field: "loan_amount", Operator: ">", Value: 1000000}, false},
		{domain.MatchRule{Field: "loan_amount", Operator: ">=", Value: 500000}, true},
		{domain.MatchRule{Field: "estimated_value", Operator: "<", Value: 700000}, true},
		{domain.MatchRule{Field: "property_type", Operator: "==", Value: "condo"}, true},
		{domain.MatchRule{Field: "property_type", Operator: "in", Value: []any{"single_family", "condo"}}, true},
		{domain.MatchRule{Field: "property_type", Operator: "in", Value: []any{"commercial"}}, false},
		{domain.MatchRule{Field: "purpose", Operator: "==", Value: "refinance_cash_out"}, false},
		{domain.MatchRule{Field: "unknown", Operator: "==", Value: "x"}, false},
		{domain.MatchRule{Field: "loan_amount", Operator: "==", Value: "not-a-number"}, false},
	}
	for i, tc := range cases {
		if got := EvaluateRule(tc.rule, meta); got != tc.want {
			t.Fatalf("case %d: rule %+v got %v, want %v", i, tc.rule, got, tc.want)
		}
	}
}

func TestExtractDocumentMetadata(t *testing.T) {
	cases := []struct {
		file string
		want string
	}{
		{"Purchase_Agreement_Andy.pdf", "purchase"},
		{"refi-application.pdf", "refinance_rate_term"},
		{"new-construction-plan.pdf", "construction"},
		{"statement.pdf", "purchase"},
	}
	for _, tc := range cases {
		meta := ExtractDocumentMetadata(tc.file)
		if meta.Purpose != tc.want {
			t.Fatalf("%s: got purpose %s, want %s", tc.file, meta.Purpose, tc.want)
		}
		if meta.Amount != 350_000 || meta.EstimatedValue != 500_000 || meta.PropertyType != "single_family" {
			t.Fatalf("%s: fallbacks wrong: %+v", tc.file, meta)
		}
	}
}
