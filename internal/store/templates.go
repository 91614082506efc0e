package store

import (
	"sync"

	"github.com/google/uuid"

	"loanline/internal/domain"
)

// Builtin template ids referenced by the matching rules.
const (
	TemplateInitialReview    = "template-initial-review"
	TemplateRemoteWork       = "template-remote-work"
	TemplateFullUnderwriting = "template-full-underwriting"
)

// TemplateRepository owns the goal template catalog: the builtin automation
// plans plus user-saved custom templates. State is per-instance, never
// process-global, so independent repositories do not leak into each other.
type TemplateRepository struct {
	mu        sync.RWMutex
	templates []domain.GoalTemplate
}

func NewTemplateRepository() *TemplateRepository {
	return &TemplateRepository{templates: BuiltinTemplates()}
}

// BuiltinTemplates returns the catalog the repository is seeded with.
func BuiltinTemplates() []domain.GoalTemplate {
	return []domain.GoalTemplate{
		{
			ID:          TemplateInitialReview,
			Name:        "Initial Loan Review",
			Description: "Complete initial review of loan application including credit check, document review, and property verification.",
			Category:    "standard",
			Rules: []domain.MatchRule{
				{Field: "loan_amount", Operator: "<=", Value: 1000000},
				{Field: "property_type", Operator: "in", Value: []any{"single_family", "condo", "townhouse"}},
			},
			Tasks: []domain.TaskDefinition{
				{ID: "tt1", Type: "credit_check", Title: "Review Credit Report", Description: "Review credit score, history, and recent inquiries", AutoExecute: true},
				{ID: "tt2", Type: "document_review", Title: "Review Income Documents", Description: "Verify W2s, paystubs, and tax returns", AutoExecute: true},
				{ID: "tt3", Type: "property_link", Title: "Link Properties", Description: "Link mortgage liabilities to respective properties", AutoExecute: true},
			},
			IsActive: true,
		},
		{
			ID:          TemplateRemoteWork,
			Name:        "Remote Work Verification",
			Description: "Verify remote work arrangement and distance to employer.",
			Category:    "verification",
			Rules: []domain.MatchRule{
				{Field: "property_type", Operator: "in", Value: []any{"investment", "secondary"}},
			},
			Tasks: []domain.TaskDefinition{
				{ID: "tt4", Type: "distance_check", Title: "Check Distance to Employer", Description: "Calculate distance between subject property and employer address", AutoExecute: true, Condition: "If distance > 50 miles, request LOE for remote work"},
				{ID: "tt5", Type: "income_verification", Title: "Verify Employment", Description: "Contact employer to verify employment status and remote work arrangement", AutoExecute: false},
			},
			IsActive: true,
		},
		{
			ID:          TemplateFullUnderwriting,
			Name:        "Full Underwriting Review",
			Description: "Complete comprehensive underwriting review of all loan aspects.",
			Category:    "comprehensive",
			Rules: []domain.MatchRule{
				{Field: "loan_amount", Operator: ">", Value: 1000000},
			},
			Tasks: []domain.TaskDefinition{
				{ID: "tt6", Type: "credit_check", Title: "Credit Analysis", Description: "Complete credit analysis including inquiries and derogatory items", AutoExecute: true},
				{ID: "tt7", Type: "document_review", Title: "Document Verification", Description: "Verify all required documents are present and valid", AutoExecute: true},
				{ID: "tt8", Type: "income_verification", Title: "Income Calculation", Description: "Calculate qualifying income from all sources", AutoExecute: true},
				{ID: "tt9", Type: "property_link", Title: "Property Analysis", Description: "Analyze all properties and linked liabilities", AutoExecute: true},
			},
			IsActive: true,
		},
	}
}

func isBuiltinTemplate(id string) bool {
	switch id {
	case TemplateInitialReview, TemplateRemoteWork, TemplateFullUnderwriting:
		return true
	}
	return false
}

// Get returns the template by id; absence is not an error.
func (r *TemplateRepository) Get(id string) (domain.GoalTemplate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.templates {
		if t.ID == id {
			return t, true
		}
	}
	return domain.GoalTemplate{}, false
}

// List returns the catalog snapshot, builtins first then saved templates.
func (r *TemplateRepository) List() []domain.GoalTemplate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.GoalTemplate, len(r.templates))
	copy(out, r.templates)
	return out
}

// Save stores a custom template, assigning an id and forcing the custom
// category when none is set. Definitions without ids get generated ones.
func (r *TemplateRepository) Save(t domain.GoalTemplate) domain.GoalTemplate {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = "template-" + uuid.New().String()
	if t.Category == "" {
		t.Category = "custom"
	}
	t.IsActive = true
	for i := range t.Tasks {
		if t.Tasks[i].ID == "" {
			t.Tasks[i].ID = uuid.New().String()
		}
	}
	next := make([]domain.GoalTemplate, 0, len(r.templates)+1)
	next = append(next, r.templates...)
	next = append(next, t)
	r.templates = next
	return t
}

// Update replaces a saved template's mutable fields. Builtins are read-only.
func (r *TemplateRepository) Update(id string, t domain.GoalTemplate) (domain.GoalTemplate, bool) {
	if isBuiltinTemplate(id) {
		return domain.GoalTemplate{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cur := range r.templates {
		if cur.ID != id {
			continue
		}
		cur.Name = t.Name
		cur.Description = t.Description
		if t.Category != "" {
			cur.Category = t.Category
		}
		cur.Rules = t.Rules
		cur.Tasks = t.Tasks
		cur.IsActive = t.IsActive
		next := make([]domain.GoalTemplate, len(r.templates))
		copy(next, r.templates)
		next[i] = cur
		r.templates = next
		return cur, true
	}
	return domain.GoalTemplate{}, false
}

// Delete removes a saved template. Builtins cannot be deleted.
func (r *TemplateRepository) Delete(id string) bool {
	if isBuiltinTemplate(id) {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	next := make([]domain.GoalTemplate, 0, len(r.templates))
	found := false
	for _, t := range r.templates {
		if t.ID == id {
			found = true
			continue
		}
		next = append(next, t)
	}
	r.templates = next
	return found
}

// Duplicate copies an existing template into a new saved one.
func (r *TemplateRepository) Duplicate(id string) (domain.GoalTemplate, bool) {
	src, ok := r.Get(id)
	if !ok {
		return domain.GoalTemplate{}, false
	}
	dup := domain.GoalTemplate{
		Name:        src.Name + " (Copy)",
		Description: src.Description,
		Category:    "custom",
		Rules:       src.Rules,
		Tasks:       make([]domain.TaskDefinition, len(src.Tasks)),
	}
	copy(dup.Tasks, src.Tasks)
	for i := range dup.Tasks {
		dup.Tasks[i].ID = ""
	}
	return r.Save(dup), true
}
