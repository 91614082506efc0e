package store

import (
	"testing"

	"loanline/internal/domain"
)

func TestBuiltinTemplatesAreReadOnly(t *testing.T) {
	r := NewTemplateRepository()

	if _, ok := r.Update(TemplateInitialReview, domain.GoalTemplate{Name: "hijacked"}); ok {
		t.Fatalf("builtin update should fail")
	}
	if r.Delete(TemplateFullUnderwriting) {
		t.Fatalf("builtin delete should fail")
	}
	tpl, ok := r.Get(TemplateInitialReview)
	if !ok || tpl.Name != "Initial Loan Review" {
		t.Fatalf("builtin mutated: %+v", tpl)
	}
}

func TestSaveForcesCustomCategoryAndActive(t *testing.T) {
	r := NewTemplateRepository()
	saved := r.Save(domain.GoalTemplate{
		Name:  "My plan",
		Tasks: []domain.TaskDefinition{{Title: "Step"}},
	})

	if saved.ID == "" || saved.Category != "custom" || !saved.IsActive {
		t.Fatalf("save defaults wrong: %+v", saved)
	}
	if saved.Tasks[0].ID == "" {
		t.Fatalf("definition id not generated")
	}

	got, ok := r.Get(saved.ID)
	if !ok || got.Name != "My plan" {
		t.Fatalf("saved template not retrievable")
	}
}

func TestUpdateAndDeleteCustomTemplate(t *testing.T) {
	r := NewTemplateRepository()
	saved := r.Save(domain.GoalTemplate{Name: "Plan", Tasks: []domain.TaskDefinition{{Title: "Step"}}})

	updated, ok := r.Update(saved.ID, domain.GoalTemplate{
		Name:  "Plan v2",
		Tasks: []domain.TaskDefinition{{ID: "x", Title: "New step"}},
	})
	if !ok || updated.Name != "Plan v2" || len(updated.Tasks) != 1 {
		t.Fatalf("update failed: %+v", updated)
	}
	// empty category keeps the existing one
	if updated.Category != "custom" {
		t.Fatalf("category clobbered: %q", updated.Category)
	}

	if !r.Delete(saved.ID) {
		t.Fatalf("delete failed")
	}
	if _, ok := r.Get(saved.ID); ok {
		t.Fatalf("template still present after delete")
	}
}

func TestDuplicateCopiesAsCustom(t *testing.T) {
	r := NewTemplateRepository()
	dup, ok := r.Duplicate(TemplateRemoteWork)
	if !ok {
		t.Fatalf("duplicate failed")
	}
	if dup.Name != "Remote Work Verification (Copy)" || dup.Category != "custom" {
		t.Fatalf("unexpected duplicate: %+v", dup)
	}
	src, _ := r.Get(TemplateRemoteWork)
	if len(dup.Tasks) != len(src.Tasks) {
		t.Fatalf("task definitions not copied")
	}
	for i := range dup.Tasks {
		if dup.Tasks[i].ID == src.Tasks[i].ID {
			t.Fatalf("duplicate shares definition id with source")
		}
	}
}

func TestListBuiltinsFirst(t *testing.T) {
	r := NewTemplateRepository()
	r.Save(domain.GoalTemplate{Name: "Custom", Tasks: []domain.TaskDefinition{{Title: "Step"}}})

	list := r.List()
	if len(list) != 4 {
		t.Fatalf("expected 4 templates, got %d", len(list))
	}
	if list[0].ID != TemplateInitialReview || list[3].Name != "Custom" {
		t.Fatalf("unexpected order: %s ... %s", list[0].ID, list[3].Name)
	}
}
