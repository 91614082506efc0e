package store

import (
	"strings"
	"testing"
	"time"

	"loanline/internal/domain"
)

func fixedNow() func() time.Time {
	return func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
}

func TestAddLoanForcesDraftAndPrepends(t *testing.T) {
	s := NewLoanStore()
	s.SetNow(fixedNow())

	first := s.AddLoan(domain.Loan{BorrowerName: "First", Status: domain.LoanApproved})
	if first.Status != domain.LoanDraft {
		t.Fatalf("expected draft, got %s", first.Status)
	}
	if first.ID == "" || first.LoanNumber == "" {
		t.Fatalf("expected assigned identity, got id=%q number=%q", first.ID, first.LoanNumber)
	}
	if !strings.HasPrefix(first.LoanNumber, "FINTEGRAL-") {
		t.Fatalf("unexpected loan number %s", first.LoanNumber)
	}

	second := s.AddLoan(domain.Loan{BorrowerName: "Second"})
	loans := s.Loans()
	if len(loans) != 2 {
		t.Fatalf("expected 2 loans, got %d", len(loans))
	}
	if loans[0].ID != second.ID {
		t.Fatalf("expected most recent first, got %s", loans[0].BorrowerName)
	}
	if first.LoanNumber == second.LoanNumber {
		t.Fatalf("loan numbers must be unique: %s", first.LoanNumber)
	}
}

func TestUpdateLoanStatusRefreshesTimestamp(t *testing.T) {
	s := NewLoanStore()
	s.SetNow(fixedNow())
	loan := s.AddLoan(domain.Loan{BorrowerName: "Andy"})

	updated, ok := s.UpdateLoanStatus(loan.ID, domain.LoanInReview, "moved to review")
	if !ok {
		t.Fatalf("update failed")
	}
	if updated.Status != domain.LoanInReview || updated.Notes != "moved to review" {
		t.Fatalf("unexpected update %+v", updated)
	}
	if updated.UpdatedAt <= loan.UpdatedAt {
		t.Fatalf("updated_at did not advance: %s -> %s", loan.UpdatedAt, updated.UpdatedAt)
	}

	// empty notes leave existing notes alone
	again, _ := s.UpdateLoanStatus(loan.ID, domain.LoanApproved, "")
	if again.Notes != "moved to review" {
		t.Fatalf("notes clobbered: %q", again.Notes)
	}

	if _, ok := s.UpdateLoanStatus("nope", domain.LoanApproved, ""); ok {
		t.Fatalf("expected unknown id to be a no-op")
	}
}

func TestUpdateLoanPartialFields(t *testing.T) {
	s := NewLoanStore()
	loan := s.AddLoan(domain.Loan{BorrowerName: "Andy", AssignedTo: "John Smith"})

	notes := "priority file"
	updated, ok := s.UpdateLoan(loan.ID, LoanUpdate{Notes: &notes})
	if !ok || updated.Notes != notes {
		t.Fatalf("notes update failed: %+v", updated)
	}
	if updated.AssignedTo != "John Smith" {
		t.Fatalf("nil field should be untouched, got %q", updated.AssignedTo)
	}
}

func TestBulkOperationsSkipUnknownIDs(t *testing.T) {
	s := NewLoanStore()
	a := s.AddLoan(domain.Loan{BorrowerName: "A"})
	b := s.AddLoan(domain.Loan{BorrowerName: "B"})

	n := s.BulkUpdateStatus([]string{a.ID, b.ID, "ghost"}, domain.LoanApproved)
	if n != 2 {
		t.Fatalf("expected 2 updated, got %d", n)
	}
	for _, l := range s.Loans() {
		if l.Status != domain.LoanApproved {
			t.Fatalf("loan %s not approved", l.ID)
		}
	}

	n = s.BulkAssign([]string{a.ID}, "Jane Doe")
	if n != 1 {
		t.Fatalf("expected 1 assigned, got %d", n)
	}
	got, _ := s.GetLoan(a.ID)
	if got.AssignedTo != "Jane Doe" {
		t.Fatalf("assign failed: %q", got.AssignedTo)
	}

	n = s.BulkDelete([]string{b.ID, "ghost"})
	if n != 1 {
		t.Fatalf("expected 1 deleted, got %d", n)
	}
	if len(s.Loans()) != 1 {
		t.Fatalf("expected 1 loan left")
	}
}

func TestLoanStatsRecount(t *testing.T) {
	s := NewLoanStore()
	a := s.AddLoan(domain.Loan{BorrowerName: "A"})
	s.AddLoan(domain.Loan{BorrowerName: "B"})
	s.UpdateLoanStatus(a.ID, domain.LoanApproved, "")

	st := s.Stats()
	if st.Total != 2 || st.Draft != 1 || st.Approved != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}

	s.DeleteLoan(a.ID)
	st = s.Stats()
	if st.Total != 1 || st.Approved != 0 {
		t.Fatalf("stats stale after delete: %+v", st)
	}
}

func TestLoadReplacesCollection(t *testing.T) {
	s := NewLoanStore()
	s.AddLoan(domain.Loan{BorrowerName: "Old"})
	s.Load([]domain.Loan{
		{ID: "1", LoanNumber: "FINTEGRAL-000001-001", BorrowerName: "Seeded", Status: domain.LoanInReview},
	})

	loans := s.Loans()
	if len(loans) != 1 || loans[0].BorrowerName != "Seeded" {
		t.Fatalf("load did not replace collection: %+v", loans)
	}
	got, ok := s.GetLoan("1")
	if !ok || got.Status != domain.LoanInReview {
		t.Fatalf("seeded loan not retrievable: %+v", got)
	}
}

func TestLoansByStatus(t *testing.T) {
	s := NewLoanStore()
	a := s.AddLoan(domain.Loan{BorrowerName: "A"})
	s.AddLoan(domain.Loan{BorrowerName: "B"})
	s.UpdateLoanStatus(a.ID, domain.LoanDenied, "")

	denied := s.LoansByStatus(domain.LoanDenied)
	if len(denied) != 1 || denied[0].ID != a.ID {
		t.Fatalf("unexpected filter result: %+v", denied)
	}
}
