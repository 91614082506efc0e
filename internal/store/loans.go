package store

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"loanline/internal/domain"
)

// ErrNotFound is returned by operations that must surface absence to callers
// (single-item lookups through the facade). Bulk operations never return it;
// they silently skip unknown ids.
var ErrNotFound = errors.New("not found")

const loanNumberPrefix = "FINTEGRAL"

// LoanStore owns the loan collection. All mutations build a fresh slice and
// swap it under the lock, so readers always observe a consistent snapshot.
type LoanStore struct {
	mu    sync.RWMutex
	loans []domain.Loan

	clock   clock
	rand    *rand.Rand
	numbers map[string]bool
}

func NewLoanStore() *LoanStore {
	return &LoanStore{
		clock:   clock{now: time.Now},
		rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
		numbers: map[string]bool{},
	}
}

// SetNow overrides the store clock, for tests.
func (s *LoanStore) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock.now = now
}

// generateLoanNumber builds FINTEGRAL-<6-digit time suffix>-<3-digit random>,
// unique for the session. Caller holds the lock.
func (s *LoanStore) generateLoanNumber() string {
	for {
		millis := fmt.Sprintf("%d", s.clock.now().UnixMilli())
		if len(millis) > 6 {
			millis = millis[len(millis)-6:]
		}
		n := fmt.Sprintf("%s-%s-%03d", loanNumberPrefix, millis, s.rand.Intn(1000))
		if !s.numbers[n] {
			s.numbers[n] = true
			return n
		}
	}
}

// AddLoan assigns identity and a loan number, forces draft status, stamps
// timestamps and prepends the loan (most-recent-first). The created loan is
// returned so callers can chain goal application against its id.
func (s *LoanStore) AddLoan(loan domain.Loan) domain.Loan {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.stamp()
	loan.ID = uuid.New().String()
	loan.LoanNumber = s.generateLoanNumber()
	loan.Status = domain.LoanDraft
	loan.CreatedAt = now
	loan.UpdatedAt = now

	next := make([]domain.Loan, 0, len(s.loans)+1)
	next = append(next, loan)
	next = append(next, s.loans...)
	s.loans = next
	return loan
}

// Load replaces the collection with a prebuilt snapshot, keeping the loan
// numbers reserved so generated ones never collide with seeded ones.
func (s *LoanStore) Load(loans []domain.Loan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]domain.Loan, len(loans))
	copy(next, loans)
	s.loans = next
	for _, l := range next {
		s.numbers[l.LoanNumber] = true
	}
}

// LoanUpdate carries optional field updates; nil fields are left untouched.
type LoanUpdate struct {
	Status     *string
	Notes      *string
	AssignedTo *string
}

// UpdateLoan applies the update and refreshes updated_at. Unknown ids are a
// silent no-op (ok=false).
func (s *LoanStore) UpdateLoan(id string, upd LoanUpdate) (domain.Loan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(id, func(l *domain.Loan) {
		if upd.Status != nil {
			l.Status = *upd.Status
		}
		if upd.Notes != nil {
			l.Notes = *upd.Notes
		}
		if upd.AssignedTo != nil {
			l.AssignedTo = *upd.AssignedTo
		}
	})
}

// UpdateLoanStatus sets the status (and notes, when given) and refreshes
// updated_at. No transition legality check is performed: any status may
// follow any other.
func (s *LoanStore) UpdateLoanStatus(id, status, notes string) (domain.Loan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(id, func(l *domain.Loan) {
		l.Status = status
		if notes != "" {
			l.Notes = notes
		}
	})
}

func (s *LoanStore) updateLocked(id string, apply func(*domain.Loan)) (domain.Loan, bool) {
	for i, l := range s.loans {
		if l.ID != id {
			continue
		}
		apply(&l)
		l.UpdatedAt = s.clock.stamp()
		next := make([]domain.Loan, len(s.loans))
		copy(next, s.loans)
		next[i] = l
		s.loans = next
		return l, true
	}
	return domain.Loan{}, false
}

// DeleteLoan removes the loan; unknown ids are ignored.
func (s *LoanStore) DeleteLoan(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]domain.Loan, 0, len(s.loans))
	found := false
	for _, l := range s.loans {
		if l.ID == id {
			found = true
			continue
		}
		next = append(next, l)
	}
	s.loans = next
	return found
}

// GetLoan looks a loan up by id. Absence means "no such loan", not an error.
func (s *LoanStore) GetLoan(id string) (domain.Loan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.loans {
		if l.ID == id {
			return l, true
		}
	}
	return domain.Loan{}, false
}

// Loans returns the current snapshot, most recent first.
func (s *LoanStore) Loans() []domain.Loan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Loan, len(s.loans))
	copy(out, s.loans)
	return out
}

func (s *LoanStore) LoansByStatus(status string) []domain.Loan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Loan
	for _, l := range s.loans {
		if l.Status == status {
			out = append(out, l)
		}
	}
	return out
}

// BulkUpdateStatus applies the status to every listed id; ids not present in
// the collection are silently ignored.
func (s *LoanStore) BulkUpdateStatus(ids []string, status string) int {
	return s.bulkUpdate(ids, func(l *domain.Loan) { l.Status = status })
}

// BulkAssign sets assigned_to for every listed id.
func (s *LoanStore) BulkAssign(ids []string, assignedTo string) int {
	return s.bulkUpdate(ids, func(l *domain.Loan) { l.AssignedTo = assignedTo })
}

func (s *LoanStore) bulkUpdate(ids []string, apply func(*domain.Loan)) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := idSet(ids)
	next := make([]domain.Loan, len(s.loans))
	copy(next, s.loans)
	n := 0
	for i, l := range next {
		if !want[l.ID] {
			continue
		}
		apply(&l)
		l.UpdatedAt = s.clock.stamp()
		next[i] = l
		n++
	}
	s.loans = next
	return n
}

// BulkDelete removes the listed loans, preserving the order of the rest.
func (s *LoanStore) BulkDelete(ids []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := idSet(ids)
	next := make([]domain.Loan, 0, len(s.loans))
	n := 0
	for _, l := range s.loans {
		if want[l.ID] {
			n++
			continue
		}
		next = append(next, l)
	}
	s.loans = next
	return n
}

// Stats recounts the pipeline on every call; consumers must not cache the
// result across mutations.
func (s *LoanStore) Stats() domain.PipelineStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st domain.PipelineStats
	for _, l := range s.loans {
		st.Total++
		switch l.Status {
		case domain.LoanDraft:
			st.Draft++
		case domain.LoanSubmitted:
			st.Submitted++
		case domain.LoanInReview:
			st.InReview++
		case domain.LoanConditions:
			st.Conditions++
		case domain.LoanApproved:
			st.Approved++
		case domain.LoanDenied:
			st.Denied++
		case domain.LoanClosed:
			st.Closed++
		}
	}
	return st
}

func idSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
