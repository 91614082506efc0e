package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"loanline/internal/domain"
)

// TaskStore owns tasks, applied AI goals and the decision audit trail.
// Goal application is a single transactional dual-write: the AIGoal and its
// generated tasks appear together or not at all.
type TaskStore struct {
	mu        sync.RWMutex
	tasks     []domain.Task
	goals     []domain.AIGoal
	decisions []domain.Decision

	Templates *TemplateRepository
	clock     clock
}

func NewTaskStore(templates *TemplateRepository) *TaskStore {
	if templates == nil {
		templates = NewTemplateRepository()
	}
	return &TaskStore{
		Templates: templates,
		clock:     clock{now: time.Now},
	}
}

// SetNow overrides the store clock, for tests.
func (s *TaskStore) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock.now = now
}

// Load replaces tasks, goals and decisions with a prebuilt snapshot.
func (s *TaskStore) Load(tasks []domain.Task, goals []domain.AIGoal, decisions []domain.Decision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append([]domain.Task(nil), tasks...)
	s.goals = append([]domain.AIGoal(nil), goals...)
	s.decisions = append([]domain.Decision(nil), decisions...)
}

// AddTask assigns an id and created_at and prepends the task.
func (s *TaskStore) AddTask(t domain.Task) domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addTaskLocked(t)
}

func (s *TaskStore) addTaskLocked(t domain.Task) domain.Task {
	t.ID = uuid.New().String()
	t.CreatedAt = s.clock.stamp()
	next := make([]domain.Task, 0, len(s.tasks)+1)
	next = append(next, t)
	next = append(next, s.tasks...)
	s.tasks = next
	return t
}

// GetTask looks a task up by id; absence is not an error.
func (s *TaskStore) GetTask(id string) (domain.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Task{}, false
}

// Tasks returns the current snapshot, most recent first.
func (s *TaskStore) Tasks() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// UpdateTaskStatus sets the lifecycle status; entering completed stamps
// completed_at.
func (s *TaskStore) UpdateTaskStatus(id, status string) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.updateTaskLocked(id, func(t *domain.Task) {
		t.Status = status
		if status == domain.TaskCompleted && t.CompletedAt == nil {
			at := s.clock.stamp()
			t.CompletedAt = &at
		}
	})
	if ok {
		s.refreshGoalStatusLocked(t.LoanID)
	}
	return t, ok
}

// CompleteTask marks the task completed with its result text.
func (s *TaskStore) CompleteTask(id, result string, autoAction bool) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.updateTaskLocked(id, func(t *domain.Task) {
		t.Status = domain.TaskCompleted
		at := s.clock.stamp()
		t.CompletedAt = &at
		t.Result = result
		t.AutoAction = autoAction
	})
	if ok {
		s.refreshGoalStatusLocked(t.LoanID)
	}
	return t, ok
}

// ApproveTask toggles the approval fields only; the lifecycle status is left
// as-is.
func (s *TaskStore) ApproveTask(id, approvedBy string) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateTaskLocked(id, func(t *domain.Task) {
		t.Approved = true
		t.ApprovedBy = approvedBy
		at := s.clock.stamp()
		t.ApprovedAt = &at
	})
}

// RejectTask forces the task to failed and overwrites its result with the
// rejection reason, regardless of prior status.
func (s *TaskStore) RejectTask(id, reason string) (domain.Task, bool) {
	if reason == "" {
		reason = "Task rejected"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.updateTaskLocked(id, func(t *domain.Task) {
		t.Status = domain.TaskFailed
		t.Result = reason
	})
	if ok {
		s.refreshGoalStatusLocked(t.LoanID)
	}
	return t, ok
}

func (s *TaskStore) updateTaskLocked(id string, apply func(*domain.Task)) (domain.Task, bool) {
	for i, t := range s.tasks {
		if t.ID != id {
			continue
		}
		apply(&t)
		next := make([]domain.Task, len(s.tasks))
		copy(next, s.tasks)
		next[i] = t
		s.tasks = next
		return t, true
	}
	return domain.Task{}, false
}

// DeleteTask removes a task; unknown ids are ignored.
func (s *TaskStore) DeleteTask(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]domain.Task, 0, len(s.tasks))
	found := false
	for _, t := range s.tasks {
		if t.ID == id {
			found = true
			continue
		}
		next = append(next, t)
	}
	s.tasks = next
	return found
}

// PlanInput parameterizes goal application. Both ad-hoc goals and catalog
// templates reduce to this shape.
type PlanInput struct {
	LoanID       string
	LoanNumber   string
	BorrowerName string
	Name         string
	Description  string
	Definitions  []domain.TaskDefinition
}

// ApplyPlan performs the dual-write: one AIGoal plus one Task per definition,
// atomically under a single lock. Definitions with auto_execute start
// in_progress assigned to the AI agent with no approval gate; all others
// start pending, unassigned, and require approval. Each generated task keeps
// its definition id so progress never relies on title matching.
func (s *TaskStore) ApplyPlan(in PlanInput) (domain.AIGoal, []domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defs := make([]domain.TaskDefinition, len(in.Definitions))
	copy(defs, in.Definitions)
	for i := range defs {
		if defs[i].ID == "" {
			defs[i].ID = uuid.New().String()
		}
	}

	goal := domain.AIGoal{
		ID:          uuid.New().String(),
		LoanID:      in.LoanID,
		Name:        in.Name,
		Description: in.Description,
		Tasks:       defs,
		Status:      domain.GoalActive,
		CreatedAt:   s.clock.stamp(),
	}
	nextGoals := make([]domain.AIGoal, 0, len(s.goals)+1)
	nextGoals = append(nextGoals, goal)
	nextGoals = append(nextGoals, s.goals...)
	s.goals = nextGoals

	created := make([]domain.Task, 0, len(defs))
	for _, def := range defs {
		t := domain.Task{
			LoanID:        in.LoanID,
			LoanNumber:    in.LoanNumber,
			BorrowerName:  in.BorrowerName,
			Type:          def.Type,
			Title:         def.Title,
			Description:   def.Description,
			ConditionText: def.Condition,
			DefinitionID:  def.ID,
		}
		if def.AutoExecute {
			t.Status = domain.TaskInProgress
			t.AssignedTo = domain.AIAgent
			t.RequiresApproval = false
			t.AutoAction = true
		} else {
			t.Status = domain.TaskPending
			t.RequiresApproval = true
		}
		created = append(created, s.addTaskLocked(t))
	}
	return goal, created
}

// ApplyTemplate looks up a catalog template and applies it as a plan. An
// unknown template id is a silent no-op (ok=false).
func (s *TaskStore) ApplyTemplate(loanID, loanNumber, borrowerName, templateID string) (domain.AIGoal, []domain.Task, bool) {
	tpl, ok := s.Templates.Get(templateID)
	if !ok {
		return domain.AIGoal{}, nil, false
	}
	goal, tasks := s.ApplyPlan(PlanInput{
		LoanID:       loanID,
		LoanNumber:   loanNumber,
		BorrowerName: borrowerName,
		Name:         tpl.Name,
		Description:  tpl.Description,
		Definitions:  tpl.Tasks,
	})
	return goal, tasks, true
}

// Goals returns the applied goal snapshot, most recent first.
func (s *TaskStore) Goals() []domain.AIGoal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AIGoal, len(s.goals))
	copy(out, s.goals)
	return out
}

// SetGoalStatus pauses or resumes a goal. Unknown ids are ignored.
func (s *TaskStore) SetGoalStatus(id, status string) (domain.AIGoal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, g := range s.goals {
		if g.ID != id {
			continue
		}
		g.Status = status
		next := make([]domain.AIGoal, len(s.goals))
		copy(next, s.goals)
		next[i] = g
		s.goals = next
		return g, true
	}
	return domain.AIGoal{}, false
}

// refreshGoalStatusLocked flips goals to completed once every generated task
// is completed. The join runs over definition ids, so independently deleted
// tasks only degrade progress display, never data integrity.
func (s *TaskStore) refreshGoalStatusLocked(loanID string) {
	byDef := map[string]string{}
	for _, t := range s.tasks {
		if t.LoanID == loanID && t.DefinitionID != "" {
			byDef[t.DefinitionID] = t.Status
		}
	}
	var next []domain.AIGoal
	for i, g := range s.goals {
		if g.LoanID != loanID || g.Status != domain.GoalActive || len(g.Tasks) == 0 {
			continue
		}
		done := true
		for _, def := range g.Tasks {
			if byDef[def.ID] != domain.TaskCompleted {
				done = false
				break
			}
		}
		if !done {
			continue
		}
		if next == nil {
			next = make([]domain.AIGoal, len(s.goals))
			copy(next, s.goals)
		}
		next[i].Status = domain.GoalCompleted
	}
	if next != nil {
		s.goals = next
	}
}

// GoalProgress returns completed and total task counts for a goal.
func (s *TaskStore) GoalProgress(goalID string) (completed, total int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var goal *domain.AIGoal
	for i := range s.goals {
		if s.goals[i].ID == goalID {
			goal = &s.goals[i]
			break
		}
	}
	if goal == nil {
		return 0, 0
	}
	total = len(goal.Tasks)
	byDef := map[string]string{}
	for _, t := range s.tasks {
		if t.LoanID == goal.LoanID && t.DefinitionID != "" {
			byDef[t.DefinitionID] = t.Status
		}
	}
	for _, def := range goal.Tasks {
		if byDef[def.ID] == domain.TaskCompleted {
			completed++
		}
	}
	return completed, total
}

// AddDecision assigns an id and made_at and prepends the record. Decisions
// are append-only facts; nothing ever mutates or removes them.
func (s *TaskStore) AddDecision(d domain.Decision) domain.Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = uuid.New().String()
	d.MadeAt = s.clock.stamp()
	next := make([]domain.Decision, 0, len(s.decisions)+1)
	next = append(next, d)
	next = append(next, s.decisions...)
	s.decisions = next
	return d
}

// Decisions returns the audit snapshot, most recent first.
func (s *TaskStore) Decisions() []domain.Decision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Decision, len(s.decisions))
	copy(out, s.decisions)
	return out
}

// BulkApproveTasks approves every listed id; unknown ids are ignored.
func (s *TaskStore) BulkApproveTasks(ids []string, approvedBy string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := idSet(ids)
	next := make([]domain.Task, len(s.tasks))
	copy(next, s.tasks)
	n := 0
	for i, t := range next {
		if !want[t.ID] {
			continue
		}
		t.Approved = true
		t.ApprovedBy = approvedBy
		at := s.clock.stamp()
		t.ApprovedAt = &at
		next[i] = t
		n++
	}
	s.tasks = next
	return n
}

// BulkCompleteTasks completes every listed id with a shared result.
func (s *TaskStore) BulkCompleteTasks(ids []string, result string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := idSet(ids)
	next := make([]domain.Task, len(s.tasks))
	copy(next, s.tasks)
	n := 0
	loans := map[string]bool{}
	for i, t := range next {
		if !want[t.ID] {
			continue
		}
		t.Status = domain.TaskCompleted
		at := s.clock.stamp()
		t.CompletedAt = &at
		t.Result = result
		next[i] = t
		loans[t.LoanID] = true
		n++
	}
	s.tasks = next
	for loanID := range loans {
		s.refreshGoalStatusLocked(loanID)
	}
	return n
}

// BulkDeleteTasks removes the listed tasks, preserving the order of the rest.
func (s *TaskStore) BulkDeleteTasks(ids []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := idSet(ids)
	next := make([]domain.Task, 0, len(s.tasks))
	n := 0
	for _, t := range s.tasks {
		if want[t.ID] {
			n++
			continue
		}
		next = append(next, t)
	}
	s.tasks = next
	return n
}

// TasksByLoan filters by loan id. Linear scan; fine at dashboard scale.
func (s *TaskStore) TasksByLoan(loanID string) []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Task
	for _, t := range s.tasks {
		if t.LoanID == loanID {
			out = append(out, t)
		}
	}
	return out
}

func (s *TaskStore) DecisionsByLoan(loanID string) []domain.Decision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Decision
	for _, d := range s.decisions {
		if d.LoanID == loanID {
			out = append(out, d)
		}
	}
	return out
}

func (s *TaskStore) GoalsByLoan(loanID string) []domain.AIGoal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.AIGoal
	for _, g := range s.goals {
		if g.LoanID == loanID {
			out = append(out, g)
		}
	}
	return out
}

// Stats recounts tasks by status plus the awaiting-approval count
// (requires_approval set and not yet approved) on every call.
func (s *TaskStore) Stats() domain.TaskStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st domain.TaskStats
	for _, t := range s.tasks {
		st.Total++
		switch t.Status {
		case domain.TaskPending:
			st.Pending++
		case domain.TaskInProgress:
			st.InProgress++
		case domain.TaskCompleted:
			st.Completed++
		case domain.TaskFailed:
			st.Failed++
		}
		if t.RequiresApproval && !t.Approved {
			st.RequiresApproval++
		}
	}
	return st
}
