package orchestrator_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"loanline/internal/domain"
	"loanline/internal/events"
	"loanline/internal/orchestrator"
	"loanline/internal/runner"
	"loanline/internal/store"
)

type testEnv struct {
	Loans  *store.LoanStore
	Tasks  *store.TaskStore
	Runner *runner.Runner
	Log    *events.Log
	Facade *orchestrator.Orchestrator
}

// newTestEnv wires a zero-delay runner so automation completes as soon as
// Wait returns.
func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	templates := store.NewTemplateRepository()
	loans := store.NewLoanStore()
	tasks := store.NewTaskStore(templates)
	r := runner.New(0, 0)
	log := events.NewLog()
	facade := orchestrator.New(loans, tasks, r, log)
	return testEnv{Loans: loans, Tasks: tasks, Runner: r, Log: log, Facade: facade}
}

func TestChangeLoanStatusRecordsDecision(t *testing.T) {
	env := newTestEnv(t)
	loan := env.Loans.AddLoan(domain.Loan{BorrowerName: "Andy America"})

	updated, decision, err := env.Facade.ChangeLoanStatus(loan.ID, domain.LoanApproved, "", "john.smith")
	if err != nil {
		t.Fatalf("change status: %v", err)
	}
	if updated.Status != domain.LoanApproved {
		t.Fatalf("status not applied: %s", updated.Status)
	}
	if decision.Type != domain.DecisionApproved || decision.MadeBy != "john.smith" {
		t.Fatalf("unexpected decision %+v", decision)
	}
	if decision.Reason != "Loan status changed to approved" {
		t.Fatalf("default reason wrong: %q", decision.Reason)
	}
	if decision.PreviousStatus != domain.LoanDraft || decision.NewStatus != domain.LoanApproved {
		t.Fatalf("transition not captured: %s -> %s", decision.PreviousStatus, decision.NewStatus)
	}
}

func TestChangeLoanStatusDecisionTypes(t *testing.T) {
	env := newTestEnv(t)
	cases := []struct {
		status string
		want   string
	}{
		{domain.LoanApproved, domain.DecisionApproved},
		{domain.LoanDenied, domain.DecisionDenied},
		{domain.LoanConditions, domain.DecisionConditional},
		{domain.LoanInReview, domain.DecisionAutoAction},
		{domain.LoanClosed, domain.DecisionAutoAction},
	}
	loan := env.Loans.AddLoan(domain.Loan{BorrowerName: "Andy"})
	for _, tc := range cases {
		_, decision, err := env.Facade.ChangeLoanStatus(loan.ID, tc.status, "", "tester")
		if err != nil {
			t.Fatalf("%s: %v", tc.status, err)
		}
		if decision.Type != tc.want {
			t.Fatalf("%s: decision type %s, want %s", tc.status, decision.Type, tc.want)
		}
	}
}

func TestChangeLoanStatusCustomNotesBecomeReason(t *testing.T) {
	env := newTestEnv(t)
	loan := env.Loans.AddLoan(domain.Loan{BorrowerName: "Andy"})

	_, decision, err := env.Facade.ChangeLoanStatus(loan.ID, "conditions", "Missing LOE", "jane.doe")
	if err != nil {
		t.Fatalf("change status: %v", err)
	}
	if decision.Reason != "Missing LOE" {
		t.Fatalf("notes should become the reason, got %q", decision.Reason)
	}

	// underscores in the status read naturally in the default reason
	_, decision, _ = env.Facade.ChangeLoanStatus(loan.ID, domain.LoanInReview, "", "jane.doe")
	if decision.Reason != "Loan status changed to in review" {
		t.Fatalf("unexpected default reason %q", decision.Reason)
	}
}

func TestChangeLoanStatusUnknownLoan(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.Facade.ChangeLoanStatus("ghost", domain.LoanApproved, "", "tester")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateLoanWithTemplateRunsAutomation(t *testing.T) {
	env := newTestEnv(t)
	loan, goals, err := env.Facade.CreateLoan(orchestrator.CreateLoanInput{
		Loan:        domain.Loan{BorrowerName: "Andy America", LoanPurpose: "purchase", LoanAmount: 350_000},
		TemplateIDs: []string{store.TemplateInitialReview},
		ActorID:     "john.smith",
	})
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}
	if len(goals) != 1 {
		t.Fatalf("expected 1 goal, got %d", len(goals))
	}
	env.Facade.Wait()

	for _, task := range env.Tasks.TasksByLoan(loan.ID) {
		if task.Status != domain.TaskCompleted {
			t.Fatalf("automation left task %s in %s", task.Title, task.Status)
		}
		if !task.AutoAction {
			t.Fatalf("auto task lost its auto_action flag")
		}
		if !strings.HasPrefix(task.Result, "AI Agent completed "+task.Title) {
			t.Fatalf("unexpected result %q", task.Result)
		}
	}
	goal, _ := goalByID(env.Tasks, goals[0].ID)
	if goal.Status != domain.GoalCompleted {
		t.Fatalf("goal not completed: %s", goal.Status)
	}
}

func TestCreateLoanAutoMatchPicksTemplate(t *testing.T) {
	env := newTestEnv(t)
	loan, goals, err := env.Facade.CreateLoan(orchestrator.CreateLoanInput{
		Loan:      domain.Loan{BorrowerName: "Big Spender", LoanPurpose: "purchase", LoanAmount: 2_000_000},
		AutoMatch: true,
		ActorID:   "john.smith",
	})
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}
	if len(goals) != 1 || goals[0].Name != "Full Underwriting Review" {
		t.Fatalf("auto-match picked %+v", goals)
	}
	env.Facade.Wait()
	if got := env.Tasks.TasksByLoan(loan.ID); len(got) != 4 {
		t.Fatalf("expected 4 generated tasks, got %d", len(got))
	}
}

func TestCreateLoanSkipsUnknownTemplates(t *testing.T) {
	env := newTestEnv(t)
	_, goals, err := env.Facade.CreateLoan(orchestrator.CreateLoanInput{
		Loan:        domain.Loan{BorrowerName: "Andy"},
		TemplateIDs: []string{"no-such-template", store.TemplateInitialReview},
		ActorID:     "tester",
	})
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}
	if len(goals) != 1 {
		t.Fatalf("unknown template should be skipped, got %d goals", len(goals))
	}
	env.Facade.Wait()
}

func TestConditionTextRaisesLoanConditions(t *testing.T) {
	env := newTestEnv(t)
	loan, _, err := env.Facade.CreateLoan(orchestrator.CreateLoanInput{
		Loan:    domain.Loan{BorrowerName: "Remote Worker", LoanPurpose: "purchase"},
		ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}
	_, tasks, err := env.Facade.CreateGoal(loan.ID, "Distance check", "", []domain.TaskDefinition{
		{Type: "distance_check", Title: "Check Distance to Employer", AutoExecute: true,
			Condition: "If distance > 50 miles, request LOE for remote work condition"},
	}, "tester")
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	env.Facade.Wait()

	got, _ := env.Loans.GetLoan(loan.ID)
	if got.Status != domain.LoanConditions {
		t.Fatalf("condition did not move loan to conditions: %s", got.Status)
	}
	decisions := env.Tasks.DecisionsByLoan(loan.ID)
	if len(decisions) != 1 {
		t.Fatalf("expected 1 decision, got %d", len(decisions))
	}
	d := decisions[0]
	if d.Type != domain.DecisionAutoAction || d.MadeBy != domain.AIAgent || !d.AutoExecuted {
		t.Fatalf("unexpected automated decision %+v", d)
	}
	if d.Reason != tasks[0].Title || d.NewStatus != domain.LoanConditions {
		t.Fatalf("decision content wrong: %+v", d)
	}
}

func TestConditionTextWithoutKeywordLeavesStatus(t *testing.T) {
	env := newTestEnv(t)
	loan, _, _ := env.Facade.CreateLoan(orchestrator.CreateLoanInput{
		Loan: domain.Loan{BorrowerName: "Andy"}, ActorID: "tester",
	})
	_, _, err := env.Facade.CreateGoal(loan.ID, "Check", "", []domain.TaskDefinition{
		{Type: "custom", Title: "Informational check", AutoExecute: true,
			Condition: "Distance is 12 miles, nothing to flag"},
	}, "tester")
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	env.Facade.Wait()

	got, _ := env.Loans.GetLoan(loan.ID)
	if got.Status != domain.LoanDraft {
		t.Fatalf("status should be untouched, got %s", got.Status)
	}
	// the finding is still recorded as an audit decision
	if len(env.Tasks.DecisionsByLoan(loan.ID)) != 1 {
		t.Fatalf("expected the finding to be recorded")
	}
}

func TestRejectTaskCancelsAutomation(t *testing.T) {
	env := newTestEnv(t)
	env.Runner.StartDelay = 0
	env.Runner.CompleteDelay = time.Hour // park completions far in the future

	loan, _, _ := env.Facade.CreateLoan(orchestrator.CreateLoanInput{
		Loan: domain.Loan{BorrowerName: "Andy"}, ActorID: "tester",
	})
	_, tasks, err := env.Facade.CreateGoal(loan.ID, "Slow goal", "", []domain.TaskDefinition{
		{Type: "custom", Title: "Slow check", AutoExecute: true},
	}, "tester")
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	rejected, err := env.Facade.RejectTask(tasks[0].ID, "not needed", "jane.doe")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != domain.TaskFailed || rejected.Result != "not needed" {
		t.Fatalf("unexpected rejection %+v", rejected)
	}
	env.Facade.Wait()

	// the cancelled job must not have completed the task afterwards
	final, _ := env.Tasks.GetTask(tasks[0].ID)
	if final.Status != domain.TaskFailed {
		t.Fatalf("cancelled automation still completed task: %s", final.Status)
	}
}

func TestDeleteLoanKeepsHistoryAndCancelsJobs(t *testing.T) {
	env := newTestEnv(t)
	env.Runner.CompleteDelay = time.Hour

	loan, _, _ := env.Facade.CreateLoan(orchestrator.CreateLoanInput{
		Loan:        domain.Loan{BorrowerName: "Andy"},
		TemplateIDs: []string{store.TemplateInitialReview},
		ActorID:     "tester",
	})
	if err := env.Facade.DeleteLoan(loan.ID, "tester"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	env.Facade.Wait()

	if _, ok := env.Loans.GetLoan(loan.ID); ok {
		t.Fatalf("loan still present")
	}
	if len(env.Tasks.TasksByLoan(loan.ID)) == 0 {
		t.Fatalf("task history should outlive the loan")
	}
	for _, task := range env.Tasks.TasksByLoan(loan.ID) {
		if task.Status == domain.TaskCompleted {
			t.Fatalf("pending automation completed after loan deletion")
		}
	}
}

func TestBulkLoanStatusRecordsPerLoanDecisions(t *testing.T) {
	env := newTestEnv(t)
	a := env.Loans.AddLoan(domain.Loan{BorrowerName: "A"})
	b := env.Loans.AddLoan(domain.Loan{BorrowerName: "B"})

	n := env.Facade.BulkLoanStatus([]string{a.ID, b.ID, "ghost"}, domain.LoanApproved, "jane.doe")
	if n != 2 {
		t.Fatalf("expected 2 affected, got %d", n)
	}
	if len(env.Tasks.DecisionsByLoan(a.ID)) != 1 || len(env.Tasks.DecisionsByLoan(b.ID)) != 1 {
		t.Fatalf("expected one decision per loan")
	}
}

func TestEventsAppendedForMutations(t *testing.T) {
	env := newTestEnv(t)
	loan, _, _ := env.Facade.CreateLoan(orchestrator.CreateLoanInput{
		Loan: domain.Loan{BorrowerName: "Andy"}, ActorID: "tester",
	})
	env.Facade.ChangeLoanStatus(loan.ID, domain.LoanApproved, "", "tester")

	created := env.Log.Latest(0, "loan.created", "", "")
	if len(created) != 1 || created[0].EntityID != loan.ID {
		t.Fatalf("loan.created not logged: %+v", created)
	}
	changed := env.Log.Latest(0, "loan.status_changed", "loan", loan.ID)
	if len(changed) != 1 {
		t.Fatalf("loan.status_changed not logged")
	}
	if changed[0].Payload["to"] != domain.LoanApproved {
		t.Fatalf("payload wrong: %+v", changed[0].Payload)
	}
}

func goalByID(s *store.TaskStore, id string) (domain.AIGoal, bool) {
	for _, g := range s.Goals() {
		if g.ID == id {
			return g, true
		}
	}
	return domain.AIGoal{}, false
}
