// Package orchestrator coordinates multi-store operations: status changes
// with decision synthesis, loan creation with automation, and approval flows.
// Views and surfaces call this facade; they never compose store calls
// themselves.
package orchestrator

import (
	"fmt"
	"strings"
	"time"

	"loanline/internal/domain"
	"loanline/internal/events"
	"loanline/internal/match"
	"loanline/internal/runner"
	"loanline/internal/store"
)

type Orchestrator struct {
	Loans  *store.LoanStore
	Tasks  *store.TaskStore
	Runner *runner.Runner
	Log    *events.Log

	// Stagger spreads completion of automated tasks scheduled in one batch;
	// the i-th job gets i*Stagger of extra delay.
	Stagger time.Duration
}

func New(loans *store.LoanStore, tasks *store.TaskStore, r *runner.Runner, log *events.Log) *Orchestrator {
	return &Orchestrator{Loans: loans, Tasks: tasks, Runner: r, Log: log}
}

// Wait blocks until all in-flight automation has drained.
func (o *Orchestrator) Wait() {
	o.Runner.Wait()
}

func (o *Orchestrator) append(evtType, entityKind, entityID, actorID string, payload events.EventPayload) {
	if o.Log != nil {
		o.Log.Append(evtType, entityKind, entityID, actorID, payload)
	}
}

// decisionTypeFor maps a loan status to the decision type recorded for the
// transition. Statuses without a dedicated type are audit-only auto actions.
func decisionTypeFor(status string) string {
	switch status {
	case domain.LoanApproved:
		return domain.DecisionApproved
	case domain.LoanDenied:
		return domain.DecisionDenied
	case domain.LoanConditions:
		return domain.DecisionConditional
	}
	return domain.DecisionAutoAction
}

// ChangeLoanStatus updates the loan and records the matching decision. Every
// status change through the facade leaves an audit record; transition legality
// is not checked.
func (o *Orchestrator) ChangeLoanStatus(loanID, status, notes, madeBy string) (domain.Loan, domain.Decision, error) {
	loan, ok := o.Loans.GetLoan(loanID)
	if !ok {
		return domain.Loan{}, domain.Decision{}, fmt.Errorf("loan %s: %w", loanID, store.ErrNotFound)
	}
	previous := loan.Status

	loan, ok = o.Loans.UpdateLoanStatus(loanID, status, notes)
	if !ok {
		return domain.Loan{}, domain.Decision{}, fmt.Errorf("loan %s: %w", loanID, store.ErrNotFound)
	}

	reason := notes
	if reason == "" {
		reason = "Loan status changed to " + strings.ReplaceAll(status, "_", " ")
	}
	decision := o.Tasks.AddDecision(domain.Decision{
		LoanID:         loan.ID,
		LoanNumber:     loan.LoanNumber,
		BorrowerName:   loan.BorrowerName,
		Type:           decisionTypeFor(status),
		MadeBy:         madeBy,
		Reason:         reason,
		PreviousStatus: previous,
		NewStatus:      status,
	})
	o.append("loan.status_changed", "loan", loan.ID, madeBy, events.EventPayload{
		"from": previous, "to": status,
	})
	return loan, decision, nil
}

// CreateLoanInput carries a new loan plus the automation to apply. When
// AutoMatch is set and no template ids are given, the rule engine picks the
// best-fit template from the loan's own fields.
type CreateLoanInput struct {
	Loan        domain.Loan
	TemplateIDs []string
	AutoMatch   bool
	ActorID     string
}

// CreateLoan adds the loan and applies the selected automation plans. Each
// applied plan schedules runner jobs for its auto-executing tasks. Unknown
// template ids are skipped silently, matching bulk-operation semantics.
func (o *Orchestrator) CreateLoan(in CreateLoanInput) (domain.Loan, []domain.AIGoal, error) {
	loan := o.Loans.AddLoan(in.Loan)
	o.append("loan.created", "loan", loan.ID, in.ActorID, events.EventPayload{
		"loan_number": loan.LoanNumber, "borrower": loan.BorrowerName,
	})

	ids := in.TemplateIDs
	if len(ids) == 0 && in.AutoMatch {
		tpl, ok := match.FindBestMatchingTemplate(match.LoanMetadata{
			Purpose:        loan.LoanPurpose,
			Amount:         loan.LoanAmount,
			PropertyType:   loan.PropertyType,
			EstimatedValue: loan.EstimatedValue,
		}, o.Tasks.Templates.List())
		if ok {
			ids = []string{tpl.ID}
		}
	}

	var goals []domain.AIGoal
	for _, id := range ids {
		goal, tasks, ok := o.Tasks.ApplyTemplate(loan.ID, loan.LoanNumber, loan.BorrowerName, id)
		if !ok {
			continue
		}
		goals = append(goals, goal)
		o.append("goal.created", "goal", goal.ID, in.ActorID, events.EventPayload{
			"loan_id": loan.ID, "name": goal.Name, "template_id": id,
		})
		o.scheduleAutomation(tasks)
	}
	return loan, goals, nil
}

// CreateGoal applies an ad-hoc automation plan to an existing loan.
func (o *Orchestrator) CreateGoal(loanID, name, description string, defs []domain.TaskDefinition, actorID string) (domain.AIGoal, []domain.Task, error) {
	loan, ok := o.Loans.GetLoan(loanID)
	if !ok {
		return domain.AIGoal{}, nil, fmt.Errorf("loan %s: %w", loanID, store.ErrNotFound)
	}
	goal, tasks := o.Tasks.ApplyPlan(store.PlanInput{
		LoanID:       loan.ID,
		LoanNumber:   loan.LoanNumber,
		BorrowerName: loan.BorrowerName,
		Name:         name,
		Description:  description,
		Definitions:  defs,
	})
	o.append("goal.created", "goal", goal.ID, actorID, events.EventPayload{
		"loan_id": loan.ID, "name": goal.Name,
	})
	o.scheduleAutomation(tasks)
	return goal, tasks, nil
}

// ApplyTemplate applies a catalog template to an existing loan.
func (o *Orchestrator) ApplyTemplate(loanID, templateID, actorID string) (domain.AIGoal, []domain.Task, error) {
	loan, ok := o.Loans.GetLoan(loanID)
	if !ok {
		return domain.AIGoal{}, nil, fmt.Errorf("loan %s: %w", loanID, store.ErrNotFound)
	}
	goal, tasks, ok := o.Tasks.ApplyTemplate(loan.ID, loan.LoanNumber, loan.BorrowerName, templateID)
	if !ok {
		return domain.AIGoal{}, nil, fmt.Errorf("template %s: %w", templateID, store.ErrNotFound)
	}
	o.append("goal.created", "goal", goal.ID, actorID, events.EventPayload{
		"loan_id": loan.ID, "name": goal.Name, "template_id": templateID,
	})
	o.scheduleAutomation(tasks)
	return goal, tasks, nil
}

// scheduleAutomation queues a completion job per auto-executing task. The
// tasks are already in_progress when this runs, so observers see the
// in-progress state for the whole simulated work window.
func (o *Orchestrator) scheduleAutomation(tasks []domain.Task) {
	i := 0
	for _, t := range tasks {
		if !t.AutoAction {
			continue
		}
		o.Runner.Schedule(runner.Job{
			TaskID:     t.ID,
			ExtraDelay: time.Duration(i) * o.Stagger,
			Finish:     o.finishAutomated(t.ID),
		})
		i++
	}
}

// finishAutomated completes one automated task. A task that was deleted or
// rejected while the job was pending is left alone.
func (o *Orchestrator) finishAutomated(taskID string) func() {
	return func() {
		t, ok := o.Tasks.GetTask(taskID)
		if !ok || t.Status != domain.TaskInProgress {
			return
		}
		result := strings.TrimSpace(fmt.Sprintf("AI Agent completed %s. %s", t.Title, t.ConditionText))
		t, ok = o.Tasks.CompleteTask(taskID, result, true)
		if !ok {
			return
		}
		o.append("task.completed", "task", t.ID, domain.AIAgent, events.EventPayload{
			"loan_id": t.LoanID, "title": t.Title, "auto": true,
		})
		if t.ConditionText == "" {
			return
		}

		loan, ok := o.Loans.GetLoan(t.LoanID)
		if !ok {
			return
		}
		newStatus := loan.Status
		raisesCondition := strings.Contains(t.ConditionText, "condition")
		if raisesCondition {
			newStatus = domain.LoanConditions
		}
		o.Tasks.AddDecision(domain.Decision{
			LoanID:         loan.ID,
			LoanNumber:     loan.LoanNumber,
			BorrowerName:   loan.BorrowerName,
			Type:           domain.DecisionAutoAction,
			MadeBy:         domain.AIAgent,
			Reason:         t.Title,
			Details:        t.ConditionText,
			AutoExecuted:   true,
			PreviousStatus: loan.Status,
			NewStatus:      newStatus,
		})
		if raisesCondition {
			o.Loans.UpdateLoanStatus(loan.ID, domain.LoanConditions, "")
			o.append("loan.status_changed", "loan", loan.ID, domain.AIAgent, events.EventPayload{
				"from": loan.Status, "to": domain.LoanConditions,
			})
		}
	}
}

// UpdateLoan applies a partial update.
func (o *Orchestrator) UpdateLoan(loanID string, upd store.LoanUpdate, actorID string) (domain.Loan, error) {
	loan, ok := o.Loans.UpdateLoan(loanID, upd)
	if !ok {
		return domain.Loan{}, fmt.Errorf("loan %s: %w", loanID, store.ErrNotFound)
	}
	o.append("loan.updated", "loan", loan.ID, actorID, nil)
	return loan, nil
}

// DeleteLoan removes the loan and cancels pending automation for its tasks.
// Tasks, goals and decisions are kept; history outlives the loan.
func (o *Orchestrator) DeleteLoan(loanID, actorID string) error {
	for _, t := range o.Tasks.TasksByLoan(loanID) {
		o.Runner.Cancel(t.ID)
	}
	if !o.Loans.DeleteLoan(loanID) {
		return fmt.Errorf("loan %s: %w", loanID, store.ErrNotFound)
	}
	o.append("loan.deleted", "loan", loanID, actorID, nil)
	return nil
}

// ApproveTask marks the task approved. The lifecycle status is untouched: an
// approved task is still whatever state its execution left it in.
func (o *Orchestrator) ApproveTask(taskID, approvedBy string) (domain.Task, error) {
	t, ok := o.Tasks.ApproveTask(taskID, approvedBy)
	if !ok {
		return domain.Task{}, fmt.Errorf("task %s: %w", taskID, store.ErrNotFound)
	}
	o.append("task.approved", "task", t.ID, approvedBy, events.EventPayload{"loan_id": t.LoanID})
	return t, nil
}

// RejectTask forces the task to failed and drops any pending automation job.
func (o *Orchestrator) RejectTask(taskID, reason, actorID string) (domain.Task, error) {
	o.Runner.Cancel(taskID)
	t, ok := o.Tasks.RejectTask(taskID, reason)
	if !ok {
		return domain.Task{}, fmt.Errorf("task %s: %w", taskID, store.ErrNotFound)
	}
	o.append("task.rejected", "task", t.ID, actorID, events.EventPayload{"loan_id": t.LoanID, "reason": t.Result})
	return t, nil
}

// CompleteTask marks a task completed by a person rather than the agent.
func (o *Orchestrator) CompleteTask(taskID, result, actorID string) (domain.Task, error) {
	o.Runner.Cancel(taskID)
	t, ok := o.Tasks.CompleteTask(taskID, result, false)
	if !ok {
		return domain.Task{}, fmt.Errorf("task %s: %w", taskID, store.ErrNotFound)
	}
	o.append("task.completed", "task", t.ID, actorID, events.EventPayload{"loan_id": t.LoanID, "auto": false})
	return t, nil
}

// DeleteTask removes the task and cancels its pending automation.
func (o *Orchestrator) DeleteTask(taskID, actorID string) error {
	o.Runner.Cancel(taskID)
	if !o.Tasks.DeleteTask(taskID) {
		return fmt.Errorf("task %s: %w", taskID, store.ErrNotFound)
	}
	o.append("task.deleted", "task", taskID, actorID, nil)
	return nil
}

// SetGoalStatus pauses, resumes or completes a goal. Pausing does not cancel
// jobs already in flight; it only stops the goal from being treated as active.
func (o *Orchestrator) SetGoalStatus(goalID, status, actorID string) (domain.AIGoal, error) {
	g, ok := o.Tasks.SetGoalStatus(goalID, status)
	if !ok {
		return domain.AIGoal{}, fmt.Errorf("goal %s: %w", goalID, store.ErrNotFound)
	}
	o.append("goal.status_changed", "goal", g.ID, actorID, events.EventPayload{"to": status})
	return g, nil
}

// BulkLoanStatus applies the status to every listed loan and records one
// decision per loan actually changed.
func (o *Orchestrator) BulkLoanStatus(ids []string, status, madeBy string) int {
	n := 0
	for _, id := range ids {
		if _, _, err := o.ChangeLoanStatus(id, status, "", madeBy); err == nil {
			n++
		}
	}
	return n
}

// BulkAssignLoans assigns every listed loan; unknown ids are skipped.
func (o *Orchestrator) BulkAssignLoans(ids []string, assignedTo, actorID string) int {
	n := o.Loans.BulkAssign(ids, assignedTo)
	if n > 0 {
		o.append("loan.bulk_assigned", "loan", "", actorID, events.EventPayload{
			"count": n, "assigned_to": assignedTo,
		})
	}
	return n
}

// BulkDeleteLoans removes the listed loans and their pending automation.
func (o *Orchestrator) BulkDeleteLoans(ids []string, actorID string) int {
	for _, id := range ids {
		for _, t := range o.Tasks.TasksByLoan(id) {
			o.Runner.Cancel(t.ID)
		}
	}
	n := o.Loans.BulkDelete(ids)
	if n > 0 {
		o.append("loan.bulk_deleted", "loan", "", actorID, events.EventPayload{"count": n})
	}
	return n
}
