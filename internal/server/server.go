// Package server exposes the loan pipeline over HTTP: huma operations on a
// chi router, one error envelope, Swagger UI at /docs.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"loanline/internal/app"
	"loanline/internal/config"
	"loanline/internal/domain"
	"loanline/internal/match"
	"loanline/internal/orchestrator"
	"loanline/internal/store"
)

// Config for the HTTP API handler.
type Config struct {
	App      *app.App
	BasePath string
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"loan 7f3a: not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

type bodyBytesKey struct{}

// apiError models the required error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Loanline API.
func New(cfg Config) (http.Handler, error) {
	if cfg.App == nil {
		return nil, fmt.Errorf("server: app is required")
	}
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity {
			// huma reports schema violations as 422; the API contract is 400.
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			parts := make([]string, 0, len(errs))
			for _, e := range errs {
				parts = append(parts, e.Error())
			}
			details = map[string]any{"errors": parts}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(body))
			ctx := context.WithValue(r.Context(), bodyBytesKey{}, body)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	hcfg := huma.DefaultConfig("Loanline API", "0.1.0")
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	a := cfg.App
	registerDocs(router, basePath)
	registerHealth(group)
	registerStats(group, a)
	registerLoans(group, a)
	registerTasks(group, a)
	registerGoals(group, a)
	registerTemplates(group, a)
	registerDecisions(group, a)
	registerEvents(group, a)
	registerUsers(group, a.Config)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func bodyBytes(ctx context.Context) []byte {
	b, _ := ctx.Value(bodyBytesKey{}).([]byte)
	return b
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// handleError maps facade errors onto the wire envelope. Absence is 404,
// malformed input is 400, anything else is an opaque 500.
func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	if strings.Contains(lowered, "invalid") || strings.Contains(lowered, "missing") || strings.Contains(lowered, "required") {
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

// actorOr defaults the X-Actor-Id header for unattributed requests.
func actorOr(actor string) string {
	if actor == "" {
		return "local-user"
	}
	return actor
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	r.Get(path.Join(basePath, "openapi.json"), func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil {
		return
	}
	for _, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {
						Schema: &huma.Schema{Ref: "#/components/schemas/ApiError"},
					},
				},
			}
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join(basePath, "openapi.json")
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Loanline API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	type healthOutput struct {
		Body struct {
			Status string `json:"status" example:"ok"`
		}
	}
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*healthOutput, error) {
		out := &healthOutput{}
		out.Body.Status = "ok"
		return out, nil
	})
}

func registerStats(api huma.API, a *app.App) {
	type statsOutput struct {
		Body StatsResponse
	}
	huma.Register(api, huma.Operation{
		OperationID: "get-stats",
		Method:      http.MethodGet,
		Path:        "/stats",
		Summary:     "Pipeline and task statistics",
	}, func(ctx context.Context, _ *struct{}) (*statsOutput, error) {
		return &statsOutput{Body: StatsResponse{
			Pipeline: a.Loans.Stats(),
			Tasks:    a.Tasks.Stats(),
		}}, nil
	})
}

func registerLoans(api huma.API, a *app.App) {
	type loanOutput struct {
		Body domain.Loan
	}
	type loanListOutput struct {
		Body []domain.Loan
	}

	huma.Register(api, huma.Operation{
		OperationID:   "create-loan",
		Method:        http.MethodPost,
		Path:          "/loans",
		Summary:       "Create loan",
		Description:   "Creates a loan in draft status and applies the selected automation plans.",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		ActorID string `header:"X-Actor-Id"`
		Body    CreateLoanRequest
	}) (*struct{ Body CreateLoanResponse }, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if input.Body.BorrowerName == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "borrower_name is required", nil)
		}
		loan, goals, err := a.Facade.CreateLoan(orchestrator.CreateLoanInput{
			Loan:        loanFromCreateRequest(input.Body),
			TemplateIDs: input.Body.TemplateIDs,
			AutoMatch:   input.Body.AutoMatch,
			ActorID:     actorOr(input.ActorID),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct{ Body CreateLoanResponse }{Body: CreateLoanResponse{Loan: loan, Goals: goals}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-loans",
		Method:      http.MethodGet,
		Path:        "/loans",
		Summary:     "List loans, most recent first",
	}, func(ctx context.Context, input *struct {
		Status string `query:"status" enum:"draft,submitted,in_review,conditions,approved,denied,closed" required:"false"`
	}) (*loanListOutput, error) {
		var items []domain.Loan
		if input.Status != "" {
			items = a.Loans.LoansByStatus(input.Status)
		} else {
			items = a.Loans.Loans()
		}
		if items == nil {
			items = []domain.Loan{}
		}
		return &loanListOutput{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-loan",
		Method:      http.MethodGet,
		Path:        "/loans/{id}",
		Summary:     "Get loan",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*loanOutput, error) {
		loan, ok := a.Loans.GetLoan(input.ID)
		if !ok {
			return nil, newAPIError(http.StatusNotFound, "not_found", fmt.Sprintf("loan %s: not found", input.ID), nil)
		}
		return &loanOutput{Body: loan}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-loan",
		Method:      http.MethodPatch,
		Path:        "/loans/{id}",
		Summary:     "Update loan fields",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID      string `path:"id"`
		ActorID string `header:"X-Actor-Id"`
		Body    UpdateLoanRequest
	}) (*loanOutput, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		loan, err := a.Facade.UpdateLoan(input.ID, store.LoanUpdate{
			Status:     input.Body.Status,
			Notes:      input.Body.Notes,
			AssignedTo: input.Body.AssignedTo,
		}, actorOr(input.ActorID))
		if err != nil {
			return nil, handleError(err)
		}
		return &loanOutput{Body: loan}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "change-loan-status",
		Method:      http.MethodPost,
		Path:        "/loans/{id}/status",
		Summary:     "Change loan status",
		Description: "Updates the status and records the matching decision.",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID      string `path:"id"`
		ActorID string `header:"X-Actor-Id"`
		Body    ChangeLoanStatusRequest
	}) (*struct{ Body StatusChangeResponse }, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if input.Body.Status == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "status is required", nil)
		}
		loan, decision, err := a.Facade.ChangeLoanStatus(input.ID, input.Body.Status, input.Body.Notes, actorOr(input.ActorID))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct{ Body StatusChangeResponse }{Body: StatusChangeResponse{Loan: loan, Decision: decision}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-loan",
		Method:        http.MethodDelete,
		Path:          "/loans/{id}",
		Summary:       "Delete loan",
		Description:   "Removes the loan and cancels its pending automation. Task and decision history is kept.",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID      string `path:"id"`
		ActorID string `header:"X-Actor-Id"`
	}) (*struct{}, error) {
		if err := a.Facade.DeleteLoan(input.ID, actorOr(input.ActorID)); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "bulk-loan-action",
		Method:      http.MethodPost,
		Path:        "/loans/bulk",
		Summary:     "Bulk loan action",
		Description: "Applies approve, deny, status, assign or delete to a set of loans. Unknown ids are skipped.",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		ActorID string `header:"X-Actor-Id"`
		Body    BulkLoanRequest
	}) (*struct{ Body BulkResponse }, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if len(input.Body.IDs) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "ids is required", nil)
		}
		actor := actorOr(input.ActorID)
		var n int
		switch input.Body.Action {
		case "approve":
			n = a.Facade.BulkLoanStatus(input.Body.IDs, domain.LoanApproved, actor)
		case "deny":
			n = a.Facade.BulkLoanStatus(input.Body.IDs, domain.LoanDenied, actor)
		case "status":
			if input.Body.Status == "" {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "status is required for the status action", nil)
			}
			n = a.Facade.BulkLoanStatus(input.Body.IDs, input.Body.Status, actor)
		case "assign":
			if input.Body.AssignedTo == "" {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "assigned_to is required for the assign action", nil)
			}
			n = a.Facade.BulkAssignLoans(input.Body.IDs, input.Body.AssignedTo, actor)
		case "delete":
			n = a.Facade.BulkDeleteLoans(input.Body.IDs, actor)
		default:
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid action", map[string]any{"action": input.Body.Action})
		}
		return &struct{ Body BulkResponse }{Body: BulkResponse{Affected: n}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-loan-tasks",
		Method:      http.MethodGet,
		Path:        "/loans/{id}/tasks",
		Summary:     "Tasks for a loan",
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct{ Body []domain.Task }, error) {
		items := a.Tasks.TasksByLoan(input.ID)
		if items == nil {
			items = []domain.Task{}
		}
		return &struct{ Body []domain.Task }{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-loan-goals",
		Method:      http.MethodGet,
		Path:        "/loans/{id}/goals",
		Summary:     "Goals for a loan",
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct{ Body []domain.AIGoal }, error) {
		items := a.Tasks.GoalsByLoan(input.ID)
		if items == nil {
			items = []domain.AIGoal{}
		}
		return &struct{ Body []domain.AIGoal }{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-loan-decisions",
		Method:      http.MethodGet,
		Path:        "/loans/{id}/decisions",
		Summary:     "Decisions for a loan, newest first",
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct{ Body []domain.Decision }, error) {
		items := a.Tasks.DecisionsByLoan(input.ID)
		if items == nil {
			items = []domain.Decision{}
		}
		return &struct{ Body []domain.Decision }{Body: items}, nil
	})
}

func registerTasks(api huma.API, a *app.App) {
	type taskOutput struct {
		Body domain.Task
	}

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks",
	}, func(ctx context.Context, input *struct {
		Status string `query:"status" enum:"pending,in_progress,completed,failed" required:"false"`
		LoanID string `query:"loan_id" required:"false"`
	}) (*struct{ Body []domain.Task }, error) {
		var items []domain.Task
		if input.LoanID != "" {
			items = a.Tasks.TasksByLoan(input.LoanID)
		} else {
			items = a.Tasks.Tasks()
		}
		if input.Status != "" {
			filtered := make([]domain.Task, 0, len(items))
			for _, t := range items {
				if t.Status == input.Status {
					filtered = append(filtered, t)
				}
			}
			items = filtered
		}
		if items == nil {
			items = []domain.Task{}
		}
		return &struct{ Body []domain.Task }{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/tasks",
		Summary:       "Create task",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ActorID string `header:"X-Actor-Id"`
		Body    CreateTaskRequest
	}) (*taskOutput, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if input.Body.LoanID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "loan_id is required", nil)
		}
		if input.Body.Title == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "title is required", nil)
		}
		loan, ok := a.Loans.GetLoan(input.Body.LoanID)
		if !ok {
			return nil, newAPIError(http.StatusNotFound, "not_found", fmt.Sprintf("loan %s: not found", input.Body.LoanID), nil)
		}
		t := a.Tasks.AddTask(domain.Task{
			LoanID:           loan.ID,
			LoanNumber:       loan.LoanNumber,
			BorrowerName:     loan.BorrowerName,
			Type:             input.Body.Type,
			Title:            input.Body.Title,
			Description:      input.Body.Description,
			Status:           domain.TaskPending,
			AssignedTo:       input.Body.AssignedTo,
			RequiresApproval: input.Body.RequiresApproval,
			ConditionText:    input.Body.ConditionText,
		})
		return &taskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{id}",
		Summary:     "Get task",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*taskOutput, error) {
		t, ok := a.Tasks.GetTask(input.ID)
		if !ok {
			return nil, newAPIError(http.StatusNotFound, "not_found", fmt.Sprintf("task %s: not found", input.ID), nil)
		}
		return &taskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task-status",
		Method:      http.MethodPatch,
		Path:        "/tasks/{id}/status",
		Summary:     "Update task status",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   string `path:"id"`
		Body UpdateTaskStatusRequest
	}) (*taskOutput, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if input.Body.Status == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "status is required", nil)
		}
		t, ok := a.Tasks.UpdateTaskStatus(input.ID, input.Body.Status)
		if !ok {
			return nil, newAPIError(http.StatusNotFound, "not_found", fmt.Sprintf("task %s: not found", input.ID), nil)
		}
		return &taskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "approve-task",
		Method:      http.MethodPost,
		Path:        "/tasks/{id}/approve",
		Summary:     "Approve task",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID      string `path:"id"`
		ActorID string `header:"X-Actor-Id"`
	}) (*taskOutput, error) {
		t, err := a.Facade.ApproveTask(input.ID, actorOr(input.ActorID))
		if err != nil {
			return nil, handleError(err)
		}
		return &taskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reject-task",
		Method:      http.MethodPost,
		Path:        "/tasks/{id}/reject",
		Summary:     "Reject task",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID      string `path:"id"`
		ActorID string `header:"X-Actor-Id"`
		Body    RejectTaskRequest
	}) (*taskOutput, error) {
		t, err := a.Facade.RejectTask(input.ID, input.Body.Reason, actorOr(input.ActorID))
		if err != nil {
			return nil, handleError(err)
		}
		return &taskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "complete-task",
		Method:      http.MethodPost,
		Path:        "/tasks/{id}/complete",
		Summary:     "Complete task manually",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID      string `path:"id"`
		ActorID string `header:"X-Actor-Id"`
		Body    CompleteTaskRequest
	}) (*taskOutput, error) {
		t, err := a.Facade.CompleteTask(input.ID, input.Body.Result, actorOr(input.ActorID))
		if err != nil {
			return nil, handleError(err)
		}
		return &taskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-task",
		Method:        http.MethodDelete,
		Path:          "/tasks/{id}",
		Summary:       "Delete task",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID      string `path:"id"`
		ActorID string `header:"X-Actor-Id"`
	}) (*struct{}, error) {
		if err := a.Facade.DeleteTask(input.ID, actorOr(input.ActorID)); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "bulk-task-action",
		Method:      http.MethodPost,
		Path:        "/tasks/bulk",
		Summary:     "Bulk task action",
		Description: "Applies approve, complete or delete to a set of tasks. Unknown ids are skipped.",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		ActorID string `header:"X-Actor-Id"`
		Body    BulkTaskRequest
	}) (*struct{ Body BulkResponse }, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if len(input.Body.IDs) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "ids is required", nil)
		}
		var n int
		switch input.Body.Action {
		case "approve":
			n = a.Tasks.BulkApproveTasks(input.Body.IDs, actorOr(input.ActorID))
		case "complete":
			for _, id := range input.Body.IDs {
				a.Runner.Cancel(id)
			}
			n = a.Tasks.BulkCompleteTasks(input.Body.IDs, input.Body.Result)
		case "delete":
			for _, id := range input.Body.IDs {
				a.Runner.Cancel(id)
			}
			n = a.Tasks.BulkDeleteTasks(input.Body.IDs)
		default:
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid action", map[string]any{"action": input.Body.Action})
		}
		return &struct{ Body BulkResponse }{Body: BulkResponse{Affected: n}}, nil
	})
}

func registerGoals(api huma.API, a *app.App) {
	type goalOutput struct {
		Body domain.AIGoal
	}

	huma.Register(api, huma.Operation{
		OperationID: "list-goals",
		Method:      http.MethodGet,
		Path:        "/goals",
		Summary:     "List goals",
	}, func(ctx context.Context, input *struct {
		LoanID string `query:"loan_id" required:"false"`
	}) (*struct{ Body []domain.AIGoal }, error) {
		var items []domain.AIGoal
		if input.LoanID != "" {
			items = a.Tasks.GoalsByLoan(input.LoanID)
		} else {
			items = a.Tasks.Goals()
		}
		if items == nil {
			items = []domain.AIGoal{}
		}
		return &struct{ Body []domain.AIGoal }{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-goal",
		Method:        http.MethodPost,
		Path:          "/loans/{id}/goals",
		Summary:       "Create goal for loan",
		Description:   "Applies an ad-hoc automation plan: one task per definition, auto-executing ones scheduled immediately.",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID      string `path:"id"`
		ActorID string `header:"X-Actor-Id"`
		Body    CreateGoalRequest
	}) (*struct{ Body GoalResponse }, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if input.Body.Name == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "name is required", nil)
		}
		if len(input.Body.Tasks) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "tasks is required", nil)
		}
		goal, tasks, err := a.Facade.CreateGoal(input.ID, input.Body.Name, input.Body.Description, input.Body.Tasks, actorOr(input.ActorID))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct{ Body GoalResponse }{Body: GoalResponse{Goal: goal, Tasks: tasks}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "apply-template",
		Method:        http.MethodPost,
		Path:          "/loans/{id}/goals/apply-template",
		Summary:       "Apply goal template to loan",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID      string `path:"id"`
		ActorID string `header:"X-Actor-Id"`
		Body    ApplyTemplateRequest
	}) (*struct{ Body GoalResponse }, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if input.Body.TemplateID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "template_id is required", nil)
		}
		goal, tasks, err := a.Facade.ApplyTemplate(input.ID, input.Body.TemplateID, actorOr(input.ActorID))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct{ Body GoalResponse }{Body: GoalResponse{Goal: goal, Tasks: tasks}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-goal-status",
		Method:      http.MethodPatch,
		Path:        "/goals/{id}/status",
		Summary:     "Pause, resume or complete a goal",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID      string `path:"id"`
		ActorID string `header:"X-Actor-Id"`
		Body    SetGoalStatusRequest
	}) (*goalOutput, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if input.Body.Status == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "status is required", nil)
		}
		g, err := a.Facade.SetGoalStatus(input.ID, input.Body.Status, actorOr(input.ActorID))
		if err != nil {
			return nil, handleError(err)
		}
		return &goalOutput{Body: g}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "goal-progress",
		Method:      http.MethodGet,
		Path:        "/goals/{id}/progress",
		Summary:     "Completed vs total tasks for a goal",
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct{ Body GoalProgressResponse }, error) {
		completed, total := a.Tasks.GoalProgress(input.ID)
		return &struct{ Body GoalProgressResponse }{Body: GoalProgressResponse{
			GoalID:    input.ID,
			Completed: completed,
			Total:     total,
		}}, nil
	})
}

func registerTemplates(api huma.API, a *app.App) {
	type templateOutput struct {
		Body domain.GoalTemplate
	}

	huma.Register(api, huma.Operation{
		OperationID: "list-templates",
		Method:      http.MethodGet,
		Path:        "/templates",
		Summary:     "List goal templates",
	}, func(ctx context.Context, _ *struct{}) (*struct{ Body []domain.GoalTemplate }, error) {
		return &struct{ Body []domain.GoalTemplate }{Body: a.Templates.List()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-template",
		Method:      http.MethodGet,
		Path:        "/templates/{id}",
		Summary:     "Get goal template",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*templateOutput, error) {
		tpl, ok := a.Templates.Get(input.ID)
		if !ok {
			return nil, newAPIError(http.StatusNotFound, "not_found", fmt.Sprintf("template %s: not found", input.ID), nil)
		}
		return &templateOutput{Body: tpl}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "save-template",
		Method:        http.MethodPost,
		Path:          "/templates",
		Summary:       "Save custom goal template",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body SaveTemplateRequest
	}) (*templateOutput, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if input.Body.Name == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "name is required", nil)
		}
		if len(input.Body.Tasks) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "tasks is required", nil)
		}
		tpl := a.Templates.Save(templateFromSaveRequest(input.Body))
		return &templateOutput{Body: tpl}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-template",
		Method:      http.MethodPatch,
		Path:        "/templates/{id}",
		Summary:     "Update custom goal template",
		Description: "Built-in templates are read-only and report not found.",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   string `path:"id"`
		Body SaveTemplateRequest
	}) (*templateOutput, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		tpl, ok := a.Templates.Update(input.ID, templateFromSaveRequest(input.Body))
		if !ok {
			return nil, newAPIError(http.StatusNotFound, "not_found", fmt.Sprintf("template %s: not found", input.ID), nil)
		}
		return &templateOutput{Body: tpl}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-template",
		Method:        http.MethodDelete,
		Path:          "/templates/{id}",
		Summary:       "Delete custom goal template",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct{}, error) {
		if !a.Templates.Delete(input.ID) {
			return nil, newAPIError(http.StatusNotFound, "not_found", fmt.Sprintf("template %s: not found", input.ID), nil)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "duplicate-template",
		Method:        http.MethodPost,
		Path:          "/templates/{id}/duplicate",
		Summary:       "Duplicate goal template",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*templateOutput, error) {
		tpl, ok := a.Templates.Duplicate(input.ID)
		if !ok {
			return nil, newAPIError(http.StatusNotFound, "not_found", fmt.Sprintf("template %s: not found", input.ID), nil)
		}
		return &templateOutput{Body: tpl}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "match-template",
		Method:      http.MethodPost,
		Path:        "/templates/match",
		Summary:     "Find best matching template",
		Description: "Given loan metadata or a document file name, returns the highest-precedence active template whose rules all pass.",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body MatchTemplateRequest
	}) (*templateOutput, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		meta := match.LoanMetadata{
			Purpose:        input.Body.Purpose,
			Amount:         input.Body.Amount,
			PropertyType:   input.Body.PropertyType,
			EstimatedValue: input.Body.EstimatedValue,
		}
		if input.Body.FileName != "" {
			meta = match.ExtractDocumentMetadata(input.Body.FileName)
		}
		tpl, ok := match.FindBestMatchingTemplate(meta, a.Templates.List())
		if !ok {
			return nil, newAPIError(http.StatusNotFound, "not_found", "no matching template", nil)
		}
		return &templateOutput{Body: tpl}, nil
	})
}

func registerDecisions(api huma.API, a *app.App) {
	huma.Register(api, huma.Operation{
		OperationID: "list-decisions",
		Method:      http.MethodGet,
		Path:        "/decisions",
		Summary:     "List decisions, newest first",
	}, func(ctx context.Context, input *struct {
		LoanID string `query:"loan_id" required:"false"`
	}) (*struct{ Body []domain.Decision }, error) {
		var items []domain.Decision
		if input.LoanID != "" {
			items = a.Tasks.DecisionsByLoan(input.LoanID)
		} else {
			items = a.Tasks.Decisions()
		}
		if items == nil {
			items = []domain.Decision{}
		}
		return &struct{ Body []domain.Decision }{Body: items}, nil
	})
}

func registerEvents(api huma.API, a *app.App) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "Activity log, newest first",
	}, func(ctx context.Context, input *struct {
		Limit      int    `query:"limit" default:"50" minimum:"1" maximum:"500"`
		Type       string `query:"type" required:"false"`
		EntityKind string `query:"entity_kind" required:"false"`
		EntityID   string `query:"entity_id" required:"false"`
	}) (*struct{ Body []domain.Event }, error) {
		items := a.Log.Latest(input.Limit, input.Type, input.EntityKind, input.EntityID)
		if items == nil {
			items = []domain.Event{}
		}
		return &struct{ Body []domain.Event }{Body: items}, nil
	})
}

func registerUsers(api huma.API, cfg *config.Config) {
	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "User directory",
	}, func(ctx context.Context, _ *struct{}) (*struct{ Body []domain.User }, error) {
		users := make([]domain.User, 0, len(cfg.Users))
		for _, u := range cfg.Users {
			users = append(users, domain.User{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role})
		}
		return &struct{ Body []domain.User }{Body: users}, nil
	})
}
