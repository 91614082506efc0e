package server

import (
	"loanline/internal/domain"
)

// Request payloads

type CreateLoanRequest struct {
	BorrowerName    string              `json:"borrower_name,omitempty"`
	BorrowerEmail   string              `json:"borrower_email,omitempty"`
	BorrowerPhone   string              `json:"borrower_phone,omitempty"`
	LoanPurpose     string              `json:"loan_purpose,omitempty" enum:"purchase,refinance_rate_term,refinance_cash_out,construction,home_equity"`
	PropertyType    string              `json:"property_type,omitempty" enum:"single_family,condo,townhouse,multi_family,commercial"`
	LoanAmount      float64             `json:"loan_amount,omitempty"`
	EstimatedValue  float64             `json:"estimated_value,omitempty"`
	InterestRate    *float64            `json:"interest_rate,omitempty"`
	Term            *int                `json:"term,omitempty"`
	SubjectProperty domain.Address      `json:"subject_property,omitempty"`
	Properties      []domain.Property   `json:"properties,omitempty"`
	Employment      []domain.Employment `json:"employment,omitempty"`
	Liabilities     []domain.Liability  `json:"liabilities,omitempty"`
	Documents       []domain.Document   `json:"documents,omitempty"`
	AssignedTo      string              `json:"assigned_to,omitempty"`
	Notes           string              `json:"notes,omitempty"`
	// TemplateIDs selects automation plans to apply on creation; AutoMatch
	// asks the rule engine to pick one instead.
	TemplateIDs []string `json:"template_ids,omitempty"`
	AutoMatch   bool     `json:"auto_match,omitempty"`
}

type UpdateLoanRequest struct {
	Status     *string `json:"status,omitempty" enum:"draft,submitted,in_review,conditions,approved,denied,closed"`
	Notes      *string `json:"notes,omitempty"`
	AssignedTo *string `json:"assigned_to,omitempty"`
}

type ChangeLoanStatusRequest struct {
	Status string `json:"status" enum:"draft,submitted,in_review,conditions,approved,denied,closed"`
	Notes  string `json:"notes,omitempty"`
}

type BulkLoanRequest struct {
	Action     string   `json:"action" enum:"approve,deny,delete,assign,status"`
	IDs        []string `json:"ids"`
	Status     string   `json:"status,omitempty" enum:"draft,submitted,in_review,conditions,approved,denied,closed"`
	AssignedTo string   `json:"assigned_to,omitempty"`
}

type CreateTaskRequest struct {
	LoanID           string `json:"loan_id"`
	Type             string `json:"type" enum:"credit_check,document_review,property_link,distance_check,income_verification,custom"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	AssignedTo       string `json:"assigned_to,omitempty"`
	RequiresApproval bool   `json:"requires_approval,omitempty"`
	ConditionText    string `json:"condition_text,omitempty"`
}

type UpdateTaskStatusRequest struct {
	Status string `json:"status" enum:"pending,in_progress,completed,failed"`
}

type CompleteTaskRequest struct {
	Result string `json:"result,omitempty"`
}

type RejectTaskRequest struct {
	Reason string `json:"reason,omitempty"`
}

type BulkTaskRequest struct {
	Action string   `json:"action" enum:"approve,complete,delete"`
	IDs    []string `json:"ids"`
	Result string   `json:"result,omitempty"`
}

type CreateGoalRequest struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description,omitempty"`
	Tasks       []domain.TaskDefinition `json:"tasks"`
}

type ApplyTemplateRequest struct {
	TemplateID string `json:"template_id"`
}

type SetGoalStatusRequest struct {
	Status string `json:"status" enum:"active,paused,completed"`
}

type SaveTemplateRequest struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description,omitempty"`
	Category    string                  `json:"category,omitempty" enum:"standard,verification,comprehensive,custom"`
	Rules       []domain.MatchRule      `json:"rules,omitempty"`
	Tasks       []domain.TaskDefinition `json:"tasks"`
	IsActive    bool                    `json:"is_active,omitempty"`
}

type MatchTemplateRequest struct {
	Purpose        string  `json:"purpose,omitempty"`
	Amount         float64 `json:"amount,omitempty"`
	PropertyType   string  `json:"property_type,omitempty"`
	EstimatedValue float64 `json:"estimated_value,omitempty"`
	// FileName routes through the document metadata extractor instead of the
	// explicit fields above.
	FileName string `json:"file_name,omitempty"`
}

// Response payloads

type StatusChangeResponse struct {
	Loan     domain.Loan     `json:"loan"`
	Decision domain.Decision `json:"decision"`
}

type CreateLoanResponse struct {
	Loan  domain.Loan     `json:"loan"`
	Goals []domain.AIGoal `json:"goals,omitempty"`
}

type GoalResponse struct {
	Goal  domain.AIGoal `json:"goal"`
	Tasks []domain.Task `json:"tasks,omitempty"`
}

type GoalProgressResponse struct {
	GoalID    string `json:"goal_id"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

type StatsResponse struct {
	Pipeline domain.PipelineStats `json:"pipeline"`
	Tasks    domain.TaskStats     `json:"tasks"`
}

type BulkResponse struct {
	Affected int `json:"affected"`
}

func loanFromCreateRequest(r CreateLoanRequest) domain.Loan {
	return domain.Loan{
		BorrowerName:    r.BorrowerName,
		BorrowerEmail:   r.BorrowerEmail,
		BorrowerPhone:   r.BorrowerPhone,
		LoanPurpose:     r.LoanPurpose,
		PropertyType:    r.PropertyType,
		LoanAmount:      r.LoanAmount,
		EstimatedValue:  r.EstimatedValue,
		InterestRate:    r.InterestRate,
		Term:            r.Term,
		SubjectProperty: r.SubjectProperty,
		Properties:      r.Properties,
		Employment:      r.Employment,
		Liabilities:     r.Liabilities,
		Documents:       r.Documents,
		AssignedTo:      r.AssignedTo,
		Notes:           r.Notes,
	}
}

func templateFromSaveRequest(r SaveTemplateRequest) domain.GoalTemplate {
	return domain.GoalTemplate{
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Rules:       r.Rules,
		Tasks:       r.Tasks,
		IsActive:    r.IsActive,
	}
}
