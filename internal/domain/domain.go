package domain

// Loan pipeline statuses. No legal-transition table is enforced; any status
// may follow any other.
const (
	LoanDraft      = "draft"
	LoanSubmitted  = "submitted"
	LoanInReview   = "in_review"
	LoanConditions = "conditions"
	LoanApproved   = "approved"
	LoanDenied     = "denied"
	LoanClosed     = "closed"
)

const (
	TaskPending    = "pending"
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"
	TaskFailed     = "failed"
)

const (
	DecisionApproved    = "approved"
	DecisionDenied      = "denied"
	DecisionConditional = "conditional"
	DecisionAutoAction  = "auto_action"
)

const (
	GoalActive    = "active"
	GoalPaused    = "paused"
	GoalCompleted = "completed"
)

// AIAgent is the sentinel assignee for automated task execution.
const AIAgent = "ai_agent"

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
}

type Employment struct {
	EmployerName    string   `json:"employer_name"`
	Position        string   `json:"position"`
	StartDate       string   `json:"start_date"`
	MonthlyIncome   float64  `json:"monthly_income"`
	EmployerAddress *Address `json:"employer_address,omitempty"`
	IsRemote        bool     `json:"is_remote,omitempty"`
}

type Liability struct {
	ID             string  `json:"id"`
	Type           string  `json:"type" enum:"mortgage,credit_card,auto_loan,student_loan,other"`
	Lender         string  `json:"lender"`
	Balance        float64 `json:"balance"`
	MonthlyPayment float64 `json:"monthly_payment"`
	PropertyID     string  `json:"property_id,omitempty"`
}

type Property struct {
	ID                string  `json:"id"`
	Address           Address `json:"address"`
	EstimatedValue    float64 `json:"estimated_value"`
	OccupancyType     string  `json:"occupancy_type" enum:"primary,secondary,investment"`
	IsSubjectProperty bool    `json:"is_subject_property"`
}

type Document struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type" enum:"w2,bank_statement,mortgage_statement,id_document,paystub,tax_return,other"`
	Status     string `json:"status" enum:"uploaded,processing,verified,rejected"`
	UploadDate string `json:"upload_date" format:"date-time"`
	URL        string `json:"url,omitempty"`
}

type Loan struct {
	ID              string       `json:"id"`
	LoanNumber      string       `json:"loan_number"`
	BorrowerName    string       `json:"borrower_name"`
	BorrowerEmail   string       `json:"borrower_email"`
	BorrowerPhone   string       `json:"borrower_phone"`
	LoanPurpose     string       `json:"loan_purpose" enum:"purchase,refinance_rate_term,refinance_cash_out,construction,home_equity"`
	PropertyType    string       `json:"property_type" enum:"single_family,condo,townhouse,multi_family,commercial"`
	LoanAmount      float64      `json:"loan_amount"`
	EstimatedValue  float64      `json:"estimated_value"`
	InterestRate    *float64     `json:"interest_rate,omitempty"`
	Term            *int         `json:"term,omitempty"`
	SubjectProperty Address      `json:"subject_property"`
	Properties      []Property   `json:"properties"`
	Employment      []Employment `json:"employment"`
	Liabilities     []Liability  `json:"liabilities"`
	Documents       []Document   `json:"documents"`
	Status          string       `json:"status" enum:"draft,submitted,in_review,conditions,approved,denied,closed"`
	CreatedAt       string       `json:"created_at" format:"date-time"`
	UpdatedAt       string       `json:"updated_at" format:"date-time"`
	AssignedTo      string       `json:"assigned_to,omitempty"`
	Notes           string       `json:"notes,omitempty"`
}

type Task struct {
	ID               string  `json:"id"`
	LoanID           string  `json:"loan_id"`
	LoanNumber       string  `json:"loan_number"`
	BorrowerName     string  `json:"borrower_name"`
	Type             string  `json:"type" enum:"credit_check,document_review,property_link,distance_check,income_verification,custom"`
	Title            string  `json:"title"`
	Description      string  `json:"description,omitempty"`
	Status           string  `json:"status" enum:"pending,in_progress,completed,failed"`
	CreatedAt        string  `json:"created_at" format:"date-time"`
	CompletedAt      *string `json:"completed_at,omitempty" format:"date-time"`
	AssignedTo       string  `json:"assigned_to,omitempty"`
	Result           string  `json:"result,omitempty"`
	RequiresApproval bool    `json:"requires_approval"`
	Approved         bool    `json:"approved,omitempty"`
	ApprovedBy       string  `json:"approved_by,omitempty"`
	ApprovedAt       *string `json:"approved_at,omitempty" format:"date-time"`
	AutoAction       bool    `json:"auto_action,omitempty"`
	ConditionText    string  `json:"condition_text,omitempty"`
	// DefinitionID links a generated task back to the goal task definition
	// it was created from.
	DefinitionID string `json:"definition_id,omitempty"`
}

// AwaitingApproval reports whether the task is actionable for approval.
func (t Task) AwaitingApproval() bool {
	return t.RequiresApproval && !t.Approved && t.Status == TaskCompleted
}

type TaskDefinition struct {
	ID          string `json:"id"`
	Type        string `json:"type" enum:"credit_check,document_review,property_link,distance_check,income_verification,custom"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	AutoExecute bool   `json:"auto_execute"`
	Condition   string `json:"condition,omitempty"`
}

// AIGoal is an applied automation plan for one loan. Its task definitions
// correspond 1:1 with generated Task records via DefinitionID.
type AIGoal struct {
	ID          string           `json:"id"`
	LoanID      string           `json:"loan_id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Tasks       []TaskDefinition `json:"tasks"`
	Status      string           `json:"status" enum:"active,paused,completed"`
	CreatedAt   string           `json:"created_at" format:"date-time"`
}

// MatchRule is a template applicability rule evaluated against loan metadata.
type MatchRule struct {
	Field    string `json:"field"`
	Operator string `json:"operator" enum:">,<,>=,<=,==,in"`
	Value    any    `json:"value"`
}

// GoalTemplate is a reusable, loan-independent automation plan. Templates are
// catalog entries; AIGoals are applied instances.
type GoalTemplate struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Category    string           `json:"category" enum:"standard,verification,comprehensive,custom"`
	Rules       []MatchRule      `json:"rules,omitempty"`
	Tasks       []TaskDefinition `json:"tasks"`
	IsActive    bool             `json:"is_active"`
}

// Decision is an immutable audit record of a loan status change.
type Decision struct {
	ID             string   `json:"id"`
	LoanID         string   `json:"loan_id"`
	LoanNumber     string   `json:"loan_number"`
	BorrowerName   string   `json:"borrower_name"`
	Type           string   `json:"type" enum:"approved,denied,conditional,auto_action"`
	MadeBy         string   `json:"made_by"`
	MadeAt         string   `json:"made_at" format:"date-time"`
	Reason         string   `json:"reason"`
	Details        string   `json:"details,omitempty"`
	Conditions     []string `json:"conditions,omitempty"`
	AutoExecuted   bool     `json:"auto_executed,omitempty"`
	PreviousStatus string   `json:"previous_status" enum:"draft,submitted,in_review,conditions,approved,denied,closed"`
	NewStatus      string   `json:"new_status" enum:"draft,submitted,in_review,conditions,approved,denied,closed"`
}

type PipelineStats struct {
	Total      int `json:"total"`
	Draft      int `json:"draft"`
	Submitted  int `json:"submitted"`
	InReview   int `json:"in_review"`
	Conditions int `json:"conditions"`
	Approved   int `json:"approved"`
	Denied     int `json:"denied"`
	Closed     int `json:"closed"`
}

type TaskStats struct {
	Total            int `json:"total"`
	Pending          int `json:"pending"`
	InProgress       int `json:"in_progress"`
	Completed        int `json:"completed"`
	Failed           int `json:"failed"`
	RequiresApproval int `json:"requires_approval"`
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role" enum:"loan_officer,processor,underwriter,admin,ai"`
}

type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload,omitempty"`
}
