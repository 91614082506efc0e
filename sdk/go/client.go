package loanlinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Loanline HTTP API client.
type Client struct {
	BaseURL    string
	ActorID    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Loan represents the API loan model (partial).
type Loan struct {
	ID           string  `json:"id"`
	LoanNumber   string  `json:"loan_number"`
	BorrowerName string  `json:"borrower_name"`
	LoanPurpose  string  `json:"loan_purpose"`
	LoanAmount   float64 `json:"loan_amount"`
	Status       string  `json:"status"`
	AssignedTo   string  `json:"assigned_to,omitempty"`
	Notes        string  `json:"notes,omitempty"`
}

// Task represents the API task model (partial).
type Task struct {
	ID               string `json:"id"`
	LoanID           string `json:"loan_id"`
	LoanNumber       string `json:"loan_number"`
	Title            string `json:"title"`
	Type             string `json:"type"`
	Status           string `json:"status"`
	Result           string `json:"result,omitempty"`
	RequiresApproval bool   `json:"requires_approval"`
	Approved         bool   `json:"approved,omitempty"`
}

// Decision represents an audit record of a loan status change.
type Decision struct {
	ID             string `json:"id"`
	LoanID         string `json:"loan_id"`
	Type           string `json:"type"`
	MadeBy         string `json:"made_by"`
	MadeAt         string `json:"made_at"`
	Reason         string `json:"reason"`
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
}

// Event represents a log entry.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// StatusChange pairs an updated loan with the decision recorded for it.
type StatusChange struct {
	Loan     Loan     `json:"loan"`
	Decision Decision `json:"decision"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateLoan creates a loan in draft status.
func (c *Client) CreateLoan(ctx context.Context, borrowerName, purpose string, amount float64) (Loan, error) {
	body := map[string]any{
		"borrower_name": borrowerName,
		"loan_purpose":  purpose,
		"loan_amount":   amount,
	}
	var resp struct {
		Loan Loan `json:"loan"`
	}
	err := c.do(ctx, http.MethodPost, "v0/loans", body, &resp)
	return resp.Loan, err
}

// GetLoan fetches a loan by id.
func (c *Client) GetLoan(ctx context.Context, id string) (Loan, error) {
	var resp Loan
	err := c.do(ctx, http.MethodGet, "v0/loans/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// ListLoans returns loans, optionally filtered by status.
func (c *Client) ListLoans(ctx context.Context, status string) ([]Loan, error) {
	endpoint := "v0/loans"
	if status != "" {
		endpoint += "?status=" + url.QueryEscape(status)
	}
	var resp []Loan
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// ChangeLoanStatus updates a loan's status and returns the recorded decision.
func (c *Client) ChangeLoanStatus(ctx context.Context, id, status, notes string) (StatusChange, error) {
	body := map[string]any{"status": status, "notes": notes}
	var resp StatusChange
	endpoint := fmt.Sprintf("v0/loans/%s/status", url.PathEscape(id))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// LoanTasks returns the tasks generated for a loan.
func (c *Client) LoanTasks(ctx context.Context, loanID string) ([]Task, error) {
	var resp []Task
	endpoint := fmt.Sprintf("v0/loans/%s/tasks", url.PathEscape(loanID))
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// ApproveTask approves a completed task.
func (c *Client) ApproveTask(ctx context.Context, id string) (Task, error) {
	var resp Task
	endpoint := fmt.Sprintf("v0/tasks/%s/approve", url.PathEscape(id))
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// Decisions returns decisions, optionally filtered by loan.
func (c *Client) Decisions(ctx context.Context, loanID string) ([]Decision, error) {
	endpoint := "v0/decisions"
	if loanID != "" {
		endpoint += "?loan_id=" + url.QueryEscape(loanID)
	}
	var resp []Decision
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Events returns recent events.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	endpoint := "v0/events"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp []Event
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.ActorID != "" {
		req.Header.Set("X-Actor-Id", c.ActorID)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
