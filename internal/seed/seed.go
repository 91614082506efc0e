// Package seed loads the demo pipeline: a handful of loans in various stages
// with the tasks, goal and decisions an AI-assisted review would have left
// behind. Applied at startup when seed.demo is enabled.
package seed

import (
	"loanline/internal/domain"
	"loanline/internal/store"
)

// Apply loads the demo dataset into both stores.
func Apply(loans *store.LoanStore, tasks *store.TaskStore) {
	loans.Load(DemoLoans())
	tasks.Load(DemoTasks(), DemoGoals(), DemoDecisions())
}

func ptr[T any](v T) *T { return &v }

func DemoLoans() []domain.Loan {
	return []domain.Loan{
		{
			ID:              "1",
			LoanNumber:      "FINTEGRAL-284756-421",
			BorrowerName:    "Andy America",
			BorrowerEmail:   "andy.america@email.com",
			BorrowerPhone:   "(555) 123-4567",
			LoanPurpose:     "refinance_rate_term",
			PropertyType:    "single_family",
			LoanAmount:      350000,
			EstimatedValue:  550000,
			InterestRate:    ptr(6.5),
			Term:            ptr(30),
			SubjectProperty: domain.Address{Street: "123 Bay Street", City: "Saint Petersburg", State: "FL", ZipCode: "33701"},
			Properties: []domain.Property{
				{
					ID:                "p1",
					Address:           domain.Address{Street: "123 Bay Street", City: "Saint Petersburg", State: "FL", ZipCode: "33701"},
					EstimatedValue:    550000,
					OccupancyType:     "primary",
					IsSubjectProperty: true,
				},
				{
					ID:             "p2",
					Address:        domain.Address{Street: "456 Lake Ave", City: "Baton Rouge", State: "LA", ZipCode: "70801"},
					EstimatedValue: 320000,
					OccupancyType:  "investment",
				},
			},
			Employment: []domain.Employment{
				{
					EmployerName:    "Testa Corporation",
					Position:        "Software Engineer",
					StartDate:       "2020-01-15",
					MonthlyIncome:   15000,
					EmployerAddress: &domain.Address{Street: "789 Tech Blvd", City: "Austin", State: "TX", ZipCode: "78701"},
					IsRemote:        true,
				},
			},
			Liabilities: []domain.Liability{
				{ID: "l1", Type: "mortgage", Lender: "First National Bank", Balance: 280000, MonthlyPayment: 1800, PropertyID: "p1"},
				{ID: "l2", Type: "mortgage", Lender: "Southern Mortgage Co", Balance: 150000, MonthlyPayment: 950, PropertyID: "p2"},
				{ID: "l3", Type: "credit_card", Lender: "Visa", Balance: 8500, MonthlyPayment: 250},
			},
			Status:     domain.LoanInReview,
			CreatedAt:  "2026-02-01T10:00:00Z",
			UpdatedAt:  "2026-02-05T15:30:00Z",
			AssignedTo: "John Smith",
		},
		{
			ID:              "2",
			LoanNumber:      "FINTEGRAL-284761-892",
			BorrowerName:    "Sarah Johnson",
			BorrowerEmail:   "sarah.j@email.com",
			BorrowerPhone:   "(555) 987-6543",
			LoanPurpose:     "purchase",
			PropertyType:    "condo",
			LoanAmount:      425000,
			EstimatedValue:  500000,
			InterestRate:    ptr(7.0),
			Term:            ptr(30),
			SubjectProperty: domain.Address{Street: "789 Ocean Drive", City: "Miami", State: "FL", ZipCode: "33139"},
			Properties: []domain.Property{
				{
					ID:                "p3",
					Address:           domain.Address{Street: "789 Ocean Drive", City: "Miami", State: "FL", ZipCode: "33139"},
					EstimatedValue:    500000,
					OccupancyType:     "primary",
					IsSubjectProperty: true,
				},
			},
			Employment: []domain.Employment{
				{
					EmployerName:    "Miami Tech Solutions",
					Position:        "Product Manager",
					StartDate:       "2019-06-01",
					MonthlyIncome:   12000,
					EmployerAddress: &domain.Address{Street: "100 Brickell Ave", City: "Miami", State: "FL", ZipCode: "33131"},
				},
			},
			Liabilities: []domain.Liability{
				{ID: "l4", Type: "student_loan", Lender: "Federal Student Aid", Balance: 45000, MonthlyPayment: 350},
				{ID: "l5", Type: "credit_card", Lender: "Amex", Balance: 3200, MonthlyPayment: 150},
			},
			Status:     domain.LoanSubmitted,
			CreatedAt:  "2026-02-03T14:20:00Z",
			UpdatedAt:  "2026-02-04T09:15:00Z",
			AssignedTo: "John Smith",
		},
		{
			ID:              "3",
			LoanNumber:      "FINTEGRAL-284765-103",
			BorrowerName:    "Michael Chen",
			BorrowerEmail:   "mchen@email.com",
			BorrowerPhone:   "(555) 456-7890",
			LoanPurpose:     "refinance_cash_out",
			PropertyType:    "single_family",
			LoanAmount:      600000,
			EstimatedValue:  850000,
			InterestRate:    ptr(6.75),
			Term:            ptr(15),
			SubjectProperty: domain.Address{Street: "456 Mountain View", City: "Denver", State: "CO", ZipCode: "80202"},
			Properties: []domain.Property{
				{
					ID:                "p4",
					Address:           domain.Address{Street: "456 Mountain View", City: "Denver", State: "CO", ZipCode: "80202"},
					EstimatedValue:    850000,
					OccupancyType:     "primary",
					IsSubjectProperty: true,
				},
			},
			Employment: []domain.Employment{
				{
					EmployerName:    "Denver Financial Group",
					Position:        "Financial Analyst",
					StartDate:       "2018-03-10",
					MonthlyIncome:   18000,
					EmployerAddress: &domain.Address{Street: "200 Finance St", City: "Denver", State: "CO", ZipCode: "80205"},
				},
			},
			Liabilities: []domain.Liability{
				{ID: "l6", Type: "mortgage", Lender: "Wells Fargo", Balance: 420000, MonthlyPayment: 2800, PropertyID: "p4"},
				{ID: "l7", Type: "auto_loan", Lender: "Toyota Financial", Balance: 28000, MonthlyPayment: 450},
			},
			Status:     domain.LoanApproved,
			CreatedAt:  "2026-01-28T11:00:00Z",
			UpdatedAt:  "2026-02-02T16:45:00Z",
			AssignedTo: "Jane Doe",
		},
		{
			ID:              "4",
			LoanNumber:      "FINTEGRAL-284770-554",
			BorrowerName:    "Emily Rodriguez",
			BorrowerEmail:   "emily.r@email.com",
			BorrowerPhone:   "(555) 234-5678",
			LoanPurpose:     "purchase",
			PropertyType:    "townhouse",
			LoanAmount:      380000,
			EstimatedValue:  420000,
			InterestRate:    ptr(7.25),
			Term:            ptr(30),
			SubjectProperty: domain.Address{Street: "321 Park Lane", City: "Austin", State: "TX", ZipCode: "78701"},
			Properties: []domain.Property{
				{
					ID:                "p5",
					Address:           domain.Address{Street: "321 Park Lane", City: "Austin", State: "TX", ZipCode: "78701"},
					EstimatedValue:    420000,
					OccupancyType:     "primary",
					IsSubjectProperty: true,
				},
			},
			Employment: []domain.Employment{
				{
					EmployerName:    "Austin Startups Inc",
					Position:        "Marketing Director",
					StartDate:       "2021-02-15",
					MonthlyIncome:   9500,
					EmployerAddress: &domain.Address{Street: "50 Startup Way", City: "Austin", State: "TX", ZipCode: "78702"},
					IsRemote:        true,
				},
			},
			Liabilities: []domain.Liability{
				{ID: "l8", Type: "credit_card", Lender: "Discover", Balance: 5200, MonthlyPayment: 200},
			},
			Status:     domain.LoanConditions,
			CreatedAt:  "2026-02-02T09:30:00Z",
			UpdatedAt:  "2026-02-05T11:20:00Z",
			AssignedTo: "John Smith",
		},
		{
			ID:              "5",
			LoanNumber:      "FINTEGRAL-284775-667",
			BorrowerName:    "David Williams",
			BorrowerEmail:   "dwilliams@email.com",
			BorrowerPhone:   "(555) 876-5432",
			LoanPurpose:     "home_equity",
			PropertyType:    "single_family",
			LoanAmount:      150000,
			EstimatedValue:  650000,
			InterestRate:    ptr(8.0),
			Term:            ptr(20),
			SubjectProperty: domain.Address{Street: "555 Suburban Dr", City: "Phoenix", State: "AZ", ZipCode: "85001"},
			Properties: []domain.Property{
				{
					ID:                "p6",
					Address:           domain.Address{Street: "555 Suburban Dr", City: "Phoenix", State: "AZ", ZipCode: "85001"},
					EstimatedValue:    650000,
					OccupancyType:     "primary",
					IsSubjectProperty: true,
				},
			},
			Employment: []domain.Employment{
				{
					EmployerName:    "Phoenix Healthcare",
					Position:        "Nurse Practitioner",
					StartDate:       "2017-08-20",
					MonthlyIncome:   11000,
					EmployerAddress: &domain.Address{Street: "300 Hospital Blvd", City: "Phoenix", State: "AZ", ZipCode: "85004"},
				},
			},
			Liabilities: []domain.Liability{
				{ID: "l9", Type: "mortgage", Lender: "Chase Bank", Balance: 320000, MonthlyPayment: 1900, PropertyID: "p6"},
			},
			Status:     domain.LoanDenied,
			CreatedAt:  "2026-01-25T13:45:00Z",
			UpdatedAt:  "2026-01-30T10:00:00Z",
			AssignedTo: "Jane Doe",
		},
	}
}

func DemoTasks() []domain.Task {
	return []domain.Task{
		{
			ID:               "t1",
			LoanID:           "1",
			LoanNumber:       "FINTEGRAL-284756-421",
			BorrowerName:     "Andy America",
			Type:             "credit_check",
			Title:            "Credit Inquiries Review",
			Description:      "Review credit inquiries in the last 90 days",
			Status:           domain.TaskCompleted,
			CreatedAt:        "2026-02-05T10:00:00Z",
			CompletedAt:      ptr("2026-02-05T10:15:00Z"),
			AssignedTo:       domain.AIAgent,
			Result:           "Found 2 credit inquiries: Capital One (01/15/26) and Auto Loan Inquiry (01/22/26). Both require explanation letters.",
			RequiresApproval: true,
			Approved:         true,
			ApprovedBy:       "John Smith",
			ApprovedAt:       ptr("2026-02-05T10:30:00Z"),
			DefinitionID:     "gt1",
		},
		{
			ID:           "t2",
			LoanID:       "1",
			LoanNumber:   "FINTEGRAL-284756-421",
			BorrowerName: "Andy America",
			Type:         "property_link",
			Title:        "Link Mortgage to Property (Lake Ave)",
			Description:  "Link mortgage liability to the Baton Rouge property",
			Status:       domain.TaskCompleted,
			CreatedAt:    "2026-02-05T10:00:00Z",
			CompletedAt:  ptr("2026-02-05T10:05:00Z"),
			AssignedTo:   domain.AIAgent,
			Result:       "Successfully linked mortgage liability L2 to property P2 (456 Lake Ave, Baton Rouge, LA)",
			AutoAction:   true,
			DefinitionID: "gt2",
		},
		{
			ID:           "t3",
			LoanID:       "1",
			LoanNumber:   "FINTEGRAL-284756-421",
			BorrowerName: "Andy America",
			Type:         "property_link",
			Title:        "Link Mortgage to Property (Bay Street)",
			Description:  "Link mortgage liability to the subject property",
			Status:       domain.TaskCompleted,
			CreatedAt:    "2026-02-05T10:00:00Z",
			CompletedAt:  ptr("2026-02-05T10:06:00Z"),
			AssignedTo:   domain.AIAgent,
			Result:       "Successfully linked mortgage liability L1 to subject property P1 (123 Bay Street, Saint Petersburg, FL)",
			AutoAction:   true,
			DefinitionID: "gt3",
		},
		{
			ID:               "t4",
			LoanID:           "1",
			LoanNumber:       "FINTEGRAL-284756-421",
			BorrowerName:     "Andy America",
			Type:             "distance_check",
			Title:            "Distance to Employer Check",
			Description:      "Verify distance between subject property and employer address",
			Status:           domain.TaskCompleted,
			CreatedAt:        "2026-02-05T10:00:00Z",
			CompletedAt:      ptr("2026-02-05T10:10:00Z"),
			AssignedTo:       domain.AIAgent,
			Result:           "Distance from subject property (Saint Petersburg, FL) to employer (Austin, TX) is 1,247 miles. Exceeds 50-mile threshold.",
			RequiresApproval: true,
			Approved:         true,
			ApprovedBy:       "John Smith",
			ApprovedAt:       ptr("2026-02-05T10:35:00Z"),
			ConditionText:    "Letter of Explanation required: Distance to employer (1,247 miles) exceeds 50-mile threshold. Please provide explanation for remote work arrangement.",
			DefinitionID:     "gt4",
		},
		{
			ID:           "t5",
			LoanID:       "2",
			LoanNumber:   "FINTEGRAL-284761-892",
			BorrowerName: "Sarah Johnson",
			Type:         "income_verification",
			Title:        "Income Verification",
			Description:  "Verify employment and income with employer",
			Status:       domain.TaskInProgress,
			CreatedAt:    "2026-02-04T09:00:00Z",
			AssignedTo:   domain.AIAgent,
		},
		{
			ID:           "t6",
			LoanID:       "2",
			LoanNumber:   "FINTEGRAL-284761-892",
			BorrowerName: "Sarah Johnson",
			Type:         "document_review",
			Title:        "Review Bank Statements",
			Description:  "Review and verify 2 months of bank statements",
			Status:       domain.TaskPending,
			CreatedAt:    "2026-02-04T09:00:00Z",
			AssignedTo:   domain.AIAgent,
		},
		{
			ID:               "t7",
			LoanID:           "4",
			LoanNumber:       "FINTEGRAL-284770-554",
			BorrowerName:     "Emily Rodriguez",
			Type:             "document_review",
			Title:            "Review Tax Returns",
			Description:      "Review 2 years of tax returns for self-employment income",
			Status:           domain.TaskCompleted,
			CreatedAt:        "2026-02-03T14:00:00Z",
			CompletedAt:      ptr("2026-02-05T11:00:00Z"),
			AssignedTo:       domain.AIAgent,
			Result:           "Tax returns reviewed. Self-employment income verified. Additional documentation needed for business bank statements.",
			RequiresApproval: true,
			ConditionText:    "Please provide 3 months of business bank statements to verify self-employment income stability.",
		},
	}
}

func DemoGoals() []domain.AIGoal {
	return []domain.AIGoal{
		{
			ID:          "g1",
			LoanID:      "1",
			Name:        "AI Agent Demo - Andy America",
			Description: "Complete initial review of refinance application",
			Tasks: []domain.TaskDefinition{
				{ID: "gt1", Type: "credit_check", Title: "Credit Inquiries Review", Description: "Review credit inquiries in the last 90 days", AutoExecute: true},
				{ID: "gt2", Type: "property_link", Title: "Link Mortgage to Property (Lake Ave)", Description: "Link mortgage liability to the Baton Rouge property", AutoExecute: true},
				{ID: "gt3", Type: "property_link", Title: "Link Mortgage to Property (Bay Street)", Description: "Link mortgage liability to the subject property", AutoExecute: true},
				{ID: "gt4", Type: "distance_check", Title: "Distance to Employer Check", Description: "Verify distance between subject property and employer address", AutoExecute: true, Condition: "If distance > 50 miles, create condition for LOE"},
			},
			Status:    domain.GoalCompleted,
			CreatedAt: "2026-02-05T10:00:00Z",
		},
	}
}

func DemoDecisions() []domain.Decision {
	return []domain.Decision{
		{
			ID:             "d1",
			LoanID:         "1",
			LoanNumber:     "FINTEGRAL-284756-421",
			BorrowerName:   "Andy America",
			Type:           domain.DecisionConditional,
			MadeBy:         domain.AIAgent,
			MadeAt:         "2026-02-05T10:10:00Z",
			Reason:         "Distance to employer exceeds 50-mile threshold",
			Details:        "AI Agent detected that the distance from subject property (Saint Petersburg, FL) to employer (Austin, TX) is 1,247 miles, which exceeds the 50-mile threshold for primary residence.",
			Conditions:     []string{"Letter of Explanation required for remote work arrangement"},
			AutoExecuted:   true,
			PreviousStatus: domain.LoanInReview,
			NewStatus:      domain.LoanConditions,
		},
		{
			ID:             "d2",
			LoanID:         "1",
			LoanNumber:     "FINTEGRAL-284756-421",
			BorrowerName:   "Andy America",
			Type:           domain.DecisionApproved,
			MadeBy:         "John Smith",
			MadeAt:         "2026-02-05T10:35:00Z",
			Reason:         "AI Agent tasks completed and approved",
			Details:        "All AI Agent tasks reviewed and approved. Distance condition accepted - borrower works remotely.",
			PreviousStatus: domain.LoanInReview,
			NewStatus:      domain.LoanInReview,
		},
		{
			ID:             "d3",
			LoanID:         "3",
			LoanNumber:     "FINTEGRAL-284765-103",
			BorrowerName:   "Michael Chen",
			Type:           domain.DecisionApproved,
			MadeBy:         "Jane Doe",
			MadeAt:         "2026-02-02T16:45:00Z",
			Reason:         "All conditions met. Strong credit profile and debt-to-income ratio.",
			Details:        "Loan approved with standard conditions. DTI: 28%, LTV: 71%, Credit Score: 780.",
			PreviousStatus: domain.LoanInReview,
			NewStatus:      domain.LoanApproved,
		},
		{
			ID:             "d4",
			LoanID:         "5",
			LoanNumber:     "FINTEGRAL-284775-667",
			BorrowerName:   "David Williams",
			Type:           domain.DecisionDenied,
			MadeBy:         "Jane Doe",
			MadeAt:         "2026-01-30T10:00:00Z",
			Reason:         "Insufficient credit score and high debt-to-income ratio",
			Details:        "Credit score below minimum requirement (580). DTI exceeds maximum threshold (52%).",
			PreviousStatus: domain.LoanInReview,
			NewStatus:      domain.LoanDenied,
		},
	}
}
