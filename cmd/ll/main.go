package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"loanline/internal/app"
	"loanline/internal/config"
	"loanline/internal/domain"
	"loanline/internal/match"
	"loanline/internal/orchestrator"
	"loanline/internal/server"
	"loanline/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "ll",
	Short: "Loanline CLI",
	Long: `Loanline manages a mortgage loan pipeline with AI-assisted automation.
Core concepts:
- Loans: applications flowing draft -> submitted -> in_review -> conditions -> approved/denied -> closed.
- Goals: automation plans applied to a loan; each goal generates one task per definition.
- Templates: reusable goal plans; match rules pick the best template for a loan's metadata.
- Tasks: units of work; auto-executing ones are completed by the simulated AI agent.
- Decisions: immutable audit records of every status change, human or automated.
State is in-memory: single invocations work against the seeded demo dataset,
and 'll serve' keeps a live pipeline behind the HTTP API.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("LOANLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(loanCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(goalCmd())
	rootCmd.AddCommand(templateCmd())
	rootCmd.AddCommand(decisionCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(serveCmd())
}

func loanCmd() *cobra.Command {
	loan := &cobra.Command{
		Use:   "loan",
		Short: "Manage loans",
		Long:  "Loans are the pipeline entries. Creating one with --template or --auto-match applies automation immediately; auto-executing tasks finish before the command returns.",
	}
	loan.AddCommand(loanListCmd())
	loan.AddCommand(loanShowCmd())
	loan.AddCommand(loanCreateCmd())
	loan.AddCommand(loanStatusCmd())
	return loan
}

func loanListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List loans",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				var loans []domain.Loan
				if status != "" {
					loans = a.Loans.LoansByStatus(status)
				} else {
					loans = a.Loans.Loans()
				}
				if viper.GetBool("json") {
					return printJSON(loans)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Number", "Borrower", "Amount", "Status", "Assigned"})
				for _, l := range loans {
					tw.AppendRow(table.Row{l.ID, l.LoanNumber, l.BorrowerName, l.LoanAmount, l.Status, l.AssignedTo})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	return cmd
}

func loanShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a loan with its tasks and decisions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withApp(func(a *app.App) error {
				loan, ok := a.Loans.GetLoan(id)
				if !ok {
					return fmt.Errorf("loan %s: %w", id, store.ErrNotFound)
				}
				out := map[string]any{
					"loan":      loan,
					"tasks":     a.Tasks.TasksByLoan(id),
					"goals":     a.Tasks.GoalsByLoan(id),
					"decisions": a.Tasks.DecisionsByLoan(id),
				}
				return printJSONOrTable(out)
			})
		},
	}
	return cmd
}

func loanCreateCmd() *cobra.Command {
	var borrower, email, purpose, propertyType, assignedTo string
	var amount, estimatedValue float64
	var templateIDs []string
	var autoMatch bool
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a loan",
		RunE: func(cmd *cobra.Command, args []string) error {
			if borrower == "" {
				return fmt.Errorf("--borrower required")
			}
			return withApp(func(a *app.App) error {
				loan, goals, err := a.Facade.CreateLoan(orchestrator.CreateLoanInput{
					Loan: domain.Loan{
						BorrowerName:   borrower,
						BorrowerEmail:  email,
						LoanPurpose:    purpose,
						PropertyType:   propertyType,
						LoanAmount:     amount,
						EstimatedValue: estimatedValue,
						AssignedTo:     assignedTo,
					},
					TemplateIDs: templateIDs,
					AutoMatch:   autoMatch,
					ActorID:     viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				a.Facade.Wait()
				return printJSONOrTable(map[string]any{"loan": loan, "goals": goals})
			})
		},
	}
	cmd.Flags().StringVar(&borrower, "borrower", "", "borrower name")
	cmd.Flags().StringVar(&email, "email", "", "borrower email")
	cmd.Flags().StringVar(&purpose, "purpose", "purchase", "loan purpose")
	cmd.Flags().StringVar(&propertyType, "property-type", "single_family", "property type")
	cmd.Flags().Float64Var(&amount, "amount", 0, "loan amount")
	cmd.Flags().Float64Var(&estimatedValue, "estimated-value", 0, "estimated property value")
	cmd.Flags().StringVar(&assignedTo, "assigned-to", "", "assignee")
	cmd.Flags().StringArrayVar(&templateIDs, "template", []string{}, "goal template id (repeatable)")
	cmd.Flags().BoolVar(&autoMatch, "auto-match", false, "pick the best-matching template automatically")
	_ = cmd.MarkFlagRequired("borrower")
	return cmd
}

func loanStatusCmd() *cobra.Command {
	var status, notes string
	cmd := &cobra.Command{
		Use:   "set-status <id>",
		Short: "Change loan status and record the decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if status == "" {
				return fmt.Errorf("--status required")
			}
			id := args[0]
			return withApp(func(a *app.App) error {
				loan, decision, err := a.Facade.ChangeLoanStatus(id, status, notes, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(map[string]any{"loan": loan, "decision": decision})
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "new status")
	cmd.Flags().StringVar(&notes, "notes", "", "decision reason")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func taskCmd() *cobra.Command {
	task := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
		Long:  "Tasks flow pending -> in_progress -> completed/failed. Tasks flagged requires_approval stay actionable until a reviewer approves or rejects them.",
	}
	task.AddCommand(taskListCmd())
	task.AddCommand(taskApproveCmd())
	task.AddCommand(taskRejectCmd())
	task.AddCommand(taskCompleteCmd())
	return task
}

func taskListCmd() *cobra.Command {
	var status, loanID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				var tasks []domain.Task
				if loanID != "" {
					tasks = a.Tasks.TasksByLoan(loanID)
				} else {
					tasks = a.Tasks.Tasks()
				}
				if status != "" {
					filtered := make([]domain.Task, 0, len(tasks))
					for _, t := range tasks {
						if t.Status == status {
							filtered = append(filtered, t)
						}
					}
					tasks = filtered
				}
				if viper.GetBool("json") {
					return printJSON(tasks)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Loan", "Title", "Status", "Approval"})
				for _, t := range tasks {
					approval := ""
					if t.AwaitingApproval() {
						approval = "awaiting"
					} else if t.Approved {
						approval = "approved"
					}
					tw.AppendRow(table.Row{t.ID, t.LoanNumber, t.Title, t.Status, approval})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	cmd.Flags().StringVar(&loanID, "loan", "", "loan id filter")
	return cmd
}

func taskApproveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a completed task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				t, err := a.Facade.ApproveTask(args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	return cmd
}

func taskRejectCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				t, err := a.Facade.RejectTask(args[0], reason, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "rejection reason")
	return cmd
}

func taskCompleteCmd() *cobra.Command {
	var result string
	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Complete a task manually",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				t, err := a.Facade.CompleteTask(args[0], result, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&result, "result", "", "result text")
	return cmd
}

func goalCmd() *cobra.Command {
	goal := &cobra.Command{
		Use:   "goal",
		Short: "Manage goals",
		Long:  "Goals are automation plans applied to a loan. A goal completes automatically once every task it generated is completed.",
	}
	goal.AddCommand(goalListCmd())
	goal.AddCommand(goalApplyCmd())
	return goal
}

func goalListCmd() *cobra.Command {
	var loanID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List goals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				var goals []domain.AIGoal
				if loanID != "" {
					goals = a.Tasks.GoalsByLoan(loanID)
				} else {
					goals = a.Tasks.Goals()
				}
				if viper.GetBool("json") {
					return printJSON(goals)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Loan", "Name", "Status", "Progress"})
				for _, g := range goals {
					completed, total := a.Tasks.GoalProgress(g.ID)
					tw.AppendRow(table.Row{g.ID, g.LoanID, g.Name, g.Status, fmt.Sprintf("%d/%d", completed, total)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&loanID, "loan", "", "loan id filter")
	return cmd
}

func goalApplyCmd() *cobra.Command {
	var templateID string
	cmd := &cobra.Command{
		Use:   "apply <loan-id>",
		Short: "Apply a goal template to a loan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if templateID == "" {
				return fmt.Errorf("--template required")
			}
			return withApp(func(a *app.App) error {
				goal, tasks, err := a.Facade.ApplyTemplate(args[0], templateID, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				a.Facade.Wait()
				return printJSONOrTable(map[string]any{"goal": goal, "tasks": tasks})
			})
		},
	}
	cmd.Flags().StringVar(&templateID, "template", "", "template id")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func templateCmd() *cobra.Command {
	tpl := &cobra.Command{
		Use:   "template",
		Short: "Manage goal templates",
		Long:  "Templates are the automation catalog: built-in plans plus custom ones. Match rules select the best template for a loan's purpose, amount and property type.",
	}
	tpl.AddCommand(templateListCmd())
	tpl.AddCommand(templateShowCmd())
	tpl.AddCommand(templateMatchCmd())
	return tpl
}

func templateListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				templates := a.Templates.List()
				if viper.GetBool("json") {
					return printJSON(templates)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Category", "Tasks", "Active"})
				for _, t := range templates {
					tw.AppendRow(table.Row{t.ID, t.Name, t.Category, len(t.Tasks), t.IsActive})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func templateShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				tpl, ok := a.Templates.Get(args[0])
				if !ok {
					return fmt.Errorf("template %s: %w", args[0], store.ErrNotFound)
				}
				return printJSONOrTable(tpl)
			})
		},
	}
	return cmd
}

func templateMatchCmd() *cobra.Command {
	var purpose, propertyType, fileName string
	var amount, estimatedValue float64
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Find the best matching template",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				meta := match.LoanMetadata{
					Purpose:        purpose,
					Amount:         amount,
					PropertyType:   propertyType,
					EstimatedValue: estimatedValue,
				}
				if fileName != "" {
					meta = match.ExtractDocumentMetadata(fileName)
				}
				tpl, ok := match.FindBestMatchingTemplate(meta, a.Templates.List())
				if !ok {
					return fmt.Errorf("no matching template")
				}
				return printJSONOrTable(tpl)
			})
		},
	}
	cmd.Flags().StringVar(&purpose, "purpose", "", "loan purpose")
	cmd.Flags().Float64Var(&amount, "amount", 0, "loan amount")
	cmd.Flags().StringVar(&propertyType, "property-type", "", "property type")
	cmd.Flags().Float64Var(&estimatedValue, "estimated-value", 0, "estimated value")
	cmd.Flags().StringVar(&fileName, "file", "", "document file name to extract metadata from")
	return cmd
}

func decisionCmd() *cobra.Command {
	dec := &cobra.Command{
		Use:   "decision",
		Short: "Inspect decisions",
		Long:  "Decisions record who changed a loan's status, when, and why. They are never edited or deleted.",
	}
	dec.AddCommand(decisionListCmd())
	return dec
}

func decisionListCmd() *cobra.Command {
	var loanID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List decisions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				var items []domain.Decision
				if loanID != "" {
					items = a.Tasks.DecisionsByLoan(loanID)
				} else {
					items = a.Tasks.Decisions()
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Loan", "Type", "By", "Reason"})
				for _, d := range items {
					tw.AppendRow(table.Row{d.ID, d.LoanNumber, d.Type, d.MadeBy, d.Reason})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&loanID, "loan", "", "loan id filter")
	return cmd
}

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show pipeline and task statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				pipeline := a.Loans.Stats()
				tasks := a.Tasks.Stats()
				if viper.GetBool("json") {
					return printJSON(map[string]any{"pipeline": pipeline, "tasks": tasks})
				}
				fmt.Printf("Loans: %d total (%d draft, %d submitted, %d in review, %d conditions, %d approved, %d denied, %d closed)\n",
					pipeline.Total, pipeline.Draft, pipeline.Submitted, pipeline.InReview,
					pipeline.Conditions, pipeline.Approved, pipeline.Denied, pipeline.Closed)
				fmt.Printf("Tasks: %d total (%d pending, %d in progress, %d completed, %d failed, %d awaiting approval)\n",
					tasks.Total, tasks.Pending, tasks.InProgress, tasks.Completed,
					tasks.Failed, tasks.RequiresApproval)
				return nil
			})
		},
	}
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Event log",
	}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				return printJSONOrTable(a.Log.Latest(n, evtType, entityKind, entityID))
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect workspace config",
		Long:  "Config covers the listen address, automation delays, the user directory and demo seeding. Loaded from loanline.yml in the workspace when present.",
	}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configValidateCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default loanline.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing config")
	return cmd
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show resolved config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.ResolveConfig(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSONOrTable(cfg)
		},
	}
	return cmd
}

func configValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate workspace config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.ResolveConfig(viper.GetString("workspace"))
			if err == nil {
				err = cfg.Validate()
			}
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.ResolveConfig(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			a := app.New(cfg)
			defer a.Close()
			handler, err := server.New(server.Config{App: a, BasePath: basePath})
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Listen
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Loanline API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to config server.listen)")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

// withApp builds the application context for one invocation. State is
// in-memory, so every invocation starts from the configured seed.
func withApp(fn func(*app.App) error) error {
	cfg, err := app.ResolveConfig(viper.GetString("workspace"))
	if err != nil {
		return err
	}
	a := app.New(cfg)
	defer a.Close()
	return fn(a)
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
