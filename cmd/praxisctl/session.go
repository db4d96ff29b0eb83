package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/praxislabs/praxis/internal/agents"
	"github.com/praxislabs/praxis/internal/config"
	"github.com/praxislabs/praxis/internal/database"
	"github.com/praxislabs/praxis/internal/grading"
	"github.com/praxislabs/praxis/internal/knowledge"
	"github.com/praxislabs/praxis/internal/provider"
	"github.com/praxislabs/praxis/internal/question"
	"github.com/praxislabs/praxis/internal/training"
	"github.com/praxislabs/praxis/pkg/models"
)

func newSessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage training sessions",
	}
	cmd.AddCommand(newSessionStartCommand())
	cmd.AddCommand(newSessionListCommand())
	cmd.AddCommand(newSessionShowCommand())
	cmd.AddCommand(newSessionAdvanceCommand())
	cmd.AddCommand(newSessionSetStatusCommand("pause", models.SessionStatusPaused, "Pause an in-progress session"))
	cmd.AddCommand(newSessionSetStatusCommand("resume", models.SessionStatusInProgress, "Resume a paused session"))
	return cmd
}

// newOrchestrator wires an orchestrator over the CLI's store for commands
// that run iterations directly.
func newOrchestrator(cfg *config.Config, db *database.Database) (*training.Orchestrator, error) {
	roster := agents.NewStaticDirectory()
	for _, a := range cfg.Agents {
		roster.Add(&models.Agent{ID: a.ID, Name: a.Name, Role: a.Role, Status: "idle"})
	}

	registry := provider.NewRegistry(nil)
	if err := registry.Register(&provider.Config{
		ID:       cfg.Provider.ID,
		Name:     cfg.Provider.Name,
		Type:     cfg.Provider.Type,
		Endpoint: cfg.Provider.Endpoint,
		APIKey:   cfg.Provider.APIKey,
		Model:    cfg.Provider.Model,
	}); err != nil {
		return nil, err
	}
	prov, err := registry.Get(cfg.Provider.ID)
	if err != nil {
		return nil, err
	}

	return training.NewOrchestrator(
		db,
		roster,
		question.NewGenerator(prov, nil),
		grading.NewEngine(grading.NewProviderRubric(prov), nil),
		knowledge.NewStore(db),
		training.NewAutoAnswerSource(cfg.Training.AutoAccuracy, time.Now().UnixNano()),
		nil,
		nil,
		training.Config{
			PassingScores:  cfg.Training.PassingScores,
			QuestionCounts: cfg.Training.QuestionCounts,
		},
	), nil
}

func newSessionStartCommand() *cobra.Command {
	var agentID, specialtyID, target string
	var maxIterations int

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a training session for an agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			orchestrator, err := newOrchestrator(cfg, db)
			if err != nil {
				return err
			}
			if maxIterations == 0 {
				maxIterations = cfg.Training.MaxIterations
			}
			session, err := orchestrator.StartSession(context.Background(), agentID, specialtyID, target, maxIterations)
			if err != nil {
				return err
			}
			return printJSON(session)
		},
	}
	cmd.Flags().StringVar(&agentID, "agent", "", "Agent ID (required)")
	cmd.Flags().StringVar(&specialtyID, "specialty", "", "Specialty ID (required)")
	cmd.Flags().StringVar(&target, "target", "", "Target competency level (required)")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "Iteration budget (default from config)")
	cmd.MarkFlagRequired("agent")
	cmd.MarkFlagRequired("specialty")
	cmd.MarkFlagRequired("target")
	return cmd
}

func newSessionListCommand() *cobra.Command {
	var agentID, status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List training sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()
			ctx := context.Background()

			var sessions []*models.TrainingSession
			switch {
			case agentID != "":
				sessions, err = db.ListSessionsByAgent(ctx, agentID)
			case status != "":
				sessions, err = db.ListSessionsByStatus(ctx, models.SessionStatus(status))
			default:
				sessions, err = db.ListSessions(ctx)
			}
			if err != nil {
				return err
			}
			return printJSON(sessions)
		},
	}
	cmd.Flags().StringVar(&agentID, "agent", "", "Filter by agent ID")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	return cmd
}

func newSessionShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session's progress summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			orchestrator, err := newOrchestrator(cfg, db)
			if err != nil {
				return err
			}
			summary, err := orchestrator.Summary(context.Background(), args[0])
			if err != nil {
				return err
			}
			return printJSON(summary)
		},
	}
}

func newSessionAdvanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "advance <session-id>",
		Short: "Run one training iteration immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			orchestrator, err := newOrchestrator(cfg, db)
			if err != nil {
				return err
			}
			result, err := orchestrator.Advance(context.Background(), args[0])
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
}

func newSessionSetStatusCommand(use string, status models.SessionStatus, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <session-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()
			ctx := context.Background()

			session, err := db.GetSession(ctx, args[0])
			if err != nil {
				return err
			}
			session.Status = status
			if err := db.UpdateSession(ctx, session); err != nil {
				return err
			}
			return printJSON(session)
		},
	}
}
