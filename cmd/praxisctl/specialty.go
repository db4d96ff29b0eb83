package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/praxislabs/praxis/internal/specialty"
	"github.com/praxislabs/praxis/pkg/models"
)

func newSpecialtyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "specialty",
		Short: "Manage competency specialties",
	}
	cmd.AddCommand(newSpecialtyCreateCommand())
	cmd.AddCommand(newSpecialtyListCommand())
	cmd.AddCommand(newSpecialtyShowCommand())
	cmd.AddCommand(newSpecialtyDeleteCommand())
	return cmd
}

func newSpecialtyCreateCommand() *cobra.Command {
	var name, domain, description, levels string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a specialty with an ordered competency ladder",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			s := &models.Specialty{
				Name:             name,
				Domain:           domain,
				Description:      description,
				CompetencyLevels: splitLevels(levels),
			}
			registry := specialty.NewRegistry(db)
			if err := registry.Create(context.Background(), s); err != nil {
				return err
			}
			return printJSON(s)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Specialty name (required)")
	cmd.Flags().StringVar(&domain, "domain", "", "Specialty domain (required)")
	cmd.Flags().StringVar(&description, "description", "", "Specialty description")
	cmd.Flags().StringVar(&levels, "levels", "Beginner,Intermediate,Advanced,Expert", "Comma-separated competency ladder, bottom first")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("domain")
	return cmd
}

func newSpecialtyListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all specialties",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			specialties, err := specialty.NewRegistry(db).List(context.Background())
			if err != nil {
				return err
			}
			return printJSON(specialties)
		},
	}
}

func newSpecialtyShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <specialty-id>",
		Short: "Show one specialty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			s, err := specialty.NewRegistry(db).Get(context.Background(), args[0])
			if err != nil {
				return err
			}
			return printJSON(s)
		},
	}
}

func newSpecialtyDeleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <specialty-id>",
		Short: "Delete a specialty, resetting its training sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := specialty.NewRegistry(db).Delete(context.Background(), args[0], force); err != nil {
				return err
			}
			return printJSON(map[string]string{"deleted": args[0]})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Delete even when sessions are still active")
	return cmd
}

func splitLevels(raw string) []string {
	parts := strings.Split(raw, ",")
	levels := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			levels = append(levels, trimmed)
		}
	}
	return levels
}
