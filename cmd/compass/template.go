package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/compasshq/compass/internal/config"
	"github.com/compasshq/compass/internal/db"
	"github.com/compasshq/compass/internal/template"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Assessment template management commands",
	}

	cmd.AddCommand(newTemplateListCmd())
	cmd.AddCommand(newTemplateCloneCmd())
	cmd.AddCommand(newTemplatePromoteCmd())
	cmd.AddCommand(newTemplateAuditCmd())
	return cmd
}

// connectFromConfig loads YAML config and opens the database.
func connectFromConfig(configPath string) (*gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return db.Connect(cfg.Database)
}

func newTemplateListCmd() *cobra.Command {
	var (
		configPath string
		framework  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assessment templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			tpls, err := template.List(gormDB, framework)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFRAMEWORK\tVERSION\tSTATUS")
			for _, t := range tpls {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Framework, t.Version, t.Status)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "compass.yaml", "path to Compass config file")
	cmd.Flags().StringVarP(&framework, "framework", "f", "", "filter by framework")
	return cmd
}

func newTemplateCloneCmd() *cobra.Command {
	var (
		configPath string
		version    string
		actor      string
	)

	cmd := &cobra.Command{
		Use:   "clone <template-id>",
		Short: "Clone a template into a new draft version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			draft, err := template.CloneAsDraft(gormDB, args[0], version, actor)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created draft %s (version %s) from %s\n",
				draft.ID, draft.Version, args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "compass.yaml", "path to Compass config file")
	cmd.Flags().StringVarP(&version, "version", "v", "", "version string for the new draft")
	cmd.Flags().StringVar(&actor, "actor", "cli", "actor recorded in the audit trail")
	cmd.MarkFlagRequired("version")
	return cmd
}

func newTemplatePromoteCmd() *cobra.Command {
	var (
		configPath string
		actor      string
	)

	cmd := &cobra.Command{
		Use:   "promote <template-id>",
		Short: "Promote a draft template to active",
		Long:  "Promotes a draft to active, superseding the framework's previously active version.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := template.Promote(gormDB, args[0], actor); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Template %s is now active\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "compass.yaml", "path to Compass config file")
	cmd.Flags().StringVar(&actor, "actor", "cli", "actor recorded in the audit trail")
	return cmd
}

func newTemplateAuditCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "audit <template-id>",
		Short: "Show a template's change history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			entries, err := template.AuditTrail(gormDB, args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tACTOR\tACTION\tDETAIL")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					e.CreatedAt.Format("2006-01-02 15:04"), e.Actor, e.Action, e.Detail)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "compass.yaml", "path to Compass config file")
	return cmd
}
