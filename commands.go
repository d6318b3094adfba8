package main

import (
	"fmt"
	"strings"

	"statusflow/domain/flow"
	"statusflow/importer"
	"statusflow/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return engine.Migrate(cmd.Context())
		},
	}
}

func importCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Apply a workflow definition file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file required")
			}
			def, err := importer.Load(file)
			if err != nil {
				return err
			}
			result, err := engine.Importer.Apply(cmd.Context(), def, session.System(cmd.Context()))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "project %s (%d) imported, %d records created\n", def.Project, result.ProjectID, result.Created)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "definition file")
	return cmd
}

func exportCmd() *cobra.Command {
	var projectID uint64
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the workflow definition of a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := engine.Importer.Export(cmd.Context(), types.ID(projectID), session.System(cmd.Context()))
			if err != nil {
				return err
			}
			data, err := def.ToYAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().Uint64Var(&projectID, "project", 0, "project id")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func checkCmd() *cobra.Command {
	var workflowID uint64
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report configuration issues of a workflow",
		RunE: func(cmd *cobra.Command, args []string) error {
			issues, err := engine.Workflows.CheckWorkflow(cmd.Context(), types.ID(workflowID), session.System(cmd.Context()))
			if err != nil {
				return err
			}
			if len(issues) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no issues")
				return nil
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Severity", "Code", "Message"})
			for _, i := range issues {
				tw.AppendRow(table.Row{i.Severity, i.Code, i.Message})
			}
			tw.Render()
			return flow.FirstError(issues)
		},
	}
	cmd.Flags().Uint64Var(&workflowID, "workflow", 0, "workflow id")
	_ = cmd.MarkFlagRequired("workflow")
	return cmd
}

func transitionsCmd() *cobra.Command {
	var workflowID uint64
	cmd := &cobra.Command{
		Use:   "transitions",
		Short: "List the transitions of a workflow",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := engine.Workflows.QueryTransitions(cmd.Context(), types.ID(workflowID), session.System(cmd.Context()))
			if err != nil {
				return err
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"ID", "From", "To", "Roles"})
			for _, d := range details {
				from := "(new)"
				if d.FromStatus != nil {
					from = d.FromStatus.Name
				}
				roles := make([]string, 0, len(d.Roles))
				for _, r := range d.Roles {
					roles = append(roles, r.Name)
				}
				if len(roles) == 0 {
					roles = append(roles, "*")
				}
				tw.AppendRow(table.Row{d.ID, from, d.ToStatus.Name, strings.Join(roles, ", ")})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().Uint64Var(&workflowID, "workflow", 0, "workflow id")
	_ = cmd.MarkFlagRequired("workflow")
	return cmd
}
