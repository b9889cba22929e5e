package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AnTengye/formrelay/config"
	"github.com/AnTengye/formrelay/crm"
	"github.com/spf13/cobra"
)

func newCRMCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crm",
		Short: "CRM maintenance tasks",
	}
	cmd.AddCommand(newAuditFieldsCmd(configPath), newSyncLeadCmd(configPath))
	return cmd
}

func newCRMClients(cfg *config.Config) (*crm.Client, *crm.LocationResolver) {
	client := crm.NewClient(cfg.CRM.BaseURL, cfg.CRM.APIKey, time.Duration(cfg.CRM.TimeoutSeconds)*time.Second)
	return client, crm.NewLocationResolver(client, cfg.CRM.LocationID)
}

func loadCRMConfig(path string) (*config.Config, func(), error) {
	cfg, closer, err := loadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	if cfg.CRM.APIKey == "" {
		closer.Close()
		return nil, nil, errors.New("crm.api_key is not configured")
	}
	return cfg, func() { closer.Close() }, nil
}

func newAuditFieldsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "audit-fields",
		Short: "Create the configured custom fields that are missing in the CRM",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, done, err := loadCRMConfig(*configPath)
			if err != nil {
				return err
			}
			defer done()

			desired := make([]crm.CustomField, 0, len(cfg.CRM.CustomFields))
			for _, f := range cfg.CRM.CustomFields {
				desired = append(desired, crm.CustomField{Name: f.Name, DataType: f.DataType, Options: f.Options})
			}

			auditor := crm.NewCustomFieldAuditor(newCRMClients(cfg))
			report, err := auditor.Audit(cmd.Context(), desired)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "created: %s\n", joinOrNone(report.Created))
			fmt.Fprintf(out, "skipped: %s\n", joinOrNone(report.Skipped))
			if len(report.Failed) > 0 {
				fmt.Fprintf(out, "failed:  %s\n", strings.Join(report.Failed, ", "))
			}
			return err
		},
	}
}

func newSyncLeadCmd(configPath *string) *cobra.Command {
	var (
		contact  crm.Contact
		tags     []string
		note     string
		task     string
		taskDue  time.Duration
		assignee string
	)

	cmd := &cobra.Command{
		Use:   "sync-lead",
		Short: "Upsert a contact in the CRM, optionally with a note and a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, done, err := loadCRMConfig(*configPath)
			if err != nil {
				return err
			}
			defer done()

			ctx := cmd.Context()
			contacts := crm.NewContactSyncService(newCRMClients(cfg))

			contact.Tags = tags
			result, err := contacts.UpsertContact(ctx, contact)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "contact: %s (new: %t)\n", result.ContactID, result.New)

			if note != "" {
				noteID, err := contacts.AddNote(ctx, result.ContactID, note)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "note: %s\n", noteID)
			}

			if task != "" {
				taskID, err := contacts.CreateTask(ctx, result.ContactID, crm.Task{
					Title:      task,
					DueDate:    time.Now().Add(taskDue),
					AssignedTo: assignee,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "task: %s\n", taskID)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&contact.Email, "email", "", "contact email")
	flags.StringVar(&contact.FirstName, "first-name", "", "contact first name")
	flags.StringVar(&contact.LastName, "last-name", "", "contact last name")
	flags.StringVar(&contact.Phone, "phone", "", "contact phone")
	flags.StringVar(&contact.Source, "source", "formrelay cli", "lead source")
	flags.StringSliceVar(&tags, "tag", nil, "tag to apply (repeatable)")
	flags.StringVar(&note, "note", "", "note to attach to the contact")
	flags.StringVar(&task, "task", "", "title of a follow-up task to create")
	flags.DurationVar(&taskDue, "task-due", 24*time.Hour, "time until the task is due")
	flags.StringVar(&assignee, "assign", "", "user id to assign the task to")
	cmd.MarkFlagRequired("email")

	return cmd
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
