package main

import (
	"errors"
	"fmt"

	"github.com/AnTengye/formrelay/model"
	"github.com/AnTengye/formrelay/service"
	"github.com/spf13/cobra"
)

func newLeadsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Inspect the persisted lead log",
	}

	var leadTypes []string
	count := &cobra.Command{
		Use:   "count",
		Short: "Count persisted leads per lead type (mongo driver only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closer, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer closer.Close()

			if cfg.Leads.Driver != "mongo" {
				return errors.New("lead counts need leads.driver=mongo")
			}

			ctx := cmd.Context()
			store, err := service.NewMongoLeadStore(ctx, &cfg.Leads.Mongo)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			for _, leadType := range leadTypes {
				n, err := store.CountByType(ctx, leadType)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", leadType, n)
			}
			return nil
		},
	}
	count.Flags().StringSliceVar(&leadTypes, "type",
		[]string{model.LeadContact, model.LeadCareer, model.LeadAcquisition}, "lead types to count")

	cmd.AddCommand(count)
	return cmd
}
