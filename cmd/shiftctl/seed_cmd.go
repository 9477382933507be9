package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	directoryservices "github.com/shiftopia/shiftopia/modules/directory/services"
	schedulingservices "github.com/shiftopia/shiftopia/modules/scheduling/services"
	"github.com/shiftopia/shiftopia/pkg/application"
)

func newSeedCmd() *cobra.Command {
	var (
		managerEmail    string
		managerPassword string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed a default manager account and a starter station set",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, app, pool, err := setupApp(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			seeder := application.NewSeeder()
			seeder.Register(
				seedManager(managerEmail, managerPassword),
				seedStations(),
			)
			if err := seeder.Seed(ctx, app); err != nil {
				return fmt.Errorf("seeding: %w", err)
			}
			return writeJSON(map[string]string{"command": "seed", "status": "ok"})
		},
	}

	cmd.Flags().StringVar(&managerEmail, "manager-email", "admin@shiftopia.local", "Email for the seeded manager account")
	cmd.Flags().StringVar(&managerPassword, "manager-password", "", "Password for the seeded manager account (required)")
	_ = cmd.MarkFlagRequired("manager-password")
	return cmd
}

func seedManager(email, password string) application.SeedFunc {
	return func(ctx context.Context, app application.Application) error {
		employees := app.Service(directoryservices.EmployeeService{}).(*directoryservices.EmployeeService)
		if _, err := employees.GetByEmail(ctx, email); err == nil {
			return nil
		}
		_, err := employees.Create(ctx, directoryservices.CreateEmployeeInput{
			Name:     "Administrator",
			Username: "admin",
			Email:    email,
			Role:     "manager",
			Password: password,
		})
		return err
	}
}

func seedStations() application.SeedFunc {
	names := []struct {
		name string
		code string
	}{
		{"Front Counter", "FC"},
		{"Drive Through", "DT"},
		{"Kitchen", "KT"},
	}
	return func(ctx context.Context, app application.Application) error {
		stations := app.Service(schedulingservices.StationService{}).(*schedulingservices.StationService)
		existing, err := stations.List(ctx)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}
		for _, s := range names {
			if _, err := stations.Create(ctx, schedulingservices.CreateStationInput{
				Name:      s.name,
				ShortCode: s.code,
			}); err != nil {
				return err
			}
		}
		return nil
	}
}
