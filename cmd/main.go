package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/farellandr/donatrack/config"
	"github.com/farellandr/donatrack/internal/logging"
	"github.com/farellandr/donatrack/internal/server"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "donatrack",
		Short: "Donation intake and ledger API",
		RunE:  runServe,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "directory containing config.yaml")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	logger := logging.GetLogger(cfg.Logs)
	if err := server.Start(cfg, logger); err != nil {
		logger.Error("Server stopped", "error", err)
		return err
	}
	return nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %v", err)
			}

			db, err := config.InitDatabase(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %v", err)
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			fmt.Println("Migrations applied")
			return nil
		},
	}
}

func seedAdminCmd() *cobra.Command {
	var name, email, password, role string

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create or reset an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %v", err)
			}

			db, err := config.InitDatabase(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %v", err)
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			user, err := seedAdmin(cmd.Context(), db, name, email, password, role)
			if err != nil {
				return err
			}

			fmt.Printf("Admin %s (%s) ready\n", user.Email, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "login password")
	cmd.Flags().StringVar(&role, "role", "super_admin", "super_admin, finance_admin or content_manager")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
