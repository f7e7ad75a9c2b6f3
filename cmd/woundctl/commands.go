package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"woundtrack-backend/internal/bootstrap"
	"woundtrack-backend/internal/shared/config"
	"woundtrack-backend/internal/shared/storage/db"
	"woundtrack-backend/internal/submissions"
	"woundtrack-backend/internal/woundapi"
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "woundctl",
		Short:         "Operator tooling for the wound tracking BFF",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(migrateCmd(), relinkCmd(), referenceCmd())
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrateDB(cmd.Context(), func(ctx context.Context, sqlDB *sql.DB) error {
				if err := db.RunMigrations(ctx, sqlDB); err != nil {
					return fmt.Errorf("run migrations: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the state of each migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrateDB(cmd.Context(), db.MigrationStatus)
		},
	})
	return cmd
}

func withMigrateDB(ctx context.Context, fn func(context.Context, *sql.DB) error) error {
	cfg := config.Load()
	if ctx == nil {
		ctx = context.Background()
	}
	sqlDB, err := db.Open(ctx, cfg.DatabaseURL, db.RuntimeCLI)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer sqlDB.Close()
	return fn(ctx, sqlDB)
}

func relinkCmd() *cobra.Command {
	var (
		token string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "relink",
		Short: "Re-attempt failed wound image links recorded in the submissions journal",
		Long: `Relink walks journal entries whose image could not be attached to its wound
and retries the PATCH against the backend with the given operator token.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				return errors.New("--token is required")
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg := config.Load()
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required; the in-memory journal does not outlive the API process")
			}
			sqlDB, err := db.Open(ctx, cfg.DatabaseURL, db.RuntimeCLI)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer sqlDB.Close()

			svc := submissions.NewService(&submissions.PGRepo{DB: sqlDB}, woundapi.New(cfg.BackendBaseURL, cfg.BackendTimeout))
			report, err := svc.Relink(ctx, token, limit)
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(report)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Bearer token used for backend calls")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of entries to retry")
	return cmd
}

func referenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reference",
		Short: "Inspect the reference catalog",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List reference tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := bootstrap.LoadCatalog(config.Load())
			if err != nil {
				return err
			}
			for _, name := range catalog.Tables() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	})
	var parent string
	show := &cobra.Command{
		Use:   "show <table>",
		Short: "Print the codes of one table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := bootstrap.LoadCatalog(config.Load())
			if err != nil {
				return err
			}
			opts, err := catalog.Options(args[0])
			if err != nil {
				return err
			}
			if parent != "" {
				opts = catalog.Children(args[0], parent)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tLABEL\tPARENT")
			for _, opt := range opts {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", opt.Code, opt.Label, opt.Parent)
			}
			return tw.Flush()
		},
	}
	show.Flags().StringVar(&parent, "parent", "", "only entries under this parent code")
	cmd.AddCommand(show)
	cmd.AddCommand(&cobra.Command{
		Use:   "label <table> <code>...",
		Short: "Resolve codes to their labels",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := bootstrap.LoadCatalog(config.Load())
			if err != nil {
				return err
			}
			if _, err := catalog.Options(args[0]); err != nil {
				return err
			}
			for _, code := range args[1:] {
				label, ok := catalog.Label(args[0], code)
				if !ok {
					return fmt.Errorf("%s: unknown code %q", args[0], code)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", code, label)
			}
			return nil
		},
	})
	return cmd
}
