package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ariefcatur/go-catalog-api/internal/auth"
	"github.com/ariefcatur/go-catalog-api/internal/catalog"
	"github.com/ariefcatur/go-catalog-api/internal/config"
	"github.com/ariefcatur/go-catalog-api/internal/postgres"
)

// adminStore is what the CLI needs from storage; catalog.Repo satisfies it.
type adminStore interface {
	catalog.UserStore
	CreateCategory(ctx context.Context, name string) (catalog.Category, error)
	SetStaff(ctx context.Context, username string, staff bool) error
}

// env carries the CLI's dependencies so tests can swap the database out.
type env struct {
	out     io.Writer
	dsn     string
	open    func(ctx context.Context, dsn string) (adminStore, func(), error)
	migrate func(dsn string, dir postgres.Direction) error
}

func defaultEnv() *env {
	cfg := config.Load()
	return &env{
		out: os.Stdout,
		dsn: cfg.PostgresDSN,
		open: func(ctx context.Context, dsn string) (adminStore, func(), error) {
			db, err := postgres.Connect(ctx, dsn, 2)
			if err != nil {
				return nil, nil, err
			}
			return &catalog.Repo{DB: db}, db.Close, nil
		},
		migrate: postgres.Migrate,
	}
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Administer the product catalog database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&e.dsn, "db", e.dsn, "Database connection URL (defaults to POSTGRES_DSN)")
	root.AddCommand(newMigrateCmd(e), newCreateUserCmd(e), newCreateCategoryCmd(e))
	return root
}

func newMigrateCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}
	run := func(dir postgres.Direction, label string) func(*cobra.Command, []string) error {
		return func(*cobra.Command, []string) error {
			if err := e.migrate(e.dsn, dir); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "migrations %s: ok\n", label)
			return nil
		}
	}
	cmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply pending migrations", Args: cobra.NoArgs, RunE: run(postgres.Up, "up")},
		&cobra.Command{Use: "down", Short: "Roll back every migration", Args: cobra.NoArgs, RunE: run(postgres.Down, "down")},
	)
	return cmd
}

func newCreateUserCmd(e *env) *cobra.Command {
	var (
		email    string
		password string
		staff    bool
	)
	cmd := &cobra.Command{
		Use:   "create-user USERNAME",
		Short: "Create an account, optionally with staff rights",
		Example: `  catalogctl create-user admin --password 's3cret-pass' --staff
  catalogctl create-user alice --email alice@example.com --password 'longenough'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			store, closeFn, err := e.open(ctx, e.dsn)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer closeFn()

			svc := &auth.Service{Users: store}
			u, err := svc.Register(ctx, catalog.RegisterDraft{Username: args[0], Email: email, Password: password})
			if err != nil {
				return err
			}
			if staff {
				if err := store.SetStaff(ctx, u.Username, true); err != nil {
					return fmt.Errorf("grant staff: %w", err)
				}
			}
			role := "user"
			if staff {
				role = "staff"
			}
			fmt.Fprintf(e.out, "created %s %q (id %d)\n", role, u.Username, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password, at least 8 characters")
	cmd.Flags().BoolVar(&staff, "staff", false, "Grant staff rights")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newCreateCategoryCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "create-category NAME",
		Short: "Create a product category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := catalog.CategoryDraft{Name: strings.TrimSpace(strings.Join(args, " "))}
			if err := d.Validate(); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			store, closeFn, err := e.open(ctx, e.dsn)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer closeFn()

			c, err := store.CreateCategory(ctx, d.Name)
			if err != nil {
				return fmt.Errorf("create category %q: %w", d.Name, err)
			}
			fmt.Fprintf(e.out, "created category %q (id %d)\n", c.Name, c.ID)
			return nil
		},
	}
}
