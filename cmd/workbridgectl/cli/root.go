// Package cli implements the workbridgectl operator commands.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/workbridge/workbridge/internal/app"
	"github.com/workbridge/workbridge/internal/auth"
	"github.com/workbridge/workbridge/internal/platform/db"
)

// NewRootCmd assembles the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "workbridgectl",
		Short:         "Operator tooling for the workbridge API",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.AddCommand(newMigrateCmd(), newSeedCmd(), newTokenCmd(), newJobsCmd())
	return root
}

type env struct {
	cfg    *app.Config
	logger *slog.Logger
}

func loadEnv() (*env, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &env{cfg: cfg, logger: app.NewLogger(cfg)}, nil
}

func (e *env) pool(ctx context.Context) (*pgxpool.Pool, error) {
	return db.New(ctx, e.cfg.PGDSN, 2)
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}
	step := func(use, short string, fn func(context.Context, *pgxpool.Pool) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				e, err := loadEnv()
				if err != nil {
					return err
				}
				pool, err := e.pool(cmd.Context())
				if err != nil {
					return err
				}
				defer pool.Close()
				return fn(cmd.Context(), pool)
			},
		}
	}
	cmd.AddCommand(
		step("up", "Apply pending migrations", db.Migrate),
		step("status", "Print the applied state of every migration", db.MigrationStatus),
		step("down", "Revert the most recent migration", db.Rollback),
	)
	return cmd
}

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert bootstrap data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}
	var email, password string
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Create the admin account when it is missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			if email == "" {
				email = e.cfg.AdminEmail
			}
			if password == "" {
				password = os.Getenv("ADMIN_PASSWORD")
			}
			pool, err := e.pool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := auth.NewService(auth.NewRepository(pool), nil, nil, e.logger)
			user, created, err := svc.SeedAdmin(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (id %d)\n", user.Email, user.ID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "admin %s already exists (id %d)\n", user.Email, user.ID)
			}
			return nil
		},
	}
	admin.Flags().StringVar(&email, "email", "", "admin email (defaults to ADMIN_EMAIL)")
	admin.Flags().StringVar(&password, "password", "", "admin password (defaults to ADMIN_PASSWORD)")
	cmd.AddCommand(admin)
	return cmd
}

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Work with bearer tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}
	var email string
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Mint a bearer token for an existing account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			codec, err := auth.NewCodec(e.cfg.JWTSecret, e.cfg.JWTExpiresIn)
			if err != nil {
				return err
			}
			pool, err := e.pool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			token, err := auth.NewService(auth.NewRepository(pool), codec, nil, e.logger).IssueFor(cmd.Context(), email)
			if err != nil {
				return fmt.Errorf("issue token for %s: %w", email, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issue.Flags().StringVar(&email, "email", "", "account email")
	_ = issue.MarkFlagRequired("email")
	cmd.AddCommand(issue)
	return cmd
}

func newJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect the background queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}
	withJobs := func(fn func(*cobra.Command, *JobsCLI) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			jc := NewJobsCLI(e.cfg.Redis().AsynqOpt())
			defer func() {
				if err := jc.Close(); err != nil {
					e.logger.Warn("close jobs cli", slog.Any("error", err))
				}
			}()
			return fn(cmd, jc)
		}
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Print queue counters",
		Args:  cobra.NoArgs,
		RunE: withJobs(func(cmd *cobra.Command, jc *JobsCLI) error {
			s, err := jc.InspectQueue(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		}),
	}

	var size int
	scheduled := &cobra.Command{
		Use:   "scheduled",
		Short: "List scheduled tasks",
		Args:  cobra.NoArgs,
		RunE: withJobs(func(cmd *cobra.Command, jc *JobsCLI) error {
			tasks, err := jc.ListScheduled(cmd.Context(), size)
			if err != nil {
				return err
			}
			for _, t := range tasks {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", t.ID, t.Type, t.NextProcessAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		}),
	}
	scheduled.Flags().IntVar(&size, "size", 10, "page size")

	var to string
	testMail := &cobra.Command{
		Use:   "test-mail",
		Short: "Queue a probe mail",
		Args:  cobra.NoArgs,
		RunE: withJobs(func(cmd *cobra.Command, jc *JobsCLI) error {
			info, err := jc.TestMail(cmd.Context(), to)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued %s on %s\n", info.ID, info.Queue)
			return nil
		}),
	}
	testMail.Flags().StringVar(&to, "to", "", "recipient")
	_ = testMail.MarkFlagRequired("to")

	cmd.AddCommand(stats, scheduled, testMail)
	return cmd
}
