// Package admin implements the offline administration commands: schema
// migrations, account creation, view plan generation, ledger export and
// uploading data files to object storage.
package admin

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/transitwatch/internal/logging"
	"github.com/dmitrijs2005/transitwatch/internal/server/config"
	"github.com/dmitrijs2005/transitwatch/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/transitwatch/internal/server/storage"
	"github.com/spf13/cobra"
)

// Uploader stores one file under name.
type Uploader interface {
	Put(ctx context.Context, name string, body io.Reader, size int64) error
}

// Runtime is what the commands operate on.
type Runtime struct {
	Config *config.Config
	DB     *sql.DB
	Repos  repomanager.RepositoryManager
	Log    logging.Logger

	// NewUploader connects to the configured bucket, storing keys under
	// prefix.
	NewUploader func(ctx context.Context, prefix string) (Uploader, error)

	Out io.Writer
}

// Opener connects a Runtime for cfg.
type Opener func(ctx context.Context, cfg *config.Config) (*Runtime, error)

// OpenPostgres is the production Opener.
func OpenPostgres(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	log, err := logging.New(logging.Options{
		Backend: cfg.LogBackend,
		Format:  cfg.LogFormat,
		Level:   cfg.LogLevel,
		Output:  os.Stderr,
	})
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return &Runtime{
		Config: cfg,
		DB:     db,
		Repos:  repomanager.NewPostgresRepositoryManager(),
		Log:    log.With("module", "admin"),
		NewUploader: func(ctx context.Context, prefix string) (Uploader, error) {
			client, err := storage.NewS3Client(ctx, storage.S3Settings{
				User:         cfg.S3RootUser,
				Password:     cfg.S3RootPassword,
				Region:       cfg.S3Region,
				BaseEndpoint: cfg.S3BaseEndpoint,
			})
			if err != nil {
				return nil, err
			}
			return storage.NewS3Store(client, cfg.S3Bucket, prefix), nil
		},
	}, nil
}

// NewRootCmd assembles the command tree. The runtime is opened once before
// any subcommand runs and closed afterwards.
func NewRootCmd(open Opener) *cobra.Command {
	var configPath string
	rt := &Runtime{}

	root := &cobra.Command{
		Use:           "transitwatch-admin",
		Short:         "Administer the transitwatch classification server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var cfgArgs []string
			if configPath != "" {
				cfgArgs = []string{"-c", configPath}
			}

			cfg, err := config.Load(cfgArgs)
			if err != nil {
				return err
			}

			opened, err := open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			*rt = *opened
			rt.Out = cmd.OutOrStdout()
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if rt.DB != nil {
				return rt.DB.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (JSON or YAML)")

	root.AddCommand(newMigrateCmd(rt))
	root.AddCommand(newUsersCmd(rt))
	root.AddCommand(newViewsCmd(rt))
	root.AddCommand(newPostsCmd(rt))
	root.AddCommand(newFilesCmd(rt))

	return root
}

func newMigrateCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.Repos.RunMigrations(cmd.Context(), rt.DB); err != nil {
				return err
			}
			fmt.Fprintln(rt.Out, "migrations applied")
			return nil
		},
	}
}
