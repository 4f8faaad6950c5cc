package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kilimanjaro-oncology/registry/internal/config"
	"github.com/kilimanjaro-oncology/registry/internal/domain/oncology"
	"github.com/kilimanjaro-oncology/registry/internal/logging"
	"github.com/kilimanjaro-oncology/registry/internal/platform/db"
)

const logFileName = "registry.log"

var configDir string

func main() {
	root := &cobra.Command{
		Use:           "oncology-registry",
		Short:         "Local oncology patient event registry",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configDir, "config-dir", "",
		"application directory (default ~/.oncology-registry)")

	root.AddCommand(initCmd(), verifyCmd(), summaryCmd(), recordsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// shell bundles what every command needs: the loaded configuration and a
// logger tagged with a per-invocation run id.
type shell struct {
	cfg    *config.Config
	logger zerolog.Logger
	close  func()
}

func newShell() (*shell, error) {
	dir := configDir
	if dir == "" {
		var err error
		dir, err = config.DefaultDir()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.New(filepath.Join(dir, logFileName))
	if err != nil {
		return nil, err
	}
	logger = logger.With().Str("run_id", uuid.NewString()).Logger()

	return &shell{
		cfg:    cfg,
		logger: logger,
		close:  func() { _ = closeLog() },
	}, nil
}

func (sh *shell) openRepository() (oncology.Repository, error) {
	store, err := db.Open(sh.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	return oncology.NewSQLiteRepository(store), nil
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Provision the settings file and database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := newShell()
			if err != nil {
				return err
			}
			defer sh.close()

			store, err := db.Open(sh.cfg.DBPath)
			if err != nil {
				return err
			}
			if err := store.Provision(cmd.Context()); err != nil {
				return err
			}
			if err := store.VerifySchema(cmd.Context()); err != nil {
				return err
			}
			sh.logger.Info().Str("db_path", sh.cfg.DBPath).Msg("database ready")
			return nil
		},
	}
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that the database has the required schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := newShell()
			if err != nil {
				return err
			}
			defer sh.close()

			store, err := db.Open(sh.cfg.DBPath)
			if err != nil {
				return err
			}
			if err := store.VerifySchema(cmd.Context()); err != nil {
				return err
			}
			sh.logger.Info().Str("db_path", sh.cfg.DBPath).Msg("schema verified")
			return nil
		},
	}
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <patient-id>",
		Short: "Print the cumulative summary for a patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := newShell()
			if err != nil {
				return err
			}
			defer sh.close()

			repo, err := sh.openRepository()
			if err != nil {
				return err
			}
			svc := oncology.NewService(repo)

			summary, err := svc.FetchPatientSummary(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}

func recordsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "records <patient-id>",
		Short: "Print all event records for a patient, most recent first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := newShell()
			if err != nil {
				return err
			}
			defer sh.close()

			repo, err := sh.openRepository()
			if err != nil {
				return err
			}

			records, err := repo.PatientRecords(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(records, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
