// Package cli implements the keepsake CLI commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/companionlabs/keepsake/internal/snapshot"
	"github.com/companionlabs/keepsake/internal/store"
)

var (
	dbPath  string
	verbose bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "keepsake",
	Short: "Associative memory for companion agents",
	Long:  "An associative memory store: tagged, ranked, consolidating. SQLite-backed snapshots, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Snapshot database path (default: $KEEPSAKE_DB or ~/.keepsake/keepsake.db)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log index healing and consolidation details")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("KEEPSAKE_DB"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".keepsake", "keepsake.db")
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	return log
}

// withPartition loads one owner's snapshot into a fresh core, runs fn,
// and (when mutate is set) saves the partition back.
func withPartition(ctx context.Context, owner string, mutate bool, fn func(*store.Store) error) error {
	return withPartitionOpts(ctx, owner, mutate, store.Options{Logger: newLogger()}, fn)
}

func withPartitionOpts(ctx context.Context, owner string, mutate bool, opts store.Options, fn func(*store.Store) error) error {
	snap, err := snapshot.NewSQLiteStore(getDBPath())
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}
	defer snap.Close()

	records, err := snap.Load(ctx, owner)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	s := store.New(opts)
	if len(records) > 0 {
		if _, err := s.Load(owner, records); err != nil {
			return fmt.Errorf("restore partition: %w", err)
		}
	}

	if err := fn(s); err != nil {
		return err
	}

	if mutate {
		out, err := s.Export(owner)
		if err != nil {
			return fmt.Errorf("export partition: %w", err)
		}
		if err := snap.Save(ctx, owner, out); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
	}
	return nil
}

func printJSON(v interface{}) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
