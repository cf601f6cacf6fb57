package cli

import (
	"github.com/spf13/cobra"

	"github.com/companionlabs/keepsake/internal/snapshot"
	"github.com/companionlabs/keepsake/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show partition statistics",
		Long:  "Show record and token counts for one owner, or snapshot counts for all owners.",
		Run:   runStats,
	}

	cmd.Flags().StringP("owner", "o", "", "Owner partition (all owners if omitted)")

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")

	if owner == "" {
		snap, err := snapshot.NewSQLiteStore(getDBPath())
		if err != nil {
			exitErr("open snapshot store", err)
		}
		defer snap.Close()

		owners, err := snap.Owners(cmd.Context())
		if err != nil {
			exitErr("stats", err)
		}
		printJSON(owners)
		return
	}

	var st store.OwnerStats
	err := withPartition(cmd.Context(), owner, false, func(s *store.Store) error {
		var err error
		st, err = s.Stats(owner)
		return err
	})
	if err != nil {
		exitErr("stats", err)
	}
	printJSON(st)
}
