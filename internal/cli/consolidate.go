package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/companionlabs/keepsake/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Merge aged short-term memories into long-term summaries",
		Run:   runConsolidate,
	}

	cmd.Flags().StringP("owner", "o", "", "Owner partition (required)")
	cmd.Flags().Duration("age", 0, "Override the consolidation age threshold (0 consolidates regardless of age)")
	cmd.MarkFlagRequired("owner")

	RootCmd.AddCommand(cmd)
}

func runConsolidate(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")

	opts := store.Options{Logger: newLogger()}
	if cmd.Flags().Changed("age") {
		// An explicit --age 0 means "consolidate regardless of age",
		// which the zero-picks-default convention would swallow.
		age, _ := cmd.Flags().GetDuration("age")
		opts.ConsolidationAge = age
		if age == 0 {
			opts.ConsolidationAge = -time.Nanosecond
		}
	}

	var report store.ConsolidationReport
	err := withPartitionOpts(cmd.Context(), owner, true, opts, func(s *store.Store) error {
		var consErr error
		report, consErr = s.Consolidate(owner)
		return consErr
	})
	if err != nil {
		exitErr("consolidate", err)
	}

	printJSON(report)
}
