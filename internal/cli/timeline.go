package cli

import (
	"github.com/spf13/cobra"

	"github.com/companionlabs/keepsake/internal/model"
	"github.com/companionlabs/keepsake/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "List episodic memories, newest first",
		Run:   runTimeline,
	}

	cmd.Flags().StringP("owner", "o", "", "Owner partition (required)")
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.MarkFlagRequired("owner")

	RootCmd.AddCommand(cmd)
}

func runTimeline(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	limit, _ := cmd.Flags().GetInt("limit")

	var results []model.Memory
	// Timeline reads are side-effect free, so no save-back.
	err := withPartition(cmd.Context(), owner, false, func(s *store.Store) error {
		var err error
		results, err = s.GetEpisodicTimeline(owner, limit)
		return err
	})
	if err != nil {
		exitErr("timeline", err)
	}

	if len(results) == 0 {
		printJSON([]model.Memory{})
		return
	}
	printJSON(results)
}
