package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/companionlabs/keepsake/internal/model"
	"github.com/companionlabs/keepsake/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "recall [text]",
		Short: "Retrieve memories matching free text",
		Long:  "Tokenize the text and rank memories by how many terms their associations match.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runRecall,
	}

	cmd.Flags().StringP("owner", "o", "", "Owner partition (required)")
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.MarkFlagRequired("owner")

	RootCmd.AddCommand(cmd)
}

func runRecall(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	limit, _ := cmd.Flags().GetInt("limit")
	text := strings.Join(args, " ")

	var results []model.Memory
	// Recall updates access metadata, so the snapshot is saved back.
	err := withPartition(cmd.Context(), owner, true, func(s *store.Store) error {
		var retrieveErr error
		results, retrieveErr = s.RetrieveByContext(owner, text, limit)
		return retrieveErr
	})
	if err != nil {
		exitErr("recall", err)
	}

	if len(results) == 0 {
		printJSON([]model.Memory{})
		return
	}
	printJSON(results)
}
