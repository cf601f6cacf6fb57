package cli

import (
	"github.com/spf13/cobra"

	"github.com/companionlabs/keepsake/internal/model"
	"github.com/companionlabs/keepsake/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "assoc [token]",
		Short: "Retrieve memories by association token",
		Args:  cobra.ExactArgs(1),
		Run:   runAssoc,
	}

	cmd.Flags().StringP("owner", "o", "", "Owner partition (required)")
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.MarkFlagRequired("owner")

	RootCmd.AddCommand(cmd)
}

func runAssoc(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	limit, _ := cmd.Flags().GetInt("limit")

	var results []model.Memory
	err := withPartition(cmd.Context(), owner, true, func(s *store.Store) error {
		var retrieveErr error
		results, retrieveErr = s.RetrieveByAssociation(owner, args[0], limit)
		return retrieveErr
	})
	if err != nil {
		exitErr("assoc", err)
	}

	if len(results) == 0 {
		printJSON([]model.Memory{})
		return
	}
	printJSON(results)
}
