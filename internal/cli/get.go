package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/companionlabs/keepsake/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Retrieve a memory by id",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	cmd.Flags().StringP("owner", "o", "", "Owner partition (required)")
	cmd.MarkFlagRequired("owner")

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")

	err := withPartition(cmd.Context(), owner, false, func(s *store.Store) error {
		m, err := s.Get(owner, args[0])
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("memory not found: %s", args[0])
		}
		printJSON(m)
		return nil
	})
	if err != nil {
		exitErr("get", err)
	}
}
