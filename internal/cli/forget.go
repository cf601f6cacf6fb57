package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/companionlabs/keepsake/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "forget [id]",
		Short: "Remove a memory and its index entries",
		Args:  cobra.ExactArgs(1),
		Run:   runForget,
	}

	cmd.Flags().StringP("owner", "o", "", "Owner partition (required)")
	cmd.MarkFlagRequired("owner")

	RootCmd.AddCommand(cmd)
}

func runForget(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")

	var removed bool
	err := withPartition(cmd.Context(), owner, true, func(s *store.Store) error {
		var forgetErr error
		removed, forgetErr = s.Forget(owner, args[0])
		return forgetErr
	})
	if err != nil {
		exitErr("forget", err)
	}

	fmt.Printf(`{"ok":%t,"id":%q}`+"\n", removed, args[0])
}
