package cli

import (
	"github.com/spf13/cobra"

	"github.com/companionlabs/keepsake/internal/model"
	"github.com/companionlabs/keepsake/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export an owner's memories as JSON",
		Run:   runExport,
	}

	cmd.Flags().StringP("owner", "o", "", "Owner partition (required)")
	cmd.MarkFlagRequired("owner")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")

	var records []model.Memory
	err := withPartition(cmd.Context(), owner, false, func(s *store.Store) error {
		var err error
		records, err = s.Export(owner)
		return err
	})
	if err != nil {
		exitErr("export", err)
	}

	if len(records) == 0 {
		printJSON([]model.Memory{})
		return
	}
	printJSON(records)
}
