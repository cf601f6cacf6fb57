package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/companionlabs/keepsake/internal/model"
	"github.com/companionlabs/keepsake/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import memories from JSON",
		Long:  "Import memories from JSON on stdin, preserving their original ids. Expects the format produced by export.",
		Run:   runImport,
	}

	cmd.Flags().StringP("owner", "o", "", "Owner partition (required)")
	cmd.MarkFlagRequired("owner")

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		exitErr("read stdin", err)
	}

	var records []model.Memory
	if err := json.Unmarshal(data, &records); err != nil {
		exitErr("parse json", err)
	}

	var loaded int
	err = withPartition(cmd.Context(), owner, true, func(s *store.Store) error {
		var loadErr error
		loaded, loadErr = s.Load(owner, records)
		return loadErr
	})
	if err != nil {
		exitErr("import", err)
	}

	fmt.Printf(`{"ok":true,"imported":%d}`+"\n", loaded)
}
