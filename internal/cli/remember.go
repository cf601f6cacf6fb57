package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/companionlabs/keepsake/internal/model"
	"github.com/companionlabs/keepsake/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "remember [content]",
		Short: "Store a memory",
		Long:  "Store a memory. Content can be a positional arg or piped via stdin; JSON content is kept as-is, anything else is stored as a JSON string.",
		Run:   runRemember,
	}

	cmd.Flags().StringP("owner", "o", "", "Owner partition (required)")
	cmd.Flags().String("type", "short-term", "Type: short-term, long-term, episodic, semantic")
	cmd.Flags().StringP("assoc", "a", "", "Comma-separated association tokens")
	cmd.Flags().Float64P("importance", "i", 5, "Importance score in [0,10]")

	cmd.MarkFlagRequired("owner")

	RootCmd.AddCommand(cmd)
}

func runRemember(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	typ, _ := cmd.Flags().GetString("type")
	assocStr, _ := cmd.Flags().GetString("assoc")
	importance, _ := cmd.Flags().GetFloat64("importance")

	var content string
	if len(args) > 0 {
		content = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			content = string(b)
		}
	}
	if strings.TrimSpace(content) == "" {
		exitErr("remember", fmt.Errorf("content is required (positional arg or stdin)"))
	}

	var assoc []string
	if assocStr != "" {
		for _, t := range strings.Split(assocStr, ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				assoc = append(assoc, t)
			}
		}
	}

	var id string
	err := withPartition(cmd.Context(), owner, true, func(s *store.Store) error {
		var storeErr error
		id, storeErr = s.Store(store.StoreParams{
			Owner:        owner,
			Content:      toRawJSON(strings.TrimSpace(content)),
			Type:         model.MemoryType(typ),
			Associations: assoc,
			Importance:   importance,
		})
		return storeErr
	})
	if err != nil {
		exitErr("remember", err)
	}

	fmt.Printf(`{"ok":true,"id":%q}`+"\n", id)
}

// toRawJSON passes valid JSON through untouched and wraps plain text
// as a JSON string.
func toRawJSON(content string) json.RawMessage {
	if json.Valid([]byte(content)) {
		return json.RawMessage(content)
	}
	b, _ := json.Marshal(content)
	return b
}
