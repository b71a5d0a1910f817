package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/eli5y/eli5y/internal/domain/alignment"
)

func newAlignCmd() *cobra.Command {
	var (
		latex     string
		draftPath string
	)

	cmd := &cobra.Command{
		Use:   "align",
		Short: "Align a drafted explanation against its LaTeX source",
		Long: "align runs the span-alignment engine offline.  The draft is read as\n" +
			"JSON ({\"explanation\": ..., \"components\": [...]}) from --draft or,\n" +
			"when the flag is omitted, from stdin.  The aligned result is written\n" +
			"to stdout and drop diagnostics to stderr.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if latex == "" {
				return fmt.Errorf("--latex is required")
			}

			var raw []byte
			var err error
			if draftPath != "" {
				raw, err = os.ReadFile(draftPath)
			} else {
				raw, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("reading draft: %w", err)
			}

			var draft alignment.Draft
			if err := json.Unmarshal(raw, &draft); err != nil {
				return fmt.Errorf("decoding draft: %w", err)
			}

			res, diags, err := alignment.Align(latex, draft)
			for _, d := range diags {
				fmt.Fprintf(cmd.ErrOrStderr(), "dropped (%s/%s): %s\n",
					d.Stage, d.Reason, d.Counterpart)
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().StringVarP(&latex, "latex", "l", "", "LaTeX source of the formula")
	cmd.Flags().StringVarP(&draftPath, "draft", "d", "", "path to the draft JSON (default: stdin)")
	return cmd
}
