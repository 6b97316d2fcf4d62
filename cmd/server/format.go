package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"getnotes/internal/format"
)

var formatWrite bool

var formatCmd = &cobra.Command{
	Use:   "format [file]",
	Short: "Format a markdown file the way the editor's Format button does",
	Long: `Format reads markdown from file, or stdin when no file is given, and
prints the formatted result. With --write the file is rewritten in place.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			src []byte
			err error
		)
		if len(args) == 1 {
			src, err = os.ReadFile(args[0])
		} else {
			src, err = io.ReadAll(cmd.InOrStdin())
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		out, err := format.Markdown(string(src))
		if err != nil {
			return fmt.Errorf("format: %w", err)
		}

		if formatWrite {
			if len(args) == 0 {
				return fmt.Errorf("--write needs a file argument")
			}
			if out == string(src) {
				return nil
			}
			return os.WriteFile(args[0], []byte(out), 0o644)
		}
		_, err = io.WriteString(cmd.OutOrStdout(), out)
		return err
	},
}

func init() {
	formatCmd.Flags().BoolVarP(&formatWrite, "write", "w", false, "Rewrite the file instead of printing")
	rootCmd.AddCommand(formatCmd)
}
