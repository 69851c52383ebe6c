// Command grvkdis disassembles an AMD IL token stream to text.
//
// Usage:
//
//	grvkdis shader.il
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/libcg/grvk"
	"github.com/libcg/grvk/il"
)

func main() {
	root := &cobra.Command{
		Use:   "grvkdis <input.il>",
		Short: "Disassemble an AMD IL token stream to text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ilBytes, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}

			text, err := grvk.DisassembleShader(ilBytes, il.DefaultSink())
			if err != nil {
				return fmt.Errorf("disassembling shader: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		},
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
