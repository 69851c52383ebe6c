// Command grvkc compiles an AMD IL token stream into SPIR-V.
//
// Usage:
//
//	grvkc -o shader.spv shader.il
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/libcg/grvk"
	"github.com/libcg/grvk/il"
)

func main() {
	var output string

	root := &cobra.Command{
		Use:   "grvkc <input.il>",
		Short: "Compile an AMD IL token stream to SPIR-V",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ilBytes, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}

			shader, err := grvk.CompileShader(ilBytes, il.DefaultSink())
			if err != nil {
				return fmt.Errorf("compiling shader: %w", err)
			}

			if output == "" {
				output = shader.Name + ".spv"
			}
			if err := os.WriteFile(output, shader.Code, 0o644); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "compiled %s (%d bytes) -> %s\n", shader.Name, len(shader.Code), output)
			return nil
		},
	}
	root.Flags().StringVarP(&output, "output", "o", "", "output file (default: <name>.spv)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
