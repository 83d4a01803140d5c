// Command leapc loads a coprocessor program image and runs it through a
// script of named compiler passes.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/povik/leap-firmware/pkg/driver"
	"github.com/povik/leap-firmware/pkg/image"
	"github.com/povik/leap-firmware/pkg/ir"
	"github.com/spf13/cobra"
)

func main() {
	var runPassesArg string
	var scriptPath string
	var listPasses bool

	rootCmd := &cobra.Command{
		Use:   "leapc [image]",
		Short: "Run a coprocessor program image through a sequence of compiler passes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := driver.Default()

			if listPasses {
				for _, name := range reg.Names() {
					fmt.Printf("%s\n", name)
					if doc := reg.Doc(name); doc != "" {
						fmt.Printf("\t%s\n", strings.ReplaceAll(doc, "\n", "\n\t"))
					}
				}
				return nil
			}

			var script string
			switch {
			case scriptPath != "":
				data, err := os.ReadFile(scriptPath)
				if err != nil {
					return err
				}
				script = string(data)
			case runPassesArg != "":
				script = runPassesArg
			}

			prg, err := loadProgram(args)
			if err != nil {
				return err
			}

			if script != "" {
				if err := driver.RunPasses(reg, prg, script, os.Stderr); err != nil {
					return err
				}
			}
			return nil
		},
	}
	rootCmd.Flags().StringVarP(&runPassesArg, "run-passes", "p", "", "Semicolon-separated list of passes to run")
	rootCmd.Flags().StringVarP(&scriptPath, "script", "s", "", "File holding a pass script to run")
	rootCmd.Flags().BoolVarP(&listPasses, "list-passes", "H", false, "List the available passes and exit")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadProgram reads the positional image argument, if given, and
// decodes it into a program; with no argument it starts from an empty
// program, for scripts that build one up from asm or a DSL builder.
func loadProgram(args []string) (*ir.Program, error) {
	if len(args) == 0 {
		return ir.NewProgram(), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	img, err := image.Read(data)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return ir.FromImage(img)
}
