package passes

import (
	"os"

	"github.com/povik/leap-firmware/pkg/ir"
)

// Dump writes every routine in the program to stderr, the way an
// interactive pass run reports its intermediate state.
func Dump(prg *ir.Program) error {
	prg.Dump(os.Stderr)
	return nil
}
