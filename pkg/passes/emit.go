package passes

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/povik/leap-firmware/pkg/ir"
)

func buildReportedImage(prg *ir.Program) ([]byte, error) {
	img, err := prg.BuildImage()
	if err != nil {
		return nil, fmt.Errorf("passes: building image: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Writing image with %d sections:\n", len(img.Sections))
	for _, sect := range img.Sections {
		fmt.Fprintf(os.Stderr, "    %-6s base %x size %x flags %d\n",
			sect.Type, sect.LoadBase, len(sect.Data), sect.Flags)
	}
	data, err := img.Write()
	if err != nil {
		return nil, fmt.Errorf("passes: writing image: %w", err)
	}
	return data, nil
}

// Image builds the program's binary image and writes it to stdout.
func Image(prg *ir.Program) error {
	data, err := buildReportedImage(prg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

// ImageInline builds the program's binary image and returns its bytes,
// for a caller chaining further passes over the encoded result.
func ImageInline(prg *ir.Program) ([]byte, error) {
	return buildReportedImage(prg)
}

// ImageHexdump builds the program's binary image and prints a hexdump
// of it to stdout.
func ImageHexdump(prg *ir.Program) error {
	data, err := buildReportedImage(prg)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, hex.Dump(data))
	return nil
}
