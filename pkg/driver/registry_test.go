package driver

import (
	"bytes"
	"strings"
	"testing"

	"github.com/povik/leap-firmware/pkg/ir"
)

func newTestRegistry() *Registry {
	reg := NewRegistry()
	reg.Register("place", "place doc", func(prg *ir.Program, args []string) error { return nil })
	reg.Register("place_routine", "place_routine doc", func(prg *ir.Program, args []string) error { return nil })
	reg.Register("propagate_outs", "propagate_outs doc", func(prg *ir.Program, args []string) error { return nil })
	return reg
}

func TestLookupExactMatch(t *testing.T) {
	reg := newTestRegistry()
	_, canonical, err := reg.Lookup("place")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if canonical != "place" {
		t.Errorf("canonical = %q, want %q", canonical, "place")
	}
}

func TestLookupUnambiguousPrefix(t *testing.T) {
	reg := newTestRegistry()
	_, canonical, err := reg.Lookup("prop")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if canonical != "propagate_outs" {
		t.Errorf("canonical = %q, want %q", canonical, "propagate_outs")
	}
}

func TestLookupAmbiguousPrefix(t *testing.T) {
	reg := newTestRegistry()
	_, _, err := reg.Lookup("place")
	if err != nil {
		t.Fatalf("exact match for %q should win over the prefix ambiguity: %v", "place", err)
	}

	_, _, err = reg.Lookup("pla")
	if err == nil {
		t.Fatal("ambiguous prefix should fail")
	}
	if !strings.Contains(err.Error(), "ambiguous") {
		t.Errorf("error %q doesn't mention ambiguity", err)
	}
}

func TestLookupUnknown(t *testing.T) {
	reg := newTestRegistry()
	if _, _, err := reg.Lookup("nosuchpass"); err == nil {
		t.Error("unknown pass name should fail")
	}
}

func TestRunPassesSplitsAndOrdersCommands(t *testing.T) {
	var ran []string
	reg := NewRegistry()
	reg.Register("a", "", func(prg *ir.Program, args []string) error {
		ran = append(ran, "a:"+strings.Join(args, ","))
		return nil
	})
	reg.Register("b", "", func(prg *ir.Program, args []string) error {
		ran = append(ran, "b:"+strings.Join(args, ","))
		return nil
	})

	prg := ir.NewProgram()
	var stderr bytes.Buffer
	script := "a 1 2; b 3\na 4"
	if err := RunPasses(reg, prg, script, &stderr); err != nil {
		t.Fatalf("RunPasses: %v", err)
	}

	want := []string{"a:1,2", "b:3", "a:4"}
	if len(ran) != len(want) {
		t.Fatalf("ran %v, want %v", ran, want)
	}
	for i := range want {
		if ran[i] != want[i] {
			t.Errorf("step %d = %q, want %q", i, ran[i], want[i])
		}
	}

	if !strings.Contains(stderr.String(), "Running A") {
		t.Errorf("stderr should report pass names:\n%s", stderr.String())
	}
}

func TestRunPassesSkipsBlankAndCommentLines(t *testing.T) {
	ran := 0
	reg := NewRegistry()
	reg.Register("noop", "", func(prg *ir.Program, args []string) error {
		ran++
		return nil
	})

	prg := ir.NewProgram()
	var stderr bytes.Buffer
	script := "\n# a comment\n  \nnoop\n"
	if err := RunPasses(reg, prg, script, &stderr); err != nil {
		t.Fatalf("RunPasses: %v", err)
	}
	if ran != 1 {
		t.Errorf("ran = %d, want 1", ran)
	}
}

func TestRunPassesStopsOnError(t *testing.T) {
	var ran []string
	reg := NewRegistry()
	reg.Register("fails", "", func(prg *ir.Program, args []string) error {
		ran = append(ran, "fails")
		return errBoom
	})
	reg.Register("after", "", func(prg *ir.Program, args []string) error {
		ran = append(ran, "after")
		return nil
	})

	prg := ir.NewProgram()
	var stderr bytes.Buffer
	if err := RunPasses(reg, prg, "fails; after", &stderr); err == nil {
		t.Fatal("an erroring pass should abort the script")
	}
	if len(ran) != 1 {
		t.Errorf("ran = %v, want only the failing pass to have run", ran)
	}
}

var errBoom = boomErr{}

type boomErr struct{}

func (boomErr) Error() string { return "boom" }

func TestParseLiteralScalars(t *testing.T) {
	cases := []struct {
		tok  string
		want interface{}
	}{
		{`"hello"`, "hello"},
		{`'world'`, "world"},
		{"42", 42},
		{"0x2a", 42},
		{"1.5", 1.5},
		{"True", true},
		{"False", false},
		{"None", nil},
		{"bareword", "bareword"},
	}
	for _, c := range cases {
		got, err := ParseLiteral(c.tok)
		if err != nil {
			t.Errorf("ParseLiteral(%q): %v", c.tok, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseLiteral(%q) = %v (%T), want %v (%T)", c.tok, got, got, c.want, c.want)
		}
	}
}

func TestParseIntRejectsNonInteger(t *testing.T) {
	if _, err := ParseInt("1.5"); err == nil {
		t.Error("a float token should not parse as an integer")
	}
	if _, err := ParseInt("notanumber"); err == nil {
		t.Error("a bare word should not parse as an integer")
	}
	n, err := ParseInt("7")
	if err != nil || n != 7 {
		t.Errorf("ParseInt(7) = %d, %v, want 7, nil", n, err)
	}
}
