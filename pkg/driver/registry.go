// Package driver runs a program through a named, scriptable sequence
// of compiler passes: lookup by exact name or unambiguous prefix, and
// a text format ("name arg arg; name arg") that chains them the way an
// interactive or batch script would.
package driver

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/povik/leap-firmware/pkg/ir"
)

// PassFunc is a pass entry point as the driver invokes it: the program
// to operate on and the raw, unparsed argument tokens a script line
// supplied after the pass name.
type PassFunc func(prg *ir.Program, args []string) error

type entry struct {
	name string
	doc  string
	fn   PassFunc
}

// Registry holds the set of passes a script can name, in registration
// order (the order -H lists them in).
type Registry struct {
	order  []*entry
	byName map[string]*entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: map[string]*entry{}}
}

// Register adds a pass under name, with doc shown by -H and fn as its
// implementation.
func (r *Registry) Register(name, doc string, fn PassFunc) {
	e := &entry{name: name, doc: doc, fn: fn}
	r.order = append(r.order, e)
	r.byName[name] = e
}

// Names returns every registered pass name in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	for i, e := range r.order {
		names[i] = e.name
	}
	return names
}

// Doc returns a pass's documentation string, or "" if name isn't
// registered.
func (r *Registry) Doc(name string) string {
	if e, ok := r.byName[name]; ok {
		return e.doc
	}
	return ""
}

// Lookup resolves name to exactly one pass: an exact match first,
// otherwise the sole registered pass whose name starts with it. It
// fails for no match (listing every pass) and for an ambiguous prefix
// (listing the candidates).
func (r *Registry) Lookup(name string) (fn PassFunc, canonical string, err error) {
	if e, ok := r.byName[name]; ok {
		return e.fn, e.name, nil
	}

	var matches []*entry
	for _, e := range r.order {
		if strings.HasPrefix(e.name, name) {
			matches = append(matches, e)
		}
	}
	switch len(matches) {
	case 0:
		return nil, "", fmt.Errorf("driver: no pass starting with %q\navailable passes:\n\t%s",
			name, strings.Join(r.Names(), "\n\t"))
	case 1:
		return matches[0].fn, matches[0].name, nil
	default:
		names := make([]string, len(matches))
		for i, e := range matches {
			names[i] = e.name
		}
		return nil, "", fmt.Errorf("driver: ambiguous pass name %q, matches: %s", name, strings.Join(names, ", "))
	}
}

// RunPasses runs a semicolon- or newline-separated script of
// "name arg arg..." pass invocations against prg, printing a numbered
// progress line ("1.", "2.", ...) before each one the way an
// interactive pass run reports where it is.
func RunPasses(reg *Registry, prg *ir.Program, script string, stderr io.Writer) error {
	counters := []int{1}
	commands := strings.Split(strings.ReplaceAll(script, "\n", ";"), ";")

	for _, raw := range commands {
		text := strings.TrimSpace(raw)
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		name, argTokens := fields[0], fields[1:]

		fn, canonical, err := reg.Lookup(name)
		if err != nil {
			return err
		}

		var counterStr strings.Builder
		for _, c := range counters {
			fmt.Fprintf(&counterStr, "%d.", c)
		}
		fmt.Fprintf(stderr, "%s Running %s\n", counterStr.String(), strings.ToUpper(canonical))

		counters = append(counters, 1)
		runErr := fn(prg, argTokens)
		counters = counters[:len(counters)-1]
		if runErr != nil {
			return fmt.Errorf("running pass %s caused an error:\n%w", strings.ToUpper(canonical), runErr)
		}
		counters[len(counters)-1]++
	}
	return nil
}

// ParseLiteral converts one script argument token into a Go scalar the
// way Python's ast.literal_eval would: a quoted token keeps its quotes
// stripped, a decimal or 0x-prefixed token becomes an int, a
// recognisable float becomes a float64, True/False/None map to their
// Go equivalents, and anything else passes through as a bare string.
func ParseLiteral(tok string) (interface{}, error) {
	if len(tok) >= 2 && (tok[0] == '"' || tok[0] == '\'') && tok[len(tok)-1] == tok[0] {
		return tok[1 : len(tok)-1], nil
	}
	if n, err := strconv.ParseInt(tok, 0, 64); err == nil {
		return int(n), nil
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return f, nil
	}
	switch tok {
	case "True":
		return true, nil
	case "False":
		return false, nil
	case "None":
		return nil, nil
	}
	return tok, nil
}

// ParseInt parses a script argument as an integer, surfacing a
// consistent error if it isn't one.
func ParseInt(tok string) (int, error) {
	v, err := ParseLiteral(tok)
	if err != nil {
		return 0, err
	}
	n, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("driver: expected an integer argument, got %q", tok)
	}
	return n, nil
}
