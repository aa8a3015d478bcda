/*
Formrepl is an interactive REPL for building a formula set and driving it one
tick at a time.

Usage:

	formrepl

Commands, one per line:

	def NAME = SOURCE
		Add or replace the formula named NAME with the given source text.
		Must be re-entered (along with every other def) before the next
		build, since build resets the interpreter from scratch.

	build
		Build an Interpreter from every def entered so far. Must be run
		before the first tick.

	tick NAME=PRICE[@TIME] [NAME=PRICE[@TIME] ...]
		Feed one tick's worth of named samples to the built Interpreter and
		print the resulting sink values. TIME defaults to the system clock
		if omitted.

	quit
		Exit the REPL.
*/
package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/dekarrin/express/formula/graph"
	"github.com/dekarrin/express/formula/hostio"
	"github.com/dekarrin/express/formula/registry"
	"github.com/dekarrin/express/formula/stdlib"
	"github.com/dekarrin/express/formula/value"
	"github.com/dekarrin/express/internal/input"
)

func main() {
	reader, err := input.NewInteractiveReader()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not start input reader: %s\n", err)
		os.Exit(1)
	}
	defer reader.Close()
	reader.AllowBlank(false)

	repl := newREPL()

	for {
		line, err := reader.ReadCommand()
		if err != nil {
			if err == io.EOF {
				return
			}
			fmt.Fprintf(os.Stderr, "read error: %s\n", err)
			return
		}

		if strings.EqualFold(line, "quit") || strings.EqualFold(line, "exit") {
			return
		}

		if err := repl.handle(line); err != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
		}
	}
}

type repl struct {
	defs  map[string]string
	interp *graph.Interpreter
	clock  hostio.Clock
}

func newREPL() *repl {
	return &repl{
		defs:  make(map[string]string),
		clock: hostio.SystemClock{},
	}
}

func (r *repl) handle(line string) error {
	fields := strings.SplitN(line, " ", 2)
	cmd := strings.ToLower(fields[0])
	var rest string
	if len(fields) > 1 {
		rest = fields[1]
	}

	switch cmd {
	case "def":
		return r.handleDef(rest)
	case "build":
		return r.handleBuild()
	case "tick":
		return r.handleTick(rest)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (r *repl) handleDef(rest string) error {
	parts := strings.SplitN(rest, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("usage: def NAME = SOURCE")
	}
	name := strings.TrimSpace(parts[0])
	source := strings.TrimSpace(parts[1])
	if name == "" {
		return fmt.Errorf("formula name cannot be blank")
	}
	r.defs[name] = source
	r.interp = nil
	fmt.Printf("defined %q\n", name)
	return nil
}

func (r *repl) handleBuild() error {
	if len(r.defs) == 0 {
		return fmt.Errorf("no formulas defined yet")
	}

	ctx := registry.New()
	stdlib.Register(ctx)

	defs := make([]graph.Definition, 0, len(r.defs))
	for name, source := range r.defs {
		defs = append(defs, graph.Definition{Name: name, Source: source})
	}

	interp, err := graph.New(defs, ctx)
	if err != nil {
		return err
	}

	r.interp = interp
	fmt.Printf("built %d formulas\n", len(r.defs))
	return nil
}

func (r *repl) handleTick(rest string) error {
	if r.interp == nil {
		return fmt.Errorf("run build before tick")
	}
	if rest == "" {
		return fmt.Errorf("usage: tick NAME=PRICE[@TIME] ...")
	}

	for _, field := range strings.Fields(rest) {
		eq := strings.SplitN(field, "=", 2)
		if len(eq) != 2 {
			return fmt.Errorf("malformed sample %q, want NAME=PRICE[@TIME]", field)
		}

		name := eq[0]
		priceTime := strings.SplitN(eq[1], "@", 2)

		price, err := strconv.ParseFloat(priceTime[0], 64)
		if err != nil {
			return fmt.Errorf("sample %q: price is not a number: %w", field, err)
		}

		t := r.clock.Now()
		if len(priceTime) == 2 {
			t, err = strconv.ParseFloat(priceTime[1], 64)
			if err != nil {
				return fmt.Errorf("sample %q: time is not a number: %w", field, err)
			}
		}

		if !r.interp.SetInput(name, value.NewTimeStep(price, t)) {
			return fmt.Errorf("sample %q: no such formula %q", field, name)
		}
	}

	sinks := r.interp.ComputePass()
	names := make([]string, 0, len(sinks))
	for name := range sinks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("%s = %s\n", name, sinks[name].String())
	}

	if r.interp.Done() {
		fmt.Println("(interpreter reports all sinks exhausted)")
	}

	return nil
}
