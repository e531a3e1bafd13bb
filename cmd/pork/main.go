// Command pork compiles and runs a single Pork function body.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"pork/internal/pipeline"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("pork", flag.ContinueOnError)
	dumpIR := fs.Bool("dump-ir", false, "print the lowered instruction stream after register allocation")
	dumpCFG := fs.Bool("dump-cfg", false, "print basic blocks and their successors")
	stats := fs.Bool("stats", false, "print register/instruction/block counts after compiling")
	verbose := fs.Bool("verbose", false, "print the compilation id alongside the result")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	path := "examples/test.pork"
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("Line 0: could not read %q: %s\n", path, err)
		return 1
	}

	res, diag, ok, compileErr := pipeline.Compile(string(source))
	if diag.HasErrors() {
		var sb strings.Builder
		diag.Print(&sb)
		fmt.Print(sb.String())
	}
	if compileErr != nil {
		fmt.Printf("Line 0: %s\n", compileErr)
		return 1
	}
	if !ok {
		return 1
	}

	if *dumpIR {
		printIR(res)
	}
	if *dumpCFG {
		printCFG(res)
	}
	if *stats {
		printStats(res)
	}

	result, runErr := runSafely(res)
	if runErr != nil {
		fmt.Println(runErr.Error())
		return 1
	}

	if *verbose {
		fmt.Printf("Result: %d (compilation %s)\n", result, res.CompilationID)
	} else {
		fmt.Printf("Result: %d\n", result)
	}
	return 0
}

// runSafely recovers a runtime panic (e.g. integer divide-by-zero) into
// an error, per spec.md §7: divide-by-zero is "undefined; implementer may
// trap" rather than crash the process uncontrolled.
func runSafely(res *pipeline.Result) (value int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("Line 0: runtime error: %v", r)
		}
	}()
	return pipeline.Run(res)
}

func printIR(res *pipeline.Result) {
	fmt.Println("-- ir --")
	for i, ins := range res.Bytecode.Instructions {
		label := ""
		if ins.Label != -1 {
			label = fmt.Sprintf("L%d: ", ins.Label)
		}
		fmt.Printf("%4d %s%s %d %d %d\n", i, label, ins.Op, ins.A1, ins.A2, ins.A3)
	}
}

func printCFG(res *pipeline.Result) {
	fmt.Println("-- cfg --")
	for _, b := range res.Graph.Blocks {
		var succ []string
		for _, s := range b.Successors {
			succ = append(succ, fmt.Sprintf("B%d", s.Index))
		}
		fmt.Printf("B%d [%d,%d) reachable=%v succ=%s\n", b.Index, b.Start, b.End, b.Reachable, strings.Join(succ, ","))
	}
}

func printStats(res *pipeline.Result) {
	fmt.Printf("-- stats --\ninstructions: %s\nblocks: %s\nregisters: %s\n",
		humanize.Comma(int64(len(res.Bytecode.Instructions))),
		humanize.Comma(int64(len(res.Graph.Blocks))),
		humanize.Comma(int64(res.Bytecode.RegisterCount)))
}
