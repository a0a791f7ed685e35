// Command shadyc is a thin demonstration driver: it builds a trivial
// mutually tail-recursive module by hand, runs the free-variable
// analysis and tail-call lowering pass over it, and prints the result.
// There is no bitcode ingestion, no SPIR-V/C emission and no file I/O
// beyond reading one optional YAML config path -- a real frontend and
// emitter are out of scope, the way AILANG's cmd/ailang is a thin shell
// around its library packages rather than the parser/evaluator itself.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/martty/shady-go/internal/config"
	"github.com/martty/shady-go/internal/errors"
	"github.com/martty/shady-go/internal/inspect"
	"github.com/martty/shady-go/internal/ir"
	"github.com/martty/shady-go/internal/lower"
	"github.com/martty/shady-go/internal/module"
	"github.com/martty/shady-go/internal/scope"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"

	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func main() {
	var (
		versionFlag = flag.Bool("version", false, "print version information")
		configPath  = flag.String("config", "", "optional YAML configuration file")
		inspectFlag = flag.Bool("inspect", false, "open the interactive inspector on the lowered module instead of printing a summary")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Printf("%s %s (%s, built %s)\n", bold("shadyc"), Version, Commit, BuildTime)
		return
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
			os.Exit(1)
		}
		cfg = *loaded
	}
	fmt.Println(cyan("config:"), cfg.String())

	src := buildDemoModule(cfg)

	entry := src.Lookup("is_even")
	fp := entry.Payload.(*ir.FunctionPayload)
	free := scope.ComputeFreeVariables(fp.Body)
	fmt.Printf("%s %s free variables in is_even's body: %d\n", green("✓"), bold("analysis:"), len(free))

	lowered, err := lower.LowerTailCalls(src, cfg.LowerConfig())
	if err != nil {
		if report, ok := errors.As(err); ok {
			fmt.Fprintf(os.Stderr, "%s %s: %s\n", red("Error"), report.Code, report.Message)
		} else {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		}
		os.Exit(1)
	}

	if *inspectFlag {
		inspect.New(lowered).Start(os.Stdin, os.Stdout)
		return
	}

	fmt.Printf("%s lowered module %q: %d declarations\n", green("✓"), lowered.Name, len(lowered.Declarations))
	for _, d := range lowered.Declarations {
		fmt.Printf("  %s %s\n", cyan(d.Tag.String()), declName(d))
	}
	if cfg.GodFunctionTracing {
		fmt.Fprintln(os.Stderr, yellow("warning"), "god_function_tracing requested but this demo driver does not execute the lowered module, so no dispatch trace is available")
	}
}

func declName(d *ir.Node) string {
	switch d.Tag {
	case ir.FunctionTag:
		return d.Payload.(*ir.FunctionPayload).Name
	case ir.ConstantTag:
		return d.Payload.(*ir.ConstantPayload).Name
	case ir.GlobalVariableTag:
		return d.Payload.(*ir.GlobalVariablePayload).Name
	default:
		return d.Tag.String()
	}
}

// buildDemoModule builds is_even/is_odd: two mutually tail-recursive
// functions over a 32-bit int parameter, is_even annotated as the
// program's entry point. This is the smallest module that exercises
// both the free-variable analysis and the dispatcher the tail-call
// lowering pass generates for mutual recursion.
func buildDemoModule(cfg config.CompilerConfig) *module.Module {
	m := module.New("demo", cfg.ArenaConfig())
	a := m.Arena
	i32 := ir.NewIntType(a, ir.IntWidth32, true)
	qi32 := ir.NewQualifiedType(a, i32, true)
	qbool := ir.NewQualifiedType(a, ir.NewBoolType(a), true)

	nEven := ir.NewVariable(a, qi32, "n", nil, 0)
	isEven := ir.NewFunction(a, []ir.Annotation{{Name: "EntryPoint"}}, "is_even", false, []*ir.Node{nEven}, []*ir.Node{qbool})

	nOdd := ir.NewVariable(a, qi32, "n", nil, 0)
	isOdd := ir.NewFunction(a, nil, "is_odd", false, []*ir.Node{nOdd}, []*ir.Node{qbool})

	build := func(fn, param, other *ir.Node, baseResult bool) {
		bb := ir.Begin(a)
		zero := ir.NewIntLiteral(a, ir.IntWidth32, 0)
		eqInstr, err := ir.NewPrimOp(a, ir.EqOp, nil, []*ir.Node{param, zero})
		must(err)
		cond := bb.Bind(eqInstr, []*ir.Node{qbool})[0]

		ifTrue := ir.NewCase(a, nil, ir.NewReturn(a, fn, []*ir.Node{ir.NewBoolLiteral(a, baseResult)}))

		ffBB := ir.Begin(a)
		one := ir.NewIntLiteral(a, ir.IntWidth32, 1)
		subInstr, err := ir.NewPrimOp(a, ir.SubOp, nil, []*ir.Node{param, one})
		must(err)
		decremented := ffBB.Bind(subInstr, []*ir.Node{qi32})[0]
		declRef, err := ir.NewDeclRef(a, other)
		must(err)
		ifFalse := ffBB.FinishAndWrapAsBlock(ir.NewTailCall(a, declRef, []*ir.Node{decremented}), nil)

		ifInstr, err := ir.NewIf(a, cond, nil, ifTrue, ifFalse)
		must(err)
		bb.BindExistingVars(ifInstr, nil)
		body := bb.FinishAndWrapAsBlock(ir.NewUnreachable(a), []*ir.Node{param})
		ir.SetFunctionBody(fn, body)
	}

	build(isEven, nEven, isOdd, true)
	build(isOdd, nOdd, isEven, false)

	m.AddDeclaration(isEven)
	m.AddDeclaration(isOdd)
	return m
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
