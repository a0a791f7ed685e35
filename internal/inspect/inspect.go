// Package inspect is a liner-based REPL for browsing a constructed
// module's declarations and node graph -- ambient debugging tooling, not
// part of the kernel itself, built the way AILANG's internal/repl builds
// its own REPL.
package inspect

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/martty/shady-go/internal/ir"
	"github.com/martty/shady-go/internal/module"
	"github.com/martty/shady-go/internal/scope"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
)

var commands = []string{":help", ":quit", ":list", ":show", ":free", ":scope"}

// Inspector browses a single module: one module in, no mutation of it.
type Inspector struct {
	mod     *module.Module
	current *ir.Node // declaration selected by the last :show
}

// New wraps m for interactive inspection.
func New(m *module.Module) *Inspector {
	return &Inspector{mod: m}
}

// Start runs the read-eval-print loop against in/out until EOF or :quit.
func (ins *Inspector) Start(in io.Reader, out io.Writer) {
	line := liner.NewLiner()
	defer line.Close()

	historyFile := filepath.Join(os.TempDir(), ".shadyc_inspect_history")
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	line.SetCompleter(func(partial string) (c []string) {
		if strings.HasPrefix(partial, ":") {
			for _, cmd := range commands {
				if strings.HasPrefix(cmd, partial) {
					c = append(c, cmd)
				}
			}
		}
		return
	})

	fmt.Fprintf(out, "%s %s\n", bold("shadyc-inspect"), dim(ins.mod.Name))
	fmt.Fprintln(out, dim("Type :help for commands, :quit to exit"))

	for {
		input, err := line.Prompt(fmt.Sprintf("%s> ", ins.promptSuffix()))
		if err == io.EOF {
			fmt.Fprintln(out, green("\nGoodbye!"))
			break
		}
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", red("Error"), err)
			continue
		}

		input = normalizeInput(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if input == ":quit" || input == ":q" {
			fmt.Fprintln(out, green("Goodbye!"))
			break
		}
		ins.handleCommand(input, out)
	}

	if f, err := os.Create(historyFile); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
}

func (ins *Inspector) promptSuffix() string {
	if ins.current == nil {
		return "λ"
	}
	return "λ[" + declName(ins.current) + "]"
}

// normalizeInput strips a leading UTF-8 BOM and applies Unicode NFC
// normalization, the same treatment AILANG's lexer gives source text,
// applied here at the one boundary where a person types text into this
// compiler directly.
func normalizeInput(s string) string {
	return strings.TrimSpace(string(normalizeBytes([]byte(s))))
}

func (ins *Inspector) handleCommand(input string, out io.Writer) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case ":help":
		ins.printHelp(out)
	case ":list":
		ins.listDeclarations(out)
	case ":show":
		if len(parts) < 2 {
			fmt.Fprintf(out, "%s: usage :show <name>\n", red("Error"))
			return
		}
		ins.show(parts[1], out)
	case ":free":
		ins.freeVariables(out)
	case ":scope":
		ins.scopeTree(out)
	default:
		fmt.Fprintf(out, "%s: unknown command %q, try :help\n", yellow("Warning"), parts[0])
	}
}

func (ins *Inspector) printHelp(out io.Writer) {
	fmt.Fprintln(out, bold("Commands:"))
	fmt.Fprintln(out, "  :list          list every declaration in the module")
	fmt.Fprintln(out, "  :show <name>   select a declaration and print its shape")
	fmt.Fprintln(out, "  :free          print the free variables of the selected function's body")
	fmt.Fprintln(out, "  :scope         print the scope tree of the selected function's body")
	fmt.Fprintln(out, "  :quit          exit")
}

func (ins *Inspector) listDeclarations(out io.Writer) {
	for _, d := range ins.mod.Declarations {
		marker := " "
		if d == ins.current {
			marker = "*"
		}
		fmt.Fprintf(out, " %s %-6s %s\n", marker, cyan(d.Tag.String()), declName(d))
	}
}

func (ins *Inspector) show(name string, out io.Writer) {
	d := ins.mod.Lookup(name)
	if d == nil {
		fmt.Fprintf(out, "%s: no declaration named %q\n", red("Error"), name)
		return
	}
	ins.current = d
	fmt.Fprintf(out, "%s %s\n", cyan(d.Tag.String()), bold(name))
	if d.Tag == ir.FunctionTag {
		fp := d.Payload.(*ir.FunctionPayload)
		fmt.Fprintf(out, "  params: %d, returns: %d, basic_block: %t\n", len(fp.Params), len(fp.ReturnTypes), fp.IsBasicBlock)
		for _, ann := range fp.Annotations {
			fmt.Fprintf(out, "  @%s\n", ann.Name)
		}
	}
}

func (ins *Inspector) bodyRoot() (*ir.Node, bool) {
	if ins.current == nil || ins.current.Tag != ir.FunctionTag {
		return nil, false
	}
	fp := ins.current.Payload.(*ir.FunctionPayload)
	if fp.Body == nil {
		return nil, false
	}
	return fp.Body, true
}

func (ins *Inspector) freeVariables(out io.Writer) {
	root, ok := ins.bodyRoot()
	if !ok {
		fmt.Fprintf(out, "%s: select a function with a body first (:show <name>)\n", red("Error"))
		return
	}
	free := scope.ComputeFreeVariables(root)
	if len(free) == 0 {
		fmt.Fprintln(out, dim("(no free variables)"))
		return
	}
	for _, v := range free {
		fmt.Fprintf(out, "  %s\n", v)
	}
}

func (ins *Inspector) scopeTree(out io.Writer) {
	root, ok := ins.bodyRoot()
	if !ok {
		fmt.Fprintf(out, "%s: select a function with a body first (:show <name>)\n", red("Error"))
		return
	}
	printScopeNode(out, scope.Build(root), 0)
}

func printScopeNode(out io.Writer, n *scope.CFNode, depth int) {
	fmt.Fprintf(out, "%s%s\n", strings.Repeat("  ", depth), n.Case)
	for _, c := range n.Children {
		printScopeNode(out, c, depth+1)
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
