// Package module holds the top-level unit the rest of this compiler's
// passes operate over: one arena plus an ordered list of declarations
// (§3.3). Unlike AILANG's internal/module, which resolves a graph of
// source files across search paths, this Module is a single compiled
// unit -- the IR has no import/export surface of its own, so there is
// nothing here to search or cycle-detect.
package module

import "github.com/martty/shady-go/internal/ir"

// Module owns an arena and the program's top-level declarations in
// declaration order -- the order annotations, emitters, and the tail-
// call lowering pass's entry-point search all rely on.
type Module struct {
	Name         string
	Arena        *ir.Arena
	Declarations []*ir.Node
}

// New creates an empty module backed by a fresh arena with the given
// configuration.
func New(name string, cfg ir.Config) *Module {
	return &Module{Name: name, Arena: ir.NewArena(cfg)}
}

// AddDeclaration appends decl to the module's declaration list. decl
// must be one of the nominal declaration tags (function, constant,
// global_variable); basic blocks are reachable only through control
// flow and are never added here.
func (m *Module) AddDeclaration(decl *ir.Node) {
	m.Declarations = append(m.Declarations, decl)
}

// Lookup returns the first declaration named name, searching functions,
// constants and global variables, or nil if none matches.
func (m *Module) Lookup(name string) *ir.Node {
	for _, d := range m.Declarations {
		if declName(d) == name {
			return d
		}
	}
	return nil
}

// Functions returns every function declaration in the module, in
// declaration order.
func (m *Module) Functions() []*ir.Node {
	var fns []*ir.Node
	for _, d := range m.Declarations {
		if d.Tag == ir.FunctionTag {
			fns = append(fns, d)
		}
	}
	return fns
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
		return ""
	}
}

// HasAnnotation reports whether decl carries an annotation named name,
// used throughout the lowering pass to find entry points (§4.8
// "EntryPoint"/"Kernel"-annotated functions).
func HasAnnotation(decl *ir.Node, name string) bool {
	var anns []ir.Annotation
	switch decl.Tag {
	case ir.FunctionTag:
		anns = decl.Payload.(*ir.FunctionPayload).Annotations
	case ir.ConstantTag:
		anns = decl.Payload.(*ir.ConstantPayload).Annotations
	case ir.GlobalVariableTag:
		anns = decl.Payload.(*ir.GlobalVariablePayload).Annotations
	}
	for _, a := range anns {
		if a.Name == name {
			return true
		}
	}
	return false
}
