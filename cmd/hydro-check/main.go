// Command hydro-check statically validates render templates. It loads a
// module, finds every ctx.Html call whose template is a string literal,
// runs the analyzer on it, and verifies that each signal the template
// reads or writes matches an exported field of the component struct.
//
// Usage:
//
//	hydro-check [dir]
package main

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"os"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/vcrobe/hydro/analyzer"
)

func main() {
	dir := "."
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	problems, err := check(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hydro-check: %v\n", err)
		os.Exit(2)
	}
	for _, p := range problems {
		fmt.Println(p)
	}
	if len(problems) > 0 {
		os.Exit(1)
	}
}

// check loads every package under dir and validates the templates it can
// see. Returned problems are formatted "file:line: message".
func check(dir string) ([]string, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
			packages.NeedTypes | packages.NeedTypesInfo,
		Dir: dir,
	}
	pkgs, err := packages.Load(cfg, "./...")
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}

	var problems []string
	for _, pkg := range pkgs {
		for _, file := range pkg.Syntax {
			ast.Inspect(file, func(n ast.Node) bool {
				call, ok := n.(*ast.CallExpr)
				if !ok {
					return true
				}
				tpl, pos, ok := templateArg(call, pkg.Fset)
				if !ok {
					return true
				}
				problems = append(problems, checkTemplate(tpl, pos, call, pkg)...)
				return true
			})
		}
	}
	return problems, nil
}

// templateArg matches calls of the form <recv>.Html("literal") and
// returns the unquoted template text.
func templateArg(call *ast.CallExpr, fset *token.FileSet) (string, token.Position, bool) {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "Html" || len(call.Args) != 1 {
		return "", token.Position{}, false
	}
	lit, ok := call.Args[0].(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", token.Position{}, false
	}
	tpl, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", token.Position{}, false
	}
	return tpl, fset.Position(lit.Pos()), true
}

func checkTemplate(tpl string, pos token.Position, call *ast.CallExpr, pkg *packages.Package) []string {
	a, err := analyzer.Analyze(tpl)
	if err != nil {
		return []string{fmt.Sprintf("%s: %v", pos, err)}
	}

	fields := receiverFields(call, pkg)
	if fields == nil {
		return nil
	}

	var problems []string
	for _, slot := range a.Slots {
		for _, sig := range append(append([]string{}, slot.Signals...), slot.Writes...) {
			if !hasField(fields, sig) {
				problems = append(problems,
					fmt.Sprintf("%s: template reads %q but the component has no matching exported field", pos, sig))
			}
		}
	}
	return problems
}

// receiverFields resolves the struct type of the method enclosing a
// ctx.Html call and returns its exported field names. Returns nil when
// the receiver cannot be determined, in which case field checks are
// skipped.
func receiverFields(call *ast.CallExpr, pkg *packages.Package) []string {
	for _, file := range pkg.Syntax {
		if call.Pos() < file.Pos() || call.Pos() > file.End() {
			continue
		}
		path, _ := enclosingFunc(file, call.Pos())
		if path == nil || path.Recv == nil || len(path.Recv.List) == 0 {
			return nil
		}
		tv, ok := pkg.TypesInfo.Types[path.Recv.List[0].Type]
		if !ok {
			return nil
		}
		st := structOf(tv.Type)
		if st == nil {
			return nil
		}
		var names []string
		for i := 0; i < st.NumFields(); i++ {
			if f := st.Field(i); f.Exported() {
				names = append(names, f.Name())
			}
		}
		return names
	}
	return nil
}

func enclosingFunc(file *ast.File, pos token.Pos) (*ast.FuncDecl, bool) {
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if ok && fn.Pos() <= pos && pos <= fn.End() {
			return fn, true
		}
	}
	return nil, false
}

func structOf(t types.Type) *types.Struct {
	for {
		switch u := t.(type) {
		case *types.Pointer:
			t = u.Elem()
		case *types.Named:
			t = u.Underlying()
		case *types.Struct:
			return u
		default:
			return nil
		}
	}
}

// hasField matches template signal names against struct fields, honoring
// the lowercase-first-letter convention templates use.
func hasField(fields []string, signal string) bool {
	for _, f := range fields {
		if strings.EqualFold(f, signal) {
			return true
		}
	}
	return false
}
