// Package nosecretlog reports zap logging calls that pass credentials as
// arguments: passwords, password hashes, session secrets and reset tokens.
package nosecretlog

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
)

const zapPath = "go.uber.org/zap"

// sensitive holds lower-cased name fragments that mark a value as a credential.
var sensitive = []string{"password", "secret", "token"}

var Analyzer = &analysis.Analyzer{
	Name: "nosecretlog",
	Doc:  "forbids passing passwords, secrets and tokens to zap loggers",
	Run:  run,
}

func run(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		ast.Inspect(file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}

			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok || !isZapLogger(pass.TypesInfo.TypeOf(sel.X)) {
				return true
			}

			for _, arg := range call.Args {
				if name, found := sensitiveName(arg); found {
					pass.Reportf(arg.Pos(), "%s passed to %s may leak a credential into the logs", name, sel.Sel.Name)
				}
			}

			return true
		})
	}

	return nil, nil
}

func isZapLogger(t types.Type) bool {
	if t == nil {
		return false
	}
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}
	named, ok := t.(*types.Named)
	if !ok || named.Obj().Pkg() == nil {
		return false
	}

	return named.Obj().Pkg().Path() == zapPath
}

// sensitiveName looks at identifiers and field selectors only. String
// literals are log keys and are allowed to mention anything.
func sensitiveName(expr ast.Expr) (string, bool) {
	var name string
	switch e := expr.(type) {
	case *ast.Ident:
		name = e.Name
	case *ast.SelectorExpr:
		name = e.Sel.Name
	default:
		return "", false
	}

	lower := strings.ToLower(name)
	for _, word := range sensitive {
		if strings.Contains(lower, word) {
			return name, true
		}
	}

	return "", false
}
