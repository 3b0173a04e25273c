package api

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"
	"testing"
)

// Every exported Handler method is an HTTP route and carries the swag block
// that documents it.
func TestHandlersCarryRouteAnnotations(t *testing.T) {
	names, err := filepath.Glob("*.go")
	if err != nil {
		t.Fatal(err)
	}
	fset := token.NewFileSet()
	seen := 0
	for _, name := range names {
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(fset, name, nil, parser.ParseComments)
		if err != nil {
			t.Fatal(err)
		}
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv == nil || !fn.Name.IsExported() || !isHandlerRecv(fn.Recv) {
				continue
			}
			seen++
			doc := ""
			if fn.Doc != nil {
				doc = fn.Doc.Text()
			}
			for _, tag := range []string{"@Summary", "@Tags", "@Router", "@Security"} {
				if !strings.Contains(doc, tag) {
					t.Errorf("%s: missing %s", fn.Name.Name, tag)
				}
			}
		}
	}
	if seen < 25 {
		t.Errorf("found %d handlers", seen)
	}
}

func isHandlerRecv(fl *ast.FieldList) bool {
	star, ok := fl.List[0].Type.(*ast.StarExpr)
	if !ok {
		return false
	}
	id, ok := star.X.(*ast.Ident)
	return ok && id.Name == "Handler"
}
