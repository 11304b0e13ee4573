package source

import (
	"fmt"
	"go/ast"
	"go/constant"
	"go/parser"
	"go/token"
	"go/types"
	"strings"
	"unicode"

	"github.com/barisgit/fluxgen/internal/typegen/decl"
)

const directivePrefix = "//fluxgen:"

// Annotation names produced for directives. A route directive becomes a
// RouteAnnotation; verb directives become Http<Verb> annotations.
const (
	RouteAnnotation = "Route"
	GetAnnotation   = "HttpGet"
)

var directiveAnnotations = map[string]string{
	"route":  RouteAnnotation,
	"get":    GetAnnotation,
	"post":   "HttpPost",
	"put":    "HttpPut",
	"patch":  "HttpPatch",
	"delete": "HttpDelete",
}

// parseDirectives reads //fluxgen: lines from a doc comment. Arguments are
// kept as expressions and evaluated later in the scope of at.
func parseDirectives(doc *ast.CommentGroup, scope *evalScope, at token.Pos) ([]decl.Annotation, error) {
	if doc == nil {
		return nil, nil
	}

	var annotations []decl.Annotation
	for _, c := range doc.List {
		if !strings.HasPrefix(c.Text, directivePrefix) {
			continue
		}

		text := strings.TrimPrefix(c.Text, directivePrefix)
		name, rest := text, ""
		if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
			name, rest = text[:i], text[i:]
		}

		annotationName, ok := directiveAnnotations[name]
		if !ok {
			return nil, fmt.Errorf("%s: unknown directive %s%s", scope.fset.Position(c.Pos()), directivePrefix, name)
		}

		annotations = append(annotations, decl.Annotation{
			Name: annotationName,
			Args: splitArgs(strings.TrimSpace(rest), scope, at),
		})
	}
	return annotations, nil
}

// splitArgs splits a comma separated expression list. A list that does not
// parse becomes a single argument reporting the syntax error.
func splitArgs(list string, scope *evalScope, at token.Pos) []decl.Argument {
	if list == "" {
		return nil
	}

	wrapped := "f(" + list + ")"
	expr, err := parser.ParseExpr(wrapped)
	if err != nil {
		return []decl.Argument{invalidArg{expr: list, err: err}}
	}
	call, ok := expr.(*ast.CallExpr)
	if !ok {
		return []decl.Argument{invalidArg{expr: list, err: fmt.Errorf("not an expression list")}}
	}

	args := make([]decl.Argument, 0, len(call.Args))
	for _, a := range call.Args {
		// positions are 1-based offsets into wrapped
		src := wrapped[a.Pos()-1 : a.End()-1]
		args = append(args, constExpr{expr: src, scope: scope, at: at})
	}
	return args
}

// evalScope is the package a directive expression is evaluated in
type evalScope struct {
	fset *token.FileSet
	pkg  *types.Package
}

// constExpr is a directive argument evaluated as a Go constant expression
type constExpr struct {
	expr  string
	scope *evalScope
	at    token.Pos
}

func (c constExpr) Expr() string { return c.expr }

func (c constExpr) StringValue() (string, error) {
	tv, err := types.Eval(c.scope.fset, c.scope.pkg, c.at, c.expr)
	if err != nil {
		return "", err
	}
	if tv.Value == nil {
		return "", fmt.Errorf("%s is not a constant", c.expr)
	}
	if tv.Value.Kind() != constant.String {
		return "", fmt.Errorf("%s is a %s constant, not a string", c.expr, tv.Value.Kind())
	}
	return constant.StringVal(tv.Value), nil
}

type invalidArg struct {
	expr string
	err  error
}

func (a invalidArg) Expr() string                 { return a.expr }
func (a invalidArg) StringValue() (string, error) { return "", a.err }
