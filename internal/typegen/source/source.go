// Package source is the Go front-end of the type generator. It loads Go
// packages and exposes their struct types as declarations.
//
// Controllers and endpoints are marked with directives in doc comments:
//
//	//fluxgen:route "[controller]"
//	type WeatherForecastController struct{}
//
//	//fluxgen:get "GetWeatherForecast"
//	func (WeatherForecastController) GetForecast() ([]WeatherForecast, error)
//
// Directive arguments are Go constant expressions evaluated in the package
// scope, so named constants and concatenation work.
package source

import (
	"context"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/barisgit/fluxgen/internal/typegen/decl"
	typegen "github.com/barisgit/fluxgen/internal/typegen/types"
)

const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo

// Source is a decl.Surface over loaded Go packages
type Source struct {
	declarations []*decl.Declaration
}

// Declarations returns struct declarations ordered by package path, file
// name and position.
func (s *Source) Declarations() []*decl.Declaration {
	return s.declarations
}

// Load loads the packages matching patterns, relative to dir.
func Load(ctx context.Context, dir string, patterns ...string) (*Source, error) {
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	cfg := &packages.Config{
		Context: ctx,
		Mode:    loadMode,
		Dir:     dir,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found matching %s", strings.Join(patterns, " "))
	}

	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, fmt.Errorf("package %s: %v", pkg.PkgPath, pkg.Errors[0])
		}
	}

	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].PkgPath < pkgs[j].PkgPath })

	local := make(map[string]bool, len(pkgs))
	for _, pkg := range pkgs {
		local[pkg.PkgPath] = true
	}

	l := &loader{dir: dir, local: local, expanding: make(map[*types.Named]bool)}
	src := &Source{}
	for _, pkg := range pkgs {
		decls, err := l.loadPackage(pkg)
		if err != nil {
			return nil, err
		}
		src.declarations = append(src.declarations, decls...)
	}
	return src, nil
}

type loader struct {
	dir       string
	local     map[string]bool
	expanding map[*types.Named]bool
}

type sourceFile struct {
	name string
	ast  *ast.File
}

func (l *loader) loadPackage(pkg *packages.Package) ([]*decl.Declaration, error) {
	scope := &evalScope{fset: pkg.Fset, pkg: pkg.Types}

	files := make([]sourceFile, 0, len(pkg.Syntax))
	for _, f := range pkg.Syntax {
		files = append(files, sourceFile{name: pkg.Fset.Position(f.Pos()).Filename, ast: f})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })

	var decls []*decl.Declaration
	byName := make(map[string]*decl.Declaration)

	// Types first so methods can attach regardless of file order
	for _, f := range files {
		for _, d := range f.ast.Decls {
			gen, ok := d.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, spec := range gen.Specs {
				ts := spec.(*ast.TypeSpec)
				doc := ts.Doc
				if doc == nil && !gen.Lparen.IsValid() {
					doc = gen.Doc
				}

				annotations, err := parseDirectives(doc, scope, ts.Pos())
				if err != nil {
					return nil, err
				}

				obj, ok := pkg.TypesInfo.Defs[ts.Name].(*types.TypeName)
				if !ok || obj.IsAlias() {
					continue
				}
				st, isStruct := obj.Type().Underlying().(*types.Struct)
				if !isStruct && len(annotations) == 0 {
					continue
				}

				d := &decl.Declaration{
					Name:        ts.Name.Name,
					Pos:         l.position(pkg.Fset, ts.Pos()),
					Annotations: annotations,
				}
				if isStruct {
					d.Properties = l.properties(pkg.Fset, st)
				}
				decls = append(decls, d)
				byName[d.Name] = d
			}
		}
	}

	for _, f := range files {
		for _, d := range f.ast.Decls {
			fn, ok := d.(*ast.FuncDecl)
			if !ok || fn.Recv == nil || len(fn.Recv.List) == 0 {
				continue
			}
			owner, ok := byName[receiverName(fn.Recv.List[0].Type)]
			if !ok {
				continue
			}

			annotations, err := parseDirectives(fn.Doc, scope, fn.Pos())
			if err != nil {
				return nil, err
			}

			obj, ok := pkg.TypesInfo.Defs[fn.Name].(*types.Func)
			if !ok {
				continue
			}
			owner.Methods = append(owner.Methods, decl.Method{
				Name:        fn.Name.Name,
				Pos:         l.position(pkg.Fset, fn.Pos()),
				Annotations: annotations,
				Returns:     l.returnType(obj.Type().(*types.Signature)),
			})
		}
	}

	return decls, nil
}

// properties lists the exported, non-embedded fields of a struct under their
// JSON names.
func (l *loader) properties(fset *token.FileSet, st *types.Struct) []decl.Property {
	var props []decl.Property
	for i := 0; i < st.NumFields(); i++ {
		field := st.Field(i)
		if !field.Exported() || field.Embedded() {
			continue
		}

		name := field.Name()
		tag := reflect.StructTag(st.Tag(i)).Get("json")
		if tag == "-" {
			continue
		}
		if jsonName, _, _ := strings.Cut(tag, ","); jsonName != "" {
			name = jsonName
		}

		props = append(props, decl.Property{
			Name: name,
			Pos:  l.position(fset, field.Pos()),
			Type: l.classify(field.Type()),
		})
	}
	return props
}

var errorType = types.Universe.Lookup("error").Type()

// returnType picks the first result that is not an error
func (l *loader) returnType(sig *types.Signature) typegen.TypeRef {
	results := sig.Results()
	for i := 0; i < results.Len(); i++ {
		t := results.At(i).Type()
		if types.Identical(t, errorType) {
			continue
		}
		return l.classify(t)
	}
	return typegen.Primitive{Name: "void"}
}

// classify turns a Go type into a type reference. Named structs of loaded
// packages are referenced by simple name, other named structs by their
// qualified name (time.Time), and named non-struct types by what they
// are built from.
func (l *loader) classify(t types.Type) typegen.TypeRef {
	t = types.Unalias(t)
	raw := types.TypeString(t, l.qualifier)

	switch t := t.(type) {
	case *types.Basic:
		return typegen.Primitive{Name: t.Name()}
	case *types.Pointer:
		return typegen.Nullable{Elem: l.classify(t.Elem()), Raw: raw}
	case *types.Slice:
		if b, ok := types.Unalias(t.Elem()).(*types.Basic); ok && b.Kind() == types.Byte {
			// encoding/json writes []byte as a base64 string
			return typegen.Primitive{Name: "string"}
		}
		return typegen.Collection{Elem: l.classify(t.Elem()), Raw: raw}
	case *types.Array:
		return typegen.Collection{Elem: l.classify(t.Elem()), Raw: raw}
	case *types.Interface:
		return typegen.Primitive{Name: "any"}
	case *types.Named:
		obj := t.Obj()
		if obj.Pkg() == nil {
			return typegen.Primitive{Name: obj.Name()}
		}
		if _, ok := t.Underlying().(*types.Struct); ok {
			if l.local[obj.Pkg().Path()] {
				return typegen.Named{Name: obj.Name()}
			}
			return typegen.Named{Name: obj.Pkg().Name() + "." + obj.Name()}
		}
		if l.expanding[t] {
			return typegen.Named{Name: raw}
		}
		l.expanding[t] = true
		defer delete(l.expanding, t)
		return l.classify(t.Underlying())
	default:
		return typegen.Named{Name: raw}
	}
}

func (l *loader) qualifier(pkg *types.Package) string {
	if l.local[pkg.Path()] {
		return ""
	}
	return pkg.Name()
}

func (l *loader) position(fset *token.FileSet, pos token.Pos) string {
	p := fset.Position(pos)
	if l.dir != "" {
		if rel, err := filepath.Rel(l.dir, p.Filename); err == nil && !strings.HasPrefix(rel, "..") {
			p.Filename = rel
		}
	}
	return p.String()
}

// receiverName returns the type name of a method receiver expression
func receiverName(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.StarExpr:
		return receiverName(e.X)
	case *ast.IndexExpr:
		return receiverName(e.X)
	case *ast.IndexListExpr:
		return receiverName(e.X)
	case *ast.ParenExpr:
		return receiverName(e.X)
	case *ast.Ident:
		return e.Name
	default:
		return ""
	}
}
