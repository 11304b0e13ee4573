// Package decl defines the read-only view of source declarations that the
// type generator consumes. Front-ends (Go source, declaration model files)
// implement Surface; the analyzer never looks past it.
package decl

import (
	"github.com/barisgit/fluxgen/internal/typegen/types"
)

// Surface enumerates class-like declarations of a compilation unit.
//
// Declarations must be returned in stable declaration order, and so must the
// members of each declaration. Generated output is only reproducible when
// this holds.
type Surface interface {
	Declarations() []*Declaration
}

// Argument is one annotation argument.
type Argument interface {
	// Expr returns the argument as written in the source.
	Expr() string

	// StringValue evaluates the argument as a constant string expression.
	StringValue() (string, error)
}

// Annotation is an attribute, decorator or directive attached to a declaration.
type Annotation struct {
	Name string
	Args []Argument
}

// Declaration is a class-like declaration: a type with methods and properties.
type Declaration struct {
	Name        string
	Pos         string
	Annotations []Annotation
	Methods     []Method
	Properties  []Property
}

// Method is a method member of a declaration.
type Method struct {
	Name        string
	Pos         string
	Annotations []Annotation
	Returns     types.TypeRef
}

// Property is a data member of a declaration.
type Property struct {
	Name string
	Pos  string
	Type types.TypeRef
}

// Annotation returns the first annotation with the given name.
func (d *Declaration) Annotation(name string) (Annotation, bool) {
	return findAnnotation(d.Annotations, name)
}

// HasAnnotation reports whether the declaration carries the named annotation.
func (d *Declaration) HasAnnotation(name string) bool {
	_, ok := d.Annotation(name)
	return ok
}

// Annotation returns the first annotation with the given name.
func (m Method) Annotation(name string) (Annotation, bool) {
	return findAnnotation(m.Annotations, name)
}

func findAnnotation(list []Annotation, name string) (Annotation, bool) {
	for _, a := range list {
		if a.Name == name {
			return a, true
		}
	}
	return Annotation{}, false
}

// Lookup returns every declaration of s with the given simple name, in
// declaration order.
func Lookup(s Surface, name string) []*Declaration {
	var found []*Declaration
	for _, d := range s.Declarations() {
		if d.Name == name {
			found = append(found, d)
		}
	}
	return found
}

// Literal is an Argument whose value is already known.
type Literal string

func (l Literal) Expr() string                 { return `"` + string(l) + `"` }
func (l Literal) StringValue() (string, error) { return string(l), nil }

// List is a Surface over a fixed slice of declarations.
type List []*Declaration

func (l List) Declarations() []*Declaration { return l }
