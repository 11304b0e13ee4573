// Package model reads declaration model files: YAML or JSON dumps of
// annotated classes produced by an external parser. A loaded Model is a
// decl.Surface.
package model

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/barisgit/fluxgen/internal/typegen/decl"
	"github.com/barisgit/fluxgen/internal/typegen/types"
)

// File is the on-disk layout of a declaration model
type File struct {
	Constants    map[string]string `yaml:"constants"`
	Declarations []DeclarationSpec `yaml:"declarations"`
}

// DeclarationSpec is one class-like declaration
type DeclarationSpec struct {
	Name        string           `yaml:"name"`
	Annotations []AnnotationSpec `yaml:"annotations"`
	Methods     []MethodSpec     `yaml:"methods"`
	Properties  []PropertySpec   `yaml:"properties"`

	line, column int
}

// MethodSpec is one method of a declaration
type MethodSpec struct {
	Name        string           `yaml:"name"`
	Annotations []AnnotationSpec `yaml:"annotations"`
	Returns     TypeSpec         `yaml:"returns"`

	line, column int
}

// PropertySpec is one data member of a declaration
type PropertySpec struct {
	Name string   `yaml:"name"`
	Type TypeSpec `yaml:"type"`

	line, column int
}

// AnnotationSpec is one attribute with its arguments
type AnnotationSpec struct {
	Name string         `yaml:"name"`
	Args []ArgumentSpec `yaml:"args"`
}

// ArgumentSpec is either a literal string or a reference to a named constant
type ArgumentSpec struct {
	Literal string
	Const   string
}

// TypeSpec is a type reference, either shorthand text or exactly one of the
// explicit variant keys.
type TypeSpec struct {
	Ref types.TypeRef
}

func (d *DeclarationSpec) UnmarshalYAML(value *yaml.Node) error {
	type plain DeclarationSpec
	if err := value.Decode((*plain)(d)); err != nil {
		return err
	}
	d.line, d.column = value.Line, value.Column
	return nil
}

func (m *MethodSpec) UnmarshalYAML(value *yaml.Node) error {
	type plain MethodSpec
	if err := value.Decode((*plain)(m)); err != nil {
		return err
	}
	m.line, m.column = value.Line, value.Column
	return nil
}

func (p *PropertySpec) UnmarshalYAML(value *yaml.Node) error {
	type plain PropertySpec
	if err := value.Decode((*plain)(p)); err != nil {
		return err
	}
	p.line, p.column = value.Line, value.Column
	return nil
}

func (a *ArgumentSpec) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		a.Literal = value.Value
		return nil
	case yaml.MappingNode:
		var ref struct {
			Const string `yaml:"const"`
		}
		if err := value.Decode(&ref); err != nil {
			return err
		}
		if ref.Const == "" {
			return fmt.Errorf("line %d: argument mapping must name a constant", value.Line)
		}
		a.Const = ref.Const
		return nil
	default:
		return fmt.Errorf("line %d: argument must be a string or {const: name}", value.Line)
	}
}

func (t *TypeSpec) UnmarshalYAML(value *yaml.Node) error {
	ref, err := decodeTypeRef(value)
	if err != nil {
		return err
	}
	t.Ref = ref
	return nil
}

func decodeTypeRef(value *yaml.Node) (types.TypeRef, error) {
	switch value.Kind {
	case yaml.ScalarNode:
		ref, err := ParseTypeRef(value.Value)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", value.Line, err)
		}
		return ref, nil
	case yaml.MappingNode:
		// Content alternates key and value nodes
		if len(value.Content) != 2 {
			return nil, fmt.Errorf("line %d: type must have exactly one of primitive, named, collection, nullable", value.Line)
		}
		key, inner := value.Content[0].Value, value.Content[1]
		switch key {
		case "primitive", "named":
			if inner.Kind != yaml.ScalarNode || inner.Value == "" {
				return nil, fmt.Errorf("line %d: %s must be a type name", inner.Line, key)
			}
			if key == "primitive" {
				return types.Primitive{Name: inner.Value}, nil
			}
			return types.Named{Name: inner.Value}, nil
		case "collection":
			elem, err := decodeTypeRef(inner)
			if err != nil {
				return nil, err
			}
			return types.Collection{Elem: elem}, nil
		case "nullable":
			elem, err := decodeTypeRef(inner)
			if err != nil {
				return nil, err
			}
			return types.Nullable{Elem: elem}, nil
		default:
			return nil, fmt.Errorf("line %d: unknown type kind %q", value.Line, key)
		}
	default:
		return nil, fmt.Errorf("line %d: type must be a string or a mapping", value.Line)
	}
}

// Model is a loaded declaration model
type Model struct {
	declarations []*decl.Declaration
}

// Declarations returns the declarations in file order
func (m *Model) Declarations() []*decl.Declaration {
	return m.declarations
}

// Load reads and parses a declaration model file
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	return Parse(data, path)
}

// Parse parses a declaration model. JSON input is accepted as YAML.
func Parse(data []byte, filename string) (*Model, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse model file %s: %w", filename, err)
	}
	return Build(&file, filename)
}

// Build converts a parsed File into a Model
func Build(file *File, filename string) (*Model, error) {
	consts := constants(file.Constants)
	model := &Model{declarations: make([]*decl.Declaration, 0, len(file.Declarations))}

	var errs []error
	for i, spec := range file.Declarations {
		pos := position(filename, spec.line, spec.column)
		if spec.Name == "" {
			errs = append(errs, fmt.Errorf("%s: declaration %d has no name", pos, i))
			continue
		}

		d := &decl.Declaration{
			Name:        spec.Name,
			Pos:         pos,
			Annotations: consts.annotations(spec.Annotations),
		}

		for _, m := range spec.Methods {
			mpos := position(filename, m.line, m.column)
			if m.Name == "" {
				errs = append(errs, fmt.Errorf("%s: method of %s has no name", mpos, spec.Name))
				continue
			}
			returns := m.Returns.Ref
			if returns == nil {
				returns = types.Primitive{Name: "void"}
			}
			d.Methods = append(d.Methods, decl.Method{
				Name:        m.Name,
				Pos:         mpos,
				Annotations: consts.annotations(m.Annotations),
				Returns:     returns,
			})
		}

		for _, p := range spec.Properties {
			ppos := position(filename, p.line, p.column)
			if p.Name == "" || p.Type.Ref == nil {
				errs = append(errs, fmt.Errorf("%s: property of %s needs a name and a type", ppos, spec.Name))
				continue
			}
			d.Properties = append(d.Properties, decl.Property{
				Name: p.Name,
				Pos:  ppos,
				Type: p.Type.Ref,
			})
		}

		model.declarations = append(model.declarations, d)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return model, nil
}

func position(filename string, line, column int) string {
	if line == 0 {
		return filename
	}
	return fmt.Sprintf("%s:%d:%d", filename, line, column)
}

// constants resolves {const: name} arguments
type constants map[string]string

func (c constants) annotations(specs []AnnotationSpec) []decl.Annotation {
	if len(specs) == 0 {
		return nil
	}
	out := make([]decl.Annotation, 0, len(specs))
	for _, spec := range specs {
		a := decl.Annotation{Name: spec.Name}
		for _, arg := range spec.Args {
			if arg.Const != "" {
				a.Args = append(a.Args, constRef{name: arg.Const, table: c})
				continue
			}
			a.Args = append(a.Args, decl.Literal(arg.Literal))
		}
		out = append(out, a)
	}
	return out
}

// constRef is an argument naming a constant. Unknown constants surface when
// the argument is evaluated, so only annotations that matter fail the run.
type constRef struct {
	name  string
	table constants
}

func (r constRef) Expr() string { return r.name }

func (r constRef) StringValue() (string, error) {
	value, ok := r.table[r.name]
	if !ok {
		return "", fmt.Errorf("undefined constant %s", r.name)
	}
	return value, nil
}
