package types

import "fmt"

// HTTP verbs understood by the extractor. Only GET endpoints are emitted.
const (
	MethodGet = "GET"
)

// TypeRef is a reference to a declared type, as classified by a declaration
// front-end. It is one of Primitive, Named, Collection or Nullable.
type TypeRef interface {
	// Source returns the type as spelled in the source declaration.
	Source() string
	isTypeRef()
}

// Primitive is a built-in type such as int or string
type Primitive struct {
	Name string
}

// Named is a reference to a declared type by name
type Named struct {
	Name string
}

// Collection is a one-level collection of Elem
type Collection struct {
	Elem TypeRef
	Raw  string // original spelling, e.g. "List<WeatherForecast>"
}

// Nullable wraps a type that may be absent
type Nullable struct {
	Elem TypeRef
	Raw  string
}

func (p Primitive) Source() string { return p.Name }
func (n Named) Source() string     { return n.Name }

func (c Collection) Source() string {
	if c.Raw != "" {
		return c.Raw
	}
	return c.Elem.Source() + "[]"
}

func (n Nullable) Source() string {
	if n.Raw != "" {
		return n.Raw
	}
	return n.Elem.Source() + "?"
}

func (Primitive) isTypeRef()  {}
func (Named) isTypeRef()      {}
func (Collection) isTypeRef() {}
func (Nullable) isTypeRef()   {}

// UnhandledRef panics for a TypeRef variant a switch does not cover. Every
// switch over TypeRef must end in a default case calling it.
func UnhandledRef(ref TypeRef) {
	panic(fmt.Sprintf("typegen: unhandled type reference %T", ref))
}

// EndpointDescriptor represents one GET operation discovered on a controller
type EndpointDescriptor struct {
	ControllerName     string  `json:"controller"`
	ControllerRoute    string  `json:"controllerRoute"`
	MethodName         string  `json:"methodName"`
	MethodRoutePart    string  `json:"methodRoute"`
	HTTPVerb           string  `json:"method"`
	DeclaredReturnType TypeRef `json:"-"`

	// ClientType is the rendered client-side return type. It is empty until
	// the type resolver has run.
	ClientType string `json:"responseType"`
}

// URL joins the controller route and the method route fragment
func (e EndpointDescriptor) URL() string {
	if e.MethodRoutePart == "" {
		return e.ControllerRoute
	}
	return e.ControllerRoute + "/" + e.MethodRoutePart
}

// FunctionName returns the client function name for the endpoint
func (e EndpointDescriptor) FunctionName(prefix string) string {
	return prefix + e.ControllerName + e.MethodName
}

// TypeDefinition represents a response shape flattened one level deep
type TypeDefinition struct {
	Name       string         `json:"name"`
	Properties []PropertyInfo `json:"properties"`
}

// PropertyInfo represents a property of a TypeDefinition
type PropertyInfo struct {
	Name           string `json:"name"`
	SourceTypeName string `json:"type"`
	Nullable       bool   `json:"nullable"`
}

// Warning is a non-fatal issue found while resolving types
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return w.Code + ": " + w.Message
}

// APIAnalysis contains the complete analysis results of one generation run
type APIAnalysis struct {
	Endpoints []EndpointDescriptor
	TypeDefs  []TypeDefinition
	Warnings  []Warning
}
