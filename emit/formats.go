// Package emit renders compiled species constraints as source text.
//
// Each Target has an Emitter that turns a Unit into one complete file.
// Emitters are pure: the same Unit always yields the same bytes.
package emit

import (
	"fmt"
	"sort"

	"github.com/c360studio/exorules/rules"
)

// Target names an output language.
type Target string

const (
	// TargetGo produces gofmt-formatted Go against the exobio runtime.
	TargetGo Target = "go"

	// TargetJava produces a Java class using the SpeciesRuleBuilder chain.
	TargetJava Target = "java"

	// TargetJSON produces RFC 8785 canonical JSON.
	TargetJSON Target = "json"
)

// TargetInfo provides metadata about a target.
type TargetInfo struct {
	// Name is the target identifier.
	Name Target

	// Extension is the output file extension (with dot).
	Extension string

	// Description describes the target.
	Description string

	factory func() Emitter
}

// TargetRegistry contains every supported target.
var TargetRegistry = map[Target]TargetInfo{
	TargetGo: {
		Name:        TargetGo,
		Extension:   ".go",
		Description: "Go registration function built on the exobio rule builder",
		factory:     func() Emitter { return &GoEmitter{} },
	},
	TargetJava: {
		Name:        TargetJava,
		Extension:   ".java",
		Description: "Java initConstraints method built on SpeciesRuleBuilder",
		factory:     func() Emitter { return &JavaEmitter{} },
	},
	TargetJSON: {
		Name:        TargetJSON,
		Extension:   ".json",
		Description: "Canonical JSON (RFC 8785) of the compiled catalog",
		factory:     func() Emitter { return &JSONEmitter{} },
	},
}

// GetTargetInfo returns metadata for a target.
func GetTargetInfo(target Target) (TargetInfo, bool) {
	info, ok := TargetRegistry[target]
	return info, ok
}

// Targets returns the supported target names, sorted.
func Targets() []string {
	names := make([]string, 0, len(TargetRegistry))
	for t := range TargetRegistry {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return names
}

// Emitter renders a Unit.
type Emitter interface {
	Emit(u *Unit) ([]byte, error)
}

// New returns the emitter for a target.
func New(target Target) (Emitter, error) {
	info, ok := TargetRegistry[target]
	if !ok {
		return nil, fmt.Errorf("unknown target %q (supported: %v)", target, Targets())
	}
	return info.factory(), nil
}

// Unit is one compilation unit: every compiled species plus the naming
// options the targets need.
type Unit struct {
	// Package is the Go package clause of the generated file.
	Package string

	// FuncName is the Go registration function name.
	FuncName string

	// RuntimeImport is the import path of the exobio runtime.
	RuntimeImport string

	// JavaPackage and JavaClass name the generated Java class.
	JavaPackage string
	JavaClass   string

	// Species must already be sorted by key.
	Species []rules.CompiledSpecies
}

// Defaults for Unit naming fields.
const (
	DefaultPackage       = "constraints"
	DefaultFuncName      = "RegisterConstraints"
	DefaultRuntimeImport = "github.com/c360studio/exorules/exobio"
	DefaultJavaPackage   = "org.dce.ed.exobiology"
	DefaultJavaClass     = "ExobiologyDataConstraints"
)

func (u *Unit) withDefaults() Unit {
	out := *u
	if out.Package == "" {
		out.Package = DefaultPackage
	}
	if out.FuncName == "" {
		out.FuncName = DefaultFuncName
	}
	if out.RuntimeImport == "" {
		out.RuntimeImport = DefaultRuntimeImport
	}
	if out.JavaPackage == "" {
		out.JavaPackage = DefaultJavaPackage
	}
	if out.JavaClass == "" {
		out.JavaClass = DefaultJavaClass
	}
	return out
}

// Header is the first line of every generated source file.
const Header = "Code generated by exorules. DO NOT EDIT."
