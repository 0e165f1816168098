package graph

// This package holds the module graph. A module is created the first time it
// is referenced and lives for the duration of a single build. Expanding the
// entry module pulls in exactly the statements that are needed, following
// imports into other modules as they are encountered.

import (
	"github.com/minroll/minroll/internal/analyzer"
	"github.com/minroll/minroll/internal/js_ast"
	"github.com/minroll/minroll/internal/logger"
	"github.com/minroll/minroll/internal/magic"
)

// Loader is implemented by whatever owns the module cache. Modules call back
// into it when they need one of their imports.
type Loader interface {
	// Returns nil if the module could not be loaded, in which case an error
	// has already been logged
	FetchModule(importee string, importer *Module) Dependency

	// Called when a module is imported with "import * as"
	RegisterNamespace(module *Module)
}

// A Dependency is either a *Module or an *ExternalModule
type Dependency interface {
	SuggestName(exportName string, suggestion string)
	CanonicalName(localName string) string
}

type Import struct {
	// The import specifier exactly as written
	Source string

	// Either "default", "*", or the name of the export
	Name string

	// The name of the binding in the importing module
	LocalName string

	// The location of the imported name, used for error messages
	Loc logger.Loc

	// Filled in when the import is first needed
	Module Dependency
}

type Export struct {
	LocalName string
	StmtIndex int

	// This is "export default function foo() {}" or "export default class Foo {}"
	IsDeclaration bool

	// The name of the identifier for "export default foo"
	AliasOf string
}

// A Statement is one top-level statement of a module along with everything
// the analyzer learned about it.
type Statement struct {
	Module *Module
	Stmt   *js_ast.Stmt
	Info   *analyzer.StmtInfo
	Range  logger.Range
	Index  int

	// A view of this statement within the module's source code
	Source *magic.String

	// Whether this statement is part of the output
	Included bool
}

// Margin returns the number of lines in the gap before and after this
// statement in the original source.
func (s *Statement) Margin() [2]int {
	return s.Info.Margin
}
