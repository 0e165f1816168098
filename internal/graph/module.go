package graph

import (
	"fmt"

	"github.com/minroll/minroll/internal/analyzer"
	"github.com/minroll/minroll/internal/js_ast"
	"github.com/minroll/minroll/internal/js_lexer"
	"github.com/minroll/minroll/internal/logger"
	"github.com/minroll/minroll/internal/magic"
)

type Module struct {
	Source logger.Source
	AST    *js_ast.AST
	Scopes *analyzer.Result
	Code   *magic.String
	Stmts  []*Statement

	imports     map[string]*Import
	exports     map[string]*Export
	exportNames []string

	// Maps each top-level name to the statement that declares it, and to the
	// statements that mutate it
	definitions   map[string]*Statement
	modifications map[string][]*Statement

	canonicalNames map[string]string
	renames        map[string]string
	suggestedNames map[string]string
	defined        map[string]bool
	resolving      map[string]bool
	reportedCycles map[string]bool

	log    logger.Log
	loader Loader
}

// NewModule collects the imports and exports of a parsed module and analyzes
// each of its top-level statements. It returns false if the module uses an
// export form that can't be bundled.
func NewModule(log logger.Log, source logger.Source, tree *js_ast.AST, loader Loader) (*Module, bool) {
	m := &Module{
		Source:         source,
		AST:            tree,
		Code:           magic.New(source.Contents),
		imports:        make(map[string]*Import),
		exports:        make(map[string]*Export),
		definitions:    make(map[string]*Statement),
		modifications:  make(map[string][]*Statement),
		canonicalNames: make(map[string]string),
		renames:        make(map[string]string),
		suggestedNames: make(map[string]string),
		defined:        make(map[string]bool),
		resolving:      make(map[string]bool),
		reportedCycles: make(map[string]bool),
		log:            log,
		loader:         loader,
	}

	for _, r := range tree.TemplateRanges {
		m.Code.KeepVerbatim(r.Loc.Start, r.End())
	}

	ok := true
	for i := range tree.Stmts {
		if !m.collectImportsAndExports(i) {
			ok = false
		}
	}

	m.Scopes = analyzer.Analyze(tree, source.Contents)
	m.Stmts = make([]*Statement, len(tree.Stmts))
	for i := range tree.Stmts {
		r := tree.Ranges[i]
		stmt := &Statement{
			Module: m,
			Stmt:   &tree.Stmts[i],
			Info:   &m.Scopes.Stmts[i],
			Range:  r,
			Index:  i,
			Source: m.Code.Snip(r.Loc.Start, r.End()),
		}
		m.Stmts[i] = stmt

		// A re-export depends on the names it re-exports, which are bound to
		// imports under their exported names
		if s, ok := stmt.Stmt.Data.(*js_ast.SExportFrom); ok {
			for _, item := range s.Items {
				stmt.Info.DependsOn.Add(item.Alias)
			}
		}

		for _, name := range stmt.Info.Defines.Names() {
			m.definitions[name] = stmt
		}
		for _, name := range stmt.Info.Modifies.Names() {
			m.modifications[name] = append(m.modifications[name], stmt)
		}
	}
	return m, ok
}

func (m *Module) addExport(name string, export *Export) {
	if _, ok := m.exports[name]; !ok {
		m.exportNames = append(m.exportNames, name)
	}
	m.exports[name] = export
}

func (m *Module) collectImportsAndExports(index int) bool {
	stmt := &m.AST.Stmts[index]

	switch s := stmt.Data.(type) {
	case *js_ast.SImport:
		if s.DefaultName != nil {
			m.imports[s.DefaultName.Name] = &Import{
				Source:    s.Path,
				Name:      "default",
				LocalName: s.DefaultName.Name,
				Loc:       s.DefaultName.Loc,
			}
		}
		if s.StarName != nil {
			m.imports[s.StarName.Name] = &Import{
				Source:    s.Path,
				Name:      "*",
				LocalName: s.StarName.Name,
				Loc:       s.StarName.Loc,
			}
		}
		if s.Items != nil {
			for _, item := range *s.Items {
				m.imports[item.Name.Name] = &Import{
					Source:    s.Path,
					Name:      item.Alias,
					LocalName: item.Name.Name,
					Loc:       item.AliasLoc,
				}
			}
		}

	case *js_ast.SExportDefault:
		export := &Export{LocalName: "default", StmtIndex: index}
		switch v := s.Value.Data.(type) {
		case *js_ast.SFunction:
			if v.Fn.Name != nil {
				export.LocalName = v.Fn.Name.Name
				export.IsDeclaration = true
			}
		case *js_ast.SClass:
			if v.Class.Name != nil {
				export.LocalName = v.Class.Name.Name
				export.IsDeclaration = true
			}
		case *js_ast.SExpr:
			if id, ok := v.Value.Data.(*js_ast.EIdentifier); ok {
				export.AliasOf = id.Name
			}
		}
		m.addExport("default", export)

	case *js_ast.SExportClause:
		for _, item := range s.Items {
			m.addExport(item.Alias, &Export{LocalName: item.Name.Name, StmtIndex: index})
		}

	case *js_ast.SExportFrom:
		// The re-exported names aren't bound in this module, so the exported name
		// doubles as the name of the import binding
		for _, item := range s.Items {
			m.addExport(item.Alias, &Export{LocalName: item.Alias, StmtIndex: index})
			m.imports[item.Alias] = &Import{
				Source:    s.Path,
				Name:      item.Name.Name,
				LocalName: item.Alias,
				Loc:       item.Name.Loc,
			}
		}

	case *js_ast.SExportStar:
		form := "export * from"
		if s.Alias != nil {
			form = "export * as"
		}
		m.log.AddRangeError(&m.Source, logger.Range{Loc: m.AST.Ranges[index].Loc, Len: 6},
			fmt.Sprintf("Unhandled export form %q", form))
		return false

	case *js_ast.SLocal:
		if s.IsExport {
			for _, decl := range s.Decls {
				for _, name := range js_ast.BindingNames(decl.Binding) {
					m.addExport(name.Name, &Export{LocalName: name.Name, StmtIndex: index})
				}
			}
		}

	case *js_ast.SFunction:
		if s.IsExport && s.Fn.Name != nil {
			m.addExport(s.Fn.Name.Name, &Export{LocalName: s.Fn.Name.Name, StmtIndex: index})
		}

	case *js_ast.SClass:
		if s.IsExport && s.Class.Name != nil {
			m.addExport(s.Class.Name.Name, &Export{LocalName: s.Class.Name.Name, StmtIndex: index})
		}
	}
	return true
}

// ExportNames returns the names this module exports in source order
func (m *Module) ExportNames() []string {
	return m.exportNames
}

func (m *Module) Export(name string) (*Export, bool) {
	export, ok := m.exports[name]
	return export, ok
}

func (m *Module) Import(localName string) (*Import, bool) {
	imp, ok := m.imports[localName]
	return imp, ok
}

// IsUnbound reports whether "name" is neither declared at the top level nor
// imported, so a reference to it reads a global.
func (m *Module) IsUnbound(name string) bool {
	if _, ok := m.imports[name]; ok || name == "default" {
		return false
	}
	return m.Scopes.FindDefiningScope(analyzer.RootScope, name) == analyzer.NoScope
}

// NestedNames returns every name bound by a function or block scope of this
// module, in scope order.
func (m *Module) NestedNames() []string {
	var names []string
	for _, scope := range m.Scopes.Scopes[1:] {
		names = append(names, scope.Names.Names()...)
	}
	return names
}

// ExpandAllStatements returns the statements of this module that must be
// included, along with everything they depend on, in output order. Import
// statements never produce output. A list of exported names only pulls in
// anything when this is the entry module. Function declarations that aren't
// exported have no effect until they are called, so they are only included
// once something depends on them.
func (m *Module) ExpandAllStatements(isEntryModule bool) (result []*Statement) {
	for _, stmt := range m.Stmts {
		if stmt.Included {
			continue
		}
		switch s := stmt.Stmt.Data.(type) {
		case *js_ast.SImport, *js_ast.SDirective:
			continue

		case *js_ast.SExportClause, *js_ast.SExportFrom:
			if !isEntryModule {
				continue
			}

		case *js_ast.SFunction:
			if !s.IsExport {
				continue
			}
		}
		result = append(result, m.expandStatement(stmt)...)
	}
	return
}

// ExpandEveryStatement is used for "import * as" where any export, or
// anything an export refers to, may be reached through the namespace object.
// Every statement is included except imports.
func (m *Module) ExpandEveryStatement() (result []*Statement) {
	for _, stmt := range m.Stmts {
		switch stmt.Stmt.Data.(type) {
		case *js_ast.SImport, *js_ast.SDirective:
			continue
		}
		result = append(result, m.expandStatement(stmt)...)
	}
	return
}

// Statements that mutate a name this statement defines come after it
func (m *Module) expandStatement(stmt *Statement) (result []*Statement) {
	if stmt.Included {
		return nil
	}
	stmt.Included = true

	for _, name := range stmt.Info.DependsOn.Names() {
		result = append(result, m.define(name)...)
	}
	result = append(result, stmt)

	for _, name := range stmt.Info.Defines.Names() {
		for _, modifier := range m.modifications[name] {
			result = append(result, m.expandStatement(modifier)...)
		}
	}
	return
}

func (m *Module) define(name string) []*Statement {
	// Each name only needs to be defined once. This also stops loops of
	// re-exports, which are reported when their canonical names are resolved.
	if m.defined[name] {
		return nil
	}
	m.defined[name] = true

	if imp, ok := m.imports[name]; ok {
		return m.defineImport(imp)
	}

	if name == "default" {
		export, ok := m.exports["default"]
		if !ok {
			return nil
		}
		if export.IsDeclaration {
			return m.define(export.LocalName)
		}
		return m.expandStatement(m.Stmts[export.StmtIndex])
	}

	if stmt, ok := m.definitions[name]; ok {
		return m.expandStatement(stmt)
	}
	return nil
}

func (m *Module) defineImport(imp *Import) []*Statement {
	dep := m.loader.FetchModule(imp.Source, m)
	if dep == nil {
		return nil
	}
	imp.Module = dep

	suggestion := imp.LocalName
	if name, ok := m.suggestedNames[imp.LocalName]; ok {
		suggestion = name
	}
	switch imp.Name {
	case "default":
		if suggestion != "default" {
			dep.SuggestName("default", suggestion)
		}
	case "*":
		dep.SuggestName("*", suggestion)
		dep.SuggestName("default", suggestion+"__default")
	}

	switch dep := dep.(type) {
	case *ExternalModule:
		if imp.Name == "default" {
			dep.NeedsDefault = true
		} else {
			dep.NeedsNamed = true
		}
		return nil

	case *Module:
		if imp.Name == "*" {
			// Any export could be reached through the namespace object, including
			// those that are only re-exported
			m.loader.RegisterNamespace(dep)
			return dep.ExpandEveryStatement()
		}

		export, ok := dep.exports[imp.Name]
		if !ok {
			r := js_lexer.RangeOfIdentifier(m.Source, imp.Loc)
			m.log.AddRangeError(&m.Source, r, fmt.Sprintf("No matching export in %q for import %q (imported by %q)",
				dep.Source.PrettyPath, imp.Name, m.Source.PrettyPath))
			return nil
		}
		return dep.define(export.LocalName)
	}
	return nil
}

func (m *Module) reportCycle(name string) {
	if m.reportedCycles[name] {
		return
	}
	m.reportedCycles[name] = true
	m.log.AddError(&m.Source, logger.Loc{}, fmt.Sprintf("Detected a circular re-export of %q in %q", name, m.Source.PrettyPath))
}

// SuggestName records the name an importer would like to use for one of this
// module's exports. The first suggestion wins.
func (m *Module) SuggestName(exportName string, suggestion string) {
	if _, ok := m.suggestedNames[exportName]; !ok {
		m.suggestedNames[exportName] = suggestion
	}
}

// CanonicalName returns the name that "localName" has in the output. Imports
// resolve to the canonical name of whatever they import.
func (m *Module) CanonicalName(localName string) string {
	if name, ok := m.renames[localName]; ok {
		return name
	}
	if name, ok := m.canonicalNames[localName]; ok {
		return name
	}
	if m.resolving[localName] {
		m.reportCycle(localName)
		return localName
	}
	m.resolving[localName] = true
	name := m.resolveCanonicalName(localName)
	delete(m.resolving, localName)
	m.canonicalNames[localName] = name
	return name
}

func (m *Module) resolveCanonicalName(localName string) string {
	if suggestion, ok := m.suggestedNames[localName]; ok {
		return suggestion
	}

	if imp, ok := m.imports[localName]; ok {
		switch dep := imp.Module.(type) {
		case *ExternalModule:
			return dep.CanonicalName(imp.Name)
		case *Module:
			if imp.Name == "*" {
				return dep.CanonicalName("*")
			}
			if export, ok := dep.exports[imp.Name]; ok {
				return dep.CanonicalName(export.LocalName)
			}
		}
		return localName
	}

	switch localName {
	case "default":
		// "export default foo" is just another name for "foo"
		if export, ok := m.exports["default"]; ok && export.AliasOf != "" {
			return m.CanonicalName(export.AliasOf)
		}
		return m.Source.IdentifierName + "_default"

	case "*":
		return m.Source.IdentifierName
	}
	return localName
}

// Rename overrides the canonical name of a top-level name
func (m *Module) Rename(name string, replacement string) {
	m.renames[name] = replacement
}

// ResetCanonicalNames forgets every canonical name that was derived from
// another module, keeping explicit renames. This must be called after names
// of external modules change.
func (m *Module) ResetCanonicalNames() {
	m.canonicalNames = make(map[string]string)
}

// DefaultIsAlias returns true for "export default foo" when "foo" already has
// the canonical name of the default export, in which case the statement
// doesn't need to produce any code.
func (m *Module) DefaultIsAlias() bool {
	export, ok := m.exports["default"]
	return ok && export.AliasOf != "" && m.CanonicalName("default") == m.CanonicalName(export.AliasOf)
}
