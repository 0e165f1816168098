package bundler

import (
	"fmt"
	"strings"

	"github.com/minroll/minroll/internal/cache"
	"github.com/minroll/minroll/internal/config"
	"github.com/minroll/minroll/internal/finalisers"
	"github.com/minroll/minroll/internal/fs"
	"github.com/minroll/minroll/internal/graph"
	"github.com/minroll/minroll/internal/js_ast"
	"github.com/minroll/minroll/internal/js_lexer"
	"github.com/minroll/minroll/internal/logger"
	"github.com/minroll/minroll/internal/magic"
	"github.com/minroll/minroll/internal/renamer"
)

// A Bundle holds everything for a single build. A rebuild always starts over
// with a new Bundle. Only the file and parse caches are shared between builds.
type Bundle struct {
	log     logger.Log
	fs      fs.FS
	caches  *cache.CacheSet
	options config.Options

	entryModule *graph.Module

	// Local modules are keyed by absolute path and external modules by their
	// import specifier
	modules map[string]graph.Dependency

	// Every local module in the order it was loaded
	localModules []*graph.Module

	// Files that were found but couldn't be read, parsed or analyzed. Their
	// errors have been logged once and aren't repeated for other importers.
	failedPaths []string
	failed      map[string]bool

	// The statements to generate, in order
	statements []*graph.Statement

	externalModules  []*graph.ExternalModule
	namespaceModules []*graph.Module

	nextSourceIndex uint32
}

func NewBundle(log logger.Log, fs fs.FS, caches *cache.CacheSet, options config.Options) *Bundle {
	if len(options.ResolveExtensions) == 0 {
		options.ResolveExtensions = config.DefaultResolveExtensions
	}
	return &Bundle{
		log:     log,
		fs:      fs,
		caches:  caches,
		options: options,
		modules: make(map[string]graph.Dependency),
		failed:  make(map[string]bool),
	}
}

// Build loads the entry module, includes every statement that's needed, and
// gives every top-level name in the output a unique name. It returns false if
// any errors were logged.
func (b *Bundle) Build() bool {
	absPath, ok := b.fs.Abs(b.options.EntryPath)
	if !ok {
		b.log.AddError(nil, logger.Loc{}, fmt.Sprintf("Could not resolve %q", b.options.EntryPath))
		return false
	}

	entry, ok := b.FetchModule(absPath, nil).(*graph.Module)
	if !ok || b.log.HasErrors() {
		return false
	}
	b.entryModule = entry
	b.statements = entry.ExpandAllStatements(true)
	if b.log.HasErrors() {
		return false
	}

	b.deconflict()

	// Resolving every reference now reports circular re-exports before any
	// code is generated
	for _, stmt := range b.statements {
		for _, name := range stmt.Info.DependsOn.Names() {
			stmt.Module.CanonicalName(name)
		}
	}
	return !b.log.HasErrors()
}

// Files returns the absolute paths of every local module that was loaded,
// followed by the files that failed to load
func (b *Bundle) Files() []string {
	paths := make([]string, 0, len(b.localModules)+len(b.failedPaths))
	for _, module := range b.localModules {
		paths = append(paths, module.Source.KeyPath)
	}
	return append(paths, b.failedPaths...)
}

// FetchModule returns the module for "importee" as imported by "importer",
// loading it if it hasn't been loaded yet. Only absolute paths and paths
// starting with "." refer to local modules. Anything else is external.
func (b *Bundle) FetchModule(importee string, importer *graph.Module) graph.Dependency {
	var path string
	if importer == nil || b.fs.IsAbs(importee) {
		path = importee
	} else if strings.HasPrefix(importee, ".") {
		path = b.fs.Join(b.fs.Dir(importer.Source.KeyPath), importee)
	}

	if path == "" {
		if dep, ok := b.modules[importee]; ok {
			return dep
		}
		external := graph.NewExternalModule(importee)
		b.modules[importee] = external
		b.externalModules = append(b.externalModules, external)
		return external
	}

	candidates := b.candidatePaths(path)
	for _, candidate := range candidates {
		if dep, ok := b.modules[candidate]; ok {
			return dep
		}
		if b.failed[candidate] {
			return nil
		}
	}

	for _, candidate := range candidates {
		contents, err := b.caches.FSCache.ReadFile(b.fs, candidate)
		if err == fs.ErrNotExist {
			continue
		}
		if err != nil {
			b.logReadError(importer, importee, candidate)
			b.markFailed(candidate)
			return nil
		}
		if module := b.parseModule(candidate, contents); module != nil {
			return module
		}
		b.markFailed(candidate)
		return nil
	}

	b.logReadError(importer, importee, candidates[0])
	return nil
}

func (b *Bundle) markFailed(path string) {
	b.failed[path] = true
	b.failedPaths = append(b.failedPaths, path)
}

// An import without one of the resolvable extensions gets each of them
// appended in turn
func (b *Bundle) candidatePaths(path string) []string {
	ext := b.fs.Ext(path)
	for _, resolvable := range b.options.ResolveExtensions {
		if ext == resolvable {
			return []string{path}
		}
	}
	candidates := make([]string, len(b.options.ResolveExtensions))
	for i, resolvable := range b.options.ResolveExtensions {
		candidates[i] = path + resolvable
	}
	return candidates
}

func (b *Bundle) logReadError(importer *graph.Module, importee string, path string) {
	text := fs.ReadError(path)
	if importer == nil {
		b.log.AddError(nil, logger.Loc{}, text)
		return
	}
	b.log.AddRangeError(&importer.Source, importPathRange(importer, importee), text)
}

// Finds where the import path was written for error messages
func importPathRange(importer *graph.Module, importee string) logger.Range {
	for _, stmt := range importer.AST.Stmts {
		switch s := stmt.Data.(type) {
		case *js_ast.SImport:
			if s.Path == importee {
				return s.PathRange
			}
		case *js_ast.SExportFrom:
			if s.Path == importee {
				return s.PathRange
			}
		}
	}
	return logger.Range{}
}

func (b *Bundle) parseModule(absPath string, contents string) *graph.Module {
	base := b.fs.Base(absPath)
	source := logger.Source{
		Index:          b.nextSourceIndex,
		KeyPath:        absPath,
		PrettyPath:     fs.PrettyPath(b.fs, absPath),
		IdentifierName: js_lexer.ForceValidIdentifier(strings.TrimSuffix(base, b.fs.Ext(base))),
		Contents:       contents,
	}
	b.nextSourceIndex++

	tree, ok := b.caches.JSCache.Parse(b.log, source)
	if !ok {
		return nil
	}

	module, ok := graph.NewModule(b.log, source, &tree, b)
	if !ok {
		return nil
	}
	b.modules[absPath] = module
	b.localModules = append(b.localModules, module)
	return module
}

func (b *Bundle) RegisterNamespace(module *graph.Module) {
	for _, existing := range b.namespaceModules {
		if existing == module {
			return
		}
	}
	b.namespaceModules = append(b.namespaceModules, module)
}

type definer struct {
	dep  graph.Dependency
	name string
}

// Claims are made in the order statements are included, then by namespace
// objects, then by external modules. When several definitions claim the same
// name, the last one keeps it and the others are prefixed with "_". A name
// that some included code reads as a global is given up by every definition.
func (b *Bundle) deconflict() {
	claims := renamer.NameClaims[definer]{}
	b.reserveNames(&claims)

	for _, external := range b.externalModules {
		external.Name = external.DisplayName()
		external.DefaultName = ""
	}

	for _, stmt := range b.statements {
		module := stmt.Module
		for _, name := range stmt.Info.Defines.Names() {
			if name == "default" && module.DefaultIsAlias() {
				continue
			}
			claims.Claim(module.CanonicalName(name), definer{dep: module, name: name})
		}
	}
	for _, module := range b.namespaceModules {
		claims.Claim(module.CanonicalName("*"), definer{dep: module, name: "*"})
	}
	for _, external := range b.externalModules {
		claims.Claim(external.Name, definer{dep: external, name: "*"})

		// The unwrapped default export gets a variable of its own
		if external.NeedsDefault && external.NeedsNamed {
			external.DefaultName = external.Name + "__default"
			claims.Claim(external.DefaultName, definer{dep: external, name: "default"})
		}
	}

	names, owners := claims.Conflicts()
	for i, name := range names {
		list := owners[i]
		renamed := list[:len(list)-1]
		if claims.IsUnbound(name) {
			renamed = list
		}
		for _, owner := range renamed {
			replacement := claims.SafeName(name, owner)
			switch dep := owner.dep.(type) {
			case *graph.Module:
				dep.Rename(owner.name, replacement)
			case *graph.ExternalModule:
				if owner.name == "default" {
					dep.DefaultName = replacement
				} else {
					dep.Name = replacement
				}
			}
		}
	}

	// Canonical names resolved above may have gone through an external module
	// that was renamed since
	for _, module := range b.localModules {
		module.ResetCanonicalNames()
	}
}

// Names bound in nested scopes of any module are off limits for renamed
// definitions, and so are globals read by included statements
func (b *Bundle) reserveNames(claims *renamer.NameClaims[definer]) {
	for _, module := range b.localModules {
		for _, name := range module.NestedNames() {
			claims.Reserve(name)
		}
	}
	for _, stmt := range b.statements {
		for _, name := range stmt.Info.DependsOn.Names() {
			if stmt.Module.IsUnbound(name) {
				claims.ReserveUnbound(name)
			}
		}
	}
}

// Generate renames and concatenates the included statements and wraps them
// for the output format.
func (b *Bundle) Generate() (string, bool) {
	mode, ok := b.exportMode()
	if !ok {
		return "", false
	}

	body := &magic.Bundle{}
	previousMargin := 0

	for _, stmt := range b.statements {
		module := stmt.Module

		replacements := make(map[string]string)
		for _, names := range [][]string{stmt.Info.DependsOn.Names(), stmt.Info.Defines.Names()} {
			for _, name := range names {
				if canonical := module.CanonicalName(name); canonical != name {
					replacements[name] = canonical
				}
			}
		}

		source := stmt.Source.Clone()
		source.Trim()
		if !stripExport(stmt, source) {
			continue
		}
		renamer.ReplaceIdentifiers(stmt.Stmt, module.Scopes, &module.Source, source, replacements)

		// Keep the blank lines from the original code, but always start each
		// statement on its own line
		margin := stmt.Margin()
		separator := strings.Repeat("\n", max(margin[0], previousMargin, 2)-1)
		body.AddSource(source, separator)
		previousMargin = margin[1]
	}

	if len(b.namespaceModules) > 0 {
		body.Prepend(b.namespaceBlock(body.IndentString()))
	}
	body.Trim()

	if b.log.HasErrors() {
		return "", false
	}

	finalise := finalisers.ForFormat(b.options.OutputFormat)
	return finalise(body, b.finaliserInput(mode)).String() + "\n", true
}

// Returns false if the statement produces no code at all
func stripExport(stmt *graph.Statement, source *magic.String) bool {
	start := stmt.Range.Loc.Start

	switch s := stmt.Stmt.Data.(type) {
	case *js_ast.SExportClause, *js_ast.SExportFrom:
		// These only make names visible, which canonical names take care of
		return false

	case *js_ast.SLocal:
		if s.IsExport {
			source.Remove(start, stmt.Stmt.Loc.Start)
		}

	case *js_ast.SFunction:
		if s.IsExport {
			source.Remove(start, stmt.Stmt.Loc.Start)
		}

	case *js_ast.SClass:
		if s.IsExport {
			source.Remove(start, stmt.Stmt.Loc.Start)
		}

	case *js_ast.SExportDefault:
		module := stmt.Module
		if export, ok := module.Export("default"); ok && export.IsDeclaration {
			source.Remove(start, s.Value.Loc.Start)
			break
		}
		if module.DefaultIsAlias() {
			return false
		}
		source.Overwrite(start, s.Value.Loc.Start, "var "+module.CanonicalName("default")+" = ")
	}
	return true
}

func (b *Bundle) namespaceBlock(indent string) string {
	sb := strings.Builder{}
	for _, module := range b.namespaceModules {
		var getters []string
		for _, name := range module.ExportNames() {
			export, _ := module.Export(name)
			getters = append(getters, fmt.Sprintf("%sget %s() { return %s }", indent, name, module.CanonicalName(export.LocalName)))
		}
		if len(getters) == 0 {
			fmt.Fprintf(&sb, "var %s = {}\n\n", module.CanonicalName("*"))
			continue
		}
		fmt.Fprintf(&sb, "var %s = {\n%s\n}\n\n", module.CanonicalName("*"), strings.Join(getters, ",\n"))
	}
	return sb.String()
}

func (b *Bundle) exportMode() (config.ExportMode, bool) {
	entry := b.entryModule
	names := entry.ExportNames()
	_, hasDefault := entry.Export("default")
	mode := b.options.ExportMode

	switch mode {
	case config.ExportAuto:
		if len(names) == 0 {
			mode = config.ExportNone
		} else if len(names) == 1 && hasDefault {
			mode = config.ExportDefault
		} else {
			mode = config.ExportNamed
		}

	case config.ExportDefault:
		if len(names) > 1 || (len(names) == 1 && !hasDefault) {
			b.log.AddError(nil, logger.Loc{}, "Cannot use export mode \"default\" when the entry module has named exports")
			return mode, false
		}
		if !hasDefault {
			b.log.AddError(nil, logger.Loc{}, "Cannot use export mode \"default\" when the entry module has no default export")
			return mode, false
		}
	}

	if b.options.OutputFormat == config.FormatIIFE && mode != config.ExportNone && b.options.GlobalName == "" {
		b.log.AddError(nil, logger.Loc{}, "A global name is required for the \"iife\" format when the entry module has exports")
		return mode, false
	}
	return mode, true
}

func (b *Bundle) finaliserInput(mode config.ExportMode) finalisers.Input {
	entry := b.entryModule
	input := finalisers.Input{
		ExportMode: mode,
		GlobalName: b.options.GlobalName,
	}

	for _, external := range b.externalModules {
		input.Externals = append(input.Externals, finalisers.External{
			ID:           external.ID,
			Name:         external.Name,
			DefaultName:  external.UnwrappedDefaultName(),
			NeedsDefault: external.NeedsDefault,
			NeedsNamed:   external.NeedsNamed,
		})
	}

	for _, name := range entry.ExportNames() {
		export, _ := entry.Export(name)
		canonical := entry.CanonicalName(export.LocalName)
		input.Exports = append(input.Exports, finalisers.Export{Name: name, Canonical: canonical})
		if name == "default" {
			input.DefaultName = canonical
		}
	}
	return input
}
