package config

type Format uint8

const (
	// The CommonJS format looks like this:
	//
	//   'use strict'
	//
	//   var path = require('path')
	//
	//   ... bundled code ...
	//
	//   exports.foo = foo
	//
	FormatCommonJS Format = iota

	// The ES module format looks like this:
	//
	//   import * as path from 'path'
	//
	//   ... bundled code ...
	//
	//   export { foo }
	//
	FormatESModule

	// IIFE stands for immediately-invoked function expression. External
	// modules are passed in as globals and exports are returned:
	//
	//   var globalName = (function (exports, path) { 'use strict'
	//
	//     ... bundled code ...
	//
	//     exports.foo = foo
	//
	//     return exports
	//
	//   }({}, path))
	//
	FormatIIFE
)

func (f Format) String() string {
	switch f {
	case FormatCommonJS:
		return "cjs"
	case FormatESModule:
		return "esm"
	case FormatIIFE:
		return "iife"
	}
	return ""
}

type ExportMode uint8

const (
	// Pick "none", "default", or "named" based on the exports of the entry
	ExportAuto ExportMode = iota

	// The output doesn't export anything
	ExportNone

	// The output is the default export of the entry module itself
	ExportDefault

	// The output is an object with one property per export
	ExportNamed
)

func (mode ExportMode) String() string {
	switch mode {
	case ExportAuto:
		return "auto"
	case ExportNone:
		return "none"
	case ExportDefault:
		return "default"
	case ExportNamed:
		return "named"
	}
	return ""
}

var DefaultResolveExtensions = []string{".js"}

type Options struct {
	// Both of these are relative to the current working directory
	EntryPath     string
	AbsOutputFile string

	// If true, make sure to generate a single file that can be written to stdout
	WriteToStdout bool

	OutputFormat Format
	ExportMode   ExportMode

	// The name of the variable that holds the exports for the "iife" format
	GlobalName string

	// Tried in order for imports without an extension
	ResolveExtensions []string
}
