package finalisers

// A finaliser wraps the bundled statements in whatever a module format needs
// around them: declarations of external dependencies before the code and the
// exports of the entry module after it. Finalisers don't look at the module
// graph. Everything they need is passed in.

import (
	"fmt"
	"strings"

	"github.com/minroll/minroll/internal/config"
	"github.com/minroll/minroll/internal/magic"
)

type External struct {
	// The import specifier exactly as written
	ID string

	// The variable holding the module in the output
	Name string

	// The variable holding the unwrapped default export. Only used when both
	// NeedsDefault and NeedsNamed are set.
	DefaultName string

	NeedsDefault bool
	NeedsNamed   bool
}

type Export struct {
	Name      string
	Canonical string
}

type Input struct {
	Externals []External

	// The exports of the entry module in source order
	Exports []Export

	// The canonical name of the entry module's default export, if any
	DefaultName string

	// Only used by the "iife" format
	GlobalName string

	// Never "ExportAuto" here
	ExportMode config.ExportMode
}

type Finaliser func(body *magic.Bundle, input Input) *magic.Bundle

func ForFormat(format config.Format) Finaliser {
	switch format {
	case config.FormatESModule:
		return ESM
	case config.FormatIIFE:
		return IIFE
	}
	return CJS
}

// Modules that are imported for their default export may or may not have been
// transpiled from ES modules. A "default" property is only there if they were.
func defaultUnwrapping(external External) string {
	target := external.Name + " = "
	if external.NeedsNamed {
		target = "var " + external.DefaultName + " = "
	}
	return fmt.Sprintf("%s'default' in %s ? %s['default'] : %s", target, external.Name, external.Name, external.Name)
}

// The "exports.foo = foo" assignments shared by "cjs" and "iife"
func exportAssignments(input Input) string {
	lines := make([]string, 0, len(input.Exports))
	for _, export := range input.Exports {
		lines = append(lines, fmt.Sprintf("exports.%s = %s", export.Name, export.Canonical))
	}
	return strings.Join(lines, "\n")
}
