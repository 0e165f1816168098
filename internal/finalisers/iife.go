package finalisers

import (
	"strings"

	"github.com/minroll/minroll/internal/config"
	"github.com/minroll/minroll/internal/magic"
)

// IIFE wraps the code in a function that receives external modules as
// globals. Exports are returned from the function and stored in a global
// variable.
func IIFE(body *magic.Bundle, input Input) *magic.Bundle {
	var params, args []string
	if input.ExportMode == config.ExportNamed {
		params = append(params, "exports")
		args = append(args, "{}")
	}

	var unwrapping []string
	for _, external := range input.Externals {
		params = append(params, external.Name)
		args = append(args, external.Name)
		if external.NeedsDefault {
			unwrapping = append(unwrapping, defaultUnwrapping(external))
		}
	}
	if len(unwrapping) > 0 {
		body.Prepend(strings.Join(unwrapping, "\n") + "\n\n")
	}

	switch input.ExportMode {
	case config.ExportDefault:
		if input.DefaultName != "" {
			body.Append("\n\nreturn " + input.DefaultName)
		}
	case config.ExportNamed:
		body.Append("\n\n" + exportAssignments(input) + "\n\nreturn exports")
	}

	indent := body.IndentString()
	body.Indent(indent)

	intro := "(function (" + strings.Join(params, ", ") + ") { 'use strict'\n\n"
	if input.ExportMode != config.ExportNone && input.GlobalName != "" {
		intro = "var " + input.GlobalName + " = " + intro
	}
	body.Prepend(intro)
	body.Append("\n\n}(" + strings.Join(args, ", ") + "))")
	return body
}
