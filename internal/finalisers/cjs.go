package finalisers

import (
	"strings"

	"github.com/minroll/minroll/internal/config"
	"github.com/minroll/minroll/internal/helpers"
	"github.com/minroll/minroll/internal/magic"
)

// CJS requires each external module and assigns to "module.exports" or to
// properties of "exports"
func CJS(body *magic.Bundle, input Input) *magic.Bundle {
	intro := "'use strict'\n\n"

	var requires []string
	for _, external := range input.Externals {
		statement := "var " + external.Name + " = require(" + helpers.QuoteSingle(external.ID) + ")"
		if external.NeedsDefault {
			statement += "\n" + defaultUnwrapping(external)
		}
		requires = append(requires, statement)
	}
	if len(requires) > 0 {
		intro += strings.Join(requires, "\n") + "\n\n"
	}
	body.Prepend(intro)

	var exportBlock string
	switch input.ExportMode {
	case config.ExportDefault:
		if input.DefaultName != "" {
			exportBlock = "module.exports = " + input.DefaultName
		}
	case config.ExportNamed:
		exportBlock = exportAssignments(input)
	}
	if exportBlock != "" {
		body.Append("\n\n" + exportBlock)
	}
	return body
}
