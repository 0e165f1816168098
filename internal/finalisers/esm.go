package finalisers

import (
	"strings"

	"github.com/minroll/minroll/internal/config"
	"github.com/minroll/minroll/internal/helpers"
	"github.com/minroll/minroll/internal/js_lexer"
	"github.com/minroll/minroll/internal/magic"
)

// ESM keeps external modules as import statements and writes a single export
// clause
func ESM(body *magic.Bundle, input Input) *magic.Bundle {
	var imports []string
	for _, external := range input.Externals {
		path := helpers.QuoteSingle(external.ID)
		switch {
		case external.NeedsDefault && external.NeedsNamed:
			imports = append(imports, "import "+external.DefaultName+", * as "+external.Name+" from "+path)
		case external.NeedsDefault:
			imports = append(imports, "import "+external.Name+" from "+path)
		case external.NeedsNamed:
			imports = append(imports, "import * as "+external.Name+" from "+path)
		default:
			imports = append(imports, "import "+path)
		}
	}
	if len(imports) > 0 {
		body.Prepend(strings.Join(imports, "\n") + "\n\n")
	}

	var lines []string
	switch input.ExportMode {
	case config.ExportDefault:
		if input.DefaultName != "" {
			lines = append(lines, "export default "+input.DefaultName)
		}

	case config.ExportNamed:
		var clause []string
		for _, export := range input.Exports {
			switch {
			case export.Name == export.Canonical:
				clause = append(clause, export.Name)

			case js_lexer.IsIdentifier(export.Canonical):
				clause = append(clause, export.Canonical+" as "+export.Name)

			default:
				// A member of an external module can't appear in an export clause
				lines = append(lines, "export const "+export.Name+" = "+export.Canonical)
			}
		}
		if len(clause) > 0 {
			lines = append(lines, "export { "+strings.Join(clause, ", ")+" }")
		}
	}
	if len(lines) > 0 {
		body.Append("\n\n" + strings.Join(lines, "\n"))
	}
	return body
}
