package graph

import (
	"github.com/minroll/minroll/internal/js_lexer"
)

// An ExternalModule is an import that isn't bundled. None of its code is
// inspected. The output only declares the dependency and refers to members
// of it.
type ExternalModule struct {
	// The import specifier exactly as written
	ID string

	// The name of the variable holding the module in the output. This is
	// assigned when names are deconflicted.
	Name string

	// The variable holding the unwrapped default export when named exports
	// are used as well. Defaults to Name with a "__default" suffix.
	DefaultName string

	NeedsDefault bool
	NeedsNamed   bool

	suggestedNames map[string]string
}

func NewExternalModule(id string) *ExternalModule {
	return &ExternalModule{ID: id, suggestedNames: make(map[string]string)}
}

func (m *ExternalModule) SuggestName(exportName string, suggestion string) {
	if _, ok := m.suggestedNames[exportName]; !ok {
		m.suggestedNames[exportName] = suggestion
	}
}

// DisplayName is the name this module would like to have: the name of a
// namespace import, then the name of a default import, then a name derived
// from the import specifier.
func (m *ExternalModule) DisplayName() string {
	if name, ok := m.suggestedNames["*"]; ok {
		return name
	}
	if name, ok := m.suggestedNames["default"]; ok {
		return name
	}
	return js_lexer.ForceValidIdentifier(m.ID)
}

// When both the default export and named exports are used, the default export
// is unwrapped into its own variable.
func (m *ExternalModule) CanonicalName(name string) string {
	switch name {
	case "*":
		return m.Name
	case "default":
		if m.NeedsNamed {
			return m.UnwrappedDefaultName()
		}
		return m.Name
	}
	return m.Name + "." + name
}

func (m *ExternalModule) UnwrappedDefaultName() string {
	if m.DefaultName != "" {
		return m.DefaultName
	}
	return m.Name + "__default"
}
