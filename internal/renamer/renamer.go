package renamer

import (
	"github.com/minroll/minroll/internal/analyzer"
	"github.com/minroll/minroll/internal/js_ast"
	"github.com/minroll/minroll/internal/js_lexer"
	"github.com/minroll/minroll/internal/logger"
	"github.com/minroll/minroll/internal/magic"
)

////////////////////////////////////////////////////////////////////////////////
// Identifier replacement

// ReplaceIdentifiers rewrites every reference to or declaration of a name in
// "names" within one top-level statement. Occurrences inside a scope that
// declares the same name refer to something else and are left alone. Member
// names and property keys are never identifiers in the tree, so they are
// never touched either.
func ReplaceIdentifiers(
	stmt *js_ast.Stmt,
	scopes *analyzer.Result,
	source *logger.Source,
	code *magic.String,
	names map[string]string,
) {
	if len(names) == 0 {
		return
	}

	stack := []map[string]string{names}

	overwrite := func(loc logger.Loc, name string, text string) {
		if text == name {
			return
		}
		r := js_lexer.RangeOfIdentifier(*source, loc)
		code.Overwrite(r.Loc.Start, r.End(), text)
	}

	// Declarations that bind their name in the enclosing scope
	declaration := func(ref *js_ast.LocRef) {
		if ref != nil {
			if replacement, ok := names[ref.Name]; ok {
				overwrite(ref.Loc, ref.Name, replacement)
			}
		}
	}

	js_ast.Walk(stmt, js_ast.Visitor{
		Enter: func(node js_ast.Node, parent js_ast.Node) js_ast.WalkControl {
			if s, ok := node.(*js_ast.Stmt); ok {
				switch s := s.Data.(type) {
				case *js_ast.SFunction:
					declaration(s.Fn.Name)
				case *js_ast.SClass:
					declaration(s.Class.Name)
				}
			}

			if index, ok := scopes.ScopeOf[node]; ok {
				declared := &scopes.Scopes[index].Names
				narrowed := make(map[string]string, len(names))
				for name, replacement := range names {
					if !declared.Has(name) {
						narrowed[name] = replacement
					}
				}

				// Nothing below this node can refer to any of the names
				if len(narrowed) == 0 {
					return js_ast.WalkSkip
				}
				names = narrowed
				stack = append(stack, narrowed)
			}

			switch n := node.(type) {
			case *js_ast.Expr:
				if id, ok := n.Data.(*js_ast.EIdentifier); ok {
					if replacement, ok := names[id.Name]; ok {
						if p, ok := parent.(*js_ast.Property); ok && p.WasShorthand {
							replacement = id.Name + ": " + replacement
						}
						overwrite(n.Loc, id.Name, replacement)
					}
				}

			case *js_ast.Binding:
				if id, ok := n.Data.(*js_ast.BIdentifier); ok {
					if replacement, ok := names[id.Name]; ok {
						if p, ok := parent.(*js_ast.PropertyBinding); ok && p.WasShorthand {
							replacement = id.Name + ": " + replacement
						}
						overwrite(n.Loc, id.Name, replacement)
					}
				}
			}
			return js_ast.WalkContinue
		},

		Leave: func(node js_ast.Node, parent js_ast.Node) {
			if _, ok := scopes.ScopeOf[node]; ok {
				stack = stack[:len(stack)-1]
				names = stack[len(stack)-1]
			}
		},
	})
}

////////////////////////////////////////////////////////////////////////////////
// Conflict resolution

// NameClaims keeps track of the top-level names used by the output. Each
// claim remembers who made it so that distinct definitions sharing a name
// can be detected. Reserved names are never handed out by SafeName.
type NameClaims[T comparable] struct {
	owners   map[string][]T
	order    []string
	reserved map[string]bool
	unbound  map[string]bool
}

// Claim records that "owner" defines "name". Claiming the same name twice
// with the same owner is a no-op.
func (c *NameClaims[T]) Claim(name string, owner T) {
	if c.owners == nil {
		c.owners = make(map[string][]T)
	}
	owners, ok := c.owners[name]
	if !ok {
		c.order = append(c.order, name)
	}
	for _, existing := range owners {
		if existing == owner {
			return
		}
	}
	c.owners[name] = append(owners, owner)
}

// Reserve marks a name bound in a nested scope somewhere in the output. A
// renamed top-level definition can't take it since the nested binding would
// capture references to it.
func (c *NameClaims[T]) Reserve(name string) {
	if c.reserved == nil {
		c.reserved = make(map[string]bool)
	}
	c.reserved[name] = true
}

// ReserveUnbound marks a name that the output reads as a global. Unlike a
// reserved name, every top-level definition claiming it has to be renamed.
func (c *NameClaims[T]) ReserveUnbound(name string) {
	if c.unbound == nil {
		c.unbound = make(map[string]bool)
	}
	c.unbound[name] = true
}

func (c *NameClaims[T]) IsClaimed(name string) bool {
	_, ok := c.owners[name]
	return ok || c.reserved[name] || c.unbound[name]
}

func (c *NameClaims[T]) IsUnbound(name string) bool {
	return c.unbound[name]
}

// Conflicts returns every name claimed by more than one owner, or claimed at
// all when it is also read as a global, along with its owners. Names are in
// the order they were first claimed.
func (c *NameClaims[T]) Conflicts() (names []string, owners [][]T) {
	for _, name := range c.order {
		if list := c.owners[name]; len(list) > 1 || c.unbound[name] {
			names = append(names, name)
			owners = append(owners, list)
		}
	}
	return
}

// SafeName returns "name" prefixed with underscores until it is neither
// claimed nor reserved, and claims the result for "owner".
func (c *NameClaims[T]) SafeName(name string, owner T) string {
	for c.IsClaimed(name) {
		name = "_" + name
	}
	c.Claim(name, owner)
	return name
}
