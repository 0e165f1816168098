package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/minroll/minroll/internal/js_ast"
	"github.com/minroll/minroll/internal/js_parser"
	"github.com/minroll/minroll/internal/logger"
)

// This cache intends to avoid unnecessarily re-parsing files in subsequent
// builds. For a given path, parsing can be avoided if the contents of the file
// are the same as last time. Any messages produced while parsing are replayed
// into the log on a cache hit.

type JSCache struct {
	entries *lru.Cache[string, *jsCacheEntry]
}

type jsCacheEntry struct {
	source logger.Source
	ast    js_ast.AST
	ok     bool
	msgs   []logger.Msg
}

func (c *JSCache) Parse(log logger.Log, source logger.Source) (js_ast.AST, bool) {
	// Cache hit
	if entry, ok := c.entries.Get(source.KeyPath); ok && entry.source == source {
		for _, msg := range entry.msgs {
			log.AddMsg(msg)
		}
		return entry.ast, entry.ok
	}

	// Cache miss
	tempLog := logger.NewDeferLog()
	ast, ok := js_parser.Parse(tempLog, source)
	msgs := tempLog.Done()
	for _, msg := range msgs {
		log.AddMsg(msg)
	}

	// Save for next time
	c.entries.Add(source.KeyPath, &jsCacheEntry{
		source: source,
		ast:    ast,
		ok:     ok,
		msgs:   msgs,
	})
	return ast, ok
}

func (c *JSCache) Len() int {
	return c.entries.Len()
}
