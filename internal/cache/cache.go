package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// This is a cache of the parsed contents of a set of files. The idea is to be
// able to reuse the results of parsing between builds and make subsequent
// builds faster by avoiding redundant parsing work. This only works if:
//
//   - The AST information in the cache must be considered immutable. There is
//     no way to enforce this in Go, but please be disciplined about this. The
//     ASTs are shared in between builds. Analysis results and renames live
//     outside of the AST for this reason.
//
//   - The information in the cache must not depend at all on the contents of
//     any file other than the file being cached. Invalidating an entry in the
//     cache does not also invalidate any entries that depend on that file.
//
// Both caches are bounded so a long-running watch session over a large tree
// doesn't grow without limit.
type CacheSet struct {
	FSCache FSCache
	JSCache JSCache
}

const DefaultEntryLimit = 4096

func MakeCacheSet() *CacheSet {
	return MakeCacheSetWithLimit(DefaultEntryLimit)
}

func MakeCacheSetWithLimit(limit int) *CacheSet {
	if limit < 1 {
		limit = 1
	}
	fsEntries, err := lru.New[string, *fsEntry](limit)
	if err != nil {
		panic(err)
	}
	jsEntries, err := lru.New[string, *jsCacheEntry](limit)
	if err != nil {
		panic(err)
	}
	return &CacheSet{
		FSCache: FSCache{entries: fsEntries},
		JSCache: JSCache{entries: jsEntries},
	}
}
