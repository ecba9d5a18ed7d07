package store

import "sync"

// identifierCache maps identity keys to surrogate ids. It is insert-only and
// never evicts: the set of identities is assumed bounded and stable, and a
// cached id stays valid for the lifetime of its identifier row. Callers hold
// the embedded mutex across a full lookup-or-resolve sequence, not just the
// individual calls.
type identifierCache struct {
	sync.Mutex
	ids map[string]int64
}

func newIdentifierCache() *identifierCache {
	return &identifierCache{ids: make(map[string]int64)}
}

func (c *identifierCache) lookup(key string) (int64, bool) {
	id, ok := c.ids[key]
	return id, ok
}

// insert maps key to id. An already-present key keeps its existing mapping
// untouched and reports ErrDuplicateKey.
func (c *identifierCache) insert(key string, id int64) error {
	if _, ok := c.ids[key]; ok {
		return ErrDuplicateKey
	}
	c.ids[key] = id
	return nil
}
