package model

// MetaPath is the meta key under which the store records the opaque locator
// of a persisted entity.
const MetaPath = "path"

// Meta holds store-assigned, non-semantic information about an entity.
// It is excluded from all digests.
type Meta map[string]string

// Path returns the store-assigned locator, or "" if the entity has not been
// stored yet.
func (m Meta) Path() string {
	return m[MetaPath]
}

// WithPath returns the meta with the locator set, allocating if needed.
func (m Meta) WithPath(path string) Meta {
	if m == nil {
		m = Meta{}
	}
	m[MetaPath] = path
	return m
}
