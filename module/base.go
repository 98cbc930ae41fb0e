package module

// Base provides common plumbing for modules (identity + dependency edges).
type Base struct {
	meta Metadata
}

// NewBase seeds the helper with module metadata.
func NewBase(meta Metadata) Base {
	return Base{meta: meta.Normalized()}
}

// Requires declares the modules that must be activated first.
func (b *Base) Requires(names ...string) {
	b.meta.RequiredModules = normalizeNames(append(append([]string{}, b.meta.RequiredModules...), names...))
}

// Prefers declares optional modules that are ordered first when enabled.
func (b *Base) Prefers(names ...string) {
	b.meta.OptionalModules = normalizeNames(append(append([]string{}, b.meta.OptionalModules...), names...))
}

// Metadata implements BotModule.Metadata.
func (b *Base) Metadata() Metadata {
	meta := b.meta
	meta.RequiredModules = append([]string(nil), b.meta.RequiredModules...)
	meta.OptionalModules = append([]string(nil), b.meta.OptionalModules...)
	return meta
}
