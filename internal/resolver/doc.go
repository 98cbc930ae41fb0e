// Package resolver contains the dependency resolver core for bot modules. It
// validates the module graph, activates the enabled modules in dependency
// order, and hands each module a container scope exactly once per pass.
package resolver
