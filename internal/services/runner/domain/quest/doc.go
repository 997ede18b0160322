// Package quest models the immutable quest catalog: element identifiers,
// quest definitions (sequences of steps), and the registry that resolves
// identifiers to definitions with user overrides taking precedence over the
// shipped catalog.
package quest
