// Package engine wires the registry, session store, option resolver, form
// editor, renderers and submission pipeline into the record form flow.
package engine
