// Package model defines the declarative record schema consumed by the form
// engine. A record type ("doctype") is an ordered list of FieldDescriptor
// values; link fields reference another record type whose records populate
// an OptionSet at runtime. Draft tracks the in-progress record together with
// the provenance of every value so prefill layers can run in any order
// without clobbering each other or what the user typed.
package model
