// Package registry maps record type names ("doctypes") to their ordered field
// descriptors. Lookups never return an empty list: unknown types fall back to
// a single "name" text field.
//
// Descriptors come from the embedded built-in set, from YAML/JSON documents
// loaded through LoadFS, or from OpenAPI component schemas via FromOpenAPI.
package registry
