// Package ports defines the interfaces tether consumes from its host
// environment: the TagSource event primitive, the optional TagWriter
// extension, and the MetadataStore used for durable GUID attributes.
// Adapters implement these; the registry core depends only on them.
package ports
