// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports). The indexing pipeline and retrieval
// engine consume backends exclusively through these interfaces.
package driven
