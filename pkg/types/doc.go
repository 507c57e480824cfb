// Package types defines the entity tree produced by the specification parser,
// the maturity record persisted beside each specification, and the standard
// errors shared by the speckit packages.
package types
