// Package maturity persists per-scenario verification state beside each
// specification document.
//
// The current format is maturity.json. A legacy markdown list, maturity.md,
// is read when no usable JSON exists; it is never rewritten, and the first
// mutation after a legacy read produces maturity.json. Parsed records are
// cached by canonical path. Every mutation writes the file and replaces the
// cache entry in the same call. Changes made outside the process must be
// announced with Invalidate or InvalidateAll.
//
// The store does no locking: callers serialize mutations to a given file.
package maturity
