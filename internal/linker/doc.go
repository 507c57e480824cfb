// Package linker finds test sources that verify a user story or acceptance
// scenario.
//
// Files are associated with a story by naming convention (us1-*, user-story-1,
// story1) or by an explicit "@spec: <feature>/US<N>-AS<M>" annotation in a
// comment above a test declaration. Annotations are authoritative; naming
// conventions are a heuristic. Ambiguity is never an error: results are
// ordered deterministically.
package linker
