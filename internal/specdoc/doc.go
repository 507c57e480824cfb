// Package specdoc parses specification documents into the FeatureSpec →
// UserStory → AcceptanceScenario tree.
//
// Parsing is a single forward pass over lines driven by a three-state
// machine (outside a story, inside a story preamble, inside acceptance
// scenarios). Unexpected content never fails a parse; it only yields fewer
// stories or scenarios. The only error a caller can see is a ParseError
// wrapping an I/O failure.
package specdoc
