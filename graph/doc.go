// Package graph holds the concept graph: a set of named concepts with
// connection keywords, confidence, and the content absorbed into each.
//
// A Store is not safe for concurrent use. The engine owns the single Store
// of a process and serializes access to it.
//
// Relevance scoring is keyword based. A concept is relevant to a prompt when
// the lowercased prompt contains the concept name or any of its connections.
// Results are ordered by score, ties keeping the order in which concepts were
// first added.
package graph
