// Package cognition implements the per-query request pipeline.
//
// A query moves through five phases in order: Analyzing, Retrieving,
// GeneratingInsights, Synthesizing and Learning. The first four only read the
// concept graph and the interaction memory. Learning is the single phase that
// writes, so a query that fails earlier leaves no trace.
//
// Analysis is keyword based:
//   - intent comes from the first matching keyword group
//   - concepts are the graph concepts the prompt mentions, plus their
//     connections that are concepts themselves
//   - complexity is a weighted sum of surface features
//
// Responses are rendered from one template per intent. A Monitor observes
// phase transitions.
package cognition
