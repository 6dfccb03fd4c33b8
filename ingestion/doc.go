// Package ingestion folds externally produced content batches into the
// concept graph.
//
// A batch holds zero or more results, each carrying content samples. For every
// sample of every successful result the Absorber:
//   - maps the sample to an existing concept by keyword and records it there
//   - lets the graph discover new concepts the sample mentions
//
// Batches are not deduplicated here. Callers compare batch timestamps before
// absorbing. BatchSource implementations supply batches; FileSource reads the
// JSON file written by the external producer and can watch it for changes.
package ingestion
