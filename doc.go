// Package atlas is an adaptive concept graph and interaction-memory engine.
//
// An Engine owns a concept graph and an interaction memory. It answers queries
// by ranking the concepts a prompt mentions, absorbs externally produced
// content batches into the graph, and periodically consolidates what it has
// learned. All state sits behind one mutex, so queries, absorption and
// consolidation never interleave.
//
// State is persisted through a Gateway on a best-effort basis. Saves run on a
// single background worker from deep-copied snapshots and a failed save is
// retried by the next consolidation. Loading never fails: missing or corrupt
// records fall back to the seeded defaults.
//
// Basic usage:
//
//	db, err := atlas.NewDatabase("./data/atlas")
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
//	engine, err := atlas.NewEngine(ctx, atlas.WithGateway(db.NewGateway()))
//	if err != nil {
//		return err
//	}
//	defer engine.Close(ctx)
//
//	resp, err := engine.Think(ctx, cognition.Query{Prompt: "How do I automate my business?"})
package atlas
