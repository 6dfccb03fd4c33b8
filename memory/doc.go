// Package memory holds the interaction memory of the engine: the bounded log
// of past conversations, per (intent, complexity) pattern statistics, the
// insight log, the learning history and the intelligence level.
//
// Every log is bounded the same way. Once it grows past 100 entries it is cut
// back to the most recent 50.
//
// A Memory is not safe for concurrent use.
package memory
