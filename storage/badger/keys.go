package badger

import (
	"fmt"

	"github.com/poiesic/atlas/core"
)

// Key prefixes for different data types
const (
	conceptRecordPrefix = "conrec"
	memorySnapshotKey   = "memsnap"
	learningLogKey      = "lrnlog"
)

// makeConceptKey generates a key for a concept by ID.
func makeConceptKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", conceptRecordPrefix, id))
}

// makeConceptKeyForName generates the primary key of the concept with the given name.
func makeConceptKeyForName(name string) []byte {
	return makeConceptKey(core.IDFromContent(name))
}
