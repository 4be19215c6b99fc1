package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
)

// identityKey renders the statements that define an entity's on-disk shape.
func identityKey(e Entity) string {
	stmt := e.CreateTableStatement
	if stmt == "" {
		stmt = CreateTableQuery(e)
	}
	parts := []string{stmt}
	for _, idx := range e.Indices {
		parts = append(parts, CreateIndexQuery(e.TableName, idx))
	}
	return strings.Join(parts, "\n")
}

// ComputeIdentityHash returns the BLAKE3 digest of the schema. Entities are
// hashed in table-name order, so reordering declarations does not change the
// identity of the database.
func ComputeIdentityHash(d *Database) string {
	entities := make([]Entity, len(d.Entities))
	copy(entities, d.Entities)
	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].TableName < entities[j].TableName
	})

	h := blake3.New()
	for _, e := range entities {
		_, _ = h.Write([]byte(identityKey(e)))
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ComputeLegacyIdentityHash returns the SHA-256 digest of the schema in
// declaration order. Databases written by earlier generator releases carry
// this digest, so it is accepted alongside the current one.
func ComputeLegacyIdentityHash(d *Database) string {
	keys := make([]string, 0, len(d.Entities))
	for _, e := range d.Entities {
		keys = append(keys, identityKey(e))
	}
	sum := sha256.Sum256([]byte(strings.Join(keys, ";")))
	return hex.EncodeToString(sum[:])
}
