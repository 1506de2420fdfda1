package postgres

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// ULIDGenerator generates ULID-based account ids. Ids are lowercase so they
// read well as cache key and URL segments.
type ULIDGenerator struct {
	prefix string
}

// NewULIDGenerator creates a new ULIDGenerator. A non-empty prefix is joined
// to every id with an underscore.
func NewULIDGenerator(prefix string) *ULIDGenerator {
	return &ULIDGenerator{prefix: prefix}
}

// Generate generates a new id.
func (g *ULIDGenerator) Generate() string {
	id := strings.ToLower(ulid.Make().String())
	if g.prefix == "" {
		return id
	}
	return g.prefix + "_" + id
}
