// Package identity derives the pseudonym lookup key sent to the core API in
// place of a real platform user id. The digest is the only identity material
// that ever crosses the service boundary.
package identity

import (
	"strconv"

	"github.com/veilcare/counsel-relay-go/internal/util"
)

type Hasher struct {
	key string
}

func NewHasher(key string) *Hasher {
	return &Hasher{key: key}
}

// Hash returns hex(HMAC-SHA-256(key, plain)). Deterministic: the same input
// under the same key always yields the same digest, which is what lets the
// core API resolve a returning user without ever learning who they are.
func (h *Hasher) Hash(plain string) string {
	return util.HmacSHA256(h.key, plain)
}

// HashInt64 hashes the decimal rendering of a numeric platform user id.
func (h *Hasher) HashInt64(id int64) string {
	return h.Hash(strconv.FormatInt(id, 10))
}
