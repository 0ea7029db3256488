package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"github.com/fedquery/gateway/types"
)

// SearchKey builds the namespaced cache key for a backend search call:
// {source}:{normalized-query+limit+filters-hash}. Namespacing by source
// means flushing or invalidating one service's entries never touches
// another's, and two services returning the same query text never
// collide. filters is folded into the hash with sorted keys so two
// searches that differ only in filters never alias the same entry.
func SearchKey(source types.Source, query string, limit int, filters map[string]any) string {
	norm := strings.ToLower(strings.TrimSpace(query))
	sum := sha256.Sum256([]byte(norm + ":" + itoa(limit) + ":" + canonicalFilters(filters)))
	return string(source) + ":" + hex.EncodeToString(sum[:12])
}

// canonicalFilters renders filters as JSON with keys sorted, so the same
// filter set always hashes identically regardless of map iteration
// order. A nil or empty map renders as "{}".
func canonicalFilters(filters map[string]any) string {
	if len(filters) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		b.Write(kb)
		b.WriteByte(':')
		vb, err := json.Marshal(filters[k])
		if err != nil {
			vb = []byte(`null`)
		}
		b.Write(vb)
	}
	b.WriteByte('}')
	return b.String()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
