package localcache

import (
	"fmt"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/marshaler"
	ristrettostore "github.com/eko/gocache/store/ristretto/v4"
)

// New builds an in-process ristretto-backed cache with a msgpack marshaler on top.
func New(maxItems int64) (*marshaler.Marshaler, error) {
	if maxItems <= 0 {
		maxItems = 10000
	}
	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("init ristretto: %w", err)
	}
	store := ristrettostore.NewRistretto(client)
	return marshaler.New(cache.New[any](store)), nil
}
