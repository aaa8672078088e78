package trace

import (
	"bytes"
	"fmt"
	"io"
)

// Hash is the content address of a stored item.
type Hash uint64

type Serde interface {
	Serialize(w io.Writer) error
	Deserialize(r io.Reader) error
}

// Store is a content-addressed store. Identical items share one entry.
type Store interface {
	Put(item Serde) (Hash, error)
	Has(hash Hash) bool
	Len() int
	getValue(hash Hash) (bool, []byte, error)
}

// Retrieve decodes the item stored under hash into a new T.
func Retrieve[T any, PT interface {
	*T
	Serde
}](s Store, hash Hash) (PT, error) {
	has, data, err := s.getValue(hash)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, fmt.Errorf("hash not found in store: %d", hash)
	}
	out := PT(new(T))
	if err := out.Deserialize(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("deserializing %T: %w", out, err)
	}
	return out, nil
}
