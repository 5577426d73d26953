package listedit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ProductRef identifies a product row in an edited list. A persisted ref
// carries the server id; a pending ref carries a local key for a row that
// has not been saved yet. The two variants never compare equal.
type ProductRef struct {
	id  int64
	key string
}

// Persisted returns the ref of a product the server knows as id.
func Persisted(id int64) ProductRef {
	return ProductRef{id: id}
}

// NewPending returns a fresh pending ref. Keys are UUIDv7 so they sort by
// creation time and stay unique within the process.
func NewPending() ProductRef {
	key, err := uuid.NewV7()
	if err != nil {
		key = uuid.New()
	}
	return ProductRef{key: key.String()}
}

// Pending rebuilds a pending ref from a key obtained via String.
func Pending(key string) ProductRef {
	return ProductRef{key: key}
}

func (r ProductRef) IsPersisted() bool {
	return r.key == "" && r.id > 0
}

func (r ProductRef) IsPending() bool {
	return r.key != ""
}

func (r ProductRef) IsZero() bool {
	return r == ProductRef{}
}

// ID returns the server id of a persisted ref.
func (r ProductRef) ID() (int64, bool) {
	if !r.IsPersisted() {
		return 0, false
	}
	return r.id, true
}

func (r ProductRef) String() string {
	if r.IsPending() {
		return "new:" + r.key
	}
	return strconv.FormatInt(r.id, 10)
}

// ParseRef is the inverse of String.
func ParseRef(s string) (ProductRef, error) {
	if key, ok := strings.CutPrefix(s, "new:"); ok {
		if key == "" {
			return ProductRef{}, fmt.Errorf("empty pending key")
		}
		return Pending(key), nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return ProductRef{}, fmt.Errorf("invalid product ref %q", s)
	}
	return Persisted(id), nil
}
