package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type refKind uint8

const (
	refNone refKind = iota
	refScalar
	refObject
)

// IDFields are the identity fields an object-shaped reference may carry,
// already stringified. Empty means absent.
type IDFields struct {
	BookID   string
	ID       string
	ObjectID string // the "_id" field
}

// ItemRef is a reference to a catalog item in one of the shapes clients and
// stored cart lines use: a bare scalar id, an object with id fields, or an
// object wrapping another reference under "book". The zero value is the null
// reference.
type ItemRef struct {
	kind   refKind
	scalar string
	fields IDFields
	book   *ItemRef
}

// Ref builds a scalar reference from a string id.
func Ref(id string) ItemRef {
	return ItemRef{kind: refScalar, scalar: id}
}

// NumericRef builds a scalar reference from a numeric id.
func NumericRef(id int64) ItemRef {
	return ItemRef{kind: refScalar, scalar: strconv.FormatInt(id, 10)}
}

// ObjectRef builds an object-shaped reference.
func ObjectRef(fields IDFields) ItemRef {
	return ItemRef{kind: refObject, fields: fields}
}

// WrappedRef builds {book: inner}, optionally alongside id fields of its own.
func WrappedRef(inner ItemRef, fields IDFields) ItemRef {
	return ItemRef{kind: refObject, fields: fields, book: &inner}
}

// IsNull reports whether r is the null reference.
func (r ItemRef) IsNull() bool {
	return r.kind == refNone
}

// Normalize resolves r to its canonical key. Resolution order is the direct
// scalar, then bookId, id and _id, then the "book" wrapper, which is unwrapped
// at most once. ok is false when nothing resolves to a non-blank id.
func Normalize(r ItemRef) (key string, ok bool) {
	if key, ok = resolve(r); ok {
		return key, true
	}
	if r.kind == refObject && r.book != nil {
		return resolve(*r.book)
	}
	return "", false
}

func resolve(r ItemRef) (string, bool) {
	switch r.kind {
	case refScalar:
		return nonBlank(r.scalar)
	case refObject:
		for _, candidate := range []string{r.fields.BookID, r.fields.ID, r.fields.ObjectID} {
			if key, ok := nonBlank(candidate); ok {
				return key, true
			}
		}
	}
	return "", false
}

func nonBlank(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}

// IsNativeKey reports whether key is a database-native key, i.e. the
// canonical lowercase hex form of an ObjectID. Anything else came from the
// external catalog.
func IsNativeKey(key string) bool {
	oid, err := bson.ObjectIDFromHex(key)
	return err == nil && oid.Hex() == key
}

// ParseItemRef decodes a JSON payload of any supported shape into an ItemRef.
// JSON null and empty input decode to the null reference. Unsupported shapes
// (arrays, booleans) are an error.
func ParseItemRef(data []byte) (ItemRef, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ItemRef{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return ItemRef{}, fmt.Errorf("decode item reference: %w", err)
	}
	return refFromValue(raw, true)
}

func refFromValue(v any, allowWrap bool) (ItemRef, error) {
	switch val := v.(type) {
	case nil:
		return ItemRef{}, nil
	case string, json.Number, float64:
		s, _ := scalarString(val)
		return Ref(s), nil
	case map[string]any:
		ref := ItemRef{kind: refObject}
		ref.fields.BookID, _ = scalarString(val["bookId"])
		ref.fields.ID, _ = scalarString(val["id"])
		ref.fields.ObjectID, _ = scalarString(val["_id"])
		if book, ok := val["book"]; ok && book != nil && allowWrap {
			// Only one level of "book" nesting is followed.
			inner, err := refFromValue(book, false)
			if err != nil {
				return ItemRef{}, err
			}
			ref.book = &inner
		}
		return ref, nil
	default:
		return ItemRef{}, fmt.Errorf("unsupported item reference of type %T", v)
	}
}

// scalarString stringifies JSON scalars and the extended-JSON {"$oid": ...}
// form that stored documents sometimes carry.
func scalarString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return strconv.FormatInt(i, 10), true
		}
		if f, err := val.Float64(); err == nil {
			return formatFloat(f), true
		}
		return val.String(), true
	case float64:
		return formatFloat(val), true
	case map[string]any:
		if oid, ok := val["$oid"].(string); ok {
			return oid, true
		}
	}
	return "", false
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
