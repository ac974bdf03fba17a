package json

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rbaliyan/odata/edm"
)

// member is one name/value pair of a JSON object with its order preserved.
// Annotations must precede the members they annotate, which rules out
// map-based marshaling.
type member struct {
	name  string
	value json.RawMessage
}

func marshalMembers(members []member) (json.RawMessage, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range members {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(m.name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(m.value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalArray(items []json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, it := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(it)
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

func rawString(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

// primitiveTypeName maps a Go value to its wire primitive type name, or ""
// for values that are not primitives.
func primitiveTypeName(v any) string {
	switch v.(type) {
	case string:
		return string(edm.PrimitiveString)
	case bool:
		return string(edm.PrimitiveBoolean)
	case int32:
		return string(edm.PrimitiveInt32)
	case int, int64:
		return string(edm.PrimitiveInt64)
	case float32, float64:
		return string(edm.PrimitiveDouble)
	case []byte:
		return string(edm.PrimitiveBinary)
	case time.Time:
		return string(edm.PrimitiveDateTime)
	default:
		return ""
	}
}

// jsonNative reports whether the primitive type is fully carried by its
// JSON representation; such values never need a type annotation.
func jsonNative(typeName string) bool {
	switch edm.Primitive(typeName) {
	case edm.PrimitiveString, edm.PrimitiveBoolean, edm.PrimitiveInt32, edm.PrimitiveDouble:
		return true
	default:
		return false
	}
}

// encodePrimitive renders a primitive value. 64-bit integers ride as JSON
// strings to survive consumers that parse every number as a double.
func encodePrimitive(v any) (json.RawMessage, error) {
	switch x := v.(type) {
	case int64:
		return json.Marshal(strconv.FormatInt(x, 10))
	case int:
		return json.Marshal(strconv.Itoa(x))
	case time.Time:
		return json.Marshal(x.UTC().Format(time.RFC3339))
	default:
		return json.Marshal(v)
	}
}

// coercePrimitive converts a decoded JSON scalar to the Go type implied by
// the declared wire type, falling back to the JSON-native interpretation.
func coercePrimitive(v any, declared string) (any, error) {
	switch x := v.(type) {
	case json.Number:
		switch edm.Primitive(declared) {
		case edm.PrimitiveInt32:
			n, err := strconv.ParseInt(x.String(), 10, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
			}
			return int32(n), nil
		case edm.PrimitiveInt64:
			n, err := x.Int64()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
			}
			return n, nil
		case edm.PrimitiveDouble:
			return x.Float64()
		}
		if !strings.ContainsAny(x.String(), ".eE") {
			if n, err := x.Int64(); err == nil {
				return n, nil
			}
		}
		return x.Float64()
	case string:
		switch edm.Primitive(declared) {
		case edm.PrimitiveInt64:
			n, err := strconv.ParseInt(x, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
			}
			return n, nil
		case edm.PrimitiveDateTime:
			t, err := time.Parse(time.RFC3339, x)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
			}
			return t, nil
		case edm.PrimitiveBinary:
			b, err := base64.StdEncoding.DecodeString(x)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
			}
			return b, nil
		}
		return x, nil
	default:
		return v, nil
	}
}

// collectionItemType unwraps "Collection(X)" to "X".
func collectionItemType(typeName string) string {
	if inner, ok := strings.CutPrefix(typeName, "Collection("); ok {
		return strings.TrimSuffix(inner, ")")
	}
	return ""
}

// contextFragment extracts the fragment of a metadata context URI, e.g.
// "Customers/@Element" from "http://host/$metadata#Customers/@Element".
func contextFragment(uri string) string {
	_, frag, ok := strings.Cut(uri, "#")
	if !ok {
		return ""
	}
	return frag
}

// entitySetFromFragment recovers the entity set name from a context URI
// fragment.
func entitySetFromFragment(frag string) string {
	frag = strings.TrimSuffix(frag, "/@Element")
	if frag == "" || strings.HasPrefix(frag, "Edm.") || strings.HasPrefix(frag, "Collection(") {
		return ""
	}
	return frag
}
