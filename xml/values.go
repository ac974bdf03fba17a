package xml

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rbaliyan/odata/edm"
	"github.com/rbaliyan/odata/model"
)

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

// formatPrimitiveText renders a primitive as XML element text.
func formatPrimitiveText(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case []byte:
		return base64.StdEncoding.EncodeToString(x), nil
	case time.Time:
		return x.UTC().Format(time.RFC3339), nil
	default:
		return "", fmt.Errorf("%w: cannot format %T as a primitive", ErrMalformedPayload, v)
	}
}

// parsePrimitiveText converts element text to the Go type implied by the
// declared wire type; an unknown type keeps the text as a string.
func parsePrimitiveText(text, declared string) (any, error) {
	switch edm.Primitive(declared) {
	case edm.PrimitiveBoolean:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return b, nil
	case edm.PrimitiveInt32:
		n, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return int32(n), nil
	case edm.PrimitiveInt64:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return n, nil
	case edm.PrimitiveDouble:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return f, nil
	case edm.PrimitiveBinary:
		b, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return b, nil
	case edm.PrimitiveDateTime:
		t, err := time.Parse(time.RFC3339, text)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return t, nil
	default:
		return text, nil
	}
}

// collectionItemType unwraps "Collection(X)" to "X".
func collectionItemType(typeName string) string {
	if inner, ok := strings.CutPrefix(typeName, "Collection("); ok {
		return strings.TrimSuffix(inner, ")")
	}
	return ""
}

// resolveEntityType resolves the actual entity type of an entry: its own
// type name when the model knows it, else the statically expected type.
func resolveEntityType(m *edm.Model, typeName string, expected *edm.EntityType) *edm.EntityType {
	if m != nil && typeName != "" {
		if t, ok := m.EntityType(typeName); ok {
			return t
		}
	}
	return expected
}

// entitySetName names the navigation source: explicit serialization info
// wins over the model lookup.
func entitySetName(m *edm.Model, info *model.SerializationInfo, actual *edm.EntityType) string {
	if info != nil && info.EntitySet != "" {
		return info.EntitySet
	}
	if m != nil && actual != nil {
		if set, ok := m.EntitySetForType(actual); ok {
			return set.Name()
		}
	}
	return ""
}
