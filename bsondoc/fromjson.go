package bsondoc

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/nereusdb/ndbc/cos"
)

// json is configured compatible with encoding/json but using jsoniter's
// faster reflection path, the same trade the teacher's own cmn.Config
// loading makes throughout aistore.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FromJSON builds a Doc out of ad hoc JSON, the convenience "build" path for
// callers assembling queries, selectors, or command documents without
// constructing a Builder by hand. Supported JSON value types: string,
// number (always encoded as Double), bool, null, nested object, and array;
// an array element that is not an object is stored as a one-field document
// {"0": value}.
func FromJSON(b []byte) (Doc, error) {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return Doc{}, cos.NewErr(cos.DomainBSON, cos.CodeBSONInvalid, "invalid json: %v", err)
	}
	return fromMap(m), nil
}

func fromMap(m map[string]any) Doc {
	bld := NewBuilder()
	for k, v := range m {
		appendAny(bld, k, v)
	}
	return bld.Finish()
}

func appendAny(bld *Builder, key string, v any) {
	switch t := v.(type) {
	case string:
		bld.AppendString(key, t)
	case float64:
		bld.AppendDouble(key, t)
	case bool:
		bld.AppendBool(key, t)
	case nil:
		bld.AppendNull(key)
	case map[string]any:
		bld.AppendDocument(key, fromMap(t))
	case []any:
		elems := make([]Doc, 0, len(t))
		for _, e := range t {
			switch ev := e.(type) {
			case map[string]any:
				elems = append(elems, fromMap(ev))
			default:
				inner := NewBuilder()
				appendAny(inner, "0", ev)
				elems = append(elems, inner.Finish())
			}
		}
		bld.AppendArray(key, elems)
	}
}
