package topology

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/nereusdb/ndbc/cos"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func marshalEntry(e Entry) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, cos.Wrap(err, "marshal topology cache entry")
	}
	return b, nil
}

func unmarshalEntry(raw string, e *Entry) error {
	if err := json.Unmarshal([]byte(raw), e); err != nil {
		return cos.Wrap(err, "unmarshal topology cache entry")
	}
	return nil
}
