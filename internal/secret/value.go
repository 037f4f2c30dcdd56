package secret

import "encoding/json"

// encodeValue/decodeValue give Value a stable on-disk/in-keyring
// representation. This is an internal wire format for one struct, not a
// domain concern, so it stays on encoding/json rather than reaching for
// one of the richer serialization libraries the examples pull in for
// actual config/document shapes.
func encodeValue(v Value) []byte {
	b, _ := json.Marshal(v)
	return b
}

func decodeValue(raw []byte) Value {
	var v Value
	_ = json.Unmarshal(raw, &v)
	return v
}
