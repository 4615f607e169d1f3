// Package encode provides JSON rendering helpers for parsed DDS/DAS trees
// and other values. Encoding goes through encoding/json, so only exported
// fields are rendered: a ConstraintBuilder, whose fields are unexported,
// encodes as an empty object.
package encode

import "encoding/json"

// Dumps constructs a compact JSON string of the supplied data.
func Dumps(data any) (string, error) {
	jsn, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return string(jsn), nil
}

// IndentDumps constructs a JSON string of the supplied data using an
// indentation of four spaces.
func IndentDumps(data any) (string, error) {
	jsn, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return "", err
	}
	return string(jsn), nil
}
