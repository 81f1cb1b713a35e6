package httputil

import (
	"bytes"
	"encoding/json"
)

// OptionalString is a nullable string field of a PATCH body that also
// remembers whether the client sent it at all:
//
//	absent        Present=false
//	null          Present=true, Value=nil
//	"f1"          Present=true, Value="f1"
type OptionalString struct {
	Present bool
	Value   *string
}

// UnmarshalJSON only runs for members present in the body.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true
	o.Value = nil
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}
