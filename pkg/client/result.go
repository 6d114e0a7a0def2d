package client

import (
	"encoding/json"
	"fmt"
)

// Result is the outcome of a fail-soft fetch. A Result is either OK, carrying
// a JSON body, or Empty, carrying the error that exhausted the retries.
// Callers that only care about data treat Empty exactly like an empty object.
type Result struct {
	URL        string
	Body       []byte
	StatusCode int
	Attempts   int
	Cached     bool
	Err        error
}

// OK reports whether the fetch produced a JSON payload.
func (r Result) OK() bool {
	return r.Err == nil && r.Body != nil
}

// Empty reports whether the fetch degraded to "no data".
func (r Result) Empty() bool {
	return !r.OK()
}

// Decode unmarshals the payload into v. Decoding an Empty result is a no-op,
// leaving v at its zero value, the same as decoding "{}".
func (r Result) Decode(v any) error {
	if r.Empty() {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode %s: %w", r.URL, err)
	}
	return nil
}
