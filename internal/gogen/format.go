package gogen

import (
	"fmt"

	"mvdan.cc/gofumpt/format"
)

// Format runs gofumpt over generated source. The error carries the
// unformatted source so broken output can be inspected.
func Format(src []byte) ([]byte, error) {
	out, err := format.Source(src, format.Options{})
	if err != nil {
		return nil, fmt.Errorf("formatting generated code: %w\n%s", err, src)
	}
	return out, nil
}
