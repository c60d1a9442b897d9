package main

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
)

// eventFilter holds compiled jq expressions that must all be truthy for an
// event to be shown.
type eventFilter struct {
	codes []*gojq.Code
}

func compileFilters(exprs []string) (*eventFilter, error) {
	f := &eventFilter{codes: make([]*gojq.Code, 0, len(exprs))}
	for _, expr := range exprs {
		query, err := gojq.Parse(expr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse jq filter %q: %w", expr, err)
		}
		code, err := gojq.Compile(query)
		if err != nil {
			return nil, fmt.Errorf("failed to compile jq filter %q: %w", expr, err)
		}
		f.codes = append(f.codes, code)
	}
	return f, nil
}

// Match reports whether the raw event JSON satisfies every filter. A filter
// that errors or yields no value does not match.
func (f *eventFilter) Match(data []byte) (bool, error) {
	if len(f.codes) == 0 {
		return true, nil
	}

	var input interface{}
	if err := json.Unmarshal(data, &input); err != nil {
		return false, fmt.Errorf("failed to decode event: %w", err)
	}

	for _, code := range f.codes {
		iter := code.Run(input)
		v, ok := iter.Next()
		if !ok {
			return false, nil
		}
		if _, isErr := v.(error); isErr {
			return false, nil
		}
		if !isTruthy(v) {
			return false, nil
		}
	}
	return true, nil
}

// isTruthy checks if a jq result value is truthy.
// In jq, false and null are falsy, everything else is truthy.
func isTruthy(v interface{}) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}
