package service

import (
	"errors"
	"fmt"
	"strings"

	"rosrpc/schema"
)

// Parse reads a service definition: the request declarations, a line
// holding only "---", then the response declarations. The request and
// response schemas are named typeName+"Request" and typeName+"Response".
func Parse(typeName, definition string) (*Descriptor, error) {
	lines := strings.Split(definition, "\n")
	sep := -1
	for i, l := range lines {
		if strings.TrimSpace(l) == "---" {
			if sep >= 0 {
				return nil, fmt.Errorf("service: %s line %d: more than one \"---\" separator", typeName, i+1)
			}
			sep = i
		}
	}
	if sep < 0 {
		return nil, fmt.Errorf("service: %s: missing \"---\" separator", typeName)
	}

	req, err := schema.Parse(typeName+"Request", joinLines(lines[:sep]))
	if err != nil {
		return nil, fmt.Errorf("service: %s request: %w", typeName, err)
	}
	resp, err := schema.Parse(typeName+"Response", joinLines(lines[sep+1:]))
	if err != nil {
		var pe *schema.ParseError
		if errors.As(err, &pe) {
			pe.Line += sep + 1
		}
		return nil, fmt.Errorf("service: %s response: %w", typeName, err)
	}
	d, err := Define(typeName, req, resp)
	if err != nil {
		return nil, err
	}
	d.definition = definition
	return d, nil
}

// joinLines rebuilds one side of a service definition as a standalone
// message definition, newline terminated unless empty.
func joinLines(lines []string) string {
	return definitionSide(strings.Join(lines, "\n"))
}
