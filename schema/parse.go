package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ParseError reports a malformed line of a message definition.
type ParseError struct {
	Type   string
	Line   int
	Text   string
	Reason string
	Cause  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("schema: %s line %d %q: %s", e.Type, e.Line, e.Text, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Parse reads a message definition in the textual format
//
//	# comment
//	uint8 ACTIVE = 1   # constant
//	int64 filter_id    # field
//
// and defines typeName from it. The authored text is kept as the schema's
// Definition; the canonical text is rebuilt from the declarations.
func Parse(typeName, definition string) (*Schema, error) {
	var (
		constants []Constant
		fields    []Field
		lineOf    = make(map[string]int)
		textOf    = make(map[int]string)
	)

	for i, raw := range strings.Split(definition, "\n") {
		n := i + 1
		line := strings.TrimSpace(stripComment(raw))
		if line == "" {
			continue
		}
		textOf[n] = line

		sp := strings.IndexAny(line, " \t")
		if sp < 0 {
			return nil, &ParseError{Type: typeName, Line: n, Text: line, Reason: "expected \"<type> <name>\""}
		}
		typ, rest := line[:sp], strings.TrimSpace(line[sp:])

		if name, value, ok := strings.Cut(rest, "="); ok {
			c := Constant{Type: typ, Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)}
			constants = append(constants, c)
			lineOf[c.Name] = n
			continue
		}
		if strings.ContainsAny(rest, " \t") {
			return nil, &ParseError{Type: typeName, Line: n, Text: line, Reason: "unexpected text after field name"}
		}
		fields = append(fields, Field{Name: rest, Type: typ})
		lineOf[rest] = n
	}

	s, err := define(typeName, constants, fields, definition)
	if err != nil {
		var de *DefinitionError
		if errors.As(err, &de) && de.Name != "" {
			n := lineOf[de.Name]
			return nil, &ParseError{Type: typeName, Line: n, Text: textOf[n], Reason: de.Reason, Cause: err}
		}
		return nil, err
	}
	return s, nil
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}
