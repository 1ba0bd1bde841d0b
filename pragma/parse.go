// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package pragma

import (
	"strings"
)

// Parse extracts all lines pragmas from a shader source. It returns the
// source with the directive lines removed and the directives in source
// order. Lines that aren't lines pragmas, including other #pragma
// directives, are left untouched.
func Parse(src string) (string, []Pragma, error) {
	var (
		out     strings.Builder
		pragmas []Pragma
		lineNo  int
	)
	out.Grow(len(src))
	for len(src) > 0 {
		lineNo++
		var line string
		line, src, _ = strings.Cut(src, "\n")

		body, ok := directiveBody(strings.TrimSuffix(line, "\r"))
		if ok {
			p, ok := parseBody(body)
			if !ok {
				return "", nil, &SyntaxError{Line: lineNo, Text: body}
			}
			pragmas = append(pragmas, p)
			// Keep the empty line so that the shader compiler's line numbers
			// still match the user's source.
			out.WriteByte('\n')
			continue
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return strings.TrimSpace(out.String()), pragmas, nil
}

// directiveBody returns the text following "#pragma lines:", without a
// single trailing semicolon.
func directiveBody(line string) (string, bool) {
	s := strings.TrimLeft(line, " \t")
	if !hasPrefixFold(s, "#pragma") {
		return "", false
	}
	s = s[len("#pragma"):]
	rest := strings.TrimLeft(s, " \t")
	if len(rest) == len(s) {
		// #pragmalines
		return "", false
	}
	if !hasPrefixFold(rest, "lines") {
		return "", false
	}
	rest = strings.TrimLeft(rest[len("lines"):], " \t")
	if !strings.HasPrefix(rest, ":") {
		return "", false
	}
	rest = rest[1:]
	if i := strings.IndexByte(rest, ';'); i != -1 {
		if i != len(rest)-1 {
			// Semicolons are only allowed as the final character.
			return "", false
		}
		rest = rest[:i]
	}
	return strings.TrimSpace(rest), true
}

func parseBody(body string) (Pragma, bool) {
	lhs, rhs, hasAssign := strings.Cut(body, "=")
	lhsFields := strings.Fields(lhs)

	if !hasAssign {
		if len(lhsFields) != 3 || !strings.EqualFold(lhsFields[0], "attribute") {
			return nil, false
		}
		dim := Dimension(lhsFields[1])
		if dim == 0 || !isIdent(lhsFields[2]) {
			return nil, false
		}
		return &Attribute{Name: lhsFields[2], Dimension: dim}, true
	}

	fn, args, ok := parseCall(rhs)
	if !ok {
		return nil, false
	}

	switch len(lhsFields) {
	case 1:
		var kind PropertyKind
		switch strings.ToLower(lhsFields[0]) {
		case "position":
			kind = PropertyPosition
		case "width":
			kind = PropertyWidth
		case "orientation":
			kind = PropertyOrientation
		default:
			return nil, false
		}
		return &Property{Kind: kind, Func: fn, Inputs: args}, true
	case 3:
		if lhsFields[0] != "varying" || Dimension(lhsFields[1]) == 0 || !isIdent(lhsFields[2]) {
			return nil, false
		}
		return &Varying{
			Name:   lhsFields[2],
			Type:   lhsFields[1],
			Getter: fn,
			Inputs: args,
		}, true
	default:
		return nil, false
	}
}

// parseCall parses "name(arg, arg, ...)". Empty arguments are dropped.
func parseCall(s string) (string, []string, bool) {
	s = strings.TrimSpace(s)
	name, rest, ok := strings.Cut(s, "(")
	if !ok || !strings.HasSuffix(rest, ")") {
		return "", nil, false
	}
	name = strings.TrimSpace(name)
	if !isIdent(name) {
		return "", nil, false
	}
	rest = rest[:len(rest)-1]
	if strings.ContainsAny(rest, "()") {
		return "", nil, false
	}
	var args []string
	for arg := range strings.SplitSeq(rest, ",") {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}
		if !isIdent(arg) {
			return "", nil, false
		}
		args = append(args, arg)
	}
	return name, args, true
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range []byte(s) {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
