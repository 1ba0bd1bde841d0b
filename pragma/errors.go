// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package pragma

import "fmt"

type SyntaxError struct {
	Line int
	Text string
}

func (err *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: unrecognized lines pragma %q", err.Line, err.Text)
}

type DuplicatePropertyError struct {
	Property PropertyKind
}

func (err *DuplicatePropertyError) Error() string {
	return fmt.Sprintf("duplicate pragma for property %q", err.Property)
}

type DuplicateAttributeError struct {
	Attribute string
}

func (err *DuplicateAttributeError) Error() string {
	return fmt.Sprintf("duplicate pragma for attribute %q", err.Attribute)
}

// UnknownAttributeError is returned when a property or varying uses an
// attribute that hasn't been declared.
type UnknownAttributeError struct {
	Attribute string
	// The property or varying referencing the attribute.
	User string
}

func (err *UnknownAttributeError) Error() string {
	return fmt.Sprintf("missing attribute %q of %s", err.Attribute, err.User)
}

type MissingPropertyError struct {
	Property PropertyKind
}

func (err *MissingPropertyError) Error() string {
	return fmt.Sprintf("missing pragma for required property %q", err.Property)
}
