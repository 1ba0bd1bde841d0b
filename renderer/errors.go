// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package renderer

import (
	"fmt"
	"strings"
)

type MissingBufferError struct {
	Attribute string
	Endpoint  bool
}

func (err *MissingBufferError) Error() string {
	path := "vertex"
	if err.Endpoint {
		path = "endpoint"
	}
	return fmt.Sprintf("missing buffer for %s attribute %q", path, err.Attribute)
}

// MissingAttributeError is returned when a buffer's attribute doesn't have
// the dimension that the shader declared.
type MissingAttributeError struct {
	Attribute string
	Dimension int
	Want      int
}

func (err *MissingAttributeError) Error() string {
	return fmt.Sprintf("size of attribute %q (%d) does not match dimension specified in shader pragma (%d)",
		err.Attribute, err.Dimension, err.Want)
}

type InvalidOptionError struct {
	Option string
	Value  any
	// Valid values, if there is a fixed set of them.
	Valid []string
	// Attribute the option belongs to, if any.
	Attribute string
}

func (err *InvalidOptionError) Error() string {
	var msg string
	if err.Attribute != "" {
		msg = fmt.Sprintf("invalid %s %v for attribute %q", err.Option, err.Value, err.Attribute)
	} else {
		msg = fmt.Sprintf("invalid %s %v", err.Option, err.Value)
	}
	if len(err.Valid) > 0 {
		msg += ", options are " + strings.Join(err.Valid, ", ")
	}
	return msg
}

// ReservedParamError is returned by New when a forwarded parameter would
// override something that the renderer computes itself.
type ReservedParamError struct {
	Param string
}

func (err *ReservedParamError) Error() string {
	return fmt.Sprintf("invalid parameter %q: parameters %s may not be forwarded",
		err.Param, strings.Join(reservedParams, ", "))
}

type MissingShaderError struct {
	Stage string
}

func (err *MissingShaderError) Error() string {
	return fmt.Sprintf("missing %s shader", err.Stage)
}
