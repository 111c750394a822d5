// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package dotpath navigates decoded JSON documents with "."-delimited paths
// such as "data.sensors.0.value".
package dotpath

import (
	"strconv"
	"strings"
)

// Get walks v along path. Object keys are matched exactly and numeric
// segments index into arrays. An empty path returns v itself.
func Get(v any, path string) (any, bool) {
	if path == "" {
		return v, true
	}
	cur := v
	for _, key := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[key]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Lookup is like Get but treats a nil leaf as missing.
func Lookup(v any, path string) (any, bool) {
	res, ok := Get(v, path)
	if !ok || res == nil {
		return nil, false
	}
	return res, true
}
