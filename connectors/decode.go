// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package connectors

import (
	"encoding/json"

	"github.com/absmach/scadabind/pkg/dotpath"
	"github.com/absmach/scadabind/pkg/errors"
)

// Decode parses a JSON message and extracts the sub-value at dataPath.
// It reports false when the path does not resolve to a non-null value, in
// which case nothing should be forwarded.
func Decode(data []byte, dataPath string) (any, bool, error) {
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, false, errors.Wrap(ErrDecode, err)
	}
	v, ok := dotpath.Lookup(payload, dataPath)
	return v, ok, nil
}
