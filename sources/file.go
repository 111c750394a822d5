// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package sources

import (
	"context"
	"fmt"
	"os"
	"reflect"

	"github.com/absmach/scadabind/pkg/errors"
	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml"
)

// ErrLoadFile indicates a sources file that could not be read or decoded.
var ErrLoadFile = errors.New("failed to load sources file")

// File is the content of a sources file.
type File struct {
	Headers map[string]string `toml:"headers"`
	Sources []DataSource      `toml:"sources"`
}

// LoadFile reads a TOML sources file. The document is decoded into a
// generic tree first so that free-form values, such as HTTP bodies, keep
// their structure.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, errors.Wrap(ErrLoadFile, err)
	}
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return File{}, errors.Wrap(ErrLoadFile, err)
	}

	var f File
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "toml",
		WeaklyTypedInput: true,
		DecodeHook:       typeHook,
		Result:           &f,
	})
	if err != nil {
		return File{}, errors.Wrap(ErrLoadFile, err)
	}
	if err := dec.Decode(tree.ToMap()); err != nil {
		return File{}, errors.Wrap(ErrLoadFile, err)
	}
	return f, nil
}

// Apply registers the global headers and every source of f with svc. It
// stops at the first source that is rejected.
func (f File) Apply(ctx context.Context, svc Service) error {
	if len(f.Headers) > 0 {
		if err := svc.SetGlobalHTTPHeaders(ctx, f.Headers); err != nil {
			return err
		}
	}
	for _, ds := range f.Sources {
		if _, err := svc.Add(ctx, ds); err != nil {
			return errors.Wrap(fmt.Errorf("source %q", ds.ID), err)
		}
	}
	return nil
}

// typeHook canonicalizes source type names. Unknown names pass through for
// Validate to reject.
func typeHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(Type("")) {
		return data, nil
	}
	t, _ := ParseType(data.(string))
	return t, nil
}
