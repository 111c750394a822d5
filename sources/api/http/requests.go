// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"github.com/absmach/scadabind/internal/api"
	"github.com/absmach/scadabind/pkg/apiutil"
	"github.com/absmach/scadabind/sources"
)

type addSourceReq struct {
	sources.DataSource
}

func (req addSourceReq) validate() error {
	if req.Type == "" {
		return apiutil.ErrMissingType
	}
	if len(req.Name) > api.MaxNameSize {
		return apiutil.ErrNameSize
	}

	return nil
}

type updateSourceReq struct {
	id string
	sources.Update
}

func (req updateSourceReq) validate() error {
	if req.id == "" {
		return apiutil.ErrMissingID
	}
	if req.Name != nil && len(*req.Name) > api.MaxNameSize {
		return apiutil.ErrNameSize
	}

	return nil
}

type viewSourceReq struct {
	id string
}

func (req viewSourceReq) validate() error {
	if req.id == "" {
		return apiutil.ErrMissingID
	}

	return nil
}

type listSourcesReq struct {
	sourceType sources.Type
	enabled    *bool
}

type payloadReq struct {
	id      string
	payload any
}

func (req payloadReq) validate() error {
	if req.id == "" {
		return apiutil.ErrMissingID
	}
	if req.payload == nil {
		return apiutil.ErrMissingPayload
	}

	return nil
}

type headersReq struct {
	Headers map[string]string `json:"headers"`
}

func (req headersReq) validate() error {
	if len(req.Headers) == 0 {
		return apiutil.ErrEmptyList
	}

	return nil
}
