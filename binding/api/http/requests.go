// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"github.com/absmach/scadabind"
	"github.com/absmach/scadabind/binding"
	"github.com/absmach/scadabind/pkg/apiutil"
)

type viewNodeReq struct {
	id string
}

func (req viewNodeReq) validate() error {
	if req.id == "" {
		return apiutil.ErrMissingID
	}

	return nil
}

type saveNodeReq struct {
	id   string
	Data map[string]any `json:"data"`
}

func (req saveNodeReq) validate() error {
	if req.id == "" {
		return apiutil.ErrMissingID
	}

	return nil
}

type updateBindingsReq struct {
	id       string
	Bindings []binding.Binding `json:"bindings"`
}

func (req updateBindingsReq) validate() error {
	if req.id == "" {
		return apiutil.ErrMissingID
	}
	if req.Bindings == nil {
		return apiutil.ErrEmptyList
	}

	return nil
}

type dispatchReq struct {
	sourceID string
	payload  any
}

func (req dispatchReq) validate() error {
	if req.sourceID == "" {
		return apiutil.ErrMissingID
	}
	if req.payload == nil {
		return apiutil.ErrMissingPayload
	}

	return nil
}

type applyDeviceReq struct {
	sourceID string
	device   scadabind.Device
}

func (req applyDeviceReq) validate() error {
	if req.sourceID == "" || req.device.ID == "" {
		return apiutil.ErrMissingID
	}

	return nil
}
