// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"fmt"
	"net/http"

	"github.com/absmach/scadabind"
	"github.com/absmach/scadabind/sources"
)

var (
	_ scadabind.Response = (*sourceRes)(nil)
	_ scadabind.Response = (*sourcesPageRes)(nil)
	_ scadabind.Response = (*devicesRes)(nil)
	_ scadabind.Response = (*deviceRefsRes)(nil)
	_ scadabind.Response = (*acceptedRes)(nil)
	_ scadabind.Response = (*removeRes)(nil)
	_ scadabind.Response = (*updateHeadersRes)(nil)
)

type sourceRes struct {
	sources.DataSource
	created bool
}

func (res sourceRes) Code() int {
	if res.created {
		return http.StatusCreated
	}

	return http.StatusOK
}

func (res sourceRes) Headers() map[string]string {
	if res.created {
		return map[string]string{
			"Location": fmt.Sprintf("/sources/%s", res.ID),
		}
	}

	return map[string]string{}
}

func (res sourceRes) Empty() bool {
	return false
}

type sourcesPageRes struct {
	Total   uint64               `json:"total"`
	Sources []sources.DataSource `json:"sources"`
}

func (res sourcesPageRes) Code() int {
	return http.StatusOK
}

func (res sourcesPageRes) Headers() map[string]string {
	return map[string]string{}
}

func (res sourcesPageRes) Empty() bool {
	return false
}

type devicesRes struct {
	Devices []scadabind.Device `json:"devices"`
}

func (res devicesRes) Code() int {
	return http.StatusOK
}

func (res devicesRes) Headers() map[string]string {
	return map[string]string{}
}

func (res devicesRes) Empty() bool {
	return false
}

type deviceRefsRes struct {
	Total   uint64              `json:"total"`
	Devices []sources.DeviceRef `json:"devices"`
}

func (res deviceRefsRes) Code() int {
	return http.StatusOK
}

func (res deviceRefsRes) Headers() map[string]string {
	return map[string]string{}
}

func (res deviceRefsRes) Empty() bool {
	return false
}

type acceptedRes struct{}

func (res acceptedRes) Code() int {
	return http.StatusAccepted
}

func (res acceptedRes) Headers() map[string]string {
	return map[string]string{}
}

func (res acceptedRes) Empty() bool {
	return true
}

type removeRes struct{}

func (res removeRes) Code() int {
	return http.StatusNoContent
}

func (res removeRes) Headers() map[string]string {
	return map[string]string{}
}

func (res removeRes) Empty() bool {
	return true
}

type updateHeadersRes struct{}

func (res updateHeadersRes) Code() int {
	return http.StatusNoContent
}

func (res updateHeadersRes) Headers() map[string]string {
	return map[string]string{}
}

func (res updateHeadersRes) Empty() bool {
	return true
}
