// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"net/http"

	"github.com/absmach/scadabind"
	"github.com/absmach/scadabind/binding"
)

var (
	_ scadabind.Response = (*nodeRes)(nil)
	_ scadabind.Response = (*nodesRes)(nil)
	_ scadabind.Response = (*bindingsRes)(nil)
	_ scadabind.Response = (*dispatchRes)(nil)
	_ scadabind.Response = (*emptyRes)(nil)
)

type nodeRes struct {
	binding.Node
}

func (res nodeRes) Code() int {
	return http.StatusOK
}

func (res nodeRes) Headers() map[string]string {
	return map[string]string{}
}

func (res nodeRes) Empty() bool {
	return false
}

type nodesRes struct {
	Total uint64         `json:"total"`
	Nodes []binding.Node `json:"nodes"`
}

func (res nodesRes) Code() int {
	return http.StatusOK
}

func (res nodesRes) Headers() map[string]string {
	return map[string]string{}
}

func (res nodesRes) Empty() bool {
	return false
}

type bindingsRes struct {
	Bindings []binding.Binding `json:"bindings"`
}

func (res bindingsRes) Code() int {
	return http.StatusOK
}

func (res bindingsRes) Headers() map[string]string {
	return map[string]string{}
}

func (res bindingsRes) Empty() bool {
	return false
}

type dispatchRes struct {
	Updated int `json:"updated"`
}

func (res dispatchRes) Code() int {
	return http.StatusOK
}

func (res dispatchRes) Headers() map[string]string {
	return map[string]string{}
}

func (res dispatchRes) Empty() bool {
	return false
}

type emptyRes struct{}

func (res emptyRes) Code() int {
	return http.StatusNoContent
}

func (res emptyRes) Headers() map[string]string {
	return map[string]string{}
}

func (res emptyRes) Empty() bool {
	return true
}
