// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/absmach/scadabind/binding"
	"github.com/absmach/scadabind/internal/api"
	"github.com/absmach/scadabind/logger"
	"github.com/absmach/scadabind/pkg/apiutil"
	"github.com/absmach/scadabind/pkg/errors"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
)

// MakeHandler returns a HTTP handler for node and binding endpoints.
func MakeHandler(svc binding.Service, r *chi.Mux, logger logger.Logger) http.Handler {
	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	r.Route("/nodes", func(r chi.Router) {
		r.Get("/", kithttp.NewServer(
			listNodesEndpoint(svc),
			decodeEmpty,
			api.EncodeResponse,
			opts...,
		).ServeHTTP)

		r.Get("/{nodeID}", kithttp.NewServer(
			viewNodeEndpoint(svc),
			decodeViewNode,
			api.EncodeResponse,
			opts...,
		).ServeHTTP)

		r.Put("/{nodeID}", kithttp.NewServer(
			saveNodeEndpoint(svc),
			decodeSaveNode,
			api.EncodeResponse,
			opts...,
		).ServeHTTP)

		r.Delete("/{nodeID}", kithttp.NewServer(
			removeNodeEndpoint(svc),
			decodeViewNode,
			api.EncodeResponse,
			opts...,
		).ServeHTTP)

		r.Get("/{nodeID}/bindings", kithttp.NewServer(
			nodeBindingsEndpoint(svc),
			decodeViewNode,
			api.EncodeResponse,
			opts...,
		).ServeHTTP)

		r.Put("/{nodeID}/bindings", kithttp.NewServer(
			updateBindingsEndpoint(svc),
			decodeUpdateBindings,
			api.EncodeResponse,
			opts...,
		).ServeHTTP)
	})

	r.Route("/dispatch/{sourceID}", func(r chi.Router) {
		r.Post("/", kithttp.NewServer(
			dispatchEndpoint(svc),
			decodeDispatch,
			api.EncodeResponse,
			opts...,
		).ServeHTTP)

		r.Post("/device", kithttp.NewServer(
			applyDeviceEndpoint(svc),
			decodeApplyDevice,
			api.EncodeResponse,
			opts...,
		).ServeHTTP)
	})

	return r
}

func decodeEmpty(_ context.Context, _ *http.Request) (interface{}, error) {
	return nil, nil
}

func decodeViewNode(_ context.Context, r *http.Request) (interface{}, error) {
	return viewNodeReq{id: chi.URLParam(r, "nodeID")}, nil
}

func decodeSaveNode(_ context.Context, r *http.Request) (interface{}, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Wrap(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	req := saveNodeReq{id: chi.URLParam(r, "nodeID")}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Wrap(apiutil.ErrValidation, errors.Wrap(errors.ErrMalformedEntity, err))
	}

	return req, nil
}

func decodeUpdateBindings(_ context.Context, r *http.Request) (interface{}, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Wrap(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	req := updateBindingsReq{id: chi.URLParam(r, "nodeID")}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Wrap(apiutil.ErrValidation, errors.Wrap(errors.ErrMalformedEntity, err))
	}

	return req, nil
}

func decodeDispatch(_ context.Context, r *http.Request) (interface{}, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Wrap(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	req := dispatchReq{sourceID: chi.URLParam(r, "sourceID")}
	if err := json.NewDecoder(r.Body).Decode(&req.payload); err != nil {
		return nil, errors.Wrap(apiutil.ErrValidation, errors.Wrap(errors.ErrMalformedEntity, err))
	}

	return req, nil
}

func decodeApplyDevice(_ context.Context, r *http.Request) (interface{}, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Wrap(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	req := applyDeviceReq{sourceID: chi.URLParam(r, "sourceID")}
	if err := json.NewDecoder(r.Body).Decode(&req.device); err != nil {
		return nil, errors.Wrap(apiutil.ErrValidation, errors.Wrap(errors.ErrMalformedEntity, err))
	}

	return req, nil
}
