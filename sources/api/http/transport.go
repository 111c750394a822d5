// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/absmach/scadabind/internal/api"
	"github.com/absmach/scadabind/logger"
	"github.com/absmach/scadabind/pkg/apiutil"
	"github.com/absmach/scadabind/pkg/errors"
	"github.com/absmach/scadabind/sources"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
)

const (
	typeKey    = "type"
	enabledKey = "enabled"
)

// MakeHandler returns a HTTP handler for data source and device endpoints.
func MakeHandler(svc sources.Service, r *chi.Mux, logger logger.Logger) http.Handler {
	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	r.Route("/sources", func(r chi.Router) {
		r.Post("/", kithttp.NewServer(
			addSourceEndpoint(svc),
			decodeAddSource,
			api.EncodeResponse,
			opts...,
		).ServeHTTP)

		r.Get("/", kithttp.NewServer(
			listSourcesEndpoint(svc),
			decodeListSources,
			api.EncodeResponse,
			opts...,
		).ServeHTTP)

		r.Get("/{sourceID}", kithttp.NewServer(
			viewSourceEndpoint(svc),
			decodeView,
			api.EncodeResponse,
			opts...,
		).ServeHTTP)

		r.Put("/{sourceID}", kithttp.NewServer(
			updateSourceEndpoint(svc),
			decodeUpdateSource,
			api.EncodeResponse,
			opts...,
		).ServeHTTP)

		r.Delete("/{sourceID}", kithttp.NewServer(
			removeSourceEndpoint(svc),
			decodeView,
			api.EncodeResponse,
			opts...,
		).ServeHTTP)

		r.Get("/{sourceID}/devices", kithttp.NewServer(
			sourceDevicesEndpoint(svc),
			decodeView,
			api.EncodeResponse,
			opts...,
		).ServeHTTP)

		r.Post("/{sourceID}/ingest", kithttp.NewServer(
			ingestEndpoint(svc),
			decodePayload,
			api.EncodeResponse,
			opts...,
		).ServeHTTP)

		r.Post("/{sourceID}/send", kithttp.NewServer(
			sendEndpoint(svc),
			decodePayload,
			api.EncodeResponse,
			opts...,
		).ServeHTTP)
	})

	r.Get("/devices", kithttp.NewServer(
		allDevicesEndpoint(svc),
		decodeEmpty,
		api.EncodeResponse,
		opts...,
	).ServeHTTP)

	r.Put("/headers", kithttp.NewServer(
		updateHeadersEndpoint(svc),
		decodeHeaders,
		api.EncodeResponse,
		opts...,
	).ServeHTTP)

	return r
}

func decodeAddSource(_ context.Context, r *http.Request) (interface{}, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Wrap(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req addSourceReq
	if err := json.NewDecoder(r.Body).Decode(&req.DataSource); err != nil {
		return nil, errors.Wrap(apiutil.ErrValidation, errors.Wrap(errors.ErrMalformedEntity, err))
	}

	return req, nil
}

func decodeUpdateSource(_ context.Context, r *http.Request) (interface{}, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Wrap(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	req := updateSourceReq{id: chi.URLParam(r, "sourceID")}
	if err := json.NewDecoder(r.Body).Decode(&req.Update); err != nil {
		return nil, errors.Wrap(apiutil.ErrValidation, errors.Wrap(errors.ErrMalformedEntity, err))
	}

	return req, nil
}

func decodeView(_ context.Context, r *http.Request) (interface{}, error) {
	return viewSourceReq{id: chi.URLParam(r, "sourceID")}, nil
}

func decodeListSources(_ context.Context, r *http.Request) (interface{}, error) {
	t, err := apiutil.ReadStringQuery(r, typeKey, "")
	if err != nil {
		return nil, errors.Wrap(apiutil.ErrValidation, err)
	}

	req := listSourcesReq{}
	if t != "" {
		if req.sourceType, err = sources.ParseType(t); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, errors.Wrap(apiutil.ErrInvalidQueryParams, err))
		}
	}
	if r.URL.Query().Has(enabledKey) {
		enabled, err := apiutil.ReadBoolQuery(r, enabledKey, false)
		if err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}
		req.enabled = &enabled
	}

	return req, nil
}

func decodePayload(_ context.Context, r *http.Request) (interface{}, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Wrap(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	req := payloadReq{id: chi.URLParam(r, "sourceID")}
	if err := json.NewDecoder(r.Body).Decode(&req.payload); err != nil {
		return nil, errors.Wrap(apiutil.ErrValidation, errors.Wrap(errors.ErrMalformedEntity, err))
	}

	return req, nil
}

func decodeHeaders(_ context.Context, r *http.Request) (interface{}, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Wrap(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req headersReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Wrap(apiutil.ErrValidation, errors.Wrap(errors.ErrMalformedEntity, err))
	}

	return req, nil
}

func decodeEmpty(_ context.Context, _ *http.Request) (interface{}, error) {
	return nil, nil
}
