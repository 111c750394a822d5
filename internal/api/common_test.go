// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/absmach/scadabind"
	"github.com/absmach/scadabind/connectors"
	"github.com/absmach/scadabind/internal/api"
	"github.com/absmach/scadabind/pkg/apiutil"
	"github.com/absmach/scadabind/pkg/errors"
	"github.com/absmach/scadabind/sources"
	"github.com/stretchr/testify/assert"
)

var _ scadabind.Response = (*response)(nil)

const validUUID = "123e4567-e89b-12d3-a456-000000000001"

type responseWriter struct {
	body       []byte
	statusCode int
	header     http.Header
}

func newResponseWriter() *responseWriter {
	return &responseWriter{
		header: http.Header{},
	}
}

func (w *responseWriter) Header() http.Header {
	return w.header
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body = b
	return 0, nil
}

func (w *responseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
}

func (w *responseWriter) StatusCode() int {
	return w.statusCode
}

func (w *responseWriter) Body() []byte {
	return w.body
}

type response struct {
	code    int
	headers map[string]string
	empty   bool

	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Enabled bool   `json:"enabled"`
}

func (res response) Code() int {
	return res.code
}

func (res response) Headers() map[string]string {
	return res.headers
}

func (res response) Empty() bool {
	return res.empty
}

type body struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
}

func TestEncodeResponse(t *testing.T) {
	validBody := []byte(`{"id":"` + validUUID + `","name":"plc-1","type":"mqtt","enabled":true}` + "\n")

	cases := []struct {
		desc   string
		resp   interface{}
		header http.Header
		code   int
		body   []byte
		err    error
	}{
		{
			desc: "created data source with location",
			resp: response{
				code: http.StatusCreated,
				headers: map[string]string{
					"Location": "/sources/" + validUUID,
				},
				ID:      validUUID,
				Name:    "plc-1",
				Type:    "mqtt",
				Enabled: true,
			},
			header: http.Header{
				"Content-Type": []string{"application/json"},
				"Location":     []string{"/sources/" + validUUID},
			},
			code: http.StatusCreated,
			body: validBody,
			err:  nil,
		},
		{
			desc: "data source without headers",
			resp: response{
				code:    http.StatusOK,
				ID:      validUUID,
				Name:    "plc-1",
				Type:    "mqtt",
				Enabled: true,
			},
			header: http.Header{
				"Content-Type": []string{"application/json"},
			},
			code: http.StatusOK,
			body: validBody,
			err:  nil,
		},
		{
			desc: "data source with custom headers",
			resp: response{
				code: http.StatusOK,
				headers: map[string]string{
					"X-Source-Type": "mqtt",
					"X-Request-Id":  "r-1",
				},
				ID:      validUUID,
				Name:    "plc-1",
				Type:    "mqtt",
				Enabled: true,
			},
			header: http.Header{
				"Content-Type":  []string{"application/json"},
				"X-Source-Type": []string{"mqtt"},
				"X-Request-Id":  []string{"r-1"},
			},
			code: http.StatusOK,
			body: validBody,
			err:  nil,
		},
		{
			desc: "accepted payload with empty body",
			resp: response{
				code:  http.StatusAccepted,
				empty: true,
				ID:    validUUID,
			},
			header: http.Header{
				"Content-Type": []string{"application/json"},
			},
			code: http.StatusAccepted,
			body: []byte(``),
			err:  nil,
		},
		{
			desc: "plain value without response interface",
			resp: struct {
				ID string `json:"id"`
			}{
				ID: validUUID,
			},
			header: http.Header{},
			code:   0,
			body:   []byte(`{"id":"` + validUUID + `"}` + "\n" + ``),
			err:    nil,
		},
	}

	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			responseWriter := newResponseWriter()
			err := api.EncodeResponse(context.Background(), responseWriter, c.resp)
			assert.Equal(t, c.err, err)
			assert.Equal(t, c.header, responseWriter.Header())
			assert.Equal(t, c.code, responseWriter.StatusCode())
			assert.Equal(t, string(c.body), string(responseWriter.Body()))
		})
	}
}

func TestEncodeError(t *testing.T) {
	cases := []struct {
		desc string
		errs []error
		code int
	}{
		{
			desc: "BadRequest",
			errs: []error{
				errors.ErrMalformedEntity,
				errors.ErrEmptyPath,
				apiutil.ErrMissingID,
				apiutil.ErrMissingType,
				apiutil.ErrNameSize,
				apiutil.ErrEmptyList,
				apiutil.ErrMissingPayload,
				apiutil.ErrInvalidQueryParams,
			},
			code: http.StatusBadRequest,
		},
		{
			desc: "BadRequest with validation error",
			errs: []error{
				errors.Wrap(apiutil.ErrValidation, errors.ErrMalformedEntity),
				errors.Wrap(apiutil.ErrValidation, apiutil.ErrMissingID),
				errors.Wrap(apiutil.ErrValidation, apiutil.ErrMissingType),
				errors.Wrap(apiutil.ErrValidation, apiutil.ErrNameSize),
				errors.Wrap(apiutil.ErrValidation, apiutil.ErrMissingPayload),
			},
			code: http.StatusBadRequest,
		},
		{
			desc: "NotFound",
			errs: []error{
				errors.ErrNotFound,
			},
			code: http.StatusNotFound,
		},
		{
			desc: "Conflict",
			errs: []error{
				errors.ErrConflict,
			},
			code: http.StatusConflict,
		},
		{
			desc: "UnsupportedMediaType",
			errs: []error{
				apiutil.ErrUnsupportedContentType,
				errors.ErrUnsupportedContentType,
			},
			code: http.StatusUnsupportedMediaType,
		},
		{
			desc: "UnprocessableEntity",
			errs: []error{
				sources.ErrSendUnsupported,
			},
			code: http.StatusUnprocessableEntity,
		},
		{
			desc: "ServiceUnavailable",
			errs: []error{
				connectors.ErrNotConnected,
			},
			code: http.StatusServiceUnavailable,
		},
		{
			desc: "BadGateway",
			errs: []error{
				connectors.ErrTransport,
			},
			code: http.StatusBadGateway,
		},
		{
			desc: "InternalServerError",
			errs: []error{
				errors.New("test"),
			},
			code: http.StatusInternalServerError,
		},
	}

	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			responseWriter := newResponseWriter()
			for _, err := range c.errs {
				api.EncodeError(context.Background(), err, responseWriter)
				assert.Equal(t, c.code, responseWriter.StatusCode())

				message := body{}
				jerr := json.Unmarshal(responseWriter.Body(), &message)
				assert.NoError(t, jerr)

				var wrapper error
				switch errors.Contains(err, apiutil.ErrValidation) {
				case true:
					wrapper, err = errors.Unwrap(err)
					assert.Equal(t, err.Error(), message.Error)
					assert.Equal(t, wrapper.Error(), message.Message)
				case false:
					assert.Equal(t, err.Error(), message.Message)
				}
			}
		})
	}
}
