// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"context"

	"github.com/absmach/scadabind/pkg/apiutil"
	"github.com/absmach/scadabind/pkg/errors"
	"github.com/absmach/scadabind/sources"
	"github.com/go-kit/kit/endpoint"
)

func addSourceEndpoint(svc sources.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(addSourceReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		ds, err := svc.Add(ctx, req.DataSource)
		if err != nil {
			return nil, err
		}

		return sourceRes{DataSource: ds, created: true}, nil
	}
}

func updateSourceEndpoint(svc sources.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(updateSourceReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		ds, err := svc.Update(ctx, req.id, req.Update)
		if err != nil {
			return nil, err
		}

		return sourceRes{DataSource: ds}, nil
	}
}

func viewSourceEndpoint(svc sources.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(viewSourceReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		ds, err := svc.Get(ctx, req.id)
		if err != nil {
			return nil, err
		}

		return sourceRes{DataSource: ds}, nil
	}
}

func removeSourceEndpoint(svc sources.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(viewSourceReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		if err := svc.Remove(ctx, req.id); err != nil {
			return nil, err
		}

		return removeRes{}, nil
	}
}

func listSourcesEndpoint(svc sources.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(listSourcesReq)

		all, err := svc.All(ctx)
		if err != nil {
			return nil, err
		}

		res := sourcesPageRes{Sources: []sources.DataSource{}}
		for _, ds := range all {
			if req.sourceType != "" && ds.Type != req.sourceType {
				continue
			}
			if req.enabled != nil && ds.Enabled != *req.enabled {
				continue
			}
			res.Sources = append(res.Sources, ds)
		}
		res.Total = uint64(len(res.Sources))

		return res, nil
	}
}

func sourceDevicesEndpoint(svc sources.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(viewSourceReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		devices, err := svc.Devices(ctx, req.id)
		if err != nil {
			return nil, err
		}

		return devicesRes{Devices: devices}, nil
	}
}

func allDevicesEndpoint(svc sources.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ interface{}) (interface{}, error) {
		refs, err := svc.AllDevices(ctx)
		if err != nil {
			return nil, err
		}

		return deviceRefsRes{Total: uint64(len(refs)), Devices: refs}, nil
	}
}

func ingestEndpoint(svc sources.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(payloadReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		if err := svc.Ingest(ctx, req.id, req.payload); err != nil {
			return nil, err
		}

		return acceptedRes{}, nil
	}
}

func sendEndpoint(svc sources.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(payloadReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		if err := svc.Send(ctx, req.id, req.payload); err != nil {
			return nil, err
		}

		return acceptedRes{}, nil
	}
}

func updateHeadersEndpoint(svc sources.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(headersReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		if err := svc.SetGlobalHTTPHeaders(ctx, req.Headers); err != nil {
			return nil, err
		}

		return updateHeadersRes{}, nil
	}
}
