// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"context"

	"github.com/absmach/scadabind/binding"
	"github.com/absmach/scadabind/pkg/apiutil"
	"github.com/absmach/scadabind/pkg/errors"
	"github.com/go-kit/kit/endpoint"
)

func listNodesEndpoint(svc binding.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ interface{}) (interface{}, error) {
		nodes, err := svc.Nodes(ctx)
		if err != nil {
			return nil, err
		}

		return nodesRes{Total: uint64(len(nodes)), Nodes: nodes}, nil
	}
}

func viewNodeEndpoint(svc binding.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(viewNodeReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		node, err := svc.ViewNode(ctx, req.id)
		if err != nil {
			return nil, err
		}

		return nodeRes{Node: node}, nil
	}
}

func saveNodeEndpoint(svc binding.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(saveNodeReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		node, err := svc.SaveNode(ctx, binding.Node{ID: req.id, Data: req.Data})
		if err != nil {
			return nil, err
		}

		return nodeRes{Node: node}, nil
	}
}

func removeNodeEndpoint(svc binding.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(viewNodeReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		if err := svc.RemoveNode(ctx, req.id); err != nil {
			return nil, err
		}

		return emptyRes{}, nil
	}
}

func nodeBindingsEndpoint(svc binding.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(viewNodeReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		bindings, err := svc.NodeBindings(ctx, req.id)
		if err != nil {
			return nil, err
		}

		return bindingsRes{Bindings: bindings}, nil
	}
}

func updateBindingsEndpoint(svc binding.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(updateBindingsReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		if err := svc.UpdateNodeBindings(ctx, req.id, req.Bindings); err != nil {
			return nil, err
		}

		return emptyRes{}, nil
	}
}

func dispatchEndpoint(svc binding.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(dispatchReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		updated, err := svc.Dispatch(ctx, req.sourceID, req.payload)
		if err != nil {
			return nil, err
		}

		return dispatchRes{Updated: updated}, nil
	}
}

func applyDeviceEndpoint(svc binding.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(applyDeviceReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		updated, err := svc.ApplyDevice(ctx, req.sourceID, req.device)
		if err != nil {
			return nil, err
		}

		return dispatchRes{Updated: updated}, nil
	}
}
