package grpc

import (
	"errors"

	"github.com/DRSN-tech/storefront/pkg/e"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func GRPCErrorResponse(err error) error {
	switch {
	case errors.Is(err, e.ErrStatusBadRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, e.ErrProductNotFound):
		return status.Error(codes.NotFound, e.ErrProductNotFound.Error())
	case errors.Is(err, e.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, e.ErrUnauthorized.Error())
	default:
		return status.Error(codes.Internal, e.ErrInternalServerError.Error())
	}
}
