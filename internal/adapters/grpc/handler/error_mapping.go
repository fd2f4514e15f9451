package handler

import (
	"context"
	"errors"

	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/failure"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func toStatusError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, failure.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, failure.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, failure.ErrReferenceNotFound):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, failure.ErrConflict):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, failure.ErrTransient):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
