package grpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/simaogato/multibank-backend/internal/domain"
)

// mapError translates core error kinds into gRPC status codes
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrSameAccount),
		errors.Is(err, domain.ErrNoCurrentQuest):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrRemote):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, domain.ErrAlreadyCompleted):
		return status.Error(codes.AlreadyExists, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
