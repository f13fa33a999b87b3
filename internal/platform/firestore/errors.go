package firestore

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/MahmoudAkram21/tiamo/internal/repositories"
)

// Classify maps a Firestore gRPC failure onto the storage error kinds the
// wishlist and preference stores understand. Context errors are returned as is.
func Classify(op, key string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	switch status.Code(err) {
	case codes.Canceled:
		return context.Canceled
	case codes.NotFound:
		return repositories.NewNotFoundError(op, key)
	case codes.AlreadyExists, codes.FailedPrecondition, codes.Aborted:
		return repositories.NewConflictError(op, key, err)
	case codes.Unavailable, codes.ResourceExhausted, codes.Internal, codes.DeadlineExceeded:
		return repositories.NewUnavailableError(op, key, err)
	default:
		return repositories.WrapStoreError(op, key, err)
	}
}
