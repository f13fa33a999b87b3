package firestore

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/MahmoudAkram21/tiamo/internal/platform/config"
	"github.com/MahmoudAkram21/tiamo/internal/repositories"
)

func TestClassifyMapsStatusCodes(t *testing.T) {
	cases := []struct {
		code        codes.Code
		notFound    bool
		conflict    bool
		unavailable bool
	}{
		{codes.NotFound, true, false, false},
		{codes.Aborted, false, true, false},
		{codes.Unavailable, false, false, true},
		{codes.DeadlineExceeded, false, false, true},
		{codes.PermissionDenied, false, false, false},
	}
	for _, tc := range cases {
		err := Classify("firestore.get", "sess/wishlist", status.Error(tc.code, "x"))
		var repoErr repositories.RepositoryError
		if !errors.As(err, &repoErr) {
			t.Fatalf("%s: expected a repository error, got %T", tc.code, err)
		}
		if repoErr.IsNotFound() != tc.notFound || repoErr.IsConflict() != tc.conflict || repoErr.IsUnavailable() != tc.unavailable {
			t.Fatalf("%s: unexpected classification %v", tc.code, err)
		}
	}
}

func TestClassifyPassesContextErrors(t *testing.T) {
	if err := Classify("op", "k", context.Canceled); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := Classify("op", "k", status.Error(codes.Canceled, "stop")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected grpc cancel to map to context.Canceled, got %v", err)
	}
	if Classify("op", "k", nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}

func TestProviderRequiresProjectID(t *testing.T) {
	p := NewProvider(config.StoreConfig{})
	if _, err := p.Client(context.Background()); err == nil {
		t.Fatalf("expected missing project id error")
	}
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := p.Client(context.Background()); !errors.Is(err, ErrProviderClosed) {
		t.Fatalf("expected ErrProviderClosed, got %v", err)
	}
}
