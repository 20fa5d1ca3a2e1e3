package redis

import (
	"context"
	"errors"
	"net"

	"github.com/redis/go-redis/v9"

	"github.com/ladiom/kajopo-connect/internal/repository"
)

// translateError maps driver-level failures onto repository sentinels so
// callers never depend on go-redis types. Connectivity failures surface as
// repository.ErrUnavailable so the usecase layer can answer with a retry
// hint instead of a generic failure.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return repository.ErrNotFound
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, redis.ErrClosed) || errors.Is(err, context.DeadlineExceeded) {
		return repository.ErrUnavailable
	}
	return err
}
