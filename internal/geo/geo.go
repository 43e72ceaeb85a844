// Package geo defines the geolocation capability boundary.
//
// Geolocation is platform-provided: in the web UI the browser resolves the
// caller's position and reports it with the request. The server never treats
// a missing or failed position as an error; generation simply proceeds
// without local grounding.
package geo

import (
	"context"
	"errors"
	"time"

	"github.com/nomadgrid/nomadgrid/internal/log"
)

// ErrUnavailable indicates the caller's position could not be determined
// (denied, unsupported, or not reported with the request).
var ErrUnavailable = errors.New("geolocation unavailable")

// Coordinates is a WGS84 position.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Locator resolves the caller's current position. Implementations must honor
// context cancellation; a single call is made per resolution, no retries.
type Locator interface {
	Locate(ctx context.Context) (Coordinates, error)
}

// LocatorFunc adapts a function to the Locator interface.
type LocatorFunc func(ctx context.Context) (Coordinates, error)

// Locate implements Locator.
func (f LocatorFunc) Locate(ctx context.Context) (Coordinates, error) {
	return f(ctx)
}

// Fixed returns a Locator that always reports c. Used when the client
// already resolved its position and sent it with the request.
func Fixed(c Coordinates) Locator {
	return LocatorFunc(func(context.Context) (Coordinates, error) {
		return c, nil
	})
}

// Unavailable returns a Locator that always fails with ErrUnavailable.
func Unavailable() Locator {
	return LocatorFunc(func(context.Context) (Coordinates, error) {
		return Coordinates{}, ErrUnavailable
	})
}

// Resolve attempts a single best-effort position fix bounded by timeout.
// Any failure is logged at debug level and reported as nil — never as an
// error the caller could surface to the user.
func Resolve(ctx context.Context, l Locator, timeout time.Duration, logger log.Logger) *Coordinates {
	if l == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c, err := l.Locate(ctx)
	if err != nil {
		logger.Debug("geolocation unavailable, proceeding ungrounded", "error", err)
		return nil
	}
	return &c
}
