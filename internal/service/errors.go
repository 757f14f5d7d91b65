// Package service implements the catalog's use cases on top of the
// repository layer: film ranking, recommendations, catalog writes and the
// social graph. Store errors pass through unchanged, so callers test them
// with errors.Is against the repository sentinels; argument errors are
// reported with ErrInvalidArgument.
package service

import "errors"

// ErrInvalidArgument is returned before any store access when a request
// parameter is out of range or unknown, such as a non-positive limit or an
// unsupported sort key.
var ErrInvalidArgument = errors.New("invalid argument")
