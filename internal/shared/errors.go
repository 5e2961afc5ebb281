package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrTenantMissing occurs when a request carries no tenant context.
	ErrTenantMissing = errors.New("tenant context missing")
)
