package entitlement

import "errors"

var (
	ErrNoProviders      = errors.New("entitlement: no providers configured")
	ErrResolutionFailed = errors.New("entitlement: failed to resolve governing subscription")
)
