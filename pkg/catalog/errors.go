package catalog

import "errors"

var (
	ErrPlanNotFound             = errors.New("catalog: plan not found")
	ErrInvalidPlanConfiguration = errors.New("catalog: invalid plan configuration")
	ErrFailedToLoadPlans        = errors.New("catalog: failed to load plans")
)
