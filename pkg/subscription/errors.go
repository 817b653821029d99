package subscription

import "errors"

var (
	ErrSubscriptionNotFound      = errors.New("subscription not found")
	ErrSubscriptionAlreadyExists = errors.New("subscription already exists")
	ErrInvalidSubscriptionState  = errors.New("invalid subscription state")
	ErrVersionConflict           = errors.New("subscription version conflict")
	ErrHistoryAppendFailed       = errors.New("failed to append upgrade history")
)
