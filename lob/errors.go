package lob

import "errors"

// Sentinel errors, grounded in the teacher's error.go. Spec §7
// classifies failures as validation / resource / not-found / internal;
// these cover the first three (internal invariant violations are never
// returned to a caller, spec §7, so no sentinel exists for them).
var (
	ErrInvalidQuantity   = errors.New("lob: quantity must be greater than zero")
	ErrDuplicateOrderID  = errors.New("lob: order id already exists")
	ErrOrderNotFound     = errors.New("lob: order not found")
	ErrModifyBelowFilled = errors.New("lob: new quantity is below filled quantity")
	ErrPoolExhausted     = errors.New("lob: order pool allocation failed")
)
