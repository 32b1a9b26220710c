package domain

import "errors"

// Directory fetch failures.
var (
	ErrFetchRequest = errors.New("directory request failed")
	ErrFetchDecode  = errors.New("directory response malformed")
)

// Identity store failures.
var (
	ErrStoreRead   = errors.New("identity store read failed")
	ErrStoreDecode = errors.New("identity store malformed")
	ErrStoreWrite  = errors.New("identity store write failed")
	ErrStoreEncode = errors.New("identity store encode failed")
)

var ErrTemplateRead = errors.New("config template read failed")
var ErrRender = errors.New("config render failed")
var ErrPublish = errors.New("config publish failed")

// ErrUIDExhausted means no uid above the current maximum is left to assign.
var ErrUIDExhausted = errors.New("uid space exhausted")

// ErrInconsistentIdentity means a kept user has no uid after reconciliation.
var ErrInconsistentIdentity = errors.New("user missing from identity record after reconciliation")
