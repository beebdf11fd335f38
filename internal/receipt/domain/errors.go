package domain

import "errors"

var (
	ErrNotFound               = errors.New("receipt_not_found")
	ErrUnknownSnapshotVersion = errors.New("unknown_snapshot_version")
	ErrMalformedSnapshot      = errors.New("malformed_snapshot")
)
