package service

import "errors"

// ErrInvalidRange indicates an ingestion range outside the source rows.
var ErrInvalidRange = errors.New("invalid ingestion range")
