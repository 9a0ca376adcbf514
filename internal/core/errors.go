package core

import "errors"

// Sentinel errors returned by editing operations. Callers match them with
// errors.Is; the wrapped message carries the offending name or id.
var (
	ErrDuplicateName     = errors.New("duplicate name")
	ErrInvalidName       = errors.New("invalid name")
	ErrUnknownType       = errors.New("unknown column type")
	ErrInvalidSettings   = errors.New("invalid settings")
	ErrInvalidValue      = errors.New("invalid value")
	ErrNotFound          = errors.New("not found")
	ErrNoActiveSheet     = errors.New("no active sheet")
	ErrMalformedSaveData = errors.New("malformed save data")
	ErrSaveFileNotFound  = errors.New("save file not found")
)
