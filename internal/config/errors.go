package config

import (
	"errors"

	"github.com/dshills/listview/internal/config/loader"
)

// ErrValidationFailed wraps every validation error.
var ErrValidationFailed = errors.New("invalid configuration")

// ParseError reports a configuration source that could not be decoded.
type ParseError = loader.ParseError
