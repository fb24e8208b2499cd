package translate

import "errors"

var (
	ErrNoTranslator  = errors.New("no translator configured")
	ErrEmptyResponse = errors.New("empty translation")
	ErrMissingAPIKey = errors.New("missing api key")
)
