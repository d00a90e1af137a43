package db

import (
	"errors"
)

// ErrorInvalidRequest is a user facing error returned by repositories.
var ErrorInvalidRequest = errors.New("invalid request")

// ErrorNotFound is returned by repositories when a query or write matched no
// documents.
var ErrorNotFound = errors.New("not found")
