package services

import "errors"

// ErrNotFound covers lookups for records that do not exist or are owned by
// another user. Handlers map it to 404.
var ErrNotFound = errors.New("not found")
