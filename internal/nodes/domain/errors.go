package nodes

import "errors"

// ErrKeyNotFound indicates the presented api key is not provisioned.
var ErrKeyNotFound = errors.New("nodes: api key not found")
