package client

import "errors"

// ErrRemote wraps any remote failure that is not a reachability or
// not-found condition (HTTP 4xx, malformed responses).
var ErrRemote = errors.New("remote api error")
