package urlnorm

import "errors"

var errMissingHost = errors.New("urlnorm: missing host")
