package listener

import "errors"

var errMissingID = errors.New("event payload has no id")
