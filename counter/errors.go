package counter

import "errors"

// ErrUnknownKind is returned by New for a name it does not recognise.
var ErrUnknownKind = errors.New("unknown counter kind")
