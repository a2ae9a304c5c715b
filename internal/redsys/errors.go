package redsys

import "errors"

var (
	ErrInvalidSignature      = errors.New("redsys: signature verification failed")
	ErrMalformedNotification = errors.New("redsys: malformed notification")
)
