package rankcheck

import "errors"

var (
	// ErrUnhealthy means the service did not answer its health check.
	ErrUnhealthy = errors.New("service unhealthy")
	// ErrStatus means an endpoint answered with an unexpected status.
	ErrStatus = errors.New("unexpected status")
	// ErrVerification means at least one consistency check failed.
	ErrVerification = errors.New("verification failed")
)
