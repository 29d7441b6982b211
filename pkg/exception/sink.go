package exception

import "github.com/yanun0323/errors"

// Sink errors
var (
	// ErrSinkTransport is returned when the write request never produced a response.
	ErrSinkTransport = errors.New("sink: transport failure")

	// ErrSinkStatus is returned when the sink answered with a non-2xx status.
	ErrSinkStatus = errors.New("sink: unexpected status")

	// ErrSinkUnknownWrite is returned when a write finished without success and without any attempt error.
	ErrSinkUnknownWrite = errors.New("sink: unknown write error")

	ErrSinkEmptyURL = errors.New("sink: empty url")
)
