package exception

import "github.com/yanun0323/errors"

var (
	ErrQueryEmptyAddr = errors.New("query: empty address")
	ErrQueryEmptySQL  = errors.New("query: empty sql")
	ErrQueryClosed    = errors.New("query: client closed")
)
