package exception

import "github.com/yanun0323/errors"

var (
	ErrWriterStopped      = errors.New("pipeline: writer stopped")
	ErrWriterNilSink      = errors.New("pipeline: nil sink")
	ErrWriterNilEncoder   = errors.New("pipeline: nil encoder")
	ErrWriterRunning      = errors.New("pipeline: writer already running")
	ErrPipelineNoProducer = errors.New("pipeline: no producer")
	ErrProducerNilFetcher = errors.New("pipeline: nil fetcher")
	ErrProducerEmptyRange = errors.New("pipeline: empty backfill range")
)
