package mqtt

import "context"

// Writer publishes payloads. Value writes through it and tests substitute an in-memory one.
type Writer interface {
	WriteTopic(ctx context.Context, topic string, options WriteOptions, value []byte) error
}

// WriterFunc adapts an ordinary function to a Writer.
type WriterFunc func(ctx context.Context, topic string, options WriteOptions, value []byte) error

func (f WriterFunc) WriteTopic(ctx context.Context, topic string, options WriteOptions, value []byte) error {
	return f(ctx, topic, options, value)
}
