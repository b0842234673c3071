package publisher

// Publisher hands finished odds records and reports to downstream consumers
type Publisher interface {
	// Publish publishes a message under key
	Publish(key string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}
