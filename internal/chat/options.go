package chat

// Option is a functional option for configuring Reporter instances.
type Option func(*Reporter)

// WithPrefix replaces the "[peon]" tag written before every message.
func WithPrefix(prefix string) Option {
	return func(r *Reporter) {
		r.prefix = prefix
	}
}

// PlainText disables colors. Useful for logs and deterministic tests.
func PlainText() Option {
	return func(r *Reporter) {
		r.plain = true
	}
}

// WithCapacity bounds the queue; the oldest messages are dropped first.
func WithCapacity(n int) Option {
	return func(r *Reporter) {
		if n > 0 {
			r.capacity = n
		}
	}
}
