package spool

// DefaultMaxLength bounds the element count of a single decoded container.
const DefaultMaxLength = 1 << 26

// config holds settings shared by encoders, decoders, copiers and processors.
type config struct {
	maxLength  uint32
	sortedMaps bool
}

// Option configures an Encoder, Decoder, Copier, Processor or Codec.
type Option func(*config)

// WithMaxLength sets the largest container count a decoder will accept.
// Counts above it fail with ErrLengthLimit before any allocation.
func WithMaxLength(n uint32) Option {
	return func(c *config) {
		c.maxLength = n
	}
}

// WithSortedMaps controls whether map entries are written in key order.
// Sorting is on by default so equal graphs produce equal bytes.
func WithSortedMaps(sorted bool) Option {
	return func(c *config) {
		c.sortedMaps = sorted
	}
}

func newConfig(opts []Option) config {
	c := config{
		maxLength:  DefaultMaxLength,
		sortedMaps: true,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
