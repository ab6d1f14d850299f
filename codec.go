package spool

// ContentType is the MIME type of the binary graph format.
const ContentType = "application/x-spool"

// Codec provides content-type aware marshaling.
type Codec interface {
	// ContentType returns the MIME type for this codec (e.g., "application/json").
	ContentType() string

	// Marshal encodes v into bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into v.
	Unmarshal(data []byte, v any) error
}

// binaryCodec adapts the graph encoder to the Codec interface.
// Every call is an independent session.
type binaryCodec struct {
	reg  *Registry
	opts []Option
}

// NewCodec returns a Codec for the binary graph format.
// reg may be nil when no polymorphic references are decoded.
func NewCodec(reg *Registry, opts ...Option) Codec {
	return &binaryCodec{reg: reg, opts: opts}
}

// ContentType returns the MIME type for the binary graph format.
func (c *binaryCodec) ContentType() string {
	return ContentType
}

// Marshal encodes v and everything reachable from it.
func (c *binaryCodec) Marshal(v any) ([]byte, error) {
	return Marshal(c.reg, v, c.opts...)
}

// Unmarshal decodes data into the value v points to.
func (c *binaryCodec) Unmarshal(data []byte, v any) error {
	return Unmarshal(c.reg, data, v, c.opts...)
}
