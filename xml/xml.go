// Package xml provides a XML codec implementation.
//
// It carries human- or tool-facing documents such as spool.Manifest; object
// graphs themselves use the binary format.
package xml

import (
	"encoding/xml"

	"github.com/zoobzio/spool"
)

// xmlCodec implements spool.Codec for XML.
type xmlCodec struct{}

// New returns a XML codec.
func New() spool.Codec {
	return &xmlCodec{}
}

// ContentType returns the MIME type for XML.
func (c *xmlCodec) ContentType() string {
	return "application/xml"
}

// Marshal encodes v as XML.
func (c *xmlCodec) Marshal(v any) ([]byte, error) {
	return xml.Marshal(v)
}

// Unmarshal decodes XML data into v.
func (c *xmlCodec) Unmarshal(data []byte, v any) error {
	return xml.Unmarshal(data, v)
}
