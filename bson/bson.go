// Package bson provides a BSON codec implementation.
//
// It carries human- or tool-facing documents such as spool.Manifest; object
// graphs themselves use the binary format.
package bson

import (
	"github.com/zoobzio/spool"
	"go.mongodb.org/mongo-driver/bson"
)

// bsonCodec implements spool.Codec for BSON.
type bsonCodec struct{}

// New returns a BSON codec.
func New() spool.Codec {
	return &bsonCodec{}
}

// ContentType returns the MIME type for BSON.
func (c *bsonCodec) ContentType() string {
	return "application/bson"
}

// Marshal encodes v as BSON.
func (c *bsonCodec) Marshal(v any) ([]byte, error) {
	return bson.Marshal(v)
}

// Unmarshal decodes BSON data into v.
func (c *bsonCodec) Unmarshal(data []byte, v any) error {
	return bson.Unmarshal(data, v)
}
