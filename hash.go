package spool

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"hash"

	"golang.org/x/crypto/blake2b"
)

// DomainDescriptor prefixes descriptor bytes before hashing.
// The version suffix allows the canonical encoding to change.
const DomainDescriptor = "spool/descriptor/v1"

// HashAlgo names a fingerprint algorithm.
type HashAlgo string

const (
	// HashBLAKE2b uses BLAKE2b-256. It is the default.
	HashBLAKE2b HashAlgo = "blake2b"

	// HashSHA256 uses SHA-256.
	HashSHA256 HashAlgo = "sha256"

	// HashSHA512 uses SHA-512.
	HashSHA512 HashAlgo = "sha512"
)

// Hasher performs deterministic one-way hashing.
type Hasher interface {
	// Hash returns the hex-encoded digest of data.
	Hash(data []byte) (string, error)
}

// digestHasher adapts a hash constructor to Hasher.
type digestHasher struct {
	newHash func() hash.Hash
}

func (h *digestHasher) Hash(data []byte) (string, error) {
	d := h.newHash()
	d.Write(data)
	return hex.EncodeToString(d.Sum(nil)), nil
}

// BLAKE2bHasher returns a BLAKE2b-256 hasher.
func BLAKE2bHasher() Hasher {
	return &digestHasher{newHash: func() hash.Hash {
		h, _ := blake2b.New256(nil)
		return h
	}}
}

// SHA256Hasher returns a SHA-256 hasher.
func SHA256Hasher() Hasher {
	return &digestHasher{newHash: sha256.New}
}

// SHA512Hasher returns a SHA-512 hasher.
func SHA512Hasher() Hasher {
	return &digestHasher{newHash: sha512.New}
}

var builtinHashers = map[HashAlgo]Hasher{
	HashBLAKE2b: BLAKE2bHasher(),
	HashSHA256:  SHA256Hasher(),
	HashSHA512:  SHA512Hasher(),
}

// HasherFor returns the builtin hasher for algo.
func HasherFor(algo HashAlgo) (Hasher, bool) {
	h, ok := builtinHashers[algo]
	return h, ok
}

// hashWithDomain hashes domain, a 0x00 separator, then data.
func hashWithDomain(h Hasher, domain string, data []byte) (string, error) {
	buf := make([]byte, 0, len(domain)+1+len(data))
	buf = append(buf, domain...)
	buf = append(buf, 0x00)
	buf = append(buf, data...)
	return h.Hash(buf)
}

// canonical returns the little-endian u64 encoding of every token.
func (d Descriptor) canonical() []byte {
	buf := make([]byte, 8*len(d))
	for i, t := range d {
		binary.LittleEndian.PutUint64(buf[8*i:], uint64(t))
	}
	return buf
}

// Fingerprint returns the hex BLAKE2b-256 digest of d under DomainDescriptor.
// Two types share a fingerprint exactly when their descriptors are equal.
func (d Descriptor) Fingerprint() string {
	sum, _ := d.FingerprintWith(builtinHashers[HashBLAKE2b])
	return sum
}

// FingerprintWith hashes d with h under DomainDescriptor.
func (d Descriptor) FingerprintWith(h Hasher) (string, error) {
	return hashWithDomain(h, DomainDescriptor, d.canonical())
}
