package spool

import (
	"strings"
	"testing"
)

func TestHasherFor(t *testing.T) {
	tests := []struct {
		algo HashAlgo
		hex  int
	}{
		{HashBLAKE2b, 64},
		{HashSHA256, 64},
		{HashSHA512, 128},
	}
	for _, tt := range tests {
		t.Run(string(tt.algo), func(t *testing.T) {
			h, ok := HasherFor(tt.algo)
			if !ok {
				t.Fatalf("HasherFor(%q) not found", tt.algo)
			}
			sum, err := h.Hash([]byte("spool"))
			if err != nil {
				t.Fatalf("Hash() error: %v", err)
			}
			if len(sum) != tt.hex {
				t.Errorf("len(Hash()) = %d, want %d", len(sum), tt.hex)
			}
		})
	}
	if _, ok := HasherFor("md5"); ok {
		t.Error("HasherFor(md5) should not exist")
	}
}

func TestFingerprint(t *testing.T) {
	a := Describe[point]().Fingerprint()
	if a != Describe[point]().Fingerprint() {
		t.Error("Fingerprint() should be deterministic")
	}
	if a == Describe[Tuple2[float64, float64]]().Fingerprint() {
		t.Error("different descriptors should have different fingerprints")
	}
	if strings.Trim(a, "0123456789abcdef") != "" || len(a) != 64 {
		t.Errorf("Fingerprint() = %q, want 64 hex digits", a)
	}
}

func TestFingerprint_DomainSeparated(t *testing.T) {
	d := Describe[int32]()
	h := BLAKE2bHasher()

	plain, _ := h.Hash(d.canonical())
	if d.Fingerprint() == plain {
		t.Error("fingerprint should include the domain prefix")
	}
	sha, err := d.FingerprintWith(SHA256Hasher())
	if err != nil {
		t.Fatalf("FingerprintWith() error: %v", err)
	}
	if sha == d.Fingerprint() {
		t.Error("different hashers should disagree")
	}
}

func TestDescriptor_Canonical(t *testing.T) {
	got := Descriptor{TokenArray, 258}.canonical()
	want := []byte{byte(TokenArray), 0, 0, 0, 0, 0, 0, 0, 2, 1, 0, 0, 0, 0, 0, 0}
	if string(got) != string(want) {
		t.Errorf("canonical() = % x, want % x", got, want)
	}
}
