package spool

import "fmt"

// Ownership is the kind of reference through which an object is reached.
type Ownership string

const (
	// OwnershipRaw is a non-owning plain pointer or interface value.
	OwnershipRaw Ownership = "raw"

	// OwnershipUnique is exclusive ownership through Unique.
	OwnershipUnique Ownership = "unique"

	// OwnershipShared is reference-counted ownership through Shared.
	OwnershipShared Ownership = "shared"

	// OwnershipWeak is a non-owning observer of a Shared owner.
	OwnershipWeak Ownership = "weak"
)

// validOwnerships contains all ownership kinds.
var validOwnerships = map[Ownership]bool{
	OwnershipRaw:    true,
	OwnershipUnique: true,
	OwnershipShared: true,
	OwnershipWeak:   true,
}

// IsValidOwnership returns true if o is a known ownership kind.
func IsValidOwnership(o Ownership) bool {
	return validOwnerships[o]
}

// claim folds a new reference of kind want into the ownership already held on
// an identity and returns the resulting holder kind.
//
// Raw observations never change the holder. A raw-only holder is promoted by the
// first owning claim. Weak references claim shared ownership. Unique tolerates no
// other owner, shared tolerates other shared owners.
func claim(held, want Ownership) (Ownership, error) {
	if want == OwnershipWeak {
		want = OwnershipShared
	}
	switch {
	case want == OwnershipRaw:
		return held, nil
	case held == OwnershipRaw:
		return want, nil
	case held == OwnershipShared && want == OwnershipShared:
		return held, nil
	}
	return held, fmt.Errorf("claimed as %s, already held as %s", want, held)
}
