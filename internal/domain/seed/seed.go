// Package seed derives independent, reproducible random streams for the
// model roles of a review.
//
// Each role gets its own sub-seed computed from the review seed, the role id
// and the cycle number, so adding, removing or reordering one role never
// shifts the random stream of another.
package seed

import (
	"math/rand"
)

// Role identifies a consumer of randomness.
type Role uint64

// Role ids are part of the persisted reproducibility contract; never renumber.
const (
	RoleFeature    Role = 1
	RoleBalance    Role = 2
	RoleClassifier Role = 3
	RoleQuery      Role = 4
	RolePrior      Role = 5
)

// String returns the role name used in logs and errors.
func (r Role) String() string {
	switch r {
	case RoleFeature:
		return "feature_extraction"
	case RoleBalance:
		return "balance_strategy"
	case RoleClassifier:
		return "classifier"
	case RoleQuery:
		return "query_strategy"
	case RolePrior:
		return "prior"
	default:
		return "unknown"
	}
}

// Derive returns the sub-seed for role at cycle. The XOR of the inputs is
// passed through the splitmix64 finalizer so neighbouring cycles and roles
// produce unrelated streams.
func Derive(base int64, role Role, cycle int) int64 {
	x := uint64(base) ^ (uint64(role) << 56) ^ uint64(cycle)
	return int64(mix(x))
}

func mix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// New returns a generator seeded with s. The math/rand source is stable
// across Go releases and platforms.
func New(s int64) *rand.Rand {
	return rand.New(rand.NewSource(s)) //nolint:gosec // reproducibility, not security
}

// Permutation returns a seeded permutation of 0..n-1.
func Permutation(s int64, n int) []int {
	return New(s).Perm(n)
}
