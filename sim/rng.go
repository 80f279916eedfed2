package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// === RunKey ===

// RunKey seeds a reproducible generation run. Two runs with the same RunKey
// and identical configuration produce identical event kinematics (event IDs
// and timestamps excepted, which are fresh per run).
type RunKey int64

// NewRunKey creates a RunKey from a seed value.
func NewRunKey(seed int64) RunKey {
	return RunKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemGenerator is the RNG subsystem for event generation.
	// Uses the master seed directly so --seed maps straight onto the
	// single-producer stream.
	SubsystemGenerator = "generator"
)

// SubsystemWorker returns the subsystem name for producer worker N.
// Each concurrent producer confines its own generator instance to its own
// derived stream.
func SubsystemWorker(id int) string {
	return fmt.Sprintf("worker_%d", id)
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula:
//   - For SubsystemGenerator: uses the master seed directly
//   - For all other subsystems: masterSeed XOR fnv1a64(subsystemName)
//
// Thread-safety: NOT thread-safe. Derive all subsystem streams from a single
// goroutine before handing them to workers.
type PartitionedRNG struct {
	key        RunKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a RunKey.
func NewPartitionedRNG(key RunKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	var derivedSeed int64
	if name == SubsystemGenerator {
		derivedSeed = int64(p.key)
	} else {
		derivedSeed = int64(p.key) ^ fnv1a64(name)
	}

	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the RunKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() RunKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
