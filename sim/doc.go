// Package sim provides the synthetic collision-event engine: stochastic
// event generation, kinematic reconstruction, and the trigger decision.
//
// # Reading Guide
//
// Start with these three files to understand the engine:
//   - generator.go: stochastic event synthesis (dilepton / qcd processes)
//   - kinematics.go: the pure Event -> Kinematics calculation
//   - trigger.go: the threshold-based accept/reject decision
//
// # Architecture
//
// The sim package holds the value types (Particle, Event, Kinematics, the
// columnar ParticleTable) and the pure computation. Everything that talks to
// the outside world lives in sub-packages and calls into here:
//   - sim/bus/: event publish/subscribe over Redis channels
//   - sim/store/: PostgreSQL persistence for events and kinematics
//   - sim/cache/: Redis caching of processed events and live counters
//   - sim/gateway/: REST and WebSocket read surface
//
// The generator is the only stateful piece (run number, event counter, RNG);
// one instance per goroutine. CalculateKinematics and PassesTrigger are pure
// and safe to call concurrently.
//
// Wire payloads carry particles either as a structure-of-arrays object or as
// an array of row objects; codec.go normalizes both into ParticleTable before
// any calculation sees them.
package sim
