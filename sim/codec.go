package sim

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// eventRecord is the JSON wire shape shared with the bus and the store.
// Particles stay raw until decodeParticles normalizes them: two upstream
// producers exist, one emitting the structure-of-arrays object and one
// emitting an array of per-particle rows.
type eventRecord struct {
	EventID      string          `json:"event_id"`
	RunNumber    int64           `json:"run_number"`
	EventNumber  int64           `json:"event_number"`
	Timestamp    time.Time       `json:"timestamp"`
	COMEnergy    float64         `json:"center_of_mass_energy"`
	EventType    string          `json:"event_type"`
	NumParticles int             `json:"num_particles"`
	Particles    json.RawMessage `json:"particles"`
}

// particleRow is the per-particle object shape of the row-oriented producer.
type particleRow struct {
	PDGID  int     `json:"pdg_id"`
	Px     float64 `json:"px"`
	Py     float64 `json:"py"`
	Pz     float64 `json:"pz"`
	Energy float64 `json:"energy"`
	Charge float64 `json:"charge"`
	Mass   float64 `json:"mass"`
}

// EncodeEvent marshals an event into the wire shape, with particles in the
// structure-of-arrays form.
func EncodeEvent(ev *Event) ([]byte, error) {
	particles, err := json.Marshal(ev.Table())
	if err != nil {
		return nil, fmt.Errorf("marshal particles: %w", err)
	}
	return json.Marshal(eventRecord{
		EventID:      ev.EventID,
		RunNumber:    ev.RunNumber,
		EventNumber:  ev.EventNumber,
		Timestamp:    ev.Timestamp,
		COMEnergy:    ev.COMEnergy,
		EventType:    string(ev.Type),
		NumParticles: len(ev.Particles),
		Particles:    particles,
	})
}

// DecodeEvent unmarshals a wire payload, accepting particles in either the
// structure-of-arrays object form or the row-array form, and validates the
// columns against the declared particle count. Shape violations surface as a
// *ShapeError; the caller decides whether to skip or dead-letter the payload.
func DecodeEvent(data []byte) (*Event, error) {
	var rec eventRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}

	table, err := decodeParticles(rec.Particles)
	if err != nil {
		return nil, err
	}
	if err := table.Validate(rec.NumParticles); err != nil {
		return nil, err
	}

	particles := make([]Particle, 0, table.Len())
	for i := 0; i < table.Len(); i++ {
		particles = append(particles, table.Row(i))
	}

	return &Event{
		EventID:     rec.EventID,
		RunNumber:   rec.RunNumber,
		EventNumber: rec.EventNumber,
		Timestamp:   rec.Timestamp,
		COMEnergy:   rec.COMEnergy,
		Type:        EventType(rec.EventType),
		Particles:   particles,
	}, nil
}

// decodeParticles normalizes either particle representation into the
// canonical columnar table. The format branch lives here, at the boundary,
// and nowhere else.
func decodeParticles(raw json.RawMessage) (*ParticleTable, error) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, &ShapeError{Field: "particles", Want: 0, Got: -1}
	}

	if trimmed[0] == '[' {
		var rows []particleRow
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("unmarshal particle rows: %w", err)
		}
		table := NewParticleTable(len(rows))
		for _, r := range rows {
			table.Append(Particle(r))
		}
		return table, nil
	}

	var table ParticleTable
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("unmarshal particle table: %w", err)
	}
	return &table, nil
}
