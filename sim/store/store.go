// Package store persists events and their reconstructed kinematics in
// PostgreSQL and serves the read queries behind the gateway.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/collider-sim/collider-sim/sim"
)

// Schema holds the DDL for the three tables the pipeline writes.
const Schema = `
CREATE TABLE IF NOT EXISTS events (
	event_id              TEXT PRIMARY KEY,
	run_number            BIGINT NOT NULL,
	event_number          BIGINT NOT NULL,
	timestamp             TIMESTAMPTZ NOT NULL,
	event_type            TEXT NOT NULL,
	num_particles         INTEGER NOT NULL,
	total_energy          DOUBLE PRECISION NOT NULL,
	center_of_mass_energy DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS event_kinematics (
	event_id        TEXT PRIMARY KEY REFERENCES events (event_id),
	invariant_mass  DOUBLE PRECISION NOT NULL,
	missing_et      DOUBLE PRECISION NOT NULL,
	missing_et_phi  DOUBLE PRECISION NOT NULL,
	scalar_ht       DOUBLE PRECISION NOT NULL,
	leading_jet_pt  DOUBLE PRECISION,
	leading_jet_eta DOUBLE PRECISION,
	leading_jet_phi DOUBLE PRECISION,
	num_jets        INTEGER NOT NULL,
	num_leptons     INTEGER NOT NULL,
	num_photons     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS detector_configs (
	name        TEXT NOT NULL,
	description TEXT,
	config      JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Store wraps a PostgreSQL connection pool.
type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL using a lib/pq DSN and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an existing *sql.DB (tests hand in a mock).
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// StoreEvent writes one event and its kinematics in a single transaction.
// Replayed events are absorbed by ON CONFLICT DO NOTHING on both tables.
func (s *Store) StoreEvent(ctx context.Context, ev *sim.Event, k sim.Kinematics) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO events
			(event_id, run_number, event_number, timestamp, event_type,
			 num_particles, total_energy, center_of_mass_energy)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id) DO NOTHING`,
		ev.EventID, ev.RunNumber, ev.EventNumber, ev.Timestamp, string(ev.Type),
		ev.NumParticles(), ev.TotalEnergy(), ev.COMEnergy)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", ev.EventID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO event_kinematics
			(event_id, invariant_mass, missing_et, missing_et_phi, scalar_ht,
			 leading_jet_pt, leading_jet_eta, leading_jet_phi,
			 num_jets, num_leptons, num_photons)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (event_id) DO NOTHING`,
		k.EventID, k.InvariantMass, k.MissingET, k.MissingETPhi, k.ScalarHT,
		k.LeadingJetPt, k.LeadingJetEta, k.LeadingJetPhi,
		k.NumJets, k.NumLeptons, k.NumPhotons)
	if err != nil {
		return fmt.Errorf("insert kinematics %s: %w", k.EventID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit event %s: %w", ev.EventID, err)
	}
	logrus.Debugf("stored event %s (mass=%.2f GeV, jets=%d)", ev.EventID, k.InvariantMass, k.NumJets)
	return nil
}

// EventSummary is one row of the events table joined with kinematics.
type EventSummary struct {
	EventID      string          `json:"event_id"`
	RunNumber    int64           `json:"run_number"`
	EventNumber  int64           `json:"event_number"`
	Timestamp    time.Time       `json:"timestamp"`
	EventType    string          `json:"event_type"`
	NumParticles int             `json:"num_particles"`
	TotalEnergy  float64         `json:"total_energy"`
	COMEnergy    float64         `json:"center_of_mass_energy"`
	Kinematics   *sim.Kinematics `json:"kinematics,omitempty"`
}

// ListFilter narrows ListEvents and EventCount.
type ListFilter struct {
	Limit            int
	Offset           int
	MinInvariantMass *float64
	MinJets          *int
	RunNumber        *int64
}

const summaryColumns = `
	e.event_id, e.run_number, e.event_number, e.timestamp, e.event_type,
	e.num_particles, e.total_energy, e.center_of_mass_energy,
	k.invariant_mass, k.missing_et, k.missing_et_phi, k.scalar_ht,
	k.leading_jet_pt, k.leading_jet_eta, k.leading_jet_phi,
	k.num_jets, k.num_leptons, k.num_photons`

// GetEventDetail returns one event joined with its kinematics, or nil when
// the id is unknown.
func (s *Store) GetEventDetail(ctx context.Context, eventID string) (*EventSummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT`+summaryColumns+`
		FROM events e
		LEFT JOIN event_kinematics k ON e.event_id = k.event_id
		WHERE e.event_id = $1`, eventID)

	summary, err := scanSummary(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", eventID, err)
	}
	return summary, nil
}

// ListEvents returns a page of events, newest first.
func (s *Store) ListEvents(ctx context.Context, f ListFilter) ([]*EventSummary, error) {
	where, args := f.whereClause()
	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`
		SELECT`+summaryColumns+`
		FROM events e
		LEFT JOIN event_kinematics k ON e.event_id = k.event_id
		%s
		ORDER BY e.timestamp DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []*EventSummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}

// EventCount returns the number of events matching the filter.
func (s *Store) EventCount(ctx context.Context, f ListFilter) (int, error) {
	where, args := f.whereClause()
	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM events e
		LEFT JOIN event_kinematics k ON e.event_id = k.event_id
		%s`, where)

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

// whereClause builds the shared filter predicate with positional parameters.
func (f ListFilter) whereClause() (string, []any) {
	var clauses []string
	var args []any
	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if f.MinInvariantMass != nil {
		add("k.invariant_mass >= $%d", *f.MinInvariantMass)
	}
	if f.MinJets != nil {
		add("k.num_jets >= $%d", *f.MinJets)
	}
	if f.RunNumber != nil {
		add("e.run_number = $%d", *f.RunNumber)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	where := "WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		where += " AND " + c
	}
	return where, args
}

// histogramColumns allowlists the kinematics columns that may be histogrammed.
// Column names never come from user input unchecked.
var histogramColumns = map[string]bool{
	"invariant_mass":  true,
	"missing_et":      true,
	"missing_et_phi":  true,
	"scalar_ht":       true,
	"leading_jet_pt":  true,
	"leading_jet_eta": true,
	"leading_jet_phi": true,
	"num_jets":        true,
	"num_leptons":     true,
	"num_photons":     true,
}

// KinematicsValues returns every non-null value of one allowlisted column,
// optionally restricted to a run.
func (s *Store) KinematicsValues(ctx context.Context, column string, runNumber *int64) ([]float64, error) {
	if !histogramColumns[column] {
		return nil, fmt.Errorf("unknown kinematics column %q", column)
	}

	query := fmt.Sprintf(`
		SELECT k.%s
		FROM event_kinematics k
		JOIN events e ON e.event_id = k.event_id
		WHERE k.%s IS NOT NULL`, column, column)
	var args []any
	if runNumber != nil {
		query += " AND e.run_number = $1"
		args = append(args, *runNumber)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s values: %w", column, err)
	}
	defer rows.Close()

	var values []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan %s value: %w", column, err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// Statistics is the aggregate summary served by the gateway.
type Statistics struct {
	TotalEvents       int     `json:"total_events"`
	TotalRuns         int     `json:"total_runs"`
	EventsWithLeptons int     `json:"events_with_leptons"`
	EventsWithJets    int     `json:"events_with_jets"`
	AvgInvariantMass  float64 `json:"avg_invariant_mass"`
	AvgMissingET      float64 `json:"avg_missing_et"`
}

// GetStatistics computes the aggregate summary in one query.
func (s *Store) GetStatistics(ctx context.Context) (*Statistics, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(DISTINCT e.event_id),
			COUNT(DISTINCT e.run_number),
			COUNT(CASE WHEN k.num_leptons > 0 THEN 1 END),
			COUNT(CASE WHEN k.num_jets > 0 THEN 1 END),
			COALESCE(AVG(k.invariant_mass), 0),
			COALESCE(AVG(k.missing_et), 0)
		FROM events e
		LEFT JOIN event_kinematics k ON e.event_id = k.event_id`)

	var st Statistics
	err := row.Scan(&st.TotalEvents, &st.TotalRuns, &st.EventsWithLeptons,
		&st.EventsWithJets, &st.AvgInvariantMass, &st.AvgMissingET)
	if err != nil {
		return nil, fmt.Errorf("query statistics: %w", err)
	}
	return &st, nil
}

// SaveDetectorConfig stores a detector description as JSONB.
func (s *Store) SaveDetectorConfig(ctx context.Context, cfg *sim.DetectorConfig) error {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal detector config: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO detector_configs (name, description, config)
		VALUES ($1, $2, $3)`,
		cfg.Name, cfg.Description, payload)
	if err != nil {
		return fmt.Errorf("insert detector config %q: %w", cfg.Name, err)
	}
	return nil
}

// ListDetectorConfigs returns every stored detector description, newest first.
func (s *Store) ListDetectorConfigs(ctx context.Context) ([]sim.DetectorConfig, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT config FROM detector_configs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list detector configs: %w", err)
	}
	defer rows.Close()

	var out []sim.DetectorConfig
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan detector config: %w", err)
		}
		var cfg sim.DetectorConfig
		if err := json.Unmarshal(payload, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal detector config: %w", err)
		}
		out = append(out, cfg)
	}
	return out, rows.Err()
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (*EventSummary, error) {
	var e EventSummary
	var (
		invariantMass, missingET, missingETPhi, scalarHT sql.NullFloat64
		leadingPt, leadingEta, leadingPhi                sql.NullFloat64
		numJets, numLeptons, numPhotons                  sql.NullInt64
	)
	err := row.Scan(
		&e.EventID, &e.RunNumber, &e.EventNumber, &e.Timestamp, &e.EventType,
		&e.NumParticles, &e.TotalEnergy, &e.COMEnergy,
		&invariantMass, &missingET, &missingETPhi, &scalarHT,
		&leadingPt, &leadingEta, &leadingPhi,
		&numJets, &numLeptons, &numPhotons)
	if err != nil {
		return nil, err
	}

	// No kinematics row yet: the event was stored without reconstruction.
	if !invariantMass.Valid {
		return &e, nil
	}

	k := sim.Kinematics{
		EventID:       e.EventID,
		InvariantMass: invariantMass.Float64,
		MissingET:     missingET.Float64,
		MissingETPhi:  missingETPhi.Float64,
		ScalarHT:      scalarHT.Float64,
		NumJets:       int(numJets.Int64),
		NumLeptons:    int(numLeptons.Int64),
		NumPhotons:    int(numPhotons.Int64),
	}
	if leadingPt.Valid {
		k.LeadingJetPt = &leadingPt.Float64
		k.LeadingJetEta = &leadingEta.Float64
		k.LeadingJetPhi = &leadingPhi.Float64
	}
	e.Kinematics = &k
	return &e, nil
}
