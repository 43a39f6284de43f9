// Package store persists PMF evidence in SQLite and materializes it back into
// scoring bundles.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/evidence"
	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/signals"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS products (
	product_id          TEXT PRIMARY KEY,
	name                TEXT,
	committed_price_usd REAL NOT NULL DEFAULT 0,
	signal_quality      REAL NOT NULL DEFAULT 0,
	accelerating        INTEGER NOT NULL DEFAULT 0,
	consistency_json    TEXT,
	created_at          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS flows (
	product_id       TEXT NOT NULL,
	flow_number      INTEGER NOT NULL CHECK (flow_number BETWEEN 1 AND 10),
	data_json        TEXT NOT NULL,
	locked           INTEGER NOT NULL DEFAULT 0,
	penalties        REAL NOT NULL DEFAULT 0 CHECK (penalties >= 0),
	override_applied INTEGER NOT NULL DEFAULT 0,
	updated_at       TEXT NOT NULL,
	PRIMARY KEY (product_id, flow_number),
	FOREIGN KEY (product_id) REFERENCES products(product_id)
);

CREATE TABLE IF NOT EXISTS experiments (
	seq                 INTEGER PRIMARY KEY AUTOINCREMENT,
	experiment_id       TEXT NOT NULL UNIQUE,
	product_id          TEXT NOT NULL,
	hypothesis          TEXT,
	primary_metric_json TEXT,
	kill_condition      TEXT,
	criteria_json       TEXT,
	results_json        TEXT,
	status              TEXT,
	created_at          TEXT NOT NULL,
	FOREIGN KEY (product_id) REFERENCES products(product_id)
);

CREATE TABLE IF NOT EXISTS signals (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	experiment_id  TEXT NOT NULL,
	metric_name    TEXT NOT NULL,
	value          REAL NOT NULL,
	classification TEXT,
	hours_elapsed  REAL NOT NULL,
	created_at     TEXT NOT NULL,
	FOREIGN KEY (experiment_id) REFERENCES experiments(experiment_id)
);

CREATE TABLE IF NOT EXISTS decisions (
	seq               INTEGER PRIMARY KEY AUTOINCREMENT,
	decision_id       TEXT NOT NULL UNIQUE,
	product_id        TEXT NOT NULL,
	experiment_id     TEXT,
	human_decision    TEXT NOT NULL,
	ai_recommendation TEXT,
	override_applied  INTEGER NOT NULL DEFAULT 0,
	override_penalty  REAL NOT NULL DEFAULT 0,
	kill_triggered    INTEGER NOT NULL DEFAULT 0,
	created_at        TEXT NOT NULL,
	FOREIGN KEY (product_id) REFERENCES products(product_id)
);

CREATE TABLE IF NOT EXISTS score_log (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	product_id   TEXT NOT NULL,
	input_hash   TEXT NOT NULL,
	score        INTEGER NOT NULL,
	verdict      TEXT NOT NULL,
	hard_kill    TEXT,
	result_json  TEXT NOT NULL,
	created_at   TEXT NOT NULL
);
`

// #endregion schema

// #region store-struct
// Store manages product evidence in SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations. A nil logger
// discards store logs.
func NewStore(dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, logger: logger.With("component", "store")}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region products
// SaveProduct creates or updates a product. An empty ID gets a new uuid.
func (s *Store) SaveProduct(p Product) (Product, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	consistency, err := marshalOptional(p.Consistency)
	if err != nil {
		return Product{}, fmt.Errorf("marshal consistency: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO products (product_id, name, committed_price_usd, signal_quality, accelerating, consistency_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(product_id) DO UPDATE SET
			name = excluded.name,
			committed_price_usd = excluded.committed_price_usd,
			signal_quality = excluded.signal_quality,
			accelerating = excluded.accelerating,
			consistency_json = excluded.consistency_json`,
		p.ID, nullIfEmpty(p.Name), p.CommittedPriceUSD, p.SignalQualityScore, p.AcceleratingSignals, consistency,
		p.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Product{}, fmt.Errorf("save product: %w", err)
	}
	return s.GetProduct(p.ID)
}

// GetProduct reads one product.
func (s *Store) GetProduct(id string) (Product, error) {
	var p Product
	var name, consistency sql.NullString
	var createdStr string

	err := s.db.QueryRow(
		`SELECT product_id, name, committed_price_usd, signal_quality, accelerating, consistency_json, created_at
		 FROM products WHERE product_id = ?`, id,
	).Scan(&p.ID, &name, &p.CommittedPriceUSD, &p.SignalQualityScore, &p.AcceleratingSignals, &consistency, &createdStr)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product %s: %w", id, err)
	}

	p.Name = name.String
	if consistency.Valid {
		p.Consistency = &evidence.ConsistencyInput{}
		if err := json.Unmarshal([]byte(consistency.String), p.Consistency); err != nil {
			return Product{}, fmt.Errorf("unmarshal consistency: %w", err)
		}
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return p, nil
}

// #endregion products

// #region flows
// SaveFlow upserts a stage record. Once a flow is locked its data can no
// longer change (ErrLockedFlow) and it never unlocks; penalties never
// decrease and an applied override stays applied. A nil Data on an existing
// flow keeps the stored payload. The stored record is returned.
func (s *Store) SaveFlow(productID string, rec evidence.FlowRecord) (evidence.FlowRecord, error) {
	if err := evidence.Validate(rec); err != nil {
		return evidence.FlowRecord{}, err
	}
	if rec.Data != nil && rec.Data.Flow() != rec.FlowNumber {
		return evidence.FlowRecord{}, fmt.Errorf("flow %d carries stage %d payload", rec.FlowNumber, rec.Data.Flow())
	}

	tx, err := s.db.Begin()
	if err != nil {
		return evidence.FlowRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := requireProduct(tx, productID); err != nil {
		return evidence.FlowRecord{}, err
	}

	var prevData string
	var prevLocked, prevOverride bool
	var prevPenalties float64
	err = tx.QueryRow(
		`SELECT data_json, locked, penalties, override_applied FROM flows
		 WHERE product_id = ? AND flow_number = ?`, productID, rec.FlowNumber,
	).Scan(&prevData, &prevLocked, &prevPenalties, &prevOverride)
	exists := true
	if errors.Is(err, sql.ErrNoRows) {
		exists = false
	} else if err != nil {
		return evidence.FlowRecord{}, fmt.Errorf("read flow %d: %w", rec.FlowNumber, err)
	}

	dataJSON, err := json.Marshal(rec.Data)
	if err != nil {
		return evidence.FlowRecord{}, fmt.Errorf("marshal flow %d: %w", rec.FlowNumber, err)
	}
	if exists {
		if rec.Data == nil {
			dataJSON = []byte(prevData)
		}
		if prevLocked && string(dataJSON) != prevData {
			return evidence.FlowRecord{}, fmt.Errorf("flow %d: %w", rec.FlowNumber, ErrLockedFlow)
		}
		rec.Locked = rec.Locked || prevLocked
		rec.OverrideApplied = rec.OverrideApplied || prevOverride
		rec.Penalties = math.Max(rec.Penalties, prevPenalties)
	}

	_, err = tx.Exec(
		`INSERT INTO flows (product_id, flow_number, data_json, locked, penalties, override_applied, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(product_id, flow_number) DO UPDATE SET
			data_json = excluded.data_json,
			locked = excluded.locked,
			penalties = excluded.penalties,
			override_applied = excluded.override_applied,
			updated_at = excluded.updated_at`,
		productID, rec.FlowNumber, string(dataJSON), rec.Locked, rec.Penalties, rec.OverrideApplied,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return evidence.FlowRecord{}, fmt.Errorf("save flow %d: %w", rec.FlowNumber, err)
	}
	if err := tx.Commit(); err != nil {
		return evidence.FlowRecord{}, fmt.Errorf("commit: %w", err)
	}

	s.logger.Debug("flow saved", "product", productID, "flow", rec.FlowNumber, "locked", rec.Locked)

	data, err := evidence.DecodeStageData(rec.FlowNumber, dataJSON)
	if err != nil {
		return evidence.FlowRecord{}, err
	}
	rec.Data = data
	return rec, nil
}

// AddPenalty adds amount to a flow's accumulated penalties.
func (s *Store) AddPenalty(productID string, flowNumber int, amount float64) error {
	if amount < 0 {
		return fmt.Errorf("penalty must be non-negative, got %g", amount)
	}
	res, err := s.db.Exec(
		`UPDATE flows SET penalties = penalties + ?, updated_at = ?
		 WHERE product_id = ? AND flow_number = ?`,
		amount, time.Now().UTC().Format(time.RFC3339Nano), productID, flowNumber,
	)
	if err != nil {
		return fmt.Errorf("add penalty: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("flow %d of %s: %w", flowNumber, productID, ErrNotFound)
	}
	s.logger.Info("penalty added", "product", productID, "flow", flowNumber, "amount", amount)
	return nil
}

// ListFlows returns a product's stage records ordered by flow number.
func (s *Store) ListFlows(productID string) ([]evidence.FlowRecord, error) {
	rows, err := s.db.Query(
		`SELECT flow_number, data_json, locked, penalties, override_applied
		 FROM flows WHERE product_id = ? ORDER BY flow_number`, productID,
	)
	if err != nil {
		return nil, fmt.Errorf("list flows: %w", err)
	}
	defer rows.Close()

	var records []evidence.FlowRecord
	for rows.Next() {
		var rec evidence.FlowRecord
		var dataJSON string
		if err := rows.Scan(&rec.FlowNumber, &dataJSON, &rec.Locked, &rec.Penalties, &rec.OverrideApplied); err != nil {
			return nil, fmt.Errorf("scan flow: %w", err)
		}
		if rec.Data, err = evidence.DecodeStageData(rec.FlowNumber, []byte(dataJSON)); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion flows

// #region experiments
// SaveExperiment creates or updates an experiment. An empty ID gets a new
// uuid. Listing order is creation order.
func (s *Store) SaveExperiment(productID string, exp evidence.ExperimentRecord) (evidence.ExperimentRecord, error) {
	if exp.ID == "" {
		exp.ID = uuid.New().String()
	}
	if err := evidence.Validate(exp); err != nil {
		return evidence.ExperimentRecord{}, err
	}
	if err := requireProduct(s.db, productID); err != nil {
		return evidence.ExperimentRecord{}, err
	}

	metric, err := json.Marshal(exp.PrimaryMetric)
	if err != nil {
		return evidence.ExperimentRecord{}, fmt.Errorf("marshal primary metric: %w", err)
	}
	criteria, err := json.Marshal(exp.Criteria)
	if err != nil {
		return evidence.ExperimentRecord{}, fmt.Errorf("marshal criteria: %w", err)
	}
	results, err := json.Marshal(exp.Results)
	if err != nil {
		return evidence.ExperimentRecord{}, fmt.Errorf("marshal results: %w", err)
	}

	res, err := s.db.Exec(
		`INSERT INTO experiments (experiment_id, product_id, hypothesis, primary_metric_json, kill_condition,
			criteria_json, results_json, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(experiment_id) DO UPDATE SET
			hypothesis = excluded.hypothesis,
			primary_metric_json = excluded.primary_metric_json,
			kill_condition = excluded.kill_condition,
			criteria_json = excluded.criteria_json,
			results_json = excluded.results_json,
			status = excluded.status
		 WHERE experiments.product_id = excluded.product_id`,
		exp.ID, productID, nullIfEmpty(exp.Hypothesis), string(metric), nullIfEmpty(exp.KillCondition),
		string(criteria), string(results), nullIfEmpty(exp.Status), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return evidence.ExperimentRecord{}, fmt.Errorf("save experiment %s: %w", exp.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return evidence.ExperimentRecord{}, fmt.Errorf("save experiment %s: %w", exp.ID, err)
	}
	if n == 0 {
		return evidence.ExperimentRecord{}, fmt.Errorf("experiment %s belongs to another product: %w", exp.ID, ErrExperimentOwner)
	}
	s.logger.Debug("experiment saved", "product", productID, "experiment", exp.ID, "status", exp.Status)
	return exp, nil
}

// ListExperiments returns a product's experiments in creation order.
func (s *Store) ListExperiments(productID string) ([]evidence.ExperimentRecord, error) {
	rows, err := s.db.Query(
		`SELECT experiment_id, hypothesis, primary_metric_json, kill_condition, criteria_json, results_json, status
		 FROM experiments WHERE product_id = ? ORDER BY seq`, productID,
	)
	if err != nil {
		return nil, fmt.Errorf("list experiments: %w", err)
	}
	defer rows.Close()

	var out []evidence.ExperimentRecord
	for rows.Next() {
		var exp evidence.ExperimentRecord
		var hypothesis, killCondition, status, metric, criteria, results sql.NullString
		if err := rows.Scan(&exp.ID, &hypothesis, &metric, &killCondition, &criteria, &results, &status); err != nil {
			return nil, fmt.Errorf("scan experiment: %w", err)
		}
		exp.Hypothesis = hypothesis.String
		exp.KillCondition = killCondition.String
		exp.Status = status.String
		if err := unmarshalOptional(metric, &exp.PrimaryMetric); err != nil {
			return nil, fmt.Errorf("unmarshal primary metric: %w", err)
		}
		if err := unmarshalOptional(criteria, &exp.Criteria); err != nil {
			return nil, fmt.Errorf("unmarshal criteria: %w", err)
		}
		if err := unmarshalOptional(results, &exp.Results); err != nil {
			return nil, fmt.Errorf("unmarshal results: %w", err)
		}
		out = append(out, exp)
	}
	return out, rows.Err()
}

// #endregion experiments

// #region signals
// AppendSignal appends one checkpoint reading. See AppendSignals.
func (s *Store) AppendSignal(rec evidence.SignalRecord) error {
	return s.AppendSignals([]evidence.SignalRecord{rec})
}

// AppendSignals appends checkpoint readings atomically. A vanity metric
// carrying any label but NOISE is rejected with signals.ErrVanityOverride;
// an unlabelled vanity metric is stored as NOISE.
func (s *Store) AppendSignals(recs []evidence.SignalRecord) error {
	for _, rec := range recs {
		if err := evidence.Validate(rec); err != nil {
			return err
		}
		if err := signals.CheckLabel(rec.MetricName, rec.Classification); err != nil {
			return err
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, rec := range recs {
		if err := requireExperiment(tx, rec.ExperimentID); err != nil {
			return err
		}
		label := rec.Classification
		if label == "" && signals.IsVanity(rec.MetricName) {
			label = evidence.Noise
		}
		_, err := tx.Exec(
			`INSERT INTO signals (experiment_id, metric_name, value, classification, hours_elapsed, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			rec.ExperimentID, rec.MetricName, rec.Value, nullIfEmpty(string(label)), rec.HoursElapsed, now,
		)
		if err != nil {
			return fmt.Errorf("append signal %s: %w", rec.MetricName, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("signals appended", "count", len(recs))
	return nil
}

// ListSignals returns every reading of a product's experiments in log order.
func (s *Store) ListSignals(productID string) ([]evidence.SignalRecord, error) {
	rows, err := s.db.Query(
		`SELECT s.experiment_id, s.metric_name, s.value, s.classification, s.hours_elapsed
		 FROM signals s JOIN experiments e ON e.experiment_id = s.experiment_id
		 WHERE e.product_id = ? ORDER BY s.id`, productID,
	)
	if err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}
	defer rows.Close()

	var out []evidence.SignalRecord
	for rows.Next() {
		var rec evidence.SignalRecord
		var label sql.NullString
		if err := rows.Scan(&rec.ExperimentID, &rec.MetricName, &rec.Value, &label, &rec.HoursElapsed); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		rec.Classification = evidence.Classification(label.String)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// #endregion signals

// #region decisions
// RecordDecision appends a human verdict and returns its id.
func (s *Store) RecordDecision(productID string, d evidence.DecisionRecord) (string, error) {
	if err := evidence.Validate(d); err != nil {
		return "", err
	}
	if err := requireProduct(s.db, productID); err != nil {
		return "", err
	}
	if d.ExperimentID != "" {
		if err := requireExperiment(s.db, d.ExperimentID); err != nil {
			return "", err
		}
	}

	id := uuid.New().String()
	_, err := s.db.Exec(
		`INSERT INTO decisions (decision_id, product_id, experiment_id, human_decision, ai_recommendation,
			override_applied, override_penalty, kill_triggered, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, productID, nullIfEmpty(d.ExperimentID), string(d.HumanDecision), nullIfEmpty(string(d.AIRecommendation)),
		d.OverrideApplied, d.OverridePenalty, d.KillTriggered, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("record decision: %w", err)
	}
	if d.OverrideApplied {
		s.logger.Warn("override recorded",
			"product", productID, "experiment", d.ExperimentID,
			"human", d.HumanDecision, "recommended", d.AIRecommendation, "penalty", d.OverridePenalty)
	}
	return id, nil
}

// ListDecisions returns a product's decisions in the order they were made.
func (s *Store) ListDecisions(productID string) ([]evidence.DecisionRecord, error) {
	rows, err := s.db.Query(
		`SELECT experiment_id, human_decision, ai_recommendation, override_applied, override_penalty, kill_triggered
		 FROM decisions WHERE product_id = ? ORDER BY seq`, productID,
	)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var out []evidence.DecisionRecord
	for rows.Next() {
		var d evidence.DecisionRecord
		var expID, ai sql.NullString
		var human string
		if err := rows.Scan(&expID, &human, &ai, &d.OverrideApplied, &d.OverridePenalty, &d.KillTriggered); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		d.ExperimentID = expID.String
		d.HumanDecision = evidence.Decision(human)
		d.AIRecommendation = evidence.Decision(ai.String)
		out = append(out, d)
	}
	return out, rows.Err()
}

// #endregion decisions

// #region bundle
// LoadBundle materializes everything the scoring engine needs for one
// product. AcceleratingSignals is the stored flag; scoring.Enrich can still
// derive it from the signal log when it is false.
func (s *Store) LoadBundle(productID string) (evidence.Bundle, error) {
	p, err := s.GetProduct(productID)
	if err != nil {
		return evidence.Bundle{}, err
	}
	b := evidence.Bundle{
		Consistency:         p.Consistency,
		CommittedPriceUSD:   p.CommittedPriceUSD,
		SignalQualityScore:  p.SignalQualityScore,
		AcceleratingSignals: p.AcceleratingSignals,
	}
	if b.Flows, err = s.ListFlows(productID); err != nil {
		return evidence.Bundle{}, err
	}
	if b.Experiments, err = s.ListExperiments(productID); err != nil {
		return evidence.Bundle{}, err
	}
	if b.Signals, err = s.ListSignals(productID); err != nil {
		return evidence.Bundle{}, err
	}
	if b.Decisions, err = s.ListDecisions(productID); err != nil {
		return evidence.Bundle{}, err
	}
	return b, nil
}

// #endregion bundle

// #region helpers
type queryRower interface {
	QueryRow(query string, args ...any) *sql.Row
}

func requireProduct(q queryRower, productID string) error {
	var n int
	if err := q.QueryRow(`SELECT COUNT(*) FROM products WHERE product_id = ?`, productID).Scan(&n); err != nil {
		return fmt.Errorf("check product: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	return nil
}

func requireExperiment(q queryRower, experimentID string) error {
	var n int
	if err := q.QueryRow(`SELECT COUNT(*) FROM experiments WHERE experiment_id = ?`, experimentID).Scan(&n); err != nil {
		return fmt.Errorf("check experiment: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("experiment %s: %w", experimentID, ErrNotFound)
	}
	return nil
}

func marshalOptional(v *evidence.ConsistencyInput) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func unmarshalOptional(s sql.NullString, v any) error {
	if !s.Valid || s.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(s.String), v)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
