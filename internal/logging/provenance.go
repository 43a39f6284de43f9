// Package logging keeps the audit trail of computed PMF scores.
package logging

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/evidence"
)

// #region hash
// HashBundle returns the hex sha256 of b's canonical JSON encoding.
func HashBundle(b evidence.Bundle) (string, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("marshal bundle: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// #endregion hash

// #region log-score
// LogScore writes a score entry to the score_log table and returns its id.
func LogScore(db *sql.DB, entry ScoreEntry) (int64, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	resultJSON, err := json.Marshal(entry.Result)
	if err != nil {
		return 0, fmt.Errorf("marshal result: %w", err)
	}
	var hardKill string
	if entry.Result.HardKill != nil {
		hardKill = entry.Result.HardKill.Code
	}

	res, err := db.Exec(
		`INSERT INTO score_log (product_id, input_hash, score, verdict, hard_kill, result_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ProductID,
		entry.InputHash,
		entry.Result.Score,
		string(entry.Result.Verdict),
		nullIfEmpty(hardKill),
		string(resultJSON),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("log score: %w", err)
	}
	return res.LastInsertId()
}

// #endregion log-score

// #region list-scores
// ListScores returns the most recent entries for productID, newest first.
func ListScores(db *sql.DB, productID string, limit int) ([]ScoreEntry, error) {
	rows, err := db.Query(
		`SELECT id, product_id, input_hash, result_json, created_at
		 FROM score_log WHERE product_id = ? ORDER BY id DESC LIMIT ?`, productID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer rows.Close()

	var entries []ScoreEntry
	for rows.Next() {
		var e ScoreEntry
		var resultJSON, createdStr string
		if err := rows.Scan(&e.ID, &e.ProductID, &e.InputHash, &resultJSON, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(resultJSON), &e.Result); err != nil {
			return nil, fmt.Errorf("unmarshal result %d: %w", e.ID, err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion list-scores

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
