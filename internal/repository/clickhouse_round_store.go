package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ShotTrace/internal/domain/models"
	domrepo "ShotTrace/internal/domain/repository"
	pkgch "ShotTrace/pkg/clickhouse"
	applogger "ShotTrace/pkg/logger"
)

const (
	shotsTable     = "round_shots"
	summariesTable = "round_summaries"
)

// RoundSchema returns the DDL for the round tables. Both are
// ReplacingMergeTree on analyzed_at, so re-analysing a round supersedes the
// earlier rows instead of duplicating them.
func RoundSchema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS ` + shotsTable + ` (
			round_id          String,
			analyzed_at       DateTime64(3, 'UTC'),
			sequence          UInt16,
			shot_id           String,
			hole              Nullable(UInt8),
			shot_number       UInt16,
			shot_type         LowCardinality(String),
			category          LowCardinality(Nullable(String)),
			strokes_gained    Nullable(Float64),
			start_distance    Nullable(Float64),
			start_unit        LowCardinality(String),
			start_lie         LowCardinality(String),
			end_distance      Nullable(Float64),
			end_unit          LowCardinality(String),
			end_lie           LowCardinality(String),
			penalty_strokes   UInt8,
			is_holed          UInt8,
			is_penalty_likely UInt8,
			confidence        Float64,
			needs_review      UInt8,
			payload           String
		) ENGINE = ReplacingMergeTree(analyzed_at)
		ORDER BY (round_id, sequence)`,
		`CREATE TABLE IF NOT EXISTS ` + summariesTable + ` (
			round_id          String,
			analyzed_at       DateTime64(3, 'UTC'),
			total_sg          Float64,
			adjusted_total_sg Float64,
			shot_count        UInt16,
			scored_shot_count UInt16,
			mean_confidence   Float64,
			review_count      UInt16,
			payload           String
		) ENGINE = ReplacingMergeTree(analyzed_at)
		ORDER BY round_id`,
	}
}

// ClickHouseRoundStore keeps one summary row and one row per shot. The
// full JSON documents ride along in payload; the typed columns exist for
// ad-hoc analytics.
type ClickHouseRoundStore struct {
	ch *pkgch.Client
	l  *applogger.Logger
}

func NewClickHouseRoundStore(ch *pkgch.Client) *ClickHouseRoundStore {
	return &ClickHouseRoundStore{ch: ch}
}

// SetLogger injects a structured logger.
func (s *ClickHouseRoundStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *ClickHouseRoundStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, RoundSchema())
}

func (s *ClickHouseRoundStore) Store(ctx context.Context, a *models.RoundAnalysis) error {
	if a == nil || a.RoundID == "" {
		return fmt.Errorf("store round: round id required")
	}
	analyzedAt := a.AnalyzedAt
	if analyzedAt.IsZero() {
		analyzedAt = time.Now().UTC()
	}

	rows := make([][]interface{}, 0, len(a.Shots))
	for i := range a.Shots {
		row, err := shotRow(a.RoundID, analyzedAt, &a.Shots[i])
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	if err := s.ch.InsertBatch(ctx, insertShotsSQL, rows); err != nil {
		s.logErr("clickhouse insert shots", a.RoundID, err)
		return fmt.Errorf("insert shots: %w", err)
	}

	srow, err := summaryRow(a.RoundID, analyzedAt, &a.Summary)
	if err != nil {
		return err
	}
	if err := s.ch.InsertBatch(ctx, insertSummarySQL, [][]interface{}{srow}); err != nil {
		s.logErr("clickhouse insert summary", a.RoundID, err)
		return fmt.Errorf("insert summary: %w", err)
	}
	return nil
}

// Get loads the latest analysis of a round.
func (s *ClickHouseRoundStore) Get(ctx context.Context, roundID string) (*models.RoundAnalysis, error) {
	db := s.ch.DB()

	var (
		analyzedAt time.Time
		payload    string
	)
	err := db.QueryRowContext(ctx,
		`SELECT analyzed_at, payload FROM `+summariesTable+` WHERE round_id = ? ORDER BY analyzed_at DESC LIMIT 1`,
		roundID,
	).Scan(&analyzedAt, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domrepo.ErrRoundNotFound
	}
	if err != nil {
		s.logErr("clickhouse get summary", roundID, err)
		return nil, fmt.Errorf("get summary: %w", err)
	}

	a := &models.RoundAnalysis{RoundID: roundID, AnalyzedAt: analyzedAt.UTC()}
	if err := json.Unmarshal([]byte(payload), &a.Summary); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT payload FROM `+shotsTable+` WHERE round_id = ? AND analyzed_at = ? ORDER BY sequence`,
		roundID, analyzedAt,
	)
	if err != nil {
		s.logErr("clickhouse get shots", roundID, err)
		return nil, fmt.Errorf("get shots: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan shot: %w", err)
		}
		var shot models.DerivedShot
		if err := json.Unmarshal([]byte(p), &shot); err != nil {
			return nil, fmt.Errorf("decode shot: %w", err)
		}
		a.Shots = append(a.Shots, shot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return a, nil
}

func (s *ClickHouseRoundStore) Health(ctx context.Context) error { return s.ch.Health(ctx) }

// Close is a no-op; the pool belongs to the app.
func (s *ClickHouseRoundStore) Close() error { return nil }

func (s *ClickHouseRoundStore) logErr(msg, roundID string, err error) {
	if s.l != nil {
		s.l.Error(msg, applogger.String("round_id", roundID), applogger.Error(err))
	}
}

const insertShotsSQL = `INSERT INTO ` + shotsTable + ` (
	round_id, analyzed_at, sequence, shot_id, hole, shot_number, shot_type, category, strokes_gained,
	start_distance, start_unit, start_lie, end_distance, end_unit, end_lie,
	penalty_strokes, is_holed, is_penalty_likely, confidence, needs_review, payload
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const insertSummarySQL = `INSERT INTO ` + summariesTable + ` (
	round_id, analyzed_at, total_sg, adjusted_total_sg, shot_count, scored_shot_count,
	mean_confidence, review_count, payload
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func shotRow(roundID string, analyzedAt time.Time, s *models.DerivedShot) ([]interface{}, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode shot %s: %w", s.ID, err)
	}
	var hole *uint8
	if h, ok := s.HoleNumber.Get(); ok {
		v := uint8(h)
		hole = &v
	}
	var category *string
	if s.Category != nil {
		c := string(*s.Category)
		category = &c
	}
	return []interface{}{
		roundID,
		analyzedAt,
		uint16(s.Sequence),
		s.ID,
		hole,
		uint16(s.ShotNumber),
		string(s.ShotType.OrZero()),
		category,
		s.StrokesGained,
		s.StartState.DistanceToPin.Value,
		string(s.StartState.DistanceUnit),
		string(s.StartState.Lie.OrZero()),
		s.EndState.DistanceToPin.Value,
		string(s.EndState.DistanceUnit),
		string(s.EndState.Lie.OrZero()),
		uint8(s.PenaltyStrokes),
		boolToUInt8(s.IsHoled),
		boolToUInt8(s.IsPenaltyLikely),
		s.Confidence.Overall,
		boolToUInt8(s.Confidence.NeedsReview),
		string(payload),
	}, nil
}

func summaryRow(roundID string, analyzedAt time.Time, sum *models.RoundSummary) ([]interface{}, error) {
	payload, err := json.Marshal(sum)
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	return []interface{}{
		roundID,
		analyzedAt,
		sum.TotalSG,
		sum.AdjustedTotalSG,
		uint16(sum.ShotCount),
		uint16(sum.ScoredShotCount),
		sum.Confidence.Mean,
		uint16(sum.Confidence.ReviewCount),
		string(payload),
	}, nil
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

var _ domrepo.RoundStorage = (*ClickHouseRoundStore)(nil)
