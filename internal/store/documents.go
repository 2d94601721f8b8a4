package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/verdantio/carbonledger/internal/domain"
)

// timeLayout is the stored timestamp format.
const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s.String)
}

// --- Users ---

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (domain.User, error) {
	var (
		u                     domain.User
		consRecalc, sumRecalc sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, country_id, consumption_version, consumption_last_recalc,
		       summary_version, summary_last_recalc
		FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.CountryID, &u.ConsumptionMeta.Version, &consRecalc,
		&u.SummaryMeta.Version, &sumRecalc)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.NotFoundf("user %s", id)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("fetching user %s: %w", id, err)
	}
	if u.ConsumptionMeta.LastRecalculation, err = parseTime(consRecalc); err != nil {
		return domain.User{}, fmt.Errorf("user %s consumption recalc timestamp: %w", id, err)
	}
	if u.SummaryMeta.LastRecalculation, err = parseTime(sumRecalc); err != nil {
		return domain.User{}, fmt.Errorf("user %s summary recalc timestamp: %w", id, err)
	}
	return u, nil
}

// PutUser inserts or replaces a user.
func (s *Store) PutUser(ctx context.Context, u domain.User) error {
	return s.execContext(ctx, `
		INSERT INTO users (id, country_id, consumption_version, consumption_last_recalc,
		                   summary_version, summary_last_recalc)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			country_id              = excluded.country_id,
			consumption_version     = excluded.consumption_version,
			consumption_last_recalc = excluded.consumption_last_recalc,
			summary_version         = excluded.summary_version,
			summary_last_recalc     = excluded.summary_last_recalc
	`, u.ID, u.CountryID, u.ConsumptionMeta.Version, formatTime(u.ConsumptionMeta.LastRecalculation),
		u.SummaryMeta.Version, formatTime(u.SummaryMeta.LastRecalculation))
}

// --- Consumptions ---

// GetConsumption fetches one consumption by id.
func (s *Store) GetConsumption(ctx context.Context, id string) (*domain.Consumption, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM consumptions WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("consumption %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching consumption %s: %w", id, err)
	}
	var c domain.Consumption
	if err := json.Unmarshal([]byte(doc), &c); err != nil {
		return nil, fmt.Errorf("decoding consumption %s: %w", id, err)
	}
	return &c, nil
}

// PutConsumption inserts or replaces a consumption document.
func (s *Store) PutConsumption(ctx context.Context, c *domain.Consumption) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding consumption %s: %w", c.ID, err)
	}
	return s.execContext(ctx, `
		INSERT INTO consumptions (id, user_id, category, doc, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id    = excluded.user_id,
			category   = excluded.category,
			doc        = excluded.doc,
			updated_at = excluded.updated_at
	`, c.ID, c.UserID, string(c.Category), string(doc), formatTime(c.UpdatedAt))
}

// ListConsumptions returns every consumption of a user.
func (s *Store) ListConsumptions(ctx context.Context, userID string) ([]*domain.Consumption, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc FROM consumptions WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing consumptions for user %s: %w", userID, err)
	}
	defer rows.Close()

	var out []*domain.Consumption
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var c domain.Consumption
		if err := json.Unmarshal([]byte(doc), &c); err != nil {
			return nil, fmt.Errorf("decoding consumption for user %s: %w", userID, err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// DeleteConsumption removes a consumption document.
func (s *Store) DeleteConsumption(ctx context.Context, id string) error {
	return s.execContext(ctx, `DELETE FROM consumptions WHERE id = ?`, id)
}

// --- Country metrics ---

// PutCountryMetric appends a country metric snapshot. Snapshots are
// immutable; an id collision replaces the document but the collection
// is conceptually append-only.
func (s *Store) PutCountryMetric(ctx context.Context, m domain.CountryMetric) error {
	if m.ID == "" {
		m.ID = NewID()
	}
	doc, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding country metric %s: %w", m.ID, err)
	}
	return s.execContext(ctx, `
		INSERT INTO country_metrics (id, country_id, valid_from, doc)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			country_id = excluded.country_id,
			valid_from = excluded.valid_from,
			doc        = excluded.doc
	`, m.ID, m.CountryID, formatTime(m.ValidFrom), string(doc))
}

// ListCountryMetrics returns every snapshot for a country, newest
// first.
func (s *Store) ListCountryMetrics(ctx context.Context, countryID string) ([]domain.CountryMetric, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc FROM country_metrics
		WHERE country_id = ? ORDER BY valid_from DESC
	`, countryID)
	if err != nil {
		return nil, fmt.Errorf("listing metrics for country %s: %w", countryID, err)
	}
	defer rows.Close()

	var out []domain.CountryMetric
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var m domain.CountryMetric
		if err := json.Unmarshal([]byte(doc), &m); err != nil {
			return nil, fmt.Errorf("decoding metric for country %s: %w", countryID, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// --- Label structures ---

// PutLabelStructure inserts or replaces a country's threshold document.
func (s *Store) PutLabelStructure(ctx context.Context, ls domain.LabelStructure) error {
	doc, err := json.Marshal(ls)
	if err != nil {
		return fmt.Errorf("encoding label structure %s: %w", ls.CountryID, err)
	}
	return s.execContext(ctx, `
		INSERT INTO label_structures (country_id, doc) VALUES (?, ?)
		ON CONFLICT(country_id) DO UPDATE SET doc = excluded.doc
	`, ls.CountryID, string(doc))
}

// GetLabelStructure fetches a country's threshold document.
func (s *Store) GetLabelStructure(ctx context.Context, countryID string) (domain.LabelStructure, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM label_structures WHERE country_id = ?`, countryID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.LabelStructure{}, domain.NotFoundf("label structure for country %s", countryID)
	}
	if err != nil {
		return domain.LabelStructure{}, fmt.Errorf("fetching label structure %s: %w", countryID, err)
	}
	var ls domain.LabelStructure
	if err := json.Unmarshal([]byte(doc), &ls); err != nil {
		return domain.LabelStructure{}, fmt.Errorf("decoding label structure %s: %w", countryID, err)
	}
	return ls, nil
}

// --- Summaries ---

// PutSummary inserts or replaces one yearly summary document.
func (s *Store) PutSummary(ctx context.Context, summary *domain.ConsumptionSummary) error {
	doc, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encoding summary %s/%d: %w", summary.UserID, summary.Year, err)
	}
	return s.execContext(ctx, `
		INSERT INTO summaries (user_id, year, doc) VALUES (?, ?, ?)
		ON CONFLICT(user_id, year) DO UPDATE SET doc = excluded.doc
	`, summary.UserID, summary.Year, string(doc))
}

// ListSummaries returns every yearly summary of a user.
func (s *Store) ListSummaries(ctx context.Context, userID string) ([]*domain.ConsumptionSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc FROM summaries WHERE user_id = ? ORDER BY year`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing summaries for user %s: %w", userID, err)
	}
	defer rows.Close()

	var out []*domain.ConsumptionSummary
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var sum domain.ConsumptionSummary
		if err := json.Unmarshal([]byte(doc), &sum); err != nil {
			return nil, fmt.Errorf("decoding summary for user %s: %w", userID, err)
		}
		out = append(out, &sum)
	}
	return out, rows.Err()
}

// DeleteSummary removes one yearly summary document.
func (s *Store) DeleteSummary(ctx context.Context, userID string, year int) error {
	return s.execContext(ctx, `DELETE FROM summaries WHERE user_id = ? AND year = ?`, userID, year)
}
