package universe

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/feval/internal/contracts"
	"github.com/wonny/feval/pkg/database"
	"github.com/wonny/feval/pkg/logger"
)

// Repository reads exclusion flags from data.instrument_flags
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

var _ FlagSource = (*Repository)(nil)

// NewRepository creates a Postgres-backed flag source
func NewRepository(db *database.DB, log *logger.Logger) *Repository {
	return &Repository{db: db, logger: log}
}

// Flags returns every flagged instrument on date
func (r *Repository) Flags(ctx context.Context, date time.Time) (map[string]Flags, error) {
	const query = `
		SELECT code, is_st, is_suspended, limit_up_at_open, is_newly_listed
		FROM data.instrument_flags
		WHERE trade_date = $1
	`
	rows, err := r.db.Pool.Query(ctx, query, contracts.Day(date))
	if err != nil {
		return nil, fmt.Errorf("failed to query instrument flags: %w", err)
	}
	defer rows.Close()

	flags := make(map[string]Flags)
	for rows.Next() {
		var code string
		var f Flags
		if err := rows.Scan(&code, &f.ST, &f.Suspended, &f.LimitUpAtOpen, &f.NewlyListed); err != nil {
			return nil, fmt.Errorf("failed to scan instrument flags: %w", err)
		}
		flags[code] = f
	}
	return flags, rows.Err()
}

// UpsertFlags writes exclusion flags fetched from the vendor
func (r *Repository) UpsertFlags(ctx context.Context, date time.Time, flags map[string]Flags) error {
	const query = `
		INSERT INTO data.instrument_flags
			(code, trade_date, is_st, is_suspended, limit_up_at_open, is_newly_listed, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (code, trade_date)
		DO UPDATE SET is_st = EXCLUDED.is_st,
		              is_suspended = EXCLUDED.is_suspended,
		              limit_up_at_open = EXCLUDED.limit_up_at_open,
		              is_newly_listed = EXCLUDED.is_newly_listed,
		              updated_at = NOW()
	`
	day := contracts.Day(date)
	for code, f := range flags {
		if _, err := r.db.Pool.Exec(ctx, query, code, day, f.ST, f.Suspended, f.LimitUpAtOpen, f.NewlyListed); err != nil {
			return fmt.Errorf("failed to upsert flags for %s: %w", code, err)
		}
	}
	return nil
}
