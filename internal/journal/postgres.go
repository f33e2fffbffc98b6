package journal

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/idexio/idex-contracts/internal/asset"
)

// Quantities are stored as decimal text: they are 256-bit values, which
// BIGINT cannot hold, and arithmetic on them stays in Go.
const schema = `
CREATE TABLE IF NOT EXISTS transfers (
	id UUID PRIMARY KEY,
	direction TEXT NOT NULL,
	account TEXT NOT NULL,
	destination TEXT NOT NULL DEFAULT '',
	asset TEXT NOT NULL,
	quantity TEXT NOT NULL,
	status TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS transfers_account_asset_idx ON transfers (account, asset);
`

// PostgresRepo persists the journal in Postgres.
type PostgresRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresRepo ensures the journal schema exists and returns the repo.
func NewPostgresRepo(ctx context.Context, pool *pgxpool.Pool) (*PostgresRepo, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to ensure journal schema: %w", err)
	}
	return &PostgresRepo{pool: pool}, nil
}

func (r *PostgresRepo) Create(ctx context.Context, entry Entry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO transfers (id, direction, account, destination, asset, quantity, status, reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID.String(),
		string(entry.Direction),
		hexAddr(entry.Account),
		hexAddr(entry.Destination),
		entry.Asset.String(),
		entry.Quantity.String(),
		string(entry.Status),
		entry.Reason,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transfer %s: %w", entry.ID, err)
	}
	return nil
}

func (r *PostgresRepo) Get(ctx context.Context, id uuid.UUID) (Entry, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, direction, account, destination, asset, quantity, status, reason, created_at, updated_at
		FROM transfers
		WHERE id = $1`, id.String())

	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to load transfer %s: %w", id, err)
	}
	return entry, nil
}

func (r *PostgresRepo) MarkVerified(ctx context.Context, id uuid.UUID) error {
	return r.conclude(ctx, id, StatusVerified, "")
}

func (r *PostgresRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return r.conclude(ctx, id, StatusFailed, reason)
}

func (r *PostgresRepo) conclude(ctx context.Context, id uuid.UUID, status Status, reason string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE transfers
		SET status = $2, reason = $3, updated_at = $4
		WHERE id = $1 AND status = $5`,
		id.String(), string(status), reason, time.Now().UTC(), string(StatusPending))
	if err != nil {
		return fmt.Errorf("failed to conclude transfer %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		entry, err := r.Get(ctx, id)
		if err != nil {
			return err
		}
		return fmt.Errorf("transfer %s is already %s", id, entry.Status)
	}
	return nil
}

func (r *PostgresRepo) BalanceOf(ctx context.Context, account common.Address, a asset.Asset) (*big.Int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT direction, quantity
		FROM transfers
		WHERE account = $1 AND asset = $2 AND status = $3`,
		hexAddr(account), a.String(), string(StatusVerified))
	if err != nil {
		return nil, fmt.Errorf("failed to query balance of %s in %s: %w", account, a, err)
	}
	defer rows.Close()

	balance := big.NewInt(0)
	for rows.Next() {
		var direction, quantity string
		if err := rows.Scan(&direction, &quantity); err != nil {
			return nil, fmt.Errorf("failed to scan balance row: %w", err)
		}
		q, ok := new(big.Int).SetString(quantity, 10)
		if !ok {
			return nil, fmt.Errorf("corrupt quantity %q in journal", quantity)
		}
		if Direction(direction) == DirectionWithdrawal {
			balance.Sub(balance, q)
		} else {
			balance.Add(balance, q)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read balance rows: %w", err)
	}
	return balance, nil
}

// StalePending returns pending transfers created before now minus
// olderThan, oldest first. The watchdog uses it to surface transfers that
// were accepted but never concluded.
func (r *PostgresRepo) StalePending(ctx context.Context, olderThan time.Duration) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, direction, account, destination, asset, quantity, status, reason, created_at, updated_at
		FROM transfers
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at`,
		string(StatusPending), time.Now().UTC().Add(-olderThan))
	if err != nil {
		return nil, fmt.Errorf("failed to query stale transfers: %w", err)
	}
	defer rows.Close()

	var stale []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stale transfer: %w", err)
		}
		stale = append(stale, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stale transfers: %w", err)
	}
	return stale, nil
}

func scanEntry(row pgx.Row) (Entry, error) {
	var (
		idStr, direction, account, destination, assetStr, quantity, status, reason string

		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&idStr, &direction, &account, &destination, &assetStr, &quantity, &status, &reason, &createdAt, &updatedAt); err != nil {
		return Entry{}, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return Entry{}, fmt.Errorf("corrupt id %q: %w", idStr, err)
	}
	a, err := asset.Parse(assetStr)
	if err != nil {
		return Entry{}, fmt.Errorf("corrupt asset %q: %w", assetStr, err)
	}
	q, ok := new(big.Int).SetString(quantity, 10)
	if !ok {
		return Entry{}, fmt.Errorf("corrupt quantity %q", quantity)
	}

	return Entry{
		ID:          id,
		Direction:   Direction(direction),
		Account:     common.HexToAddress(account),
		Destination: common.HexToAddress(destination),
		Asset:       a,
		Quantity:    q,
		Status:      Status(status),
		Reason:      reason,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

func hexAddr(a common.Address) string {
	return strings.ToLower(a.Hex())
}
