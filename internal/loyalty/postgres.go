package loyalty

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkdir-username/etlon-coffee/internal/domain/models"
)

// PostgresStore keeps the loyalty ledger in Postgres. Every InTx callback
// runs inside a single transaction; Account takes a FOR UPDATE row lock so
// concurrent redeem/accrue/refund on the same user serialize.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	pgTx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer pgTx.Rollback(ctx)

	if err := fn(&pgTxWrapper{tx: pgTx}); err != nil {
		return err
	}
	if err := pgTx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) History(ctx context.Context, userID int64, limit int) ([]models.PointsHistoryEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, amount, operation, COALESCE(order_id, 0), description, refunded, created_at
		FROM points_history
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query points history: %w", err)
	}
	defer rows.Close()

	var entries []models.PointsHistoryEntry
	for rows.Next() {
		var e models.PointsHistoryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Operation, &e.OrderID,
			&e.Description, &e.Refunded, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type pgTxWrapper struct {
	tx pgx.Tx
}

func (w *pgTxWrapper) Account(ctx context.Context, userID int64) (models.LoyaltyAccount, bool, error) {
	var acc models.LoyaltyAccount
	err := w.tx.QueryRow(ctx, `
		SELECT user_id, points, stamps, total_orders, total_spent
		FROM loyalty
		WHERE user_id = $1
		FOR UPDATE`,
		userID).Scan(&acc.UserID, &acc.Points, &acc.Stamps, &acc.TotalOrders, &acc.TotalSpent)
	if err == pgx.ErrNoRows {
		return models.LoyaltyAccount{}, false, nil
	}
	if err != nil {
		return models.LoyaltyAccount{}, false, fmt.Errorf("failed to read loyalty account: %w", err)
	}
	return acc, true, nil
}

// CreateAccount inserts the row or, when a concurrent transaction beat us
// to it, locks the existing one. The no-op DO UPDATE makes the insert take
// the row lock either way and RETURNING hands back the live balances, so
// callers never proceed on a stale zero-value account.
func (w *pgTxWrapper) CreateAccount(ctx context.Context, userID int64) (models.LoyaltyAccount, error) {
	var acc models.LoyaltyAccount
	err := w.tx.QueryRow(ctx, `
		INSERT INTO loyalty (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, points, stamps, total_orders, total_spent`,
		userID).Scan(&acc.UserID, &acc.Points, &acc.Stamps, &acc.TotalOrders, &acc.TotalSpent)
	if err != nil {
		return models.LoyaltyAccount{}, fmt.Errorf("failed to create loyalty account: %w", err)
	}
	return acc, nil
}

func (w *pgTxWrapper) SaveAccount(ctx context.Context, acc models.LoyaltyAccount) error {
	_, err := w.tx.Exec(ctx, `
		UPDATE loyalty SET
			points = $2,
			stamps = $3,
			total_orders = $4,
			total_spent = $5,
			updated_at = $6
		WHERE user_id = $1`,
		acc.UserID, acc.Points, acc.Stamps, acc.TotalOrders, acc.TotalSpent, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save loyalty account: %w", err)
	}
	return nil
}

func (w *pgTxWrapper) AppendHistory(ctx context.Context, entry models.PointsHistoryEntry) error {
	_, err := w.tx.Exec(ctx, `
		INSERT INTO points_history (user_id, amount, operation, order_id, description)
		VALUES ($1, $2, $3, $4, $5)`,
		entry.UserID, entry.Amount, entry.Operation, entry.OrderID, entry.Description)
	if err != nil {
		return fmt.Errorf("failed to append points history: %w", err)
	}
	return nil
}

func (w *pgTxWrapper) UnrefundedRedemption(ctx context.Context, userID, orderID int64) (models.PointsHistoryEntry, bool, error) {
	var e models.PointsHistoryEntry
	err := w.tx.QueryRow(ctx, `
		SELECT id, user_id, amount, operation, COALESCE(order_id, 0), description, refunded, created_at
		FROM points_history
		WHERE user_id = $1 AND order_id = $2 AND operation = $3 AND NOT refunded
		ORDER BY created_at DESC, id DESC
		LIMIT 1
		FOR UPDATE`,
		userID, orderID, models.OpRedemption).
		Scan(&e.ID, &e.UserID, &e.Amount, &e.Operation, &e.OrderID, &e.Description, &e.Refunded, &e.CreatedAt)
	if err == pgx.ErrNoRows {
		return models.PointsHistoryEntry{}, false, nil
	}
	if err != nil {
		return models.PointsHistoryEntry{}, false, fmt.Errorf("failed to find redemption entry: %w", err)
	}
	return e, true, nil
}

func (w *pgTxWrapper) MarkRefunded(ctx context.Context, entryID int64) error {
	_, err := w.tx.Exec(ctx, `UPDATE points_history SET refunded = TRUE WHERE id = $1`, entryID)
	if err != nil {
		return fmt.Errorf("failed to mark redemption refunded: %w", err)
	}
	return nil
}
