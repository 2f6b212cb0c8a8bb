package repositories

import (
	"context"
	"errors"
	"fmt"

	crdbpgx "github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgxv5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

// PostgresPurchaseRepository provides PostgreSQL-backed persistence for the
// entitlement ledger.
type PostgresPurchaseRepository struct {
	pool db.Pool
}

// NewPostgresPurchaseRepository constructs a purchase repository backed by PostgreSQL.
func NewPostgresPurchaseRepository(pool db.Pool) *PostgresPurchaseRepository {
	return &PostgresPurchaseRepository{pool: pool}
}

// Purchase debits the buyer's wallet and records the entitlement as one
// transaction, retried on serialization conflicts. The wallet update is
// conditional on the balance covering the price, so concurrent purchases by
// the same user cannot overdraw. A pre-existing entitlement short-circuits
// with already=true and no debit.
func (r *PostgresPurchaseRepository) Purchase(ctx context.Context, purchase models.Purchase, price int64) (int64, bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var (
		wallet  int64
		already bool
	)

	err = crdbpgx.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		wallet = 0
		already = false

		var exists bool
		if err := tx.QueryRow(ctx, `
            SELECT EXISTS (
                SELECT 1 FROM purchases WHERE user_id = $1 AND video_id = $2
            )
        `, purchase.UserID, purchase.VideoID).Scan(&exists); err != nil {
			return fmt.Errorf("check existing purchase: %w", err)
		}

		if exists {
			already = true
			if err := tx.QueryRow(ctx, `
                SELECT wallet_balance FROM users WHERE id = $1
            `, purchase.UserID).Scan(&wallet); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return ErrNotFound
				}
				return fmt.Errorf("select wallet balance: %w", err)
			}
			return nil
		}

		row := tx.QueryRow(ctx, `
            UPDATE users
            SET wallet_balance = wallet_balance - $2, updated_at = NOW()
            WHERE id = $1 AND wallet_balance >= $2
            RETURNING wallet_balance
        `, purchase.UserID, price)
		if err := row.Scan(&wallet); err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("debit wallet: %w", err)
			}
			// Either the user is gone or the balance cannot cover the price.
			var found bool
			if err := tx.QueryRow(ctx, `
                SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)
            `, purchase.UserID).Scan(&found); err != nil {
				return fmt.Errorf("check user exists: %w", err)
			}
			if !found {
				return ErrNotFound
			}
			return ErrInsufficientFunds
		}

		if _, err := tx.Exec(ctx, `
            INSERT INTO purchases (id, user_id, video_id, purchased_at)
            VALUES ($1, $2, $3, $4)
        `, purchase.ID, purchase.UserID, purchase.VideoID, purchase.PurchasedAt); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrConflict
			}
			return fmt.Errorf("insert purchase: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, false, err
	}

	return wallet, already, nil
}

// HasPurchased reports whether an entitlement record exists for the pair.
func (r *PostgresPurchaseRepository) HasPurchased(ctx context.Context, userID, videoID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	row := conn.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM purchases WHERE user_id = $1 AND video_id = $2
        )
    `, userID, videoID)
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("select purchase: %w", err)
	}

	return exists, nil
}

var _ PurchaseRepository = (*PostgresPurchaseRepository)(nil)
