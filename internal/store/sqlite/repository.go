// Package sqlite persists transactions in a local SQLite database. It serves
// single-host deployments where a remote document store is not available.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pantry/internal/core"
	"pantry/internal/store"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Insert(ctx context.Context, tx core.Transaction) error {
	var metadata sql.NullString
	if len(tx.Metadata) > 0 {
		raw, err := json.Marshal(tx.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		metadata = sql.NullString{String: string(raw), Valid: true}
	}

	var expiry sql.NullInt64
	if tx.ExpiryDate != nil {
		expiry = sql.NullInt64{Int64: tx.ExpiryDate.UnixMilli(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (
			id, product_id, product_name, category, location, transaction_type,
			quantity_change, previous_quantity, new_quantity, cost, expiry_ms,
			user_id, user_name, group_id, timestamp_ms, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.ProductID, tx.ProductName, tx.Category, tx.Location, string(tx.Type),
		tx.QuantityChange, tx.PreviousQuantity, tx.NewQuantity, tx.Cost, expiry,
		tx.UserID, tx.UserName, tx.GroupID, tx.Timestamp, metadata,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *Repository) Query(ctx context.Context, q store.Query) ([]core.Transaction, error) {
	var (
		conditions = []string{"group_id = ?"}
		args       = []any{q.GroupID}
	)
	if q.Start != nil {
		conditions = append(conditions, "timestamp_ms >= ?")
		args = append(args, q.Start.UnixMilli())
	}
	if q.End != nil {
		conditions = append(conditions, "timestamp_ms <= ?")
		args = append(args, q.End.UnixMilli())
	}

	query := `
		SELECT id, product_id, product_name, category, location, transaction_type,
			quantity_change, previous_quantity, new_quantity, cost, expiry_ms,
			user_id, user_name, group_id, timestamp_ms, metadata
		FROM transactions
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY timestamp_ms DESC`
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		var (
			tx       core.Transaction
			typ      string
			expiry   sql.NullInt64
			metadata sql.NullString
		)
		err := rows.Scan(
			&tx.ID, &tx.ProductID, &tx.ProductName, &tx.Category, &tx.Location, &typ,
			&tx.QuantityChange, &tx.PreviousQuantity, &tx.NewQuantity, &tx.Cost, &expiry,
			&tx.UserID, &tx.UserName, &tx.GroupID, &tx.Timestamp, &metadata,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Type = core.TransactionType(typ)
		if expiry.Valid {
			t := time.UnixMilli(expiry.Int64)
			tx.ExpiryDate = &t
		}
		if metadata.Valid {
			if err := json.Unmarshal([]byte(metadata.String), &tx.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}
