package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	listWalletsSQL = `SELECT hash, name, created_at
    FROM wallets
    ORDER BY created_at;`

	insertWalletSQL = `INSERT INTO wallets (hash, name)
    VALUES ($1, $2)
    ON CONFLICT (hash) DO NOTHING;`

	deleteWalletSQL = `DELETE FROM wallets WHERE hash = $1;`

	countWalletsSQL = `SELECT COUNT(*) FROM wallets;`

	alertExistsSQL = `SELECT EXISTS (
        SELECT 1 FROM alerted_tokens
        WHERE wallet_hash = $1 AND token_address = $2
    );`

	insertAlertSQL = `INSERT INTO alerted_tokens (wallet_hash, token_address)
    VALUES ($1, $2)
    ON CONFLICT (wallet_hash, token_address) DO NOTHING;`

	listAlertsForWalletSQL = `SELECT id, wallet_hash, token_address, created_at
    FROM alerted_tokens
    WHERE wallet_hash = $1
    ORDER BY created_at DESC
    LIMIT $2;`
)

// WalletRegistry defines read and mutation access to monitored wallets.
type WalletRegistry interface {
	ListWallets(ctx context.Context) ([]Wallet, error)
	InsertWallet(ctx context.Context, wallet Wallet) (bool, error)
	DeleteWallet(ctx context.Context, hash string) (bool, error)
	CountWallets(ctx context.Context) (int64, error)
}

// AlertLedger defines the append-only (wallet, token) dedup set.
type AlertLedger interface {
	AlreadyAlerted(ctx context.Context, walletHash, tokenAddress string) (bool, error)
	// RecordAlert inserts the pair. It returns false without error when the
	// pair already exists, which callers must treat as "alerted elsewhere".
	RecordAlert(ctx context.Context, walletHash, tokenAddress string) (bool, error)
	ListAlertsForWallet(ctx context.Context, walletHash string, limit int) ([]AlertRecord, error)
}

// Store aggregates access to the wallet registry and the alert ledger.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// ListWallets returns a snapshot of all registered wallets.
func (s *Store) ListWallets(ctx context.Context) ([]Wallet, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listWalletsSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list wallets: %w", queryErr)
	}
	defer rows.Close()

	wallets := make([]Wallet, 0)
	for rows.Next() {
		var w Wallet
		if scanErr := rows.Scan(&w.Hash, &w.Name, &w.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		wallets = append(wallets, w)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return wallets, nil
}

// InsertWallet registers a wallet. It reports false when the hash already exists.
func (s *Store) InsertWallet(ctx context.Context, wallet Wallet) (bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return false, err
	}

	cmdTag, execErr := pool.Exec(ctx, insertWalletSQL, wallet.Hash, wallet.Name)
	if execErr != nil {
		return false, fmt.Errorf("insert wallet: %w", execErr)
	}
	return cmdTag.RowsAffected() > 0, nil
}

// DeleteWallet removes a wallet. It reports false when no row matched.
func (s *Store) DeleteWallet(ctx context.Context, hash string) (bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return false, err
	}

	cmdTag, execErr := pool.Exec(ctx, deleteWalletSQL, hash)
	if execErr != nil {
		return false, fmt.Errorf("delete wallet: %w", execErr)
	}
	return cmdTag.RowsAffected() > 0, nil
}

// CountWallets counts registered wallets.
func (s *Store) CountWallets(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countWalletsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count wallets: %w", scanErr)
	}
	return count, nil
}

// AlreadyAlerted checks the unique-pair index for an existing alert.
func (s *Store) AlreadyAlerted(ctx context.Context, walletHash, tokenAddress string) (bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return false, err
	}

	var exists bool
	if scanErr := pool.QueryRow(ctx, alertExistsSQL, walletHash, tokenAddress).Scan(&exists); scanErr != nil {
		return false, fmt.Errorf("check alerted pair: %w", scanErr)
	}
	return exists, nil
}

// RecordAlert inserts the (wallet, token) pair. The conditional insert lets the
// unique index arbitrate concurrent writers: zero rows affected means another
// writer recorded the pair first.
func (s *Store) RecordAlert(ctx context.Context, walletHash, tokenAddress string) (bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return false, err
	}

	cmdTag, execErr := pool.Exec(ctx, insertAlertSQL, walletHash, tokenAddress)
	if execErr != nil {
		return false, fmt.Errorf("record alert: %w", execErr)
	}
	return cmdTag.RowsAffected() > 0, nil
}

// ListAlertsForWallet lists the most recent alerts for one wallet.
func (s *Store) ListAlertsForWallet(ctx context.Context, walletHash string, limit int) ([]AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listAlertsForWalletSQL, walletHash, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list alerts: %w", queryErr)
	}
	defer rows.Close()

	alerts := make([]AlertRecord, 0, limit)
	for rows.Next() {
		var rec AlertRecord
		if scanErr := rows.Scan(&rec.ID, &rec.WalletHash, &rec.TokenAddress, &rec.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		alerts = append(alerts, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

var (
	_ WalletRegistry = (*Store)(nil)
	_ AlertLedger    = (*Store)(nil)
)
