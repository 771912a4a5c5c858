package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"github.com/mdavenport/folio/internal/common"
	"github.com/mdavenport/folio/internal/interfaces"
	"github.com/mdavenport/folio/internal/models"
)

type TransactionStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewTransactionStore(db *surrealdb.DB, logger *common.Logger) *TransactionStore {
	return &TransactionStore{
		db:     db,
		logger: logger,
	}
}

func (s *TransactionStore) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	// Transactions are append-only; an UPSERT on a fresh UUID is a create.
	sql := "UPSERT type::record('transaction', $id) CONTENT $tx"
	vars := map[string]any{"id": tx.ID, "tx": tx}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.Transaction](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to save transaction after retries: %w", lastErr)
}

func (s *TransactionStore) ListTransactionsByUser(ctx context.Context, userID string) ([]*models.Transaction, error) {
	sql := "SELECT * FROM transaction WHERE userId = $user_id ORDER BY transactionDate DESC"
	vars := map[string]any{"user_id": userID}
	return s.query(ctx, sql, vars)
}

func (s *TransactionStore) ListTransactionsByPortfolio(ctx context.Context, portfolioID string) ([]*models.Transaction, error) {
	sql := "SELECT * FROM transaction WHERE portfolioId = $portfolio_id ORDER BY transactionDate DESC"
	vars := map[string]any{"portfolio_id": portfolioID}
	return s.query(ctx, sql, vars)
}

func (s *TransactionStore) query(ctx context.Context, sql string, vars map[string]any) ([]*models.Transaction, error) {
	results, err := surrealdb.Query[[]models.Transaction](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}

	if results != nil && len(*results) > 0 {
		var mapped []*models.Transaction
		for i := range (*results)[0].Result {
			mapped = append(mapped, &(*results)[0].Result[i])
		}
		return mapped, nil
	}
	return nil, nil
}

func (s *TransactionStore) DeleteTransactionsByPortfolio(ctx context.Context, portfolioID string) (int, error) {
	sql := "DELETE transaction WHERE portfolioId = $portfolio_id RETURN BEFORE"
	vars := map[string]any{"portfolio_id": portfolioID}

	results, err := surrealdb.Query[[]models.Transaction](ctx, s.db, sql, vars)
	if err != nil {
		return 0, fmt.Errorf("failed to delete transactions: %w", err)
	}

	count := 0
	if results != nil && len(*results) > 0 {
		count = len((*results)[0].Result)
	}
	return count, nil
}

var _ interfaces.TransactionStore = (*TransactionStore)(nil)
