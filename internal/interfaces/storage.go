// Package interfaces defines the contracts between services, storage and clients.
package interfaces

import (
	"context"
	"errors"

	"github.com/mdavenport/folio/internal/models"
)

// ErrNotFound is returned by stores when a record does not exist.
// Callers check it with errors.Is.
var ErrNotFound = errors.New("record not found")

// UserStore persists user accounts.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id string) error
}

// PortfolioStore persists portfolios with their embedded assets.
type PortfolioStore interface {
	GetPortfolio(ctx context.Context, id string) (*models.Portfolio, error)
	ListPortfoliosByUser(ctx context.Context, userID string) ([]*models.Portfolio, error)
	SavePortfolio(ctx context.Context, portfolio *models.Portfolio) error
	DeletePortfolio(ctx context.Context, id string) error
}

// TransactionStore persists immutable trade records.
type TransactionStore interface {
	SaveTransaction(ctx context.Context, tx *models.Transaction) error
	ListTransactionsByUser(ctx context.Context, userID string) ([]*models.Transaction, error)
	ListTransactionsByPortfolio(ctx context.Context, portfolioID string) ([]*models.Transaction, error)
	DeleteTransactionsByPortfolio(ctx context.Context, portfolioID string) (int, error)
}

// StorageManager provides access to all stores.
type StorageManager interface {
	UserStore() UserStore
	PortfolioStore() PortfolioStore
	TransactionStore() TransactionStore
	Close() error
}
