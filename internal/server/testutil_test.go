package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/mdavenport/folio/internal/app"
	"github.com/mdavenport/folio/internal/common"
	"github.com/mdavenport/folio/internal/interfaces"
	"github.com/mdavenport/folio/internal/models"
	"github.com/mdavenport/folio/internal/services/insight"
	"github.com/mdavenport/folio/internal/services/market"
	"github.com/mdavenport/folio/internal/services/portfolio"
)

// memoryStorage is an in-memory StorageManager for handler tests.
type memoryStorage struct {
	mu           sync.Mutex
	users        map[string]*models.User
	portfolios   map[string]*models.Portfolio
	transactions map[string]*models.Transaction
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{
		users:        make(map[string]*models.User),
		portfolios:   make(map[string]*models.Portfolio),
		transactions: make(map[string]*models.Transaction),
	}
}

func (m *memoryStorage) UserStore() interfaces.UserStore               { return m }
func (m *memoryStorage) PortfolioStore() interfaces.PortfolioStore     { return m }
func (m *memoryStorage) TransactionStore() interfaces.TransactionStore { return m }
func (m *memoryStorage) Close() error                                  { return nil }

func (m *memoryStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, fmt.Errorf("user %s: %w", id, interfaces.ErrNotFound)
}

func (m *memoryStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", username, interfaces.ErrNotFound)
}

func (m *memoryStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, interfaces.ErrNotFound)
}

func (m *memoryStorage) SaveUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memoryStorage) DeleteUser(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

func (m *memoryStorage) GetPortfolio(ctx context.Context, id string) (*models.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.portfolios[id]; ok {
		return copyPortfolio(p), nil
	}
	return nil, fmt.Errorf("portfolio %s: %w", id, interfaces.ErrNotFound)
}

func (m *memoryStorage) ListPortfoliosByUser(ctx context.Context, userID string) ([]*models.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Portfolio
	for _, p := range m.portfolios {
		if p.UserID == userID {
			out = append(out, copyPortfolio(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryStorage) SavePortfolio(ctx context.Context, p *models.Portfolio) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.portfolios[p.ID] = copyPortfolio(p)
	return nil
}

func (m *memoryStorage) DeletePortfolio(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.portfolios, id)
	return nil
}

func (m *memoryStorage) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *tx
	m.transactions[tx.ID] = &cp
	return nil
}

func (m *memoryStorage) ListTransactionsByUser(ctx context.Context, userID string) ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Transaction
	for _, tx := range m.transactions {
		if tx.UserID == userID {
			cp := *tx
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memoryStorage) ListTransactionsByPortfolio(ctx context.Context, portfolioID string) ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Transaction
	for _, tx := range m.transactions {
		if tx.PortfolioID == portfolioID {
			cp := *tx
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memoryStorage) DeleteTransactionsByPortfolio(ctx context.Context, portfolioID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for id, tx := range m.transactions {
		if tx.PortfolioID == portfolioID {
			delete(m.transactions, id)
			count++
		}
	}
	return count, nil
}

func copyPortfolio(p *models.Portfolio) *models.Portfolio {
	cp := *p
	cp.Assets = append([]models.Asset(nil), p.Assets...)
	return &cp
}

var _ interfaces.StorageManager = (*memoryStorage)(nil)

// newTestServer builds a Server on in-memory storage with no upstream clients.
// Quotes resolve from the deterministic fallback table.
func newTestServer(t *testing.T) (*Server, *memoryStorage) {
	t.Helper()

	logger := common.NewSilentLogger()
	cfg := common.NewDefaultConfig()

	store := newMemoryStorage()
	marketService := market.NewService(nil, 0, logger)
	portfolioService := portfolio.NewService(store, marketService, logger)
	insightService := insight.NewService(marketService, nil, logger)

	a := &app.App{
		Config:           cfg,
		Logger:           logger,
		Storage:          store,
		MarketService:    marketService,
		PortfolioService: portfolioService,
		InsightService:   insightService,
	}

	return NewServer(a), store
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return bytes.NewBuffer(data)
}

// registerAndLogin registers a user through the API and returns an access token.
func registerAndLogin(t *testing.T, srv *Server, username, email, password string) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, map[string]string{
		"username": username,
		"password": password,
	}))
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	if resp.Data.Token == "" {
		t.Fatal("login returned empty token")
	}
	return resp.Data.Token
}

// authedRequest builds a request with a bearer token.
func authedRequest(t *testing.T, method, path, token string, body *bytes.Buffer) *http.Request {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, body)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
