package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"retail-ops-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

// repositorySet binds the full repository surface to a single dbtx, which is
// either the shared connection pool or an open transaction.
type repositorySet struct {
	products      repositories.ProductRepository
	users         repositories.UserRepository
	orders        repositories.OrderRepository
	demandNotices repositories.DemandNoticeRepository
	quotations    repositories.QuotationRepository
	settings      repositories.SettingsRepository
}

func newRepositorySet(db dbtx, logger *logrus.Logger) repositorySet {
	return repositorySet{
		products:      NewProductRepository(db, logger),
		users:         NewUserRepository(db, logger),
		orders:        NewOrderRepository(db, logger),
		demandNotices: NewDemandNoticeRepository(db, logger),
		quotations:    NewQuotationRepository(db, logger),
		settings:      NewSettingsRepository(db, logger),
	}
}

func (s repositorySet) Products() repositories.ProductRepository          { return s.products }
func (s repositorySet) Users() repositories.UserRepository                { return s.users }
func (s repositorySet) Orders() repositories.OrderRepository              { return s.orders }
func (s repositorySet) DemandNotices() repositories.DemandNoticeRepository { return s.demandNotices }
func (s repositorySet) Quotations() repositories.QuotationRepository      { return s.quotations }
func (s repositorySet) Settings() repositories.SettingsRepository         { return s.settings }

// Manager implements repositories.RepositoryManager over a SQLite database
type Manager struct {
	repositorySet

	db     *sql.DB
	logger *logrus.Logger
}

// NewManager creates a repository manager over an open SQLite connection
func NewManager(db *sql.DB, logger *logrus.Logger) *Manager {
	return &Manager{
		repositorySet: newRepositorySet(db, logger),
		db:            db,
		logger:        logger,
	}
}

// WithTransaction executes fn inside a database transaction. The repository
// set handed to fn routes every query through the transaction, so a returned
// error rolls back all of fn's writes.
func (m *Manager) WithTransaction(ctx context.Context, fn func(repos repositories.Repositories) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return repositories.TransactionError("begin", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				m.logger.WithError(rbErr).Error("Rollback failed during panic recovery")
			}
			panic(p)
		}
	}()

	if err := fn(newRepositorySet(tx, m.logger)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			m.logger.WithError(rbErr).Error("Transaction rollback failed")
			return repositories.TransactionError("rollback", fmt.Errorf("%v (original error: %w)", rbErr, err))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return repositories.TransactionError("commit", err)
	}

	return nil
}

// Close closes the underlying database connection
func (m *Manager) Close() error {
	return m.db.Close()
}

// Health verifies the database connection is alive
func (m *Manager) Health(ctx context.Context) error {
	if err := m.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
