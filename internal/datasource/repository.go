package datasource

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"github.com/insightlabs/analytics-dashboard/internal/config"
	"github.com/insightlabs/analytics-dashboard/internal/metrics"
	"github.com/insightlabs/analytics-dashboard/pkg/logger"
)

// Repository is the single data access point for handlers. The backend is
// chosen once at construction from configuration; a backend failure is
// surfaced as-is, never retried against another backend.
type Repository struct {
	provider Provider
	maxRows  int
	log      *logger.Logger
	db       *sql.DB
}

// NewRepository builds the repository for the configured data source. For
// the SQL backend it opens and pings the database.
func NewRepository(cfg *config.Config, log *logger.Logger) (*Repository, error) {
	r := &Repository{maxRows: cfg.MaxRows, log: log}

	switch cfg.DataSource {
	case config.DataSourceREST:
		client := &http.Client{Timeout: cfg.HTTPTimeout}
		r.provider = NewREST(cfg.APIBaseURL, client, cfg.MaxRows, log)
	case config.DataSourceSQL:
		db, err := OpenDB(cfg.DBURL)
		if err != nil {
			return nil, err
		}
		r.db = db
		r.provider = NewSQL(db, cfg.MaxRows)
	default:
		r.provider = NewSynthetic(cfg.MaxRows, DefaultSeed)
	}

	log.WithField("backend", r.provider.Name()).Info("data source configured")
	return r, nil
}

// NewRepositoryWithProvider wires an explicit provider. Tests use this.
func NewRepositoryWithProvider(p Provider, maxRows int, log *logger.Logger) *Repository {
	return &Repository{provider: p, maxRows: maxRows, log: log}
}

// Backend names the active provider.
func (r *Repository) Backend() string {
	return r.provider.Name()
}

// Fetch delegates to the configured provider and enforces the row cap.
func (r *Repository) Fetch(ctx context.Context, p Params) (RowSet, error) {
	start := time.Now()
	rows, err := r.provider.Fetch(ctx, p)
	metrics.ObserveFetch(r.provider.Name(), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if len(rows) > r.maxRows {
		rows = rows[:r.maxRows]
	}
	return rows, nil
}

// Close releases the database handle held by the SQL backend, if any.
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
