package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// SQL reads rows from the analytics_facts table.
type SQL struct {
	db      *sql.DB
	maxRows int
}

// NewSQL wraps an open database handle.
func NewSQL(db *sql.DB, maxRows int) *SQL {
	return &SQL{db: db, maxRows: maxRows}
}

func (s *SQL) Name() string { return "sql" }

// OpenDB opens and pings a postgres connection with sane pool limits.
func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, &Error{Backend: "sql", Kind: KindConnectionFailed, Err: err}
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &Error{Backend: "sql", Kind: KindConnectionFailed, Err: err}
	}
	return db, nil
}

// Fetch runs a parameterized query reflecting the filter and scans the
// result into the dashboard schema.
func (s *SQL) Fetch(ctx context.Context, p Params) (RowSet, error) {
	query, args := buildQuery(p, s.maxRows)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &Error{Backend: s.Name(), Kind: KindQueryFailed, Err: err}
	}
	defer rows.Close()

	out := make(RowSet, 0, s.maxRows)
	for rows.Next() {
		var (
			r    Row
			date time.Time
		)
		if err := rows.Scan(&date, &r.Product, &r.Region, &r.System, &r.Team, &r.Owner, &r.Status, &r.Revenue, &r.Cost); err != nil {
			return nil, &Error{Backend: s.Name(), Kind: KindQueryFailed, Err: err}
		}
		r.Date = date.Format(DateLayout)
		r.Profit = r.Revenue - r.Cost
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Backend: s.Name(), Kind: KindQueryFailed, Err: err}
	}
	return out, nil
}

func buildQuery(p Params, maxRows int) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if p.StartDate != "" {
		conds = append(conds, "date >= "+arg(p.StartDate))
	}
	if p.EndDate != "" {
		conds = append(conds, "date <= "+arg(p.EndDate))
	}
	if len(p.Products) > 0 {
		conds = append(conds, "product = ANY("+arg(pq.Array(sortedCopy(p.Products)))+")")
	}
	if len(p.Regions) > 0 {
		conds = append(conds, "region = ANY("+arg(pq.Array(sortedCopy(p.Regions)))+")")
	}
	if len(p.Systems) > 0 {
		conds = append(conds, "system = ANY("+arg(pq.Array(sortedCopy(p.Systems)))+")")
	}
	if len(p.Teams) > 0 {
		conds = append(conds, "team = ANY("+arg(pq.Array(sortedCopy(p.Teams)))+")")
	}
	if p.OwnerQuery != "" {
		conds = append(conds, "owner ILIKE "+arg("%"+p.OwnerQuery+"%"))
	}
	if p.MinProfit != nil {
		conds = append(conds, "(revenue - cost) >= "+arg(*p.MinProfit))
	}

	query := `SELECT CAST(date AS DATE) AS date, product, region, system, team, owner, status,
		revenue::float8 AS revenue, cost::float8 AS cost
	FROM analytics_facts`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date, product LIMIT " + arg(maxRows)

	return query, args
}
