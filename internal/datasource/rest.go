package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/insightlabs/analytics-dashboard/pkg/logger"
)

// REST fetches rows from an upstream metrics API.
type REST struct {
	baseURL string
	client  *http.Client
	maxRows int
	log     *logger.Logger
}

// NewREST builds a REST provider hitting {baseURL}/metrics.
func NewREST(baseURL string, client *http.Client, maxRows int, log *logger.Logger) *REST {
	if client == nil {
		client = http.DefaultClient
	}
	return &REST{baseURL: baseURL, client: client, maxRows: maxRows, log: log}
}

func (r *REST) Name() string { return "rest" }

// Fetch issues a GET with the serialized filter and normalizes the response
// to the dashboard schema. Transport failures surface as unreachable, non-2xx
// statuses and undecodable bodies as bad responses.
func (r *REST) Fetch(ctx context.Context, p Params) (RowSet, error) {
	endpoint := r.baseURL + "/metrics"
	if query := p.Values().Encode(); query != "" {
		endpoint += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Backend: r.Name(), Kind: KindBadResponse, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &Error{Backend: r.Name(), Kind: KindUnreachable, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Backend: r.Name(), Kind: KindBadResponse, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var raw []Row
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, &Error{Backend: r.Name(), Kind: KindBadResponse, Err: fmt.Errorf("decode body: %w", err)}
	}

	rows := make(RowSet, 0, len(raw))
	for _, row := range raw {
		// Some upstreams send full timestamps; keep the date part only.
		if len(row.Date) > len(DateLayout) {
			row.Date = row.Date[:len(DateLayout)]
		}
		row.Profit = row.Revenue - row.Cost
		rows = append(rows, row)
		if len(rows) >= r.maxRows {
			r.log.WithField("max_rows", r.maxRows).Debug("truncating REST response")
			break
		}
	}

	// The upstream is not trusted to have applied the filter.
	return Apply(rows, p), nil
}
