// Package httpapi binds the HTTP routes and renders the dashboard.
package httpapi

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/insightlabs/analytics-dashboard/internal/auth"
	"github.com/insightlabs/analytics-dashboard/internal/cache"
	"github.com/insightlabs/analytics-dashboard/internal/config"
	"github.com/insightlabs/analytics-dashboard/internal/datasource"
	"github.com/insightlabs/analytics-dashboard/internal/httputil"
	"github.com/insightlabs/analytics-dashboard/internal/metrics"
	"github.com/insightlabs/analytics-dashboard/internal/middleware"
	"github.com/insightlabs/analytics-dashboard/pkg/logger"
)

// handler bundles the HTTP endpoints of the dashboard.
type handler struct {
	cfg  *config.Config
	log  *logger.Logger
	data *cache.Facade
}

// NewRouter wires routes and the middleware chain. /healthz, /metrics and
// /assets/ are reachable without a token; everything else goes through the
// auth gate.
func NewRouter(cfg *config.Config, log *logger.Logger, authn *auth.Authenticator, data *cache.Facade) http.Handler {
	h := &handler{cfg: cfg, log: log, data: data}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/api/data", h.rows).Methods(http.MethodGet)
	r.HandleFunc("/api/summary", h.summary).Methods(http.MethodGet)
	r.HandleFunc("/api/data/export", h.export).Methods(http.MethodGet)
	r.HandleFunc("/", h.index).Methods(http.MethodGet)

	authMW := middleware.NewAuthMiddleware(authn, log, []string{"/healthz", "/metrics"}, []string{"/assets/"})
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, log)

	r.Use(
		middleware.NewTracingMiddleware(log).Handler,
		middleware.NewCORSMiddleware(cfg.AllowedOrigins).Handler,
		middleware.Metrics,
		authMW.Handler,
		limiter.Handler,
	)

	return r
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// resolveParams builds the query parameters for a request, applying
// role-based narrowing and the refresh nonce.
func (h *handler) resolveParams(r *http.Request) datasource.Params {
	p := datasource.ParamsFromQuery(r.URL.Query())

	// Developers only see their own team's rows unless they filtered
	// explicitly.
	if id := middleware.IdentityFrom(r.Context()); id != nil {
		if id.Role == auth.RoleDeveloper && id.Team != "" && len(p.Teams) == 0 {
			p.Teams = []string{id.Team}
		}
	}

	// refresh=1 busts the cache entry for this request.
	if r.URL.Query().Get("refresh") == "1" {
		p.Nonce = uuid.NewString()
	}
	return p
}

func (h *handler) fetch(ctx context.Context, p datasource.Params) (datasource.RowSet, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, h.cfg.HTTPTimeout)
	defer cancel()
	return h.data.GetOrFetch(fetchCtx, p)
}

func (h *handler) rows(w http.ResponseWriter, r *http.Request) {
	p := h.resolveParams(r)
	rows, err := h.fetch(r.Context(), p)
	if err != nil {
		h.writeFetchError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"rows":  rows,
		"count": len(rows),
	})
}

func (h *handler) summary(w http.ResponseWriter, r *http.Request) {
	p := h.resolveParams(r)
	rows, err := h.fetch(r.Context(), p)
	if err != nil {
		h.writeFetchError(w, r, err)
		return
	}

	q := r.URL.Query()
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"summary": datasource.Summarize(rows),
		"groups":  datasource.Aggregate(rows, q.Get("groupby"), q.Get("agg")),
	})
}

func (h *handler) export(w http.ResponseWriter, r *http.Request) {
	p := h.resolveParams(r)
	rows, err := h.fetch(r.Context(), p)
	if err != nil {
		h.writeFetchError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="dashboard_export.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"date", "product", "region", "system", "team", "owner", "status", "revenue", "cost", "profit"})
	for _, row := range rows {
		_ = cw.Write([]string{
			row.Date, row.Product, row.Region, row.System, row.Team, row.Owner, row.Status,
			strconv.FormatFloat(row.Revenue, 'f', 2, 64),
			strconv.FormatFloat(row.Cost, 'f', 2, 64),
			strconv.FormatFloat(row.Profit, 'f', 2, 64),
		})
	}
	cw.Flush()
}

// writeFetchError maps data source failures to client-safe responses. The
// underlying error (which may contain connection strings) is only logged.
func (h *handler) writeFetchError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.WithError(err).WithField("path", r.URL.Path).Error("data fetch failed")

	status := http.StatusInternalServerError
	if datasource.IsKind(err, datasource.KindUnreachable) || datasource.IsKind(err, datasource.KindBadResponse) ||
		datasource.IsKind(err, datasource.KindConnectionFailed) {
		status = http.StatusBadGateway
	}
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}
	httputil.WriteError(w, status, "fetch_failed", "failed to fetch dashboard data")
}

func fmtMoney(x float64) string {
	for _, unit := range []string{"", "K", "M", "B"} {
		if x < 1000 && x > -1000 {
			return fmt.Sprintf("%.0f%s", x, unit)
		}
		x /= 1000
	}
	return fmt.Sprintf("%.0fT", x)
}
