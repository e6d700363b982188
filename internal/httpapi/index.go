package httpapi

import (
	"html/template"
	"net/http"

	"github.com/insightlabs/analytics-dashboard/internal/auth"
	"github.com/insightlabs/analytics-dashboard/internal/datasource"
	"github.com/insightlabs/analytics-dashboard/internal/middleware"
)

// tableRowLimit bounds the server-rendered table; the full set is available
// via /api/data and the CSV export.
const tableRowLimit = 50

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 24px; color: #222; }
.kpis { display: flex; gap: 16px; margin: 16px 0; }
.kpi-card { border: 1px solid #e0e0e0; border-radius: 8px; padding: 12px 16px; min-width: 160px; background: white; box-shadow: 0 1px 2px rgba(0,0,0,0.04); }
.kpi-label { color: #666; font-size: 13px; }
.kpi-value { font-size: 22px; font-weight: 600; }
table { border-collapse: collapse; width: 100%; }
th, td { border-bottom: 1px solid #eee; padding: 6px 10px; text-align: left; font-size: 14px; }
th { background: #fafafa; }
.muted { color: #666; }
</style>
</head>
<body>
<h2>{{.Title}}</h2>
<div class="muted">Welcome, {{.UserName}} &mdash; Role: {{.Role}}</div>
<div class="kpis">
  <div class="kpi-card"><div class="kpi-label">Rows</div><div class="kpi-value">{{.Summary.Rows}}</div></div>
  <div class="kpi-card"><div class="kpi-label">Revenue</div><div class="kpi-value">{{.Revenue}}</div></div>
  <div class="kpi-card"><div class="kpi-label">Cost</div><div class="kpi-value">{{.Cost}}</div></div>
  <div class="kpi-card"><div class="kpi-label">Profit</div><div class="kpi-value">{{.Profit}}</div></div>
</div>
<table>
<tr><th>Date</th><th>Product</th><th>Region</th><th>System</th><th>Team</th><th>Owner</th><th>Status</th><th>Revenue</th><th>Cost</th><th>Profit</th></tr>
{{range .Rows}}<tr><td>{{.Date}}</td><td>{{.Product}}</td><td>{{.Region}}</td><td>{{.System}}</td><td>{{.Team}}</td><td>{{.Owner}}</td><td>{{.Status}}</td><td>{{printf "%.0f" .Revenue}}</td><td>{{printf "%.0f" .Cost}}</td><td>{{printf "%.0f" .Profit}}</td></tr>
{{end}}</table>
{{if .Truncated}}<p class="muted">Showing first {{len .Rows}} rows. Use /api/data or the CSV export for the full set.</p>{{end}}
</body>
</html>
`))

type indexData struct {
	Title     string
	UserName  string
	Role      string
	Summary   datasource.Summary
	Revenue   string
	Cost      string
	Profit    string
	Rows      datasource.RowSet
	Truncated bool
}

func (h *handler) index(w http.ResponseWriter, r *http.Request) {
	p := h.resolveParams(r)
	rows, err := h.fetch(r.Context(), p)
	if err != nil {
		h.writeFetchError(w, r, err)
		return
	}

	data := indexData{
		Title:    h.cfg.AppTitle,
		UserName: "User",
		Role:     auth.RoleDeveloper,
		Summary:  datasource.Summarize(rows),
		Rows:     rows,
	}
	if id := middleware.IdentityFrom(r.Context()); id != nil {
		data.UserName = id.DisplayName()
		data.Role = id.Role
	}
	data.Revenue = fmtMoney(data.Summary.TotalRevenue)
	data.Cost = fmtMoney(data.Summary.TotalCost)
	data.Profit = fmtMoney(data.Summary.TotalProfit)
	if len(data.Rows) > tableRowLimit {
		data.Rows = data.Rows[:tableRowLimit]
		data.Truncated = true
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, data); err != nil {
		h.log.WithError(err).Error("render dashboard page")
	}
}
