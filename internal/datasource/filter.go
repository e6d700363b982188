package datasource

import (
	"sort"
	"strings"
)

// Apply filters rows in-memory according to p. Providers that cannot push
// the filter down to their backend (synthetic, and REST responses that were
// not filtered server-side) run their output through this.
func Apply(rows RowSet, p Params) RowSet {
	out := make(RowSet, 0, len(rows))
	for _, r := range rows {
		if p.StartDate != "" && r.Date < p.StartDate {
			continue
		}
		if p.EndDate != "" && r.Date > p.EndDate {
			continue
		}
		if len(p.Products) > 0 && !contains(p.Products, r.Product) {
			continue
		}
		if len(p.Regions) > 0 && !contains(p.Regions, r.Region) {
			continue
		}
		if len(p.Systems) > 0 && !contains(p.Systems, r.System) {
			continue
		}
		if len(p.Teams) > 0 && !contains(p.Teams, r.Team) {
			continue
		}
		if p.OwnerQuery != "" && !strings.Contains(strings.ToLower(r.Owner), strings.ToLower(p.OwnerQuery)) {
			continue
		}
		if p.MinProfit != nil && r.Profit < *p.MinProfit {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Summary holds KPI totals over a row set.
type Summary struct {
	Rows         int            `json:"rows"`
	TotalRevenue float64        `json:"total_revenue"`
	TotalCost    float64        `json:"total_cost"`
	TotalProfit  float64        `json:"total_profit"`
	StatusCounts map[string]int `json:"status_counts"`
}

// Summarize computes KPI totals over rows.
func Summarize(rows RowSet) Summary {
	s := Summary{Rows: len(rows), StatusCounts: map[string]int{}}
	for _, r := range rows {
		s.TotalRevenue += r.Revenue
		s.TotalCost += r.Cost
		s.TotalProfit += r.Profit
		s.StatusCounts[r.Status]++
	}
	return s
}

// Group is one bucket of an aggregation.
type Group struct {
	Key     string  `json:"key"`
	Rows    int     `json:"rows"`
	Revenue float64 `json:"revenue"`
	Cost    float64 `json:"cost"`
	Profit  float64 `json:"profit"`
}

// GroupBy fields accepted by Aggregate.
var groupFields = map[string]func(Row) string{
	"date":    func(r Row) string { return r.Date },
	"product": func(r Row) string { return r.Product },
	"region":  func(r Row) string { return r.Region },
	"system":  func(r Row) string { return r.System },
	"team":    func(r Row) string { return r.Team },
	"owner":   func(r Row) string { return r.Owner },
	"status":  func(r Row) string { return r.Status },
}

// Aggregate buckets rows by the named field and reduces revenue, cost and
// profit with either "sum" or "mean". Unknown fields fall back to date,
// unknown aggregations to sum. Buckets come back sorted by key.
func Aggregate(rows RowSet, groupBy, agg string) []Group {
	keyOf, ok := groupFields[groupBy]
	if !ok {
		keyOf = groupFields["date"]
	}

	buckets := map[string]*Group{}
	for _, r := range rows {
		key := keyOf(r)
		g, ok := buckets[key]
		if !ok {
			g = &Group{Key: key}
			buckets[key] = g
		}
		g.Rows++
		g.Revenue += r.Revenue
		g.Cost += r.Cost
		g.Profit += r.Profit
	}

	out := make([]Group, 0, len(buckets))
	for _, g := range buckets {
		if agg == "mean" && g.Rows > 0 {
			n := float64(g.Rows)
			g.Revenue /= n
			g.Cost /= n
			g.Profit /= n
		}
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
