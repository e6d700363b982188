// Package datasource provides the tabular data backends for the dashboard:
// a deterministic synthetic generator, a REST client, and a SQL reader, all
// behind a single Provider abstraction selected once at startup.
package datasource

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// DateLayout is the wire format for row dates.
const DateLayout = "2006-01-02"

// Row is one record of the source-independent dashboard schema.
type Row struct {
	Date    string  `json:"date"`
	Product string  `json:"product"`
	Region  string  `json:"region"`
	System  string  `json:"system"`
	Team    string  `json:"team"`
	Owner   string  `json:"owner"`
	Status  string  `json:"status"`
	Revenue float64 `json:"revenue"`
	Cost    float64 `json:"cost"`
	Profit  float64 `json:"profit"`
}

// RowSet is an ordered collection of rows. It is never mutated after a
// provider returns it.
type RowSet []Row

// Provider fetches rows for a set of query parameters. Implementations fail
// with a *Error; they never fall back to another backend.
type Provider interface {
	Fetch(ctx context.Context, p Params) (RowSet, error)
	Name() string
}

// Params describes the per-request filter applied to the data. The zero
// value selects everything. Params double as the cache key, so the key
// serialization must be deterministic.
type Params struct {
	StartDate  string   `json:"start_date,omitempty"`
	EndDate    string   `json:"end_date,omitempty"`
	Products   []string `json:"products,omitempty"`
	Regions    []string `json:"regions,omitempty"`
	Systems    []string `json:"systems,omitempty"`
	Teams      []string `json:"teams,omitempty"`
	MinProfit  *float64 `json:"min_profit,omitempty"`
	OwnerQuery string   `json:"owner_query,omitempty"`

	// Nonce busts the cache when the client asks for a forced refresh.
	// It is not part of the filter.
	Nonce string `json:"-"`
}

// ParamsFromQuery parses HTTP query values into Params. Unknown keys are
// ignored.
func ParamsFromQuery(q url.Values) Params {
	p := Params{
		StartDate:  strings.TrimSpace(q.Get("start_date")),
		EndDate:    strings.TrimSpace(q.Get("end_date")),
		Products:   cleanList(q["product"]),
		Regions:    cleanList(q["region"]),
		Systems:    cleanList(q["system"]),
		Teams:      cleanList(q["team"]),
		OwnerQuery: strings.TrimSpace(q.Get("owner")),
	}
	if raw := strings.TrimSpace(q.Get("min_profit")); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			p.MinProfit = &v
		}
	}
	return p
}

// Values serializes the filter for the REST backend query string.
func (p Params) Values() url.Values {
	v := url.Values{}
	if p.StartDate != "" {
		v.Set("start_date", p.StartDate)
	}
	if p.EndDate != "" {
		v.Set("end_date", p.EndDate)
	}
	for _, s := range sortedCopy(p.Products) {
		v.Add("product", s)
	}
	for _, s := range sortedCopy(p.Regions) {
		v.Add("region", s)
	}
	for _, s := range sortedCopy(p.Systems) {
		v.Add("system", s)
	}
	for _, s := range sortedCopy(p.Teams) {
		v.Add("team", s)
	}
	if p.MinProfit != nil {
		v.Set("min_profit", strconv.FormatFloat(*p.MinProfit, 'f', -1, 64))
	}
	if p.OwnerQuery != "" {
		v.Set("owner", p.OwnerQuery)
	}
	return v
}

// CacheKey returns a stable serialization of the parameters. Two Params
// differing only in slice order produce the same key.
func (p Params) CacheKey() string {
	v := p.Values()
	if p.Nonce != "" {
		v.Set("nonce", p.Nonce)
	}
	return "rows?" + v.Encode()
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func sortedCopy(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}
