package datasource

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKeyStable(t *testing.T) {
	min := 50.0
	a := Params{
		StartDate: "2026-01-01",
		Products:  []string{"Beta", "Alpha"},
		Teams:     []string{"Data"},
		MinProfit: &min,
	}
	b := Params{
		StartDate: "2026-01-01",
		Products:  []string{"Alpha", "Beta"}, // same set, different order
		Teams:     []string{"Data"},
		MinProfit: &min,
	}

	assert.Equal(t, a.CacheKey(), b.CacheKey())
}

func TestCacheKeyDistinguishesFilters(t *testing.T) {
	a := Params{Teams: []string{"Data"}}
	b := Params{Teams: []string{"Retail"}}
	assert.NotEqual(t, a.CacheKey(), b.CacheKey())
	assert.NotEqual(t, Params{}.CacheKey(), a.CacheKey())
}

func TestCacheKeyNonceBusts(t *testing.T) {
	a := Params{Teams: []string{"Data"}}
	b := Params{Teams: []string{"Data"}, Nonce: "x"}
	assert.NotEqual(t, a.CacheKey(), b.CacheKey())
}

func TestParamsFromQuery(t *testing.T) {
	q, err := url.ParseQuery("start_date=2026-01-01&end_date=2026-02-01&product=Alpha&product=Beta&team=Data&min_profit=12.5&owner=ali&unknown=1")
	require.NoError(t, err)

	p := ParamsFromQuery(q)
	assert.Equal(t, "2026-01-01", p.StartDate)
	assert.Equal(t, "2026-02-01", p.EndDate)
	assert.Equal(t, []string{"Alpha", "Beta"}, p.Products)
	assert.Equal(t, []string{"Data"}, p.Teams)
	assert.Equal(t, "ali", p.OwnerQuery)
	require.NotNil(t, p.MinProfit)
	assert.Equal(t, 12.5, *p.MinProfit)
}

func TestParamsFromQueryIgnoresBadMinProfit(t *testing.T) {
	q := url.Values{"min_profit": []string{"lots"}}
	p := ParamsFromQuery(q)
	assert.Nil(t, p.MinProfit)
}
