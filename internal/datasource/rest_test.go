package datasource

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightlabs/analytics-dashboard/pkg/logger"
)

func TestRESTFetch(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode([]Row{
			{Date: "2026-05-01T00:00:00Z", Product: "Alpha", Region: "EMEA", System: "Web", Team: "Data", Owner: "alice", Status: "Green", Revenue: 1000, Cost: 400},
			{Date: "2026-05-02", Product: "Beta", Region: "APAC", System: "Web", Team: "Data", Owner: "bob", Status: "Red", Revenue: 500, Cost: 600},
		})
	}))
	defer srv.Close()

	p := NewREST(srv.URL, srv.Client(), 100, logger.NewNop())
	rows, err := p.Fetch(context.Background(), Params{Teams: []string{"Data"}})
	require.NoError(t, err)

	assert.Equal(t, "/metrics", gotPath)
	assert.Contains(t, gotQuery, "team=Data")

	require.Len(t, rows, 2)
	assert.Equal(t, "2026-05-01", rows[0].Date, "timestamp trimmed to date")
	assert.Equal(t, 600.0, rows[0].Profit)
	assert.Equal(t, -100.0, rows[1].Profit)
}

func TestRESTFetchTruncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rows := make([]Row, 20)
		for i := range rows {
			rows[i] = Row{Date: "2026-05-01", Product: "Alpha", Revenue: 10, Cost: 5}
		}
		json.NewEncoder(w).Encode(rows)
	}))
	defer srv.Close()

	p := NewREST(srv.URL, srv.Client(), 5, logger.NewNop())
	rows, err := p.Fetch(context.Background(), Params{})
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

func TestRESTFetchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewREST(srv.URL, srv.Client(), 100, logger.NewNop())
	_, err := p.Fetch(context.Background(), Params{})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindBadResponse))
}

func TestRESTFetchBadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not json"))
	}))
	defer srv.Close()

	p := NewREST(srv.URL, srv.Client(), 100, logger.NewNop())
	_, err := p.Fetch(context.Background(), Params{})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindBadResponse))
}

func TestRESTFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing is listening anymore

	p := NewREST(srv.URL, http.DefaultClient, 100, logger.NewNop())
	_, err := p.Fetch(context.Background(), Params{})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindUnreachable))
}
