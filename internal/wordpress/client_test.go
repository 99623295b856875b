// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package wordpress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/popup-generator/internal/fields"
	"github.com/pdiddy/popup-generator/internal/httputil"
	"github.com/pdiddy/popup-generator/internal/popup"
	"github.com/pdiddy/popup-generator/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

// fakeSite is an in-memory WordPress REST API covering the routes the
// client uses.
type fakeSite struct {
	mu         sync.Mutex
	caps       map[string]bool
	titles     []string
	taxonomies map[string]bool
	terms      []restTerm
	acf        map[int64]map[string]any
	assigned   map[int64][]int64
	requests   []string
	throttle   int
}

func newFakeSite(titles ...string) *fakeSite {
	return &fakeSite{
		caps:       map[string]bool{"manage_options": true, "edit_posts": true},
		titles:     titles,
		taxonomies: map[string]bool{"wp-map-category": true},
		acf:        map[int64]map[string]any{},
		assigned:   map[int64][]int64{},
	}
}

func (s *fakeSite) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /wp-json/wp/v2/users/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "edit", r.URL.Query().Get("context"))
		writeJSON(w, http.StatusOK, map[string]any{"id": 1, "slug": "admin", "capabilities": s.caps})
	})

	mux.HandleFunc("GET /wp-json/wp/v2/mapster-wp-location", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "publish", r.URL.Query().Get("status"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		// Serve two per page regardless of per_page to exercise paging.
		const size = 2
		pages := (len(s.titles) + size - 1) / size
		w.Header().Set("X-WP-TotalPages", strconv.Itoa(pages))
		var out []map[string]any
		for i := (page - 1) * size; i < page*size && i < len(s.titles); i++ {
			out = append(out, map[string]any{
				"id":     i + 1,
				"status": "publish",
				"type":   "mapster-wp-location",
				"title":  map[string]string{"rendered": s.titles[i]},
			})
		}
		if out == nil {
			out = []map[string]any{}
		}
		writeJSON(w, http.StatusOK, out)
	})

	mux.HandleFunc("POST /wp-json/wp/v2/mapster-wp-location/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.throttle > 0 {
			s.throttle--
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if id < 1 || int(id) > len(s.titles) {
			writeJSON(w, http.StatusNotFound, map[string]any{"code": "rest_post_invalid_id", "message": "Invalid post ID."})
			return
		}
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]json.RawMessage
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if raw, ok := body["acf"]; ok {
			var acf map[string]any
			assert.NoError(t, json.Unmarshal(raw, &acf))
			s.acf[id] = acf
		}
		if raw, ok := body["wp-map-category"]; ok {
			var ids []int64
			assert.NoError(t, json.Unmarshal(raw, &ids))
			s.assigned[id] = ids
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": id})
	})

	mux.HandleFunc("GET /wp-json/wp/v2/taxonomies/{name}", func(w http.ResponseWriter, r *http.Request) {
		if !s.taxonomies[r.PathValue("name")] {
			writeJSON(w, http.StatusNotFound, map[string]any{"code": "rest_taxonomy_invalid", "message": "Invalid taxonomy."})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"slug": r.PathValue("name")})
	})

	mux.HandleFunc("GET /wp-json/wp/v2/wp-map-category", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		out := []restTerm{}
		for _, term := range s.terms {
			if term.Slug == r.URL.Query().Get("slug") {
				out = append(out, term)
			}
		}
		writeJSON(w, http.StatusOK, out)
	})

	mux.HandleFunc("POST /wp-json/wp/v2/wp-map-category", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		term := restTerm{ID: int64(len(s.terms) + 10), Slug: body["slug"], Name: body["name"], Taxonomy: "wp-map-category"}
		s.terms = append(s.terms, term)
		writeJSON(w, http.StatusCreated, term)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "app pass" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"code": "rest_not_logged_in", "message": "You are not currently logged in."})
			return
		}
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		s.mu.Unlock()
		mux.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, site *fakeSite) *Client {
	t.Helper()
	ts := httptest.NewServer(site.handler(t))
	t.Cleanup(ts.Close)

	log, _ := test.NewNullLogger()
	c, err := New(types.WordPressConfig{
		BaseURL:     ts.URL + "/",
		User:        "admin",
		AppPassword: "app pass",
		HTTPConfig:  types.HTTPConfig{MaxRetries: 2},
	}, "mapster-wp-location", "wp-map-category", log)
	require.NoError(t, err)
	return c
}

// --- tests ---

func TestNewValidation(t *testing.T) {
	log, _ := test.NewNullLogger()
	good := types.WordPressConfig{BaseURL: "https://example.com", User: "u", AppPassword: "p"}

	tests := []struct {
		name     string
		cfg      types.WordPressConfig
		postBase string
		errMsg   string
	}{
		{name: "valid", cfg: good, postBase: "mapster-wp-location"},
		{name: "no base URL", cfg: types.WordPressConfig{User: "u", AppPassword: "p"}, postBase: "x", errMsg: "base URL is required"},
		{name: "bad scheme", cfg: types.WordPressConfig{BaseURL: "ftp://x", User: "u", AppPassword: "p"}, postBase: "x", errMsg: "must be http or https"},
		{name: "no password", cfg: types.WordPressConfig{BaseURL: "https://x", User: "u"}, postBase: "x", errMsg: "application password"},
		{name: "no post base", cfg: good, errMsg: "REST base"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg, tt.postBase, "wp-map-category", log)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, defaultUserAgent, c.cfg.UserAgent)
			assert.Equal(t, defaultTimeout, c.http.Timeout)
		})
	}
}

func TestPreflight(t *testing.T) {
	site := newFakeSite()
	c := newTestClient(t, site)
	require.NoError(t, c.Preflight(context.Background()))

	site.caps = map[string]bool{"edit_posts": true}
	err := c.Preflight(context.Background())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestPreflightUnauthorized(t *testing.T) {
	site := newFakeSite()
	c := newTestClient(t, site)
	c.cfg.AppPassword = "wrong"

	err := c.Preflight(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "rest_not_logged_in", apiErr.Code)
}

func TestLocationsPaginates(t *testing.T) {
	site := newFakeSite("Acme", "Beta &amp; Co", "Gamma", "Delta", "Epsilon")
	c := newTestClient(t, site)

	locs, err := c.Locations(context.Background(), types.LocationQuery{PostType: "mapster-wp-location", Status: "publish"})
	require.NoError(t, err)
	require.Len(t, locs, 5)
	assert.Equal(t, "Beta & Co", locs[1].Title)
	assert.Equal(t, int64(5), locs[4].ID)

	lists := 0
	for _, r := range site.requests {
		if r == "GET /wp-json/wp/v2/mapster-wp-location" {
			lists++
		}
	}
	assert.Equal(t, 3, lists)
}

func TestLocationsEmpty(t *testing.T) {
	c := newTestClient(t, newFakeSite())
	locs, err := c.Locations(context.Background(), types.LocationQuery{Status: "publish"})
	require.NoError(t, err)
	assert.Empty(t, locs)
}

func TestSaveFields(t *testing.T) {
	site := newFakeSite("Acme")
	c := newTestClient(t, site)

	values, err := fields.Build(fields.DefaultTable(), fields.Input{Title: "Acme", Description: "Main St 1"})
	require.NoError(t, err)
	require.NoError(t, c.SaveFields(context.Background(), 1, values))

	acf := site.acf[1]
	assert.Equal(t, float64(1), acf["field_616a60c610c96"])
	group := acf["field_6168d546268fb"].(map[string]any)
	assert.Equal(t, "Main St 1", group["field_6169fc9c6e64a"])
}

func TestSaveFieldsRetriesThrottle(t *testing.T) {
	site := newFakeSite("Acme")
	site.throttle = 1
	c := newTestClient(t, site)

	require.NoError(t, c.SaveFields(context.Background(), 1, types.FieldValues{"k": "v"}))
	assert.Equal(t, "v", site.acf[1]["k"])
}

func TestSaveFieldsUnknownPost(t *testing.T) {
	c := newTestClient(t, newFakeSite("Acme"))
	err := c.SaveFields(context.Background(), 42, types.FieldValues{"k": "v"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Contains(t, err.Error(), "rest_post_invalid_id")
}

func TestTaxonomyAndTerms(t *testing.T) {
	site := newFakeSite("Acme")
	c := newTestClient(t, site)
	ctx := context.Background()

	ok, err := c.TaxonomyExists(ctx, "wp-map-category")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = c.TaxonomyExists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	term, err := c.FindTerm(ctx, "wp-map-category", "haendler")
	require.NoError(t, err)
	assert.Nil(t, term)

	created, err := c.CreateTerm(ctx, "wp-map-category", "Haendler", "haendler")
	require.NoError(t, err)
	assert.Equal(t, "haendler", created.Slug)

	found, err := c.FindTerm(ctx, "wp-map-category", "haendler")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	require.NoError(t, c.SetTerms(ctx, 1, "wp-map-category", []int64{created.ID}))
	assert.Equal(t, []int64{created.ID}, site.assigned[1])
}

func TestGeneratorAgainstSite(t *testing.T) {
	site := newFakeSite("Acme", "Unknown", "Beta")
	c := newTestClient(t, site)

	recordsPath := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(recordsPath, []byte(`[
		{"name": "Acme", "address": {"street": "Main St 1", "city": "Berlin", "postal_code": "10115"},
		 "contact": {"email": "a@x.com", "phone": "123"}},
		{"name": "Beta", "contact": {"phone": "456"}}
	]`), 0o644))

	log, _ := test.NewNullLogger()
	g, err := popup.NewGenerator(c, popup.Config{
		RecordsPath: recordsPath,
		Query:       types.LocationQuery{PostType: "mapster-wp-location", Status: "publish"},
		Taxonomy:    "wp-map-category",
		TermSlug:    "haendler",
		Fields:      fields.DefaultTable(),
	}, log)
	require.NoError(t, err)

	summary, err := g.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Updated)
	assert.Equal(t, 3, summary.Tagged)
	assert.Equal(t, 1, summary.Unmatched)

	body := func(id int64) any {
		return site.acf[id]["field_6168d546268fb"].(map[string]any)["field_6169fc9c6e64a"]
	}
	assert.Equal(t, "Main St 1\n10115 Berlin\na@x.com\n123", body(1))
	assert.Equal(t, "", body(2))
	assert.Equal(t, "456", body(3))

	require.Len(t, site.terms, 1)
	assert.Equal(t, "Haendler", site.terms[0].Name)
	for id := int64(1); id <= 3; id++ {
		assert.Equal(t, []int64{site.terms[0].ID}, site.assigned[id], fmt.Sprint(id))
	}
}

func TestAPIErrorMessage(t *testing.T) {
	assert.Equal(t, "HTTP 500", (&APIError{Status: 500}).Error())
	assert.Equal(t, "HTTP 403: rest_forbidden: Sorry.", (&APIError{Status: 403, Code: "rest_forbidden", Message: "Sorry."}).Error())
}
