// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package wordpress talks to a WordPress site over its REST API: it lists
// location posts, saves ACF popup fields, and manages the category term.
// Requests authenticate with an application password.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/popup-generator/internal/httputil"
	"github.com/pdiddy/popup-generator/pkg/types"
)

const (
	apiPrefix        = "/wp-json/wp/v2"
	perPage          = 100
	capabilityNeeded = "manage_options"
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "popup-generator/2.1"
)

// ErrForbidden reports that the account lacks the capability needed to
// run a batch.
var ErrForbidden = errors.New("account is not allowed to manage options")

// APIError is a non-2xx REST response.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("HTTP %d", e.Status)
	}
	return fmt.Sprintf("HTTP %d: %s: %s", e.Status, e.Code, e.Message)
}

// Client is a WordPress REST host.
type Client struct {
	http         *http.Client
	base         *url.URL
	cfg          types.WordPressConfig
	postBase     string
	taxonomyBase string
	log          logrus.FieldLogger
}

// New returns a Client for the site at cfg.BaseURL. postBase and
// taxonomyBase are the REST route segments of the location post type and
// the category taxonomy.
func New(cfg types.WordPressConfig, postBase, taxonomyBase string, log logrus.FieldLogger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("wordpress base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing wordpress base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("wordpress base URL %q must be http or https", cfg.BaseURL)
	}
	if cfg.User == "" || cfg.AppPassword == "" {
		return nil, fmt.Errorf("wordpress user and application password are required")
	}
	if postBase == "" {
		return nil, fmt.Errorf("location REST base is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	return &Client{
		http:         &http.Client{Timeout: cfg.Timeout},
		base:         base,
		cfg:          cfg,
		postBase:     postBase,
		taxonomyBase: taxonomyBase,
		log:          log,
	}, nil
}

// Name identifies the host in logs.
func (c *Client) Name() string { return string(types.HostWordPress) }

type currentUser struct {
	ID           int64           `json:"id"`
	Slug         string          `json:"slug"`
	Capabilities map[string]bool `json:"capabilities"`
}

// Preflight confirms the account can manage options, the capability the
// admin trigger has always required.
func (c *Client) Preflight(ctx context.Context) error {
	var u currentUser
	q := url.Values{"context": {"edit"}}
	if _, err := c.do(ctx, http.MethodGet, apiPrefix+"/users/me", q, nil, &u); err != nil {
		return fmt.Errorf("fetching current user: %w", err)
	}
	if !u.Capabilities[capabilityNeeded] {
		return fmt.Errorf("%w: user %s", ErrForbidden, u.Slug)
	}
	return nil
}

type restPost struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
	Type   string `json:"type"`
	Title  struct {
		Rendered string `json:"rendered"`
	} `json:"title"`
}

// Locations pages through the post collection until X-WP-TotalPages is
// reached. Titles are the rendered titles with HTML entities decoded.
func (c *Client) Locations(ctx context.Context, q types.LocationQuery) ([]types.Location, error) {
	var locs []types.Location
	for page := 1; ; page++ {
		params := url.Values{
			"status":   {q.Status},
			"per_page": {strconv.Itoa(perPage)},
			"page":     {strconv.Itoa(page)},
			"orderby":  {"id"},
			"order":    {"asc"},
			"_fields":  {"id,status,type,title"},
		}
		var posts []restPost
		header, err := c.do(ctx, http.MethodGet, c.postPath(), params, nil, &posts)
		if err != nil {
			return nil, fmt.Errorf("listing %s page %d: %w", c.postBase, page, err)
		}
		for _, p := range posts {
			locs = append(locs, types.Location{
				ID:       p.ID,
				Title:    html.UnescapeString(p.Title.Rendered),
				Status:   p.Status,
				PostType: p.Type,
			})
		}

		total, _ := strconv.Atoi(header.Get("X-WP-TotalPages"))
		if page >= total || len(posts) == 0 {
			return locs, nil
		}
	}
}

// SaveFields sends values as the post's acf object.
func (c *Client) SaveFields(ctx context.Context, postID int64, values types.FieldValues) error {
	payload := map[string]any{"acf": values}
	if _, err := c.do(ctx, http.MethodPost, c.postPath(postID), nil, payload, nil); err != nil {
		return fmt.Errorf("saving fields of post %d: %w", postID, err)
	}
	return nil
}

// TaxonomyExists asks the taxonomies endpoint for taxonomy. A 404 means
// it is not registered (or not exposed over REST).
func (c *Client) TaxonomyExists(ctx context.Context, taxonomy string) (bool, error) {
	_, err := c.do(ctx, http.MethodGet, apiPrefix+"/taxonomies/"+url.PathEscape(taxonomy), nil, nil, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking taxonomy %s: %w", taxonomy, err)
	}
	return true, nil
}

type restTerm struct {
	ID       int64  `json:"id"`
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Taxonomy string `json:"taxonomy"`
}

func (t restTerm) term() types.Term {
	return types.Term{ID: t.ID, Slug: t.Slug, Name: html.UnescapeString(t.Name), Taxonomy: t.Taxonomy}
}

// FindTerm looks the term up by slug.
func (c *Client) FindTerm(ctx context.Context, taxonomy, slug string) (*types.Term, error) {
	var terms []restTerm
	if _, err := c.do(ctx, http.MethodGet, c.termPath(), url.Values{"slug": {slug}}, nil, &terms); err != nil {
		return nil, fmt.Errorf("finding term %s: %w", slug, err)
	}
	for _, t := range terms {
		if t.Slug == slug {
			term := t.term()
			if term.Taxonomy == "" {
				term.Taxonomy = taxonomy
			}
			return &term, nil
		}
	}
	return nil, nil
}

// CreateTerm creates a term with name and slug.
func (c *Client) CreateTerm(ctx context.Context, taxonomy, name, slug string) (types.Term, error) {
	var t restTerm
	payload := map[string]string{"name": name, "slug": slug}
	if _, err := c.do(ctx, http.MethodPost, c.termPath(), nil, payload, &t); err != nil {
		return types.Term{}, fmt.Errorf("creating term %s: %w", slug, err)
	}
	term := t.term()
	if term.Taxonomy == "" {
		term.Taxonomy = taxonomy
	}
	return term, nil
}

// SetTerms replaces the post's terms by posting the full ID list under the
// taxonomy's REST field.
func (c *Client) SetTerms(ctx context.Context, postID int64, taxonomy string, termIDs []int64) error {
	if termIDs == nil {
		termIDs = []int64{}
	}
	payload := map[string]any{c.taxonomyField(taxonomy): termIDs}
	if _, err := c.do(ctx, http.MethodPost, c.postPath(postID), nil, payload, nil); err != nil {
		return fmt.Errorf("assigning %s terms to post %d: %w", taxonomy, postID, err)
	}
	return nil
}

func (c *Client) postPath(id ...int64) string {
	p := apiPrefix + "/" + url.PathEscape(c.postBase)
	for _, v := range id {
		p += "/" + strconv.FormatInt(v, 10)
	}
	return p
}

func (c *Client) termPath() string {
	return apiPrefix + "/" + url.PathEscape(c.taxonomyBase)
}

func (c *Client) taxonomyField(taxonomy string) string {
	if c.taxonomyBase != "" {
		return c.taxonomyBase
	}
	return taxonomy
}

// do sends a request and decodes a JSON response into out when out is
// non-nil. Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) (http.Header, error) {
	u := *c.base
	u.Path = c.base.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(c.cfg.User, c.cfg.AppPassword)
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.cfg.MaxRetries, c.log)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.Unmarshal(data, apiErr)
		return resp.Header, apiErr
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return nil, fmt.Errorf("decoding response: %w", err)
		}
	}
	return resp.Header, nil
}
