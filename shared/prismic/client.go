// Package prismic is a minimal client for the Prismic REST API v2.
package prismic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTimeout   = 10 * time.Second
	maxErrorBodySize = 4 << 10
	searchPath       = "/documents/search"
)

var (
	// ErrNoDocument is returned by GetByUID when the query matched nothing.
	ErrNoDocument = errors.New("prismic: no document found")
	// ErrForeignURL is returned by Get for URLs outside the configured repository.
	ErrForeignURL = errors.New("prismic: url does not belong to the configured repository")
	// ErrNoMasterRef is returned when the API info lists no master ref.
	ErrNoMasterRef = errors.New("prismic: no master ref")
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	URL        string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("prismic: %s returned status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("prismic: %s returned status %d: %s", e.URL, e.StatusCode, e.Message)
}

// DecodeError is returned when a 2xx answer could not be decoded.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("prismic: failed to decode response from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Ref is a content release reference. Queries must be made against a ref.
type Ref struct {
	ID          string `json:"id"`
	Ref         string `json:"ref"`
	Label       string `json:"label"`
	IsMasterRef bool   `json:"isMasterRef"`
}

type apiInfo struct {
	Refs []Ref `json:"refs"`
}

// Document is a raw Prismic document. Data is left undecoded; each custom type
// has its own shape.
type Document struct {
	ID                   string          `json:"id"`
	UID                  string          `json:"uid"`
	Type                 string          `json:"type"`
	Href                 string          `json:"href"`
	Tags                 []string        `json:"tags"`
	FirstPublicationDate *string         `json:"first_publication_date"`
	LastPublicationDate  *string         `json:"last_publication_date"`
	Lang                 string          `json:"lang"`
	Data                 json.RawMessage `json:"data"`
}

// SearchResponse is one page of query results.
type SearchResponse struct {
	Page             int        `json:"page"`
	ResultsPerPage   int        `json:"results_per_page"`
	ResultsSize      int        `json:"results_size"`
	TotalResultsSize int        `json:"total_results_size"`
	TotalPages       int        `json:"total_pages"`
	NextPage         *string    `json:"next_page"`
	PrevPage         *string    `json:"prev_page"`
	Results          []Document `json:"results"`
}

// QueryOptions are the optional search parameters.
type QueryOptions struct {
	// Fetch restricts the returned data fields, e.g. "posts.title".
	Fetch     []string
	PageSize  int
	Page      int
	Orderings []string
	Lang      string
	// Ref overrides the master ref (previews, releases).
	Ref string
}

// Client talks to a single Prismic repository.
type Client struct {
	endpoint    *url.URL
	accessToken string
	httpClient  *http.Client
}

// NewClient creates a Client for endpoint, e.g. https://my-repo.cdn.prismic.io/api/v2.
// A nil httpClient gets a client with sensible timeouts.
func NewClient(endpoint, accessToken string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("prismic: invalid endpoint %q: %w", endpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("prismic: endpoint %q must be an absolute http(s) URL", endpoint)
	}

	if httpClient == nil {
		httpClient = NewHTTPClient(defaultTimeout)
	}

	return &Client{
		endpoint:    u,
		accessToken: accessToken,
		httpClient:  httpClient,
	}, nil
}

// NewHTTPClient returns an http.Client with dial and TLS timeouts suited to API calls.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: 5 * time.Second,
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// Endpoint returns the repository API endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// MasterRef fetches the ref of the currently published content.
func (c *Client) MasterRef(ctx context.Context) (string, error) {
	var info apiInfo
	if err := c.getJSON(ctx, c.withToken(*c.endpoint), &info); err != nil {
		return "", err
	}
	for _, r := range info.Refs {
		if r.IsMasterRef {
			return r.Ref, nil
		}
	}
	return "", ErrNoMasterRef
}

// Query searches documents matching all predicates.
func (c *Client) Query(ctx context.Context, predicates []Predicate, opts QueryOptions) (*SearchResponse, error) {
	ref := opts.Ref
	if ref == "" {
		var err error
		ref, err = c.MasterRef(ctx)
		if err != nil {
			return nil, err
		}
	}

	u := *c.endpoint
	u.Path += searchPath
	q := url.Values{}
	q.Set("ref", ref)
	if len(predicates) > 0 {
		q.Set("q", buildQuery(predicates))
	}
	if len(opts.Fetch) > 0 {
		q.Set("fetch", strings.Join(opts.Fetch, ","))
	}
	if opts.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(opts.PageSize))
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if len(opts.Orderings) > 0 {
		q.Set("orderings", "["+strings.Join(opts.Orderings, ",")+"]")
	}
	if opts.Lang != "" {
		q.Set("lang", opts.Lang)
	}
	u.RawQuery = q.Encode()

	var resp SearchResponse
	if err := c.getJSON(ctx, c.withToken(u), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetByUID returns the document of type docType with the given uid.
func (c *Client) GetByUID(ctx context.Context, docType, uid string, opts QueryOptions) (*Document, error) {
	opts.PageSize = 1
	opts.Page = 0
	resp, err := c.Query(ctx, []Predicate{At("my."+docType+".uid", uid)}, opts)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, ErrNoDocument
	}
	return &resp.Results[0], nil
}

// Get fetches a page URL previously returned by the API as next_page or prev_page.
func (c *Client) Get(ctx context.Context, pageURL string) (*SearchResponse, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("prismic: invalid page url %q: %w", pageURL, err)
	}
	if !c.owns(u) {
		return nil, fmt.Errorf("%w: %s", ErrForeignURL, redact(u))
	}

	var resp SearchResponse
	if err := c.getJSON(ctx, c.withToken(*u), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// owns reports whether u lives under the endpoint: same scheme and host, and a
// cleaned path equal to the endpoint path or below it.
func (c *Client) owns(u *url.URL) bool {
	if !strings.EqualFold(u.Scheme, c.endpoint.Scheme) || !strings.EqualFold(u.Host, c.endpoint.Host) {
		return false
	}

	base := strings.TrimSuffix(path.Clean("/"+c.endpoint.Path), "/")
	p := path.Clean("/" + u.Path)
	return p == base || strings.HasPrefix(p, base+"/")
}

func (c *Client) withToken(u url.URL) string {
	if c.accessToken == "" {
		return u.String()
	}
	q := u.Query()
	if q.Get("access_token") == "" {
		q.Set("access_token", c.accessToken)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("prismic: failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("prismic: request failed: %w", err)
	}
	defer resp.Body.Close()

	display := redact(req.URL)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			URL:        display,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{URL: display, Err: err}
	}
	return nil
}

// errorMessage extracts the message from a Prismic error body, which is
// either {"message": "..."} / {"error": "..."} or plain text.
func errorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBodySize))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(raw))
}

// RedactURL hides the access token of a raw URL so it can be logged.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	return redact(u)
}

// StripToken removes the access token Prismic echoes into next_page URLs.
// Get adds the client's token back. Unparsable input is returned unchanged.
func StripToken(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if !q.Has("access_token") {
		return raw
	}
	q.Del("access_token")
	u.RawQuery = q.Encode()
	return u.String()
}

// redact strips the access token so URLs can be logged.
func redact(u *url.URL) string {
	cp := *u
	q := cp.Query()
	if q.Has("access_token") {
		q.Set("access_token", "REDACTED")
		cp.RawQuery = q.Encode()
	}
	return cp.String()
}
