// Package reddit fetches a user's public posts and comments.
package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/apresai/persona/internal/config"
	"github.com/apresai/persona/internal/dataset"
	"github.com/apresai/persona/internal/metrics"
)

const (
	PublicBaseURL = "https://www.reddit.com"
	OAuthBaseURL  = "https://oauth.reddit.com"
	TokenURL      = "https://www.reddit.com/api/v1/access_token"

	pageSize   = 100
	maxBodyLen = 8 << 20
)

const (
	listingPosts    = "submitted"
	listingComments = "comments"
)

type Options struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	MaxPosts     int
	MaxComments  int
	RequestDelay time.Duration

	// BaseURL and TokenURL override the Reddit endpoints.
	BaseURL  string
	TokenURL string
}

// OptionsFromConfig maps the shared Reddit configuration onto client options.
func OptionsFromConfig(c config.Reddit) Options {
	return Options{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		UserAgent:    c.UserAgent,
		MaxPosts:     c.MaxPosts,
		MaxComments:  c.MaxComments,
		RequestDelay: c.RequestDelay,
	}
}

// Client is safe for concurrent use; requests across goroutines are spaced
// by a shared limiter.
type Client struct {
	http        *http.Client
	baseURL     string
	suffix      string
	userAgent   string
	maxPosts    int
	maxComments int
	limiter     *rate.Limiter
	log         *slog.Logger
}

// New returns a client using OAuth2 client credentials when both ID and
// secret are set, and the public JSON endpoints otherwise.
func New(ctx context.Context, opts Options, logger *slog.Logger) *Client {
	c := &Client{
		userAgent:   opts.UserAgent,
		maxPosts:    opts.MaxPosts,
		maxComments: opts.MaxComments,
		limiter:     rate.NewLimiter(rate.Every(opts.RequestDelay), 1),
		log:         logger.With("component", "reddit"),
	}
	if opts.RequestDelay <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if c.userAgent == "" {
		c.userAgent = "PersonaGenerator/1.0"
	}

	base := &http.Client{
		Timeout:   30 * time.Second,
		Transport: &userAgentTransport{agent: c.userAgent, next: http.DefaultTransport},
	}

	if opts.ClientID != "" && opts.ClientSecret != "" {
		tokenURL := opts.TokenURL
		if tokenURL == "" {
			tokenURL = TokenURL
		}
		cc := clientcredentials.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		c.http = cc.Client(context.WithValue(ctx, oauth2.HTTPClient, base))
		c.http.Timeout = base.Timeout
		c.baseURL = OAuthBaseURL
	} else {
		c.http = base
		c.baseURL = PublicBaseURL
		c.suffix = ".json"
	}
	if opts.BaseURL != "" {
		c.baseURL = opts.BaseURL
	}
	return c
}

// Fetch pages through the user's submissions and comments.
func (c *Client) Fetch(ctx context.Context, username string) (*dataset.Dataset, error) {
	log := c.log.With("username", username)

	var posts []dataset.Post
	postErr := c.page(ctx, username, listingPosts, c.maxPosts, func(d thingData) {
		posts = append(posts, d.post())
	})
	if postErr != nil {
		log.WarnContext(ctx, "Fetching posts failed", "error", postErr)
	}

	var comments []dataset.Comment
	commentErr := c.page(ctx, username, listingComments, c.maxComments, func(d thingData) {
		comments = append(comments, d.comment())
	})
	if commentErr != nil {
		log.WarnContext(ctx, "Fetching comments failed", "error", commentErr)
	}

	if postErr != nil && commentErr != nil {
		return nil, errors.Join(postErr, commentErr)
	}
	if len(posts) == 0 && len(comments) == 0 {
		// An empty listing says nothing about the user when the other failed.
		if err := errors.Join(postErr, commentErr); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("u/%s: %w", username, dataset.ErrNoActivity)
	}

	log.InfoContext(ctx, "Fetched activity", "posts", len(posts), "comments", len(comments))
	return dataset.New(username, posts, comments, time.Now().UTC()), nil
}

func (c *Client) page(ctx context.Context, username, kind string, max int, add func(thingData)) error {
	n := 0
	after := ""
	for n < max {
		limit := min(pageSize, max-n)
		l, err := c.get(ctx, username, kind, limit, after)
		if err != nil {
			return err
		}
		for _, t := range l.Data.Children {
			if n >= max {
				break
			}
			add(t.Data)
			n++
		}
		after = l.Data.After
		if after == "" || len(l.Data.Children) == 0 {
			break
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, username, kind string, limit int, after string) (*listing, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("sort", "new")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("raw_json", "1")
	if after != "" {
		q.Set("after", after)
	}
	endpoint := fmt.Sprintf("%s/user/%s/%s%s?%s", c.baseURL, url.PathEscape(username), kind, c.suffix, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", kind, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RedditRequestsTotal.WithLabelValues(kind, "error").Inc()
		return nil, fmt.Errorf("fetch %s for u/%s: %w", kind, username, err)
	}
	defer resp.Body.Close()
	metrics.RedditRequestsTotal.WithLabelValues(kind, strconv.Itoa(resp.StatusCode)).Inc()

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("u/%s %s: HTTP %d: %w", username, kind, resp.StatusCode, dataset.ErrNoActivity)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch %s for u/%s: HTTP %d", kind, username, resp.StatusCode)
	}

	var l listing
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyLen)).Decode(&l); err != nil {
		return nil, fmt.Errorf("decode %s listing: %w", kind, err)
	}
	c.log.DebugContext(ctx, "Fetched page", "listing", kind, "items", len(l.Data.Children), "after", l.Data.After)
	return &l, nil
}

// userAgentTransport sets the User-Agent Reddit requires on every request,
// including the token exchange.
type userAgentTransport struct {
	agent string
	next  http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.agent)
	return t.next.RoundTrip(r)
}
