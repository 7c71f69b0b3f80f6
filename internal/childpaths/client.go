// Package childpaths drives the remote account-management web UI over
// plain HTTP: the login form, the finance-account forms and the billpayer
// roster. The system has no machine API, so every operation here is a form
// fetch, a form post and a scrape of the resulting page. All reconciliation
// decisions live in internal/recon; this package only translates its
// AccountService calls into page traffic.
package childpaths

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/omhartigan/billpayer-recon/internal/recon"
	"golang.org/x/net/html"
)

// DefaultBaseURL is the production instance of the remote system.
const DefaultBaseURL = "https://app.childpaths.ie"

// defaultWait bounds every remote page interaction. A slow page surfaces as
// a row-level error, never as a hang.
const defaultWait = 10 * time.Second

// ErrAuthFailed reports rejected credentials.
var ErrAuthFailed = errors.New("childpaths: authentication failed")

// Client talks to one childpaths instance. It is stateless; all session
// state (cookies) lives in the Session values it hands out.
type Client struct {
	baseURL string
	wait    time.Duration
}

// NewClient creates a client for the given base URL, using DefaultBaseURL
// when empty.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), wait: defaultWait}
}

// Session is an authenticated browsing session: an HTTP client carrying the
// login cookies. Sessions are single-cursor: the remote UI keeps per-session
// page state, so calls on one session must never run concurrently.
type Session struct {
	http *http.Client
}

// Authenticate implements recon.AccountService. It fetches the login page,
// posts the credentials and verifies that the remote app landed on the
// dashboard.
func (c *Client) Authenticate(ctx context.Context, email, password string) (recon.Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("Authenticate: cookie jar: %w", err)
	}
	s := &Session{http: &http.Client{Jar: jar, Timeout: c.wait}}

	doc, _, err := c.getPage(ctx, s, "/auth/login")
	if err != nil {
		return nil, fmt.Errorf("Authenticate: load login page: %w", err)
	}

	form := url.Values{
		"email":    {email},
		"password": {password},
	}
	if token := formToken(doc); token != "" {
		form.Set("_token", token)
	}

	landed, _, err := c.postForm(ctx, s, "/auth/login", form)
	if err != nil {
		return nil, fmt.Errorf("Authenticate: submit login: %w", err)
	}
	if !strings.Contains(landed, "/dashboard") {
		return nil, ErrAuthFailed
	}
	return s, nil
}

// session unwraps the opaque recon.Session back to ours.
func (c *Client) session(s recon.Session) (*Session, error) {
	sess, ok := s.(*Session)
	if !ok || sess == nil {
		return nil, fmt.Errorf("childpaths: session is %T, want *childpaths.Session", s)
	}
	return sess, nil
}

// getPage fetches and parses one page. The returned string is the final URL
// after redirects, which is how an expired session is detected.
func (c *Client) getPage(ctx context.Context, s *Session, path string) (*html.Node, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, "", fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}

	landed := resp.Request.URL.Path
	if err := checkSession(path, landed); err != nil {
		return nil, "", err
	}

	doc, err := parsePage(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("GET %s: %w", path, err)
	}
	return doc, landed, nil
}

// postForm submits a form and parses the final page.
func (c *Client) postForm(ctx context.Context, s *Session, path string, form url.Values) (string, *html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", nil, fmt.Errorf("POST %s: status %d", path, resp.StatusCode)
	}

	landed := resp.Request.URL.Path
	doc, err := parsePage(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("POST %s: %w", path, err)
	}
	return landed, doc, nil
}

// checkSession flags the fatal session class: any authenticated page that
// bounces back to the login form means the session is gone.
func checkSession(requested, landed string) error {
	if requested != "/auth/login" && strings.Contains(landed, "/auth/login") {
		return fmt.Errorf("childpaths: redirected to login from %s: %w", requested, recon.ErrSessionInvalid)
	}
	return nil
}

// formError converts the page's validation messages to a row-level error.
func formError(op string, msgs []string) error {
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("%s: form rejected: %s", op, strings.Join(msgs, "; "))
}

// Ensure Client implements the engine's service interface.
var _ recon.AccountService = (*Client)(nil)
