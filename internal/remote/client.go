// Package remote is the HTTP client of the authoritative song catalogue.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/llehouerou/trackvault/internal/errmsg"
	"github.com/llehouerou/trackvault/internal/track"
)

const (
	// DefaultBaseURL is the local development server.
	DefaultBaseURL = "http://localhost:8080/api"
	DefaultTimeout = 10 * time.Second

	userAgent  = "trackvault/1.0"
	retryDelay = 500 * time.Millisecond
)

// Client talks to the /songs endpoints under a base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retryDelay time.Duration
}

// New creates a client. An empty baseURL selects DefaultBaseURL; a
// non-positive timeout selects DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		retryDelay: retryDelay,
	}
}

// BaseURL returns the configured endpoint root.
func (c *Client) BaseURL() string { return c.baseURL }

// List fetches every song.
func (c *Client) List(ctx context.Context) ([]track.Track, error) {
	var songs []Song
	if err := c.do(ctx, errmsg.OpRemoteList, http.MethodGet, "/songs", nil, nil, &songs); err != nil {
		return nil, err
	}
	return ToTracks(songs), nil
}

// Get fetches one song.
func (c *Client) Get(ctx context.Context, id track.ID) (track.Track, error) {
	path, err := songPath(errmsg.OpRemoteGet, id)
	if err != nil {
		return track.Track{}, err
	}
	var s Song
	if err := c.do(ctx, errmsg.OpRemoteGet, http.MethodGet, path, nil, nil, &s); err != nil {
		return track.Track{}, err
	}
	return ToTrack(s), nil
}

// Create submits a new song and returns it with its server-assigned id.
func (c *Client) Create(ctx context.Context, t track.Track) (track.Track, error) {
	payload := FromTrack(t)
	payload.ID = nil
	var s Song
	if err := c.do(ctx, errmsg.OpRemoteCreate, http.MethodPost, "/songs", nil, payload, &s); err != nil {
		return track.Track{}, err
	}
	created := ToTrack(s)
	if created.ID.IsZero() {
		return track.Track{}, errmsg.Wrap(errmsg.ErrRemoteUnavailable, errmsg.OpRemoteCreate,
			"response carries no id", nil)
	}
	return created, nil
}

// Update replaces the song with the given id.
func (c *Client) Update(ctx context.Context, id track.ID, t track.Track) (track.Track, error) {
	path, err := songPath(errmsg.OpRemoteUpdate, id)
	if err != nil {
		return track.Track{}, err
	}
	t.ID = id
	var s Song
	if err := c.do(ctx, errmsg.OpRemoteUpdate, http.MethodPut, path, nil, FromTrack(t), &s); err != nil {
		return track.Track{}, err
	}
	return ToTrack(s), nil
}

// Delete removes the song with the given id.
func (c *Client) Delete(ctx context.Context, id track.ID) error {
	path, err := songPath(errmsg.OpRemoteDelete, id)
	if err != nil {
		return err
	}
	return c.do(ctx, errmsg.OpRemoteDelete, http.MethodDelete, path, nil, nil, nil)
}

// SearchByTitle returns songs whose title contains q.
func (c *Client) SearchByTitle(ctx context.Context, q string) ([]track.Track, error) {
	return c.search(ctx, "/songs/search/by-title", q)
}

// SearchByArtist returns songs whose artist contains q.
func (c *Client) SearchByArtist(ctx context.Context, q string) ([]track.Track, error) {
	return c.search(ctx, "/songs/search/by-artist", q)
}

// ByCategory returns the songs of one category.
func (c *Client) ByCategory(ctx context.Context, cat track.Category) ([]track.Track, error) {
	if cat == track.CategoryAll {
		return c.List(ctx)
	}
	var songs []Song
	path := "/songs/category/" + url.PathEscape(string(cat))
	if err := c.do(ctx, errmsg.OpRemoteSearch, http.MethodGet, path, nil, nil, &songs); err != nil {
		return nil, err
	}
	return ToTracks(songs), nil
}

func (c *Client) search(ctx context.Context, path, q string) ([]track.Track, error) {
	params := url.Values{}
	params.Set("q", q)
	var songs []Song
	if err := c.do(ctx, errmsg.OpRemoteSearch, http.MethodGet, path, params, nil, &songs); err != nil {
		return nil, err
	}
	return ToTracks(songs), nil
}

// do sends one request and decodes a JSON response into out. Idempotent
// requests are retried once on transport errors and 5xx responses.
func (c *Client) do(
	ctx context.Context,
	op errmsg.Op,
	method, path string,
	query url.Values,
	body, out any,
) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	attempts := 1
	if idempotent(method) {
		attempts = 2
	}

	var lastErr error
	for attempt := range attempts {
		if attempt > 0 {
			if err := sleep(ctx, c.retryDelay); err != nil {
				break
			}
		}

		resp, err := c.send(ctx, method, reqURL, payload)
		if err != nil {
			lastErr = errmsg.Wrap(errmsg.ErrRemoteUnavailable, op, statusMessage(0), err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			lastErr = statusError(op, resp)
			drain(resp)
			if retryable(resp.StatusCode) {
				continue
			}
			return lastErr
		}

		err = decode(resp, out)
		drain(resp)
		if err != nil {
			return errmsg.Wrap(errmsg.ErrRemoteUnavailable, op, "decode response", err)
		}
		return nil
	}
	return lastErr
}

func (c *Client) send(ctx context.Context, method, reqURL string, payload []byte) (*http.Response, error) {
	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}

func decode(resp *http.Response, out any) error {
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	err := json.NewDecoder(resp.Body).Decode(out)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// songPath builds /songs/{id}. Locally minted ids are unknown to the server.
func songPath(op errmsg.Op, id track.ID) (string, error) {
	n, ok := id.Remote()
	if !ok {
		return "", errmsg.Wrap(errmsg.ErrNotFound, op, fmt.Sprintf("track %q is not known remotely", id), nil)
	}
	return "/songs/" + strconv.FormatUint(n, 10), nil
}
