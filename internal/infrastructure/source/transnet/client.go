package transnet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/procurewatch/tender-ingest/internal/core/domain"
)

// DefaultEndpoint is the portal's advertised-tenders listing.
const DefaultEndpoint = "https://transnetetenders.azurewebsites.net/Home/GetAdvertisedTenders"

// The portal rejects non-browser clients, so the fetch presents itself as one.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Client fetches advertised tender listings from the Transnet eTenders portal.
type Client struct {
	endpoint   string
	userAgent  string
	httpClient *http.Client
}

func New() *Client {
	return NewWithOptions(Options{})
}

type Options struct {
	Endpoint  string
	UserAgent string
	Timeout   time.Duration
}

func NewWithOptions(options Options) *Client {
	endpoint := strings.TrimSpace(options.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	userAgent := options.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// listing mirrors the portal envelope; the items live under "result" and the
// key may be absent entirely, which means zero listings.
type listing struct {
	Result []domain.RawTender `json:"result"`
}

// FetchAdvertised performs one GET against the portal. Any transport, status
// or decoding problem is wrapped as domain.ErrSourceUnavailable, which is
// fatal for the run.
func (c *Client) FetchAdvertised(ctx context.Context) ([]domain.RawTender, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, domain.WrapError(domain.ErrSourceUnavailable, "create fetch request", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrSourceUnavailable, "fetch advertised tenders", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, domain.WrapError(domain.ErrSourceUnavailable, "fetch advertised tenders", statusError(resp))
	}

	var body listing
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, domain.WrapError(domain.ErrSourceUnavailable, "decode tender listing", err)
	}
	return body.Result, nil
}

func statusError(resp *http.Response) error {
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	msg := strings.TrimSpace(string(excerpt))
	if msg == "" {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return fmt.Errorf("unexpected status: %s: %s", resp.Status, msg)
}
