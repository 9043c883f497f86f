package hmmer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yumyai/pfamscan/logger"
	"go.uber.org/zap"
)

const (
	// DefaultServiceURL is the EBI hmmscan endpoint.
	DefaultServiceURL = "http://www.ebi.ac.uk/Tools/hmmer/search/hmmscan"
	DefaultDatabase   = "pfam"

	// ConnectTimeout bounds dialing only; reading the response has no limit beyond
	// the caller's context.
	ConnectTimeout = 15 * time.Second
)

var ErrNoLocation = errors.New("hmmscan response has no Location header")

// Scanner is implemented by anything that can annotate a protein sequence.
type Scanner interface {
	Scan(ctx context.Context, sequence string) ([]*Result, error)
}

// RemoteScan submits sequences to the HMMER web service.
type RemoteScan struct {
	serviceURL string
	database   string
	cutGA      bool
	client     *http.Client
}

type Option func(*RemoteScan)

func WithServiceURL(u string) Option {
	return func(s *RemoteScan) { s.serviceURL = u }
}

func WithDatabase(db string) Option {
	return func(s *RemoteScan) { s.database = db }
}

// WithCutGA toggles the gathering threshold. With it on, hmmscan uses the
// per-family thresholds from the HMM file, so no false positives are reported.
func WithCutGA(on bool) Option {
	return func(s *RemoteScan) { s.cutGA = on }
}

// WithHTTPClient replaces the default client. Redirect following is switched off on
// the given client, since the Location header has to be read by hand.
func WithHTTPClient(c *http.Client) Option {
	return func(s *RemoteScan) { s.client = c }
}

func newHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	return &http.Client{Transport: transport}
}

func NewRemoteScan(opts ...Option) *RemoteScan {
	s := &RemoteScan{
		serviceURL: DefaultServiceURL,
		database:   DefaultDatabase,
		cutGA:      true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = newHTTPClient()
	}
	noRedirect := *s.client
	noRedirect.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	s.client = &noRedirect
	return s
}

// Scan scans the sequence against the configured service.
func (s *RemoteScan) Scan(ctx context.Context, sequence string) ([]*Result, error) {
	return s.ScanURL(ctx, sequence, s.serviceURL)
}

// ScanURL posts the sequence to serviceURL, follows the returned Location and
// parses the hits found there. Transport failures are returned; a response that
// cannot be parsed is logged and whatever was decoded before the failure is
// returned with a nil error.
func (s *RemoteScan) ScanURL(ctx context.Context, sequence string, serviceURL string) ([]*Result, error) {
	location, err := s.submit(ctx, sequence, serviceURL)
	if err != nil {
		return nil, err
	}

	body, err := s.fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	results, parseErr := ParseResults(body)
	if parseErr != nil {
		logger.Error("Failed to parse hmmscan result",
			zap.String("location", location),
			zap.Int("parsed_hits", len(results)),
			zap.Error(parseErr))
	}

	logger.Info("hmmscan finished",
		zap.String("location", location),
		zap.Int("hits", len(results)))

	return results, nil
}

func (s *RemoteScan) postContent(sequence string) string {
	var sb strings.Builder
	sb.WriteString("hmmdb=")
	sb.WriteString(url.QueryEscape(s.database))
	if s.cutGA {
		sb.WriteString("&cut_ga=1")
	}
	sb.WriteString("&seq=")
	sb.WriteString(url.QueryEscape(sequence))
	return sb.String()
}

// submit posts the search and returns the absolute result location.
func (s *RemoteScan) submit(ctx context.Context, sequence string, serviceURL string) (string, error) {
	base, err := url.Parse(serviceURL)
	if err != nil {
		return "", fmt.Errorf("invalid service url %q: %w", serviceURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base.String(), strings.NewReader(s.postContent(sequence)))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to submit sequence to %s: %w", serviceURL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusInternalServerError {
		logger.Warn("hmmscan submission returned an error status",
			zap.String("service", serviceURL),
			zap.String("status", resp.Status))
	}

	rawLocation := resp.Header.Get("Location")
	if rawLocation == "" {
		return "", fmt.Errorf("%w (status %s)", ErrNoLocation, resp.Status)
	}
	location, err := base.Parse(rawLocation)
	if err != nil {
		return "", fmt.Errorf("invalid result location %q: %w", rawLocation, err)
	}

	return location.String(), nil
}

func (s *RemoteScan) fetch(ctx context.Context, location string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch result from %s: %w", location, err)
	}
	if resp.StatusCode != http.StatusOK {
		logger.Warn("Unexpected status fetching hmmscan result",
			zap.String("location", location),
			zap.String("status", resp.Status))
	}
	return resp.Body, nil
}
