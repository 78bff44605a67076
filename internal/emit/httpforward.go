package emit

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/netflowd/netflowd/internal/flowstore"
	"github.com/netflowd/netflowd/internal/logger"
)

// Filter narrows which evicted summaries get forwarded upstream. An empty
// field matches anything.
type Filter struct {
	SrcAddr  string
	DstAddr  string
	DstPort  uint16
	Protocol string // tcp, udp, icmp, or a decimal protocol number
}

// HTTPForwardConfig configures the secondary HTTP-forward sink.
type HTTPForwardConfig struct {
	Enabled          bool
	Filter           Filter
	UpstreamURL      string
	IgnoreSSL        bool
	IgnoreHTTPErrors bool
	Logger           *logger.Logger
}

// HTTPForward POSTs matching evicted summaries to an upstream collector as
// JSON, adapted from the forwarding exporter pattern: build an HTTP client
// with an optional TLS-verification bypass, filter before doing any work,
// then submit and treat non-2xx responses as failures unless configured to
// ignore them.
type HTTPForward struct {
	cfg    HTTPForwardConfig
	client *http.Client
	log    *logger.Logger
}

// NewHTTPForward builds an HTTPForward sink. Returns (nil, nil) if the
// sink is disabled, so callers can register it unconditionally.
func NewHTTPForward(cfg HTTPForwardConfig) (*HTTPForward, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.UpstreamURL == "" {
		return nil, fmt.Errorf("emit: http forward requires an upstream URL")
	}

	transport := &http.Transport{
		TLSClientConfig:    &tls.Config{InsecureSkipVerify: cfg.IgnoreSSL},
		MaxIdleConns:       10,
		IdleConnTimeout:    30 * time.Second,
		DisableCompression: false,
	}
	client := &http.Client{Transport: transport, Timeout: 10 * time.Second}

	h := &HTTPForward{cfg: cfg, client: client, log: cfg.Logger}
	if h.log != nil {
		h.log.Info("http forward sink initialized",
			"upstream_url", cfg.UpstreamURL,
			"ignore_ssl", cfg.IgnoreSSL,
			"ignore_http_errors", cfg.IgnoreHTTPErrors)
	}
	return h, nil
}

func (h *HTTPForward) matches(doc Document) bool {
	f := h.cfg.Filter
	if f.SrcAddr != "" && f.SrcAddr != doc.SrcAddr {
		return false
	}
	if f.DstAddr != "" && f.DstAddr != doc.DstAddr {
		return false
	}
	if f.DstPort != 0 && f.DstPort != doc.DstPort {
		return false
	}
	if f.Protocol != "" && !protocolMatches(f.Protocol, doc.Protocol) {
		return false
	}
	return true
}

func protocolMatches(want string, got uint8) bool {
	want = strings.ToLower(strings.TrimSpace(want))
	switch want {
	case "tcp":
		return got == 6
	case "udp":
		return got == 17
	case "icmp":
		return got == 1
	default:
		n, err := strconv.Atoi(want)
		return err == nil && uint8(n) == got
	}
}

// Emit forwards s upstream if it matches the configured filter.
func (h *HTTPForward) Emit(s *flowstore.Summary) error {
	if h == nil {
		return nil
	}
	doc := ToDocument(s)
	if !h.matches(doc) {
		return nil
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("emit: marshal: %w", err)
	}

	if err := h.submit(doc, body); err != nil {
		if h.cfg.IgnoreHTTPErrors {
			if h.log != nil {
				h.log.Warn("http forward failed, ignored", "error", err)
			}
			return nil
		}
		return err
	}
	return nil
}

func (h *HTTPForward) submit(doc Document, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, h.cfg.UpstreamURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("emit: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Source-Addr", doc.SrcAddr)
	req.Header.Set("X-Destination-Addr", doc.DstAddr)
	req.Header.Set("X-Destination-Port", strconv.Itoa(int(doc.DstPort)))
	req.Header.Set("X-Protocol", strconv.Itoa(int(doc.Protocol)))

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("emit: http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("emit: upstream returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// Close releases idle HTTP connections.
func (h *HTTPForward) Close() error {
	if h == nil {
		return nil
	}
	h.client.CloseIdleConnections()
	return nil
}
