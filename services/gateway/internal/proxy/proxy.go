package proxy

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/clubhive/clubhive/pkg/logger"
	"github.com/clubhive/clubhive/pkg/response"
)

const CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"

// ServiceProxy forwards requests to one backend service. WebSocket upgrades
// pass through; the backend sees the path with the gateway prefix removed.
type ServiceProxy struct {
	name    string
	baseURL *url.URL
	prefix  string
	rp      *httputil.ReverseProxy
	client  *http.Client
}

func NewServiceProxy(name, baseURL, stripPrefix string) (*ServiceProxy, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid %s service url %q", name, baseURL)
	}

	p := &ServiceProxy{
		name:    name,
		baseURL: u,
		prefix:  strings.TrimSuffix(stripPrefix, "/"),
		client:  &http.Client{Timeout: 2 * time.Second},
	}
	p.rp = &httputil.ReverseProxy{
		Rewrite:      p.rewrite,
		ErrorHandler: p.errorHandler,
	}
	return p, nil
}

func (p *ServiceProxy) rewrite(pr *httputil.ProxyRequest) {
	in := pr.In
	path := strings.TrimPrefix(in.URL.Path, p.prefix)
	if path == "" {
		path = "/"
	}

	pr.SetURL(p.baseURL)
	pr.Out.URL.Path = singleJoin(p.baseURL.Path, path)
	pr.Out.URL.RawPath = ""
	pr.SetXForwarded()

	// Add request ID for tracing
	if requestID, ok := in.Context().Value(logger.RequestIDKey).(string); ok {
		pr.Out.Header.Set("X-Request-ID", requestID)
	}
	pr.Out.Header.Set("X-Gateway-Forwarded", "true")
	pr.Out.Header.Set("X-Gateway-Service", "clubhive-gateway")

	logger.DebugContext(in.Context(), "Proxying request",
		"service", p.name,
		"method", in.Method,
		"url", pr.Out.URL.String(),
	)
}

func (p *ServiceProxy) errorHandler(w http.ResponseWriter, r *http.Request, err error) {
	logger.ErrorContext(r.Context(), "Upstream request failed", "service", p.name, "error", err)
	response.WriteError(w, http.StatusBadGateway, p.name+" service unavailable", CodeUpstreamUnavailable)
}

func (p *ServiceProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.rp.ServeHTTP(w, r)
}

// Ping probes the backend's /healthz.
func (p *ServiceProxy) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL.JoinPath("healthz").String(), nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", p.name, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: health status %d", p.name, resp.StatusCode)
	}
	return nil
}

func singleJoin(a, b string) string {
	switch aslash, bslash := strings.HasSuffix(a, "/"), strings.HasPrefix(b, "/"); {
	case aslash && bslash:
		return a + b[1:]
	case !aslash && !bslash:
		return a + "/" + b
	}
	return a + b
}
