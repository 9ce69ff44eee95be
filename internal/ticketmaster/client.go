// client.go contains the logic for talking to the ticketmaster site, logging in and
// downloading order pages. it knows nothing about what the pages mean.

package ticketmaster

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"ticketwatch/internal/components/assert"
	"ticketwatch/internal/components/restyutil"
	"ticketwatch/internal/components/telemetry"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const DefaultBaseUrl = "https://ticketing.ticketmaster.com.br"

const (
	loginPath = "/login"
	orderPath = "/order-detail"

	invalidCredentialsMarker = "senha incorreta"
)

const (
	report_client_authenticate = "client.authenticate"
	report_session_fetch_order = "session.fetch-order"
)

var tracer = otel.Tracer("ticketwatch/ticketmaster")

type Credentials struct {
	Email    string
	Password string
}

type ClientOptions struct {
	BaseUrl string
	// Timeout is applied to every request, 0 means requests never time out.
	Timeout time.Duration
	// RequestsPerSecond paces requests across every session of the client, 0 disables pacing.
	RequestsPerSecond float64
	// BypassCloudflare wraps the transport with a browser-like TLS fingerprint.
	BypassCloudflare bool
	// Transport replaces the default http transport when set.
	Transport http.RoundTripper
	// Dumper receives every exchange when set.
	Dumper *restyutil.Dumper
}

// Client creates authenticated sessions against the ticketing site.
type Client struct {
	baseUrl *url.URL
	opts    ClientOptions
	limiter *rate.Limiter
	tel     telemetry.API
}

func NewClient(opts ClientOptions, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)

	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	opts.BaseUrl = strings.TrimSuffix(opts.BaseUrl, "/")
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if baseUrl.Scheme == "" || baseUrl.Host == "" {
		return nil, fmt.Errorf("base url must be absolute: %s", opts.BaseUrl)
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &Client{
		baseUrl: baseUrl,
		opts:    opts,
		limiter: limiter,
		tel:     telemetry.NewScopedAPI("ticketmaster", tel),
	}, nil
}

// LoginUrl is the page where the user can browse their orders.
func (c *Client) LoginUrl() string {
	return c.baseUrl.JoinPath(loginPath).String()
}

// newHttp creates a resty client with its own cookie jar, every session gets one.
func (c *Client) newHttp() (*resty.Client, error) {
	httpClient := resty.New()
	httpClient.SetBaseURL(c.opts.BaseUrl)

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)

	if c.opts.Transport != nil {
		httpClient.SetTransport(c.opts.Transport)
	}
	if c.opts.BypassCloudflare {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	httpClient.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(c.baseUrl.Hostname()))
	if c.opts.Timeout > 0 {
		httpClient.SetTimeout(c.opts.Timeout)
	}

	telemetry.InstrumentResty(httpClient, c.tel, "ticketwatch/ticketmaster/http")
	if c.opts.Dumper != nil {
		c.opts.Dumper.Instrument(httpClient)
	}

	if c.limiter != nil {
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return c.limiter.Wait(req.Context())
		})
	}

	return httpClient, nil
}

// Authenticate logs in with the given credentials, every error it returns is an
// *AuthenticationError.
func (c *Client) Authenticate(ctx context.Context, creds Credentials) (*Session, error) {
	ctx, span := tracer.Start(ctx, "client:Authenticate")
	defer span.End()

	loginError := func(err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return &AuthenticationError{Err: err}
	}

	httpClient, err := c.newHttp()
	if err != nil {
		c.tel.ReportBroken(
			report_client_authenticate,
			fmt.Errorf("create http client: %w", err),
		)
		return nil, loginError(err)
	}

	res, err := httpClient.R().
		SetContext(ctx).
		SetQueryParam("tentaLogin", "1").
		SetFormData(map[string]string{
			"email": creds.Email,
			"senha": creds.Password,
		}).
		Post(loginPath)
	if err != nil {
		c.tel.ReportBroken(
			report_client_authenticate,
			fmt.Errorf("login request: %w", err),
		)
		return nil, loginError(err)
	}
	if !res.IsSuccess() {
		err := fmt.Errorf("%w: %s", ErrUnexpectedStatus, res.Status())
		c.tel.ReportBroken(report_client_authenticate, err)
		return nil, loginError(err)
	}

	if strings.Contains(string(res.Body()), invalidCredentialsMarker) {
		c.tel.ReportWarning(report_client_authenticate, ErrInvalidCredentials)
		return nil, loginError(ErrInvalidCredentials)
	}

	return &Session{http: httpClient, tel: c.tel}, nil
}

// Session is a logged in cookie jar. It must not be used by more than one
// goroutine at a time.
type Session struct {
	http *resty.Client
	tel  telemetry.API
}

// FetchOrder returns the raw status page of an order, every error it returns is a
// *FetchError.
func (s *Session) FetchOrder(ctx context.Context, orderId string) (string, error) {
	ctx, span := tracer.Start(ctx, "session:FetchOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order_id", orderId))

	res, err := s.http.R().
		SetContext(ctx).
		SetQueryParam("pedidoID", orderId).
		Get(orderPath)
	if err != nil {
		s.tel.ReportBroken(
			report_session_fetch_order,
			fmt.Errorf("fetch: %w", err),
			orderId,
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch order page")
		return "", &FetchError{OrderID: orderId, Err: err}
	}
	if !res.IsSuccess() {
		err := fmt.Errorf("%w: %s", ErrUnexpectedStatus, res.Status())
		s.tel.ReportWarning(report_session_fetch_order, err, orderId)
		span.SetStatus(codes.Error, err.Error())
		return "", &FetchError{OrderID: orderId, StatusCode: res.StatusCode(), Err: err}
	}

	return string(res.Body()), nil
}
