package mackay

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"time"

	"mackay-backend/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

// SessionFailed wraps any failure of the bootstrap GET sequence. The
// registration POST is rejected without the cookies those pages set,
// so callers must treat this as fatal for the whole run.
var SessionFailed = fmt.Errorf("failed to establish a registration session")

type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client
}

type ClientOptions struct {
	BaseUrl string
}

func NewClient(opts ClientOptions) (*Client, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36")
	client.SetHeader("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	client.SetHeader("accept-language", "zh-TW,zh;q=0.9,en-US;q=0.8,en;q=0.7")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)

	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	c := &Client{
		BaseUrl: baseUrl,
		Http:    client,
	}
	return c, nil
}

// Initialize walks the entry and registration-form pages in order to
// pick up the cookies the form handler expects. Safe to call once per
// run; there is no retry here, re-running the bootstrap is the
// caller's decision.
func (c *Client) Initialize(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:Initialize")
	defer span.End()

	for _, page := range []string{"/index.php", "/register_action.php"} {
		res, err := c.Http.R().
			SetContext(ctx).
			Get(page)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "bootstrap fetch failed")
			return fmt.Errorf("%w: GET %s: %v", SessionFailed, page, err)
		}
		if res.IsError() {
			span.SetStatus(codes.Error, "bootstrap fetch returned error status")
			return fmt.Errorf("%w: GET %s: status %d", SessionFailed, page, res.StatusCode())
		}
	}

	return nil
}
