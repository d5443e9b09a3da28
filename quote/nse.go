package quote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/etnz/tradebook"
	"golang.org/x/time/rate"
)

// NSEURL is the default National Stock Exchange of India site.
const NSEURL = "https://www.nseindia.com"

// NSE prices sovereign gold bonds from the NSE quote-equity API.
type NSE struct {
	BaseURL string
	Client  *http.Client
	Limiter *rate.Limiter
}

// NewNSE returns an NSE source throttled to rps requests per second.
func NewNSE(rps float64, timeout time.Duration) *NSE {
	return &NSE{BaseURL: NSEURL, Client: newClient(timeout), Limiter: newLimiter(rps)}
}

func (n *NSE) Quote(ctx context.Context, inst tradebook.Instrument) (tradebook.Quote, error) {
	symbol := strings.TrimSuffix(strings.TrimSuffix(inst.Ticker, ".NS"), ".BO")
	addr := fmt.Sprintf("%s/api/quote-equity?symbol=%s", n.BaseURL, url.QueryEscape(symbol))
	header := http.Header{
		"Accept-Language": {"en-US,en;q=0.9"},
		"Accept":          {"application/json, text/javascript, */*; q=0.01"},
	}
	var jobj any
	if err := jwget(ctx, n.Client, n.Limiter, addr, header, &jobj); err != nil {
		return tradebook.Quote{}, fmt.Errorf("nse %s: %w", inst.Ticker, err)
	}
	price, err := firstNumber(jobj, "$.priceInfo.lastPrice", "$.priceInfo.close")
	if err != nil {
		return tradebook.Quote{}, fmt.Errorf("nse %s: %v: %w", inst.Ticker, err, tradebook.ErrNoPrice)
	}
	prev, err := firstNumber(jobj, "$.priceInfo.previousClose")
	if err != nil {
		prev = price
	}
	name := firstString(jobj, "$.info.companyName")
	if name == "" {
		name = inst.Ticker + " (Sovereign Gold Bond)"
	}
	return tradebook.Quote{Price: price, PreviousClose: prev, Name: name, Source: "nse"}, nil
}
