package quote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/etnz/tradebook"
	"golang.org/x/time/rate"
)

/*
Yahoo chart API answer, trimmed:

	{
	  "chart": {
	    "result": [{
	      "meta": {
	        "currency": "INR",
	        "symbol": "INFY.NS",
	        "regularMarketPrice": 1523.4,
	        "chartPreviousClose": 1510.05,
	        "previousClose": 1510.05,
	        "longName": "Infosys Limited",
	        "shortName": "INFOSYS LIMITED"
	      }
	    }],
	    "error": null
	  }
	}
*/

// YahooURL is the default Yahoo Finance API root.
const YahooURL = "https://query1.finance.yahoo.com"

// Yahoo prices listed instruments from the Yahoo Finance chart API. The
// instrument ticker is used as the Yahoo symbol (e.g. "INFY.NS").
type Yahoo struct {
	BaseURL string
	Client  *http.Client
	Limiter *rate.Limiter
}

// NewYahoo returns a Yahoo source throttled to rps requests per second.
func NewYahoo(rps float64, timeout time.Duration) *Yahoo {
	return &Yahoo{BaseURL: YahooURL, Client: newClient(timeout), Limiter: newLimiter(rps)}
}

func (y *Yahoo) Quote(ctx context.Context, inst tradebook.Instrument) (tradebook.Quote, error) {
	addr := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d", y.BaseURL, url.PathEscape(inst.Ticker))
	var jobj any
	if err := jwget(ctx, y.Client, y.Limiter, addr, nil, &jobj); err != nil {
		return tradebook.Quote{}, fmt.Errorf("yahoo %s: %w", inst.Ticker, err)
	}
	if msg := firstString(jobj, "$.chart.error.description"); msg != "" {
		return tradebook.Quote{}, fmt.Errorf("yahoo %s: %s: %w", inst.Ticker, msg, tradebook.ErrNoPrice)
	}

	const meta = "$.chart.result[0].meta"
	price, err := firstNumber(jobj, meta+".regularMarketPrice", meta+".previousClose", meta+".chartPreviousClose")
	if err != nil {
		return tradebook.Quote{}, fmt.Errorf("yahoo %s: %v: %w", inst.Ticker, err, tradebook.ErrNoPrice)
	}
	prev, err := firstNumber(jobj, meta+".previousClose", meta+".chartPreviousClose")
	if err != nil {
		prev = price
	}
	name := firstString(jobj, meta+".longName", meta+".shortName")
	if name == "" {
		name = inst.Ticker
	}
	return tradebook.Quote{Price: price, PreviousClose: prev, Name: name, Source: "yahoo"}, nil
}
