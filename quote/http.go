// Package quote implements the price sources of the tradebook: Yahoo Finance
// for listed instruments, NSE for sovereign gold bonds, a local backup file of
// closing prices, and the cache and chain that combine them.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when a provider answers 429 Too Many Requests.
var ErrRateLimited = errors.New("rate limited")

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// newClient returns an http client keeping cookies across requests, some
// providers require a session cookie before answering.
func newClient(timeout time.Duration) *http.Client {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L().Error().Err(err).Msg("cannot create cookie jar")
	}
	return &http.Client{Jar: jar, Timeout: timeout}
}

// newLimiter returns a limiter allowing rps requests per second, unbounded when rps <= 0.
func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// jwget performs an HTTP GET request and unmarshals the JSON response into the provided data structure.
func jwget(ctx context.Context, client *http.Client, limiter *rate.Limiter, addr string, header http.Header, data any) error {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	logger.L().Debug().Str("host", req.URL.Host).Str("path", req.URL.Path).Int("status", resp.StatusCode).Msg("GET")

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("cannot http GET %v%v: %w", req.URL.Host, req.URL.Path, ErrRateLimited)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("cannot http GET %v%v: %v: %w", req.URL.Host, req.URL.Path, resp.Status, tradebook.ErrNoPrice)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("cannot http GET %v%v: %v", req.URL.Host, req.URL.Path, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, data)
}

// get evaluates a jsonpath and returns its first value.
func get(path string, jobj any) (any, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, err
	}
	// because jsonpath is never clear about wheter it returns a list of 1 answer, or a single answer:
	// by this call I keep the first one if any
	if jlist, ok := jval.([]any); ok {
		if len(jlist) == 0 {
			return nil, fmt.Errorf("%s: no value", path)
		}
		jval = jlist[0]
	}
	if jval == nil {
		return nil, fmt.Errorf("%s: null", path)
	}
	return jval, nil
}

// number reads a decimal at path, providers send numbers or strings like "1,234.50".
func number(path string, jobj any) (decimal.Decimal, error) {
	jval, err := get(path, jobj)
	if err != nil {
		return decimal.Zero, err
	}
	switch v := jval.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return decimal.Zero, fmt.Errorf("%s: invalid number %q", path, v)
		}
		return decimal.NewFromString(s)
	default:
		return decimal.Zero, fmt.Errorf("%s: not a number: %v", path, jval)
	}
}

// firstNumber returns the first positive number found at paths.
func firstNumber(jobj any, paths ...string) (decimal.Decimal, error) {
	var errs error
	for _, p := range paths {
		d, err := number(p, jobj)
		if err == nil && d.IsPositive() {
			return d, nil
		}
		errs = errors.Join(errs, err)
	}
	if errs == nil {
		errs = errors.New("no positive value")
	}
	return decimal.Zero, errs
}

// firstString returns the first non empty string found at paths.
func firstString(jobj any, paths ...string) string {
	for _, p := range paths {
		if jval, err := get(p, jobj); err == nil {
			if s, ok := jval.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
