package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// RateSource fetches how many units of quote one unit of base costs.
type RateSource interface {
	Name() string
	Fetch(ctx context.Context, base, quote string) (decimal.Decimal, error)
}

const maxRateBody = 1 << 20

func getBody(ctx context.Context, client *http.Client, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, u)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxRateBody))
}

// DefaultRateSources returns the production lookup order: the central
// bank's official fix first, then the aggregator.
func DefaultRateSources(aggregatorURL, centralBankURL string, client *http.Client) []RateSource {
	return []RateSource{
		&CentralBankSource{URL: centralBankURL, Client: client},
		&AggregatorSource{BaseURL: aggregatorURL, Client: client},
	}
}

// AggregatorSource reads an exchangerate.host style JSON endpoint:
// GET {BaseURL}/latest?base=EUR&symbols=RON -> {"rates":{"RON":4.97}}.
type AggregatorSource struct {
	BaseURL string
	Client  *http.Client
}

func (a *AggregatorSource) Name() string { return "aggregator" }

func (a *AggregatorSource) Fetch(ctx context.Context, base, quote string) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("base", base)
	q.Set("symbols", quote)
	u := strings.TrimRight(a.BaseURL, "/") + "/latest?" + q.Encode()

	body, err := getBody(ctx, a.Client, u)
	if err != nil {
		return decimal.Zero, err
	}

	var resp struct {
		Rates map[string]decimal.Decimal `json:"rates"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("decode aggregator response: %w", err)
	}
	rate, ok := resp.Rates[quote]
	if !ok {
		return decimal.Zero, fmt.Errorf("%s not found in aggregator response", quote)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive %s rate %s", quote, rate)
	}
	return rate, nil
}

// CentralBankSource scrapes the BNR daily fix XML, which lists RON per
// unit of each currency as <Rate currency="EUR">4.9771</Rate>, optionally
// with a multiplier attribute for currencies quoted per 100 units.
type CentralBankSource struct {
	URL    string
	Client *http.Client
}

func (c *CentralBankSource) Name() string { return "central_bank" }

func (c *CentralBankSource) Fetch(ctx context.Context, base, quote string) (decimal.Decimal, error) {
	if quote != "RON" {
		return decimal.Zero, fmt.Errorf("central bank quotes RON only, not %s", quote)
	}
	body, err := getBody(ctx, c.Client, c.URL)
	if err != nil {
		return decimal.Zero, err
	}
	return parseCentralBankRate(string(body), base)
}

func parseCentralBankRate(xml, currency string) (decimal.Decimal, error) {
	key := `Rate currency="` + currency + `"`
	i := strings.Index(xml, key)
	if i < 0 {
		return decimal.Zero, fmt.Errorf("%s not found in central bank XML", currency)
	}
	rest := xml[i+len(key):]

	gt := strings.IndexByte(rest, '>')
	if gt < 0 {
		return decimal.Zero, fmt.Errorf("malformed rate element for %s", currency)
	}
	attrs := rest[:gt]
	lt := strings.IndexByte(rest[gt+1:], '<')
	if lt < 0 {
		return decimal.Zero, fmt.Errorf("malformed rate element for %s", currency)
	}
	raw := strings.TrimSpace(rest[gt+1 : gt+1+lt])

	rate, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s rate %q: %w", currency, raw, err)
	}

	if j := strings.Index(attrs, `multiplier="`); j >= 0 {
		m := attrs[j+len(`multiplier="`):]
		if k := strings.IndexByte(m, '"'); k >= 0 {
			mult, err := decimal.NewFromString(m[:k])
			if err == nil && mult.IsPositive() {
				rate = rate.Div(mult)
			}
		}
	}

	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive %s rate %s", currency, rate)
	}
	return rate, nil
}
