// Package rates fetches the central-bank key rate and derives the
// suggested annual rate for new loans.
package rates

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"

	"github.com/minibank/minibank/internal/config"
)

// Client queries the central bank's SOAP endpoint for the key rate.
type Client struct {
	url    string
	margin float64
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a rates client from configuration.
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url:    cfg.RatesURL,
		margin: cfg.LoanMarginPercent,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

const keyRateEnvelope = `<?xml version="1.0" encoding="utf-8"?>
<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
	<soap12:Body>
		<KeyRate xmlns="http://web.cbr.ru/">
			<fromDate>%s</fromDate>
			<ToDate>%s</ToDate>
		</KeyRate>
	</soap12:Body>
</soap12:Envelope>`

// KeyRate returns the most recent key rate published within the last
// 30 days, in percent.
func (c *Client) KeyRate() (float64, error) {
	to := time.Now()
	from := to.AddDate(0, 0, -30)
	envelope := fmt.Sprintf(keyRateEnvelope,
		from.Format("2006-01-02"), to.Format("2006-01-02"))

	req, err := http.NewRequest(http.MethodPost, c.url, bytes.NewBufferString(envelope))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("SOAPAction", "http://web.cbr.ru/KeyRate")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("key rate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}
	c.log.Debugf("Key rate XML response: %s", body)

	return parseKeyRate(body)
}

// parseKeyRate extracts the latest rate from the SOAP response body.
func parseKeyRate(body []byte) (float64, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return 0, fmt.Errorf("failed to parse XML: %w", err)
	}

	entries := doc.FindElements("//diffgram/KeyRate/KR")
	if len(entries) == 0 {
		return 0, fmt.Errorf("no key rate data in response")
	}
	rateElem := entries[0].FindElement("./Rate")
	if rateElem == nil {
		return 0, fmt.Errorf("rate element missing in response")
	}

	var rate float64
	if _, err := fmt.Sscanf(rateElem.Text(), "%f", &rate); err != nil {
		return 0, fmt.Errorf("failed to parse rate %q: %w", rateElem.Text(), err)
	}
	return rate, nil
}

// SuggestedLoanRate returns the key rate plus the configured bank
// margin, in percent.
func (c *Client) SuggestedLoanRate() (float64, error) {
	rate, err := c.KeyRate()
	if err != nil {
		return 0, err
	}
	suggested := rate + c.margin
	c.log.Infof("Suggested loan rate: %.2f%% (key rate %.2f%% + margin %.2f%%)", suggested, rate, c.margin)
	return suggested, nil
}
