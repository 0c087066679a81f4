package github

import "net/url"

// SetAPIURL points the underlying REST client at a test
// server.
func (p *Preflight) SetAPIURL(raw string) error {
	u, err := url.Parse(raw + "/")
	if err != nil {
		return err
	}

	p.client.BaseURL = u

	return nil
}
