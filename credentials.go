package cerebras

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/cerebras-community/cerebras-go/internal/security"
)

// demoKeyQuery is the GraphQL operation the web playground issues to mint a
// demo API key for the session behind the cookies.
const demoKeyQuery = `{"operationName":"GetMyDemoApiKey","variables":{},"query":"query GetMyDemoApiKey {\n  GetMyDemoApiKey\n}"}`

// demoKeyField locates the key inside the issuance response.
const demoKeyField = "data.GetMyDemoApiKey"

// RefreshKey fetches a fresh demo API key with the client's cookies and
// replaces the cached credential wholesale. It fails with a CredentialError
// when the client was constructed from a fixed API key, since there are no
// cookies to refresh with.
func (c *Client) RefreshKey(ctx context.Context) error {
	if !c.canRefresh() {
		return &CredentialError{Op: "refresh", Message: "client holds a fixed API key; no cookies to refresh with"}
	}
	_, err := c.refreshKey(ctx)
	return err
}

func (c *Client) canRefresh() bool {
	return c.cookies != ""
}

// ensureKey returns the cached credential, fetching one first when the
// client was constructed from cookies and nothing is cached yet.
func (c *Client) ensureKey(ctx context.Context) (string, error) {
	c.mu.Lock()
	key := c.apiKey
	c.mu.Unlock()
	if key != "" {
		return key, nil
	}
	return c.refreshKey(ctx)
}

// refreshKey performs the issuance call. Concurrent callers collapse into a
// single in-flight request and all observe its outcome; on failure nothing
// is cached.
func (c *Client) refreshKey(ctx context.Context) (string, error) {
	v, err, _ := c.refresh.Do("demo-key", func() (interface{}, error) {
		key, err := c.fetchDemoKey(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.apiKey = key
		c.mu.Unlock()

		c.logger.Info("demo key refreshed", slog.String("key", security.MaskKey(key)))
		return key, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// fetchDemoKey posts the GetMyDemoApiKey operation with the cookie header
// and a browser-shaped request so the endpoint treats it like the web
// playground. No retry happens here; retry policy lives one level up.
func (c *Client) fetchDemoKey(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, bytes.NewReader([]byte(demoKeyQuery)))
	if err != nil {
		return "", &CredentialError{Op: "request", Message: "failed to build issuance request", Err: err}
	}

	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cookie", c.cookies)
	req.Header.Set("DNT", "1")
	req.Header.Set("Origin", c.origin)
	req.Header.Set("Referer", c.origin+"/")
	req.Header.Set("Sec-Fetch-Dest", "empty")
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Site", "same-origin")
	req.Header.Set("User-Agent", randomUserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &CredentialError{Op: "request", Message: "key-issuance endpoint unreachable", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &CredentialError{Op: "request", Message: "failed to read issuance response", Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", &CredentialError{Op: "status", StatusCode: resp.StatusCode, Message: "cookies rejected by the issuance endpoint"}
	case resp.StatusCode != http.StatusOK:
		return "", &CredentialError{Op: "status", StatusCode: resp.StatusCode, Message: "unexpected issuance response status"}
	}

	// The issuance endpoint reports GraphQL-level failures with HTTP 200.
	if errMsg := gjson.GetBytes(body, "errors.0.message"); errMsg.Exists() {
		return "", &CredentialError{Op: "parse", StatusCode: resp.StatusCode, Message: errMsg.String()}
	}

	key := gjson.GetBytes(body, demoKeyField).String()
	if key == "" {
		return "", &CredentialError{Op: "parse", StatusCode: resp.StatusCode, Message: "issuance response missing " + demoKeyField}
	}

	return key, nil
}
