// Package oauth produces two-legged OAuth 1.0a Authorization headers for
// consumer-only access to public endpoints.
package oauth

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	oauth1 "github.com/gomodule/oauth1/oauth"
)

// ErrMissingCredentials is returned when the consumer key or secret is empty.
var ErrMissingCredentials = errors.New("oauth: consumer key and secret are required")

// Method selects the signature method.
type Method int

const (
	HMACSHA1 Method = iota
	PLAINTEXT
)

func (m Method) String() string {
	switch m {
	case HMACSHA1:
		return "HMAC-SHA1"
	case PLAINTEXT:
		return "PLAINTEXT"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

func (m Method) signatureMethod() (oauth1.SignatureMethod, error) {
	switch m {
	case HMACSHA1:
		return oauth1.HMACSHA1, nil
	case PLAINTEXT:
		return oauth1.PLAINTEXT, nil
	default:
		return 0, fmt.Errorf("oauth: unsupported signature method %v", m)
	}
}

// Request describes the outbound call being signed.
type Request struct {
	Method string
	URL    string
	Query  url.Values
}

// Signer holds the consumer credentials. It is safe for concurrent use.
type Signer struct {
	credentials oauth1.Credentials
}

func NewSigner(consumerKey, consumerSecret string) (*Signer, error) {
	if consumerKey == "" || consumerSecret == "" {
		return nil, ErrMissingCredentials
	}
	return &Signer{
		credentials: oauth1.Credentials{Token: consumerKey, Secret: consumerSecret},
	}, nil
}

// Sign returns the Authorization header value for req. Query parameters in
// req.URL and req.Query both take part in the signature base string.
func (s *Signer) Sign(req Request, method Method) (string, error) {
	sigMethod, err := method.signatureMethod()
	if err != nil {
		return "", err
	}

	u, err := url.Parse(req.URL)
	if err != nil {
		return "", fmt.Errorf("oauth: parse url: %w", err)
	}
	if len(req.Query) > 0 {
		q := u.Query()
		for k, vs := range req.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	httpMethod := req.Method
	if httpMethod == "" {
		httpMethod = http.MethodGet
	}

	client := oauth1.Client{
		Credentials:     s.credentials,
		SignatureMethod: sigMethod,
	}

	header := make(http.Header)
	if err := client.SetAuthorizationHeader(header, nil, httpMethod, u, nil); err != nil {
		return "", fmt.Errorf("oauth: sign with %v: %w", method, err)
	}
	return header.Get("Authorization"), nil
}
