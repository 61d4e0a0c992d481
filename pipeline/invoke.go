// Package pipeline is the client for the external audio-processing
// engine: an API-gateway fronted service that accepts signed job
// submissions and reports job results.
package pipeline

import (
	"bytes"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws/credentials"
	v4 "github.com/aws/aws-sdk-go/aws/signer/v4"
	"github.com/talkarchive/backend/common"
	"github.com/talkarchive/backend/libs/awsutil"
	"github.com/talkarchive/backend/libs/errors"
)

const signingService = "execute-api"

// RequestSigner signs a request for one region.
type RequestSigner interface {
	Sign(req *http.Request, body io.ReadSeeker) error
}

// SignerFactory builds the signing context for a region. One is
// constructed per region and cached for the invoker's lifetime.
type SignerFactory func(creds *credentials.Credentials, region string) RequestSigner

type v4Signer struct {
	signer *v4.Signer
	region string
}

func (s *v4Signer) Sign(req *http.Request, body io.ReadSeeker) error {
	_, err := s.signer.Sign(req, body, signingService, s.region, time.Now())
	return err
}

func newV4Signer(creds *credentials.Credentials, region string) RequestSigner {
	return &v4Signer{signer: v4.NewSigner(creds), region: region}
}

// InvokerSettings carries the externally configured transport settings.
// Timeouts are string-typed because they arrive from the configuration
// store; empty means use the default.
type InvokerSettings struct {
	ConnectTimeout string
	TotalTimeout   string
}

const (
	defaultConnectTimeout = 10 * time.Second
	defaultTotalTimeout   = 60 * time.Second
)

// Invoker builds, signs and sends requests to the engine. It performs no
// retries; callers decide what a failure means.
type Invoker struct {
	creds     awsutil.CredentialProvider
	settings  InvokerSettings
	newSigner SignerFactory

	mu      sync.Mutex
	signers map[string]RequestSigner
	client  *http.Client
}

// NewInvoker returns an invoker signing with creds. A nil signerFactory
// uses SigV4 signing.
func NewInvoker(creds awsutil.CredentialProvider, settings InvokerSettings, signerFactory SignerFactory) *Invoker {
	if signerFactory == nil {
		signerFactory = newV4Signer
	}
	return &Invoker{
		creds:     creds,
		settings:  settings,
		newSigner: signerFactory,
		signers:   make(map[string]RequestSigner),
	}
}

func parseTimeout(name, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	secs, err := strconv.Atoi(value)
	if err != nil || secs <= 0 {
		return 0, common.ConfigurationError{Reason: name + " must be a positive integer, got " + strconv.Quote(value)}
	}
	return time.Duration(secs) * time.Second, nil
}

func (inv *Invoker) httpClient() (*http.Client, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.client != nil {
		return inv.client, nil
	}
	connect, err := parseTimeout("connect timeout", inv.settings.ConnectTimeout, defaultConnectTimeout)
	if err != nil {
		return nil, err
	}
	total, err := parseTimeout("total timeout", inv.settings.TotalTimeout, defaultTotalTimeout)
	if err != nil {
		return nil, err
	}
	inv.client = &http.Client{
		Timeout: total,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{Timeout: connect}).DialContext,
		},
	}
	return inv.client, nil
}

func (inv *Invoker) signerForRegion(region string) (RequestSigner, error) {
	creds, err := inv.creds.Credentials()
	if err != nil {
		return nil, errors.Trace(err)
	}
	if creds == nil {
		return nil, common.ConfigurationError{Reason: "no signing credentials available"}
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	s, ok := inv.signers[region]
	if !ok {
		s = inv.newSigner(creds, region)
		inv.signers[region] = s
	}
	return s, nil
}

// Invoke sends a single signed request and returns the raw response. The
// caller owns the response body.
func (inv *Invoker) Invoke(endpoint, region string, body []byte, query url.Values, method string) (*http.Response, error) {
	client, err := inv.httpClient()
	if err != nil {
		return nil, errors.Trace(err)
	}
	u := endpoint
	if len(query) != 0 {
		u += "?" + query.Encode()
	}
	var reader io.ReadSeeker
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, u, nil)
	if err != nil {
		return nil, common.ConfigurationError{Reason: "invalid endpoint " + endpoint + ": " + err.Error()}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.ContentLength = int64(len(body))
	}
	signer, err := inv.signerForRegion(region)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := signer.Sign(req, reader); err != nil {
		return nil, common.ConfigurationError{Reason: "signing request: " + err.Error()}
	}
	if reader != nil {
		if _, err := reader.Seek(0, io.SeekStart); err != nil {
			return nil, errors.Trace(err)
		}
		req.Body = io.NopCloser(reader)
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, common.TransportError{Cause: err}
	}
	return res, nil
}
