package pipeline

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/talkarchive/backend/common"
	"github.com/talkarchive/backend/libs/awsutil"
	"github.com/talkarchive/backend/libs/errors"
	"github.com/talkarchive/backend/libs/test"
)

type nopSigner struct{}

func (nopSigner) Sign(req *http.Request, body io.ReadSeeker) error {
	req.Header.Set("Authorization", "TEST")
	return nil
}

func countingSignerFactory(count *int) SignerFactory {
	return func(creds *credentials.Credentials, region string) RequestSigner {
		*count++
		return nopSigner{}
	}
}

var testCreds = awsutil.StaticCredentials{AccessKey: "AKTEST", SecretKey: "secret"}

func TestInvokerSignerConstructedOncePerRegion(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	}))
	defer ts.Close()

	var constructed int
	inv := NewInvoker(testCreds, InvokerSettings{}, countingSignerFactory(&constructed))

	for i := 0; i < 2; i++ {
		res, err := inv.Invoke(ts.URL, "us-east-1", nil, nil, http.MethodGet)
		test.OK(t, err)
		res.Body.Close()
	}
	test.Equals(t, 1, constructed)

	res, err := inv.Invoke(ts.URL, "eu-west-1", nil, nil, http.MethodGet)
	test.OK(t, err)
	res.Body.Close()
	test.Equals(t, 2, constructed)
}

func TestInvokerInvalidTimeouts(t *testing.T) {
	for _, bad := range []string{"abc", "-1", "0", "1.5"} {
		inv := NewInvoker(testCreds, InvokerSettings{TotalTimeout: bad}, countingSignerFactory(new(int)))
		_, err := inv.Invoke("http://example.invalid", "us-east-1", nil, nil, http.MethodGet)
		if _, ok := errors.Cause(err).(common.ConfigurationError); !ok {
			t.Fatalf("timeout %q: expected ConfigurationError, got %v", bad, err)
		}
	}
}

func TestInvokerNoCredentials(t *testing.T) {
	inv := NewInvoker(awsutil.StaticCredentials{}, InvokerSettings{}, nil)
	_, err := inv.Invoke("http://example.invalid", "us-east-1", nil, nil, http.MethodGet)
	if _, ok := errors.Cause(err).(common.ConfigurationError); !ok {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestInvokerTransportError(t *testing.T) {
	inv := NewInvoker(testCreds, InvokerSettings{TotalTimeout: "1"}, countingSignerFactory(new(int)))
	// Reserved TEST-NET address, nothing listens there.
	_, err := inv.Invoke("http://192.0.2.1:9/", "us-east-1", nil, nil, http.MethodGet)
	if _, ok := errors.Cause(err).(common.TransportError); !ok {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestInvokerSendsBodyAndQuery(t *testing.T) {
	var gotBody []byte
	var gotQuery url.Values
	var gotMethod string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotQuery = r.URL.Query()
		gotMethod = r.Method
		w.Write([]byte("{}"))
	}))
	defer ts.Close()

	inv := NewInvoker(testCreds, InvokerSettings{}, countingSignerFactory(new(int)))
	res, err := inv.Invoke(ts.URL, "us-east-1", []byte(`{"a":1}`), url.Values{"id": []string{"j-1"}}, http.MethodPost)
	test.OK(t, err)
	res.Body.Close()

	test.Equals(t, http.MethodPost, gotMethod)
	test.Equals(t, `{"a":1}`, string(gotBody))
	test.Equals(t, "j-1", gotQuery.Get("id"))
}
