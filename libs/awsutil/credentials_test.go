package awsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/talkarchive/backend/common"
	"github.com/talkarchive/backend/libs/test"
)

func writeCredsFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "creds.json")
	test.OK(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestFileCredentialsUnconfigured(t *testing.T) {
	creds, err := NewFileCredentials("").Credentials()
	test.OK(t, err)
	if creds != nil {
		t.Fatal("empty path should mean unconfigured, not an error")
	}
}

func TestFileCredentials(t *testing.T) {
	path := writeCredsFile(t, `{"access_key": "AK", "secret_key": "SK"}`)
	p := NewFileCredentials(path)

	creds, err := p.Credentials()
	test.OK(t, err)
	v, err := creds.Get()
	test.OK(t, err)
	test.Equals(t, "AK", v.AccessKeyID)
	test.Equals(t, "SK", v.SecretAccessKey)

	// A successful load is cached: rewriting the file does not change the
	// credentials handed out.
	test.OK(t, os.WriteFile(path, []byte(`{"access_key": "X", "secret_key": "Y"}`), 0600))
	creds2, err := p.Credentials()
	test.OK(t, err)
	test.Equals(t, creds, creds2)
}

func TestFileCredentialsErrors(t *testing.T) {
	cases := []string{
		`not json`,
		`{"access_key": "AK"}`,
		`{}`,
	}
	for _, content := range cases {
		p := NewFileCredentials(writeCredsFile(t, content))
		_, err := p.Credentials()
		if _, ok := err.(common.ConfigurationError); !ok {
			t.Fatalf("expected ConfigurationError for %q, got %v", content, err)
		}
	}

	// Missing file: also a configuration error, and retried rather than
	// cached.
	p := NewFileCredentials(filepath.Join(t.TempDir(), "missing.json"))
	if _, err := p.Credentials(); err == nil {
		t.Fatal("expected an error for a missing file")
	}
	test.OK(t, os.WriteFile(p.Path, []byte(`{"access_key": "AK", "secret_key": "SK"}`), 0600))
	_, err := p.Credentials()
	test.OK(t, err)
}

func TestStaticCredentials(t *testing.T) {
	creds, err := StaticCredentials{}.Credentials()
	test.OK(t, err)
	if creds != nil {
		t.Fatal("empty static credentials should mean unconfigured")
	}

	creds, err = StaticCredentials{AccessKey: "AK", SecretKey: "SK"}.Credentials()
	test.OK(t, err)
	v, err := creds.Get()
	test.OK(t, err)
	test.Equals(t, "AK", v.AccessKeyID)
}
