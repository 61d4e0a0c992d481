package awsutil

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/talkarchive/backend/common"
)

// CredentialProvider hands out the credentials used to sign requests to
// the processing engine. A nil, nil return means nothing is configured
// and ambient discovery (environment, instance role) should be used.
type CredentialProvider interface {
	Credentials() (*credentials.Credentials, error)
}

type credentialFile struct {
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
}

// FileCredentials loads a static access/secret pair from a JSON blob on
// disk. A successful load is cached for the process lifetime; a failed
// load is retried on the next call so a fixed file does not require a
// restart.
type FileCredentials struct {
	Path string

	mu     sync.Mutex
	cached *credentials.Credentials
}

// NewFileCredentials returns a provider reading from path. An empty path
// means unconfigured.
func NewFileCredentials(path string) *FileCredentials {
	return &FileCredentials{Path: path}
}

// Credentials implements CredentialProvider.
func (f *FileCredentials) Credentials() (*credentials.Credentials, error) {
	if f.Path == "" {
		return nil, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cached != nil {
		return f.cached, nil
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, common.ConfigurationError{Reason: "credential file " + f.Path + ": " + err.Error()}
	}
	var cf credentialFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, common.ConfigurationError{Reason: "credential file " + f.Path + ": " + err.Error()}
	}
	if cf.AccessKey == "" || cf.SecretKey == "" {
		return nil, common.ConfigurationError{Reason: "credential file " + f.Path + ": missing access_key or secret_key"}
	}
	f.cached = credentials.NewStaticCredentials(cf.AccessKey, cf.SecretKey, "")
	return f.cached, nil
}

// StaticCredentials is a CredentialProvider for tests and tools that
// already hold a key pair.
type StaticCredentials struct {
	AccessKey string
	SecretKey string
}

// Credentials implements CredentialProvider.
func (s StaticCredentials) Credentials() (*credentials.Credentials, error) {
	if s.AccessKey == "" && s.SecretKey == "" {
		return nil, nil
	}
	return credentials.NewStaticCredentials(s.AccessKey, s.SecretKey, ""), nil
}
