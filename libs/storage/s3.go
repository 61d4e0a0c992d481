package storage

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

var sseAlgorithm = "AES256"

// S3 is a Store that uses AWS S3.
type S3 struct {
	s3     *s3.S3
	bucket string
	prefix string
}

// NewS3 returns a new Store that uses S3.
func NewS3(awsSession *session.Session, bucket, prefix string) *S3 {
	// Make sure the path prefix starts and ends with /
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return &S3{
		s3:     s3.New(awsSession),
		bucket: bucket,
		prefix: prefix,
	}
}

// IDFromName returns a deterministic ID for a name.
func (s *S3) IDFromName(name string) string {
	return fmt.Sprintf("s3://%s/%s%s%s", *s.s3.Config.Region, s.bucket, s.prefix, name)
}

func (s *S3) Put(name string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/binary"
	}
	path := s.prefix + name
	size := int64(len(data))
	_, err := s.s3.PutObject(&s3.PutObjectInput{
		Bucket:               &s.bucket,
		Key:                  &path,
		Body:                 bytes.NewReader(data),
		ContentLength:        &size,
		ContentType:          &contentType,
		ServerSideEncryption: &sseAlgorithm,
	})
	if err != nil {
		return "", err
	}
	return s.IDFromName(name), nil
}

func (s *S3) GetReader(id string) (io.ReadCloser, error) {
	_, bucket, key, err := s.parseURI(id)
	if err != nil {
		return nil, err
	}
	out, err := s.s3.GetObject(&s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		if e, ok := err.(awserr.RequestFailure); ok && e.StatusCode() == 404 {
			return nil, ErrNoObject
		}
		return nil, err
	}
	return out.Body, nil
}

// Size returns the byte size of the object using a HEAD request.
func (s *S3) Size(id string) (int64, error) {
	_, bucket, key, err := s.parseURI(id)
	if err != nil {
		return 0, err
	}
	out, err := s.s3.HeadObject(&s3.HeadObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		if e, ok := err.(awserr.RequestFailure); ok && e.StatusCode() == 404 {
			return 0, ErrNoObject
		}
		return 0, err
	}
	if out.ContentLength == nil {
		return 0, fmt.Errorf("storage: no content length for %s", id)
	}
	return *out.ContentLength, nil
}

func (s *S3) Delete(id string) error {
	_, bucket, key, err := s.parseURI(id)
	if err != nil {
		return err
	}
	_, err = s.s3.DeleteObject(&s3.DeleteObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	return err
}

// ExpiringURL returns a presigned GET URL valid for the given duration.
func (s *S3) ExpiringURL(id string, expiration time.Duration) (string, error) {
	_, bucket, key, err := s.parseURI(id)
	if err != nil {
		return "", err
	}
	req, _ := s.s3.GetObjectRequest(&s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	return req.Presign(expiration)
}

func (s *S3) parseURI(uri string) (region, bucket, key string, err error) {
	if !strings.HasPrefix(uri, "s3://") {
		// Bare keys refer to this store's bucket and prefix.
		return *s.s3.Config.Region, s.bucket, strings.TrimPrefix(s.prefix+uri, "/"), nil
	}
	parts := strings.SplitN(uri[len("s3://"):], "/", 3)
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("storage: invalid s3 uri %q", uri)
	}
	return parts[0], parts[1], parts[2], nil
}
