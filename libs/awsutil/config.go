// Package awsutil holds the AWS plumbing shared by services: config and
// credential construction plus small DynamoDB helpers.
package awsutil

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/credentials/ec2rolecreds"
	"github.com/aws/aws-sdk-go/aws/session"
)

// Config returns an AWS config using either the provided credentials, the
// environment, or the EC2 role depending on what's available.
func Config(region, accessKey, secretKey, token string) (*aws.Config, error) {
	var cred *credentials.Credentials
	if accessKey != "" && secretKey != "" {
		cred = credentials.NewStaticCredentials(accessKey, secretKey, token)
	} else {
		cred = credentials.NewEnvCredentials()
		if v, err := cred.Get(); err != nil || v.AccessKeyID == "" || v.SecretAccessKey == "" {
			cred = ec2rolecreds.NewCredentials(session.Must(session.NewSession()))
		}
	}
	return &aws.Config{
		Credentials: cred,
		Region:      aws.String(region),
	}, nil
}
