package awsutil

import (
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/talkarchive/backend/libs/errors"
	"github.com/talkarchive/backend/libs/golog"
)

// DynamoDBAPI is the subset of the dynamodb client the services use.
// Declared here so tests can substitute a mock.
type DynamoDBAPI interface {
	PutItem(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
	GetItem(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	CreateTable(*dynamodb.CreateTableInput) (*dynamodb.CreateTableOutput, error)
	DescribeTable(*dynamodb.DescribeTableInput) (*dynamodb.DescribeTableOutput, error)
}

// CreateDynamoDBTable bootstraps a table if it doesn't already exist.
func CreateDynamoDBTable(db DynamoDBAPI, input *dynamodb.CreateTableInput) error {
	_, err := db.DescribeTable(&dynamodb.DescribeTableInput{TableName: input.TableName})
	if err == nil {
		return nil
	}
	if aerr, ok := errors.Cause(err).(awserr.Error); !ok || aerr.Code() != dynamodb.ErrCodeResourceNotFoundException {
		return errors.Trace(err)
	}
	golog.Infof("Creating dynamodb table %s", *input.TableName)
	if _, err := db.CreateTable(input); err != nil {
		return errors.Trace(err)
	}
	return nil
}

// IsConditionalCheckFailed reports whether err is the conditional-write
// rejection from DynamoDB.
func IsConditionalCheckFailed(err error) bool {
	aerr, ok := errors.Cause(err).(awserr.Error)
	return ok && aerr.Code() == dynamodb.ErrCodeConditionalCheckFailedException
}
