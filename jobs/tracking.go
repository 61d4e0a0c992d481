// Package jobs implements the processing-job lifecycle: idempotent
// submission to the external engine, the DynamoDB tracking table, and
// reconciliation of reported outcomes back into recording state.
package jobs

import (
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/talkarchive/backend/common"
	"github.com/talkarchive/backend/libs/awsutil"
	"github.com/talkarchive/backend/libs/clock"
	"github.com/talkarchive/backend/libs/errors"
	"github.com/talkarchive/backend/libs/ptr"
)

// ReclaimWindow is the staleness after which an in-progress row is
// considered abandoned and may be overwritten by a new submission. It
// must exceed the engine worker's own execution timeout (15m) by a
// safety margin so a live worker is never raced.
const ReclaimWindow = 20 * time.Minute

const trackingTableNameFormatString = "%s_processing_job"

// AN represents an "Attribute Name" in the tracking table.
const (
	inputKeyAN     = "input_key"
	jobStatusAN    = "job_status"
	outputSubKeyAN = "output_sub_key"
	queueTimeAN    = "queue_time"
	durationAN     = "duration"
	languageAN     = "language"
	transcribeAN   = "transcribe"
	titleAN        = "title"
	speakerAN      = "speaker"
	yearAN         = "year"
	congregationAN = "congregation"
)

// submitGuard accepts the write when the row is absent, terminal, or
// in progress but older than the reclaim window.
var submitGuard = ptr.String(
	"attribute_not_exists(" + inputKeyAN + ")" +
		" OR " + jobStatusAN + " = :completed" +
		" OR " + jobStatusAN + " = :failed" +
		" OR " + jobStatusAN + " = :notstarted" +
		" OR (" + jobStatusAN + " = :inprogress AND " + queueTimeAN + " < :stale)")

// TrackingRow is one job submission keyed by input identity.
type TrackingRow struct {
	InputKey     string
	Status       int
	OutputSubKey string
	QueueTime    int64
	DurationSec  float64

	Language     string
	Transcribe   bool
	Title        string
	Speaker      string
	Year         int
	Congregation string
}

// TrackingStore wraps the DynamoDB tracking table.
type TrackingStore struct {
	db        awsutil.DynamoDBAPI
	tableName *string
	clk       clock.Clock
}

// NewTrackingStore returns a store for the environment's tracking table,
// bootstrapping the table if it doesn't exist.
func NewTrackingStore(db awsutil.DynamoDBAPI, env string, clk clock.Clock) (*TrackingStore, error) {
	s := &TrackingStore{
		db:        db,
		tableName: ptr.String(fmt.Sprintf(trackingTableNameFormatString, env)),
		clk:       clk,
	}
	return s, errors.Trace(awsutil.CreateDynamoDBTable(db, &dynamodb.CreateTableInput{
		TableName: s.tableName,
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{
				AttributeName: ptr.String(inputKeyAN),
				AttributeType: ptr.String("S"),
			},
		},
		KeySchema: []*dynamodb.KeySchemaElement{
			{
				AttributeName: ptr.String(inputKeyAN),
				KeyType:       ptr.String("HASH"),
			},
		},
		ProvisionedThroughput: &dynamodb.ProvisionedThroughput{
			ReadCapacityUnits:  ptr.Int64(10),
			WriteCapacityUnits: ptr.Int64(10),
		},
	}))
}

// Submit conditionally writes the row as a fresh in-progress job. The
// write is rejected with ConflictError when another active submission
// holds the row and the reclaim window has not elapsed. Atomicity is
// entirely the store's conditional put; there is no client-side locking.
func (s *TrackingStore) Submit(row *TrackingRow) error {
	now := s.clk.Now()
	stale := now.Add(-ReclaimWindow).Unix()
	item := map[string]*dynamodb.AttributeValue{
		inputKeyAN:     {S: ptr.String(row.InputKey)},
		jobStatusAN:    {N: ptr.String(strconv.Itoa(common.JobStatusInProgress))},
		outputSubKeyAN: {S: ptr.String(row.OutputSubKey)},
		queueTimeAN:    {N: ptr.String(strconv.FormatInt(now.Unix(), 10))},
		languageAN:     {S: ptr.String(row.Language)},
		transcribeAN:   {BOOL: ptr.Bool(row.Transcribe)},
		titleAN:        {S: ptr.String(row.Title)},
	}
	if row.Speaker != "" {
		item[speakerAN] = &dynamodb.AttributeValue{S: ptr.String(row.Speaker)}
	}
	if row.Year != 0 {
		item[yearAN] = &dynamodb.AttributeValue{N: ptr.String(strconv.Itoa(row.Year))}
	}
	if row.Congregation != "" {
		item[congregationAN] = &dynamodb.AttributeValue{S: ptr.String(row.Congregation)}
	}
	_, err := s.db.PutItem(&dynamodb.PutItemInput{
		TableName:           s.tableName,
		Item:                item,
		ConditionExpression: submitGuard,
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":completed":  {N: ptr.String(strconv.Itoa(common.JobStatusCompleted))},
			":failed":     {N: ptr.String(strconv.Itoa(common.JobStatusFailed))},
			":notstarted": {N: ptr.String(strconv.Itoa(common.JobStatusNotStarted))},
			":inprogress": {N: ptr.String(strconv.Itoa(common.JobStatusInProgress))},
			":stale":      {N: ptr.String(strconv.FormatInt(stale, 10))},
		},
	})
	if err != nil {
		if awsutil.IsConditionalCheckFailed(err) {
			return common.ConflictError{InputKey: row.InputKey}
		}
		return common.StoreError{Cause: err}
	}
	return nil
}

// Status looks up the row for an input identity. A nil row means the
// store has never seen this input.
func (s *TrackingStore) Status(inputKey string) (*TrackingRow, error) {
	out, err := s.db.GetItem(&dynamodb.GetItemInput{
		TableName:      s.tableName,
		ConsistentRead: ptr.Bool(true),
		Key: map[string]*dynamodb.AttributeValue{
			inputKeyAN: {S: ptr.String(inputKey)},
		},
	})
	if err != nil {
		return nil, common.StoreError{Cause: err}
	}
	if out.Item == nil {
		return nil, nil
	}
	row := &TrackingRow{InputKey: inputKey}
	if av := out.Item[jobStatusAN]; av != nil && av.N != nil {
		st, err := strconv.Atoi(*av.N)
		if err != nil {
			return nil, common.StoreError{Cause: errors.Annotatef(err, "bad %s for %s", jobStatusAN, inputKey)}
		}
		row.Status = st
	}
	if av := out.Item[outputSubKeyAN]; av != nil && av.S != nil {
		row.OutputSubKey = *av.S
	}
	if av := out.Item[queueTimeAN]; av != nil && av.N != nil {
		qt, err := strconv.ParseInt(*av.N, 10, 64)
		if err != nil {
			return nil, common.StoreError{Cause: errors.Annotatef(err, "bad %s for %s", queueTimeAN, inputKey)}
		}
		row.QueueTime = qt
	}
	if av := out.Item[durationAN]; av != nil && av.N != nil {
		d, err := strconv.ParseFloat(*av.N, 64)
		if err != nil {
			return nil, common.StoreError{Cause: errors.Annotatef(err, "bad %s for %s", durationAN, inputKey)}
		}
		row.DurationSec = d
	}
	if av := out.Item[transcribeAN]; av != nil && av.BOOL != nil {
		row.Transcribe = *av.BOOL
	}
	return row, nil
}
