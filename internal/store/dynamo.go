package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/talgya/cropplan/internal/plan"
)

// DynamoJobs persists job rows in one DynamoDB table keyed by job_id.
// All state transitions are conditional writes: duplicate inserts,
// progress-after-cancel and double-finish are rejected by the table,
// not by application locks.
type DynamoJobs struct {
	client *dynamodb.Client
	table  string
}

// NewDynamoJobs wraps a DynamoDB client for one table.
func NewDynamoJobs(client *dynamodb.Client, table string) *DynamoJobs {
	return &DynamoJobs{client: client, table: table}
}

func (d *DynamoJobs) PutNew(ctx context.Context, row *JobRow) error {
	item := map[string]dtypes.AttributeValue{
		"job_id":       &dtypes.AttributeValueMemberS{Value: row.JobID},
		"status":       &dtypes.AttributeValueMemberS{Value: string(row.Status)},
		"progress":     &dtypes.AttributeValueMemberN{Value: formatFloat(row.Progress)},
		"cancel_flag":  &dtypes.AttributeValueMemberBOOL{Value: row.CancelFlag},
		"submitted_at": &dtypes.AttributeValueMemberS{Value: row.SubmittedAt.UTC().Format(time.RFC3339Nano)},
		"expires_at":   &dtypes.AttributeValueMemberN{Value: strconv.FormatInt(row.ExpiresAt.Unix(), 10)},
	}
	if row.Phase != "" {
		item["phase"] = &dtypes.AttributeValueMemberS{Value: row.Phase}
	}
	if row.IdemKey != "" {
		item["idem_key"] = &dtypes.AttributeValueMemberS{Value: row.IdemKey}
	}
	if row.RequestRef != "" {
		item["request_ref"] = &dtypes.AttributeValueMemberS{Value: row.RequestRef}
	}

	_, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(d.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(job_id)"),
	})
	if err != nil {
		var ccf *dtypes.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("dynamodb put %s: %w", row.JobID, err)
	}
	return nil
}

func (d *DynamoJobs) Get(ctx context.Context, jobID string) (*JobRow, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            jobKey(jobID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb get %s: %w", jobID, err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	return rowFromItem(out.Item), nil
}

func (d *DynamoJobs) SetRunning(ctx context.Context, jobID string, startedAt time.Time) error {
	now := startedAt.UTC().Format(time.RFC3339Nano)
	_, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(d.table),
		Key:                 jobKey(jobID),
		UpdateExpression:    aws.String("SET #s = :running, started_at = :now, last_heartbeat = :now"),
		ConditionExpression: aws.String("attribute_exists(job_id) AND #s = :queued AND cancel_flag = :false"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]dtypes.AttributeValue{
			":running": &dtypes.AttributeValueMemberS{Value: string(plan.JobRunning)},
			":queued":  &dtypes.AttributeValueMemberS{Value: string(plan.JobQueued)},
			":false":   &dtypes.AttributeValueMemberBOOL{Value: false},
			":now":     &dtypes.AttributeValueMemberS{Value: now},
		},
	})
	if err != nil {
		return d.classifyConditional(ctx, jobID, err)
	}
	return nil
}

func (d *DynamoJobs) SetProgress(ctx context.Context, jobID string, progress float64, phase string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(d.table),
		Key:                 jobKey(jobID),
		UpdateExpression:    aws.String("SET progress = :p, phase = :ph, last_heartbeat = :now"),
		ConditionExpression: aws.String("attribute_exists(job_id) AND cancel_flag = :false AND #s = :running"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]dtypes.AttributeValue{
			":p":       &dtypes.AttributeValueMemberN{Value: formatFloat(progress)},
			":ph":      &dtypes.AttributeValueMemberS{Value: phase},
			":false":   &dtypes.AttributeValueMemberBOOL{Value: false},
			":running": &dtypes.AttributeValueMemberS{Value: string(plan.JobRunning)},
			":now":     &dtypes.AttributeValueMemberS{Value: now},
		},
	})
	if err != nil {
		return d.classifyConditional(ctx, jobID, err)
	}
	return nil
}

func (d *DynamoJobs) RequestCancel(ctx context.Context, jobID string) (*JobRow, error) {
	out, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(d.table),
		Key:                 jobKey(jobID),
		UpdateExpression:    aws.String("SET cancel_flag = :true"),
		ConditionExpression: aws.String("attribute_exists(job_id) AND NOT #s IN (:succ, :fail, :tout, :can)"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]dtypes.AttributeValue{
			":true": &dtypes.AttributeValueMemberBOOL{Value: true},
			":succ": &dtypes.AttributeValueMemberS{Value: string(plan.JobSucceeded)},
			":fail": &dtypes.AttributeValueMemberS{Value: string(plan.JobFailed)},
			":tout": &dtypes.AttributeValueMemberS{Value: string(plan.JobTimeout)},
			":can":  &dtypes.AttributeValueMemberS{Value: string(plan.JobCanceled)},
		},
		ReturnValues: dtypes.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *dtypes.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			// Terminal or missing: cancel is idempotent, return as-is.
			return d.Get(ctx, jobID)
		}
		return nil, fmt.Errorf("dynamodb cancel %s: %w", jobID, err)
	}
	row := rowFromItem(out.Attributes)

	if row.Status == plan.JobQueued {
		// Never picked up: finish it directly.
		now := time.Now().UTC()
		_, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:           aws.String(d.table),
			Key:                 jobKey(jobID),
			UpdateExpression:    aws.String("SET #s = :can, completed_at = :now"),
			ConditionExpression: aws.String("#s = :queued"),
			ExpressionAttributeNames: map[string]string{
				"#s": "status",
			},
			ExpressionAttributeValues: map[string]dtypes.AttributeValue{
				":can":    &dtypes.AttributeValueMemberS{Value: string(plan.JobCanceled)},
				":queued": &dtypes.AttributeValueMemberS{Value: string(plan.JobQueued)},
				":now":    &dtypes.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
			},
		})
		var ccf *dtypes.ConditionalCheckFailedException
		if err != nil && !errors.As(err, &ccf) {
			return nil, fmt.Errorf("dynamodb cancel %s: %w", jobID, err)
		}
		return d.Get(ctx, jobID)
	}
	return row, nil
}

func (d *DynamoJobs) MarkTerminal(ctx context.Context, jobID string, status plan.JobStatus, resultRef, errMsg string, completedAt time.Time) error {
	expr := "SET #s = :s, completed_at = :now"
	values := map[string]dtypes.AttributeValue{
		":s":    &dtypes.AttributeValueMemberS{Value: string(status)},
		":now":  &dtypes.AttributeValueMemberS{Value: completedAt.UTC().Format(time.RFC3339Nano)},
		":succ": &dtypes.AttributeValueMemberS{Value: string(plan.JobSucceeded)},
		":fail": &dtypes.AttributeValueMemberS{Value: string(plan.JobFailed)},
		":tout": &dtypes.AttributeValueMemberS{Value: string(plan.JobTimeout)},
		":can":  &dtypes.AttributeValueMemberS{Value: string(plan.JobCanceled)},
	}
	if resultRef != "" {
		expr += ", result_ref = :ref"
		values[":ref"] = &dtypes.AttributeValueMemberS{Value: resultRef}
	}
	if errMsg != "" {
		expr += ", error_message = :err"
		values[":err"] = &dtypes.AttributeValueMemberS{Value: errMsg}
	}
	if status == plan.JobSucceeded {
		expr += ", progress = :done"
		values[":done"] = &dtypes.AttributeValueMemberN{Value: "1"}
	}

	_, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(d.table),
		Key:                 jobKey(jobID),
		UpdateExpression:    aws.String(expr),
		ConditionExpression: aws.String("attribute_exists(job_id) AND NOT #s IN (:succ, :fail, :tout, :can)"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: values,
	})
	if err != nil {
		var ccf *dtypes.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrTerminal
		}
		return fmt.Errorf("dynamodb finish %s: %w", jobID, err)
	}
	return nil
}

// classifyConditional resolves a conditional-write failure into the
// store sentinel that caused it.
func (d *DynamoJobs) classifyConditional(ctx context.Context, jobID string, err error) error {
	var ccf *dtypes.ConditionalCheckFailedException
	if !errors.As(err, &ccf) {
		return fmt.Errorf("dynamodb update %s: %w", jobID, err)
	}
	row, getErr := d.Get(ctx, jobID)
	if getErr != nil {
		return getErr
	}
	if row.CancelFlag {
		return ErrCancelRequested
	}
	if row.Status.Terminal() {
		return ErrTerminal
	}
	return fmt.Errorf("dynamodb update %s: condition failed in status %s", jobID, row.Status)
}

func jobKey(jobID string) map[string]dtypes.AttributeValue {
	return map[string]dtypes.AttributeValue{
		"job_id": &dtypes.AttributeValueMemberS{Value: jobID},
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func rowFromItem(item map[string]dtypes.AttributeValue) *JobRow {
	row := &JobRow{
		JobID:        itemS(item, "job_id"),
		Status:       plan.JobStatus(itemS(item, "status")),
		Phase:        itemS(item, "phase"),
		IdemKey:      itemS(item, "idem_key"),
		RequestRef:   itemS(item, "request_ref"),
		ResultRef:    itemS(item, "result_ref"),
		ErrorMessage: itemS(item, "error_message"),
	}
	if v, ok := item["progress"].(*dtypes.AttributeValueMemberN); ok {
		row.Progress, _ = strconv.ParseFloat(v.Value, 64)
	}
	if v, ok := item["cancel_flag"].(*dtypes.AttributeValueMemberBOOL); ok {
		row.CancelFlag = v.Value
	}
	if v, ok := item["expires_at"].(*dtypes.AttributeValueMemberN); ok {
		secs, _ := strconv.ParseInt(v.Value, 10, 64)
		row.ExpiresAt = time.Unix(secs, 0).UTC()
	}
	row.SubmittedAt = itemTime(item, "submitted_at")
	row.StartedAt = itemTimePtr(item, "started_at")
	row.CompletedAt = itemTimePtr(item, "completed_at")
	row.LastHeartbeat = itemTimePtr(item, "last_heartbeat")
	return row
}

func itemS(item map[string]dtypes.AttributeValue, name string) string {
	if v, ok := item[name].(*dtypes.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func itemTime(item map[string]dtypes.AttributeValue, name string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, itemS(item, name))
	return t
}

func itemTimePtr(item map[string]dtypes.AttributeValue, name string) *time.Time {
	s := itemS(item, name)
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	return &t
}
