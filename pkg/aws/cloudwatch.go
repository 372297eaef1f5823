package aws

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

const (
	logBufferSize    = 1024
	logBatchSize     = 100
	logFlushInterval = 2 * time.Second
)

type logsAPI interface {
	CreateLogGroup(ctx context.Context, in *cloudwatchlogs.CreateLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error)
	PutRetentionPolicy(ctx context.Context, in *cloudwatchlogs.PutRetentionPolicyInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutRetentionPolicyOutput, error)
	CreateLogStream(ctx context.Context, in *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
	PutLogEvents(ctx context.Context, in *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
}

// CloudWatchLogsClient ships log lines to a CloudWatch Logs stream in the
// background. Write only enqueues; when the buffer is full the line is
// dropped and counted rather than blocking a request. Lines written after
// Close are dropped too.
type CloudWatchLogsClient struct {
	api           logsAPI
	logGroupName  string
	logStreamName string

	events  chan types.InputLogEvent
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
	closed  bool
	dropped int64
}

// NewCloudWatchLogsClient creates the log group (if needed) and a fresh
// stream named after the service and start time, then starts the shipper.
func NewCloudWatchLogsClient(ctx context.Context, cfg aws.Config, logGroupName, serviceName string) (*CloudWatchLogsClient, error) {
	return newCloudWatchLogsClient(ctx, cloudwatchlogs.NewFromConfig(cfg), logGroupName, serviceName, logFlushInterval)
}

func newCloudWatchLogsClient(ctx context.Context, api logsAPI, logGroupName, serviceName string, every time.Duration) (*CloudWatchLogsClient, error) {
	if logGroupName == "" {
		logGroupName = "/payment-gateway/services"
	}
	c := &CloudWatchLogsClient{
		api:           api,
		logGroupName:  logGroupName,
		logStreamName: fmt.Sprintf("%s-%d", serviceName, time.Now().Unix()),
		events:        make(chan types.InputLogEvent, logBufferSize),
		done:          make(chan struct{}),
	}

	if _, err := api.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{LogGroupName: aws.String(c.logGroupName)}); err != nil {
		var exists *types.ResourceAlreadyExistsException
		if !errors.As(err, &exists) {
			return nil, fmt.Errorf("create log group: %w", err)
		}
	}
	if _, err := api.PutRetentionPolicy(ctx, &cloudwatchlogs.PutRetentionPolicyInput{
		LogGroupName:    aws.String(c.logGroupName),
		RetentionInDays: aws.Int32(30),
	}); err != nil {
		return nil, fmt.Errorf("set retention policy: %w", err)
	}
	if _, err := api.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(c.logGroupName),
		LogStreamName: aws.String(c.logStreamName),
	}); err != nil {
		return nil, fmt.Errorf("create log stream: %w", err)
	}

	go c.run(every)
	return c, nil
}

// Write implements io.Writer.
func (c *CloudWatchLogsClient) Write(p []byte) (int, error) {
	event := types.InputLogEvent{
		Message:   aws.String(string(p)),
		Timestamp: aws.Int64(time.Now().UnixMilli()),
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.dropped++
		return len(p), nil
	}
	select {
	case c.events <- event:
	default:
		c.dropped++
	}
	return len(p), nil
}

// Close flushes what is buffered and stops the shipper.
func (c *CloudWatchLogsClient) Close() error {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.events)
		c.mu.Unlock()
	})
	<-c.done
	return nil
}

// Dropped reports how many lines were discarded because the buffer was full.
func (c *CloudWatchLogsClient) Dropped() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

func (c *CloudWatchLogsClient) run(every time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	batch := make([]types.InputLogEvent, 0, logBatchSize)
	for {
		select {
		case ev, ok := <-c.events:
			if !ok {
				c.flush(batch)
				return
			}
			batch = append(batch, ev)
			if len(batch) == logBatchSize {
				c.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			c.flush(batch)
			batch = batch[:0]
		}
	}
}

// flush ships one batch. Failures go to stderr; logging never fails a request.
func (c *CloudWatchLogsClient) flush(batch []types.InputLogEvent) {
	if len(batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.api.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  aws.String(c.logGroupName),
		LogStreamName: aws.String(c.logStreamName),
		LogEvents:     append([]types.InputLogEvent(nil), batch...),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "CloudWatch write error: %v\n", err)
	}
}
