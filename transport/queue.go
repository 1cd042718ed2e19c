package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	log "github.com/sirupsen/logrus"
)

const queueAlreadyExists = "QueueAlreadyExists"

type outboundQueue interface {
	EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error)
}

type inboundQueue interface {
	DequeueMessage(ctx context.Context, o *azqueue.DequeueMessageOptions) (azqueue.DequeueMessagesResponse, error)
	DeleteMessage(ctx context.Context, messageID string, popReceipt string, o *azqueue.DeleteMessageOptions) (azqueue.DeleteMessageResponse, error)
}

// QueueChannel exchanges host messages over a pair of Azure Storage queues.
type QueueChannel struct {
	out    outboundQueue
	in     inboundQueue
	poll   time.Duration
	logger *log.Logger
}

// NewQueueChannel connects to the outbound and inbound queues of the storage
// account in connStr.
func NewQueueChannel(connStr, outbound, inbound string, poll time.Duration, logger *log.Logger) (*QueueChannel, error) {
	opts := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute,
				RetryDelay:    time.Second,
				MaxRetryDelay: 15 * time.Second,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	out, err := azqueue.NewQueueClientFromConnectionString(connStr, outbound, &opts)
	if err != nil {
		return nil, err
	}
	in, err := azqueue.NewQueueClientFromConnectionString(connStr, inbound, &opts)
	if err != nil {
		return nil, err
	}
	return newQueueChannel(out, in, poll, logger), nil
}

func newQueueChannel(out outboundQueue, in inboundQueue, poll time.Duration, logger *log.Logger) *QueueChannel {
	if poll <= 0 {
		poll = time.Second
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &QueueChannel{out: out, in: in, poll: poll, logger: logger}
}

// Send enqueues payload on the outbound queue.
func (q *QueueChannel) Send(ctx context.Context, payload []byte) error {
	_, err := q.out.EnqueueMessage(ctx, string(payload), nil)
	return err
}

// Listen polls the inbound queue until ctx is done. Messages are deleted after
// delivery whether or not the board could use them.
func (q *QueueChannel) Listen(ctx context.Context, deliver func([]byte)) {
	for {
		if ctx.Err() != nil {
			return
		}
		if !q.receive(ctx, deliver) {
			select {
			case <-ctx.Done():
				return
			case <-time.After(q.poll):
			}
		}
	}
}

// receive handles at most one message and reports whether one was found.
func (q *QueueChannel) receive(ctx context.Context, deliver func([]byte)) bool {
	resp, err := q.in.DequeueMessage(ctx, nil)
	if err != nil {
		if ctx.Err() == nil {
			q.logger.Errorf("dequeue host message: %v", err)
		}
		return false
	}
	if len(resp.Messages) == 0 {
		return false
	}
	msg := resp.Messages[0]
	if msg.MessageText != nil {
		deliver([]byte(*msg.MessageText))
	}
	if msg.MessageID != nil && msg.PopReceipt != nil {
		if _, err := q.in.DeleteMessage(ctx, *msg.MessageID, *msg.PopReceipt, nil); err != nil {
			q.logger.Errorf("delete host message %s: %v", *msg.MessageID, err)
		}
	}
	return true
}

// createQueue creates one queue.
type createQueue func(ctx context.Context) error

// EnsureQueues creates the named queues in the storage account, leaving
// existing ones untouched.
func EnsureQueues(ctx context.Context, connStr string, names ...string) error {
	return ensureQueues(ctx, func(name string) (createQueue, error) {
		q, err := azqueue.NewQueueClientFromConnectionString(connStr, name, nil)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) error {
			_, err := q.Create(ctx, nil)
			return err
		}, nil
	}, names)
}

func ensureQueues(ctx context.Context, open func(string) (createQueue, error), names []string) error {
	for _, name := range names {
		if name == "" {
			continue
		}
		create, err := open(name)
		if err != nil {
			return fmt.Errorf("queue %s: %w", name, err)
		}
		if err := create(ctx); err != nil {
			var respErr *azcore.ResponseError
			if errors.As(err, &respErr) && respErr.ErrorCode == queueAlreadyExists {
				continue
			}
			return fmt.Errorf("create queue %s: %w", name, err)
		}
	}
	return nil
}
