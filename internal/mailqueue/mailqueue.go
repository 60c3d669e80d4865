// Package mailqueue sends e-mail in the background so that requests never
// wait on SMTP.
package mailqueue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patric-chuzhbe/tracky/internal/logger"
	"github.com/patric-chuzhbe/tracky/internal/mailer"
)

var ErrQueueFull = errors.New("mail queue is full")

type MailQueue struct {
	queue        chan mailer.Message
	sender       mailer.Sender
	sendTimeout  time.Duration
	errorChannel chan error
	done         chan struct{}
}

func New(
	sender mailer.Sender,
	channelCapacity int,
	sendTimeout time.Duration,
) *MailQueue {
	return &MailQueue{
		queue:        make(chan mailer.Message, channelCapacity),
		sender:       sender,
		sendTimeout:  sendTimeout,
		errorChannel: make(chan error, channelCapacity),
		done:         make(chan struct{}),
	}
}

func (q *MailQueue) ListenErrors(callback func(error)) {
	go func() {
		for err := range q.errorChannel {
			callback(err)
		}
	}()
}

// Run starts the delivery loop. When ctx is cancelled the messages already
// queued are still sent, then Done is closed.
func (q *MailQueue) Run(ctx context.Context) {
	go func() {
		defer close(q.done)
		defer close(q.errorChannel)

		for {
			select {
			case msg := <-q.queue:
				q.deliver(msg)
			case <-ctx.Done():
				q.drain()
				return
			}
		}
	}()
}

// Done is closed once Run has returned.
func (q *MailQueue) Done() <-chan struct{} {
	return q.done
}

// EnqueueJob never blocks. A full queue drops the message and reports ErrQueueFull.
func (q *MailQueue) EnqueueJob(msg mailer.Message) error {
	select {
	case q.queue <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *MailQueue) drain() {
	for {
		select {
		case msg := <-q.queue:
			q.deliver(msg)
		default:
			return
		}
	}
}

func (q *MailQueue) deliver(msg mailer.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), q.sendTimeout)
	defer cancel()

	if err := q.sender.Send(ctx, msg); err != nil {
		q.report(fmt.Errorf("in internal/mailqueue/mailqueue.go/deliver(): error while `q.sender.Send()` calling: %w", err))
		return
	}
	logger.Log.Infow("mail delivered", "subject", msg.Subject)
}

func (q *MailQueue) report(err error) {
	select {
	case q.errorChannel <- err:
	default:
		logger.Log.Errorw("mail queue error dropped", "err", err)
	}
}
