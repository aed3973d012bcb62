package cmd

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/linanwx/urlsummarizer/channel"
	"github.com/linanwx/urlsummarizer/config"
	"github.com/linanwx/urlsummarizer/internal/runtimecfg"
	"github.com/linanwx/urlsummarizer/logger"
	"github.com/linanwx/urlsummarizer/pipeline"
)

// Handler processes one message and sends its replies.
type Handler interface {
	Deliver(ctx context.Context, msg pipeline.Message, send func(text string) error) int
}

// Dispatcher routes channel messages to the summary pipeline. It is the
// bridge between the channel layer (pure I/O) and the pipeline.
type Dispatcher struct {
	channels *channel.Manager
	handler  Handler
	deadline time.Duration
	inflight sync.WaitGroup
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(channels *channel.Manager, handler Handler, cfg *config.Config) *Dispatcher {
	return &Dispatcher{
		channels: channels,
		handler:  handler,
		deadline: messageDeadline(cfg),
	}
}

// messageDeadline bounds one message: every fetch attempt, the worst-case
// backoff between them, one post-processing call and a grace period.
func messageDeadline(cfg *config.Config) time.Duration {
	timeout := cfg.SummaryTimeout()
	retries := cfg.SummaryMaxRetries()
	if retries < 0 {
		retries = 0
	}
	fetch := time.Duration(retries+1)*timeout + time.Duration(retries)*runtimecfg.SummaryRetryMaxDelay
	return fetch + timeout + runtimecfg.DispatchGracePeriod
}

// Run reads every channel until its message stream closes or ctx is
// cancelled, then waits for in-flight messages.
func (d *Dispatcher) Run(ctx context.Context) {
	var readers sync.WaitGroup
	d.channels.Each(func(ch channel.Channel) {
		readers.Add(1)
		go func() {
			defer readers.Done()
			d.processChannel(ctx, ch)
		}()
	})
	readers.Wait()
	d.inflight.Wait()
}

func (d *Dispatcher) processChannel(ctx context.Context, ch channel.Channel) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch.Messages():
			if !ok {
				logger.Debug("channel message stream closed", "channel", ch.Name())
				return
			}
			d.inflight.Add(1)
			go func() {
				defer d.inflight.Done()
				d.dispatch(ctx, ch, msg)
			}()
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, ch channel.Channel, msg *channel.Message) {
	if msg == nil {
		return
	}
	trace := uuid.NewString()
	logger.Debug("dispatching message",
		"trace", trace,
		"channel", ch.Name(),
		"channelID", msg.ChannelID,
		"user", msg.Username,
		"text", truncate(msg.Text, 50),
	)

	ctx, cancel := context.WithTimeout(ctx, d.deadline)
	defer cancel()

	sent := d.handler.Deliver(ctx, toPipelineMessage(msg), func(text string) error {
		return ch.Send(ctx, channel.ResponseTo(msg, text))
	})
	if sent > 0 {
		logger.Info("summary replies sent", "trace", trace, "channel", ch.Name(), "group", msg.GroupID(), "count", sent)
	}
}

func toPipelineMessage(msg *channel.Message) pipeline.Message {
	return pipeline.Message{
		Text:      msg.Text,
		GroupID:   msg.GroupID(),
		SenderID:  msg.UserID,
		FromSelf:  msg.Flag(channel.MetaFromSelf),
		Forwarded: msg.Flag(channel.MetaForwarded),
	}
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
