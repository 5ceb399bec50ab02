package stock

import (
	"context"
	"fmt"
	"io"
	"sync"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 . Notifier

// Notifier delivers alert messages to a channel, such as a chat or an SMS gateway.
type Notifier interface {
	// Notify sends the message to the channel.
	Notify(ctx context.Context, channel, message string) error
}

// Alert is an alert subscriber. It sends a message to its channel for every price it receives.
type Alert struct {
	notifier Notifier
	channel  string
}

// NewAlert creates an Alert that sends messages to the channel through the notifier.
func NewAlert(channel string, notifier Notifier) *Alert {
	return &Alert{
		channel:  channel,
		notifier: notifier,
	}
}

// OnNotify sends the price alert.
func (a *Alert) OnNotify(ctx context.Context, price float64) error {
	msg := "New Stock Price " + formatPrice(price)

	if err := a.notifier.Notify(ctx, a.channel, msg); err != nil {
		return fmt.Errorf("failed to send alert to channel %s: %w", a.channel, err)
	}

	return nil
}

// Channel returns the channel of the Alert.
func (a *Alert) Channel() string {
	return a.channel
}

// WriterNotifier is a Notifier that prints messages to an io.Writer.
type WriterNotifier struct {
	out  io.Writer
	lock sync.Mutex
}

// NewWriterNotifier creates a new WriterNotifier.
func NewWriterNotifier(out io.Writer) *WriterNotifier {
	return &WriterNotifier{out: out}
}

// Notify prints the message prefixed with the channel.
func (n *WriterNotifier) Notify(ctx context.Context, channel, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.lock.Lock()
	defer n.lock.Unlock()

	_, err := fmt.Fprintf(n.out, "[%s] %s\n", channel, message)
	return err
}
