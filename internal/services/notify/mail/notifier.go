// Package mail implements the mail queue thread: a non-blocking
// ports.Notifier backed by Mailjet, grounded on ausocean-cloud's
// notify.Notifier but reworked as a buffered-channel worker so a slow or
// unreachable Mailjet API can never back-pressure the Iterator.
package mail

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	mailjet "github.com/mailjet/mailjet-apiv3-go"

	"playoutd/internal/domain"
)

// minResendInterval throttles repeat notifications of the same kind to the
// same recipient, mirroring ausocean-cloud's SendOps cooldown.
const minResendInterval = 5 * time.Minute

// Notifier queues Notifications and delivers them to a single recipient
// address on a background goroutine. Send never blocks: a full queue drops
// the notification and logs a warning.
type Notifier struct {
	client    *mailjet.Client
	sender    string
	recipient string
	queue     chan domain.Notification
	logger    *slog.Logger

	mu       sync.Mutex
	lastSent map[domain.NotificationLevel]time.Time

	done chan struct{}
}

// New starts the mail queue worker. publicKey/privateKey are the Mailjet
// API credentials; sender and recipient are plain email addresses.
func New(publicKey, privateKey, sender, recipient string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Notifier{
		client:    mailjet.NewMailjetClient(publicKey, privateKey),
		sender:    sender,
		recipient: recipient,
		queue:     make(chan domain.Notification, 32),
		logger:    logger,
		lastSent:  make(map[domain.NotificationLevel]time.Time),
		done:      make(chan struct{}),
	}
	go n.run()
	return n
}

// Send enqueues a Notification for delivery. It never blocks: if the queue
// is full the notification is dropped and a warning is logged.
func (n *Notifier) Send(note domain.Notification) {
	select {
	case n.queue <- note:
	default:
		n.logger.Warn("mail: queue full, dropping notification", "source", note.Source, "level", note.Level)
	}
}

// Close stops the worker goroutine. Queued notifications that have not yet
// been delivered are discarded.
func (n *Notifier) Close() {
	close(n.done)
}

func (n *Notifier) run() {
	for {
		select {
		case <-n.done:
			return
		case note := <-n.queue:
			n.deliver(note)
		}
	}
}

func (n *Notifier) deliver(note domain.Notification) {
	if n.throttled(note.Level) {
		n.logger.Debug("mail: throttled", "source", note.Source, "level", note.Level)
		return
	}

	info := []mailjet.InfoMessagesV31{{
		From:     &mailjet.RecipientV31{Email: n.sender},
		To:       &mailjet.RecipientsV31{mailjet.RecipientV31{Email: n.recipient}},
		Subject:  strings.ToUpper(string(note.Level)[:1]) + string(note.Level)[1:] + " - " + note.Source,
		TextPart: note.Message,
	}}
	msgs := mailjet.MessagesV31{Info: info}

	if _, err := n.client.SendMailV31(&msgs); err != nil {
		n.logger.Warn("mail: send failed", "source", note.Source, "error", err)
		return
	}
	n.markSent(note.Level)
}

func (n *Notifier) throttled(level domain.NotificationLevel) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	last, ok := n.lastSent[level]
	return ok && time.Since(last) < minResendInterval
}

func (n *Notifier) markSent(level domain.NotificationLevel) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lastSent[level] = time.Now()
}
