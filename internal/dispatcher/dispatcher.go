// Package dispatcher implements the Fanout Dispatcher (spec §4.6): for
// every validated envelope, persist to the pending queue, attempt live
// delivery, and acknowledge the sender. Grounded on the teacher's
// transport.MessageHandler request/response shape, generalized from a
// single-handler call into the persist-then-push pipeline this relay needs.
package dispatcher

import (
	"context"
	"time"

	"github.com/fatihtunali/whisper2-sub009/internal/groups"
	"github.com/fatihtunali/whisper2-sub009/internal/metrics"
	"github.com/fatihtunali/whisper2-sub009/internal/pending"
	"github.com/fatihtunali/whisper2-sub009/internal/wire"
	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
)

// LiveSessions is the subset of the Connection Gateway the dispatcher needs:
// push a frame to whisperID's live connection, if one exists. Implemented by
// internal/gateway.Hub and injected here to avoid a gateway<->dispatcher
// import cycle.
type LiveSessions interface {
	Send(whisperID string, frame *wire.Frame) bool
}

// Dispatcher is the Fanout Dispatcher.
type Dispatcher struct {
	pending *pending.Queue
	groups  *groups.Manager
	live    LiveSessions
}

// New builds a Dispatcher backed by the given pending queue, group manager,
// and live-connection lookup.
func New(pendingQueue *pending.Queue, groupMgr *groups.Manager, live LiveSessions) *Dispatcher {
	return &Dispatcher{pending: pendingQueue, groups: groupMgr, live: live}
}

// DispatchDirect runs steps 1-4 of spec §4.6 for a one-to-one envelope:
// persist, attempt live delivery (acking and notifying the sender on
// success), and return the durable-enqueue acknowledgement.
func (d *Dispatcher) DispatchDirect(ctx context.Context, env *storage.Envelope) (*wire.MessageAcceptedPayload, error) {
	if err := d.pending.Enqueue(ctx, env); err != nil {
		return nil, err
	}
	d.tryLiveDeliver(ctx, env)
	return &wire.MessageAcceptedPayload{MessageID: env.MessageID, Status: "sent"}, nil
}

func (d *Dispatcher) tryLiveDeliver(ctx context.Context, env *storage.Envelope) {
	recipient := env.To
	if recipient == "" {
		recipient = env.GroupID
	}

	frame, err := wire.NewFrame(wire.TypeMessageReceived, "", wire.MessageReceivedPayload{
		MessageID:  env.MessageID,
		From:       env.From,
		MsgType:    wire.MsgType(env.MsgType),
		Timestamp:  env.Timestamp,
		Nonce:      env.Nonce,
		Ciphertext: env.Ciphertext,
		Sig:        env.Sig,
		ReplyTo:    env.ReplyTo,
		Attachment: attachmentRefFrom(env.Attachment),
	})
	if err != nil {
		return
	}

	route := "direct"
	if env.GroupID != "" {
		route = "group"
	}
	if d.live.Send(recipient, frame) {
		metrics.MessagesDispatched.WithLabelValues(route, "live").Inc()
		_ = d.pending.Ack(ctx, recipient, env.MessageID, "delivered")
		d.notifySenderDelivered(env.From, env.MessageID, "delivered")
		return
	}
	metrics.MessagesDispatched.WithLabelValues(route, "queued").Inc()
}

// DispatchGroup enumerates recipients, validates active membership, and
// issues a distinct enqueue+live-send per member. One member's failure does
// not abort the fanout to the rest (spec §4.6).
func (d *Dispatcher) DispatchGroup(ctx context.Context, groupID, from, messageID string, msgType wire.MsgType, timestamp int64, recipients []wire.GroupRecipient) {
	now := time.Now()
	for _, r := range recipients {
		active, err := d.groups.IsActiveMember(ctx, groupID, r.To)
		if err != nil || !active {
			continue
		}
		env := &storage.Envelope{
			MessageID:  messageID,
			From:       from,
			To:         r.To,
			GroupID:    groupID,
			MsgType:    string(msgType),
			Timestamp:  timestamp,
			Nonce:      r.Nonce,
			Ciphertext: r.Ciphertext,
			Sig:        r.Sig,
			CreatedAt:  now,
		}
		_, _ = d.DispatchDirect(ctx, env)
	}
}

// HandleDeliveryReceipt processes an explicit delivery_receipt frame from
// recipient about messageID, acking on "delivered" and routing a
// message_delivered notification back to sender either way (spec §4.4/4.6).
func (d *Dispatcher) HandleDeliveryReceipt(ctx context.Context, recipient, sender, messageID, status string) error {
	metrics.DeliveryReceipts.WithLabelValues(status).Inc()
	if status == "delivered" {
		if err := d.pending.Ack(ctx, recipient, messageID, "delivered"); err != nil {
			return err
		}
	}
	d.notifySenderDelivered(sender, messageID, status)
	return nil
}

func (d *Dispatcher) notifySenderDelivered(sender, messageID, status string) {
	frame, err := wire.NewFrame(wire.TypeMessageDelivered, "", wire.MessageDeliveredPayload{MessageID: messageID, Status: status})
	if err != nil {
		return
	}
	d.live.Send(sender, frame)
}

func attachmentRefFrom(a *storage.AttachmentRef) *wire.AttachmentRef {
	if a == nil {
		return nil
	}
	return &wire.AttachmentRef{ObjectKey: a.ObjectKey, FileKeyBox: a.FileKeyBox, ContentType: a.ContentType, Size: a.Size}
}
