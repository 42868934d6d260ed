package message

import (
	"time"

	"github.com/n7gw/tncgw/internal/aprs"
	"github.com/n7gw/tncgw/internal/callsign"
)

// Inbox handles messages addressed to the local station: duplicate
// suppression, auto-ack generation, and delivery of the first-seen
// copy to the application layer.
type Inbox struct {
	myCall   callsign.Callsign
	autoAck  bool
	sender   Sender
	dedup    *Dedup
	Delivery chan *aprs.Message
}

// NewInbox creates an Inbox for myCall. When autoAck is true (spec.md
// §6 AutoAck), every newly-seen message addressed to myCall gets an
// "ack" reply sent automatically.
func NewInbox(myCall string, autoAck bool, sender Sender) *Inbox {
	return &Inbox{
		myCall:   callsign.MustParse(myCall),
		autoAck:  autoAck,
		sender:   sender,
		dedup:    NewDedup(defaultInboxDedupTTL),
		Delivery: make(chan *aprs.Message, 32),
	}
}

const defaultInboxDedupTTL = 2 * time.Minute

// Handle processes one incoming message payload addressed to this
// station. from is the AX.25 source callsign the frame arrived from
// (the Message type itself carries only the addressee, not the
// sender). Ack/reject frames are never deduplicated or acked; callers
// should route those to Manager.HandleAck instead.
func (ib *Inbox) Handle(from string, msg *aprs.Message) {
	addressee, err := callsign.Parse(msg.Addressee)
	if err != nil || !addressee.BaseMatches(ib.myCall) {
		return
	}
	if msg.IsAck || msg.IsReject {
		return
	}

	if ib.dedup.IsDuplicate(from, msg.Body) {
		return
	}

	select {
	case ib.Delivery <- msg:
	default:
	}

	if ib.autoAck && msg.MsgID != "" {
		ack := &aprs.Message{Addressee: from, IsAck: true, MsgID: msg.MsgID}
		_ = ib.sender.SendMessage(ack)
	}
}
