package domain

import (
	"fmt"
	"sort"
	"time"
)

// MediaKind classifies the media attached to one submission part.
type MediaKind int

const (
	MediaNone MediaKind = iota
	MediaPhoto
	MediaVideo
	MediaDocument
	MediaAnimation
)

// String returns the kind name for logs.
func (k MediaKind) String() string {
	switch k {
	case MediaPhoto:
		return "photo"
	case MediaVideo:
		return "video"
	case MediaDocument:
		return "document"
	case MediaAnimation:
		return "animation"
	default:
		return "none"
	}
}

// Part is one observed piece of a logical submission.
type Part struct {
	MessageID int
	Caption   string
	Kind      MediaKind
}

// AggregateState is the lifecycle of a media-group aggregate. Transitions
// are one-way; see Transition.
type AggregateState int

const (
	StateCollecting AggregateState = iota
	StateSettling
	StateProcessed
	StateForwarded
	StateEvicted
)

// String returns the state name for logs.
func (s AggregateState) String() string {
	switch s {
	case StateCollecting:
		return "collecting"
	case StateSettling:
		return "settling"
	case StateProcessed:
		return "processed"
	case StateForwarded:
		return "forwarded"
	case StateEvicted:
		return "evicted"
	default:
		return "unknown"
	}
}

var legalTransitions = map[AggregateState][]AggregateState{
	StateCollecting: {StateSettling, StateEvicted},
	StateSettling:   {StateProcessed, StateEvicted},
	StateProcessed:  {StateForwarded, StateEvicted},
	StateForwarded:  {StateEvicted},
}

// Aggregate accumulates the parts of one logical multi-part submission.
// It is owned by the aggregator and must only be touched under its lock.
type Aggregate struct {
	GroupID    string
	Submitter  Submitter
	Origin     Origin
	Parts      []Part
	MarkerSeen bool
	CreatedAt  time.Time

	State AggregateState

	// One-shot guards, monotonic false -> true.
	EvictionScheduled bool
	ConfirmationSent  bool
}

// NewAggregate starts an aggregate from the first observed part of a
// previously-unseen media group. The submitter/origin snapshot taken here is
// the only identity the submission is ever attributed to.
func NewAggregate(groupID string, sub Submitter, origin Origin, now time.Time) *Aggregate {
	return &Aggregate{
		GroupID:   groupID,
		Submitter: sub,
		Origin:    origin,
		CreatedAt: now,
		State:     StateCollecting,
	}
}

// Transition moves the aggregate to the next lifecycle state. Illegal moves
// are rejected rather than guarded ad hoc at each call site.
func (a *Aggregate) Transition(to AggregateState) error {
	for _, next := range legalTransitions[a.State] {
		if next == to {
			a.State = to
			return nil
		}
	}
	return fmt.Errorf("illegal aggregate transition %s -> %s", a.State, to)
}

// AddPart appends a part unless its message id was already observed.
// Duplicate deliveries must not double-count. Returns true if appended.
func (a *Aggregate) AddPart(p Part) bool {
	for _, existing := range a.Parts {
		if existing.MessageID == p.MessageID {
			return false
		}
	}
	a.Parts = append(a.Parts, p)
	return true
}

// SortedParts returns the parts in ascending message-id order, the original
// submission order regardless of delivery order.
func (a *Aggregate) SortedParts() []Part {
	parts := make([]Part, len(a.Parts))
	copy(parts, a.Parts)
	sort.Slice(parts, func(i, j int) bool { return parts[i].MessageID < parts[j].MessageID })
	return parts
}

// Processed reports whether the accept/reject decision has been made.
func (a *Aggregate) Processed() bool {
	return a.State == StateProcessed || a.State == StateForwarded
}

// Forwarded reports whether forwarding has been claimed for this aggregate.
func (a *Aggregate) Forwarded() bool {
	return a.State == StateForwarded
}
