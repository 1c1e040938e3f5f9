package usecase

import (
	"context"

	"github.com/hiji-labs/feedback-relay/internal/biz/domain"
)

// ForwardJob is an immutable snapshot of an accepted submission, taken under
// the aggregator's lock. Delayed callbacks carry this snapshot instead of a
// live aggregate reference.
type ForwardJob struct {
	GroupID   string // empty for single-item submissions
	Submitter domain.Submitter
	Origin    domain.Origin
	Parts     []domain.Part // ascending message-id order
}

// Forwarder relays an accepted submission to the curation channel. The
// implementation owns watermarking, pacing and source deletion; failures are
// logged and abandoned, never surfaced to the submitter.
type Forwarder interface {
	Forward(ctx context.Context, job *ForwardJob)
}
