package service

import (
	"context"
	"time"

	"github.com/rishitshah12/Auctave-User-sub002/internal/quote/engine"
	"github.com/rishitshah12/Auctave-User-sub002/internal/quote/entity"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/activity"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/auth"
)

func sampleStatus(q entity.Quote) string {
	if sr := q.NegotiationDetails.SampleRequest; sr != nil {
		return sr.Status
	}
	return ""
}

func sampleActivity(before, after entity.Quote) *activity.Entry {
	return &activity.Entry{
		EntityType: activity.EntitySample,
		Action:     activity.ActionStatusChange,
		FromStatus: sampleStatus(before),
		ToStatus:   sampleStatus(after),
	}
}

// RequestSample opens a sample request on the quote.
func (s *QuoteService) RequestSample(ctx context.Context, actor auth.Actor, id string, in engine.SampleRequestInput) (*entity.Quote, error) {
	return s.mutate(ctx, actor, id, mutation{
		apply: func(q entity.Quote, now time.Time) (entity.Quote, error) {
			return engine.RequestSample(q, in, now)
		},
		success:  say("Sample request sent"),
		action:   "sample_request",
		activity: sampleActivity,
	})
}

// RespondToSample invoices the sample request.
func (s *QuoteService) RespondToSample(ctx context.Context, actor auth.Actor, id string, resp entity.AdminResponse) (*entity.Quote, error) {
	if !actor.Admin {
		return nil, ErrAdminOnly
	}
	return s.mutate(ctx, actor, id, mutation{
		apply: func(q entity.Quote, now time.Time) (entity.Quote, error) {
			return engine.RespondToSample(q, resp, now)
		},
		success:  say("Sample invoice sent"),
		action:   "sample_response",
		activity: sampleActivity,
	})
}

// AdvanceSample moves the sample to paid, sent, delivered or confirmed on
// the factory side.
func (s *QuoteService) AdvanceSample(ctx context.Context, actor auth.Actor, id, status string) (*entity.Quote, error) {
	if !actor.Admin {
		return nil, ErrAdminOnly
	}
	return s.mutate(ctx, actor, id, mutation{
		apply: func(q entity.Quote, now time.Time) (entity.Quote, error) {
			return engine.AdvanceSample(q, status, now)
		},
		success:  say("Sample marked " + status),
		action:   "sample_status",
		activity: sampleActivity,
	})
}

// ConfirmSample the client confirms receipt, from sent or delivered.
func (s *QuoteService) ConfirmSample(ctx context.Context, actor auth.Actor, id string) (*entity.Quote, error) {
	return s.mutate(ctx, actor, id, mutation{
		apply: func(q entity.Quote, now time.Time) (entity.Quote, error) {
			return engine.ConfirmSample(q, now)
		},
		success:  say("Sample confirmed"),
		action:   "sample_confirm",
		activity: sampleActivity,
	})
}

// SampleTimeline the sample request's progress events.
func (s *QuoteService) SampleTimeline(ctx context.Context, actor auth.Actor, id string) ([]engine.TimelineEvent, error) {
	q, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if q.NegotiationDetails.SampleRequest == nil {
		return nil, engine.ErrNoSampleRequest
	}
	return engine.SampleTimeline(q.NegotiationDetails.SampleRequest), nil
}
