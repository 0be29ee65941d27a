// Package dispatch implements one tick of the message dispatch scheduler:
// select queued messages whose campaign window contains now, decorate them
// with tracking probes, and hand them to the delivery transport.
package dispatch

import (
	"context"
	"phishsim/dep"
	"phishsim/entity"
	"phishsim/pkg/service"
	"phishsim/repo"
	"time"

	"github.com/rs/zerolog/log"
)

type Dispatch struct {
	messageRepo        repo.MessageRepo
	campaignRepo       repo.CampaignRepo
	deliveryConfigRepo repo.DeliveryConfigRepo
	emailService       dep.EmailService
	injector           Injector

	now func() time.Time
}

// Injector decorates outbound content; satisfied by tracker.Injector.
type Injector interface {
	Decorate(content string, message *entity.Message) string
}

func New(messageRepo repo.MessageRepo, campaignRepo repo.CampaignRepo, deliveryConfigRepo repo.DeliveryConfigRepo,
	emailService dep.EmailService, injector Injector) service.Job {
	return &Dispatch{
		messageRepo:        messageRepo,
		campaignRepo:       campaignRepo,
		deliveryConfigRepo: deliveryConfigRepo,
		emailService:       emailService,
		injector:           injector,
		now:                time.Now,
	}
}

func (h *Dispatch) Init(_ context.Context) error {
	return nil
}

// Run executes one tick. Candidates come back from the store already
// ordered nearest-campaign-deadline first with FIFO tie-break, and are
// processed sequentially so an earlier-deadline message is always attempted
// before a later one. One candidate's failure never blocks the rest.
func (h *Dispatch) Run(ctx context.Context) error {
	messages, err := h.messageRepo.GetPendingForDispatch(ctx, h.now())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get pending messages failed: %v", err)
		return err
	}

	if len(messages) == 0 {
		return nil
	}

	log.Ctx(ctx).Info().Msgf("number of messages to be dispatched: %d", len(messages))

	for _, message := range messages {
		h.processMessage(ctx, message)
	}

	return nil
}

func (h *Dispatch) processMessage(ctx context.Context, message *entity.Message) {
	campaign, err := h.campaignRepo.GetByID(ctx, message.GetCampaignID())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("[message ID %d] get campaign failed: %v", message.GetID(), err)
		return
	}

	// The candidate query prefilters by date only; recheck with the full
	// date-and-time window before sending.
	now := h.now()
	within, err := campaign.Contains(now)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("[message ID %d] campaign window evaluation failed: %v", message.GetID(), err)
		return
	}
	if !within {
		log.Ctx(ctx).Info().Msgf("[message ID %d] outside campaign %d window, skipped", message.GetID(), campaign.GetID())
		return
	}

	deliveryConfig, err := h.resolveDeliveryConfig(ctx, message)
	if err != nil {
		// a missing config will not fix itself; skip without retry bookkeeping
		log.Ctx(ctx).Error().Msgf("[message ID %d] no delivery config resolvable: %v", message.GetID(), err)
		return
	}

	decorated := h.injector.Decorate(message.GetContent(), message)

	sendEmail := &dep.SendEmail{
		MessageID: message.GetID(),
		From: &dep.Sender{
			Email: deliveryConfig.GetSenderEmail(),
			Name:  deliveryConfig.GetSenderName(),
		},
		To: &dep.Receiver{
			Email: message.GetRecipientEmail(),
		},
		Subject:     message.GetSubject(),
		HtmlContent: decorated,
	}

	if err := h.emailService.SendEmail(ctx, sendEmail); err != nil {
		// transient: the row stays unsent and is reconsidered next tick,
		// bounded only by the campaign window
		log.Ctx(ctx).Error().Msgf("[message ID %d] send failed: %v", message.GetID(), err)
		return
	}

	changed, err := h.messageRepo.MarkSent(ctx, message.GetID(), uint64(h.now().Unix()))
	if err != nil {
		log.Ctx(ctx).Error().Msgf("[message ID %d] mark sent failed: %v", message.GetID(), err)
		return
	}
	if !changed {
		log.Ctx(ctx).Warn().Msgf("[message ID %d] already marked sent", message.GetID())
	}
}

func (h *Dispatch) resolveDeliveryConfig(ctx context.Context, message *entity.Message) (*entity.DeliveryConfig, error) {
	if message.HasDeliveryConfig() {
		return h.deliveryConfigRepo.GetByID(ctx, message.GetDeliveryConfigID())
	}
	return h.deliveryConfigRepo.GetActive(ctx)
}

func (h *Dispatch) CleanUp(_ context.Context) error {
	return nil
}
