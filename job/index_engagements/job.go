// Package index_engagements consumes engagement events from Kafka and
// indexes them for reporting queries.
package index_engagements

import (
	"context"
	"phishsim/config"
	"phishsim/dep"
	"phishsim/pkg/mq"
	"phishsim/pkg/service"

	"github.com/rs/zerolog/log"
)

type IndexEngagements struct {
	cfg        *config.Config
	eventIndex dep.EventIndex
	consumer   *mq.Consumer
}

func New(cfg *config.Config, eventIndex dep.EventIndex) service.Job {
	return &IndexEngagements{
		cfg:        cfg,
		eventIndex: eventIndex,
	}
}

func (h *IndexEngagements) Init(_ context.Context) error {
	mq.RegisterHandler(mq.PayloadEngagementEvent, h.handleEvent)
	return nil
}

func (h *IndexEngagements) Run(ctx context.Context) error {
	consumer, err := mq.NewConsumer(ctx, mq.ConsumerConfig{
		Brokers:       h.cfg.EngagementMQ.Brokers,
		Topic:         h.cfg.EngagementMQ.Topic,
		ConsumerGroup: h.cfg.EngagementMQ.ConsumerGroup,
	})
	if err != nil {
		log.Ctx(ctx).Error().Msgf("init consumer failed: %v", err)
		return err
	}

	h.consumer = consumer

	<-ctx.Done()

	return nil
}

func (h *IndexEngagements) handleEvent(ctx context.Context, msg *mq.Message) error {
	event := new(mq.EngagementEvent)
	if err := msg.ParseBody(event); err != nil {
		log.Ctx(ctx).Error().Msgf("parse engagement event failed: %v", err)
		return err
	}

	if err := h.eventIndex.Index(ctx, event); err != nil {
		log.Ctx(ctx).Error().Msgf("index engagement event failed, message_id: %d, err: %v", event.GetMessageID(), err)
		return err
	}

	return nil
}

func (h *IndexEngagements) CleanUp(ctx context.Context) error {
	if h.consumer != nil {
		if err := h.consumer.Close(); err != nil {
			return err
		}
	}
	return h.eventIndex.Close(ctx)
}
