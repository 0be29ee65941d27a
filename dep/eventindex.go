package dep

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"phishsim/config"
	"phishsim/pkg/mq"

	"github.com/elastic/go-elasticsearch/v7"
)

// EventIndex persists engagement events for downstream reporting queries.
type EventIndex interface {
	Index(ctx context.Context, event *mq.EngagementEvent) error
	Close(ctx context.Context) error
}

type eventIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewEventIndex(_ context.Context, cfg config.Elastic) (EventIndex, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addr,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, err
	}

	return &eventIndex{
		client: client,
		index:  cfg.Index,
	}, nil
}

func (e *eventIndex) Index(ctx context.Context, event *mq.EngagementEvent) error {
	js, err := json.Marshal(event)
	if err != nil {
		return err
	}

	res, err := e.client.Index(
		e.index,
		bytes.NewReader(js),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.IsError() {
		return fmt.Errorf("index engagement event failed: %s", res.String())
	}

	return nil
}

func (e *eventIndex) Close(_ context.Context) error {
	return nil
}
