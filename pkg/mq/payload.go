package mq

type Payload uint32

const (
	PayloadUnknown Payload = iota
	PayloadEngagementEvent
)

var Payloads = map[Payload]string{
	PayloadEngagementEvent: "engagement_event",
}

type EngagementEventType string

const (
	EngagementEventOpen  EngagementEventType = "open"
	EngagementEventClick EngagementEventType = "click"
)

// EngagementEvent is published when a probe hit actually transitions a
// message's read/clicked state. Duplicate probe hits never produce events.
type EngagementEvent struct {
	MessageID  *uint64             `json:"message_id,omitempty"`
	CampaignID *uint64             `json:"campaign_id,omitempty"`
	EventType  EngagementEventType `json:"event_type,omitempty"`
	ProbeKind  *string             `json:"probe_kind,omitempty"`
	URL        *string             `json:"url,omitempty"`
	UserAgent  *string             `json:"user_agent,omitempty"`
	IPAddress  *string             `json:"ip_address,omitempty"`
	EventTime  *uint64             `json:"event_time,omitempty"`
}

func (m *EngagementEvent) GetMessageID() uint64 {
	if m != nil && m.MessageID != nil {
		return *m.MessageID
	}
	return 0
}

func (m *EngagementEvent) GetCampaignID() uint64 {
	if m != nil && m.CampaignID != nil {
		return *m.CampaignID
	}
	return 0
}

func (m *EngagementEvent) GetEventTime() uint64 {
	if m != nil && m.EventTime != nil {
		return *m.EventTime
	}
	return 0
}
