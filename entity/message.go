package entity

// Message is one simulated-phishing email addressed to one recipient,
// optionally tied to a campaign. The core only ever flips its flags:
// sent by the dispatch job, read/clicked by the tracking endpoints.
type Message struct {
	ID               *uint64 `json:"id,omitempty"`
	Subject          *string `json:"subject,omitempty"`
	Content          *string `json:"content,omitempty"`
	RecipientEmail   *string `json:"recipient_email,omitempty"`
	CampaignID       *uint64 `json:"campaign_id,omitempty"`
	DeliveryConfigID *uint64 `json:"delivery_config_id,omitempty"`
	LandingSlug      *string `json:"landing_slug,omitempty"`
	Sent             *bool   `json:"sent,omitempty"`
	Read             *bool   `json:"read,omitempty"`
	Clicked          *bool   `json:"clicked,omitempty"`
	SentAt           *uint64 `json:"sent_at,omitempty"`
	CreateTime       *uint64 `json:"create_time,omitempty"`
}

func (e *Message) GetID() uint64 {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return 0
}

func (e *Message) GetSubject() string {
	if e != nil && e.Subject != nil {
		return *e.Subject
	}
	return ""
}

func (e *Message) GetContent() string {
	if e != nil && e.Content != nil {
		return *e.Content
	}
	return ""
}

func (e *Message) GetRecipientEmail() string {
	if e != nil && e.RecipientEmail != nil {
		return *e.RecipientEmail
	}
	return ""
}

func (e *Message) GetCampaignID() uint64 {
	if e != nil && e.CampaignID != nil {
		return *e.CampaignID
	}
	return 0
}

func (e *Message) HasCampaign() bool {
	return e != nil && e.CampaignID != nil
}

func (e *Message) GetDeliveryConfigID() uint64 {
	if e != nil && e.DeliveryConfigID != nil {
		return *e.DeliveryConfigID
	}
	return 0
}

func (e *Message) HasDeliveryConfig() bool {
	return e != nil && e.DeliveryConfigID != nil
}

func (e *Message) GetLandingSlug() string {
	if e != nil && e.LandingSlug != nil {
		return *e.LandingSlug
	}
	return ""
}

func (e *Message) GetSent() bool {
	if e != nil && e.Sent != nil {
		return *e.Sent
	}
	return false
}

func (e *Message) GetRead() bool {
	if e != nil && e.Read != nil {
		return *e.Read
	}
	return false
}

func (e *Message) GetClicked() bool {
	if e != nil && e.Clicked != nil {
		return *e.Clicked
	}
	return false
}

func (e *Message) GetSentAt() uint64 {
	if e != nil && e.SentAt != nil {
		return *e.SentAt
	}
	return 0
}

func (e *Message) GetCreateTime() uint64 {
	if e != nil && e.CreateTime != nil {
		return *e.CreateTime
	}
	return 0
}
