package entity

// DeliveryConfig is one outbound sender configuration. A message may carry
// a per-message override; otherwise the single active config is used.
type DeliveryConfig struct {
	ID          *uint64 `json:"id,omitempty"`
	Host        *string `json:"host,omitempty"`
	Port        *int    `json:"port,omitempty"`
	Username    *string `json:"username,omitempty"`
	Password    *string `json:"password,omitempty"`
	SenderEmail *string `json:"sender_email,omitempty"`
	SenderName  *string `json:"sender_name,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	CreateTime  *uint64 `json:"create_time,omitempty"`
}

func (e *DeliveryConfig) GetID() uint64 {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return 0
}

func (e *DeliveryConfig) GetHost() string {
	if e != nil && e.Host != nil {
		return *e.Host
	}
	return ""
}

func (e *DeliveryConfig) GetPort() int {
	if e != nil && e.Port != nil {
		return *e.Port
	}
	return 0
}

func (e *DeliveryConfig) GetUsername() string {
	if e != nil && e.Username != nil {
		return *e.Username
	}
	return ""
}

func (e *DeliveryConfig) GetPassword() string {
	if e != nil && e.Password != nil {
		return *e.Password
	}
	return ""
}

func (e *DeliveryConfig) GetSenderEmail() string {
	if e != nil && e.SenderEmail != nil {
		return *e.SenderEmail
	}
	return ""
}

func (e *DeliveryConfig) GetSenderName() string {
	if e != nil && e.SenderName != nil {
		return *e.SenderName
	}
	return ""
}

func (e *DeliveryConfig) GetIsActive() bool {
	if e != nil && e.IsActive != nil {
		return *e.IsActive
	}
	return false
}
