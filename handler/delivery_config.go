package handler

import (
	"context"
	"phishsim/entity"
	"phishsim/pkg/goutil"
	"phishsim/pkg/validator"
	"phishsim/repo"
	"time"

	"github.com/rs/zerolog/log"
)

type DeliveryConfigHandler interface {
	CreateDeliveryConfig(ctx context.Context, req *CreateDeliveryConfigRequest, res *CreateDeliveryConfigResponse) error
	GetDeliveryConfigs(ctx context.Context, req *GetDeliveryConfigsRequest, res *GetDeliveryConfigsResponse) error
}

type deliveryConfigHandler struct {
	deliveryConfigRepo repo.DeliveryConfigRepo
}

func NewDeliveryConfigHandler(deliveryConfigRepo repo.DeliveryConfigRepo) DeliveryConfigHandler {
	return &deliveryConfigHandler{
		deliveryConfigRepo: deliveryConfigRepo,
	}
}

type CreateDeliveryConfigRequest struct {
	Host        *string `json:"host,omitempty"`
	Port        *int    `json:"port,omitempty"`
	Username    *string `json:"username,omitempty"`
	Password    *string `json:"password,omitempty"`
	SenderEmail *string `json:"sender_email,omitempty"`
	SenderName  *string `json:"sender_name,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type CreateDeliveryConfigResponse struct {
	DeliveryConfig *entity.DeliveryConfig `json:"delivery_config"`
}

var CreateDeliveryConfigValidator = validator.MustForm(map[string]validator.Validator{
	"host": &validator.String{
		MinLen: 1,
		MaxLen: 255,
	},
	"username": &validator.String{
		Optional: true,
		MaxLen:   255,
	},
	"password": &validator.String{
		Optional: true,
		MaxLen:   255,
	},
	"sender_email": &validator.String{
		MinLen: 3,
		MaxLen: 320,
	},
	"sender_name": &validator.String{
		Optional: true,
		MaxLen:   100,
	},
})

func (h *deliveryConfigHandler) CreateDeliveryConfig(ctx context.Context, req *CreateDeliveryConfigRequest, res *CreateDeliveryConfigResponse) error {
	if err := CreateDeliveryConfigValidator.Validate(req); err != nil {
		return err
	}

	isActive := false
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	deliveryConfig := &entity.DeliveryConfig{
		Host:        req.Host,
		Port:        req.Port,
		Username:    req.Username,
		Password:    req.Password,
		SenderEmail: req.SenderEmail,
		SenderName:  req.SenderName,
		IsActive:    goutil.Bool(isActive),
		CreateTime:  goutil.Uint64(uint64(time.Now().Unix())),
	}

	id, err := h.deliveryConfigRepo.Create(ctx, deliveryConfig)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("create delivery config failed: %v", err)
		return err
	}

	deliveryConfig.ID = goutil.Uint64(id)
	deliveryConfig.Password = nil // never echoed back

	res.DeliveryConfig = deliveryConfig

	return nil
}

type GetDeliveryConfigsRequest struct{}

type GetDeliveryConfigsResponse struct {
	DeliveryConfigs []*entity.DeliveryConfig `json:"delivery_configs"`
}

func (h *deliveryConfigHandler) GetDeliveryConfigs(ctx context.Context, req *GetDeliveryConfigsRequest, res *GetDeliveryConfigsResponse) error {
	deliveryConfigs, err := h.deliveryConfigRepo.GetMany(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get delivery configs failed: %v", err)
		return err
	}

	for _, deliveryConfig := range deliveryConfigs {
		deliveryConfig.Password = nil
	}

	res.DeliveryConfigs = deliveryConfigs

	return nil
}
