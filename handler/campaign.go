package handler

import (
	"context"
	"phishsim/entity"
	"phishsim/pkg/errutil"
	"phishsim/pkg/goutil"
	"phishsim/pkg/validator"
	"phishsim/repo"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	createMessageBatchSize   = 500
	createMessageConcurrency = 4
)

type CampaignHandler interface {
	CreateCampaign(ctx context.Context, req *CreateCampaignRequest, res *CreateCampaignResponse) error
	GetCampaigns(ctx context.Context, req *GetCampaignsRequest, res *GetCampaignsResponse) error
}

type campaignHandler struct {
	campaignRepo repo.CampaignRepo
	messageRepo  repo.MessageRepo
}

func NewCampaignHandler(campaignRepo repo.CampaignRepo, messageRepo repo.MessageRepo) CampaignHandler {
	return &campaignHandler{
		campaignRepo: campaignRepo,
		messageRepo:  messageRepo,
	}
}

type CreateCampaignRequest struct {
	Name             *string  `json:"name,omitempty"`
	StartDate        *string  `json:"start_date,omitempty"`
	EndDate          *string  `json:"end_date,omitempty"`
	StartTime        *string  `json:"start_time,omitempty"`
	EndTime          *string  `json:"end_time,omitempty"`
	Subject          *string  `json:"subject,omitempty"`
	Content          *string  `json:"content,omitempty"`
	RecipientEmails  []string `json:"recipient_emails,omitempty"`
	DeliveryConfigID *uint64  `json:"delivery_config_id,omitempty"`
	LandingSlug      *string  `json:"landing_slug,omitempty"`
}

type CreateCampaignResponse struct {
	Campaign     *entity.Campaign `json:"campaign"`
	MessageCount *uint64          `json:"message_count"`
}

var CreateCampaignValidator = validator.MustForm(map[string]validator.Validator{
	"name": &validator.String{
		MinLen: 1,
		MaxLen: 100,
	},
	"start_date": &validator.String{
		MinLen: 1,
	},
	"end_date": &validator.String{
		MinLen: 1,
	},
	"start_time": &validator.String{
		Optional: true,
	},
	"end_time": &validator.String{
		Optional: true,
	},
	"subject": &validator.String{
		MinLen: 1,
		MaxLen: 200,
	},
	"content": &validator.String{
		MinLen: 1,
	},
	"recipient_emails": &validator.Slice{
		MinLen: 1,
		Validator: &validator.String{
			MinLen: 3,
			MaxLen: 320,
		},
	},
	"delivery_config_id": &validator.UInt64{
		Optional: true,
	},
	"landing_slug": &validator.String{
		Optional: true,
		MaxLen:   100,
	},
})

// CreateCampaign creates the campaign and one unsent message per recipient.
// The dispatch job picks the messages up on its next tick once the window
// opens.
func (h *campaignHandler) CreateCampaign(ctx context.Context, req *CreateCampaignRequest, res *CreateCampaignResponse) error {
	if err := CreateCampaignValidator.Validate(req); err != nil {
		return err
	}

	now := time.Now()

	campaign := &entity.Campaign{
		Name:       req.Name,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		CreateTime: goutil.Uint64(uint64(now.Unix())),
	}

	// malformed windows are rejected here, eagerly; the core never sees them
	if err := campaign.Validate(); err != nil {
		return errutil.ValidationError(err)
	}

	campaignID, err := h.campaignRepo.Create(ctx, campaign)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("create campaign failed: %v", err)
		return err
	}

	messages := make([]*entity.Message, 0, len(req.RecipientEmails))
	for _, recipient := range req.RecipientEmails {
		messages = append(messages, &entity.Message{
			Subject:          req.Subject,
			Content:          req.Content,
			RecipientEmail:   goutil.String(recipient),
			CampaignID:       goutil.Uint64(campaignID),
			DeliveryConfigID: req.DeliveryConfigID,
			LandingSlug:      req.LandingSlug,
			Sent:             goutil.Bool(false),
			Read:             goutil.Bool(false),
			Clicked:          goutil.Bool(false),
			CreateTime:       goutil.Uint64(uint64(now.Unix())),
		})
	}

	var (
		g  = new(errgroup.Group)
		ch = make(chan struct{}, createMessageConcurrency)
	)
	for start := 0; start < len(messages); start += createMessageBatchSize {
		end := start + createMessageBatchSize
		if end > len(messages) {
			end = len(messages)
		}

		batch := messages[start:end]
		ch <- struct{}{}
		g.Go(func() error {
			defer func() {
				<-ch
			}()
			return h.messageRepo.CreateMany(ctx, batch)
		})
	}

	if err := g.Wait(); err != nil {
		log.Ctx(ctx).Error().Msgf("create campaign messages failed, campaign_id: %d, err: %v", campaignID, err)
		return err
	}

	res.Campaign = campaign
	res.MessageCount = goutil.Uint64(uint64(len(messages)))

	return nil
}

type GetCampaignsRequest struct {
	Page  *uint32 `json:"page,omitempty" schema:"page"`
	Limit *uint32 `json:"limit,omitempty" schema:"limit"`
}

type GetCampaignsResponse struct {
	Campaigns  []*entity.Campaign `json:"campaigns"`
	Pagination *entity.Pagination `json:"pagination"`
}

func (h *campaignHandler) GetCampaigns(ctx context.Context, req *GetCampaignsRequest, res *GetCampaignsResponse) error {
	campaigns, pagination, err := h.campaignRepo.GetMany(ctx, &entity.Pagination{
		Page:  req.Page,
		Limit: req.Limit,
	})
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get campaigns failed: %v", err)
		return err
	}

	res.Campaigns = campaigns
	res.Pagination = pagination

	return nil
}
