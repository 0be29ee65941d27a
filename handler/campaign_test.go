package handler

import (
	"context"
	"phishsim/pkg/goutil"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validCreateCampaignRequest() *CreateCampaignRequest {
	return &CreateCampaignRequest{
		Name:      goutil.String("Q1 awareness drill"),
		StartDate: goutil.String("2024-03-01"),
		EndDate:   goutil.String("2024-03-05"),
		Subject:   goutil.String("Password expiry notice"),
		Content:   goutil.String("<html><body><a href=\"#\">Reset now</a></body></html>"),
		RecipientEmails: []string{
			"a@corp.example",
			"b@corp.example",
			"c@corp.example",
		},
	}
}

func TestCreateCampaignRejectsMissingFields(t *testing.T) {
	messageRepo := &fakeMessageRepo{}
	campaignRepo := &fakeCampaignRepo{}
	h := NewCampaignHandler(campaignRepo, messageRepo)

	req := validCreateCampaignRequest()
	req.Name = nil

	err := h.CreateCampaign(context.Background(), req, new(CreateCampaignResponse))
	assert.Error(t, err)
	assert.Empty(t, campaignRepo.campaigns)
	assert.Empty(t, messageRepo.created)
}

func TestCreateCampaignRejectsNoRecipients(t *testing.T) {
	messageRepo := &fakeMessageRepo{}
	campaignRepo := &fakeCampaignRepo{}
	h := NewCampaignHandler(campaignRepo, messageRepo)

	req := validCreateCampaignRequest()
	req.RecipientEmails = nil

	err := h.CreateCampaign(context.Background(), req, new(CreateCampaignResponse))
	assert.Error(t, err)
	assert.Empty(t, campaignRepo.campaigns)
}

func TestCreateCampaignRejectsEndBeforeStart(t *testing.T) {
	messageRepo := &fakeMessageRepo{}
	campaignRepo := &fakeCampaignRepo{}
	h := NewCampaignHandler(campaignRepo, messageRepo)

	req := validCreateCampaignRequest()
	req.StartDate = goutil.String("2024-03-05")
	req.EndDate = goutil.String("2024-03-01")

	err := h.CreateCampaign(context.Background(), req, new(CreateCampaignResponse))
	assert.Error(t, err)
	assert.Empty(t, campaignRepo.campaigns)
	assert.Empty(t, messageRepo.created)
}

func TestCreateCampaignCreatesMessagePerRecipient(t *testing.T) {
	messageRepo := &fakeMessageRepo{}
	campaignRepo := &fakeCampaignRepo{}
	h := NewCampaignHandler(campaignRepo, messageRepo)

	req := validCreateCampaignRequest()
	res := new(CreateCampaignResponse)

	assert.NoError(t, h.CreateCampaign(context.Background(), req, res))
	assert.Equal(t, uint64(3), *res.MessageCount)
	assert.Len(t, messageRepo.created, 3)

	recipients := make(map[string]bool)
	for _, message := range messageRepo.created {
		recipients[message.GetRecipientEmail()] = true

		assert.Equal(t, res.Campaign.GetID(), message.GetCampaignID())
		assert.False(t, message.GetSent())
		assert.False(t, message.GetRead())
		assert.False(t, message.GetClicked())
	}
	assert.Len(t, recipients, 3)
}

func TestCreateCampaignCarriesDeliveryOverrideAndSlug(t *testing.T) {
	messageRepo := &fakeMessageRepo{}
	campaignRepo := &fakeCampaignRepo{}
	h := NewCampaignHandler(campaignRepo, messageRepo)

	req := validCreateCampaignRequest()
	req.DeliveryConfigID = goutil.Uint64(9)
	req.LandingSlug = goutil.String("it-dept")

	assert.NoError(t, h.CreateCampaign(context.Background(), req, new(CreateCampaignResponse)))

	for _, message := range messageRepo.created {
		assert.Equal(t, uint64(9), message.GetDeliveryConfigID())
		assert.Equal(t, "it-dept", message.GetLandingSlug())
	}
}
