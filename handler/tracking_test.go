package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"phishsim/entity"
	"phishsim/pkg/goutil"
	"phishsim/repo"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

type fakeMessageRepo struct {
	repo.MessageRepo

	mu       sync.Mutex
	messages map[uint64]*entity.Message
	created  []*entity.Message

	markReadCalls    int
	markClickedCalls int
}

func (f *fakeMessageRepo) Get(_ context.Context, filter *repo.MessageFilter) (*entity.Message, error) {
	m, ok := f.messages[*filter.ID]
	if !ok {
		return nil, repo.ErrMessageNotFound
	}
	return m, nil
}

func (f *fakeMessageRepo) CreateMany(_ context.Context, messages []*entity.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, messages...)
	return nil
}

func (f *fakeMessageRepo) MarkRead(_ context.Context, id uint64) (bool, error) {
	f.markReadCalls++
	m := f.messages[id]
	if m.GetRead() {
		return false, nil
	}
	m.Read = goutil.Bool(true)
	return true, nil
}

func (f *fakeMessageRepo) MarkClicked(_ context.Context, id uint64) (bool, error) {
	f.markClickedCalls++
	m := f.messages[id]
	if m.GetClicked() {
		return false, nil
	}
	m.Clicked = goutil.Bool(true)
	m.Read = goutil.Bool(true)
	return true, nil
}

type fakeCampaignRepo struct {
	repo.CampaignRepo

	campaigns map[uint64]*entity.Campaign
	nextID    uint64
}

func (f *fakeCampaignRepo) Create(_ context.Context, campaign *entity.Campaign) (uint64, error) {
	f.nextID++
	campaign.ID = goutil.Uint64(f.nextID)
	if f.campaigns == nil {
		f.campaigns = make(map[uint64]*entity.Campaign)
	}
	f.campaigns[f.nextID] = campaign
	return f.nextID, nil
}

func (f *fakeCampaignRepo) GetByID(_ context.Context, id uint64) (*entity.Campaign, error) {
	c, ok := f.campaigns[id]
	if !ok {
		return nil, repo.ErrCampaignNotFound
	}
	return c, nil
}

func trackedMessage(id, campaignID uint64) *entity.Message {
	return &entity.Message{
		ID:             goutil.Uint64(id),
		RecipientEmail: goutil.String("a@corp.example"),
		CampaignID:     goutil.Uint64(campaignID),
		Sent:           goutil.Bool(true),
		Read:           goutil.Bool(false),
		Clicked:        goutil.Bool(false),
	}
}

func openCampaign(id uint64) *entity.Campaign {
	return &entity.Campaign{
		ID:        goutil.Uint64(id),
		StartDate: goutil.String("2000-01-01"),
		EndDate:   goutil.String("2999-12-31"),
	}
}

func endedCampaign(id uint64) *entity.Campaign {
	return &entity.Campaign{
		ID:        goutil.Uint64(id),
		StartDate: goutil.String("2000-01-01"),
		EndDate:   goutil.String("2000-01-31"),
	}
}

func newTrackingRouter(messageRepo *fakeMessageRepo, campaignRepo *fakeCampaignRepo) *mux.Router {
	h := NewTrackingHandler(messageRepo, campaignRepo, nil)

	r := mux.NewRouter()
	r.Methods(http.MethodGet).Path("/track/open/{message_id}").HandlerFunc(h.MarkOpened)
	r.Methods(http.MethodGet).Path("/track/click/{message_id}").HandlerFunc(h.MarkClicked)
	return r
}

func doGet(r *mux.Router, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestMarkOpenedSetsRead(t *testing.T) {
	messageRepo := &fakeMessageRepo{messages: map[uint64]*entity.Message{1: trackedMessage(1, 10)}}
	campaignRepo := &fakeCampaignRepo{campaigns: map[uint64]*entity.Campaign{10: openCampaign(10)}}
	r := newTrackingRouter(messageRepo, campaignRepo)

	w := doGet(r, "/track/open/1?uid=abc&method=pixel1&t=1709280000000")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/gif", w.Header().Get("Content-Type"))
	assert.True(t, messageRepo.messages[1].GetRead())
}

func TestMarkOpenedIsIdempotent(t *testing.T) {
	messageRepo := &fakeMessageRepo{messages: map[uint64]*entity.Message{1: trackedMessage(1, 10)}}
	campaignRepo := &fakeCampaignRepo{campaigns: map[uint64]*entity.Campaign{10: openCampaign(10)}}
	r := newTrackingRouter(messageRepo, campaignRepo)

	for i := 0; i < 3; i++ {
		w := doGet(r, "/track/open/1?method=pixel1")
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.True(t, messageRepo.messages[1].GetRead())
	assert.Equal(t, 3, messageRepo.markReadCalls)
}

func TestMarkOpenedUnknownMessageStillServesProbe(t *testing.T) {
	messageRepo := &fakeMessageRepo{messages: map[uint64]*entity.Message{}}
	r := newTrackingRouter(messageRepo, &fakeCampaignRepo{})

	w := doGet(r, "/track/open/999?method=pixel1")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/gif", w.Header().Get("Content-Type"))
	assert.Equal(t, gifPixel, w.Body.Bytes())
}

func TestMarkOpenedBadMessageIDStillServesProbe(t *testing.T) {
	messageRepo := &fakeMessageRepo{messages: map[uint64]*entity.Message{}}
	r := newTrackingRouter(messageRepo, &fakeCampaignRepo{})

	w := doGet(r, "/track/open/not-a-number?method=pixel1")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/gif", w.Header().Get("Content-Type"))
}

func TestMarkOpenedContentTypeByMethod(t *testing.T) {
	tests := []struct {
		method      string
		contentType string
		body        []byte
	}{
		{"pixel1", "image/gif", gifPixel},
		{"pixel2", "image/gif", gifPixel},
		{"svg", "image/svg+xml", svgPixel},
		{"css", "image/png", pngPixel},
		{"link", "text/html", openedPage},
		{"script", "image/gif", gifPixel},
		{"", "image/gif", gifPixel},
	}

	for _, tc := range tests {
		t.Run("method "+tc.method, func(t *testing.T) {
			messageRepo := &fakeMessageRepo{messages: map[uint64]*entity.Message{1: trackedMessage(1, 10)}}
			campaignRepo := &fakeCampaignRepo{campaigns: map[uint64]*entity.Campaign{10: openCampaign(10)}}
			r := newTrackingRouter(messageRepo, campaignRepo)

			w := doGet(r, "/track/open/1?method="+tc.method)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tc.contentType, w.Header().Get("Content-Type"))
			assert.Equal(t, tc.body, w.Body.Bytes())
		})
	}
}

func TestMarkOpenedSetsCacheBustingHeaders(t *testing.T) {
	messageRepo := &fakeMessageRepo{messages: map[uint64]*entity.Message{1: trackedMessage(1, 10)}}
	campaignRepo := &fakeCampaignRepo{campaigns: map[uint64]*entity.Campaign{10: openCampaign(10)}}
	r := newTrackingRouter(messageRepo, campaignRepo)

	w := doGet(r, "/track/open/1?method=pixel1")

	assert.Equal(t, "no-cache, no-store, must-revalidate, max-age=0", w.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", w.Header().Get("Pragma"))
	assert.Equal(t, "0", w.Header().Get("Expires"))
	assert.NotEmpty(t, w.Header().Get("ETag"))
	assert.NotEmpty(t, w.Header().Get("Last-Modified"))
}

func TestMarkOpenedSuppressedAfterCampaignEnd(t *testing.T) {
	messageRepo := &fakeMessageRepo{messages: map[uint64]*entity.Message{1: trackedMessage(1, 10)}}
	campaignRepo := &fakeCampaignRepo{campaigns: map[uint64]*entity.Campaign{10: endedCampaign(10)}}
	r := newTrackingRouter(messageRepo, campaignRepo)

	w := doGet(r, "/track/open/1?method=pixel1")

	// the probe still renders, but state is frozen
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/gif", w.Header().Get("Content-Type"))
	assert.False(t, messageRepo.messages[1].GetRead())
	assert.Zero(t, messageRepo.markReadCalls)
}

func TestMarkOpenedWithoutCampaignAlwaysTracks(t *testing.T) {
	message := trackedMessage(1, 0)
	message.CampaignID = nil

	messageRepo := &fakeMessageRepo{messages: map[uint64]*entity.Message{1: message}}
	r := newTrackingRouter(messageRepo, &fakeCampaignRepo{})

	w := doGet(r, "/track/open/1?method=pixel1")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, messageRepo.messages[1].GetRead())
}

func TestMarkClickedRedirectsAndMarks(t *testing.T) {
	messageRepo := &fakeMessageRepo{messages: map[uint64]*entity.Message{1: trackedMessage(1, 10)}}
	campaignRepo := &fakeCampaignRepo{campaigns: map[uint64]*entity.Campaign{10: openCampaign(10)}}
	r := newTrackingRouter(messageRepo, campaignRepo)

	w := doGet(r, "/track/click/1?url=http%3A%2F%2Ftrack.local%2Flanding%2Fdefault%2F1")

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "http://track.local/landing/default/1", w.Header().Get("Location"))
	assert.True(t, messageRepo.messages[1].GetClicked())
	assert.True(t, messageRepo.messages[1].GetRead(), "a click is also an open")
}

func TestMarkClickedIsIdempotent(t *testing.T) {
	messageRepo := &fakeMessageRepo{messages: map[uint64]*entity.Message{1: trackedMessage(1, 10)}}
	campaignRepo := &fakeCampaignRepo{campaigns: map[uint64]*entity.Campaign{10: openCampaign(10)}}
	r := newTrackingRouter(messageRepo, campaignRepo)

	for i := 0; i < 3; i++ {
		w := doGet(r, "/track/click/1?url=http%3A%2F%2Ftrack.local%2Fl")
		assert.Equal(t, http.StatusFound, w.Code)
	}

	assert.True(t, messageRepo.messages[1].GetClicked())
	assert.Equal(t, 3, messageRepo.markClickedCalls)
}

func TestMarkClickedRedirectsWhenSuppressed(t *testing.T) {
	messageRepo := &fakeMessageRepo{messages: map[uint64]*entity.Message{1: trackedMessage(1, 10)}}
	campaignRepo := &fakeCampaignRepo{campaigns: map[uint64]*entity.Campaign{10: endedCampaign(10)}}
	r := newTrackingRouter(messageRepo, campaignRepo)

	w := doGet(r, "/track/click/1?url=http%3A%2F%2Ftrack.local%2Fl")

	// navigation is never blocked, even after the campaign ends
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "http://track.local/l", w.Header().Get("Location"))
	assert.False(t, messageRepo.messages[1].GetClicked())
}

func TestMarkClickedRedirectsUnknownMessage(t *testing.T) {
	messageRepo := &fakeMessageRepo{messages: map[uint64]*entity.Message{}}
	r := newTrackingRouter(messageRepo, &fakeCampaignRepo{})

	w := doGet(r, "/track/click/999?url=http%3A%2F%2Ftrack.local%2Fl")

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "http://track.local/l", w.Header().Get("Location"))
}

func TestMarkClickedWithoutURLServesPixel(t *testing.T) {
	messageRepo := &fakeMessageRepo{messages: map[uint64]*entity.Message{1: trackedMessage(1, 10)}}
	campaignRepo := &fakeCampaignRepo{campaigns: map[uint64]*entity.Campaign{10: openCampaign(10)}}
	r := newTrackingRouter(messageRepo, campaignRepo)

	w := doGet(r, "/track/click/1")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/gif", w.Header().Get("Content-Type"))
	assert.True(t, messageRepo.messages[1].GetClicked())
}
