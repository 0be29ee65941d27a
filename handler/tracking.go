package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"phishsim/entity"
	"phishsim/pkg/goutil"
	"phishsim/pkg/mq"
	"phishsim/repo"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// Probe response bodies by tracking method. Mail clients request these
// blindly; the bodies must always render.
var (
	gifPixel, _ = base64.StdEncoding.DecodeString("R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7")
	pngPixel, _ = base64.StdEncoding.DecodeString("iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII=")
	svgPixel    = []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="1" height="1"></svg>`)
	openedPage  = []byte(`<html><body><h1>Email Opened</h1><p>You can close this window.</p></body></html>`)
)

// TrackingHandler ingests probe hits. Every code path answers with a valid,
// renderable response; a tracking failure must never be visible to the
// recipient's client.
type TrackingHandler interface {
	MarkOpened(w http.ResponseWriter, r *http.Request)
	MarkClicked(w http.ResponseWriter, r *http.Request)
}

type trackingHandler struct {
	messageRepo  repo.MessageRepo
	campaignRepo repo.CampaignRepo
	producer     *mq.Producer
}

func NewTrackingHandler(messageRepo repo.MessageRepo, campaignRepo repo.CampaignRepo, producer *mq.Producer) TrackingHandler {
	return &trackingHandler{
		messageRepo:  messageRepo,
		campaignRepo: campaignRepo,
		producer:     producer,
	}
}

func (h *trackingHandler) MarkOpened(w http.ResponseWriter, r *http.Request) {
	var (
		ctx    = r.Context()
		method = r.URL.Query().Get("method")
	)
	if method == "" {
		method = "pixel"
	}

	messageID, err := strconv.ParseUint(mux.Vars(r)["message_id"], 10, 64)
	if err != nil {
		log.Ctx(ctx).Warn().Msgf("mark opened with bad message id: %v", mux.Vars(r)["message_id"])
		h.writeProbeResponse(w, method)
		return
	}

	changed, message := h.tryTransition(ctx, messageID, h.messageRepo.MarkRead)
	if changed {
		h.publishEvent(r, mq.EngagementEventOpen, message, method, "")
	}

	h.writeProbeResponse(w, method)
}

func (h *trackingHandler) MarkClicked(w http.ResponseWriter, r *http.Request) {
	var (
		ctx         = r.Context()
		redirectURL = r.URL.Query().Get("url")
	)

	messageID, err := strconv.ParseUint(mux.Vars(r)["message_id"], 10, 64)
	if err != nil {
		log.Ctx(ctx).Warn().Msgf("mark clicked with bad message id: %v", mux.Vars(r)["message_id"])
		h.respondClick(w, r, redirectURL)
		return
	}

	changed, message := h.tryTransition(ctx, messageID, h.messageRepo.MarkClicked)
	if changed {
		h.publishEvent(r, mq.EngagementEventClick, message, "", redirectURL)
	}

	// The recipient's navigation is never blocked by tracking state.
	h.respondClick(w, r, redirectURL)
}

// tryTransition looks up the message, applies the campaign end-of-window
// suppression rule, and runs the guarded flag transition. It reports whether
// state actually changed; all failures end up as log entries only.
func (h *trackingHandler) tryTransition(ctx context.Context, messageID uint64,
	mark func(ctx context.Context, id uint64) (bool, error)) (bool, *entity.Message) {

	message, err := h.messageRepo.Get(ctx, &repo.MessageFilter{ID: goutil.Uint64(messageID)})
	if err != nil {
		if errors.Is(err, repo.ErrMessageNotFound) {
			log.Ctx(ctx).Warn().Msgf("probe hit for unknown message, message_id: %d", messageID)
		} else {
			log.Ctx(ctx).Error().Msgf("get message failed, message_id: %d, err: %v", messageID, err)
		}
		return false, nil
	}

	if message.HasCampaign() {
		campaign, err := h.campaignRepo.GetByID(ctx, message.GetCampaignID())
		if err != nil {
			log.Ctx(ctx).Error().Msgf("get campaign failed, campaign_id: %d, err: %v", message.GetCampaignID(), err)
			return false, message
		}

		ended, err := campaign.Ended(time.Now())
		if err != nil {
			log.Ctx(ctx).Error().Msgf("campaign window evaluation failed, campaign_id: %d, err: %v", campaign.GetID(), err)
			return false, message
		}

		if ended {
			log.Ctx(ctx).Info().Msgf("engagement suppressed, campaign %d ended, message_id: %d", campaign.GetID(), messageID)
			return false, message
		}
	}

	changed, err := mark(ctx, messageID)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("mark engagement failed, message_id: %d, err: %v", messageID, err)
		return false, message
	}

	return changed, message
}

func (h *trackingHandler) publishEvent(r *http.Request, eventType mq.EngagementEventType,
	message *entity.Message, probeKind, url string) {

	if h.producer == nil || message == nil {
		return
	}

	event := &mq.EngagementEvent{
		MessageID: message.ID,
		EventType: eventType,
		EventTime: goutil.Uint64(uint64(time.Now().Unix())),
	}
	if message.HasCampaign() {
		event.CampaignID = message.CampaignID
	}
	if probeKind != "" {
		event.ProbeKind = goutil.String(probeKind)
	}
	if url != "" {
		event.URL = goutil.String(url)
	}
	if ua := r.UserAgent(); ua != "" {
		event.UserAgent = goutil.String(ua)
	}
	if r.RemoteAddr != "" {
		event.IPAddress = goutil.String(r.RemoteAddr)
	}

	if err := h.producer.SendMessage(&mq.Message{
		Payload: mq.PayloadEngagementEvent,
		Key:     strconv.FormatUint(message.GetID(), 10),
		Body:    event,
	}); err != nil {
		log.Ctx(r.Context()).Error().Msgf("publish engagement event failed, message_id: %d, err: %v", message.GetID(), err)
	}
}

func (h *trackingHandler) respondClick(w http.ResponseWriter, r *http.Request, redirectURL string) {
	if redirectURL != "" {
		http.Redirect(w, r, redirectURL, http.StatusFound)
		return
	}
	h.writeProbeResponse(w, "pixel")
}

func (h *trackingHandler) writeProbeResponse(w http.ResponseWriter, method string) {
	// Cache busting: redundant probes for one message must each reach the
	// server, so intermediate caches may never satisfy a probe load.
	header := w.Header()
	header.Set("Cache-Control", "no-cache, no-store, must-revalidate, max-age=0")
	header.Set("Pragma", "no-cache")
	header.Set("Expires", "0")
	header.Set("ETag", `"`+uuid.New().String()+`"`)
	header.Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))

	var (
		body        []byte
		contentType string
	)
	switch method {
	case "link":
		body, contentType = openedPage, "text/html"
	case "svg":
		body, contentType = svgPixel, "image/svg+xml"
	case "css":
		body, contentType = pngPixel, "image/png"
	default:
		body, contentType = gifPixel, "image/gif"
	}

	header.Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
