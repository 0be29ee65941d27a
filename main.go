package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"phishsim/config"
	"phishsim/dep"
	"phishsim/handler"
	"phishsim/job/dispatch"
	"phishsim/middleware"
	"phishsim/pkg/logutil"
	"phishsim/pkg/mq"
	"phishsim/pkg/router"
	"phishsim/pkg/service"
	"phishsim/repo"
	"phishsim/tracker"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

type server struct {
	ctx context.Context
	opt *config.Option
	cfg *config.Config

	messageRepo        repo.MessageRepo
	campaignRepo       repo.CampaignRepo
	deliveryConfigRepo repo.DeliveryConfigRepo

	producer     *mq.Producer
	emailService dep.EmailService
	injector     tracker.Injector

	dispatchScheduler *service.Scheduler

	// api handlers
	trackingHandler       handler.TrackingHandler
	campaignHandler       handler.CampaignHandler
	deliveryConfigHandler handler.DeliveryConfigHandler
}

func main() {
	s := new(server)
	if err := service.Run(s); err != nil {
		log.Fatal().Msg(err.Error())
	}
}

func (s *server) Init() error {
	s.opt = config.NewOptions()
	return nil
}

func (s *server) Start() error {
	var err error

	// ====== init logger ===== //

	s.ctx = logutil.InitZeroLog(context.Background(), s.opt.LogLevel)

	// ===== init config ===== //

	s.cfg = config.NewConfig()
	if err = s.cfg.Load(s.ctx, s.opt.ConfigPath); err != nil {
		log.Ctx(s.ctx).Error().Msgf("load config failed, err: %v", err)
		return err
	}

	// ===== init repos =====

	s.messageRepo, err = repo.NewMessageRepo(s.ctx, s.cfg.MetadataDB)
	if err != nil {
		log.Ctx(s.ctx).Error().Msgf("init message repo failed, err: %v", err)
		return err
	}
	defer func() {
		if err != nil && s.messageRepo != nil {
			if err := s.messageRepo.Close(s.ctx); err != nil {
				log.Ctx(s.ctx).Error().Msgf("close message repo failed, err: %v", err)
				return
			}
		}
	}()

	s.campaignRepo, err = repo.NewCampaignRepo(s.ctx, s.cfg.MetadataDB)
	if err != nil {
		log.Ctx(s.ctx).Error().Msgf("init campaign repo failed, err: %v", err)
		return err
	}
	defer func() {
		if err != nil && s.campaignRepo != nil {
			if err := s.campaignRepo.Close(s.ctx); err != nil {
				log.Ctx(s.ctx).Error().Msgf("close campaign repo failed, err: %v", err)
				return
			}
		}
	}()

	s.deliveryConfigRepo, err = repo.NewDeliveryConfigRepo(s.ctx, s.cfg.MetadataDB)
	if err != nil {
		log.Ctx(s.ctx).Error().Msgf("init delivery config repo failed, err: %v", err)
		return err
	}
	defer func() {
		if err != nil && s.deliveryConfigRepo != nil {
			if err := s.deliveryConfigRepo.Close(s.ctx); err != nil {
				log.Ctx(s.ctx).Error().Msgf("close delivery config repo failed, err: %v", err)
				return
			}
		}
	}()

	// ===== init deps ===== //

	if len(s.cfg.EngagementMQ.Brokers) > 0 {
		s.producer, err = mq.NewProducer(s.ctx, mq.ProducerConfig{
			Brokers: s.cfg.EngagementMQ.Brokers,
			Topic:   s.cfg.EngagementMQ.Topic,
		})
		if err != nil {
			log.Ctx(s.ctx).Error().Msgf("init engagement producer failed, err: %v", err)
			return err
		}
	} else {
		log.Ctx(s.ctx).Warn().Msg("engagement mq not configured, events will not be published")
	}

	s.emailService, err = dep.NewEmailService(s.ctx, s.cfg.Brevo)
	if err != nil {
		log.Ctx(s.ctx).Error().Msgf("init email service failed, err: %v", err)
		return err
	}

	s.injector = tracker.NewInjector(s.cfg.Tracking, dep.NewLandingResolver(s.cfg.Tracking))

	// ===== init handlers ===== //

	s.trackingHandler = handler.NewTrackingHandler(s.messageRepo, s.campaignRepo, s.producer)
	s.campaignHandler = handler.NewCampaignHandler(s.campaignRepo, s.messageRepo)
	s.deliveryConfigHandler = handler.NewDeliveryConfigHandler(s.deliveryConfigRepo)

	// ===== init dispatch scheduler ===== //

	dispatchJob := dispatch.New(s.messageRepo, s.campaignRepo, s.deliveryConfigRepo, s.emailService, s.injector)
	s.dispatchScheduler = service.NewScheduler("dispatch",
		time.Duration(s.cfg.Dispatch.TickIntervalSeconds)*time.Second, dispatchJob)
	if err = s.dispatchScheduler.Start(s.ctx); err != nil {
		log.Ctx(s.ctx).Error().Msgf("start dispatch scheduler failed, err: %v", err)
		return err
	}

	// ===== start server ===== //

	go func() {
		addr := fmt.Sprintf(":%d", s.opt.Port)

		log.Info().Msgf("starting HTTP server at %s", addr)

		httpServer := &http.Server{
			BaseContext: func(_ net.Listener) context.Context {
				return s.ctx
			},
			Addr:    addr,
			Handler: middleware.Log(s.registerRoutes()),
		}
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fail to start HTTP server, err: %v", err)
		}
	}()

	return nil
}

func (s *server) Stop() error {
	if s.dispatchScheduler != nil {
		if err := s.dispatchScheduler.Stop(s.ctx); err != nil {
			log.Ctx(s.ctx).Error().Msgf("stop dispatch scheduler failed, err: %v", err)
			return err
		}
	}

	if s.producer != nil {
		if err := s.producer.Close(); err != nil {
			log.Ctx(s.ctx).Error().Msgf("close engagement producer failed, err: %v", err)
			return err
		}
	}

	if s.messageRepo != nil {
		if err := s.messageRepo.Close(s.ctx); err != nil {
			log.Ctx(s.ctx).Error().Msgf("close message repo failed, err: %v", err)
			return err
		}
	}

	if s.campaignRepo != nil {
		if err := s.campaignRepo.Close(s.ctx); err != nil {
			log.Ctx(s.ctx).Error().Msgf("close campaign repo failed, err: %v", err)
			return err
		}
	}

	if s.deliveryConfigRepo != nil {
		if err := s.deliveryConfigRepo.Close(s.ctx); err != nil {
			log.Ctx(s.ctx).Error().Msgf("close delivery config repo failed, err: %v", err)
			return err
		}
	}

	return nil
}

type HealthCheckRequest struct{}

type HealthCheckResponse struct{}

func (s *server) registerRoutes() http.Handler {
	r := &router.HttpRouter{
		Router: mux.NewRouter(),
	}

	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathHealthCheck,
		Method: http.MethodGet,
		Handler: router.Handler{
			Req: new(HealthCheckRequest),
			Res: new(HealthCheckResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return nil
			},
		},
	})

	auth := middleware.NewAuth(s.cfg.AdminAPIKeyHash)

	// create_campaign
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathCreateCampaign,
		Method:      http.MethodPost,
		Middlewares: []router.Middleware{auth},
		Handler: router.Handler{
			Req: new(handler.CreateCampaignRequest),
			Res: new(handler.CreateCampaignResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.campaignHandler.CreateCampaign(ctx, req.(*handler.CreateCampaignRequest), res.(*handler.CreateCampaignResponse))
			},
		},
	})

	// get_campaigns
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathGetCampaigns,
		Method:      http.MethodGet,
		Middlewares: []router.Middleware{auth},
		Handler: router.Handler{
			Req: new(handler.GetCampaignsRequest),
			Res: new(handler.GetCampaignsResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.campaignHandler.GetCampaigns(ctx, req.(*handler.GetCampaignsRequest), res.(*handler.GetCampaignsResponse))
			},
		},
	})

	// create_delivery_config
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathCreateDeliveryConfig,
		Method:      http.MethodPost,
		Middlewares: []router.Middleware{auth},
		Handler: router.Handler{
			Req: new(handler.CreateDeliveryConfigRequest),
			Res: new(handler.CreateDeliveryConfigResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.deliveryConfigHandler.CreateDeliveryConfig(ctx, req.(*handler.CreateDeliveryConfigRequest), res.(*handler.CreateDeliveryConfigResponse))
			},
		},
	})

	// get_delivery_configs
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathGetDeliveryConfigs,
		Method:      http.MethodGet,
		Middlewares: []router.Middleware{auth},
		Handler: router.Handler{
			Req: new(handler.GetDeliveryConfigsRequest),
			Res: new(handler.GetDeliveryConfigsResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.deliveryConfigHandler.GetDeliveryConfigs(ctx, req.(*handler.GetDeliveryConfigsRequest), res.(*handler.GetDeliveryConfigsResponse))
			},
		},
	})

	// tracking endpoints: unauthenticated, CORS-open, raw probe responses
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-CSRFToken"},
		AllowCredentials: true,
	})

	r.Methods(http.MethodGet, http.MethodOptions).
		Path(config.PathTrackOpen).
		Handler(c.Handler(http.HandlerFunc(s.trackingHandler.MarkOpened)))

	r.Methods(http.MethodGet, http.MethodOptions).
		Path(config.PathTrackClick).
		Handler(c.Handler(http.HandlerFunc(s.trackingHandler.MarkClicked)))

	return r
}
