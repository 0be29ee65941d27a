package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"phishsim/config"
	"phishsim/dep"
	"phishsim/job/dispatch"
	"phishsim/job/index_engagements"
	"phishsim/pkg/logutil"
	"phishsim/pkg/service"
	"phishsim/repo"
	"phishsim/tracker"
	"syscall"

	"github.com/rs/zerolog/log"
)

func main() {
	var (
		opt = config.NewOptions()
		ctx = logutil.InitZeroLog(context.Background(), opt.LogLevel)
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.NewConfig()
	if err := cfg.Load(ctx, opt.ConfigPath); err != nil {
		log.Ctx(ctx).Error().Msgf("load config failed: %v", err)
		os.Exit(1)
	}

	// message repo
	messageRepo, err := repo.NewMessageRepo(ctx, cfg.MetadataDB)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("init message repo failed, err: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := messageRepo.Close(ctx); err != nil {
			log.Ctx(ctx).Error().Msgf("close message repo failed, err: %v", err)
		}
	}()

	// campaign repo
	campaignRepo, err := repo.NewCampaignRepo(ctx, cfg.MetadataDB)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("init campaign repo failed, err: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := campaignRepo.Close(ctx); err != nil {
			log.Ctx(ctx).Error().Msgf("close campaign repo failed, err: %v", err)
		}
	}()

	// delivery config repo
	deliveryConfigRepo, err := repo.NewDeliveryConfigRepo(ctx, cfg.MetadataDB)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("init delivery config repo failed, err: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := deliveryConfigRepo.Close(ctx); err != nil {
			log.Ctx(ctx).Error().Msgf("close delivery config repo failed, err: %v", err)
		}
	}()

	// email service
	emailService, err := dep.NewEmailService(ctx, cfg.Brevo)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("init email service failed, err: %v", err)
		os.Exit(1)
	}

	// event index
	eventIndex, err := dep.NewEventIndex(ctx, cfg.EventIndex)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("init event index failed, err: %v", err)
		os.Exit(1)
	}

	injector := tracker.NewInjector(cfg.Tracking, dep.NewLandingResolver(cfg.Tracking))

	jobs := map[string]service.Job{
		"dispatch":          dispatch.New(messageRepo, campaignRepo, deliveryConfigRepo, emailService, injector),
		"index-engagements": index_engagements.New(cfg, eventIndex),
	}

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run main.go <job_name>")
		os.Exit(1)
	}

	jobName := os.Args[1]
	job, exists := jobs[jobName]
	if !exists {
		log.Ctx(ctx).Error().Msgf("job %s not found", jobName)
		os.Exit(1)
	}

	if err := job.Init(ctx); err != nil {
		log.Ctx(ctx).Error().Msgf("init job err: %v", err)
		os.Exit(1)
	}

	if err := job.Run(ctx); err != nil {
		log.Ctx(ctx).Error().Msgf("run job err: %v", err)
		os.Exit(1)
	}

	if err := job.CleanUp(ctx); err != nil {
		log.Ctx(ctx).Error().Msgf("cleanup job err: %v", err)
		os.Exit(1)
	}

	log.Ctx(ctx).Info().Msg("job executed successfully")
}
