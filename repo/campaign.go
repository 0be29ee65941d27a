package repo

import (
	"context"
	"errors"
	"fmt"
	"phishsim/config"
	"phishsim/entity"
	"time"

	"github.com/patrickmn/go-cache"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var ErrCampaignNotFound = errors.New("campaign not found")

type Campaign struct {
	ID         *uint64
	Name       *string
	StartDate  *string
	EndDate    *string
	StartTime  *string
	EndTime    *string
	CreateTime *uint64
}

func (m *Campaign) TableName() string {
	return "campaign_tab"
}

func (m *Campaign) GetID() uint64 {
	if m != nil && m.ID != nil {
		return *m.ID
	}
	return 0
}

type CampaignRepo interface {
	Create(ctx context.Context, campaign *entity.Campaign) (uint64, error)
	GetByID(ctx context.Context, id uint64) (*entity.Campaign, error)
	GetMany(ctx context.Context, p *entity.Pagination) ([]*entity.Campaign, *entity.Pagination, error)
	Close(ctx context.Context) error
}

type campaignRepo struct {
	orm   *gorm.DB
	cache *cache.Cache
}

func NewCampaignRepo(_ context.Context, mysqlCfg config.MySQL) (CampaignRepo, error) {
	orm, err := gorm.Open(mysql.Open(mysqlCfg.ToDSN()), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return &campaignRepo{
		orm:   orm,
		cache: cache.New(30*time.Minute, 15*time.Minute),
	}, nil
}

func (r *campaignRepo) Create(_ context.Context, campaign *entity.Campaign) (uint64, error) {
	campaignModel := ToCampaignModel(campaign)

	if err := r.orm.Create(&campaignModel).Error; err != nil {
		return 0, err
	}

	campaign.ID = campaignModel.ID

	return campaignModel.GetID(), nil
}

// GetByID serves window lookups on the probe hot path; campaigns are
// immutable to the core, so positive hits are cached.
func (r *campaignRepo) GetByID(_ context.Context, id uint64) (*entity.Campaign, error) {
	key := r.cacheKey(id)

	if v, ok := r.cache.Get(key); ok {
		return v.(*entity.Campaign), nil
	}

	campaignModel := new(Campaign)
	if err := r.orm.Where("id = ?", id).First(campaignModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}

	campaign := ToCampaign(campaignModel)
	r.cache.Set(key, campaign, cache.DefaultExpiration)

	return campaign, nil
}

func (r *campaignRepo) GetMany(_ context.Context, p *entity.Pagination) ([]*entity.Campaign, *entity.Pagination, error) {
	var count int64
	if err := r.orm.Model(&Campaign{}).Count(&count).Error; err != nil {
		return nil, nil, err
	}

	var (
		limit = p.GetLimit()
		page  = p.GetPage()
	)
	if page == 0 {
		page = 1
	}

	var (
		offset         = (page - 1) * limit
		campaignModels = make([]*Campaign, 0)
	)
	query := r.orm.Order("id DESC").Offset(int(offset))
	if limit > 0 {
		query = query.Limit(int(limit + 1))
	}

	if err := query.Find(&campaignModels).Error; err != nil {
		return nil, nil, err
	}

	var hasNext bool
	if limit > 0 && len(campaignModels) > int(limit) {
		hasNext = true
		campaignModels = campaignModels[:limit]
	}

	campaigns := make([]*entity.Campaign, len(campaignModels))
	for i, campaignModel := range campaignModels {
		campaigns[i] = ToCampaign(campaignModel)
	}

	return campaigns, &entity.Pagination{
		Page:    &page,
		Limit:   p.Limit,
		HasNext: &hasNext,
		Total:   &count,
	}, nil
}

func (r *campaignRepo) Close(_ context.Context) error {
	r.cache.Flush()

	if r.orm != nil {
		sqlDB, err := r.orm.DB()
		if err != nil {
			return err
		}

		err = sqlDB.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *campaignRepo) cacheKey(id uint64) string {
	return fmt.Sprintf("campaign:%d", id)
}

func ToCampaignModel(campaign *entity.Campaign) *Campaign {
	return &Campaign{
		ID:         campaign.ID,
		Name:       campaign.Name,
		StartDate:  campaign.StartDate,
		EndDate:    campaign.EndDate,
		StartTime:  campaign.StartTime,
		EndTime:    campaign.EndTime,
		CreateTime: campaign.CreateTime,
	}
}

func ToCampaign(campaign *Campaign) *entity.Campaign {
	return &entity.Campaign{
		ID:         campaign.ID,
		Name:       campaign.Name,
		StartDate:  campaign.StartDate,
		EndDate:    campaign.EndDate,
		StartTime:  campaign.StartTime,
		EndTime:    campaign.EndTime,
		CreateTime: campaign.CreateTime,
	}
}
