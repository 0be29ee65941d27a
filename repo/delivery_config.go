package repo

import (
	"context"
	"errors"
	"phishsim/config"
	"phishsim/entity"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var ErrDeliveryConfigNotFound = errors.New("delivery config not found")

type DeliveryConfig struct {
	ID          *uint64
	Host        *string
	Port        *int
	Username    *string
	Password    *string
	SenderEmail *string
	SenderName  *string
	IsActive    *bool
	CreateTime  *uint64
}

func (m *DeliveryConfig) TableName() string {
	return "delivery_config_tab"
}

func (m *DeliveryConfig) GetID() uint64 {
	if m != nil && m.ID != nil {
		return *m.ID
	}
	return 0
}

type DeliveryConfigRepo interface {
	Create(ctx context.Context, deliveryConfig *entity.DeliveryConfig) (uint64, error)
	GetByID(ctx context.Context, id uint64) (*entity.DeliveryConfig, error)

	// GetActive returns the default config: the first active one.
	GetActive(ctx context.Context) (*entity.DeliveryConfig, error)

	GetMany(ctx context.Context) ([]*entity.DeliveryConfig, error)
	Close(ctx context.Context) error
}

type deliveryConfigRepo struct {
	orm *gorm.DB
}

func NewDeliveryConfigRepo(_ context.Context, mysqlCfg config.MySQL) (DeliveryConfigRepo, error) {
	orm, err := gorm.Open(mysql.Open(mysqlCfg.ToDSN()), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return &deliveryConfigRepo{orm: orm}, nil
}

func (r *deliveryConfigRepo) Create(_ context.Context, deliveryConfig *entity.DeliveryConfig) (uint64, error) {
	deliveryConfigModel := ToDeliveryConfigModel(deliveryConfig)

	if err := r.orm.Create(&deliveryConfigModel).Error; err != nil {
		return 0, err
	}

	return deliveryConfigModel.GetID(), nil
}

func (r *deliveryConfigRepo) GetByID(_ context.Context, id uint64) (*entity.DeliveryConfig, error) {
	deliveryConfigModel := new(DeliveryConfig)
	if err := r.orm.Where("id = ?", id).First(deliveryConfigModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeliveryConfigNotFound
		}
		return nil, err
	}

	return ToDeliveryConfig(deliveryConfigModel), nil
}

func (r *deliveryConfigRepo) GetActive(_ context.Context) (*entity.DeliveryConfig, error) {
	deliveryConfigModel := new(DeliveryConfig)
	if err := r.orm.Where("is_active = ?", true).Order("id ASC").First(deliveryConfigModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeliveryConfigNotFound
		}
		return nil, err
	}

	return ToDeliveryConfig(deliveryConfigModel), nil
}

func (r *deliveryConfigRepo) GetMany(_ context.Context) ([]*entity.DeliveryConfig, error) {
	deliveryConfigModels := make([]*DeliveryConfig, 0)
	if err := r.orm.Order("id ASC").Find(&deliveryConfigModels).Error; err != nil {
		return nil, err
	}

	res := make([]*entity.DeliveryConfig, 0, len(deliveryConfigModels))
	for _, deliveryConfigModel := range deliveryConfigModels {
		res = append(res, ToDeliveryConfig(deliveryConfigModel))
	}

	return res, nil
}

func (r *deliveryConfigRepo) Close(_ context.Context) error {
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

func ToDeliveryConfigModel(deliveryConfig *entity.DeliveryConfig) *DeliveryConfig {
	return &DeliveryConfig{
		ID:          deliveryConfig.ID,
		Host:        deliveryConfig.Host,
		Port:        deliveryConfig.Port,
		Username:    deliveryConfig.Username,
		Password:    deliveryConfig.Password,
		SenderEmail: deliveryConfig.SenderEmail,
		SenderName:  deliveryConfig.SenderName,
		IsActive:    deliveryConfig.IsActive,
		CreateTime:  deliveryConfig.CreateTime,
	}
}

func ToDeliveryConfig(deliveryConfig *DeliveryConfig) *entity.DeliveryConfig {
	return &entity.DeliveryConfig{
		ID:          deliveryConfig.ID,
		Host:        deliveryConfig.Host,
		Port:        deliveryConfig.Port,
		Username:    deliveryConfig.Username,
		Password:    deliveryConfig.Password,
		SenderEmail: deliveryConfig.SenderEmail,
		SenderName:  deliveryConfig.SenderName,
		IsActive:    deliveryConfig.IsActive,
		CreateTime:  deliveryConfig.CreateTime,
	}
}
