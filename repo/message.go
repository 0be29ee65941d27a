package repo

import (
	"context"
	"errors"
	"phishsim/config"
	"phishsim/entity"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var ErrMessageNotFound = errors.New("message not found")

type Message struct {
	ID               *uint64
	Subject          *string
	Content          *string
	RecipientEmail   *string
	CampaignID       *uint64
	DeliveryConfigID *uint64
	LandingSlug      *string
	Sent             *bool
	Read             *bool
	Clicked          *bool
	SentAt           *uint64
	CreateTime       *uint64
}

func (m *Message) TableName() string {
	return "message_tab"
}

func (m *Message) GetID() uint64 {
	if m != nil && m.ID != nil {
		return *m.ID
	}
	return 0
}

type MessageFilter struct {
	ID *uint64
}

type MessageRepo interface {
	Create(ctx context.Context, message *entity.Message) (uint64, error)
	CreateMany(ctx context.Context, messages []*entity.Message) error
	Get(ctx context.Context, f *MessageFilter) (*entity.Message, error)

	// GetPendingForDispatch returns unsent messages belonging to a campaign
	// whose date range contains the given day, nearest campaign deadline
	// first and FIFO within a campaign. The precise time-of-day check is the
	// caller's job.
	GetPendingForDispatch(ctx context.Context, now time.Time) ([]*entity.Message, error)

	// The Mark* methods are guarded transitions: each flips its flag only if
	// currently unset, atomically, and reports whether a change happened.
	MarkSent(ctx context.Context, id uint64, sentAt uint64) (bool, error)
	MarkRead(ctx context.Context, id uint64) (bool, error)
	MarkClicked(ctx context.Context, id uint64) (bool, error)

	Close(ctx context.Context) error
}

type messageRepo struct {
	orm *gorm.DB
}

func NewMessageRepo(_ context.Context, mysqlCfg config.MySQL) (MessageRepo, error) {
	orm, err := gorm.Open(mysql.Open(mysqlCfg.ToDSN()), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return &messageRepo{orm: orm}, nil
}

func (r *messageRepo) Create(_ context.Context, message *entity.Message) (uint64, error) {
	messageModel := ToMessageModel(message)

	if err := r.orm.Create(&messageModel).Error; err != nil {
		return 0, err
	}

	return messageModel.GetID(), nil
}

func (r *messageRepo) CreateMany(_ context.Context, messages []*entity.Message) error {
	if len(messages) == 0 {
		return nil
	}

	messageModels := make([]*Message, 0, len(messages))
	for _, message := range messages {
		messageModels = append(messageModels, ToMessageModel(message))
	}

	return r.orm.Create(&messageModels).Error
}

func (r *messageRepo) Get(_ context.Context, f *MessageFilter) (*entity.Message, error) {
	message := new(Message)
	if err := r.orm.Where(f).First(message).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}

	return ToMessage(message), nil
}

func (r *messageRepo) GetPendingForDispatch(_ context.Context, now time.Time) ([]*entity.Message, error) {
	var (
		today    = now.Format(entity.DateFormat)
		messages = make([]*Message, 0)
	)

	err := r.orm.Model(&Message{}).
		Joins("JOIN campaign_tab ON campaign_tab.id = message_tab.campaign_id").
		Where("message_tab.sent = ? AND campaign_tab.start_date <= ? AND campaign_tab.end_date >= ?",
			false, today, today).
		Order("campaign_tab.end_date ASC, COALESCE(campaign_tab.end_time, '23:59:59') ASC, message_tab.create_time ASC, message_tab.id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	res := make([]*entity.Message, 0, len(messages))
	for _, message := range messages {
		res = append(res, ToMessage(message))
	}

	return res, nil
}

func (r *messageRepo) MarkSent(_ context.Context, id uint64, sentAt uint64) (bool, error) {
	res := r.orm.Model(&Message{}).
		Where("id = ? AND sent = ?", id, false).
		Updates(map[string]interface{}{"sent": true, "sent_at": sentAt})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *messageRepo) MarkRead(_ context.Context, id uint64) (bool, error) {
	res := r.orm.Model(&Message{}).
		Where("id = ? AND `read` = ?", id, false).
		Updates(map[string]interface{}{"read": true})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkClicked also sets read in the same statement: a click is an open, and
// the clicked-implies-read invariant must hold even under concurrent probes.
func (r *messageRepo) MarkClicked(_ context.Context, id uint64) (bool, error) {
	res := r.orm.Model(&Message{}).
		Where("id = ? AND clicked = ?", id, false).
		Updates(map[string]interface{}{"clicked": true, "read": true})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *messageRepo) Close(_ context.Context) error {
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

func ToMessageModel(message *entity.Message) *Message {
	return &Message{
		ID:               message.ID,
		Subject:          message.Subject,
		Content:          message.Content,
		RecipientEmail:   message.RecipientEmail,
		CampaignID:       message.CampaignID,
		DeliveryConfigID: message.DeliveryConfigID,
		LandingSlug:      message.LandingSlug,
		Sent:             message.Sent,
		Read:             message.Read,
		Clicked:          message.Clicked,
		SentAt:           message.SentAt,
		CreateTime:       message.CreateTime,
	}
}

func ToMessage(message *Message) *entity.Message {
	return &entity.Message{
		ID:               message.ID,
		Subject:          message.Subject,
		Content:          message.Content,
		RecipientEmail:   message.RecipientEmail,
		CampaignID:       message.CampaignID,
		DeliveryConfigID: message.DeliveryConfigID,
		LandingSlug:      message.LandingSlug,
		Sent:             message.Sent,
		Read:             message.Read,
		Clicked:          message.Clicked,
		SentAt:           message.SentAt,
		CreateTime:       message.CreateTime,
	}
}
