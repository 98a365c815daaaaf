package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"socialhub/domain/model"
	"socialhub/domain/repository"
)

type videoRecord struct {
	ID            string     `gorm:"primaryKey;size:64"`
	UserID        string     `gorm:"size:128;index:idx_videos_user_created,priority:1"`
	Title         string     `gorm:"size:500"`
	Description   string     `gorm:"type:text"`
	Tags          []byte     `gorm:"type:json"`
	Platforms     []byte     `gorm:"type:json"`
	PrivacyStatus string     `gorm:"size:32"`
	Status        string     `gorm:"size:32"`
	UploadResults []byte     `gorm:"type:json"`
	Errors        []byte     `gorm:"type:json"`
	CreatedAt     time.Time  `gorm:"index:idx_videos_user_created,priority:2"`
	UpdatedAt     *time.Time `gorm:"autoUpdateTime:false"`
}

func (videoRecord) TableName() string { return "videos" }

func toVideoRecord(v *model.Video) (videoRecord, error) {
	j, err := marshalVideoJSON(v)
	if err != nil {
		return videoRecord{}, err
	}
	return videoRecord{
		ID: v.ID, UserID: v.UserID, Title: v.Title, Description: v.Description,
		Tags: j.tags, Platforms: j.platforms, PrivacyStatus: v.PrivacyStatus, Status: string(v.Status),
		UploadResults: j.results, Errors: j.errors, CreatedAt: v.CreatedAt, UpdatedAt: v.UpdatedAt,
	}, nil
}

func (r videoRecord) toModel() (*model.Video, error) {
	v := &model.Video{
		ID: r.ID, UserID: r.UserID, Title: r.Title, Description: r.Description,
		PrivacyStatus: r.PrivacyStatus, Status: model.VideoStatus(r.Status),
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
	j := videoJSON{tags: r.Tags, platforms: r.Platforms, results: r.UploadResults, errors: r.Errors}
	if err := j.apply(v); err != nil {
		return nil, err
	}
	return v, nil
}

// VideoRepositoryGorm is the MySQL implementation of IVideo.
type VideoRepositoryGorm struct{ db *gorm.DB }

func NewVideoRepositoryGorm(db *gorm.DB) repository.IVideo { return &VideoRepositoryGorm{db: db} }

func (r *VideoRepositoryGorm) Create(ctx context.Context, v *model.Video) error {
	rec, err := toVideoRecord(v)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *VideoRepositoryGorm) GetByID(ctx context.Context, id string) (*model.Video, error) {
	var rec videoRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec.toModel()
}

func (r *VideoRepositoryGorm) ListByUser(ctx context.Context, userID string) ([]*model.Video, error) {
	var recs []videoRecord
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*model.Video, 0, len(recs))
	for _, rec := range recs {
		v, err := rec.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (r *VideoRepositoryGorm) UpdateMetadata(ctx context.Context, v *model.Video) error {
	rec, err := toVideoRecord(v)
	if err != nil {
		return err
	}
	return gormAffected(r.db.WithContext(ctx).Model(&videoRecord{}).Where("id = ?", v.ID).Updates(map[string]any{
		"title":          rec.Title,
		"description":    rec.Description,
		"tags":           rec.Tags,
		"privacy_status": rec.PrivacyStatus,
		"updated_at":     rec.UpdatedAt,
	}))
}

func (r *VideoRepositoryGorm) UpdateProgress(ctx context.Context, v *model.Video) error {
	rec, err := toVideoRecord(v)
	if err != nil {
		return err
	}
	return gormAffected(r.db.WithContext(ctx).Model(&videoRecord{}).Where("id = ?", v.ID).Updates(map[string]any{
		"status":         rec.Status,
		"upload_results": rec.UploadResults,
		"errors":         rec.Errors,
		"updated_at":     rec.UpdatedAt,
	}))
}

func (r *VideoRepositoryGorm) UpdateStatus(ctx context.Context, id string, status model.VideoStatus, updatedAt time.Time) error {
	return gormAffected(r.db.WithContext(ctx).Model(&videoRecord{}).Where("id = ?", id).Updates(map[string]any{
		"status":     string(status),
		"updated_at": updatedAt,
	}))
}

func (r *VideoRepositoryGorm) Delete(ctx context.Context, id string) error {
	return gormAffected(r.db.WithContext(ctx).Where("id = ?", id).Delete(&videoRecord{}))
}

func gormAffected(tx *gorm.DB) error {
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

type credentialRecord struct {
	UserID    string `gorm:"primaryKey;size:128"`
	Platform  string `gorm:"primaryKey;size:32"`
	Payload   []byte `gorm:"type:blob"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (credentialRecord) TableName() string { return "platform_credentials" }

// CredentialRepositoryGorm is the MySQL implementation of ICredentialStore.
type CredentialRepositoryGorm struct {
	db    *gorm.DB
	codec CredentialCodec
}

func NewCredentialRepositoryGorm(db *gorm.DB, codec CredentialCodec) repository.ICredentialStore {
	return &CredentialRepositoryGorm{db: db, codec: codec}
}

func (r *CredentialRepositoryGorm) Save(ctx context.Context, userID string, creds model.PlatformCredentials) error {
	payload, err := r.codec.Encode(creds)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	rec := credentialRecord{UserID: userID, Platform: creds.Platform(), Payload: payload, CreatedAt: now, UpdatedAt: now}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "platform"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&rec).Error
}

func (r *CredentialRepositoryGorm) Load(ctx context.Context, userID, platform string) (model.PlatformCredentials, error) {
	var rec credentialRecord
	err := r.db.WithContext(ctx).Where("user_id = ? AND platform = ?", userID, platform).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.codec.Decode(rec.Payload)
}

func (r *CredentialRepositoryGorm) Delete(ctx context.Context, userID, platform string) error {
	return r.db.WithContext(ctx).Where("user_id = ? AND platform = ?", userID, platform).Delete(&credentialRecord{}).Error
}

func (r *CredentialRepositoryGorm) Platforms(ctx context.Context, userID string) ([]string, error) {
	out := []string{}
	err := r.db.WithContext(ctx).Model(&credentialRecord{}).Where("user_id = ?", userID).Order("platform").Pluck("platform", &out).Error
	return out, err
}

type userRecord struct {
	ID             string     `gorm:"primaryKey;size:64"`
	Email          string     `gorm:"size:320;uniqueIndex"`
	PasswordHash   string     `gorm:"size:255"`
	ResetToken     *string    `gorm:"size:128;index"`
	ResetExpiresAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      *time.Time `gorm:"autoUpdateTime:false"`
}

func (userRecord) TableName() string { return "users" }

func (r userRecord) toModel() model.User {
	return model.User{
		ID: r.ID, Email: r.Email, PasswordHash: r.PasswordHash, ResetToken: r.ResetToken,
		ResetExpiresAt: r.ResetExpiresAt, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

// UserRepositoryGorm is the MySQL implementation of IUser.
type UserRepositoryGorm struct{ db *gorm.DB }

func NewUserRepositoryGorm(db *gorm.DB) repository.IUser { return &UserRepositoryGorm{db: db} }

func (r *UserRepositoryGorm) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.takeOne(ctx, "id = ?", id)
}

func (r *UserRepositoryGorm) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.takeOne(ctx, "email = ?", email)
}

func (r *UserRepositoryGorm) GetByResetToken(ctx context.Context, token string) (model.User, error) {
	return r.takeOne(ctx, "reset_token = ?", token)
}

func (r *UserRepositoryGorm) takeOne(ctx context.Context, cond string, arg any) (model.User, error) {
	var rec userRecord
	err := r.db.WithContext(ctx).Where(cond, arg).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, model.ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	return rec.toModel(), nil
}

func (r *UserRepositoryGorm) CreateUser(ctx context.Context, user model.User) error {
	rec := userRecord{ID: user.ID, Email: user.Email, PasswordHash: user.PasswordHash, CreatedAt: user.CreatedAt}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *UserRepositoryGorm) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return gormAffected(r.db.WithContext(ctx).Model(&userRecord{}).Where("id = ?", id).Updates(map[string]any{
		"password_hash":    passwordHash,
		"reset_token":      nil,
		"reset_expires_at": nil,
		"updated_at":       time.Now().UTC(),
	}))
}

func (r *UserRepositoryGorm) SetResetToken(ctx context.Context, id string, token *string, expiresAt *time.Time) error {
	return gormAffected(r.db.WithContext(ctx).Model(&userRecord{}).Where("id = ?", id).Updates(map[string]any{
		"reset_token":      token,
		"reset_expires_at": expiresAt,
	}))
}
