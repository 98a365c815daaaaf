package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"socialhub/domain/model"
)

type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) Save(ctx context.Context, userID string, creds model.PlatformCredentials) error {
	args := m.Called(ctx, userID, creds)
	return args.Error(0)
}

func (m *MockCredentialStore) Load(ctx context.Context, userID, platform string) (model.PlatformCredentials, error) {
	args := m.Called(ctx, userID, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.PlatformCredentials), args.Error(1)
}

func (m *MockCredentialStore) Delete(ctx context.Context, userID, platform string) error {
	args := m.Called(ctx, userID, platform)
	return args.Error(0)
}

func (m *MockCredentialStore) Platforms(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockUploader struct {
	mock.Mock
	platform string
}

func NewMockUploader(platform string) *MockUploader {
	return &MockUploader{platform: platform}
}

func (m *MockUploader) Platform() string { return m.platform }

func (m *MockUploader) Upload(ctx context.Context, req model.UploadRequest) (*model.UploadResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UploadResult), args.Error(1)
}

type MockOAuthManager struct {
	mock.Mock
	platform string
}

func (m *MockOAuthManager) Platform() string { return m.platform }

func (m *MockOAuthManager) AuthURL(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockOAuthManager) Exchange(ctx context.Context, params model.CallbackParams) (string, model.PlatformCredentials, error) {
	args := m.Called(ctx, params)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(model.PlatformCredentials), args.Error(2)
}

func (m *MockOAuthManager) Refresh(ctx context.Context, creds model.PlatformCredentials) (model.PlatformCredentials, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.PlatformCredentials), args.Error(1)
}

func (m *MockOAuthManager) Forget(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockSecretsManager also accepts client secrets.
type MockSecretsManager struct {
	MockOAuthManager
}

func (m *MockSecretsManager) RegisterClientSecrets(ctx context.Context, userID string, data []byte) error {
	args := m.Called(ctx, userID, data)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepository) GetByResetToken(ctx context.Context, token string) (model.User, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUserRepository) SetResetToken(ctx context.Context, id string, token *string, expiresAt *time.Time) error {
	args := m.Called(ctx, id, token, expiresAt)
	return args.Error(0)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	args := m.Called(ctx, email, token)
	return args.Error(0)
}

type MockEventSink struct {
	mock.Mock
}

func (m *MockEventSink) Publish(ctx context.Context, event model.UploadEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// memVideoRepository stores copies the way a database would.
type memVideoRepository struct {
	mu             sync.Mutex
	videos         map[string]*model.Video
	progressWrites int
	metadataWrites int
	// loadErrs are returned by the next GetByID calls, in order.
	loadErrs []error
}

func newMemVideoRepository() *memVideoRepository {
	return &memVideoRepository{videos: map[string]*model.Video{}}
}

func cloneVideo(v *model.Video) *model.Video {
	c := *v
	c.Tags = append([]string(nil), v.Tags...)
	c.Platforms = append([]string(nil), v.Platforms...)
	c.UploadResults = make(map[string]model.UploadResult, len(v.UploadResults))
	for k, r := range v.UploadResults {
		c.UploadResults[k] = r
	}
	c.Errors = make(map[string]string, len(v.Errors))
	for k, e := range v.Errors {
		c.Errors[k] = e
	}
	if v.UpdatedAt != nil {
		t := *v.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}

func (r *memVideoRepository) Create(_ context.Context, v *model.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.videos[v.ID] = cloneVideo(v)
	return nil
}

func (r *memVideoRepository) GetByID(_ context.Context, id string) (*model.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.loadErrs) > 0 {
		err := r.loadErrs[0]
		r.loadErrs = r.loadErrs[1:]
		return nil, err
	}
	v, ok := r.videos[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return cloneVideo(v), nil
}

func (r *memVideoRepository) ListByUser(_ context.Context, userID string) ([]*model.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Video{}
	for _, v := range r.videos {
		if v.UserID == userID {
			out = append(out, cloneVideo(v))
		}
	}
	return out, nil
}

func (r *memVideoRepository) UpdateMetadata(_ context.Context, v *model.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.videos[v.ID]; !ok {
		return model.ErrNotFound
	}
	r.metadataWrites++
	r.videos[v.ID] = cloneVideo(v)
	return nil
}

func (r *memVideoRepository) UpdateProgress(_ context.Context, v *model.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.videos[v.ID]; !ok {
		return model.ErrNotFound
	}
	r.progressWrites++
	r.videos[v.ID] = cloneVideo(v)
	return nil
}

func (r *memVideoRepository) UpdateStatus(_ context.Context, id string, status model.VideoStatus, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.videos[id]
	if !ok {
		return model.ErrNotFound
	}
	v.Status = status
	v.UpdatedAt = &updatedAt
	return nil
}

func (r *memVideoRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.videos[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.videos, id)
	return nil
}
