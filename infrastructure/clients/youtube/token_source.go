package youtube

import (
	"context"
	"sync"

	"golang.org/x/oauth2"

	"socialhub/infrastructure/logger"
)

// TokenNotifyFunc is called with every token the source refreshes.
type TokenNotifyFunc func(*oauth2.Token) error

// NotifyingTokenSource wraps an oauth2.TokenSource and reports refreshed
// tokens so they can be persisted.
type NotifyingTokenSource struct {
	mu     sync.Mutex
	src    oauth2.TokenSource
	notify TokenNotifyFunc
	curr   *oauth2.Token
}

func NewNotifyingTokenSource(ctx context.Context, cfg *oauth2.Config, tok *oauth2.Token, notify TokenNotifyFunc) *NotifyingTokenSource {
	return &NotifyingTokenSource{
		src:    cfg.TokenSource(ctx, tok),
		notify: notify,
		curr:   tok,
	}
}

func (s *NotifyingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.curr == nil || s.curr.AccessToken != tok.AccessToken {
		s.curr = tok
		if s.notify != nil {
			if err := s.notify(tok); err != nil {
				// The refreshed token is still usable for this call.
				logger.GetLogger().WithField("error", err).Warn("persist refreshed youtube token failed")
			}
		}
	}
	return s.curr, nil
}
