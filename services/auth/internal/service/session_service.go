package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clubhive/clubhive/pkg/auth"
	"github.com/clubhive/clubhive/pkg/config"
	"github.com/clubhive/clubhive/pkg/events"
	"github.com/clubhive/clubhive/pkg/logger"
	"github.com/clubhive/clubhive/pkg/session"
	"github.com/clubhive/clubhive/services/auth/internal/domain"
	"github.com/clubhive/clubhive/services/auth/internal/repository"
)

var (
	ErrInvalidCredential = errors.New("invalid identity token")
	ErrProfileMissing    = errors.New("profile not found")
	ErrSessionEnded      = errors.New("session has ended")
)

type SessionService interface {
	SignIn(ctx context.Context, req *domain.SignInRequest) (*domain.SignInResponse, error)
	Current(ctx context.Context, s *session.Session) *domain.SessionState
	UpdateProfile(ctx context.Context, s *session.Session, req *domain.UpdateProfileRequest) (*domain.SessionState, error)
	SignOut(ctx context.Context, s *session.Session) error
}

type sessionService struct {
	profiles repository.ProfileRepository
	sessions session.Store
	bus      events.Publisher
	cfg      config.AuthConfig
}

func NewSessionService(profiles repository.ProfileRepository, sessions session.Store, bus events.Publisher, cfg config.AuthConfig) SessionService {
	return &sessionService{profiles: profiles, sessions: sessions, bus: bus, cfg: cfg}
}

func (s *sessionService) SignIn(ctx context.Context, req *domain.SignInRequest) (*domain.SignInResponse, error) {
	userID, email, err := auth.ParseProvider(req.AccessToken, s.cfg.ProviderJWTSecret, s.cfg.ProviderAudience)
	if err != nil {
		logger.DebugContext(ctx, "Provider token rejected", "error", err)
		return nil, ErrInvalidCredential
	}
	uid := userID.String()

	role, err := s.profiles.Role(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("load role: %w", err)
	}
	profile, err := s.profiles.Ensure(ctx, uid, email)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nil, ErrProfileMissing
	}

	sess, err := s.sessions.Create(ctx, uid, email, role, profile.SessionProfile())
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	token, err := auth.NewAccessToken(uid, email, role, sess.ID(), s.cfg.JWTSecret, s.cfg.SessionTTL)
	if err != nil {
		_ = s.sessions.Delete(ctx, sess.ID())
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.publish(ctx, events.SessionSignedIn, sess)
	logger.InfoContext(ctx, "User signed in", "user_id", uid, "role", role)

	return &domain.SignInResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.cfg.SessionTTL.Seconds()),
		Session:     domain.NewSessionState(sess),
	}, nil
}

func (s *sessionService) Current(_ context.Context, sess *session.Session) *domain.SessionState {
	return domain.NewSessionState(sess)
}

func (s *sessionService) UpdateProfile(ctx context.Context, sess *session.Session, req *domain.UpdateProfileRequest) (*domain.SessionState, error) {
	profile, err := s.profiles.Update(ctx, sess.UserID(), req)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if profile == nil {
		return nil, ErrProfileMissing
	}

	updated, err := s.sessions.UpdateProfile(ctx, sess.ID(), profile.SessionProfile())
	if errors.Is(err, session.ErrNotFound) {
		return nil, ErrSessionEnded
	}
	if err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	return domain.NewSessionState(updated), nil
}

func (s *sessionService) SignOut(ctx context.Context, sess *session.Session) error {
	if err := s.sessions.Delete(ctx, sess.ID()); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.publish(ctx, events.SessionSignedOut, sess)
	logger.InfoContext(ctx, "User signed out", "user_id", sess.UserID())
	return nil
}

func (s *sessionService) publish(ctx context.Context, subject string, sess *session.Session) {
	if s.bus == nil {
		return
	}
	evt := events.SessionEvent{UserID: sess.UserID(), Role: string(sess.Role()), At: time.Now().UTC()}
	if err := s.bus.Publish(ctx, subject, evt); err != nil {
		logger.WarnContext(ctx, "Failed to publish session event", "subject", subject, "error", err)
	}
}
