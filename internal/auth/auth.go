// Package auth provides account management backed by Supabase and
// short-lived service tokens for API access. Supabase owns passwords and
// email confirmation; this service issues its own HS256 tokens on top so
// API handlers never see Supabase session tokens.
package auth

import (
	"context"
	"fmt"

	"github.com/adspilot/metads-assistant/internal/config"
	"github.com/adspilot/metads-assistant/internal/pkg/logger"
)

// User is the application view of an account.
type User struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	FullName        string `json:"full_name,omitempty"`
	Role            string `json:"role"`
	IsActive        bool   `json:"is_active"`
	CreatedAt       string `json:"created_at,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"`
	MetaAccessToken string `json:"-"`
	MetaUserID      string `json:"meta_user_id,omitempty"`
}

// Token is the login response: a bearer token plus the user it belongs to.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	User        User   `json:"user"`
}

// Service handles registration, login, and token verification.
type Service struct {
	supabase *SupabaseClient
	config   config.AuthConfig
}

// NewService creates an auth service over the given Supabase client.
func NewService(supabase *SupabaseClient, cfg config.AuthConfig) *Service {
	return &Service{supabase: supabase, config: cfg}
}

// Register creates a new account. The account stays inactive until the
// user confirms their email address.
func (s *Service) Register(ctx context.Context, email, password, fullName string) (*User, error) {
	su, err := s.supabase.SignUp(ctx, email, password, fullName)
	if err != nil {
		return nil, err
	}
	user := userFromSupabase(su)
	logger.Info("user registered", "user_id", user.ID, "email", user.Email)
	return &user, nil
}

// Login authenticates with email and password and issues a service token.
func (s *Service) Login(ctx context.Context, email, password string) (*Token, error) {
	su, err := s.supabase.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("incorrect email or password")
	}

	user := userFromSupabase(su)
	if !user.IsActive {
		return nil, fmt.Errorf("user account is not active")
	}

	logger.Info("user logged in", "user_id", user.ID)
	return s.tokenFor(user)
}

// Refresh issues a fresh service token for an already-authenticated user.
func (s *Service) Refresh(user User) (*Token, error) {
	return s.tokenFor(user)
}

// UserByID loads a user via the Supabase admin API.
func (s *Service) UserByID(ctx context.Context, userID string) (*User, error) {
	su, err := s.supabase.AdminGetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user := userFromSupabase(su)
	return &user, nil
}

// StoreMetaCredentials attaches a Meta access token and user id to the
// account metadata. Called from the OAuth callback once Meta grants access.
func (s *Service) StoreMetaCredentials(ctx context.Context, userID, accessToken, metaUserID string) error {
	_, err := s.supabase.AdminUpdateUserMetadata(ctx, userID, map[string]any{
		"meta_access_token": accessToken,
		"meta_user_id":      metaUserID,
	})
	if err != nil {
		return err
	}
	logger.Info("meta credentials stored", "user_id", userID, "meta_user_id", metaUserID)
	return nil
}

func (s *Service) tokenFor(user User) (*Token, error) {
	signed, err := s.IssueToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &Token{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int(s.config.TokenExpiry().Seconds()),
		User:        user,
	}, nil
}

func userFromSupabase(su *SupabaseUser) User {
	return User{
		ID:              su.ID,
		Email:           su.Email,
		FullName:        su.MetadataString("full_name", ""),
		Role:            su.MetadataString("role", "user"),
		IsActive:        su.EmailConfirmedAt != "",
		CreatedAt:       su.CreatedAt,
		UpdatedAt:       su.UpdatedAt,
		MetaAccessToken: su.MetadataString("meta_access_token", ""),
		MetaUserID:      su.MetadataString("meta_user_id", ""),
	}
}
