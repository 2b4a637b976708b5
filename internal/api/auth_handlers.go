package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readingnook/readingnook-server/internal/color"
	"github.com/readingnook/readingnook-server/internal/domain"
	"github.com/readingnook/readingnook-server/internal/errors"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Sign in",
		Description: "Signs in as username, reusing the identity registered for it. Passwords are not verified.",
		Tags:        []string{"Auth"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID:   "signup",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/signup",
		Summary:       "Sign up",
		Description:   "Creates a new identity for username and signs in as it",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusCreated,
	}, s.handleSignup)

	huma.Register(s.api, huma.Operation{
		OperationID:   "logout",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/logout",
		Summary:       "Sign out",
		Description:   "Ends the active session. Succeeds when nobody is signed in.",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/me",
		Summary:     "Current user",
		Description: "Returns the signed-in user",
		Tags:        []string{"Auth"},
	}, s.handleGetCurrentUser)
}

// === DTOs ===

// LoginRequest is the request body for signing in. Empty fields are rejected
// as invalid credentials rather than by schema.
type LoginRequest struct {
	Username string `json:"username,omitempty" doc:"Username"`
	Password string `json:"password,omitempty" doc:"Password"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body LoginRequest
}

// SignupRequest is the request body for creating an identity.
type SignupRequest struct {
	Username string `json:"username,omitempty" doc:"Username"`
	Email    string `json:"email,omitempty" doc:"Email address"`
	Password string `json:"password,omitempty" doc:"Password"`
}

// SignupInput wraps the signup request for Huma.
type SignupInput struct {
	Body SignupRequest
}

// UserResponse contains user data in API responses.
type UserResponse struct {
	ID          string    `json:"id" doc:"User ID"`
	Username    string    `json:"username" doc:"Username"`
	Email       string    `json:"email" doc:"Email address"`
	CreatedAt   time.Time `json:"createdAt" doc:"When the identity was created"`
	AvatarColor string    `json:"avatarColor" doc:"Deterministic avatar color"`
}

// UserOutput wraps the user response for Huma.
type UserOutput struct {
	Body UserResponse
}

func newUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		CreatedAt:   u.CreatedAt,
		AvatarColor: color.ForUser(u.ID),
	}
}

// === Handlers ===

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*UserOutput, error) {
	u, err := s.state.Session.Login(ctx, input.Body.Username, input.Body.Password)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: newUserResponse(u)}, nil
}

func (s *Server) handleSignup(ctx context.Context, input *SignupInput) (*UserOutput, error) {
	u, err := s.state.Session.Signup(ctx, input.Body.Username, input.Body.Email, input.Body.Password)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: newUserResponse(u)}, nil
}

func (s *Server) handleLogout(ctx context.Context, _ *struct{}) (*struct{}, error) {
	if err := s.state.Session.Logout(ctx); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

func (s *Server) handleGetCurrentUser(_ context.Context, _ *struct{}) (*UserOutput, error) {
	u := s.state.Session.Current()
	if u == nil {
		return nil, errors.Unauthorized("not signed in")
	}
	return &UserOutput{Body: newUserResponse(u)}, nil
}
