package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"gym-console/api"
	"gym-console/gym"
	"gym-console/session"
)

var (
	// ErrInvalidCredentials is returned before any request when phone or
	// password is blank.
	ErrInvalidCredentials = errors.New("phone and password are required")

	// ErrNoIdentity means the token does not say which user it belongs to.
	ErrNoIdentity = errors.New("token carries no user id")
)

// LoginResult is the data of a successful POST /login.
type LoginResult struct {
	Token string   `json:"token"`
	User  gym.User `json:"user"`
}

// Auth logs in and out and keeps the session in step.
type Auth struct {
	client  *api.Client
	users   *UserService
	session *session.Session
	log     zerolog.Logger
}

// NewAuth returns the auth service.
func NewAuth(client *api.Client, users *UserService, s *session.Session, log zerolog.Logger) *Auth {
	return &Auth{client: client, users: users, session: s, log: log}
}

// Login exchanges credentials for a token and stores both token and user.
func (a *Auth) Login(ctx context.Context, phone, password string) (gym.User, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || password == "" {
		return gym.User{}, ErrInvalidCredentials
	}
	var res LoginResult
	body := map[string]string{"phone": phone, "password": password}
	if err := a.client.Post(ctx, "/login", body, &res); err != nil {
		a.log.Info().Str("event", "login_failed").Str("phone", phone).Err(err).Msg("auth_event")
		return gym.User{}, fmt.Errorf("login: %w", err)
	}
	if err := a.session.SetAuth(res.Token, res.User); err != nil {
		return gym.User{}, err
	}
	a.log.Info().Str("event", "login_success").Int64("user_id", res.User.ID).Msg("auth_event")
	return res.User, nil
}

// Register creates an account. It does not log in.
func (a *Auth) Register(ctx context.Context, in gym.RegisterInput) (gym.User, error) {
	if err := Validate(in); err != nil {
		return gym.User{}, err
	}
	var u gym.User
	if err := a.client.Post(ctx, "/register", in, &u); err != nil {
		return gym.User{}, fmt.Errorf("register: %w", err)
	}
	return u, nil
}

// Logout forgets the session.
func (a *Auth) Logout() error {
	if err := a.session.ClearAuth(); err != nil {
		return err
	}
	a.log.Info().Str("event", "logout").Msg("auth_event")
	return nil
}

// Restore re-establishes the user profile after a restart, reading the
// user id from the token and fetching that user.
func (a *Auth) Restore(ctx context.Context) (gym.User, error) {
	if u, ok := a.session.User(); ok {
		return u, nil
	}
	if !a.session.Authenticated() {
		return gym.User{}, api.ErrUnauthorized
	}
	claims, ok := a.session.Claims()
	if !ok || claims.UserID == 0 {
		return gym.User{}, ErrNoIdentity
	}
	u, err := a.users.Get(ctx, claims.UserID)
	if err != nil {
		return gym.User{}, fmt.Errorf("restore identity: %w", err)
	}
	a.session.SetUser(u)
	return u, nil
}
