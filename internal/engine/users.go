package engine

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"wsdeck/internal/domain"
	"wsdeck/internal/engine/auth"
	"wsdeck/internal/events"
	"wsdeck/internal/repo"
	wsdecksdk "wsdeck/sdk/go"
)

var nameRE = regexp.MustCompile(`^[a-zA-Z0-9]+(?:-[a-zA-Z0-9]+)*$`)

// ErrAlreadyInitialized is returned once a first user exists.
var ErrAlreadyInitialized = fmt.Errorf("the initial user has already been created: %w", repo.ErrConflict)

// ErrBadCredentials covers unknown emails and wrong passwords alike.
var ErrBadCredentials = errors.New("incorrect email or password")

func validName(field, name string) error {
	if len(name) > 32 {
		return invalid(field, "must be 32 characters or fewer")
	}
	if !nameRE.MatchString(name) {
		return invalid(field, "must be alphanumeric with hyphens")
	}
	return nil
}

func validEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return invalid("email", "must be a valid email address")
	}
	return nil
}

func validPassword(password string) error {
	if len(password) < 6 {
		return invalid("password", "must be at least 6 characters")
	}
	if len(password) > 72 {
		return invalid("password", "must be 72 bytes or fewer")
	}
	return nil
}

// CreateFirstUser bootstraps the deployment: an owner account and the default
// organization it belongs to. A trial request also issues a trial license.
func (e Engine) CreateFirstUser(ctx context.Context, req wsdecksdk.CreateFirstUserRequest) (wsdecksdk.CreateFirstUserResponse, error) {
	if err := validName("username", req.Username); err != nil {
		return wsdecksdk.CreateFirstUserResponse{}, err
	}
	if err := validEmail(req.Email); err != nil {
		return wsdecksdk.CreateFirstUserResponse{}, err
	}
	if err := validPassword(req.Password); err != nil {
		return wsdecksdk.CreateFirstUserResponse{}, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return wsdecksdk.CreateFirstUserResponse{}, fmt.Errorf("hash password: %w", err)
	}
	now := e.now()
	org := wsdecksdk.Organization{ID: uuid.New(), Name: req.Username, CreatedAt: now, UpdatedAt: now}
	user := wsdecksdk.User{
		ID:              uuid.New(),
		Username:        req.Username,
		Email:           req.Email,
		CreatedAt:       now,
		LastSeenAt:      now,
		Status:          wsdecksdk.UserStatusActive,
		OrganizationIDs: []uuid.UUID{org.ID},
		Roles:           []wsdecksdk.Role{auth.RoleFor(wsdecksdk.RoleOwner), auth.RoleFor(wsdecksdk.RoleMember)},
	}
	err = e.Repo.InTx(ctx, func(tx *sql.Tx) error {
		n, err := e.Repo.CountUsers(ctx, tx)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrAlreadyInitialized
		}
		if err := e.Repo.InsertOrganization(ctx, tx, org); err != nil {
			return fmt.Errorf("insert organization: %w", err)
		}
		if err := e.Repo.InsertUser(ctx, tx, domain.UserCredentials{User: user, HashedPassword: hashed}); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		member := wsdecksdk.OrganizationMember{
			UserID:         user.ID,
			OrganizationID: org.ID,
			CreatedAt:      now,
			UpdatedAt:      now,
			Roles:          []wsdecksdk.Role{{Name: "organization-admin:" + org.ID.String(), DisplayName: "Organization Admin"}},
		}
		if err := e.Repo.InsertOrganizationMember(ctx, tx, member); err != nil {
			return fmt.Errorf("insert organization member: %w", err)
		}
		if req.Trial {
			rec, err := trialLicense(now, org.ID.String())
			if err != nil {
				return err
			}
			if _, err := e.Repo.InsertLicense(ctx, tx, rec); err != nil {
				return fmt.Errorf("insert trial license: %w", err)
			}
		}
		return e.audit(ctx, tx, &user, events.Entry{
			OrganizationID: org.ID,
			ResourceType:   wsdecksdk.ResourceTypeUser,
			ResourceID:     user.ID,
			ResourceTarget: user.Username,
			Action:         wsdecksdk.AuditActionCreate,
			StatusCode:     201,
			Fields:         map[string]string{"trial": fmt.Sprint(req.Trial)},
		})
	})
	if err != nil {
		return wsdecksdk.CreateFirstUserResponse{}, err
	}
	return wsdecksdk.CreateFirstUserResponse{UserID: user.ID, OrganizationID: org.ID}, nil
}

// LoginWithPassword exchanges credentials for a session token.
func (e Engine) LoginWithPassword(ctx context.Context, req wsdecksdk.LoginWithPasswordRequest) (wsdecksdk.LoginWithPasswordResponse, error) {
	creds, err := e.Repo.GetUserCredentials(ctx, req.Email)
	if errors.Is(err, repo.ErrNotFound) {
		return wsdecksdk.LoginWithPasswordResponse{}, ErrBadCredentials
	}
	if err != nil {
		return wsdecksdk.LoginWithPasswordResponse{}, err
	}
	if bcrypt.CompareHashAndPassword(creds.HashedPassword, []byte(req.Password)) != nil {
		return wsdecksdk.LoginWithPasswordResponse{}, ErrBadCredentials
	}
	if creds.User.Status != wsdecksdk.UserStatusActive {
		return wsdecksdk.LoginWithPasswordResponse{}, auth.ForbiddenError{Permission: "login"}
	}
	token, _, err := e.CreateSession(ctx, creds.User, wsdecksdk.LoginTypePassword)
	if err != nil {
		return wsdecksdk.LoginWithPasswordResponse{}, err
	}
	return wsdecksdk.LoginWithPasswordResponse{SessionToken: token}, nil
}

// CreateSession mints a session token "<id>-<secret>" for u. Only its hash is
// stored.
func (e Engine) CreateSession(ctx context.Context, u wsdecksdk.User, loginType wsdecksdk.LoginType) (string, domain.APIKey, error) {
	id, err := randomString(10)
	if err != nil {
		return "", domain.APIKey{}, err
	}
	secret, err := randomString(22)
	if err != nil {
		return "", domain.APIKey{}, err
	}
	token := id + "-" + secret
	now := e.now()
	lifetime := e.Config.Server.SessionDuration
	key := domain.APIKey{
		APIKey: wsdecksdk.APIKey{
			ID:              id,
			UserID:          u.ID,
			LastUsed:        now,
			ExpiresAt:       now.Add(lifetime),
			CreatedAt:       now,
			UpdatedAt:       now,
			LoginType:       loginType,
			Scope:           wsdecksdk.APIKeyScopeAll,
			LifetimeSeconds: int64(lifetime.Seconds()),
		},
		KeyHash: repo.HashAPIKey(token),
	}
	err = e.Repo.InTx(ctx, func(tx *sql.Tx) error {
		if err := e.Repo.InsertAPIKey(ctx, tx, key); err != nil {
			return err
		}
		return e.audit(ctx, tx, &u, events.Entry{
			ResourceType:   wsdecksdk.ResourceTypeAPIKey,
			ResourceID:     u.ID,
			ResourceTarget: id,
			Action:         wsdecksdk.AuditActionCreate,
			StatusCode:     201,
		})
	})
	if err != nil {
		return "", domain.APIKey{}, err
	}
	return token, key, nil
}

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomString(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(buf), nil
}

// Authenticate resolves a session token to its active user.
func (e Engine) Authenticate(ctx context.Context, token string) (wsdecksdk.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return wsdecksdk.User{}, ErrUnauthorized
	}
	key, err := e.Repo.GetAPIKeyByHash(ctx, repo.HashAPIKey(token))
	if errors.Is(err, repo.ErrNotFound) {
		return wsdecksdk.User{}, ErrUnauthorized
	}
	if err != nil {
		return wsdecksdk.User{}, err
	}
	now := e.now()
	if key.Expired(now) {
		return wsdecksdk.User{}, fmt.Errorf("session expired: %w", ErrUnauthorized)
	}
	if err := e.Repo.TouchAPIKey(ctx, key, now); err != nil {
		return wsdecksdk.User{}, err
	}
	return e.AuthenticateUserID(ctx, key.UserID)
}

// AuthenticateUserID resolves an already verified identity, such as a JWT
// subject.
func (e Engine) AuthenticateUserID(ctx context.Context, id uuid.UUID) (wsdecksdk.User, error) {
	u, err := e.Repo.GetUser(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return wsdecksdk.User{}, ErrUnauthorized
	}
	if err != nil {
		return wsdecksdk.User{}, err
	}
	if u.Status != wsdecksdk.UserStatusActive {
		return wsdecksdk.User{}, fmt.Errorf("user %s is %s: %w", u.Username, u.Status, ErrUnauthorized)
	}
	return u, nil
}

// resolveUser accepts "me", a user ID or a username.
func (e Engine) resolveUser(ctx context.Context, actor wsdecksdk.User, ref string) (wsdecksdk.User, error) {
	if ref == wsdecksdk.Me || ref == "" {
		return actor, nil
	}
	var (
		u   wsdecksdk.User
		err error
	)
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		u, err = e.Repo.GetUser(ctx, id)
	} else {
		u, err = e.Repo.GetUserByUsername(ctx, ref)
	}
	if errors.Is(err, repo.ErrNotFound) {
		return u, notFound("user", ref)
	}
	return u, err
}

// User returns the referenced user. Anyone may read themselves.
func (e Engine) User(ctx context.Context, actor wsdecksdk.User, ref string) (wsdecksdk.User, error) {
	u, err := e.resolveUser(ctx, actor, ref)
	if err != nil {
		return u, err
	}
	if err := auth.RequireOwnerOr(actor, u.ID, auth.PermUsersRead); err != nil {
		return wsdecksdk.User{}, err
	}
	return u, nil
}

// Users lists users matching a search query such as "status:active alice".
func (e Engine) Users(ctx context.Context, actor wsdecksdk.User, q string, p wsdecksdk.Pagination) (wsdecksdk.GetUsersResponse, error) {
	if err := auth.Require(actor, auth.PermUsersRead); err != nil {
		return wsdecksdk.GetUsersResponse{}, err
	}
	filter, err := ParseUserQuery(q)
	if err != nil {
		return wsdecksdk.GetUsersResponse{}, err
	}
	users, err := e.Repo.ListUsers(ctx, filter, domain.PageFrom(p))
	if err != nil {
		return wsdecksdk.GetUsersResponse{}, err
	}
	count, err := e.Repo.CountFilteredUsers(ctx, filter)
	if err != nil {
		return wsdecksdk.GetUsersResponse{}, err
	}
	return wsdecksdk.GetUsersResponse{Users: users, Count: int(count)}, nil
}

func (e Engine) Organization(ctx context.Context, actor wsdecksdk.User, id uuid.UUID) (wsdecksdk.Organization, error) {
	if err := e.requireMember(ctx, actor, id); err != nil {
		return wsdecksdk.Organization{}, err
	}
	org, err := e.Repo.GetOrganization(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return org, notFound("organization", id)
	}
	return org, err
}

// requireMember passes for members of org and for site owners.
func (e Engine) requireMember(ctx context.Context, actor wsdecksdk.User, orgID uuid.UUID) error {
	if actor.HasRole(wsdecksdk.RoleOwner) {
		return nil
	}
	_, err := e.Repo.GetOrganizationMember(ctx, orgID, actor.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return notFound("organization", orgID)
	}
	return err
}
