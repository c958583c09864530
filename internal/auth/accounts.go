package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/satportal/internal/account"
	authmw "github.com/mind-engage/satportal/internal/auth/middleware"
)

var (
	ErrBadCredentials = errors.New("incorrect email or password")
	ErrRoleNotAllowed = errors.New("role cannot be self-registered")
)

// Accounts handles registration and password login on top of an account
// store, issuing tokens through the AuthService.
type Accounts struct {
	users  account.Store
	tokens *authmw.AuthService
	cost   int
}

func NewAccounts(users account.Store, tokens *authmw.AuthService) *Accounts {
	return &Accounts{users: users, tokens: tokens, cost: bcrypt.DefaultCost}
}

type Registration struct {
	Name      string       `json:"name" validate:"required,max=200"`
	Email     string       `json:"email" validate:"required,email"`
	Password  string       `json:"password" validate:"required,min=6,max=72"`
	Role      account.Role `json:"role"`
	TeacherID string       `json:"teacher_id"`
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Register creates the user and logs them in.
func (a *Accounts) Register(ctx context.Context, in Registration) (Token, error) {
	if in.Role == "" {
		in.Role = account.RoleStudent
	}
	if !in.Role.Valid() || in.Role == account.RoleAdmin {
		return Token{}, fmt.Errorf("%q: %w", in.Role, ErrRoleNotAllowed)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), a.cost)
	if err != nil {
		return Token{}, fmt.Errorf("hash password: %w", err)
	}
	u := account.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
		IsActive:     true,
		TeacherID:    in.TeacherID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.users.Create(ctx, u); err != nil {
		return Token{}, err
	}
	return a.issue(u)
}

// Login checks a password. Unknown email and wrong password look the same.
func (a *Accounts) Login(ctx context.Context, email, password string) (Token, error) {
	u, err := a.users.GetByEmail(ctx, email)
	if errors.Is(err, account.ErrNotFound) {
		return Token{}, ErrBadCredentials
	}
	if err != nil {
		return Token{}, err
	}
	if !u.IsActive || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return Token{}, ErrBadCredentials
	}
	return a.issue(u)
}

func (a *Accounts) Me(ctx context.Context, id string) (account.User, error) {
	return a.users.GetByID(ctx, id)
}

func (a *Accounts) Students(ctx context.Context, teacherID string) ([]account.User, error) {
	return a.users.ListByTeacher(ctx, teacherID)
}

// EnsureAdmin creates the bootstrap admin when it does not exist yet.
func (a *Accounts) EnsureAdmin(ctx context.Context, email, passHash string) error {
	if email == "" || passHash == "" {
		return nil
	}
	_, err := a.users.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, account.ErrNotFound) {
		return err
	}
	err = a.users.Create(ctx, account.User{
		ID:           uuid.NewString(),
		Name:         "Administrator",
		Email:        email,
		PasswordHash: passHash,
		Role:         account.RoleAdmin,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	})
	if errors.Is(err, account.ErrEmailTaken) {
		return nil
	}
	if err == nil {
		log.Printf("[AUTH] bootstrap admin %s created", email)
	}
	return err
}

func (a *Accounts) issue(u account.User) (Token, error) {
	tok, err := a.tokens.IssueJWT(u.ID, string(u.Role))
	if err != nil {
		return Token{}, fmt.Errorf("issue token: %w", err)
	}
	return Token{AccessToken: tok, TokenType: "bearer"}, nil
}
