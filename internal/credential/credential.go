// Package credential resolves username/password pairs into user profiles.
package credential

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/allevo/cloud-store/internal/model"
)

// ErrNotFound is returned when no account matches the given credentials.
var ErrNotFound = errors.New("credentials not found")

// Lookup finds the profile matching a username and password.
type Lookup interface {
	FindCredentials(ctx context.Context, username, password string) (*model.UserProfile, error)
}

// Account is a plaintext account used by the static lookup.
type Account struct {
	ID       string
	Username string
	Password string
	Name     string
	Surname  string
	Groups   []string
}

// DefaultAccounts are the built-in development accounts.
var DefaultAccounts = []Account{
	{ID: "1", Username: "allevo", Password: "pwd", Name: "Tommaso", Surname: "Allevi", Groups: []string{model.GroupAdmin}},
	{ID: "2", Username: "foobar", Password: "pwd", Name: "Foo", Surname: "Bar", Groups: []string{model.GroupReader}},
}

// Static is an in-process Lookup over a fixed account list.
type Static struct {
	accounts map[string]Account
}

// NewStatic creates a Static lookup. Later duplicates of a username win.
func NewStatic(accounts []Account) *Static {
	m := make(map[string]Account, len(accounts))
	for _, a := range accounts {
		m[a.Username] = a
	}
	return &Static{accounts: m}
}

// FindCredentials implements Lookup.
func (s *Static) FindCredentials(_ context.Context, username, password string) (*model.UserProfile, error) {
	account, ok := s.accounts[username]
	if !ok {
		return nil, ErrNotFound
	}
	if subtle.ConstantTimeCompare([]byte(account.Password), []byte(password)) != 1 {
		return nil, ErrNotFound
	}

	return &model.UserProfile{
		ID:       account.ID,
		Username: account.Username,
		Name:     account.Name,
		Surname:  account.Surname,
		Groups:   append([]string(nil), account.Groups...),
	}, nil
}
