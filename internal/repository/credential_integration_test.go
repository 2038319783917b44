//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/allevo/cloud-store/internal/auth"
	"github.com/allevo/cloud-store/internal/credential"
	"github.com/allevo/cloud-store/internal/model"
	"github.com/allevo/cloud-store/internal/testutil"
)

func TestIntegrationCredentialRepository_CreateAndGet(t *testing.T) {
	ctx, repo := newCredentialTestEnv(t)

	cred := testutil.NewTestCredential(t, "allevo", mustHash(t, "pwd"))
	cred.Groups = []string{model.GroupAdmin, model.GroupReader}

	if err := repo.CreateCredential(ctx, cred); err != nil {
		t.Fatalf("CreateCredential failed: %v", err)
	}

	got, err := repo.GetCredentialByUsername(ctx, "allevo")
	if err != nil {
		t.Fatalf("GetCredentialByUsername failed: %v", err)
	}
	if got.ID != cred.ID {
		t.Errorf("ID mismatch: got %q, want %q", got.ID, cred.ID)
	}
	if len(got.Groups) != 2 || got.Groups[0] != model.GroupAdmin {
		t.Errorf("Groups mismatch: got %v", got.Groups)
	}
}

func TestIntegrationCredentialRepository_DuplicateUsername(t *testing.T) {
	ctx, repo := newCredentialTestEnv(t)

	first := testutil.NewTestCredential(t, "dup", mustHash(t, "pwd"))
	second := testutil.NewTestCredential(t, "dup", mustHash(t, "other"))
	second.ID = testutil.UniqueID("cred2")

	if err := repo.CreateCredential(ctx, first); err != nil {
		t.Fatalf("CreateCredential (first) failed: %v", err)
	}
	if err := repo.CreateCredential(ctx, second); !errors.Is(err, ErrUsernameExists) {
		t.Fatalf("expected ErrUsernameExists, got %v", err)
	}
}

func TestIntegrationCredentialRepository_Update(t *testing.T) {
	ctx, repo := newCredentialTestEnv(t)

	cred := testutil.NewTestCredential(t, "foobar", mustHash(t, "pwd"))
	if err := repo.CreateCredential(ctx, cred); err != nil {
		t.Fatalf("CreateCredential failed: %v", err)
	}

	cred.PasswordHash = mustHash(t, "new-password")
	cred.Groups = []string{model.GroupAdmin}
	if err := repo.UpdateCredential(ctx, cred); err != nil {
		t.Fatalf("UpdateCredential failed: %v", err)
	}

	profile, err := repo.FindCredentials(ctx, "foobar", "new-password")
	if err != nil {
		t.Fatalf("FindCredentials failed: %v", err)
	}
	if len(profile.Groups) != 1 || profile.Groups[0] != model.GroupAdmin {
		t.Errorf("Groups mismatch: got %v", profile.Groups)
	}

	missing := testutil.NewTestCredential(t, "nobody", cred.PasswordHash)
	if err := repo.UpdateCredential(ctx, missing); !errors.Is(err, ErrCredentialNotFound) {
		t.Errorf("expected ErrCredentialNotFound, got %v", err)
	}
}

func TestIntegrationCredentialRepository_FindCredentials(t *testing.T) {
	ctx, repo := newCredentialTestEnv(t)

	cred := testutil.NewTestCredential(t, "allevo", mustHash(t, "pwd"))
	cred.Name = "Tommaso"
	cred.Surname = "Allevi"
	if err := repo.CreateCredential(ctx, cred); err != nil {
		t.Fatalf("CreateCredential failed: %v", err)
	}

	profile, err := repo.FindCredentials(ctx, "allevo", "pwd")
	if err != nil {
		t.Fatalf("FindCredentials failed: %v", err)
	}
	if profile.DisplayName() != "Tommaso Allevi" {
		t.Errorf("DisplayName = %q", profile.DisplayName())
	}

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "allevo", "nope"},
		{"unknown user", "ghost", "pwd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.FindCredentials(ctx, tt.username, tt.password)
			if !errors.Is(err, credential.ErrNotFound) {
				t.Errorf("expected credential.ErrNotFound, got %v", err)
			}
		})
	}
}

func TestIntegrationCredentialRepository_FindCredentials_UpgradesWeakHash(t *testing.T) {
	ctx, repo := newCredentialTestEnv(t)

	cred := testutil.NewTestCredential(t, "allevo", mustHash(t, "pwd"))
	if err := repo.CreateCredential(ctx, cred); err != nil {
		t.Fatalf("CreateCredential failed: %v", err)
	}

	if _, err := repo.FindCredentials(ctx, "allevo", "pwd"); err != nil {
		t.Fatalf("FindCredentials failed: %v", err)
	}

	stored, err := repo.GetCredentialByUsername(ctx, "allevo")
	if err != nil {
		t.Fatalf("GetCredentialByUsername failed: %v", err)
	}
	if auth.NeedsRehash(stored.PasswordHash, auth.DefaultPasswordParams) {
		t.Error("weak hash was not upgraded after a successful login")
	}
	if _, err := repo.FindCredentials(ctx, "allevo", "pwd"); err != nil {
		t.Errorf("FindCredentials after upgrade failed: %v", err)
	}
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := auth.HashPasswordWithParams(password, auth.PasswordParams{
		Time:    1,
		Memory:  8 * 1024,
		Threads: 1,
		KeyLen:  32,
		SaltLen: 16,
	})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func newCredentialTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.pool)
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetCredentialsSchema(ctx, repo.pool); err != nil {
		t.Fatalf("reset credentials schema: %v", err)
	}

	return ctx, repo
}
