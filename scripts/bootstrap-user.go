package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/allevo/cloud-store/internal/auth"
	"github.com/allevo/cloud-store/internal/model"
	"github.com/allevo/cloud-store/internal/repository"
)

type output struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Groups   []string `json:"groups"`
	Action   string   `json:"action"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		username    = flag.String("username", "", "Login name")
		password    = flag.String("password", os.Getenv("BOOTSTRAP_PASSWORD"), "Plain password (defaults to $BOOTSTRAP_PASSWORD)")
		name        = flag.String("name", "", "Given name")
		surname     = flag.String("surname", "", "Family name")
		groupsInput = flag.String("groups", model.GroupReader, "Comma-separated groups (admin,reader)")
		update      = flag.Bool("update", false, "Update the credential if the username exists")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fail("DATABASE_URL is required")
	}
	if *username == "" || *password == "" {
		fail("username and password are required")
	}

	groups, err := parseGroups(*groupsInput)
	if err != nil {
		fail(err.Error())
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		fail("hash password: " + err.Error())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fail("connect database: " + err.Error())
	}
	defer repo.Close()

	cred := &model.Credential{
		ID:           ulid.Make().String(),
		Username:     *username,
		PasswordHash: hash,
		Name:         *name,
		Surname:      *surname,
		Groups:       groups,
	}

	action := "created"
	err = repo.CreateCredential(ctx, cred)
	if errors.Is(err, repository.ErrUsernameExists) && *update {
		action = "updated"
		err = repo.UpdateCredential(ctx, cred)
		if err == nil {
			var existing *model.Credential
			existing, err = repo.GetCredentialByUsername(ctx, *username)
			if err == nil {
				cred.ID = existing.ID
			}
		}
	}
	if err != nil {
		fail("save credential: " + err.Error())
	}

	out := output{ID: cred.ID, Username: cred.Username, Groups: cred.Groups, Action: action}
	switch strings.ToLower(*format) {
	case "plain":
		fmt.Printf("%s %s (%s)\n", action, out.Username, strings.Join(out.Groups, ","))
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fail("invalid format; use plain or json")
	}
}

func parseGroups(input string) ([]string, error) {
	parts := strings.Split(input, ",")
	groups := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, part := range parts {
		group := strings.TrimSpace(part)
		if group == "" || seen[group] {
			continue
		}
		switch group {
		case model.GroupAdmin, model.GroupReader:
		default:
			return nil, fmt.Errorf("invalid group: %s", group)
		}
		seen[group] = true
		groups = append(groups, group)
	}
	if len(groups) == 0 {
		return nil, errors.New("at least one group is required")
	}
	return groups, nil
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
