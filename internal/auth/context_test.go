package auth

import (
	"context"
	"testing"

	"github.com/allevo/cloud-store/internal/model"
)

func TestIdentityContext(t *testing.T) {
	t.Parallel()

	if IdentityFromContext(context.Background()) != nil {
		t.Error("empty context should carry no identity")
	}
	if SubjectFromContext(context.Background()) != "" {
		t.Error("empty context should have empty subject")
	}

	identity := &model.Identity{SubjectID: "allevo", Groups: []string{model.GroupAdmin}}
	ctx := ContextWithIdentity(context.Background(), identity)

	if got := IdentityFromContext(ctx); got != identity {
		t.Errorf("IdentityFromContext() = %v, want %v", got, identity)
	}
	if got := SubjectFromContext(ctx); got != "allevo" {
		t.Errorf("SubjectFromContext() = %q, want allevo", got)
	}
}
