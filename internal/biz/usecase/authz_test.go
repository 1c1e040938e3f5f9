package usecase

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hiji-labs/feedback-relay/internal/biz/domain"
)

const testOwnerID = int64(1000)

func newTestAuthz(role domain.Role) (*AuthzUsecase, *mockGroups) {
	groups := newMockGroups()
	gateway := &mockGateway{role: role}
	return NewAuthzUsecase(testOwnerID, groups, gateway, zerolog.Nop()), groups
}

func TestAuthz_OwnerAlwaysAllowed(t *testing.T) {
	uc, _ := newTestAuthz(domain.RoleMember)
	if !uc.CanModerate(context.Background(), -1001, testOwnerID, false) {
		t.Error("expected owner to be allowed")
	}
}

func TestAuthz_AnonymousAdminAllowed(t *testing.T) {
	uc, _ := newTestAuthz(domain.RoleMember)
	if !uc.CanModerate(context.Background(), -1001, 5, true) {
		t.Error("expected anonymous admin to be allowed")
	}
}

func TestAuthz_ManuallyAuthorizedAllowed(t *testing.T) {
	uc, groups := newTestAuthz(domain.RoleMember)
	if err := groups.AuthorizeUser(context.Background(), 5); err != nil {
		t.Fatalf("authorize user: %v", err)
	}
	if !uc.CanModerate(context.Background(), -1001, 5, false) {
		t.Error("expected manually authorized user to be allowed")
	}
}

func TestAuthz_PlatformAdminAllowed(t *testing.T) {
	uc, _ := newTestAuthz(domain.RoleAdmin)
	if !uc.CanModerate(context.Background(), -1001, 5, false) {
		t.Error("expected platform admin to be allowed")
	}
}

func TestAuthz_PlainMemberDenied(t *testing.T) {
	uc, _ := newTestAuthz(domain.RoleMember)
	if uc.CanModerate(context.Background(), -1001, 5, false) {
		t.Error("expected plain member to be denied")
	}
}

func TestAuthz_IsOwner_ZeroOwnerNeverMatches(t *testing.T) {
	uc := NewAuthzUsecase(0, newMockGroups(), &mockGateway{}, zerolog.Nop())
	if uc.IsOwner(0) {
		t.Error("expected unset owner id to match nobody")
	}
}
