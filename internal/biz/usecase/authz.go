package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/hiji-labs/feedback-relay/internal/biz/repo"
)

// AuthzUsecase evaluates privileged-command access as one ordered predicate
// chain over {owner, anonymous-admin, manually-authorized, platform-role}.
type AuthzUsecase struct {
	ownerID int64
	groups  repo.GroupRepo
	gateway repo.MessageGateway
	log     zerolog.Logger
}

// NewAuthzUsecase creates a new authorization usecase.
func NewAuthzUsecase(ownerID int64, groups repo.GroupRepo, gateway repo.MessageGateway, log zerolog.Logger) *AuthzUsecase {
	return &AuthzUsecase{ownerID: ownerID, groups: groups, gateway: gateway, log: log}
}

// IsOwner reports whether the user is the configured bot owner.
func (uc *AuthzUsecase) IsOwner(userID int64) bool {
	return uc.ownerID != 0 && userID == uc.ownerID
}

// isAnonymousAdmin reports whether the event came from a group admin posting
// as the group itself. The platform hides the real identity, so admin status
// is implied.
func (uc *AuthzUsecase) isAnonymousAdmin(anonymous bool) bool {
	return anonymous
}

// isManuallyAuthorized reports whether the owner granted the user privileged
// commands explicitly.
func (uc *AuthzUsecase) isManuallyAuthorized(ctx context.Context, userID int64) bool {
	ok, err := uc.groups.IsUserAuthorized(ctx, userID)
	if err != nil {
		uc.log.Warn().Err(err).Int64("user", userID).Msg("manual authorization lookup failed")
		return false
	}
	return ok
}

// hasPlatformRole reports whether the platform marks the user as an admin or
// owner of the chat.
func (uc *AuthzUsecase) hasPlatformRole(ctx context.Context, chatID, userID int64) bool {
	role, err := uc.gateway.MemberRole(ctx, chatID, userID)
	if err != nil {
		uc.log.Warn().Err(err).Int64("chat", chatID).Int64("user", userID).Msg("member role lookup failed")
		return false
	}
	return role.Privileged()
}

// CanModerate reports whether the user may run privileged commands in the
// chat. Branches are evaluated in order; the cheapest checks come first.
func (uc *AuthzUsecase) CanModerate(ctx context.Context, chatID, userID int64, anonymous bool) bool {
	if uc.IsOwner(userID) {
		return true
	}
	if uc.isAnonymousAdmin(anonymous) {
		return true
	}
	if uc.isManuallyAuthorized(ctx, userID) {
		return true
	}
	return uc.hasPlatformRole(ctx, chatID, userID)
}
