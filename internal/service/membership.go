package service

import (
	"context"
	"fmt"

	"chama-backend/internal/approval"
	"chama-backend/internal/domain"
	"chama-backend/internal/repository"
	"chama-backend/internal/roles"
)

// membership is the acting user's standing in a group.
type membership struct {
	group  *domain.Group
	member *domain.Member
	caps   roles.Capabilities
}

func (m *membership) actor() approval.Actor {
	return approval.Actor{UserID: m.member.UserID, Role: m.caps.Role}
}

func loadMembership(ctx context.Context, groups repository.GroupRepository, groupID, userID int32) (*membership, error) {
	if userID == 0 {
		return nil, fmt.Errorf("%w: no acting user", domain.ErrNotAuthorized)
	}
	group, err := groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	member, err := groups.GetMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	return &membership{
		group:  group,
		member: member,
		caps:   roles.Classify(member.RoleName, userID, group.CreatedByID),
	}, nil
}
