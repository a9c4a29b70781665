package service

import (
	"context"

	"chama-backend/internal/repository"
	"chama-backend/internal/roles"
)

type userService struct {
	userRepo  repository.UserRepository
	groupRepo repository.GroupRepository
}

func NewUserService(userRepo repository.UserRepository, groupRepo repository.GroupRepository) UserService {
	return &userService{userRepo: userRepo, groupRepo: groupRepo}
}

// GetUserProfile returns the user with every group they belong to and what
// they may do in each.
func (s *userService) GetUserProfile(ctx context.Context, userID int32) (*UserProfile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	groups, err := s.groupRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &UserProfile{User: user, Groups: make([]GroupMembership, 0, len(groups))}
	for _, g := range groups {
		m, err := s.groupRepo.GetMember(ctx, g.ID, userID)
		if err != nil {
			return nil, err
		}
		profile.Groups = append(profile.Groups, GroupMembership{
			Group:        g,
			RoleName:     m.RoleName,
			Capabilities: roles.Classify(m.RoleName, userID, g.CreatedByID),
		})
	}
	return profile, nil
}
