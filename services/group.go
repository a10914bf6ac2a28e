package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"gorm.io/gorm"

	"habitpact/models"
	"habitpact/realtime"
)

// inviteAlphabet leaves out 0/O/1/I/L so codes survive being read aloud.
const (
	inviteAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	inviteLength   = 6
)

// GroupService answers "is this user in a group", creates groups, and runs
// the invite-code lifecycle. Invite codes are only ever minted here,
// server-side.
type GroupService struct {
	db        *gorm.DB
	activity  *ActivityService
	hub       *realtime.Hub
	inviteTTL time.Duration
}

func NewGroupService(db *gorm.DB, activity *ActivityService, hub *realtime.Hub, inviteTTL time.Duration) *GroupService {
	return &GroupService{db: db, activity: activity, hub: hub, inviteTTL: inviteTTL}
}

// CheckMembership returns the caller's group, or nil when they have none.
// More than one membership row is an invariant violation and is reported,
// not masked.
func (s *GroupService) CheckMembership(userID string) (*models.Group, error) {
	var memberships []models.GroupMember
	if result := s.db.Where("user_id = ?", userID).Order("joined_at").Find(&memberships); result.Error != nil {
		return nil, result.Error
	}

	switch len(memberships) {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, ErrMultipleMemberships
	}

	var group models.Group
	if result := s.db.First(&group, memberships[0].GroupID); result.Error != nil {
		return nil, result.Error
	}
	return &group, nil
}

// CreateGroup inserts the group and its creator membership. The two inserts
// are separate store operations; when the membership insert fails the group
// row is compensated away so no orphan group survives.
func (s *GroupService) CreateGroup(name, userID string) (*models.Group, *models.GroupMember, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, fmt.Errorf("%w: group name required", ErrValidation)
	}

	var profile models.Profile
	if result := s.db.Where("user_id = ?", userID).First(&profile); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil, ErrProfileNotFound
		}
		return nil, nil, result.Error
	}

	group := models.Group{
		Name:      name,
		CreatedBy: userID,
	}
	if err := s.db.Create(&group).Error; err != nil {
		return nil, nil, &CreateGroupError{Step: "group_insert", Err: err}
	}

	member := models.GroupMember{
		GroupID: group.ID,
		UserID:  userID,
	}
	if err := s.db.Create(&member).Error; err != nil {
		return nil, nil, s.compensateGroupInsert(&group, err)
	}

	s.activity.Log(group.ID, userID, displayName(&profile), models.ActivityActionGroupCreate, "Created group: "+name)

	return &group, &member, nil
}

// compensateGroupInsert deletes the group created by the first step of
// CreateGroup after the membership insert failed.
func (s *GroupService) compensateGroupInsert(group *models.Group, cause error) error {
	if err := s.db.Unscoped().Delete(group).Error; err != nil {
		slog.Error("group rollback failed, orphan group left behind",
			"group_id", group.ID, "cause", cause, "error", err)
		return &CreateGroupError{Step: "rollback", Err: err}
	}
	return &CreateGroupError{Step: "member_insert", Err: cause}
}

// GenerateInvite mints a fresh code for the group. The caller must be a
// member. Each call inserts a new invite; previously issued codes stay
// valid until their own expiry.
func (s *GroupService) GenerateInvite(groupID uint, userID string) (*models.InviteResponse, error) {
	group, err := s.CheckMembership(userID)
	if err != nil {
		return nil, err
	}
	if group == nil || group.ID != groupID {
		return nil, ErrNoGroup
	}

	var invite models.Invite
	for attempt := 0; ; attempt++ {
		code, err := randomCode(inviteLength)
		if err != nil {
			return nil, fmt.Errorf("generate invite code: %w", err)
		}

		invite = models.Invite{
			Code:      code,
			GroupID:   groupID,
			ExpiresAt: time.Now().Add(s.inviteTTL),
		}
		err = s.db.Create(&invite).Error
		if err == nil {
			break
		}
		// Retry on the (rare) code collision, give up on anything else
		if attempt >= 3 || !errors.Is(err, gorm.ErrDuplicatedKey) && !isUniqueViolation(err) {
			return nil, fmt.Errorf("store invite: %w", err)
		}
	}

	// Long-dead codes are useless, prune them while we're here
	s.db.Where("expires_at < ?", time.Now().Add(-24*time.Hour)).Delete(&models.Invite{})

	s.activity.Log(groupID, userID, s.displayNameFor(userID), models.ActivityActionInviteCreate, "")

	return &models.InviteResponse{
		InviteCode: invite.Code,
		ExpiresAt:  invite.ExpiresAt,
	}, nil
}

// RedeemInvite joins the caller to the group the code belongs to.
// Redeeming while already a member of that group is a no-op success;
// membership in a different group is an error. Missing and expired codes
// are indistinguishable to the caller.
func (s *GroupService) RedeemInvite(code, userID string) (*models.Group, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("%w: invite code required", ErrValidation)
	}

	var invite models.Invite
	result := s.db.Where("code = ? AND expires_at > ?", code, time.Now()).First(&invite)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrInviteInvalid
		}
		return nil, result.Error
	}

	current, err := s.CheckMembership(userID)
	if err != nil {
		return nil, err
	}
	if current != nil {
		if current.ID == invite.GroupID {
			return current, nil // already where the code leads
		}
		return nil, ErrAlreadyInGroup
	}

	member := models.GroupMember{
		GroupID:    invite.GroupID,
		UserID:     userID,
		InviteCode: &invite.Code,
	}
	if err := s.db.Create(&member).Error; err != nil {
		return nil, fmt.Errorf("join group: %w", err)
	}

	var group models.Group
	if result := s.db.First(&group, invite.GroupID); result.Error != nil {
		return nil, result.Error
	}

	name := s.displayNameFor(userID)
	s.activity.Log(group.ID, userID, name, models.ActivityActionGroupJoin, "Joined group: "+group.Name)
	s.hub.Broadcast(group.ID, realtime.EventMemberJoined, map[string]interface{}{
		"user_id":      userID,
		"display_name": name,
	})

	return &group, nil
}

func (s *GroupService) displayNameFor(userID string) string {
	var profile models.Profile
	if result := s.db.Where("user_id = ?", userID).First(&profile); result.Error != nil {
		return "Unknown"
	}
	return displayName(&profile)
}

func displayName(p *models.Profile) string {
	if p.DisplayName == nil || *p.DisplayName == "" {
		return "Unknown"
	}
	return *p.DisplayName
}

// isUniqueViolation matches the sqlite unique-constraint error text, which
// the driver does not expose as a typed error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}

// randomCode returns n characters from the invite alphabet.
func randomCode(n int) (string, error) {
	var sb strings.Builder
	max := big.NewInt(int64(len(inviteAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(inviteAlphabet[idx.Int64()])
	}
	return sb.String(), nil
}
