package services

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"habitpact/database"
	"habitpact/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return db
}

func seedProfile(t *testing.T, db *gorm.DB, userID, phone, name string) *models.Profile {
	t.Helper()
	profile := models.Profile{
		UserID:      userID,
		Phone:       phone,
		DisplayName: &name,
	}
	require.NoError(t, db.Create(&profile).Error)
	return &profile
}

func newGroupService(db *gorm.DB) *GroupService {
	return NewGroupService(db, NewActivityService(db), nil, 24*time.Hour)
}

func TestCreateGroup_CreatorBecomesMember(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupService(db)
	seedProfile(t, db, "user-a", "+15550001", "Alice")

	group, member, err := svc.CreateGroup("Morning Crew", "user-a")
	require.NoError(t, err)
	require.NotNil(t, group)
	require.NotNil(t, member)
	assert.Equal(t, "Morning Crew", group.Name)
	assert.Equal(t, "user-a", group.CreatedBy)
	assert.Equal(t, group.ID, member.GroupID)
	assert.Nil(t, member.InviteCode)

	// Immediately after a successful call the creator is a member
	got, err := svc.CheckMembership("user-a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, group.ID, got.ID)
}

func TestCreateGroup_TrimsName(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupService(db)
	seedProfile(t, db, "user-a", "+15550001", "Alice")

	group, _, err := svc.CreateGroup("  Morning Crew  ", "user-a")
	require.NoError(t, err)
	assert.Equal(t, "Morning Crew", group.Name)
}

func TestCreateGroup_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupService(db)
	seedProfile(t, db, "user-a", "+15550001", "Alice")

	_, _, err := svc.CreateGroup("   ", "user-a")
	assert.ErrorIs(t, err, ErrValidation)

	var count int64
	db.Model(&models.Group{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreateGroup_RequiresProfile(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupService(db)

	_, _, err := svc.CreateGroup("Morning Crew", "ghost")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestCreateGroup_CompensatesFailedMemberInsert(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupService(db)
	seedProfile(t, db, "user-a", "+15550001", "Alice")

	// Existing membership makes the member insert hit the unique index,
	// forcing the compensation path
	_, _, err := svc.CreateGroup("First Crew", "user-a")
	require.NoError(t, err)

	_, _, err = svc.CreateGroup("Second Crew", "user-a")
	require.Error(t, err)

	var cgErr *CreateGroupError
	require.ErrorAs(t, err, &cgErr)
	assert.Equal(t, "member_insert", cgErr.Step)

	// The orphan group must not be observable afterward, even unscoped
	var count int64
	db.Unscoped().Model(&models.Group{}).Where("name = ?", "Second Crew").Count(&count)
	assert.Zero(t, count)
}

func TestCheckMembership_NoGroup(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupService(db)
	seedProfile(t, db, "user-a", "+15550001", "Alice")

	group, err := svc.CheckMembership("user-a")
	require.NoError(t, err)
	assert.Nil(t, group)
}

func TestCheckMembership_ReportsDuplicateRows(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupService(db)
	seedProfile(t, db, "user-a", "+15550001", "Alice")

	g1, _, err := svc.CreateGroup("One", "user-a")
	require.NoError(t, err)
	g2 := models.Group{Name: "Two", CreatedBy: "someone-else"}
	require.NoError(t, db.Create(&g2).Error)

	// Simulate a store that lost the uniqueness guarantee
	require.NoError(t, db.Exec("DROP INDEX idx_group_members_user_id").Error)
	require.NoError(t, db.Create(&models.GroupMember{GroupID: g2.ID, UserID: "user-a"}).Error)

	_, err = svc.CheckMembership("user-a")
	assert.ErrorIs(t, err, ErrMultipleMemberships)
	_ = g1
}

func TestGenerateInvite(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupService(db)
	seedProfile(t, db, "user-a", "+15550001", "Alice")

	group, _, err := svc.CreateGroup("Morning Crew", "user-a")
	require.NoError(t, err)

	before := time.Now()
	invite, err := svc.GenerateInvite(group.ID, "user-a")
	require.NoError(t, err)

	assert.Len(t, invite.InviteCode, inviteLength)
	for _, r := range invite.InviteCode {
		assert.True(t, strings.ContainsRune(inviteAlphabet, r), "unexpected character %q", r)
	}
	assert.WithinDuration(t, before.Add(24*time.Hour), invite.ExpiresAt, time.Minute)
}

func TestGenerateInvite_RequiresMembership(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupService(db)
	seedProfile(t, db, "user-a", "+15550001", "Alice")
	seedProfile(t, db, "user-b", "+15550002", "Bob")

	group, _, err := svc.CreateGroup("Morning Crew", "user-a")
	require.NoError(t, err)

	_, err = svc.GenerateInvite(group.ID, "user-b")
	assert.ErrorIs(t, err, ErrNoGroup)
}

func TestGenerateInvite_OldCodeStaysRedeemable(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupService(db)
	seedProfile(t, db, "user-a", "+15550001", "Alice")
	seedProfile(t, db, "user-b", "+15550002", "Bob")

	group, _, err := svc.CreateGroup("Morning Crew", "user-a")
	require.NoError(t, err)

	first, err := svc.GenerateInvite(group.ID, "user-a")
	require.NoError(t, err)
	_, err = svc.GenerateInvite(group.ID, "user-a")
	require.NoError(t, err)

	// Superseded, not revoked: the first code still joins until it expires
	joined, err := svc.RedeemInvite(first.InviteCode, "user-b")
	require.NoError(t, err)
	assert.Equal(t, group.ID, joined.ID)
}

func TestRedeemInvite_Joins(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupService(db)
	seedProfile(t, db, "user-a", "+15550001", "Alice")
	seedProfile(t, db, "user-b", "+15550002", "Bob")

	group, _, err := svc.CreateGroup("Morning Crew", "user-a")
	require.NoError(t, err)
	invite, err := svc.GenerateInvite(group.ID, "user-a")
	require.NoError(t, err)

	joined, err := svc.RedeemInvite(invite.InviteCode, "user-b")
	require.NoError(t, err)
	assert.Equal(t, group.ID, joined.ID)

	got, err := svc.CheckMembership("user-b")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, group.ID, got.ID)

	// The code used is recorded on the membership row
	var member models.GroupMember
	require.NoError(t, db.Where("user_id = ?", "user-b").First(&member).Error)
	require.NotNil(t, member.InviteCode)
	assert.Equal(t, invite.InviteCode, *member.InviteCode)
}

func TestRedeemInvite_Idempotent(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupService(db)
	seedProfile(t, db, "user-a", "+15550001", "Alice")
	seedProfile(t, db, "user-b", "+15550002", "Bob")

	group, _, err := svc.CreateGroup("Morning Crew", "user-a")
	require.NoError(t, err)
	invite, err := svc.GenerateInvite(group.ID, "user-a")
	require.NoError(t, err)

	_, err = svc.RedeemInvite(invite.InviteCode, "user-b")
	require.NoError(t, err)

	// Second redemption succeeds without a second membership row
	joined, err := svc.RedeemInvite(invite.InviteCode, "user-b")
	require.NoError(t, err)
	assert.Equal(t, group.ID, joined.ID)

	var count int64
	db.Model(&models.GroupMember{}).Where("user_id = ?", "user-b").Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestRedeemInvite_Expired(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupService(db)
	seedProfile(t, db, "user-a", "+15550001", "Alice")
	seedProfile(t, db, "user-b", "+15550002", "Bob")

	group, _, err := svc.CreateGroup("Morning Crew", "user-a")
	require.NoError(t, err)

	invite := models.Invite{
		Code:      "X7K2P9",
		GroupID:   group.ID,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, db.Create(&invite).Error)

	_, err = svc.RedeemInvite("X7K2P9", "user-b")
	assert.ErrorIs(t, err, ErrInviteInvalid)

	var count int64
	db.Model(&models.GroupMember{}).Where("user_id = ?", "user-b").Count(&count)
	assert.Zero(t, count)
}

func TestRedeemInvite_UnknownCode(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupService(db)
	seedProfile(t, db, "user-b", "+15550002", "Bob")

	_, err := svc.RedeemInvite("NOSUCH", "user-b")
	assert.ErrorIs(t, err, ErrInviteInvalid)
}

func TestRedeemInvite_MemberOfAnotherGroup(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupService(db)
	seedProfile(t, db, "user-a", "+15550001", "Alice")
	seedProfile(t, db, "user-b", "+15550002", "Bob")

	groupA, _, err := svc.CreateGroup("Crew A", "user-a")
	require.NoError(t, err)
	invite, err := svc.GenerateInvite(groupA.ID, "user-a")
	require.NoError(t, err)

	_, _, err = svc.CreateGroup("Crew B", "user-b")
	require.NoError(t, err)

	_, err = svc.RedeemInvite(invite.InviteCode, "user-b")
	assert.ErrorIs(t, err, ErrAlreadyInGroup)
}

func TestRedeemInvite_CodeNormalized(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupService(db)
	seedProfile(t, db, "user-a", "+15550001", "Alice")
	seedProfile(t, db, "user-b", "+15550002", "Bob")

	group, _, err := svc.CreateGroup("Morning Crew", "user-a")
	require.NoError(t, err)
	invite, err := svc.GenerateInvite(group.ID, "user-a")
	require.NoError(t, err)

	joined, err := svc.RedeemInvite("  "+strings.ToLower(invite.InviteCode)+" ", "user-b")
	require.NoError(t, err)
	assert.Equal(t, group.ID, joined.ID)
}
