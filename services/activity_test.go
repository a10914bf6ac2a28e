package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitpact/models"
)

func TestActivityList(t *testing.T) {
	db := newTestDB(t)
	svc := NewActivityService(db)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.LogSync(1, "user-a", "Alice", models.ActivityActionHabitAdd, "Run"))
	}
	require.NoError(t, svc.LogSync(1, "user-a", "Alice", models.ActivityActionGroupCreate, "Morning Crew"))
	require.NoError(t, svc.LogSync(2, "user-b", "Bob", models.ActivityActionHabitAdd, "Read"))

	logs, total, err := svc.List(1, 1, 50, "")
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, logs, 4)
	for _, l := range logs {
		assert.EqualValues(t, 1, l.GroupID)
	}
}

func TestActivityList_FilterByAction(t *testing.T) {
	db := newTestDB(t)
	svc := NewActivityService(db)

	require.NoError(t, svc.LogSync(1, "user-a", "Alice", models.ActivityActionGroupCreate, "Morning Crew"))
	require.NoError(t, svc.LogSync(1, "user-a", "Alice", models.ActivityActionHabitAdd, "Run"))
	require.NoError(t, svc.LogSync(1, "user-a", "Alice", models.ActivityActionHabitComplete, "Run"))

	logs, total, err := svc.List(1, 1, 50, string(models.ActivityActionHabitAdd))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, logs, 1)
	assert.Equal(t, models.ActivityActionHabitAdd, logs[0].Action)
}

func TestActivityList_Pagination(t *testing.T) {
	db := newTestDB(t)
	svc := NewActivityService(db)

	for i := 0; i < 7; i++ {
		require.NoError(t, svc.LogSync(1, "user-a", "Alice", models.ActivityActionHabitComplete, ""))
	}

	page1, total, err := svc.List(1, 1, 3, "")
	require.NoError(t, err)
	assert.EqualValues(t, 7, total)
	assert.Len(t, page1, 3)

	page3, _, err := svc.List(1, 3, 3, "")
	require.NoError(t, err)
	assert.Len(t, page3, 1)

	// Out-of-range values fall back to defaults
	logs, _, err := svc.List(1, 0, 1000, "")
	require.NoError(t, err)
	assert.Len(t, logs, 7)
}
