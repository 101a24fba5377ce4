package reconcile

import (
	"testing"
	"time"

	"igunfollow/pkg/errors"
	"igunfollow/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(source models.SnapshotSource, partial bool, ids ...string) *models.Snapshot {
	s := &models.Snapshot{Source: source, CollectedAt: time.Now(), Partial: partial}
	for _, id := range ids {
		s.Accounts = append(s.Accounts, models.Account{ID: id, Username: "user_" + id})
	}
	return s
}

func queueIDs(q *models.ActionQueue) []string {
	var ids []string
	for _, e := range q.Entries {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestReconcileBasicDifference(t *testing.T) {
	following := snap(models.SourceFollowing, false, "u1", "u2", "u3", "u4")
	followers := snap(models.SourceFollowers, false, "u2", "u4")
	exclusions := models.NewExclusionSet([]string{"user_u3"})

	queue, err := Reconcile(following, followers, exclusions, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, queueIDs(queue))
}

func TestReconcilePreservesFollowingOrder(t *testing.T) {
	following := snap(models.SourceFollowing, false, "z", "m", "a", "q")
	followers := snap(models.SourceFollowers, false, "m")

	queue, err := Reconcile(following, followers, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "q"}, queueIDs(queue))
}

func TestReconcileEmptyFollowing(t *testing.T) {
	queue, err := Reconcile(
		snap(models.SourceFollowing, false),
		snap(models.SourceFollowers, false, "u1"),
		nil, Options{})
	require.NoError(t, err)
	assert.Zero(t, queue.Len())
}

func TestReconcileFullOverlap(t *testing.T) {
	following := snap(models.SourceFollowing, false, "u1", "u2")
	followers := snap(models.SourceFollowers, false, "u1", "u2", "u3")

	queue, err := Reconcile(following, followers, nil, Options{})
	require.NoError(t, err)
	assert.Zero(t, queue.Len())
}

func TestReconcileExcludesByIDAndUsername(t *testing.T) {
	following := snap(models.SourceFollowing, false, "u1", "u2", "u3")
	followers := snap(models.SourceFollowers, false)
	// One entry by raw ID, one by username, with different casing.
	exclusions := models.NewExclusionSet([]string{"U1", "User_U2"})

	queue, err := Reconcile(following, followers, exclusions, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"u3"}, queueIDs(queue))
}

func TestReconcileDuplicateIDFails(t *testing.T) {
	following := snap(models.SourceFollowing, false, "u1", "u1")
	followers := snap(models.SourceFollowers, false)

	_, err := Reconcile(following, followers, nil, Options{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeDataIntegrity, errors.TypeOf(err))
	assert.Equal(t, errors.ExitInvalidSnapshot, errors.ExitCode(err))
}

func TestReconcileRefusesPartialFollowers(t *testing.T) {
	following := snap(models.SourceFollowing, false, "u1")
	followers := snap(models.SourceFollowers, true)

	_, err := Reconcile(following, followers, nil, Options{})
	require.Error(t, err, "a partial followers list would over-queue unfollows")

	queue, err := Reconcile(following, followers, nil, Options{AllowPartialFollowers: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, queueIDs(queue))
}

func TestReconcileToleratesPartialFollowing(t *testing.T) {
	following := snap(models.SourceFollowing, true, "u1", "u2")
	followers := snap(models.SourceFollowers, false, "u2")

	queue, err := Reconcile(following, followers, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, queueIDs(queue))
}

func TestReconcileDeterministicOutput(t *testing.T) {
	following := snap(models.SourceFollowing, false, "u1", "u2", "u3")
	followers := snap(models.SourceFollowers, false, "u2")
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	opts := Options{Now: func() time.Time { return fixed }}

	first, err := Reconcile(following, followers, nil, opts)
	require.NoError(t, err)
	second, err := Reconcile(following, followers, nil, opts)
	require.NoError(t, err)
	assert.Equal(t, first, second, "same inputs must yield the same queue")
}
