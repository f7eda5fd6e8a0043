package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToggleFollow(t *testing.T) {
	db := openTestDB(t)

	svc, err := NewFollowService(db)
	require.NoError(t, err)

	follower := seedUser(t, db, "togglefollower", "togglefollower@example.com", "password-123")
	target := seedUser(t, db, "toggletarget", "toggletarget@example.com", "password-123")

	following, err := svc.ToggleFollow(context.Background(), follower.ID, target.ID)
	require.NoError(t, err)
	require.True(t, following)

	following, err = svc.ToggleFollow(context.Background(), follower.ID, target.ID)
	require.NoError(t, err)
	require.False(t, following)

	_, err = svc.ToggleFollow(context.Background(), follower.ID, follower.ID)
	require.ErrorIs(t, err, ErrSelfFollow)

	_, err = svc.ToggleFollow(context.Background(), follower.ID, "missing-user")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestFollowersAndFollowing(t *testing.T) {
	db := openTestDB(t)

	svc, err := NewFollowService(db)
	require.NoError(t, err)

	hub := seedUser(t, db, "edgehub", "edgehub@example.com", "password-123")
	fanA := seedUser(t, db, "edgefana", "edgefana@example.com", "password-123")
	fanB := seedUser(t, db, "edgefanb", "edgefanb@example.com", "password-123")

	_, err = svc.ToggleFollow(context.Background(), fanA.ID, hub.ID)
	require.NoError(t, err)
	_, err = svc.ToggleFollow(context.Background(), fanB.ID, hub.ID)
	require.NoError(t, err)
	_, err = svc.ToggleFollow(context.Background(), hub.ID, fanA.ID)
	require.NoError(t, err)

	page := NormalisePage(1, 0, defaultFollowPageSize)

	followers, total, err := svc.Followers(context.Background(), hub.ID, page)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, followers, 2)
	usernames := []string{followers[0].Username, followers[1].Username}
	require.ElementsMatch(t, []string{"edgefana", "edgefanb"}, usernames)

	following, total, err := svc.Following(context.Background(), hub.ID, page)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "edgefana", following[0].Username)

	_, _, err = svc.Followers(context.Background(), fanB.ID, page)
	require.ErrorIs(t, err, ErrNoResults)

	_, _, err = svc.Followers(context.Background(), "missing-user", page)
	require.ErrorIs(t, err, ErrUserNotFound)
}
