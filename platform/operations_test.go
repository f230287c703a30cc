//
// Synthetic Agora is pleased to support the open source community by making agora available.
//
// Copyright (C) 2026 Synthetic Agora.  All rights reserved.
//
// agora is licensed under the Apache License Version 2.0.
//
//

package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(InMemoryDSN)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCreateUserAndLookup(t *testing.T) {
	db := newTestDB(t)
	tx := db.Session()

	user, err := CreateUser(tx, "alice", "hello")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	byName, err := GetUserByUsername(tx, "alice")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, user.ID, byName.ID)

	byID, err := GetUserByID(tx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "alice", byID.Username)

	missing, err := GetUserByUsername(tx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreateUserDuplicate(t *testing.T) {
	db := newTestDB(t)
	tx := db.Session()

	_, err := CreateUser(tx, "alice", "")
	require.NoError(t, err)
	_, err = CreateUser(tx, "alice", "")
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCreatePostAndComment(t *testing.T) {
	db := newTestDB(t)
	tx := db.Session()

	user, err := CreateUser(tx, "alice", "")
	require.NoError(t, err)

	post, err := CreatePost(tx, user.ID, "body", nil, "First")
	require.NoError(t, err)
	assert.False(t, post.IsComment())

	comment, err := CreatePost(tx, user.ID, "reply", &post.ID, "")
	require.NoError(t, err)
	assert.True(t, comment.IsComment())

	comments, err := GetCommentsForPost(tx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, comment.ID, comments[0].ID)

	posts, err := GetPostsByUser(tx, user.ID, 10, false)
	require.NoError(t, err)
	assert.Len(t, posts, 1)

	all, err := GetPostsByUser(tx, user.ID, 10, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCreatePostMissingParent(t *testing.T) {
	db := newTestDB(t)
	tx := db.Session()

	user, err := CreateUser(tx, "alice", "")
	require.NoError(t, err)

	missing := int64(999)
	_, err = CreatePost(tx, user.ID, "reply", &missing, "")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestGetPostByTitlePicksMostRecent(t *testing.T) {
	db := newTestDB(t)
	tx := db.Session()

	user, err := CreateUser(tx, "alice", "")
	require.NoError(t, err)

	first, err := CreatePost(tx, user.ID, "v1", nil, "Same Title")
	require.NoError(t, err)
	second, err := CreatePost(tx, user.ID, "v2", nil, "Same Title")
	require.NoError(t, err)

	// Force distinct timestamps: sqlite's clock granularity can make
	// two inserts in the same test tick identical.
	require.NoError(t, tx.Model(&Post{}).Where("id = ?", first.ID).
		Update("created_at", gorm.Expr("datetime('now', '-1 hour')")).Error)

	found, err := GetPostByTitle(tx, "Same Title")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, second.ID, found.ID)
}

func TestRelationshipLifecycle(t *testing.T) {
	db := newTestDB(t)
	tx := db.Session()

	alice, err := CreateUser(tx, "alice", "")
	require.NoError(t, err)
	bob, err := CreateUser(tx, "bob", "")
	require.NoError(t, err)

	_, err = CreateRelationship(tx, alice.ID, bob.ID, RelationFollow)
	require.NoError(t, err)

	_, err = CreateRelationship(tx, alice.ID, bob.ID, RelationFollow)
	assert.ErrorIs(t, err, ErrDuplicate)

	followers, err := GetFollowers(tx, bob.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, "alice", followers[0].Username)

	following, err := GetFollowing(tx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, following, 1)

	rel, err := SoftDeleteRelationship(tx, alice.ID, bob.ID, RelationFollow)
	require.NoError(t, err)
	require.NotNil(t, rel)

	followers, err = GetFollowers(tx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, followers)

	// Re-follow after unfollow revives the soft-deleted row.
	revived, err := CreateRelationship(tx, alice.ID, bob.ID, RelationFollow)
	require.NoError(t, err)
	assert.Equal(t, rel.ID, revived.ID)

	followers, err = GetFollowers(tx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, followers, 1)
}

func TestReactionLifecycle(t *testing.T) {
	db := newTestDB(t)
	tx := db.Session()

	alice, err := CreateUser(tx, "alice", "")
	require.NoError(t, err)
	post, err := CreatePost(tx, alice.ID, "body", nil, "First")
	require.NoError(t, err)

	reaction, err := CreateReaction(tx, alice.ID, post.ID, ReactionLike)
	require.NoError(t, err)

	// Liking twice is idempotent.
	again, err := CreateReaction(tx, alice.ID, post.ID, ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, reaction.ID, again.ID)

	counts, err := ReactionCounts(tx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[ReactionLike])

	_, err = SoftDeleteReaction(tx, alice.ID, post.ID, ReactionLike)
	require.NoError(t, err)
	counts, err = ReactionCounts(tx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, counts[ReactionLike])

	revived, err := CreateReaction(tx, alice.ID, post.ID, ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, reaction.ID, revived.ID)
}

func TestCommunityLifecycle(t *testing.T) {
	db := newTestDB(t)
	tx := db.Session()

	alice, err := CreateUser(tx, "alice", "")
	require.NoError(t, err)
	bob, err := CreateUser(tx, "bob", "")
	require.NoError(t, err)

	community, err := CreateCommunity(tx, "gardeners", alice.ID, "green thumbs")
	require.NoError(t, err)

	_, err = CreateCommunity(tx, "gardeners", bob.ID, "")
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = CreateMembership(tx, alice.ID, community.ID, "admin")
	require.NoError(t, err)
	_, err = CreateMembership(tx, bob.ID, community.ID, "member")
	require.NoError(t, err)

	_, err = CreateMembership(tx, bob.ID, community.ID, "member")
	assert.ErrorIs(t, err, ErrDuplicate)

	members, err := GetCommunityMembers(tx, community.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	communities, err := GetUserCommunities(tx, bob.ID)
	require.NoError(t, err)
	require.Len(t, communities, 1)
	assert.Equal(t, "gardeners", communities[0].Name)
}

func TestSoftDeletePostHidesIt(t *testing.T) {
	db := newTestDB(t)
	tx := db.Session()

	alice, err := CreateUser(tx, "alice", "")
	require.NoError(t, err)
	post, err := CreatePost(tx, alice.ID, "body", nil, "First")
	require.NoError(t, err)

	require.NoError(t, SoftDeletePost(tx, post.ID))

	found, err := GetPostByID(tx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestDatabaseStats(t *testing.T) {
	db := newTestDB(t)
	tx := db.Session()

	_, err := CreateUser(tx, "alice", "")
	require.NoError(t, err)

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats["users"])
	assert.Equal(t, int64(0), stats["posts"])
}
