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
)

func TestCreateUserAccountService(t *testing.T) {
	db := newTestDB(t)
	tx := db.Session()

	resp := CreateUserAccount(tx, "alice", "hello")
	require.True(t, resp.Succeeded())
	assert.Contains(t, resp.Message, "@alice")

	dup := CreateUserAccount(tx, "alice", "")
	assert.False(t, dup.Succeeded())
	assert.Contains(t, dup.Message, "already taken")
}

func TestCreateUserPostService(t *testing.T) {
	db := newTestDB(t)
	tx := db.Session()

	require.True(t, CreateUserAccount(tx, "alice", "").Succeeded())

	resp := CreateUserPost(tx, "alice", "body", "First")
	require.True(t, resp.Succeeded())
	assert.Contains(t, resp.Message, "Post created successfully")

	data, ok := resp.Data.(*PostData)
	require.True(t, ok)
	assert.Equal(t, "First", data.Title)
	assert.Equal(t, "alice", data.AuthorUsername)
	assert.False(t, data.IsComment)

	missing := CreateUserPost(tx, "ghost", "body", "x")
	assert.False(t, missing.Succeeded())
	assert.Contains(t, missing.Message, "not found")
}

func TestCreateCommentService(t *testing.T) {
	db := newTestDB(t)
	tx := db.Session()

	require.True(t, CreateUserAccount(tx, "alice", "").Succeeded())
	post := CreateUserPost(tx, "alice", "body", "First")
	require.True(t, post.Succeeded())
	postID := post.Data.(*PostData).ID

	resp := CreateComment(tx, "alice", postID, "nice")
	require.True(t, resp.Succeeded())
	comment := resp.Data.(*PostData)
	assert.True(t, comment.IsComment)
	require.NotNil(t, comment.ParentPostID)
	assert.Equal(t, postID, *comment.ParentPostID)

	gone := CreateComment(tx, "alice", 999, "nice")
	assert.False(t, gone.Succeeded())
}

func TestFollowUnfollowService(t *testing.T) {
	db := newTestDB(t)
	tx := db.Session()

	require.True(t, CreateUserAccount(tx, "alice", "").Succeeded())
	require.True(t, CreateUserAccount(tx, "bob", "").Succeeded())

	self := FollowUser(tx, "alice", "alice")
	assert.False(t, self.Succeeded())
	assert.Equal(t, "Cannot follow yourself", self.Message)

	resp := FollowUser(tx, "bob", "alice")
	require.True(t, resp.Succeeded())
	assert.Equal(t, "@bob is now following @alice", resp.Message)
	assert.Equal(t, 1, resp.Data.(map[string]any)["following_count"])

	dup := FollowUser(tx, "bob", "alice")
	assert.False(t, dup.Succeeded())
	assert.Contains(t, dup.Message, "already following")

	un := UnfollowUser(tx, "bob", "alice")
	require.True(t, un.Succeeded())
	assert.Equal(t, 0, un.Data.(map[string]any)["following_count"])

	again := UnfollowUser(tx, "bob", "alice")
	assert.False(t, again.Succeeded())
	assert.Contains(t, again.Message, "not following")
}

func TestLikeUnlikeService(t *testing.T) {
	db := newTestDB(t)
	tx := db.Session()

	require.True(t, CreateUserAccount(tx, "alice", "").Succeeded())
	require.True(t, CreateUserAccount(tx, "bob", "").Succeeded())
	post := CreateUserPost(tx, "alice", "body", "First")
	require.True(t, post.Succeeded())
	postID := post.Data.(*PostData).ID

	resp := LikePost(tx, "bob", postID)
	require.True(t, resp.Succeeded())
	counts := resp.Data.(map[string]any)["reaction_counts"].(map[string]int64)
	assert.Equal(t, int64(1), counts[ReactionLike])

	un := UnlikePost(tx, "bob", postID)
	require.True(t, un.Succeeded())
	counts = un.Data.(map[string]any)["reaction_counts"].(map[string]int64)
	assert.Zero(t, counts[ReactionLike])

	again := UnlikePost(tx, "bob", postID)
	assert.False(t, again.Succeeded())

	gone := LikePost(tx, "bob", 999)
	assert.False(t, gone.Succeeded())
	assert.Contains(t, gone.Message, "not found")
}

func TestGetUserProfileService(t *testing.T) {
	db := newTestDB(t)
	tx := db.Session()

	require.True(t, CreateUserAccount(tx, "alice", "green thumb").Succeeded())
	require.True(t, CreateUserAccount(tx, "bob", "").Succeeded())
	post := CreateUserPost(tx, "alice", "body", "First")
	require.True(t, post.Succeeded())
	require.True(t, FollowUser(tx, "bob", "alice").Succeeded())
	require.True(t, LikePost(tx, "bob", post.Data.(*PostData).ID).Succeeded())

	resp := GetUserProfile(tx, "alice")
	require.True(t, resp.Succeeded())
	profile := resp.Data.(*ProfileData)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "green thumb", profile.Bio)
	assert.Equal(t, int64(1), profile.PostCount)
	assert.Equal(t, 1, profile.FollowerCount)
	assert.Equal(t, 0, profile.FollowingCount)

	bobProfile := GetUserProfile(tx, "bob")
	require.True(t, bobProfile.Succeeded())
	assert.Equal(t, []string{"First"}, bobProfile.Data.(*ProfileData).LikedTitles)

	missing := GetUserProfile(tx, "ghost")
	assert.False(t, missing.Succeeded())
}

func TestGetUserRelationshipService(t *testing.T) {
	db := newTestDB(t)
	tx := db.Session()

	for _, name := range []string{"alice", "bob", "carol"} {
		require.True(t, CreateUserAccount(tx, name, "").Succeeded())
	}
	require.True(t, FollowUser(tx, "alice", "bob").Succeeded())
	require.True(t, FollowUser(tx, "alice", "carol").Succeeded())
	require.True(t, FollowUser(tx, "bob", "carol").Succeeded())

	resp := GetUserRelationship(tx, "alice", "bob")
	require.True(t, resp.Succeeded())
	data := resp.Data.(*RelationshipData)
	assert.True(t, data.Following)
	assert.False(t, data.FollowedBy)
	assert.False(t, data.Friends)
	assert.Equal(t, []string{"carol"}, data.MutualFriends)
}

func TestGetUserPostsService(t *testing.T) {
	db := newTestDB(t)
	tx := db.Session()

	require.True(t, CreateUserAccount(tx, "alice", "").Succeeded())
	for _, title := range []string{"One", "Two", "Three"} {
		require.True(t, CreateUserPost(tx, "alice", "body", title).Succeeded())
	}

	resp := GetUserPosts(tx, "alice", 2)
	require.True(t, resp.Succeeded())
	titles := resp.Data.([]string)
	assert.Len(t, titles, 2)
}

func TestGetPostDetailsService(t *testing.T) {
	db := newTestDB(t)
	tx := db.Session()

	require.True(t, CreateUserAccount(tx, "alice", "").Succeeded())
	post := CreateUserPost(tx, "alice", "body", "First")
	require.True(t, post.Succeeded())

	raw, err := GetPostDetails(tx, post.Data.(*PostData).ID)
	require.NoError(t, err)
	data, ok := raw.(*PostData)
	require.True(t, ok)
	assert.Equal(t, "First", data.Title)

	missing, err := GetPostDetails(tx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSearchPostsService(t *testing.T) {
	db := newTestDB(t)
	tx := db.Session()

	require.True(t, CreateUserAccount(tx, "alice", "").Succeeded())
	require.True(t, CreateUserPost(tx, "alice", "all about tomatoes", "Garden log").Succeeded())
	require.True(t, CreateUserPost(tx, "alice", "espresso notes", "Coffee log").Succeeded())

	resp := SearchPosts(tx, "tomatoes", 10)
	require.True(t, resp.Succeeded())
	results := resp.Data.([]*PostData)
	require.Len(t, results, 1)
	assert.Equal(t, "Garden log", results[0].Title)

	none := SearchPosts(tx, "sailing", 10)
	require.True(t, none.Succeeded())
	assert.Empty(t, none.Data.([]*PostData))
}

func TestCommunityServices(t *testing.T) {
	db := newTestDB(t)
	tx := db.Session()

	require.True(t, CreateUserAccount(tx, "alice", "").Succeeded())
	require.True(t, CreateUserAccount(tx, "bob", "").Succeeded())

	resp := CreateUserCommunity(tx, "alice", "gardeners", "green thumbs")
	require.True(t, resp.Succeeded())
	community := resp.Data.(*CommunityData)
	assert.Equal(t, "gardeners", community.Name)
	assert.Equal(t, 1, community.MemberCount)

	dup := CreateUserCommunity(tx, "bob", "gardeners", "")
	assert.False(t, dup.Succeeded())

	join := JoinCommunity(tx, "bob", "gardeners")
	require.True(t, join.Succeeded())
	assert.Equal(t, 2, join.Data.(map[string]any)["member_count"])

	rejoin := JoinCommunity(tx, "bob", "gardeners")
	assert.False(t, rejoin.Succeeded())

	missing := JoinCommunity(tx, "bob", "sailors")
	assert.False(t, missing.Succeeded())
}
