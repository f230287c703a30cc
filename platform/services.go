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
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/synthetic-agora/agora/envelope"
)

// PostData is the wire shape of a post as seen by agents: the raw Post
// row joined with its author, comment count and reaction tally.
type PostData struct {
	ID             int64            `json:"id"`
	Title          string           `json:"title"`
	AuthorUsername string           `json:"author_username"`
	Content        string           `json:"content"`
	CreatedAt      time.Time        `json:"created_at"`
	IsComment      bool             `json:"is_comment"`
	ParentPostID   *int64           `json:"parent_post_id,omitempty"`
	CommentCount   int64            `json:"comment_count"`
	ReactionCounts map[string]int64 `json:"reaction_counts"`
}

// ProfileData is the wire shape of a user profile with activity stats.
type ProfileData struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Bio            string    `json:"bio"`
	CreatedAt      time.Time `json:"created_at"`
	PostCount      int64     `json:"post_count"`
	FollowerCount  int       `json:"follower_count"`
	FollowingCount int       `json:"following_count"`
	LikedTitles    []string  `json:"liked_titles"`
}

// RelationshipData summarizes how two users relate to each other.
type RelationshipData struct {
	Following     bool     `json:"following"`
	FollowedBy    bool     `json:"followed_by"`
	Friends       bool     `json:"friends"`
	MutualFriends []string `json:"mutual_friends"`
}

// CommunityData is the wire shape of a community.
type CommunityData struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`
	MemberCount int       `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// FeedItem is one ranked entry of a personalized feed.
type FeedItem struct {
	Post           *PostData      `json:"post"`
	RelevanceScore float64        `json:"relevance_score"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// formatPostData assembles the PostData view of a post.
func formatPostData(tx *gorm.DB, post *Post) (*PostData, error) {
	author, err := GetUserByID(tx, post.UserID)
	if err != nil {
		return nil, err
	}
	authorName := "unknown"
	if author != nil {
		authorName = author.Username
	}

	var commentCount int64
	err = tx.Model(&Post{}).Where("parent_post_id = ?", post.ID).Count(&commentCount).Error
	if err != nil {
		return nil, err
	}
	reactions, err := ReactionCounts(tx, post.ID)
	if err != nil {
		return nil, err
	}

	return &PostData{
		ID:             post.ID,
		Title:          post.Title,
		AuthorUsername: authorName,
		Content:        post.Content,
		CreatedAt:      post.CreatedAt,
		IsComment:      post.IsComment(),
		ParentPostID:   post.ParentPostID,
		CommentCount:   commentCount,
		ReactionCounts: reactions,
	}, nil
}

// ---------------------------------------------------------------------
// Account and profile services
// ---------------------------------------------------------------------

// CreateUserAccount registers a new user.
func CreateUserAccount(tx *gorm.DB, username, bio string) *envelope.Response {
	user, err := CreateUser(tx, username, bio)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return envelope.Failf("Username @%s is already taken", username)
		}
		return envelope.Failf("Failed to create user: %v", err)
	}
	return envelope.OK(
		fmt.Sprintf("User @%s created successfully", username),
		map[string]any{"id": user.ID, "username": user.Username},
	)
}

// GetUserProfile returns a user's profile with activity statistics and
// the titles of the posts they liked most recently.
func GetUserProfile(tx *gorm.DB, username string) *envelope.Response {
	user, err := GetUserByUsername(tx, username)
	if err != nil {
		return envelope.Failf("Failed to load profile: %v", err)
	}
	if user == nil {
		return envelope.Failf("User @%s not found", username)
	}

	var postCount int64
	err = tx.Model(&Post{}).
		Where("user_id = ? AND parent_post_id IS NULL", user.ID).
		Count(&postCount).Error
	if err != nil {
		return envelope.Failf("Failed to load profile: %v", err)
	}
	followers, err := GetFollowers(tx, user.ID)
	if err != nil {
		return envelope.Failf("Failed to load profile: %v", err)
	}
	following, err := GetFollowing(tx, user.ID)
	if err != nil {
		return envelope.Failf("Failed to load profile: %v", err)
	}

	reactions, err := GetUserReactions(tx, user.ID)
	if err != nil {
		return envelope.Failf("Failed to load profile: %v", err)
	}
	likedTitles := make([]string, 0, 4)
	for i := len(reactions) - 1; i >= 0 && len(likedTitles) < 4; i-- {
		if reactions[i].Type != ReactionLike {
			continue
		}
		post, err := GetPostByID(tx, reactions[i].PostID)
		if err != nil {
			return envelope.Failf("Failed to load profile: %v", err)
		}
		if post != nil && post.Title != "" {
			likedTitles = append(likedTitles, post.Title)
		}
	}

	profile := &ProfileData{
		ID:             user.ID,
		Username:       user.Username,
		Bio:            user.Bio,
		CreatedAt:      user.CreatedAt,
		PostCount:      postCount,
		FollowerCount:  len(followers),
		FollowingCount: len(following),
		LikedTitles:    likedTitles,
	}
	return envelope.OK(fmt.Sprintf("Profile for @%s", username), profile)
}

// GetUserRelationship describes the relationship between two users:
// follow direction, friendship, and mutual friends.
func GetUserRelationship(tx *gorm.DB, username, otherUsername string) *envelope.Response {
	user, err := GetUserByUsername(tx, username)
	if err != nil {
		return envelope.Failf("Failed to load relationship: %v", err)
	}
	if user == nil {
		return envelope.Failf("User @%s not found", username)
	}
	other, err := GetUserByUsername(tx, otherUsername)
	if err != nil {
		return envelope.Failf("Failed to load relationship: %v", err)
	}
	if other == nil {
		return envelope.Failf("User @%s not found", otherUsername)
	}

	forward, err := GetRelationship(tx, user.ID, other.ID, RelationFollow)
	if err != nil {
		return envelope.Failf("Failed to load relationship: %v", err)
	}
	backward, err := GetRelationship(tx, other.ID, user.ID, RelationFollow)
	if err != nil {
		return envelope.Failf("Failed to load relationship: %v", err)
	}
	friendRel, err := GetRelationship(tx, user.ID, other.ID, RelationFriend)
	if err != nil {
		return envelope.Failf("Failed to load relationship: %v", err)
	}

	mutuals, err := mutualFollowedUsernames(tx, user.ID, other.ID)
	if err != nil {
		return envelope.Failf("Failed to load relationship: %v", err)
	}

	data := &RelationshipData{
		Following:     forward != nil,
		FollowedBy:    backward != nil,
		Friends:       forward != nil && backward != nil && friendRel != nil,
		MutualFriends: mutuals,
	}
	return envelope.OK(
		fmt.Sprintf("Relationship between @%s and @%s", username, otherUsername),
		data,
	)
}

// mutualFollowedUsernames lists usernames followed by both users.
func mutualFollowedUsernames(tx *gorm.DB, userID, otherID int64) ([]string, error) {
	followedByUser, err := GetFollowing(tx, userID)
	if err != nil {
		return nil, err
	}
	followedByOther, err := GetFollowing(tx, otherID)
	if err != nil {
		return nil, err
	}
	otherSet := make(map[int64]bool, len(followedByOther))
	for _, u := range followedByOther {
		otherSet[u.ID] = true
	}
	mutuals := make([]string, 0)
	for _, u := range followedByUser {
		if otherSet[u.ID] {
			mutuals = append(mutuals, u.Username)
		}
	}
	return mutuals, nil
}

// ---------------------------------------------------------------------
// Post services
// ---------------------------------------------------------------------

// CreateUserPost publishes a new top-level post for the given user.
func CreateUserPost(tx *gorm.DB, username, content, title string) *envelope.Response {
	user, err := GetUserByUsername(tx, username)
	if err != nil {
		return envelope.Failf("Failed to create post: %v", err)
	}
	if user == nil {
		return envelope.Failf("User @%s not found", username)
	}
	post, err := CreatePost(tx, user.ID, content, nil, title)
	if err != nil {
		return envelope.Failf("Failed to create post: %v", err)
	}
	data, err := formatPostData(tx, post)
	if err != nil {
		return envelope.Failf("Failed to create post: %v", err)
	}
	return envelope.OK(fmt.Sprintf("Post created successfully (ID: %d)", post.ID), data)
}

// CreateComment publishes a comment under an existing post.
func CreateComment(tx *gorm.DB, username string, postID int64, content string) *envelope.Response {
	user, err := GetUserByUsername(tx, username)
	if err != nil {
		return envelope.Failf("Failed to create comment: %v", err)
	}
	if user == nil {
		return envelope.Failf("User @%s not found", username)
	}
	parent, err := GetPostByID(tx, postID)
	if err != nil {
		return envelope.Failf("Failed to create comment: %v", err)
	}
	if parent == nil {
		return envelope.Failf("Post %d not found", postID)
	}
	comment, err := CreatePost(tx, user.ID, content, &postID, "")
	if err != nil {
		return envelope.Failf("Failed to create comment: %v", err)
	}
	data, err := formatPostData(tx, comment)
	if err != nil {
		return envelope.Failf("Failed to create comment: %v", err)
	}
	return envelope.OK(
		fmt.Sprintf("Comment added to post %d (ID: %d)", postID, comment.ID),
		data,
	)
}

// GetUserPosts returns the titles of a user's most recent posts.
func GetUserPosts(tx *gorm.DB, username string, limit int) *envelope.Response {
	user, err := GetUserByUsername(tx, username)
	if err != nil {
		return envelope.Failf("Failed to load posts: %v", err)
	}
	if user == nil {
		return envelope.Failf("User @%s not found", username)
	}
	posts, err := GetPostsByUser(tx, user.ID, limit, false)
	if err != nil {
		return envelope.Failf("Failed to load posts: %v", err)
	}
	titles := make([]string, 0, len(posts))
	for _, p := range posts {
		titles = append(titles, p.Title)
	}
	return envelope.OK(
		fmt.Sprintf("Found %d posts by @%s", len(titles), username),
		titles,
	)
}

// GetPostDetails returns the full PostData for a post, or an untyped nil
// when the post does not exist so the engine reports the miss uniformly.
func GetPostDetails(tx *gorm.DB, postID int64) (any, error) {
	post, err := GetPostByID(tx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, nil
	}
	return formatPostData(tx, post)
}

// SearchPosts finds posts whose title or content matches the query.
func SearchPosts(tx *gorm.DB, query string, limit int) *envelope.Response {
	pattern := "%" + query + "%"
	var posts []*Post
	err := tx.Where("parent_post_id IS NULL").
		Where("title LIKE ? OR content LIKE ?", pattern, pattern).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return envelope.Failf("Search failed: %v", err)
	}
	results := make([]*PostData, 0, len(posts))
	for _, p := range posts {
		data, err := formatPostData(tx, p)
		if err != nil {
			return envelope.Failf("Search failed: %v", err)
		}
		results = append(results, data)
	}
	return envelope.OK(
		fmt.Sprintf("Found %d posts matching %q", len(results), query),
		results,
	)
}

// ---------------------------------------------------------------------
// Relationship services
// ---------------------------------------------------------------------

// FollowUser makes followerUsername follow followedUsername.
func FollowUser(tx *gorm.DB, followerUsername, followedUsername string) *envelope.Response {
	if followerUsername == followedUsername {
		return envelope.Fail("Cannot follow yourself")
	}
	follower, err := GetUserByUsername(tx, followerUsername)
	if err != nil {
		return envelope.Failf("Failed to follow: %v", err)
	}
	if follower == nil {
		return envelope.Failf("User @%s not found", followerUsername)
	}
	followed, err := GetUserByUsername(tx, followedUsername)
	if err != nil {
		return envelope.Failf("Failed to follow: %v", err)
	}
	if followed == nil {
		return envelope.Failf("User @%s not found", followedUsername)
	}

	_, err = CreateRelationship(tx, follower.ID, followed.ID, RelationFollow)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return envelope.Failf("@%s is already following @%s", followerUsername, followedUsername)
		}
		return envelope.Failf("Failed to follow: %v", err)
	}

	following, err := GetFollowing(tx, follower.ID)
	if err != nil {
		return envelope.Failf("Failed to follow: %v", err)
	}
	return envelope.OK(
		fmt.Sprintf("@%s is now following @%s", followerUsername, followedUsername),
		map[string]any{"following_count": len(following)},
	)
}

// UnfollowUser removes a follow relationship.
func UnfollowUser(tx *gorm.DB, followerUsername, followedUsername string) *envelope.Response {
	follower, err := GetUserByUsername(tx, followerUsername)
	if err != nil {
		return envelope.Failf("Failed to unfollow: %v", err)
	}
	if follower == nil {
		return envelope.Failf("User @%s not found", followerUsername)
	}
	followed, err := GetUserByUsername(tx, followedUsername)
	if err != nil {
		return envelope.Failf("Failed to unfollow: %v", err)
	}
	if followed == nil {
		return envelope.Failf("User @%s not found", followedUsername)
	}

	rel, err := SoftDeleteRelationship(tx, follower.ID, followed.ID, RelationFollow)
	if err != nil {
		return envelope.Failf("Failed to unfollow: %v", err)
	}
	if rel == nil {
		return envelope.Failf("@%s is not following @%s", followerUsername, followedUsername)
	}

	following, err := GetFollowing(tx, follower.ID)
	if err != nil {
		return envelope.Failf("Failed to unfollow: %v", err)
	}
	return envelope.OK(
		fmt.Sprintf("@%s unfollowed @%s", followerUsername, followedUsername),
		map[string]any{"following_count": len(following)},
	)
}

// ---------------------------------------------------------------------
// Reaction services
// ---------------------------------------------------------------------

// LikePost records a like by username on the given post.
func LikePost(tx *gorm.DB, username string, postID int64) *envelope.Response {
	user, err := GetUserByUsername(tx, username)
	if err != nil {
		return envelope.Failf("Failed to like post: %v", err)
	}
	if user == nil {
		return envelope.Failf("User @%s not found", username)
	}
	post, err := GetPostByID(tx, postID)
	if err != nil {
		return envelope.Failf("Failed to like post: %v", err)
	}
	if post == nil {
		return envelope.Failf("Post %d not found", postID)
	}

	if _, err := CreateReaction(tx, user.ID, postID, ReactionLike); err != nil {
		return envelope.Failf("Failed to like post: %v", err)
	}
	counts, err := ReactionCounts(tx, postID)
	if err != nil {
		return envelope.Failf("Failed to like post: %v", err)
	}
	return envelope.OK(
		fmt.Sprintf("@%s liked post %d", username, postID),
		map[string]any{"reaction_counts": counts},
	)
}

// UnlikePost removes username's like from the given post.
func UnlikePost(tx *gorm.DB, username string, postID int64) *envelope.Response {
	user, err := GetUserByUsername(tx, username)
	if err != nil {
		return envelope.Failf("Failed to unlike post: %v", err)
	}
	if user == nil {
		return envelope.Failf("User @%s not found", username)
	}
	post, err := GetPostByID(tx, postID)
	if err != nil {
		return envelope.Failf("Failed to unlike post: %v", err)
	}
	if post == nil {
		return envelope.Failf("Post %d not found", postID)
	}

	reaction, err := SoftDeleteReaction(tx, user.ID, postID, ReactionLike)
	if err != nil {
		return envelope.Failf("Failed to unlike post: %v", err)
	}
	if reaction == nil {
		return envelope.Failf("@%s has not liked post %d", username, postID)
	}
	counts, err := ReactionCounts(tx, postID)
	if err != nil {
		return envelope.Failf("Failed to unlike post: %v", err)
	}
	return envelope.OK(
		fmt.Sprintf("@%s unliked post %d", username, postID),
		map[string]any{"reaction_counts": counts},
	)
}

// ---------------------------------------------------------------------
// Community services
// ---------------------------------------------------------------------

// CreateUserCommunity creates a community owned by username.
func CreateUserCommunity(tx *gorm.DB, username, name, description string) *envelope.Response {
	user, err := GetUserByUsername(tx, username)
	if err != nil {
		return envelope.Failf("Failed to create community: %v", err)
	}
	if user == nil {
		return envelope.Failf("User @%s not found", username)
	}

	community, err := CreateCommunity(tx, name, user.ID, description)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return envelope.Failf("Community %q already exists", name)
		}
		return envelope.Failf("Failed to create community: %v", err)
	}
	if _, err := CreateMembership(tx, user.ID, community.ID, "admin"); err != nil {
		return envelope.Failf("Failed to create community: %v", err)
	}

	data := &CommunityData{
		ID:          community.ID,
		Name:        community.Name,
		Description: community.Description,
		CreatedBy:   username,
		MemberCount: 1,
		CreatedAt:   community.CreatedAt,
	}
	return envelope.OK(
		fmt.Sprintf("Community %q created by @%s", name, username),
		data,
	)
}

// JoinCommunity adds username to the named community as a member.
func JoinCommunity(tx *gorm.DB, username, communityName string) *envelope.Response {
	user, err := GetUserByUsername(tx, username)
	if err != nil {
		return envelope.Failf("Failed to join community: %v", err)
	}
	if user == nil {
		return envelope.Failf("User @%s not found", username)
	}
	community, err := GetCommunityByName(tx, communityName)
	if err != nil {
		return envelope.Failf("Failed to join community: %v", err)
	}
	if community == nil {
		return envelope.Failf("Community %q not found", communityName)
	}

	if _, err := CreateMembership(tx, user.ID, community.ID, "member"); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return envelope.Failf("@%s is already a member of %q", username, communityName)
		}
		return envelope.Failf("Failed to join community: %v", err)
	}

	members, err := GetCommunityMembers(tx, community.ID)
	if err != nil {
		return envelope.Failf("Failed to join community: %v", err)
	}
	return envelope.OK(
		fmt.Sprintf("@%s joined community %q", username, communityName),
		map[string]any{"member_count": len(members)},
	)
}
