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

	"gorm.io/gorm"
)

// Sentinel errors for the atomic operations. Services translate these
// into failure envelopes; they never cross the engine boundary raw.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrPostNotFound      = errors.New("post not found")
	ErrCommunityNotFound = errors.New("community not found")
	ErrDuplicate         = errors.New("duplicate record")
)

// Relationship and reaction type defaults.
const (
	RelationFollow = "follow"
	RelationFriend = "friend"
	ReactionLike   = "like"
)

// ---------------------------------------------------------------------
// User operations
// ---------------------------------------------------------------------

// CreateUser inserts a new user. Usernames are unique among live users.
func CreateUser(tx *gorm.DB, username, bio string) (*User, error) {
	var existing User
	err := tx.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("%w: username %q already exists", ErrDuplicate, username)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user := &User{Username: username, Bio: bio}
	if err := tx.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %q: %w", username, err)
	}
	return user, nil
}

// GetUserByID returns the user with the given id, excluding soft-deleted
// users. A missing user yields (nil, nil).
func GetUserByID(tx *gorm.DB, userID int64) (*User, error) {
	var user User
	err := tx.First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername returns the user with the given username, excluding
// soft-deleted users. A missing user yields (nil, nil).
func GetUserByUsername(tx *gorm.DB, username string) (*User, error) {
	var user User
	err := tx.Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SoftDeleteUser marks the user deleted.
func SoftDeleteUser(tx *gorm.DB, userID int64) error {
	user, err := GetUserByID(tx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("%w: id %d", ErrUserNotFound, userID)
	}
	return tx.Delete(user).Error
}

// ---------------------------------------------------------------------
// Post operations
// ---------------------------------------------------------------------

// CreatePost inserts a post, or a comment when parentPostID is set.
func CreatePost(tx *gorm.DB, userID int64, content string, parentPostID *int64, title string) (*Post, error) {
	user, err := GetUserByID(tx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, userID)
	}

	if parentPostID != nil {
		parent, err := GetPostByID(tx, *parentPostID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, fmt.Errorf("%w: parent post %d", ErrPostNotFound, *parentPostID)
		}
	}

	post := &Post{
		UserID:       userID,
		ParentPostID: parentPostID,
		Title:        title,
		Content:      content,
	}
	if err := tx.Create(post).Error; err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// GetPostByID returns the post with the given id, excluding soft-deleted
// posts. A missing post yields (nil, nil).
func GetPostByID(tx *gorm.DB, postID int64) (*Post, error) {
	var post Post
	err := tx.First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetPostByTitle returns the most recent live post with the given title.
func GetPostByTitle(tx *gorm.DB, title string) (*Post, error) {
	var post Post
	err := tx.Where("title = ?", title).Order("created_at DESC").First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetPostsByUser returns a user's posts, newest first. Comments are
// excluded unless includeComments is set.
func GetPostsByUser(tx *gorm.DB, userID int64, limit int, includeComments bool) ([]*Post, error) {
	query := tx.Where("user_id = ?", userID)
	if !includeComments {
		query = query.Where("parent_post_id IS NULL")
	}
	var posts []*Post
	if err := query.Order("created_at DESC").Limit(limit).Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// GetCommentsForPost returns all comments on a post, newest first.
func GetCommentsForPost(tx *gorm.DB, postID int64) ([]*Post, error) {
	var comments []*Post
	err := tx.Where("parent_post_id = ?", postID).Order("created_at DESC").Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// SoftDeletePost marks the post deleted.
func SoftDeletePost(tx *gorm.DB, postID int64) error {
	post, err := GetPostByID(tx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return fmt.Errorf("%w: id %d", ErrPostNotFound, postID)
	}
	return tx.Delete(post).Error
}

// ---------------------------------------------------------------------
// Relationship operations
// ---------------------------------------------------------------------

// CreateRelationship links follower to followed with the given type.
// A soft-deleted relationship of the same shape is revived instead of
// recreated so the unique index stays satisfied.
func CreateRelationship(tx *gorm.DB, followerID, followedID int64, relType string) (*Relationship, error) {
	for _, id := range []int64{followerID, followedID} {
		user, err := GetUserByID(tx, id)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, id)
		}
	}

	var existing Relationship
	err := tx.Unscoped().
		Where("follower_id = ? AND followed_id = ? AND relationship_type = ?", followerID, followedID, relType).
		First(&existing).Error
	switch {
	case err == nil && !existing.DeletedAt.Valid:
		return nil, fmt.Errorf("%w: relationship %d -> %d (%s)", ErrDuplicate, followerID, followedID, relType)
	case err == nil:
		// Revive the soft-deleted row.
		if err := tx.Unscoped().Model(&existing).Update("deleted_at", nil).Error; err != nil {
			return nil, err
		}
		existing.DeletedAt = gorm.DeletedAt{}
		return &existing, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	rel := &Relationship{FollowerID: followerID, FollowedID: followedID, Type: relType}
	if err := tx.Create(rel).Error; err != nil {
		return nil, fmt.Errorf("create relationship: %w", err)
	}
	return rel, nil
}

// GetRelationship returns the live relationship between two users, or
// (nil, nil) when none exists.
func GetRelationship(tx *gorm.DB, followerID, followedID int64, relType string) (*Relationship, error) {
	var rel Relationship
	err := tx.Where("follower_id = ? AND followed_id = ? AND relationship_type = ?", followerID, followedID, relType).
		First(&rel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

// GetFollowers returns all live users following the given user.
func GetFollowers(tx *gorm.DB, userID int64) ([]*User, error) {
	var users []*User
	err := tx.Joins("JOIN relationships ON relationships.follower_id = users.id").
		Where("relationships.followed_id = ?", userID).
		Where("relationships.relationship_type = ?", RelationFollow).
		Where("relationships.deleted_at IS NULL").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// GetFollowing returns all live users the given user follows.
func GetFollowing(tx *gorm.DB, userID int64) ([]*User, error) {
	var users []*User
	err := tx.Joins("JOIN relationships ON relationships.followed_id = users.id").
		Where("relationships.follower_id = ?", userID).
		Where("relationships.relationship_type = ?", RelationFollow).
		Where("relationships.deleted_at IS NULL").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// SoftDeleteRelationship removes (soft) a relationship. It returns the
// deleted relationship, or (nil, nil) when none existed.
func SoftDeleteRelationship(tx *gorm.DB, followerID, followedID int64, relType string) (*Relationship, error) {
	rel, err := GetRelationship(tx, followerID, followedID, relType)
	if err != nil || rel == nil {
		return nil, err
	}
	if err := tx.Delete(rel).Error; err != nil {
		return nil, err
	}
	return rel, nil
}

// ---------------------------------------------------------------------
// Reaction operations
// ---------------------------------------------------------------------

// CreateReaction records a reaction to a post. A soft-deleted reaction
// of the same shape is revived instead of recreated.
func CreateReaction(tx *gorm.DB, userID, postID int64, reactionType string) (*Reaction, error) {
	user, err := GetUserByID(tx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, userID)
	}
	post, err := GetPostByID(tx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, fmt.Errorf("%w: id %d", ErrPostNotFound, postID)
	}

	var existing Reaction
	err = tx.Unscoped().
		Where("user_id = ? AND post_id = ? AND reaction_type = ?", userID, postID, reactionType).
		First(&existing).Error
	switch {
	case err == nil && !existing.DeletedAt.Valid:
		return &existing, nil
	case err == nil:
		if err := tx.Unscoped().Model(&existing).Update("deleted_at", nil).Error; err != nil {
			return nil, err
		}
		existing.DeletedAt = gorm.DeletedAt{}
		return &existing, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	reaction := &Reaction{UserID: userID, PostID: postID, Type: reactionType}
	if err := tx.Create(reaction).Error; err != nil {
		return nil, fmt.Errorf("create reaction: %w", err)
	}
	return reaction, nil
}

// GetReaction returns a user's live reaction to a post, or (nil, nil).
func GetReaction(tx *gorm.DB, userID, postID int64, reactionType string) (*Reaction, error) {
	var reaction Reaction
	err := tx.Where("user_id = ? AND post_id = ? AND reaction_type = ?", userID, postID, reactionType).
		First(&reaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reaction, nil
}

// ReactionCounts returns the live reaction counts for a post, by type.
func ReactionCounts(tx *gorm.DB, postID int64) (map[string]int64, error) {
	type row struct {
		ReactionType string
		N            int64
	}
	var rows []row
	err := tx.Model(&Reaction{}).
		Select("reaction_type, COUNT(id) AS n").
		Where("post_id = ?", postID).
		Group("reaction_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.ReactionType] = r.N
	}
	return counts, nil
}

// GetUserReactions returns all live reactions by a user.
func GetUserReactions(tx *gorm.DB, userID int64) ([]*Reaction, error) {
	var reactions []*Reaction
	if err := tx.Where("user_id = ?", userID).Find(&reactions).Error; err != nil {
		return nil, err
	}
	return reactions, nil
}

// SoftDeleteReaction removes (soft) a reaction. It returns the deleted
// reaction, or (nil, nil) when none existed.
func SoftDeleteReaction(tx *gorm.DB, userID, postID int64, reactionType string) (*Reaction, error) {
	reaction, err := GetReaction(tx, userID, postID, reactionType)
	if err != nil || reaction == nil {
		return nil, err
	}
	if err := tx.Delete(reaction).Error; err != nil {
		return nil, err
	}
	return reaction, nil
}

// ---------------------------------------------------------------------
// Community operations
// ---------------------------------------------------------------------

// CreateCommunity inserts a new community. Names are unique among live
// communities.
func CreateCommunity(tx *gorm.DB, name string, createdBy int64, description string) (*Community, error) {
	creator, err := GetUserByID(tx, createdBy)
	if err != nil {
		return nil, err
	}
	if creator == nil {
		return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, createdBy)
	}

	var existing Community
	err = tx.Where("name = ?", name).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("%w: community %q already exists", ErrDuplicate, name)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	community := &Community{Name: name, Description: description, CreatedBy: createdBy}
	if err := tx.Create(community).Error; err != nil {
		return nil, fmt.Errorf("create community: %w", err)
	}
	return community, nil
}

// GetCommunityByID returns the live community with the given id, or
// (nil, nil).
func GetCommunityByID(tx *gorm.DB, communityID int64) (*Community, error) {
	var community Community
	err := tx.First(&community, communityID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &community, nil
}

// GetCommunityByName returns the live community with the given name, or
// (nil, nil).
func GetCommunityByName(tx *gorm.DB, name string) (*Community, error) {
	var community Community
	err := tx.Where("name = ?", name).First(&community).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &community, nil
}

// CreateMembership adds a user to a community.
func CreateMembership(tx *gorm.DB, userID, communityID int64, role string) (*Membership, error) {
	user, err := GetUserByID(tx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, userID)
	}
	community, err := GetCommunityByID(tx, communityID)
	if err != nil {
		return nil, err
	}
	if community == nil {
		return nil, fmt.Errorf("%w: id %d", ErrCommunityNotFound, communityID)
	}

	var existing Membership
	err = tx.Unscoped().
		Where("user_id = ? AND community_id = ?", userID, communityID).
		First(&existing).Error
	switch {
	case err == nil && !existing.DeletedAt.Valid:
		return nil, fmt.Errorf("%w: user %d already member of community %d", ErrDuplicate, userID, communityID)
	case err == nil:
		if err := tx.Unscoped().Model(&existing).Update("deleted_at", nil).Error; err != nil {
			return nil, err
		}
		existing.DeletedAt = gorm.DeletedAt{}
		return &existing, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	membership := &Membership{UserID: userID, CommunityID: communityID, Role: role}
	if err := tx.Create(membership).Error; err != nil {
		return nil, fmt.Errorf("create membership: %w", err)
	}
	return membership, nil
}

// GetMembership returns a user's live membership in a community, or
// (nil, nil).
func GetMembership(tx *gorm.DB, userID, communityID int64) (*Membership, error) {
	var membership Membership
	err := tx.Where("user_id = ? AND community_id = ?", userID, communityID).First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// GetUserCommunities returns all live communities a user belongs to.
func GetUserCommunities(tx *gorm.DB, userID int64) ([]*Community, error) {
	var communities []*Community
	err := tx.Joins("JOIN memberships ON memberships.community_id = communities.id").
		Where("memberships.user_id = ?", userID).
		Where("memberships.deleted_at IS NULL").
		Find(&communities).Error
	if err != nil {
		return nil, err
	}
	return communities, nil
}

// GetCommunityMembers returns all live members of a community.
func GetCommunityMembers(tx *gorm.DB, communityID int64) ([]*User, error) {
	var users []*User
	err := tx.Joins("JOIN memberships ON memberships.user_id = users.id").
		Where("memberships.community_id = ?", communityID).
		Where("memberships.deleted_at IS NULL").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
