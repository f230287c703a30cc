//
// Synthetic Agora is pleased to support the open source community by making agora available.
//
// Copyright (C) 2026 Synthetic Agora.  All rights reserved.
//
// agora is licensed under the Apache License Version 2.0.
//
//

// Package platform implements the relational backend of the simulated
// social platform: users, posts, reactions, relationships, communities
// and the business services the tool execution engine dispatches to.
package platform

import (
	"time"

	"gorm.io/gorm"
)

// User is a user profile and account record.
type User struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string         `gorm:"size:50;uniqueIndex" json:"username"`
	Bio       string         `gorm:"type:text" json:"bio"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Post is a post or a comment. Comments carry the parent post's id.
type Post struct {
	ID           int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       int64          `gorm:"index;not null" json:"user_id"`
	ParentPostID *int64         `gorm:"index" json:"parent_post_id"`
	Title        string         `gorm:"size:200;index" json:"title"`
	Content      string         `gorm:"type:text;not null" json:"content"`
	CreatedAt    time.Time      `json:"created_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsComment reports whether the post is a comment on another post.
func (p *Post) IsComment() bool {
	return p.ParentPostID != nil
}

// Relationship is a directed user-to-user relationship (follow, friend,
// block, ...).
type Relationship struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	FollowerID int64          `gorm:"not null;index:idx_follower_followed;uniqueIndex:uniq_relationship" json:"follower_id"`
	FollowedID int64          `gorm:"not null;index:idx_follower_followed;uniqueIndex:uniq_relationship" json:"followed_id"`
	Type       string         `gorm:"column:relationship_type;size:20;not null;default:follow;uniqueIndex:uniq_relationship" json:"relationship_type"`
	CreatedAt  time.Time      `json:"created_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// Reaction is a user's reaction to a post (like, dislike, love, ...).
type Reaction struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64          `gorm:"not null;index:idx_user_post;uniqueIndex:uniq_reaction" json:"user_id"`
	PostID    int64          `gorm:"not null;index:idx_user_post;uniqueIndex:uniq_reaction" json:"post_id"`
	Type      string         `gorm:"column:reaction_type;size:20;not null;default:like;uniqueIndex:uniq_reaction" json:"reaction_type"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Community groups users around a topic.
type Community struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string         `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	CreatedBy   int64          `gorm:"index;not null" json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// Membership records a user's membership in a community.
type Membership struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      int64          `gorm:"not null;index:idx_user_community;uniqueIndex:uniq_membership" json:"user_id"`
	CommunityID int64          `gorm:"not null;index:idx_user_community;uniqueIndex:uniq_membership" json:"community_id"`
	Role        string         `gorm:"size:20;not null;default:member" json:"role"`
	JoinedAt    time.Time      `gorm:"autoCreateTime" json:"joined_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// allModels lists every table managed by AutoMigrate.
func allModels() []any {
	return []any{
		&User{},
		&Post{},
		&Relationship{},
		&Reaction{},
		&Community{},
		&Membership{},
	}
}
