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
	"math"
	"sort"
	"time"

	"gorm.io/gorm"
)

// Relevance weighting for the personalized feed. Scores combine how
// fresh a post is, how much engagement it has gathered, and how close
// its author is to the viewer.
const (
	temporalWeight   = 0.4
	engagementWeight = 0.3
	socialWeight     = 0.3

	temporalHalfLife = 48 * time.Hour
	temporalFloor    = 0.1

	maxPostsPerAuthor = 2
	samePenalty       = 0.8
)

// UserFeed builds the personalized, relevance-ranked feed for username:
// recent posts by the user and the accounts they follow, scored and
// diversified so no single author dominates.
func UserFeed(tx *gorm.DB, username string, limit int) ([]*FeedItem, error) {
	user, err := GetUserByUsername(tx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	following, err := GetFollowing(tx, user.ID)
	if err != nil {
		return nil, err
	}
	authorIDs := make([]int64, 0, len(following)+1)
	authorIDs = append(authorIDs, user.ID)
	followedSet := make(map[int64]bool, len(following))
	for _, f := range following {
		authorIDs = append(authorIDs, f.ID)
		followedSet[f.ID] = true
	}

	// Pull a generous candidate window, rank, then cut to limit.
	var posts []*Post
	err = tx.Where("user_id IN ?", authorIDs).
		Where("parent_post_id IS NULL").
		Order("created_at DESC").
		Limit(limit * 5).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	now := time.Now()
	items := make([]*FeedItem, 0, len(posts))
	for _, post := range posts {
		data, err := formatPostData(tx, post)
		if err != nil {
			return nil, err
		}
		temporal := temporalScore(now.Sub(post.CreatedAt))
		engagement := engagementScore(data)
		social, err := socialScore(tx, user.ID, post.UserID, followedSet)
		if err != nil {
			return nil, err
		}
		score := temporalWeight*temporal + engagementWeight*engagement + socialWeight*social
		items = append(items, &FeedItem{
			Post:           data,
			RelevanceScore: score,
			Metadata: map[string]any{
				"temporal_score":   temporal,
				"engagement_score": engagement,
				"social_score":     social,
			},
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].RelevanceScore > items[j].RelevanceScore
	})
	items = diversify(items)
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// temporalScore decays exponentially with post age, never below the
// floor so old posts stay eligible.
func temporalScore(age time.Duration) float64 {
	if age < 0 {
		age = 0
	}
	score := math.Exp(-float64(age) / float64(temporalHalfLife))
	if score < temporalFloor {
		return temporalFloor
	}
	return score
}

// engagementScore saturates at 1.0: likes count a little, comments a
// little more.
func engagementScore(post *PostData) float64 {
	var reactions int64
	for _, n := range post.ReactionCounts {
		reactions += n
	}
	score := float64(reactions)*0.1 + float64(post.CommentCount)*0.2
	return math.Min(1.0, score)
}

// socialScore reflects the author's closeness to the viewer: own posts
// rank highest, direct follows next, friends-of-friends in between,
// strangers lowest.
func socialScore(tx *gorm.DB, viewerID, authorID int64, followedSet map[int64]bool) (float64, error) {
	switch {
	case authorID == viewerID:
		return 1.0, nil
	case followedSet[authorID]:
		return 0.8, nil
	}
	mutuals, err := mutualFollowedUsernames(tx, viewerID, authorID)
	if err != nil {
		return 0, err
	}
	if len(mutuals) > 0 {
		return math.Min(1.0, 0.5+0.1*float64(len(mutuals))), nil
	}
	return 0.1, nil
}

// diversify caps each author at maxPostsPerAuthor entries and applies a
// penalty to consecutive posts by the same author, preserving the
// relative order of everything else.
func diversify(items []*FeedItem) []*FeedItem {
	perAuthor := make(map[string]int)
	out := make([]*FeedItem, 0, len(items))
	lastAuthor := ""
	for _, item := range items {
		author := item.Post.AuthorUsername
		if perAuthor[author] >= maxPostsPerAuthor {
			continue
		}
		perAuthor[author]++
		if author == lastAuthor {
			item.RelevanceScore *= samePenalty
		}
		lastAuthor = author
		out = append(out, item)
	}
	return out
}

// TrendingPosts returns the most-liked posts of the last 24 hours,
// ties broken by recency.
func TrendingPosts(tx *gorm.DB, limit int) ([]*PostData, error) {
	cutoff := time.Now().Add(-24 * time.Hour)
	var posts []*Post
	err := tx.Model(&Post{}).
		Select("posts.*").
		Joins("LEFT JOIN reactions ON reactions.post_id = posts.id AND reactions.deleted_at IS NULL").
		Where("posts.parent_post_id IS NULL").
		Where("posts.created_at >= ?", cutoff).
		Group("posts.id").
		Order("COUNT(reactions.id) DESC, posts.created_at DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	out := make([]*PostData, 0, len(posts))
	for _, post := range posts {
		data, err := formatPostData(tx, post)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}
