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
	"fmt"

	"gorm.io/gorm"
)

// Service is a backend operation the execution engine can dispatch to.
// The returned value is normalized by the engine: *envelope.Response
// passes through unchanged, any other non-nil value is wrapped in a
// success envelope, and nil reports a failed lookup.
type Service func(tx *gorm.DB, args map[string]any) (any, error)

// Directory returns the canonical service registry: every backend
// operation keyed by the name tool definitions bind to.
func Directory() map[string]Service {
	return map[string]Service{
		"create_user_account": func(tx *gorm.DB, args map[string]any) (any, error) {
			username, err := stringArg(args, "username")
			if err != nil {
				return nil, err
			}
			bio := optionalStringArg(args, "bio", "")
			return CreateUserAccount(tx, username, bio), nil
		},
		"get_user_profile": func(tx *gorm.DB, args map[string]any) (any, error) {
			username, err := stringArg(args, "username")
			if err != nil {
				return nil, err
			}
			return GetUserProfile(tx, username), nil
		},
		"get_user_relationship": func(tx *gorm.DB, args map[string]any) (any, error) {
			username, err := stringArg(args, "username")
			if err != nil {
				return nil, err
			}
			other, err := stringArg(args, "other_username")
			if err != nil {
				return nil, err
			}
			return GetUserRelationship(tx, username, other), nil
		},
		"get_user_posts": func(tx *gorm.DB, args map[string]any) (any, error) {
			username, err := stringArg(args, "username")
			if err != nil {
				return nil, err
			}
			limit := intArg(args, "limit", 10)
			return GetUserPosts(tx, username, limit), nil
		},
		"create_user_post": func(tx *gorm.DB, args map[string]any) (any, error) {
			username, err := stringArg(args, "username")
			if err != nil {
				return nil, err
			}
			content, err := stringArg(args, "content")
			if err != nil {
				return nil, err
			}
			title := optionalStringArg(args, "title", "")
			return CreateUserPost(tx, username, content, title), nil
		},
		"create_comment": func(tx *gorm.DB, args map[string]any) (any, error) {
			username, err := stringArg(args, "username")
			if err != nil {
				return nil, err
			}
			postID, err := int64Arg(args, "post_id")
			if err != nil {
				return nil, err
			}
			content, err := stringArg(args, "content")
			if err != nil {
				return nil, err
			}
			return CreateComment(tx, username, postID, content), nil
		},
		"get_user_feed": func(tx *gorm.DB, args map[string]any) (any, error) {
			username, err := stringArg(args, "username")
			if err != nil {
				return nil, err
			}
			limit := intArg(args, "limit", 20)
			items, err := UserFeed(tx, username, limit)
			if err != nil {
				return nil, err
			}
			return items, nil
		},
		"get_post_details": func(tx *gorm.DB, args map[string]any) (any, error) {
			postID, err := int64Arg(args, "post_id")
			if err != nil {
				return nil, err
			}
			return GetPostDetails(tx, postID)
		},
		"get_trending_posts": func(tx *gorm.DB, args map[string]any) (any, error) {
			limit := intArg(args, "limit", 10)
			posts, err := TrendingPosts(tx, limit)
			if err != nil {
				return nil, err
			}
			return posts, nil
		},
		"follow_user": func(tx *gorm.DB, args map[string]any) (any, error) {
			follower, err := stringArg(args, "follower_username")
			if err != nil {
				return nil, err
			}
			followed, err := stringArg(args, "followed_username")
			if err != nil {
				return nil, err
			}
			return FollowUser(tx, follower, followed), nil
		},
		"unfollow_user": func(tx *gorm.DB, args map[string]any) (any, error) {
			follower, err := stringArg(args, "follower_username")
			if err != nil {
				return nil, err
			}
			followed, err := stringArg(args, "followed_username")
			if err != nil {
				return nil, err
			}
			return UnfollowUser(tx, follower, followed), nil
		},
		"like_post": func(tx *gorm.DB, args map[string]any) (any, error) {
			username, err := stringArg(args, "username")
			if err != nil {
				return nil, err
			}
			postID, err := int64Arg(args, "post_id")
			if err != nil {
				return nil, err
			}
			return LikePost(tx, username, postID), nil
		},
		"unlike_post": func(tx *gorm.DB, args map[string]any) (any, error) {
			username, err := stringArg(args, "username")
			if err != nil {
				return nil, err
			}
			postID, err := int64Arg(args, "post_id")
			if err != nil {
				return nil, err
			}
			return UnlikePost(tx, username, postID), nil
		},
		"search_posts": func(tx *gorm.DB, args map[string]any) (any, error) {
			query, err := stringArg(args, "query")
			if err != nil {
				return nil, err
			}
			limit := intArg(args, "limit", 10)
			return SearchPosts(tx, query, limit), nil
		},
		"create_community": func(tx *gorm.DB, args map[string]any) (any, error) {
			username, err := stringArg(args, "username")
			if err != nil {
				return nil, err
			}
			name, err := stringArg(args, "name")
			if err != nil {
				return nil, err
			}
			description := optionalStringArg(args, "description", "")
			return CreateUserCommunity(tx, username, name, description), nil
		},
		"join_community": func(tx *gorm.DB, args map[string]any) (any, error) {
			username, err := stringArg(args, "username")
			if err != nil {
				return nil, err
			}
			name, err := stringArg(args, "community_name")
			if err != nil {
				return nil, err
			}
			return JoinCommunity(tx, username, name), nil
		},
	}
}

// stringArg extracts a required string argument.
func stringArg(args map[string]any, key string) (string, error) {
	value, ok := args[key]
	if !ok || value == nil {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %T", key, value)
	}
	return s, nil
}

// optionalStringArg extracts an optional string argument.
func optionalStringArg(args map[string]any, key, fallback string) string {
	if value, ok := args[key]; ok {
		if s, ok := value.(string); ok {
			return s
		}
	}
	return fallback
}

// int64Arg extracts a required integer argument. JSON decoding yields
// float64, so numeric widening is accepted.
func int64Arg(args map[string]any, key string) (int64, error) {
	value, ok := args[key]
	if !ok || value == nil {
		return 0, fmt.Errorf("missing required argument %q", key)
	}
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("argument %q must be an integer, got %T", key, value)
	}
}

// intArg extracts an optional integer argument with a default.
func intArg(args map[string]any, key string, fallback int) int {
	value, ok := args[key]
	if !ok || value == nil {
		return fallback
	}
	switch v := value.(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	default:
		return fallback
	}
}
