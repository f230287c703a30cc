//
// Synthetic Agora is pleased to support the open source community by making agora available.
//
// Copyright (C) 2026 Synthetic Agora.  All rights reserved.
//
// agora is licensed under the Apache License Version 2.0.
//
//

package tool

import (
	"fmt"

	"github.com/synthetic-agora/agora/envelope"
	"github.com/synthetic-agora/agora/platform"
)

// Context parameter names. These are filled by the engine from the
// agent's identity and history, never by the agent itself.
const (
	ParamAgentUsername = "agent_username"
	ParamTargetPostID  = "target_post_id"
	ParamTargetUserID  = "target_user_id"
)

// PostPayload carries a single post produced or fetched by a tool.
type PostPayload struct {
	Action string             `json:"action"`
	Post   *platform.PostData `json:"post"`
}

// ContainedPosts exposes the payload's posts for history resolution.
func (p *PostPayload) ContainedPosts() []*platform.PostData {
	if p.Post == nil {
		return nil
	}
	return []*platform.PostData{p.Post}
}

// CommentPayload carries a comment created under a post.
type CommentPayload struct {
	Action       string             `json:"action"`
	Comment      *platform.PostData `json:"comment"`
	ParentPostID int64              `json:"parent_post_id"`
}

// LikePayload carries the reaction tally after a like or unlike.
type LikePayload struct {
	Action         string           `json:"action"`
	ReactionCounts map[string]int64 `json:"reaction_counts"`
}

// FollowPayload carries the follow count after a follow or unfollow.
type FollowPayload struct {
	Action         string `json:"action"`
	FollowingCount int    `json:"following_count"`
}

// FeedPayload carries a ranked feed page.
type FeedPayload struct {
	Action string               `json:"action"`
	Posts  []*platform.PostData `json:"posts"`
	Scores []float64            `json:"scores"`
}

// ContainedPosts exposes the payload's posts for history resolution.
func (p *FeedPayload) ContainedPosts() []*platform.PostData {
	return p.Posts
}

// ProfilePayload carries a user profile.
type ProfilePayload struct {
	Action  string                `json:"action"`
	Profile *platform.ProfileData `json:"profile"`
}

// UserPostsPayload carries the titles of a user's posts.
type UserPostsPayload struct {
	Action string   `json:"action"`
	Titles []string `json:"titles"`
}

// TrendingPayload carries the current trending posts.
type TrendingPayload struct {
	Action string               `json:"action"`
	Posts  []*platform.PostData `json:"posts"`
}

// ContainedPosts exposes the payload's posts for history resolution.
func (p *TrendingPayload) ContainedPosts() []*platform.PostData {
	return p.Posts
}

// SearchPayload carries search results.
type SearchPayload struct {
	Action string               `json:"action"`
	Posts  []*platform.PostData `json:"posts"`
}

// ContainedPosts exposes the payload's posts for history resolution.
func (p *SearchPayload) ContainedPosts() []*platform.PostData {
	return p.Posts
}

// CommunityPayload carries a community record.
type CommunityPayload struct {
	Action    string                  `json:"action"`
	Community *platform.CommunityData `json:"community"`
}

// MembershipPayload carries the member count after joining a community.
type MembershipPayload struct {
	Action      string `json:"action"`
	MemberCount int    `json:"member_count"`
}

// builtinDefinitions declares the standard tool catalog.
func builtinDefinitions() []*Definition {
	return []*Definition{
		{
			Name:        "create_post",
			Description: "Create a new post with a title and content.",
			Parameters: map[string]Parameter{
				"title":            {Type: "string", Description: "Title of the post"},
				"content":          {Type: "string", Description: "Body text of the post"},
				ParamAgentUsername: {Type: "string", Description: "Resolved from agent context"},
			},
			Service: "create_user_post",
			Arguments: map[string]string{
				"username": ParamAgentUsername,
				"content":  "content",
				"title":    "title",
			},
			ContextParams: []string{ParamAgentUsername},
			Formatter:     postFormatter("create_post"),
		},
		{
			Name:        "like_post",
			Description: "Like a post, referenced by its title.",
			Parameters: map[string]Parameter{
				"title":            {Type: "string", Description: "Title of the post to like"},
				ParamAgentUsername: {Type: "string", Description: "Resolved from agent context"},
				ParamTargetPostID:  {Type: "integer", Description: "Resolved from agent context"},
			},
			Service: "like_post",
			Arguments: map[string]string{
				"username": ParamAgentUsername,
				"post_id":  ParamTargetPostID,
			},
			ContextParams: []string{ParamAgentUsername, ParamTargetPostID},
			Formatter:     likeFormatter("like_post"),
		},
		{
			Name:        "unlike_post",
			Description: "Remove a previous like from a post, referenced by its title.",
			Parameters: map[string]Parameter{
				"title":            {Type: "string", Description: "Title of the post to unlike"},
				ParamAgentUsername: {Type: "string", Description: "Resolved from agent context"},
				ParamTargetPostID:  {Type: "integer", Description: "Resolved from agent context"},
			},
			Service: "unlike_post",
			Arguments: map[string]string{
				"username": ParamAgentUsername,
				"post_id":  ParamTargetPostID,
			},
			ContextParams: []string{ParamAgentUsername, ParamTargetPostID},
			Formatter:     likeFormatter("unlike_post"),
		},
		{
			Name:        "follow_user",
			Description: "Follow another user by username.",
			Parameters: map[string]Parameter{
				"username":         {Type: "string", Description: "Username of the user to follow"},
				ParamAgentUsername: {Type: "string", Description: "Resolved from agent context"},
			},
			Service: "follow_user",
			Arguments: map[string]string{
				"follower_username": ParamAgentUsername,
				"followed_username": "username",
			},
			ContextParams: []string{ParamAgentUsername},
			Formatter:     followFormatter("follow_user"),
		},
		{
			Name:        "unfollow_user",
			Description: "Stop following a user by username.",
			Parameters: map[string]Parameter{
				"username":         {Type: "string", Description: "Username of the user to unfollow"},
				ParamAgentUsername: {Type: "string", Description: "Resolved from agent context"},
			},
			Service: "unfollow_user",
			Arguments: map[string]string{
				"follower_username": ParamAgentUsername,
				"followed_username": "username",
			},
			ContextParams: []string{ParamAgentUsername},
			Formatter:     followFormatter("unfollow_user"),
		},
		{
			Name:        "get_feed",
			Description: "Fetch the agent's personalized feed of recent posts.",
			Parameters: map[string]Parameter{
				"limit":            {Type: "integer", Description: "Maximum number of posts", Optional: true, Default: 20},
				ParamAgentUsername: {Type: "string", Description: "Resolved from agent context"},
			},
			Service: "get_user_feed",
			Arguments: map[string]string{
				"username": ParamAgentUsername,
				"limit":    "limit",
			},
			ContextParams: []string{ParamAgentUsername},
			Formatter:     feedFormatter,
		},
		{
			Name:        "get_post_details",
			Description: "Fetch the full details of a post, referenced by its title.",
			Parameters: map[string]Parameter{
				"title":           {Type: "string", Description: "Title of the post"},
				ParamTargetPostID: {Type: "integer", Description: "Resolved from agent context"},
			},
			Service: "get_post_details",
			Arguments: map[string]string{
				"post_id": ParamTargetPostID,
			},
			ContextParams: []string{ParamTargetPostID},
			Formatter:     postFormatter("get_post_details"),
		},
		{
			Name:        "create_comment",
			Description: "Comment on a post, referenced by its title.",
			Parameters: map[string]Parameter{
				"title":            {Type: "string", Description: "Title of the post to comment on"},
				"content":          {Type: "string", Description: "Body text of the comment"},
				ParamAgentUsername: {Type: "string", Description: "Resolved from agent context"},
				ParamTargetPostID:  {Type: "integer", Description: "Resolved from agent context"},
			},
			Service: "create_comment",
			Arguments: map[string]string{
				"username": ParamAgentUsername,
				"post_id":  ParamTargetPostID,
				"content":  "content",
			},
			ContextParams: []string{ParamAgentUsername, ParamTargetPostID},
			Formatter:     commentFormatter,
		},
		{
			Name:        "get_profile",
			Description: "Fetch a user's profile and activity statistics.",
			Parameters: map[string]Parameter{
				"username": {Type: "string", Description: "Username of the profile to fetch"},
			},
			Service: "get_user_profile",
			Arguments: map[string]string{
				"username": "username",
			},
			Formatter: profileFormatter,
		},
		{
			Name:        "get_user_posts",
			Description: "List the titles of a user's recent posts.",
			Parameters: map[string]Parameter{
				"username": {Type: "string", Description: "Username whose posts to list"},
				"limit":    {Type: "integer", Description: "Maximum number of posts", Optional: true, Default: 10},
			},
			Service: "get_user_posts",
			Arguments: map[string]string{
				"username": "username",
				"limit":    "limit",
			},
			Formatter: userPostsFormatter,
		},
		{
			Name:        "get_trending",
			Description: "Fetch the most liked posts of the last 24 hours.",
			Parameters: map[string]Parameter{
				"limit": {Type: "integer", Description: "Maximum number of posts", Optional: true, Default: 10},
			},
			Service: "get_trending_posts",
			Arguments: map[string]string{
				"limit": "limit",
			},
			Formatter: trendingFormatter,
		},
		{
			Name:        "search",
			Description: "Search posts by title or content.",
			Parameters: map[string]Parameter{
				"query": {Type: "string", Description: "Search query"},
				"limit": {Type: "integer", Description: "Maximum number of results", Optional: true, Default: 10},
			},
			Service: "search_posts",
			Arguments: map[string]string{
				"query": "query",
				"limit": "limit",
			},
			Formatter: searchFormatter,
		},
		{
			Name:        "create_community",
			Description: "Create a new community.",
			Parameters: map[string]Parameter{
				"name":             {Type: "string", Description: "Name of the community"},
				"description":      {Type: "string", Description: "What the community is about", Optional: true},
				ParamAgentUsername: {Type: "string", Description: "Resolved from agent context"},
			},
			Service: "create_community",
			Arguments: map[string]string{
				"username":    ParamAgentUsername,
				"name":        "name",
				"description": "description",
			},
			ContextParams: []string{ParamAgentUsername},
			Formatter:     communityFormatter,
		},
		{
			Name:        "join_community",
			Description: "Join an existing community by name.",
			Parameters: map[string]Parameter{
				"community_name":   {Type: "string", Description: "Name of the community to join"},
				ParamAgentUsername: {Type: "string", Description: "Resolved from agent context"},
			},
			Service: "join_community",
			Arguments: map[string]string{
				"username":       ParamAgentUsername,
				"community_name": "community_name",
			},
			ContextParams: []string{ParamAgentUsername},
			Formatter:     membershipFormatter,
		},
	}
}

// postFormatter wraps a single-post result into a PostPayload.
func postFormatter(action string) Formatter {
	return func(resp *envelope.Response) *envelope.Response {
		if !resp.Succeeded() {
			return resp
		}
		post, ok := resp.Data.(*platform.PostData)
		if !ok {
			return resp
		}
		resp.Data = &PostPayload{Action: action, Post: post}
		return resp
	}
}

// commentFormatter wraps a created comment into a CommentPayload.
func commentFormatter(resp *envelope.Response) *envelope.Response {
	if !resp.Succeeded() {
		return resp
	}
	comment, ok := resp.Data.(*platform.PostData)
	if !ok {
		return resp
	}
	var parentID int64
	if comment.ParentPostID != nil {
		parentID = *comment.ParentPostID
	}
	resp.Data = &CommentPayload{
		Action:       "create_comment",
		Comment:      comment,
		ParentPostID: parentID,
	}
	return resp
}

// likeFormatter wraps a reaction tally into a LikePayload.
func likeFormatter(action string) Formatter {
	return func(resp *envelope.Response) *envelope.Response {
		if !resp.Succeeded() {
			return resp
		}
		data, ok := resp.Data.(map[string]any)
		if !ok {
			return resp
		}
		counts, _ := data["reaction_counts"].(map[string]int64)
		resp.Data = &LikePayload{Action: action, ReactionCounts: counts}
		return resp
	}
}

// followFormatter wraps a follow count into a FollowPayload.
func followFormatter(action string) Formatter {
	return func(resp *envelope.Response) *envelope.Response {
		if !resp.Succeeded() {
			return resp
		}
		data, ok := resp.Data.(map[string]any)
		if !ok {
			return resp
		}
		count, _ := data["following_count"].(int)
		resp.Data = &FollowPayload{Action: action, FollowingCount: count}
		return resp
	}
}

// feedFormatter flattens ranked feed items into a FeedPayload.
func feedFormatter(resp *envelope.Response) *envelope.Response {
	if !resp.Succeeded() {
		return resp
	}
	items, ok := resp.Data.([]*platform.FeedItem)
	if !ok {
		return resp
	}
	posts := make([]*platform.PostData, 0, len(items))
	scores := make([]float64, 0, len(items))
	for _, item := range items {
		posts = append(posts, item.Post)
		scores = append(scores, item.RelevanceScore)
	}
	resp.Message = fmt.Sprintf("Retrieved %d feed posts", len(posts))
	resp.Data = &FeedPayload{Action: "get_feed", Posts: posts, Scores: scores}
	return resp
}

// profileFormatter wraps a profile into a ProfilePayload.
func profileFormatter(resp *envelope.Response) *envelope.Response {
	if !resp.Succeeded() {
		return resp
	}
	profile, ok := resp.Data.(*platform.ProfileData)
	if !ok {
		return resp
	}
	resp.Data = &ProfilePayload{Action: "get_profile", Profile: profile}
	return resp
}

// userPostsFormatter wraps post titles into a UserPostsPayload.
func userPostsFormatter(resp *envelope.Response) *envelope.Response {
	if !resp.Succeeded() {
		return resp
	}
	titles, ok := resp.Data.([]string)
	if !ok {
		return resp
	}
	resp.Data = &UserPostsPayload{Action: "get_user_posts", Titles: titles}
	return resp
}

// trendingFormatter wraps trending posts into a TrendingPayload.
func trendingFormatter(resp *envelope.Response) *envelope.Response {
	if !resp.Succeeded() {
		return resp
	}
	posts, ok := resp.Data.([]*platform.PostData)
	if !ok {
		return resp
	}
	resp.Message = fmt.Sprintf("Retrieved %d trending posts", len(posts))
	resp.Data = &TrendingPayload{Action: "get_trending", Posts: posts}
	return resp
}

// searchFormatter wraps search results into a SearchPayload.
func searchFormatter(resp *envelope.Response) *envelope.Response {
	if !resp.Succeeded() {
		return resp
	}
	posts, ok := resp.Data.([]*platform.PostData)
	if !ok {
		return resp
	}
	resp.Data = &SearchPayload{Action: "search", Posts: posts}
	return resp
}

// communityFormatter wraps a community into a CommunityPayload.
func communityFormatter(resp *envelope.Response) *envelope.Response {
	if !resp.Succeeded() {
		return resp
	}
	community, ok := resp.Data.(*platform.CommunityData)
	if !ok {
		return resp
	}
	resp.Data = &CommunityPayload{Action: "create_community", Community: community}
	return resp
}

// membershipFormatter wraps a member count into a MembershipPayload.
func membershipFormatter(resp *envelope.Response) *envelope.Response {
	if !resp.Succeeded() {
		return resp
	}
	data, ok := resp.Data.(map[string]any)
	if !ok {
		return resp
	}
	count, _ := data["member_count"].(int)
	resp.Data = &MembershipPayload{Action: "join_community", MemberCount: count}
	return resp
}
