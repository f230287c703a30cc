//
// Synthetic Agora is pleased to support the open source community by making agora available.
//
// Copyright (C) 2026 Synthetic Agora.  All rights reserved.
//
// agora is licensed under the Apache License Version 2.0.
//
//

// Package runtime implements the tool execution engine: per-agent
// history tracking, semantic reference resolution, two-stage argument
// binding and dispatch to platform services.
package runtime

import (
	"time"

	"github.com/synthetic-agora/agora/envelope"
	"github.com/synthetic-agora/agora/platform"
	"github.com/synthetic-agora/agora/tool"
)

// How much history the context summary looks at.
const (
	recentRecordWindow = 10
	maxRecentPosts     = 5
	maxRecentActions   = 5
)

// Record is one appended history entry: the tool called, the parameters
// as submitted, and the full result envelope.
type Record struct {
	Tool       string             `json:"tool"`
	Parameters map[string]any     `json:"parameters"`
	Result     *envelope.Response `json:"result"`
	Timestamp  time.Time          `json:"timestamp"`
}

// ActionSummary is the compact per-record view exposed in the agent
// context.
type ActionSummary struct {
	Tool      string    `json:"tool"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
}

// AgentContext summarizes an agent's recent activity.
type AgentContext struct {
	RecentPosts   []*platform.PostData `json:"recent_posts"`
	ActionCount   int                  `json:"action_count"`
	RecentActions []ActionSummary      `json:"recent_actions"`
}

// postsCarrier is implemented by result payloads that contain posts.
// The tracker resolves title references through it without knowing the
// concrete payload types.
type postsCarrier interface {
	ContainedPosts() []*platform.PostData
}

// Tracker is one agent's append-only history log. It is not safe for
// concurrent use on its own; the executor serializes access per agent.
type Tracker struct {
	agent   string
	records []*Record
}

// NewTracker builds an empty history log for the named agent.
func NewTracker(agent string) *Tracker {
	return &Tracker{agent: agent}
}

// Agent returns the agent this log belongs to.
func (t *Tracker) Agent() string {
	return t.agent
}

// Record appends one history entry. The log only grows; entries are
// never rewritten.
func (t *Tracker) Record(toolName string, params map[string]any, result *envelope.Response) {
	t.records = append(t.records, &Record{
		Tool:       toolName,
		Parameters: params,
		Result:     result,
		Timestamp:  time.Now(),
	})
}

// Len returns the number of recorded entries.
func (t *Tracker) Len() int {
	return len(t.records)
}

// Records returns a copy of the full log, oldest first.
func (t *Tracker) Records() []*Record {
	out := make([]*Record, len(t.records))
	copy(out, t.records)
	return out
}

// Clear discards the agent's history.
func (t *Tracker) Clear() {
	t.records = nil
}

// Resolve fills one context parameter from the agent's identity and
// history. target_post_id resolves the call's "title" parameter to a
// post id; target_user_id resolves "username" to a user id.
func (t *Tracker) Resolve(contextParam string, params map[string]any) (any, bool) {
	switch contextParam {
	case tool.ParamAgentUsername:
		return t.agent, true
	case tool.ParamTargetPostID:
		title, ok := params["title"].(string)
		if !ok || title == "" {
			return nil, false
		}
		return t.resolvePostIDByTitle(title)
	case tool.ParamTargetUserID:
		username, ok := params["username"].(string)
		if !ok || username == "" {
			return nil, false
		}
		return t.resolveUserIDByUsername(username)
	default:
		return nil, false
	}
}

// resolvePostIDByTitle scans the log newest-first for a successful
// result containing a post with the given title. Ties go to the most
// recent sighting. Results that echo the created post's title only in
// the call parameters (older creation tools) are matched as a fallback.
func (t *Tracker) resolvePostIDByTitle(title string) (any, bool) {
	for i := len(t.records) - 1; i >= 0; i-- {
		record := t.records[i]
		if !record.Result.Succeeded() {
			continue
		}
		for _, post := range postsFrom(record.Result.Data) {
			if post.Title == title && post.ID != 0 {
				return post.ID, true
			}
		}
		if record.Tool == "create_post" || record.Tool == "create_comment" {
			if paramTitle, ok := record.Parameters["title"].(string); ok && paramTitle == title {
				if id, ok := firstPostID(record.Result.Data); ok {
					return id, true
				}
			}
		}
	}
	return nil, false
}

// resolveUserIDByUsername scans the log newest-first for a successful
// result carrying both the username and a user id. Posts that only name
// an author do not resolve; the caller falls back to a database lookup.
func (t *Tracker) resolveUserIDByUsername(username string) (any, bool) {
	for i := len(t.records) - 1; i >= 0; i-- {
		record := t.records[i]
		if !record.Result.Succeeded() {
			continue
		}
		switch data := record.Result.Data.(type) {
		case *tool.ProfilePayload:
			if data.Profile != nil && data.Profile.Username == username && data.Profile.ID != 0 {
				return data.Profile.ID, true
			}
		case map[string]any:
			if name, ok := data["username"].(string); ok && name == username {
				if id, ok := numericID(data["id"]); ok {
					return id, true
				}
			}
		}
	}
	return nil, false
}

// Context summarizes the agent's recent activity: total action count,
// the distinct posts seen in the last few records, and the outcome of
// the most recent calls.
func (t *Tracker) Context() *AgentContext {
	ctx := &AgentContext{
		ActionCount:   len(t.records),
		RecentPosts:   []*platform.PostData{},
		RecentActions: []ActionSummary{},
	}

	// Distinct recent posts, most recent sighting wins, returned oldest
	// first.
	seen := make(map[string]bool)
	start := len(t.records) - recentRecordWindow
	if start < 0 {
		start = 0
	}
	collected := make([]*platform.PostData, 0, maxRecentPosts)
	for i := len(t.records) - 1; i >= start && len(collected) < maxRecentPosts; i-- {
		record := t.records[i]
		if !record.Result.Succeeded() {
			continue
		}
		// Posts inside a record are walked newest-first too, so the
		// flat walk is a true reverse scan of everything extracted.
		posts := postsFrom(record.Result.Data)
		for j := len(posts) - 1; j >= 0 && len(collected) < maxRecentPosts; j-- {
			post := posts[j]
			if post.Title == "" || seen[post.Title] {
				continue
			}
			seen[post.Title] = true
			collected = append(collected, post)
		}
	}
	for i := len(collected) - 1; i >= 0; i-- {
		ctx.RecentPosts = append(ctx.RecentPosts, collected[i])
	}

	actionStart := len(t.records) - maxRecentActions
	if actionStart < 0 {
		actionStart = 0
	}
	for _, record := range t.records[actionStart:] {
		ctx.RecentActions = append(ctx.RecentActions, ActionSummary{
			Tool:      record.Tool,
			Timestamp: record.Timestamp,
			Success:   record.Result.Succeeded(),
		})
	}
	return ctx
}

// postsFrom extracts every post carried by a result payload. Typed
// payloads expose themselves through postsCarrier; ad-hoc map payloads
// from auto-wrapped results are sniffed structurally.
func postsFrom(data any) []*platform.PostData {
	switch v := data.(type) {
	case nil:
		return nil
	case postsCarrier:
		return v.ContainedPosts()
	case *platform.PostData:
		return []*platform.PostData{v}
	case []*platform.PostData:
		return v
	case map[string]any:
		if wrapped, ok := v["post"].(map[string]any); ok {
			if post := mapToPostData(wrapped); post != nil {
				return []*platform.PostData{post}
			}
			return nil
		}
		if post := mapToPostData(v); post != nil {
			return []*platform.PostData{post}
		}
		return nil
	case []any:
		var posts []*platform.PostData
		for _, item := range v {
			posts = append(posts, postsFrom(item)...)
		}
		return posts
	default:
		return nil
	}
}

// firstPostID returns the id of the first post carried by data.
func firstPostID(data any) (int64, bool) {
	posts := postsFrom(data)
	if len(posts) == 0 || posts[0].ID == 0 {
		return 0, false
	}
	return posts[0].ID, true
}

// mapToPostData converts an ad-hoc map payload into a PostData when it
// carries at least an id and a title.
func mapToPostData(m map[string]any) *platform.PostData {
	id, ok := numericID(m["id"])
	if !ok {
		return nil
	}
	title, ok := m["title"].(string)
	if !ok {
		return nil
	}
	post := &platform.PostData{ID: id, Title: title}
	if author, ok := m["author_username"].(string); ok {
		post.AuthorUsername = author
	}
	if content, ok := m["content"].(string); ok {
		post.Content = content
	}
	return post
}

// numericID normalizes json-decoded and native integer ids.
func numericID(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
