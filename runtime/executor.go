//
// Synthetic Agora is pleased to support the open source community by making agora available.
//
// Copyright (C) 2026 Synthetic Agora.  All rights reserved.
//
// agora is licensed under the Apache License Version 2.0.
//
//

package runtime

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/synthetic-agora/agora/envelope"
	"github.com/synthetic-agora/agora/log"
	"github.com/synthetic-agora/agora/platform"
	"github.com/synthetic-agora/agora/tool"
)

// agentState pairs an agent's history log with the mutex that
// serializes that agent's invocations. Different agents proceed in
// parallel; one agent's calls are strictly ordered.
type agentState struct {
	mu      sync.Mutex
	tracker *Tracker
}

// Executor is the tool execution engine. It validates calls, binds
// arguments from call parameters and agent history, dispatches to the
// registered platform services inside a transaction, and records every
// executed call in the calling agent's history log.
type Executor struct {
	db       *platform.Database
	registry *tool.Registry

	mu       sync.RWMutex
	services map[string]platform.Service
	agents   map[string]*agentState
}

// ExecOption configures New.
type ExecOption func(*Executor)

// WithRegistry replaces the default builtin tool registry.
func WithRegistry(registry *tool.Registry) ExecOption {
	return func(e *Executor) {
		e.registry = registry
	}
}

// New builds an executor over the given database. A nil database is
// allowed for registries of pure in-process services.
func New(db *platform.Database, opts ...ExecOption) *Executor {
	e := &Executor{
		db:       db,
		registry: tool.NewRegistry(),
		services: platform.Directory(),
		agents:   make(map[string]*agentState),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the executor's tool catalog.
func (e *Executor) Registry() *tool.Registry {
	return e.registry
}

// RegisterTool adds or replaces a tool definition at runtime.
func (e *Executor) RegisterTool(def *tool.Definition) {
	e.registry.Register(def)
}

// RegisterService adds or replaces a backend service at runtime.
func (e *Executor) RegisterService(name string, svc platform.Service) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.services[name] = svc
}

// Tools exports the agent-facing schema of every registered tool.
func (e *Executor) Tools() []tool.Schema {
	return e.registry.Schemas()
}

// Invoke executes one tool call on behalf of agent and returns the
// uniform response envelope. Malformed calls and unknown tools are
// rejected without touching the agent's history; every executed call,
// successful or not, is recorded.
func (e *Executor) Invoke(ctx context.Context, agent string, call tool.Call) *envelope.Response {
	if call.Tool == "" {
		return e.invalidCall(call, "Invalid tool call: missing 'tool' field")
	}
	if len(call.Parameters) == 0 {
		return e.invalidCall(call, "Invalid tool call: missing or empty 'parameters' field")
	}
	if agent == "" {
		return e.invalidCall(call, "Invalid tool call: agent username is required")
	}

	def, ok := e.registry.Lookup(call.Tool)
	if !ok {
		return e.invalidCall(call, fmt.Sprintf("Unknown tool: %s", call.Tool))
	}

	state := e.agentState(agent)
	state.mu.Lock()
	defer state.mu.Unlock()

	args, bindErr := e.bind(def, state.tracker, call.Parameters)
	if bindErr != nil {
		result := envelope.Fail(bindErr.Error())
		state.tracker.Record(call.Tool, call.Parameters, result)
		return result
	}

	e.mu.RLock()
	svc, ok := e.services[def.Service]
	e.mu.RUnlock()
	if !ok {
		result := envelope.Failf("Service not available: %s", def.Service)
		state.tracker.Record(call.Tool, call.Parameters, result)
		return result
	}

	raw, err := e.execute(ctx, svc, args)
	result := normalize(call.Tool, raw, err)
	if def.Formatter != nil {
		result = def.Formatter(result)
	}
	state.tracker.Record(call.Tool, call.Parameters, result)

	log.Debugf("invoke agent=%s tool=%s success=%t", agent, call.Tool, result.Succeeded())
	return result
}

// InvokeAll pairs agents and calls positionally and executes the pairs
// sequentially; entry k may belong to a different agent than entry k+1.
// Pairing stops at the shorter slice. A failed call does not stop the
// batch; responses are positional.
func (e *Executor) InvokeAll(ctx context.Context, agents []string, calls []tool.Call) []*envelope.Response {
	n := len(agents)
	if len(calls) < n {
		n = len(calls)
	}
	responses := make([]*envelope.Response, 0, n)
	for i := 0; i < n; i++ {
		responses = append(responses, e.Invoke(ctx, agents[i], calls[i]))
	}
	return responses
}

// Context summarizes the agent's recent activity.
func (e *Executor) Context(agent string) *AgentContext {
	state := e.agentState(agent)
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.tracker.Context()
}

// History returns a copy of the agent's full history log.
func (e *Executor) History(agent string) []*Record {
	state := e.agentState(agent)
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.tracker.Records()
}

// Forget discards one agent's history.
func (e *Executor) Forget(agent string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.agents, agent)
}

// ForgetAll discards every agent's history.
func (e *Executor) ForgetAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.agents = make(map[string]*agentState)
}

// agentState returns the state for agent, creating it on first use.
func (e *Executor) agentState(agent string) *agentState {
	e.mu.RLock()
	state, ok := e.agents[agent]
	e.mu.RUnlock()
	if ok {
		return state
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if state, ok = e.agents[agent]; ok {
		return state
	}
	state = &agentState{tracker: NewTracker(agent)}
	e.agents[agent] = state
	return state
}

// bind maps the call's parameters onto the service's argument names.
// An explicitly supplied parameter always wins and is taken verbatim,
// null included; context parameters are resolved from the agent's
// identity and history; anything still missing fails the call unless
// the parameter is declared optional.
func (e *Executor) bind(def *tool.Definition, tracker *Tracker, params map[string]any) (map[string]any, error) {
	args := make(map[string]any, len(def.Arguments))
	for serviceArg, paramName := range def.Arguments {
		if value, ok := params[paramName]; ok {
			args[serviceArg] = value
			continue
		}
		if def.IsContextParam(paramName) {
			value, ok := tracker.Resolve(paramName, params)
			if !ok {
				return nil, resolutionError(paramName, params)
			}
			args[serviceArg] = value
			continue
		}
		if decl, declared := def.Parameters[paramName]; declared && decl.Optional {
			continue
		}
		return nil, fmt.Errorf("Missing required parameter: %s", paramName)
	}
	return args, nil
}

// resolutionError describes an unresolvable context parameter in terms
// the agent can act on.
func resolutionError(paramName string, params map[string]any) error {
	switch paramName {
	case tool.ParamTargetPostID:
		if title, ok := params["title"].(string); ok && title != "" {
			return fmt.Errorf("Could not find post with title %q in recent activity", title)
		}
		return fmt.Errorf("Missing required parameter: title")
	case tool.ParamTargetUserID:
		if username, ok := params["username"].(string); ok && username != "" {
			return fmt.Errorf("Could not find user @%s in recent activity", username)
		}
		return fmt.Errorf("Missing required parameter: username")
	default:
		return fmt.Errorf("Could not resolve context parameter: %s", paramName)
	}
}

// execute runs the service, inside a transaction when a database is
// configured. Panics in a service are contained and surfaced as errors.
func (e *Executor) execute(ctx context.Context, svc platform.Service, args map[string]any) (raw any, err error) {
	defer func() {
		if r := recover(); r != nil {
			raw, err = nil, fmt.Errorf("tool execution panicked: %v", r)
		}
	}()

	if e.db == nil {
		return svc(nil, args)
	}
	txErr := e.db.Transaction(func(tx *gorm.DB) error {
		raw, err = svc(tx.WithContext(ctx), args)
		if err != nil {
			return err
		}
		if resp, ok := raw.(*envelope.Response); ok && !resp.Succeeded() {
			// Failed business operations roll back their writes but
			// still produce a response.
			return errRollback
		}
		return nil
	})
	if txErr != nil && txErr != errRollback {
		return nil, txErr
	}
	return raw, err
}

// errRollback aborts a transaction for a business-level failure whose
// envelope is still returned to the agent.
var errRollback = fmt.Errorf("rollback")

// normalize turns whatever a service produced into the uniform
// envelope: errors and nil results become failures, envelopes pass
// through, and any other value is wrapped as a success.
func normalize(toolName string, raw any, err error) *envelope.Response {
	if err != nil {
		return envelope.Failf("Tool execution failed: %v", err)
	}
	if raw == nil {
		return envelope.Failf("Tool %s returned no result", toolName)
	}
	if resp, ok := raw.(*envelope.Response); ok {
		return resp
	}
	return envelope.OK(fmt.Sprintf("Tool %s executed successfully", toolName), raw)
}

// invalidCall builds the rejection envelope for malformed or unknown
// calls: the catalog of available tools, the expected call shape, and
// the offending input echoed back.
func (e *Executor) invalidCall(call tool.Call, message string) *envelope.Response {
	log.Warnf("rejected tool call %q: %s", call.Tool, message)
	return &envelope.Response{
		Success: false,
		Message: message,
		Data: map[string]any{
			"available_tools": e.registry.Names(),
			"tool_call_format": map[string]string{
				"tool":       "string (tool name)",
				"parameters": "object (tool-specific parameters)",
			},
			"suggestion": "Check the tool name and provide a parameters object",
		},
		Tool:       call.Tool,
		Parameters: call.Parameters,
	}
}
