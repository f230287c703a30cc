//
// Synthetic Agora is pleased to support the open source community by making agora available.
//
// Copyright (C) 2026 Synthetic Agora.  All rights reserved.
//
// agora is licensed under the Apache License Version 2.0.
//
//

// Package tool defines the catalog of tools available to agents: the
// declarative tool definitions, the machine-readable schemas exported to
// agents, and the thread-safe registry that holds them.
package tool

import (
	"sort"

	"github.com/synthetic-agora/agora/envelope"
)

// Parameter declares one named parameter of a tool.
type Parameter struct {
	// Type is the JSON type advertised to agents ("string", "integer", ...).
	Type string
	// Description tells the agent what the parameter means.
	Description string
	// Optional marks parameters the agent may omit.
	Optional bool
	// Default is advertised alongside optional parameters. It is purely
	// informational: binding never injects it.
	Default any
	// Enum restricts the advertised value set.
	Enum []string
}

// Formatter post-processes a service response before it is returned to
// the agent. Formatters run only on success; failures pass through.
type Formatter func(*envelope.Response) *envelope.Response

// Definition is a complete declarative tool: what the agent sees, which
// backend service implements it, and how agent-facing parameter names
// map to service argument names.
type Definition struct {
	// Name is the unique tool name agents call.
	Name string
	// Description is shown to agents in the exported schema.
	Description string
	// Parameters declares the agent-facing parameters by name.
	Parameters map[string]Parameter
	// Service names the backend operation this tool dispatches to.
	Service string
	// Arguments maps service argument names to agent-facing parameter
	// names. Parameter names listed in ContextParams are resolved from
	// the agent's history instead of the call.
	Arguments map[string]string
	// ContextParams lists the parameter names filled from agent context
	// rather than from the call's parameters.
	ContextParams []string
	// Formatter optionally reshapes successful service responses.
	Formatter Formatter
}

// IsContextParam reports whether name is resolved from agent context.
func (d *Definition) IsContextParam(name string) bool {
	for _, p := range d.ContextParams {
		if p == name {
			return true
		}
	}
	return false
}

// Call is one tool invocation request as submitted by an agent.
type Call struct {
	Tool       string         `json:"tool"`
	Parameters map[string]any `json:"parameters"`
}

// Property describes one parameter in the exported schema.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Default     any      `json:"default,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// ParameterSchema is the JSON-schema-shaped parameter block of an
// exported tool.
type ParameterSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

// Schema is the agent-facing description of one tool.
type Schema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  ParameterSchema `json:"parameters"`
}

// Schema exports the definition in the shape agents consume. Context
// parameters are excluded: agents never supply them.
func (d *Definition) Schema() Schema {
	properties := make(map[string]Property, len(d.Parameters))
	required := make([]string, 0, len(d.Parameters))
	for name, param := range d.Parameters {
		if d.IsContextParam(name) {
			continue
		}
		properties[name] = Property{
			Type:        param.Type,
			Description: param.Description,
			Default:     param.Default,
			Enum:        param.Enum,
		}
		if !param.Optional {
			required = append(required, name)
		}
	}
	sort.Strings(required)
	return Schema{
		Name:        d.Name,
		Description: d.Description,
		Parameters: ParameterSchema{
			Type:       "object",
			Properties: properties,
			Required:   required,
		},
	}
}
