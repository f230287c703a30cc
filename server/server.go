//
// Synthetic Agora is pleased to support the open source community by making agora available.
//
// Copyright (C) 2026 Synthetic Agora.  All rights reserved.
//
// agora is licensed under the Apache License Version 2.0.
//
//

// Package server exposes the tool execution engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/synthetic-agora/agora/log"
	"github.com/synthetic-agora/agora/runtime"
	"github.com/synthetic-agora/agora/tool"
)

// Server wraps the executor with an HTTP API.
type Server struct {
	executor *runtime.Executor
	httpSrv  *http.Server
}

// Options configures New.
type Options struct {
	Addr           string
	AllowedOrigins []string
}

// New builds the HTTP server around an executor.
func New(executor *runtime.Executor, opts Options) *Server {
	s := &Server{executor: executor}

	router := mux.NewRouter()
	router.Use(requestLogMiddleware)
	router.HandleFunc("/v1/invoke", s.handleInvoke).Methods(http.MethodPost)
	router.HandleFunc("/v1/batch", s.handleBatch).Methods(http.MethodPost)
	router.HandleFunc("/v1/tools", s.handleTools).Methods(http.MethodGet)
	router.HandleFunc("/v1/agents/{agent}/context", s.handleContext).Methods(http.MethodGet)
	router.HandleFunc("/v1/agents/{agent}/history", s.handleForget).Methods(http.MethodDelete)
	router.HandleFunc("/v1/agents/history", s.handleForgetAll).Methods(http.MethodDelete)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	handler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(router)

	s.httpSrv = &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving HTTP until Shutdown or a listener error.
func (s *Server) ListenAndServe() error {
	log.Infof("http server listening on %s", s.httpSrv.Addr)
	return s.httpSrv.ListenAndServe()
}

// Shutdown drains in-flight requests and closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// invokeRequest is the body of POST /v1/invoke.
type invokeRequest struct {
	Agent      string         `json:"agent"`
	Tool       string         `json:"tool"`
	Parameters map[string]any `json:"parameters"`
}

// batchRequest is the body of POST /v1/batch. Agents pair with calls
// positionally; entry k may belong to a different agent than entry k+1.
type batchRequest struct {
	Agents []string    `json:"agents"`
	Calls  []tool.Call `json:"calls"`
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	var req invokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	resp := s.executor.Invoke(r.Context(), req.Agent, tool.Call{
		Tool:       req.Tool,
		Parameters: req.Parameters,
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	responses := s.executor.InvokeAll(r.Context(), req.Agents, req.Calls)
	writeJSON(w, http.StatusOK, map[string]any{"responses": responses})
}

func (s *Server) handleTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": s.executor.Tools()})
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	agent := mux.Vars(r)["agent"]
	writeJSON(w, http.StatusOK, s.executor.Context(agent))
}

func (s *Server) handleForget(w http.ResponseWriter, r *http.Request) {
	agent := mux.Vars(r)["agent"]
	s.executor.Forget(agent)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleForgetAll(w http.ResponseWriter, _ *http.Request) {
	s.executor.ForgetAll()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogMiddleware tags every request with an id and logs its
// outcome.
func requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debugf("http %s %s id=%s elapsed=%s", r.Method, r.URL.Path, requestID, time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
