package server

import (
	"encoding/json"
	"errors"
	"net/http"

	perrors "github.com/matzehuels/primgen/pkg/errors"
	"github.com/matzehuels/primgen/pkg/observability"
	"github.com/matzehuels/primgen/pkg/pipeline"
	"github.com/matzehuels/primgen/pkg/transform"
)

// ExpandRequest is the body of POST /v1/expand.
type ExpandRequest struct {
	Text string `json:"text"`

	// Rules are inline rule specs, applied after Use.
	Rules []transform.Spec `json:"rules,omitempty"`

	// Use names manifest rules, applied first in the listed order.
	Use []string `json:"use,omitempty"`

	Substitutions map[string]string `json:"substitutions,omitempty"`
	Refresh       bool              `json:"refresh,omitempty"`
}

// ExpandResponse is the body of a successful expansion.
type ExpandResponse struct {
	Output    string `json:"output"`
	Cached    bool   `json:"cached"`
	RequestID string `json:"request_id"`
}

// RuleInfo describes one manifest rule.
type RuleInfo struct {
	Name    string         `json:"name"`
	Kind    transform.Kind `json:"kind"`
	Pattern string         `json:"pattern"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	rules := make([]RuleInfo, len(s.manifest.Rules))
	for i, spec := range s.manifest.Rules {
		rules[i] = RuleInfo{Name: spec.Name, Kind: spec.Kind, Pattern: spec.Pattern}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": rules})
}

func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	var req ExpandRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{
				Code:      string(perrors.ErrCodeInvalidInput),
				Message:   "request body too large",
				RequestID: RequestIDFrom(r.Context()),
			})
			return
		}
		writeError(w, r, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "decode request"))
		return
	}

	specs, err := s.manifest.RuleSpecs(req.Use)
	if err != nil {
		writeError(w, r, err)
		return
	}
	specs = append(specs, req.Rules...)

	out, cached, err := s.runner.Expand(r.Context(), pipeline.ExpandRequest{
		Text:          req.Text,
		Rules:         specs,
		Substitutions: req.Substitutions,
		Refresh:       req.Refresh,
		Template:      "api",
	})
	if err != nil {
		observability.HTTP().OnError(r.Context(), r.Method, r.URL.Path, err)
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ExpandResponse{
		Output:    out,
		Cached:    cached,
		RequestID: RequestIDFrom(r.Context()),
	})
}
