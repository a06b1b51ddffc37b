package server

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/matzehuels/autolayout/pkg/buildinfo"
	"github.com/matzehuels/autolayout/pkg/errors"
	"github.com/matzehuels/autolayout/pkg/model"
	"github.com/matzehuels/autolayout/pkg/pipeline"
	"github.com/matzehuels/autolayout/pkg/workspaceio"
)

// layoutRequest is the body of /v1/layout and /v1/dot.
type layoutRequest struct {
	Workspace json.RawMessage  `json:"workspace"`
	Options   pipeline.Options `json:"options"`
}

// layoutResponse is the body returned by /v1/layout.
type layoutResponse struct {
	Workspace *model.Workspace       `json:"workspace"`
	Results   []*pipeline.ViewResult `json:"results"`
}

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	ws, opts, err := s.decode(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	results, err := s.runner.ApplyWorkspace(r.Context(), ws, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, layoutResponse{Workspace: ws, Results: results})
}

func (s *Server) handleDot(w http.ResponseWriter, r *http.Request) {
	ws, opts, err := s.decode(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(opts.Views) != 1 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "exactly one view query parameter is required"))
		return
	}
	if err := opts.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := ws.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	key := opts.Views[0]
	vc, err := model.NewViewContext(ws, key)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	_, desc, err := s.runner.Describe(vc, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(desc)
}

// decode reads the workspace and options of a request.
func (s *Server) decode(r *http.Request) (*model.Workspace, pipeline.Options, error) {
	var req layoutRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, pipeline.Options{}, err
		}
		return nil, pipeline.Options{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request")
	}
	if len(req.Workspace) == 0 || string(req.Workspace) == "null" {
		return nil, pipeline.Options{}, errors.New(errors.ErrCodeInvalidInput, "request has no workspace")
	}

	ws, err := workspaceio.Read(bytes.NewReader(req.Workspace), workspaceio.FormatJSON)
	if err != nil {
		return nil, pipeline.Options{}, err
	}
	return ws, s.requestOptions(req.Options, r.URL.Query()["view"]), nil
}

// statusCode maps an error to the HTTP status reported for it.
func statusCode(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case stderrors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, errors.ErrCodeViewNotFound):
		return http.StatusNotFound
	case errors.IsInput(err):
		return http.StatusBadRequest
	case errors.IsEngine(err), errors.IsGeometry(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorCode returns the machine-readable code reported for err.
func errorCode(err error) errors.Code {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return errors.ErrCodeInvalidInput
	}
	if code := errors.GetCode(err); code != "" {
		return code
	}
	return errors.ErrCodeInternal
}

// errorMessage returns the message of err without its code prefix.
func errorMessage(err error) string {
	var e *errors.Error
	if stderrors.As(err, &e) && e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return errors.UserMessage(err)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusCode(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	reportError(r, err)
	writeJSON(w, status, errorBody{Error: errorDetail{
		Code:    string(errorCode(err)),
		Message: errorMessage(err),
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
