// Package api exposes the reader and the schema resolver over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/openstats/sdmx/csvreader"
	"github.com/openstats/sdmx/jsonreader"
	"github.com/openstats/sdmx/models/sdmx"
	"github.com/openstats/sdmx/sdmxerrors"
	"github.com/openstats/sdmx/xmlreader"
)

// SchemaResolver is the slice of the resolver the API needs.
type SchemaResolver interface {
	Schema(ctx context.Context, schemaContext, agency, id, version string) (*sdmx.Schema, error)
}

// ServerConfig holds the API server dependencies.
type ServerConfig struct {
	Resolver SchemaResolver
}

// Server routes HTTP requests to the readers and the resolver.
type Server struct {
	resolver SchemaResolver
	reader   *xmlreader.Reader
	log      zerolog.Logger
}

// NewServer builds the API server.
func NewServer(config ServerConfig, log zerolog.Logger) (*Server, error) {
	if config.Resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	return &Server{
		resolver: config.Resolver,
		reader:   xmlreader.NewReader(log),
		log:      log,
	}, nil
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/v2/schema/{context}/{agency}/{id}/{version}", s.handleSchema).Methods(http.MethodGet)
	router.HandleFunc("/v2/read", s.handleRead).Methods(http.MethodPost)
	return router
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	schema, err := s.resolver.Schema(r.Context(), vars["context"], vars["agency"], vars["id"], vars["version"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, schema)
}

// readResponse is the envelope of a read. Exactly one section is set,
// matching the payload kind.
type readResponse struct {
	Structures  *sdmx.Message                    `json:"structures,omitempty"`
	Submissions map[string]sdmx.SubmissionResult `json:"submissions,omitempty"`
	Datasets    map[string]*sdmx.Dataset         `json:"datasets,omitempty"`
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, sdmxerrors.Parsef("failed to read request body: %v", err))
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "xml"
	}

	var response readResponse
	switch format {
	case "xml":
		mode, err := parseMode(r.URL.Query().Get("mode"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		validate := r.URL.Query().Get("validate") == "true"
		result, err := s.reader.Read(body, xmlreader.Options{Mode: mode, Validate: validate})
		if err != nil {
			s.writeError(w, err)
			return
		}
		response = readResponse{
			Structures:  result.Structures,
			Submissions: result.Submissions,
			Datasets:    result.Datasets,
		}
	case "csv":
		datasets, err := csvreader.NewReader(s.log).Read(body)
		if err != nil {
			s.writeError(w, err)
			return
		}
		response = readResponse{Datasets: datasets}
	case "json":
		msg, err := jsonreader.NewReader(s.log).Read(body)
		if err != nil {
			s.writeError(w, err)
			return
		}
		response = readResponse{Structures: msg}
	default:
		s.writeError(w, sdmxerrors.Validationf("format", "unsupported format %q", format))
		return
	}
	s.writeJSON(w, http.StatusOK, response)
}

func parseMode(value string) (xmlreader.Mode, error) {
	switch value {
	case "", "auto":
		return xmlreader.ModeAuto, nil
	case "structure":
		return xmlreader.ModeStructure, nil
	case "submission":
		return xmlreader.ModeSubmission, nil
	case "error":
		return xmlreader.ModeError, nil
	case "genericdata":
		return xmlreader.ModeGenericData, nil
	case "structurespecificdata":
		return xmlreader.ModeStructureSpecificData, nil
	default:
		return xmlreader.ModeAuto, sdmxerrors.Validationf("mode", "unsupported mode %q", value)
	}
}

type errorResponse struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
}

// writeError maps the error taxonomy onto HTTP statuses. Registry errors
// keep the upstream status so callers see what the registry said.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var parseErr *sdmxerrors.ParseError
	var validationErr *sdmxerrors.ValidationError
	var unsupportedErr *sdmxerrors.UnsupportedConstructError
	var registryErr *sdmxerrors.RegistryError
	var resolutionErr *sdmxerrors.ResolutionError
	switch {
	case errors.As(err, &parseErr), errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &unsupportedErr):
		status = http.StatusNotImplemented
	case errors.As(err, &registryErr):
		status = registryErr.Status
		// WriteHeader panics outside 100-999; an upstream status we
		// cannot relay becomes a bad gateway.
		if status < 100 || status > 599 {
			status = http.StatusBadGateway
		}
	case errors.As(err, &resolutionErr):
		status = http.StatusBadGateway
	}

	s.log.Debug().Err(err).Int("status", status).Msg("Request failed")
	s.writeJSON(w, status, errorResponse{Status: status, Title: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}
