package core

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

type Server struct {
	authService *AuthService
	repo        Repository
	config      *Config
	logger      zerolog.Logger
}

func NewServer(authService *AuthService, repo Repository, config *Config, logger zerolog.Logger) *Server {
	return &Server{
		authService: authService,
		repo:        repo,
		config:      config,
		logger:      logger,
	}
}

// Routes wires the handlers onto a mux. /user is the protected surface;
// every request through it passes the session verifier.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth", s.HandleAuth)
	mux.HandleFunc("/auth/info", s.HandleAuthInfo)
	mux.Handle("/user", RequireSession(s.config.JWTSecret, s.logger, http.HandlerFunc(s.HandleUser)))
	mux.HandleFunc("/health", s.HandleHealth)
	return mux
}

// HandleAuth exchanges a one-time authorization code for a session
// token. All failure branches collapse to a generic 500 on the wire;
// the distinction lives in the server log.
func (s *Server) HandleAuth(w http.ResponseWriter, r *http.Request) {
	if !validateMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Code string `json:"code"`
	}

	if !decodeJSON(w, r, &req) {
		return
	}

	sessionToken, err := s.authService.ExchangeCode(r.Context(), req.Code)
	if err != nil {
		event := s.logger.Error().Err(err)
		switch {
		case errors.Is(err, ErrProviderExchange), errors.Is(err, ErrProviderProfile), errors.Is(err, ErrCodeAlreadyUsed):
			event.Msg("upstream auth failure during code exchange")
		default:
			event.Msg("internal failure during code exchange")
		}
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// The body is the bare token, JSON-encoded, as existing clients expect.
	respondJSON(w, http.StatusOK, sessionToken)
}

// HandleAuthInfo serves the unauthenticated user-existence check used by
// the client bootstrap (GET) and the signup path (POST).
func (s *Server) HandleAuthInfo(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleAuthInfoLookup(w, r)
	case http.MethodPost:
		s.handleAuthInfoCreate(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type userRef struct {
	UID string `json:"u_id"`
}

func (s *Server) handleAuthInfoLookup(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("user_id")

	result := []userRef{}
	if uid != "" {
		user, err := s.repo.FindByUID(r.Context(), uid)
		switch {
		case err == nil:
			result = append(result, userRef{UID: user.UID})
		case errors.Is(err, ErrNotFound):
			// Absent user is an empty result, not an error.
		default:
			s.logger.Error().Err(err).Str("u_id", uid).Msg("user lookup failed")
			respondError(w, http.StatusInternalServerError, "Error retrieving user info")
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"result": result})
}

func (s *Server) handleAuthInfoCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"user_id"`
		UserName string `json:"user_name"`
	}

	if !decodeJSON(w, r, &req) {
		return
	}

	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	user := &User{UID: req.UserID, Name: req.UserName}
	if err := s.repo.CreateUser(r.Context(), user); err != nil {
		s.logger.Error().Err(err).Str("u_id", req.UserID).Msg("user insert failed")
		respondError(w, http.StatusInternalServerError, "Error inserting user info")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"result": userRef{UID: user.UID},
	})
}

// HandleUser serves the acting user's own row. The uid comes from the
// verified session, never from the request.
func (s *Server) HandleUser(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleGetUser(w, r)
	case http.MethodPut:
		s.handleUpdateUser(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	uid, ok := UIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Invalid token.")
		return
	}

	user, err := s.repo.FindByUID(r.Context(), uid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Token outlived the row; the verifier does not re-check
			// existence, so this is where staleness surfaces.
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		s.logger.Error().Err(err).Str("u_id", uid).Msg("user fetch failed")
		respondError(w, http.StatusInternalServerError, "Error retrieving user data")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	uid, ok := UIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Invalid token.")
		return
	}

	var update ProfileUpdate
	if !decodeJSON(w, r, &update) {
		return
	}

	if err := s.repo.UpdateProfile(r.Context(), uid, update); err != nil {
		if errors.Is(err, ErrNotFound) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		s.logger.Error().Err(err).Str("u_id", uid).Msg("profile update failed")
		respondError(w, http.StatusInternalServerError, "Error updating user data")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "User data updated successfully.",
	})
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Helper functions

func validateMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, map[string]string{
		"message": message,
	})
}
