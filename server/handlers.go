package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agentledger/memvault/core"
)

type storeMemoryRequest struct {
	UserAddress string `json:"user_address"`
	Topic       string `json:"topic"`
	Content     string `json:"content"`
}

type storeMemoryResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	TxHash  string `json:"tx_hash"`
}

// handleStoreMemory appends a fact under (user_address, topic). Request
// validation failures are 400s and never touch the ledger.
func (s *Server) handleStoreMemory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusNotFound, errorResponse{Success: false, Error: "not found"})
		return
	}

	var req storeMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Success: false, Error: "invalid JSON body"})
		return
	}
	if msg, ok := validateStoreRequest(req); !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Success: false, Error: msg})
		return
	}

	owner := core.Address(req.UserAddress)
	txHash, err := s.writer.Store(r.Context(), owner, core.DeriveTopicKey(req.Topic), req.Content)
	if err != nil {
		s.log.Error().Err(err).Str("topic", req.Topic).Msg("store-memory failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Success: false, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, storeMemoryResponse{
		Success: true,
		Message: "memory append submitted",
		TxHash:  txHash,
	})
}

func validateStoreRequest(req storeMemoryRequest) (string, bool) {
	switch {
	case req.UserAddress == "":
		return "user_address is required", false
	case req.Topic == "":
		return "topic is required", false
	case req.Content == "":
		return "content is required", false
	case !core.Address(req.UserAddress).Valid():
		return "user_address is not a valid address", false
	}
	return "", true
}

type getMemoryRequest struct {
	UserAddress string `json:"user_address"`
	Topic       string `json:"topic"`
}

type getMemoryResponse struct {
	Success   bool         `json:"success"`
	Timestamp int64        `json:"timestamp"`
	Writer    core.Address `json:"writer"`
	Content   string       `json:"content"`
}

// handleGetMemory returns the latest record for (user_address, topic).
func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusNotFound, errorResponse{Success: false, Error: "not found"})
		return
	}

	var req getMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Success: false, Error: "invalid JSON body"})
		return
	}
	switch {
	case req.UserAddress == "":
		writeJSON(w, http.StatusBadRequest, errorResponse{Success: false, Error: "user_address is required"})
		return
	case req.Topic == "":
		writeJSON(w, http.StatusBadRequest, errorResponse{Success: false, Error: "topic is required"})
		return
	case !core.Address(req.UserAddress).Valid():
		writeJSON(w, http.StatusBadRequest, errorResponse{Success: false, Error: "user_address is not a valid address"})
		return
	}

	owner := core.Address(req.UserAddress)
	rec, err := s.reader.GetLatest(r.Context(), owner, core.DeriveTopicKey(req.Topic))
	if err != nil {
		status := http.StatusInternalServerError
		var re *core.ReadError
		if errors.As(err, &re) {
			status = http.StatusBadGateway
		}
		s.log.Error().Err(err).Str("topic", req.Topic).Msg("get-memory failed")
		writeJSON(w, status, errorResponse{Success: false, Error: err.Error()})
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Success: false, Error: "no memory stored for this topic"})
		return
	}

	writeJSON(w, http.StatusOK, getMemoryResponse{
		Success:   true,
		Timestamp: rec.Timestamp,
		Writer:    rec.Writer,
		Content:   rec.Content,
	})
}
