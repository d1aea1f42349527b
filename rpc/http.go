package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mintgate/core"
	"mintgate/native/gate"
	"mintgate/native/token"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
)

type Server struct {
	node   *core.Node
	auth   *Authenticator
	logger *slog.Logger
	http   *http.Server
}

// NewServer wires the RPC surface over a node. The mutating-method auth
// token is read from MINTGATE_RPC_TOKEN; an empty token disables the check.
func NewServer(node *core.Node, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		node:   node,
		auth:   NewAuthenticator(strings.TrimSpace(os.Getenv("MINTGATE_RPC_TOKEN")), strings.TrimSpace(os.Getenv("MINTGATE_JWT_SECRET"))),
		logger: logger,
	}
}

// Router builds the HTTP surface: JSON-RPC dispatch at the root, health and
// metrics probes, and the websocket event stream.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/ws/events", s.handleEventsWS)
	r.Post("/", s.handle)
	return r
}

// Start serves the router on addr and blocks until the listener fails or
// Shutdown is called.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info("starting JSON-RPC server", "addr", addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeGateError maps component sentinel errors onto JSON-RPC codes so
// clients can branch without parsing message strings.
func writeGateError(w http.ResponseWriter, id interface{}, err error) {
	code := codeServerError
	status := http.StatusOK
	switch {
	case errors.Is(err, gate.ErrUnauthorized):
		code = codeUnauthorized
		status = http.StatusForbidden
	case errors.Is(err, gate.ErrInvalidAddress),
		errors.Is(err, gate.ErrAlreadyAdmin),
		errors.Is(err, gate.ErrNotAdmin),
		errors.Is(err, gate.ErrOwnerAlreadyAdmin),
		errors.Is(err, gate.ErrInvalidQuantity),
		errors.Is(err, token.ErrLengthMismatch),
		errors.Is(err, token.ErrInvalidAmount):
		code = codeInvalidParams
	}
	writeError(w, status, id, code, err.Error(), nil)
}

var mutatingMethods = map[string]bool{
	"gate_addAdmin":            true,
	"gate_removeAdmin":         true,
	"gate_transferOwnership":   true,
	"gate_mint":                true,
	"gate_batchMint":           true,
	"gate_setTokenURI":         true,
	"gate_updateAsset":         true,
	"gate_updateThreshold":     true,
	"gate_updateMintableToken": true,
	"gate_updateMintQuantity":  true,
	"gate_fundBalance":         true,
}

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	if mutatingMethods[req.Method] {
		if authErr := s.auth.Require(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, authErr.Error(), nil)
			return
		}
	}

	switch req.Method {
	case "gate_addAdmin":
		s.handleAddAdmin(w, req)
	case "gate_removeAdmin":
		s.handleRemoveAdmin(w, req)
	case "gate_transferOwnership":
		s.handleTransferOwnership(w, req)
	case "gate_info":
		s.handleInfo(w, req)
	case "gate_isAuthorized":
		s.handleIsAuthorized(w, req)
	case "gate_mint":
		s.handleMint(w, req)
	case "gate_batchMint":
		s.handleBatchMint(w, req)
	case "gate_canMint":
		s.handleCanMint(w, req)
	case "gate_balance":
		s.handleBalance(w, req)
	case "gate_fundBalance":
		s.handleFundBalance(w, req)
	case "gate_tokenURI":
		s.handleTokenURI(w, req)
	case "gate_setTokenURI":
		s.handleSetTokenURI(w, req)
	case "gate_balanceOfToken":
		s.handleBalanceOfToken(w, req)
	case "gate_balanceOfTokenBatch":
		s.handleBalanceOfTokenBatch(w, req)
	case "gate_updateAsset":
		s.handleUpdateAsset(w, req)
	case "gate_updateThreshold":
		s.handleUpdateThreshold(w, req)
	case "gate_updateMintableToken":
		s.handleUpdateMintableToken(w, req)
	case "gate_updateMintQuantity":
		s.handleUpdateMintQuantity(w, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("method %q not found", req.Method), nil)
	}
}
