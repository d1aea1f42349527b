package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"

	"mintgate/crypto"
	"mintgate/native/gate"
)

func parseParams(req *RPCRequest, target interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("expected exactly one params object")
	}
	return json.Unmarshal(req.Params[0], target)
}

func parseAddr(value string) ([20]byte, error) {
	var out [20]byte
	decoded, err := crypto.DecodeAddress(value)
	if err != nil {
		return out, err
	}
	copy(out[:], decoded.Bytes())
	return out, nil
}

func addrToString(addr [20]byte) string {
	return crypto.MustNewAddress(crypto.MGTPrefix, addr[:]).String()
}

func addrsToStrings(addrs [][20]byte) []string {
	out := make([]string, len(addrs))
	for i, addr := range addrs {
		out[i] = addrToString(addr)
	}
	return out
}

type adminParams struct {
	Caller string `json:"caller"`
	Admin  string `json:"admin"`
}

func (s *Server) handleAddAdmin(w http.ResponseWriter, req *RPCRequest) {
	var params adminParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := parseAddr(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	admin, err := parseAddr(params.Admin)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid admin address", err.Error())
		return
	}
	if err := s.node.AddAdmin(caller, admin); err != nil {
		writeGateError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleRemoveAdmin(w http.ResponseWriter, req *RPCRequest) {
	var params adminParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := parseAddr(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	admin, err := parseAddr(params.Admin)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid admin address", err.Error())
		return
	}
	if err := s.node.RemoveAdmin(caller, admin); err != nil {
		writeGateError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

type transferParams struct {
	Caller   string `json:"caller"`
	NewOwner string `json:"newOwner"`
}

func (s *Server) handleTransferOwnership(w http.ResponseWriter, req *RPCRequest) {
	var params transferParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := parseAddr(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	newOwner, err := parseAddr(params.NewOwner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid newOwner address", err.Error())
		return
	}
	if err := s.node.TransferOwnership(caller, newOwner); err != nil {
		writeGateError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

type infoResult struct {
	Owner         string   `json:"owner"`
	Admins        []string `json:"admins"`
	AdminCount    uint64   `json:"adminCount"`
	Asset         string   `json:"asset"`
	Threshold     string   `json:"threshold"`
	TokenID       uint64   `json:"tokenId"`
	Quantity      uint64   `json:"quantity"`
	TotalIssued   string   `json:"totalIssued"`
	EventSequence uint64   `json:"eventSequence"`
}

func (s *Server) handleInfo(w http.ResponseWriter, req *RPCRequest) {
	owner, err := s.node.Owner()
	if err != nil {
		writeGateError(w, req.ID, err)
		return
	}
	admins, err := s.node.Admins()
	if err != nil {
		writeGateError(w, req.ID, err)
		return
	}
	cfg, err := s.node.Config()
	if err != nil {
		writeGateError(w, req.ID, err)
		return
	}
	total, err := s.node.TotalIssued()
	if err != nil {
		writeGateError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, infoResult{
		Owner:         addrToString(owner),
		Admins:        addrsToStrings(admins),
		AdminCount:    uint64(len(admins)),
		Asset:         addrToString(cfg.Asset),
		Threshold:     cfg.Threshold.String(),
		TokenID:       cfg.TokenID,
		Quantity:      cfg.Quantity,
		TotalIssued:   total.String(),
		EventSequence: s.node.EventSequence(),
	})
}

type addressParams struct {
	Address string `json:"address"`
}

func (s *Server) handleIsAuthorized(w http.ResponseWriter, req *RPCRequest) {
	var params addressParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	addr, err := parseAddr(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	ok, err := s.node.IsAuthorized(addr)
	if err != nil {
		writeGateError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"authorized": ok})
}

type callerParams struct {
	Caller string `json:"caller"`
}

type mintResult struct {
	To       string `json:"to"`
	TokenID  uint64 `json:"tokenId"`
	Quantity uint64 `json:"quantity"`
}

func (s *Server) handleMint(w http.ResponseWriter, req *RPCRequest) {
	var params callerParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := parseAddr(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	receipt, err := s.node.SelfMint(caller)
	if err != nil {
		writeGateError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, mintResult{
		To:       addrToString(receipt.To),
		TokenID:  receipt.TokenID,
		Quantity: receipt.Quantity,
	})
}

type batchMintParams struct {
	Caller     string   `json:"caller"`
	Recipients []string `json:"recipients"`
}

type batchMintResult struct {
	BatchID string   `json:"batchId"`
	Issued  []string `json:"issued"`
	Skipped []string `json:"skipped"`
}

func batchResultPayload(result *gate.BatchResult) *batchMintResult {
	if result == nil {
		return nil
	}
	return &batchMintResult{
		BatchID: result.BatchID,
		Issued:  addrsToStrings(result.Issued),
		Skipped: addrsToStrings(result.Skipped),
	}
}

func (s *Server) handleBatchMint(w http.ResponseWriter, req *RPCRequest) {
	var params batchMintParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := parseAddr(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	recipients := make([][20]byte, 0, len(params.Recipients))
	for _, raw := range params.Recipients {
		addr, err := parseAddr(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid recipient address", err.Error())
			return
		}
		recipients = append(recipients, addr)
	}
	result, err := s.node.BatchMint(caller, recipients)
	if err != nil {
		// a failed entry still reports the portion that landed
		writeError(w, http.StatusOK, req.ID, codeServerError, err.Error(), batchResultPayload(result))
		return
	}
	writeResult(w, req.ID, batchResultPayload(result))
}

func (s *Server) handleCanMint(w http.ResponseWriter, req *RPCRequest) {
	var params addressParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	addr, err := parseAddr(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	ok, err := s.node.CanSelfMint(addr)
	if err != nil {
		writeGateError(w, req.ID, err)
		return
	}
	minted, err := s.node.HasMinted(addr)
	if err != nil {
		writeGateError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"canMint": ok, "hasMinted": minted})
}

type balanceResult struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

func (s *Server) handleBalance(w http.ResponseWriter, req *RPCRequest) {
	var params addressParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	addr, err := parseAddr(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	balance, err := s.node.Balance(addr)
	if err != nil {
		writeGateError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, balanceResult{Address: params.Address, Balance: balance.String()})
}

type fundParams struct {
	Caller string `json:"caller"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (s *Server) handleFundBalance(w http.ResponseWriter, req *RPCRequest) {
	var params fundParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := parseAddr(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	to, err := parseAddr(params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid to address", err.Error())
		return
	}
	amount, ok := new(big.Int).SetString(params.Amount, 10)
	if !ok {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid amount", params.Amount)
		return
	}
	if err := s.node.FundBalance(caller, to, amount); err != nil {
		writeGateError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

type tokenParams struct {
	TokenID uint64 `json:"tokenId"`
}

func (s *Server) handleTokenURI(w http.ResponseWriter, req *RPCRequest) {
	var params tokenParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	uri, err := s.node.TokenURI(params.TokenID)
	if err != nil {
		writeGateError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"tokenId": params.TokenID, "uri": uri})
}

type setURIParams struct {
	Caller  string `json:"caller"`
	TokenID uint64 `json:"tokenId"`
	Prefix  string `json:"prefix"`
}

func (s *Server) handleSetTokenURI(w http.ResponseWriter, req *RPCRequest) {
	var params setURIParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := parseAddr(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.node.SetTokenURI(caller, params.TokenID, params.Prefix); err != nil {
		writeGateError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

type tokenBalanceParams struct {
	Address string `json:"address"`
	TokenID uint64 `json:"tokenId"`
}

func (s *Server) handleBalanceOfToken(w http.ResponseWriter, req *RPCRequest) {
	var params tokenBalanceParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	addr, err := parseAddr(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	units, err := s.node.BalanceOfToken(addr, params.TokenID)
	if err != nil {
		writeGateError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"balance": units})
}

type tokenBatchParams struct {
	Accounts []string `json:"accounts"`
	TokenIDs []uint64 `json:"tokenIds"`
}

func (s *Server) handleBalanceOfTokenBatch(w http.ResponseWriter, req *RPCRequest) {
	var params tokenBatchParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	accounts := make([][20]byte, 0, len(params.Accounts))
	for _, raw := range params.Accounts {
		addr, err := parseAddr(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid account address", err.Error())
			return
		}
		accounts = append(accounts, addr)
	}
	balances, err := s.node.BalanceOfTokenBatch(accounts, params.TokenIDs)
	if err != nil {
		writeGateError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string][]uint64{"balances": balances})
}

type updateAssetParams struct {
	Caller string `json:"caller"`
	Asset  string `json:"asset"`
}

func (s *Server) handleUpdateAsset(w http.ResponseWriter, req *RPCRequest) {
	var params updateAssetParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := parseAddr(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	asset, err := parseAddr(params.Asset)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid asset address", err.Error())
		return
	}
	if err := s.node.UpdateAsset(caller, asset); err != nil {
		writeGateError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

type updateThresholdParams struct {
	Caller    string `json:"caller"`
	Threshold string `json:"threshold"`
}

func (s *Server) handleUpdateThreshold(w http.ResponseWriter, req *RPCRequest) {
	var params updateThresholdParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := parseAddr(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	threshold, ok := new(big.Int).SetString(params.Threshold, 10)
	if !ok {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid threshold", params.Threshold)
		return
	}
	if err := s.node.UpdateThreshold(caller, threshold); err != nil {
		writeGateError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

type updateTokenParams struct {
	Caller  string `json:"caller"`
	TokenID uint64 `json:"tokenId"`
}

func (s *Server) handleUpdateMintableToken(w http.ResponseWriter, req *RPCRequest) {
	var params updateTokenParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := parseAddr(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.node.UpdateMintableToken(caller, params.TokenID); err != nil {
		writeGateError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

type updateQuantityParams struct {
	Caller   string `json:"caller"`
	Quantity uint64 `json:"quantity"`
}

func (s *Server) handleUpdateMintQuantity(w http.ResponseWriter, req *RPCRequest) {
	var params updateQuantityParams
	if err := parseParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := parseAddr(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.node.UpdateMintQuantity(caller, params.Quantity); err != nil {
		writeGateError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}
