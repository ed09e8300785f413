package rpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/mintgate-io/mintgate/internal/escrow"
	"github.com/mintgate-io/mintgate/internal/ledger"
	"github.com/mintgate-io/mintgate/internal/token"
	"github.com/mintgate-io/mintgate/internal/treasury"
	"github.com/mintgate-io/mintgate/pkg/crypto"
	"github.com/mintgate-io/mintgate/pkg/types"
)

// mapError converts the failure taxonomy into JSON-RPC errors. Codes
// and statuses pass through in the message so callers can branch on
// them; nothing is downgraded.
func mapError(err error) *Error {
	var pre *ledger.PrecheckError
	if errors.As(err, &pre) {
		return &Error{Code: CodePrecheckFailed, Message: pre.Code}
	}
	var re *ledger.ReceiptError
	if errors.As(err, &re) {
		return &Error{Code: CodeReceiptFailed, Message: re.Status}
	}
	if ledger.IsTimeout(err) {
		return &Error{Code: CodeTimeout, Message: err.Error()}
	}
	if errors.Is(err, ledger.ErrInvalidRequest) {
		return &Error{Code: CodeInvalidParams, Message: err.Error()}
	}
	return &Error{Code: CodeInternalError, Message: err.Error()}
}

func parseAccount(s, field string) (types.AccountID, *Error) {
	id, err := types.ParseAccountID(s)
	if err != nil {
		return types.AccountID{}, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid %s: %v", field, err)}
	}
	return id, nil
}

func parseToken(s string) (types.TokenID, *Error) {
	id, err := types.ParseTokenID(s)
	if err != nil {
		return types.TokenID{}, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid token: %v", err)}
	}
	return id, nil
}

func parseKey(s, field string) (*crypto.PrivateKey, *Error) {
	key, err := crypto.ParsePrivateKey(s)
	if err != nil {
		// The parse error never echoes the input.
		return nil, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid %s", field)}
	}
	return key, nil
}

func (s *Server) handleAccountCreate(ctx context.Context, _ *Request) (interface{}, *Error) {
	result, err := s.accounts.Create(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return AccountCreateResult{
		Account:    result.Account.String(),
		PublicKey:  result.Key.PublicKeyHex(),
		PrivateKey: result.Key.SerializeHex(),
	}, nil
}

func (s *Server) handleAccountGetBalance(ctx context.Context, req *Request) (interface{}, *Error) {
	var p AccountParam
	if rpcErr := parseParams(req, &p); rpcErr != nil {
		return nil, rpcErr
	}
	id, rpcErr := parseAccount(p.Account, "account")
	if rpcErr != nil {
		return nil, rpcErr
	}

	balance, err := s.accounts.Balance(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return BalanceResult{Account: id.String(), Balance: int64(balance)}, nil
}

func (s *Server) handleTokenCreateClass(ctx context.Context, req *Request) (interface{}, *Error) {
	var p TokenCreateClassParam
	if rpcErr := parseParams(req, &p); rpcErr != nil {
		return nil, rpcErr
	}
	treasuryID, rpcErr := parseAccount(p.Treasury, "treasury")
	if rpcErr != nil {
		return nil, rpcErr
	}
	collector, rpcErr := parseAccount(p.RoyaltyCollector, "royalty_collector")
	if rpcErr != nil {
		return nil, rpcErr
	}
	treasuryKey, rpcErr := parseKey(p.TreasuryKey, "treasury_key")
	if rpcErr != nil {
		return nil, rpcErr
	}

	id, err := s.tokens.CreateClass(ctx, p.Name, p.Symbol, treasuryID, treasuryKey, collector)
	if err != nil {
		return nil, mapError(err)
	}
	return TokenCreateClassResult{Token: id.String()}, nil
}

func (s *Server) handleTokenGetInfo(ctx context.Context, req *Request) (interface{}, *Error) {
	var p TokenParam
	if rpcErr := parseParams(req, &p); rpcErr != nil {
		return nil, rpcErr
	}
	id, rpcErr := parseToken(p.Token)
	if rpcErr != nil {
		return nil, rpcErr
	}

	info, err := s.tokens.Info(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}

	result := TokenInfoResult{
		Token:       info.Token.String(),
		Name:        info.Name,
		Symbol:      info.Symbol,
		Treasury:    info.Treasury.String(),
		MaxSupply:   info.MaxSupply,
		TotalSupply: info.TotalSupply,
	}
	for _, fee := range info.CustomFees {
		result.CustomFees = append(result.CustomFees, CustomFeeResult{
			Numerator:   fee.Numerator,
			Denominator: fee.Denominator,
			Collector:   fee.Collector.String(),
			FallbackFee: int64(fee.FallbackFee),
		})
	}
	return result, nil
}

func (s *Server) handleTokenMint(ctx context.Context, req *Request) (interface{}, *Error) {
	var p TokenMintParam
	if rpcErr := parseParams(req, &p); rpcErr != nil {
		return nil, rpcErr
	}
	id, rpcErr := parseToken(p.Token)
	if rpcErr != nil {
		return nil, rpcErr
	}

	serial, err := s.tokens.Mint(ctx, id, []byte(p.ContentRef))
	if err != nil {
		return nil, mapError(err)
	}
	return TokenMintResult{Token: id.String(), Serial: serial}, nil
}

func (s *Server) handleTokenBurn(ctx context.Context, req *Request) (interface{}, *Error) {
	var p TokenBurnParam
	if rpcErr := parseParams(req, &p); rpcErr != nil {
		return nil, rpcErr
	}
	id, rpcErr := parseToken(p.Token)
	if rpcErr != nil {
		return nil, rpcErr
	}
	supplyKey, rpcErr := parseKey(p.SupplyKey, "supply_key")
	if rpcErr != nil {
		return nil, rpcErr
	}

	if err := s.tokens.Burn(ctx, id, p.Serial, supplyKey); err != nil {
		return nil, mapError(err)
	}
	return map[string]bool{"burned": true}, nil
}

func (s *Server) handleTokenAssociate(ctx context.Context, req *Request) (interface{}, *Error) {
	var p TokenAssociateParam
	if rpcErr := parseParams(req, &p); rpcErr != nil {
		return nil, rpcErr
	}
	id, rpcErr := parseToken(p.Token)
	if rpcErr != nil {
		return nil, rpcErr
	}
	acct, rpcErr := parseAccount(p.Account, "account")
	if rpcErr != nil {
		return nil, rpcErr
	}
	acctKey, rpcErr := parseKey(p.AccountKey, "account_key")
	if rpcErr != nil {
		return nil, rpcErr
	}

	err := s.tokens.Associate(ctx, id, acct, acctKey)
	if token.IsAlreadyAssociated(err) {
		// Idempotent from the caller's view, reported distinctly.
		return TokenAssociateResult{Associated: true, AlreadyAssociated: true}, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return TokenAssociateResult{Associated: true}, nil
}

func (s *Server) handleEscrowFirstSale(ctx context.Context, req *Request) (interface{}, *Error) {
	var p EscrowFirstSaleParam
	if rpcErr := parseParams(req, &p); rpcErr != nil {
		return nil, rpcErr
	}
	id, rpcErr := parseToken(p.Token)
	if rpcErr != nil {
		return nil, rpcErr
	}
	seller, rpcErr := parseAccount(p.Seller, "seller")
	if rpcErr != nil {
		return nil, rpcErr
	}
	buyer, rpcErr := parseAccount(p.Buyer, "buyer")
	if rpcErr != nil {
		return nil, rpcErr
	}
	buyerKey, rpcErr := parseKey(p.BuyerKey, "buyer_key")
	if rpcErr != nil {
		return nil, rpcErr
	}

	result, err := s.escrow.ExecuteFirstSale(ctx, escrow.SaleRequest{
		Token:    id,
		Serial:   p.Serial,
		Seller:   seller,
		Buyer:    buyer,
		BuyerKey: buyerKey,
		Price:    types.Amount(p.Price),
	})
	if err != nil {
		return nil, mapError(err)
	}
	return EscrowFirstSaleResult{TxID: result.TxID.String(), Status: result.Status}, nil
}

func (s *Server) handleTreasurySplit(ctx context.Context, _ *Request) (interface{}, *Error) {
	if s.splitter == nil {
		return nil, &Error{Code: CodeInternalError, Message: "treasury split not configured"}
	}

	result, err := s.splitter.Split(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return TreasurySplitResult{
		Balance:       int64(result.Balance),
		Distributable: int64(result.Distributable),
		Distributed:   result.Distributed,
		LegA:          legResult(result.A),
		LegB:          legResult(result.B),
	}, nil
}

func legResult(leg treasury.Leg) SplitLegResult {
	r := SplitLegResult{
		Recipient: leg.Recipient.String(),
		Amount:    int64(leg.Amount),
		Status:    leg.Status,
	}
	if leg.Err != nil {
		r.Error = leg.Err.Error()
	}
	return r
}
