package source

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/ledger-sync/internal/domain"
	"github.com/dvloznov/ledger-sync/internal/logger"
)

// decodeOFX converts bank and credit card statements into raw transactions.
// OFX amounts are signed from the account holder's view (debits negative),
// the raw format is the opposite, so amounts are negated here.
func decodeOFX(ctx context.Context, account string, data []byte) ([]domain.RawTransaction, error) {
	log := logger.FromContext(ctx)

	response, err := ofxgo.ParseResponse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file (%d bytes): %w", len(data), err)
	}

	var lists []*ofxgo.TransactionList
	for _, msg := range response.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok {
			return nil, fmt.Errorf("unexpected bank statement type %T", msg)
		}
		lists = append(lists, stmt.BankTranList)
	}
	for _, msg := range response.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok {
			return nil, fmt.Errorf("unexpected credit card statement type %T", msg)
		}
		lists = append(lists, stmt.BankTranList)
	}
	if len(response.InvStmt) > 0 {
		log.Warn().
			Str("account", account).
			Int("statements", len(response.InvStmt)).
			Msg("Skipping investment statements in OFX file")
	}
	if len(lists) == 0 && len(response.InvStmt) == 0 {
		return nil, fmt.Errorf("no bank or credit card statement found in OFX file")
	}

	var records []domain.RawTransaction
	for _, list := range lists {
		if list == nil {
			continue
		}
		for _, txn := range list.Transactions {
			r, err := ofxRecord(account, txn)
			if err != nil {
				return nil, &domain.RecordError{Account: account, Index: len(records), Record: r, Err: err}
			}
			records = append(records, r)
		}
	}
	return records, nil
}

func ofxRecord(account string, txn ofxgo.Transaction) (domain.RawTransaction, error) {
	r := domain.RawTransaction{Account: account}

	date := txn.DtPosted.Time
	if date.IsZero() && txn.DtUser != nil {
		date = txn.DtUser.Time
	}
	if !date.IsZero() {
		r.Date = date.Format("2006-01-02")
	}

	// Use Name for the payee; fall back to Memo
	r.Payee = strings.TrimSpace(txn.Name.String())
	memo := strings.TrimSpace(txn.Memo.String())
	if r.Payee == "" {
		r.Payee = memo
	} else {
		r.Memo = memo
	}

	amount, err := decimal.NewFromString(txn.TrnAmt.Rat.FloatString(6))
	if err != nil {
		return r, fmt.Errorf("%w: %v", domain.ErrInvalidAmount, err)
	}
	r.Amount = domain.NumberAmount(amount.Neg().String())

	return r, r.Validate()
}
