package ledger

import (
	"github.com/dvloznov/ledger-sync/internal/domain"
)

// ClearedStatus is the cleared state assigned to imported transactions.
const ClearedStatus = "cleared"

// ToLedgerTransaction maps a canonical transaction to the submission shape.
// Imported transactions are cleared but left unapproved for review.
func ToLedgerTransaction(tx domain.CanonicalTransaction) Transaction {
	return Transaction{
		AccountID: tx.AccountID,
		Date:      tx.Date.String(),
		Amount:    tx.AmountMilliunits,
		PayeeName: tx.PayeeName,
		Memo:      tx.Memo,
		Cleared:   ClearedStatus,
		Approved:  false,
		ImportID:  tx.ImportKey,
	}
}

// ToLedgerTransactions maps a batch, preserving order.
func ToLedgerTransactions(txs []domain.CanonicalTransaction) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		out = append(out, ToLedgerTransaction(tx))
	}
	return out
}
