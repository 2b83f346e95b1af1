package bankrec

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/strataledger/backend/internal/domain/ledger"
	"github.com/strataledger/backend/internal/domain/shared"
)

// AutoMatchThreshold is the minimum score at which a candidate is accepted
// without human review: an amount match alone (score 1) is never enough, it
// must be backed by date proximity or a reference hit.
const AutoMatchThreshold = 3

// Score weights
const (
	scoreAmount         = 1 // exact cent-equal amount, type agrees
	scoreDateNear       = 2 // within 3 days
	scoreDateExact      = 1 // on top of scoreDateNear when same day
	scoreReferenceHit   = 3 // transaction reference appears in the line description
	scoreDescriptionHit = 1 // transaction description appears in the line description
)

// MatchCandidate is a scored pairing of a statement line and a transaction
type MatchCandidate struct {
	TransactionID uuid.UUID
	Score         int
}

// MatchResult records an accepted auto-match
type MatchResult struct {
	LineID        uuid.UUID
	TransactionID uuid.UUID
	Score         int
}

// Matcher pairs unmatched bank statement lines with unreconciled ledger
// transactions. Candidates must agree on amount to the cent and on
// direction: credit lines only ever match receipts, debit lines only
// payments.
type Matcher struct{}

// NewMatcher creates a reconciliation matcher
func NewMatcher() *Matcher {
	return &Matcher{}
}

// ScoreCandidate scores a single line/transaction pairing. Zero means the
// pair is not a candidate at all (amount or direction disagrees).
func (m *Matcher) ScoreCandidate(line *BankStatementLine, txn *ledger.Transaction) int {
	if !m.amountAndTypeAgree(line, txn) {
		return 0
	}
	score := scoreAmount

	dayDiff := dateDiffDays(line.LineDate, txn.Date)
	if dayDiff <= 3 {
		score += scoreDateNear
		if dayDiff == 0 {
			score += scoreDateExact
		}
	}

	desc := strings.ToLower(line.Description)
	if txn.Reference != "" && strings.Contains(desc, strings.ToLower(txn.Reference)) {
		score += scoreReferenceHit
	}
	if txn.Description != "" && strings.Contains(desc, strings.ToLower(txn.Description)) {
		score += scoreDescriptionHit
	}
	return score
}

func (m *Matcher) amountAndTypeAgree(line *BankStatementLine, txn *ledger.Transaction) bool {
	switch txn.Type {
	case ledger.TransactionTypeReceipt:
		// Money into the bank account
		return line.CreditAmount.IsPositive() && line.CreditAmount.Equal(txn.Amount)
	case ledger.TransactionTypePayment:
		return line.DebitAmount.IsPositive() && line.DebitAmount.Equal(txn.Amount)
	default:
		return false
	}
}

// AutoMatch scores every unmatched line against every unreconciled candidate
// transaction and pairs the best-scoring candidate per line, first-seen order
// breaking ties. A transaction claimed by one line in this pass is not
// offered to later lines. Lines whose best score falls below the threshold
// stay unmatched for manual resolution.
func (m *Matcher) AutoMatch(lines []*BankStatementLine, txns []*ledger.Transaction) []MatchResult {
	claimed := make(map[uuid.UUID]bool)
	results := make([]MatchResult, 0)

	for _, line := range lines {
		if line.Matched {
			continue
		}

		bestScore := 0
		var best *ledger.Transaction
		for _, txn := range txns {
			if txn.IsReconciled || claimed[txn.ID] {
				continue
			}
			// Strictly greater: ties keep the first-seen candidate
			if score := m.ScoreCandidate(line, txn); score > bestScore {
				bestScore = score
				best = txn
			}
		}

		if best == nil || bestScore < AutoMatchThreshold {
			continue
		}
		if err := line.MatchTo(best.ID); err != nil {
			continue
		}
		claimed[best.ID] = true
		results = append(results, MatchResult{LineID: line.ID, TransactionID: best.ID, Score: bestScore})
	}
	return results
}

// ManualMatch pairs a line with a transaction chosen by a human. Both must
// belong to the same scheme; a reconciled transaction can no longer be
// claimed.
func (m *Matcher) ManualMatch(line *BankStatementLine, statement *BankStatement, txn *ledger.Transaction) error {
	if statement.SchemeID != txn.SchemeID {
		return shared.NewDomainError("SCHEME_MISMATCH",
			"statement line and transaction belong to different schemes")
	}
	if txn.IsReconciled {
		return shared.NewDomainError("TRANSACTION_RECONCILED",
			"cannot match against a reconciled transaction")
	}
	return line.MatchTo(txn.ID)
}

// dateDiffDays is the absolute whole-day distance between two dates
func dateDiffDays(a, b time.Time) int {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return int(diff.Hours() / 24)
}
