package service

import (
	"context"
	"fmt"

	"balance-ledger/internal/core/domain"
	"balance-ledger/internal/core/ports"
	"balance-ledger/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// BalanceResolverImpl implements ports.BalanceResolver. The materialized
// balance table answers fast reads; replaying the ledger is the ground truth
// that audits it.
type BalanceResolverImpl struct {
	accounts ports.AccountDirectory
	ledger   ports.TransactionLedger
	balances ports.BalanceStore
	log      zerolog.Logger
}

// NewBalanceResolver creates a new BalanceResolverImpl.
func NewBalanceResolver(
	accounts ports.AccountDirectory,
	ledger ports.TransactionLedger,
	balances ports.BalanceStore,
	log zerolog.Logger,
) *BalanceResolverImpl {
	return &BalanceResolverImpl{
		accounts: accounts,
		ledger:   ledger,
		balances: balances,
		log:      log,
	}
}

// Get returns the materialized balance. An absent row means no posting ever
// materialized, so the balance is zero.
func (r *BalanceResolverImpl) Get(ctx context.Context, accountID string) (decimal.Decimal, error) {
	value, _, err := r.balances.Get(ctx, accountID)
	if err != nil {
		return decimal.Zero, apperror.ErrStoreReadFailed(fmt.Errorf("get balance: %w", err))
	}
	return value, nil
}

// Reconcile replays the account's ledger and compares the sum against the
// materialized value. Divergence is reported and logged, never repaired in
// place: a silent rewrite could mask an unrecorded write failure.
func (r *BalanceResolverImpl) Reconcile(ctx context.Context, accountID string) (*domain.ReconcileReport, error) {
	account, err := r.accounts.Find(ctx, accountID)
	if err != nil {
		return nil, apperror.ErrStoreReadFailed(fmt.Errorf("find account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound(accountID)
	}

	postings, err := r.ledger.QueryByAccount(ctx, accountID)
	if err != nil {
		return nil, apperror.ErrStoreReadFailed(fmt.Errorf("replay ledger: %w", err))
	}
	replayed := domain.SumSigned(postings)
	malformed := 0
	for _, p := range postings {
		if p.Malformed {
			malformed++
		}
	}

	materialized, _, err := r.balances.Get(ctx, accountID)
	if err != nil {
		return nil, apperror.ErrStoreReadFailed(fmt.Errorf("get materialized balance: %w", err))
	}

	report := &domain.ReconcileReport{
		AccountID:         accountID,
		Materialized:      materialized,
		Replayed:          replayed,
		Divergent:         !materialized.Equal(replayed),
		PolicyViolation:   replayed.IsNegative() && !account.AllowNegativeBalance,
		PostingCount:      len(postings),
		MalformedPostings: malformed,
	}

	if report.Divergent {
		r.log.Warn().
			Str("account_id", accountID).
			Str("materialized", materialized.String()).
			Str("replayed", replayed.String()).
			Msg("materialized balance diverges from ledger replay")
	}
	if report.MalformedPostings > 0 {
		r.log.Warn().
			Str("account_id", accountID).
			Int("malformed_postings", report.MalformedPostings).
			Msg("ledger rows with unparseable cells replayed as zero")
	}
	if report.PolicyViolation {
		r.log.Warn().
			Str("account_id", accountID).
			Str("replayed", replayed.String()).
			Msg("negative balance on account that does not allow it")
	}

	return report, nil
}

// ReconcileAll sweeps every account in the directory.
func (r *BalanceResolverImpl) ReconcileAll(ctx context.Context) ([]domain.ReconcileReport, error) {
	ids, err := r.accounts.ListIDs(ctx)
	if err != nil {
		return nil, apperror.ErrStoreReadFailed(fmt.Errorf("list accounts: %w", err))
	}

	seen := make(map[string]int, len(ids))
	reports := make([]domain.ReconcileReport, 0, len(ids))
	for _, id := range ids {
		if i, dup := seen[id]; dup {
			// A duplicate id row is the leftover of a concurrent-create race.
			// The sweep reconciles the id once but flags it in the report.
			reports[i].DuplicateID = true
			r.log.Warn().Str("account_id", id).Msg("duplicate account id in directory")
			continue
		}
		seen[id] = len(reports)

		report, err := r.Reconcile(ctx, id)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	return reports, nil
}
