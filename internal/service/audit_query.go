package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"balance-ledger/internal/core/domain"
	"balance-ledger/internal/core/ports"
	"balance-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// AuditQueryImpl implements ports.AuditQuery: the read-only reporting surface
// over the directory, the ledger and the materialized balances. It cannot
// mutate anything.
type AuditQueryImpl struct {
	accounts ports.AccountDirectory
	ledger   ports.TransactionLedger
	balances ports.BalanceStore
	retry    readRetry
	log      zerolog.Logger
}

// NewAuditQuery creates a new AuditQueryImpl. retries and backoff bound the
// internal re-reads on transient store errors.
func NewAuditQuery(
	accounts ports.AccountDirectory,
	ledger ports.TransactionLedger,
	balances ports.BalanceStore,
	retries int,
	backoff time.Duration,
	log zerolog.Logger,
) *AuditQueryImpl {
	return &AuditQueryImpl{
		accounts: accounts,
		ledger:   ledger,
		balances: balances,
		retry:    readRetry{attempts: retries, backoff: backoff},
		log:      log,
	}
}

// Transactions returns ledger postings matching the filter, newest first.
// A company filter is resolved through the directory: postings carry no
// company column, so the account set for that company is computed first.
func (q *AuditQueryImpl) Transactions(ctx context.Context, filter ports.TransactionFilter) ([]domain.Posting, error) {
	var accountIDs map[string]struct{}
	if filter.Company != "" {
		summaries, err := q.accountRecords(ctx)
		if err != nil {
			return nil, err
		}
		accountIDs = make(map[string]struct{})
		for _, acc := range summaries {
			if acc.Company == filter.Company {
				accountIDs[acc.ID] = struct{}{}
			}
		}
		if len(accountIDs) == 0 {
			return []domain.Posting{}, nil
		}
	}

	var postings []domain.Posting
	err := q.retry.do(ctx, func() error {
		var qerr error
		postings, qerr = q.ledger.QueryAll(ctx, ports.PostingFilter{
			From:       filter.From,
			To:         filter.To,
			Branch:     filter.Branch,
			AccountIDs: accountIDs,
		})
		return qerr
	})
	if err != nil {
		return nil, apperror.ErrStoreReadFailed(fmt.Errorf("query postings: %w", err))
	}

	sort.SliceStable(postings, func(i, j int) bool {
		return postings[i].Timestamp.After(postings[j].Timestamp)
	})
	if postings == nil {
		postings = []domain.Posting{}
	}
	return postings, nil
}

// Accounts returns account summaries matching the filter. The balance-sign
// bucket reads the materialized value per account; a missing balance row
// counts as zero.
func (q *AuditQueryImpl) Accounts(ctx context.Context, filter ports.AccountFilter) ([]ports.AccountSummary, error) {
	accounts, err := q.accountRecords(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]ports.AccountSummary, 0, len(accounts))
	for _, acc := range accounts {
		if !matchAccount(acc, filter) {
			continue
		}

		balance, _, err := q.balances.Get(ctx, acc.ID)
		if err != nil {
			return nil, apperror.ErrStoreReadFailed(fmt.Errorf("get balance for %s: %w", acc.ID, err))
		}

		switch filter.Sign {
		case ports.BalanceSignNegative:
			if !balance.IsNegative() {
				continue
			}
		case ports.BalanceSignZero:
			if !balance.IsZero() {
				continue
			}
		case ports.BalanceSignPositive:
			if !balance.IsPositive() {
				continue
			}
		}

		summaries = append(summaries, ports.AccountSummary{Account: acc, Balance: balance})
	}
	return summaries, nil
}

// accountRecords reads the whole directory with bounded retries.
func (q *AuditQueryImpl) accountRecords(ctx context.Context) ([]domain.Account, error) {
	var ids []string
	err := q.retry.do(ctx, func() error {
		var lerr error
		ids, lerr = q.accounts.ListIDs(ctx)
		return lerr
	})
	if err != nil {
		return nil, apperror.ErrStoreReadFailed(fmt.Errorf("list accounts: %w", err))
	}

	accounts := make([]domain.Account, 0, len(ids))
	for _, id := range ids {
		acc, err := q.accounts.Find(ctx, id)
		if err != nil {
			return nil, apperror.ErrStoreReadFailed(fmt.Errorf("find account %s: %w", id, err))
		}
		if acc == nil {
			continue
		}
		accounts = append(accounts, *acc)
	}
	return accounts, nil
}

func matchAccount(acc domain.Account, f ports.AccountFilter) bool {
	if !f.From.IsZero() && acc.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && acc.CreatedAt.After(f.To) {
		return false
	}
	if f.Company != "" && acc.Company != f.Company {
		return false
	}
	if f.Branch != "" && acc.Branch != f.Branch {
		return false
	}
	return true
}
