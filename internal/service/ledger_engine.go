package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"balance-ledger/internal/core/domain"
	"balance-ledger/internal/core/ports"
	"balance-ledger/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const idempotencyTTL = 24 * time.Hour

// idempotencyRecord is the stored payload behind an idempotency key. A
// committed record replays the result directly. An indeterminate record is
// written when an append's outcome was unknown at response time; it carries
// the posting identity so a retry can resolve the append's fate instead of
// issuing a second one.
type idempotencyRecord struct {
	Outcome string           `json:"outcome"`
	Result  ports.PostResult `json:"result"`
}

const (
	outcomeCommitted     = "committed"
	outcomeIndeterminate = "indeterminate"
)

// Policy holds the business limits and read-path tuning the engine runs with.
type Policy struct {
	// MaxAmountPerPosting rejects any single posting above this value.
	// Non-positive disables the limit.
	MaxAmountPerPosting decimal.Decimal
	ReadRetries         int
	ReadRetryBackoff    time.Duration
}

// LedgerEngineImpl implements ports.LedgerEngine on a store with no atomic
// read-modify-write. The protocol is optimistic: read the balance, decide,
// append. Two concurrent posts can both pass the rule check against the same
// stale balance; that race is accepted and reconciliation surfaces it.
type LedgerEngineImpl struct {
	accounts   ports.AccountDirectory
	ledger     ports.TransactionLedger
	balances   ports.BalanceStore
	idempStore ports.IdempotencyStore
	idempCache ports.IdempotencyCache
	policy     Policy
	retry      readRetry
	log        zerolog.Logger
}

// NewLedgerEngine creates a new LedgerEngineImpl.
func NewLedgerEngine(
	accounts ports.AccountDirectory,
	ledger ports.TransactionLedger,
	balances ports.BalanceStore,
	idempStore ports.IdempotencyStore,
	idempCache ports.IdempotencyCache,
	policy Policy,
	log zerolog.Logger,
) *LedgerEngineImpl {
	return &LedgerEngineImpl{
		accounts:   accounts,
		ledger:     ledger,
		balances:   balances,
		idempStore: idempStore,
		idempCache: idempCache,
		policy:     policy,
		retry:      readRetry{attempts: policy.ReadRetries, backoff: policy.ReadRetryBackoff},
		log:        log,
	}
}

// CreateAccount registers a new account and initializes its materialized
// balance row to zero. The uniqueness check and the append are not atomic;
// a concurrent create of the same id can slip through, and ReconcileAll
// flags the duplicate.
func (s *LedgerEngineImpl) CreateAccount(ctx context.Context, req ports.CreateAccountRequest) (*domain.Account, error) {
	account := &domain.Account{
		ID:                   req.ID,
		Name:                 req.Name,
		Company:              req.Company,
		Branch:               req.Branch,
		PhoneNumber:          req.PhoneNumber,
		CreatorAgent:         req.CreatorAgent,
		RegisteredBy:         req.RegisteredBy,
		CreatedAt:            time.Now().UTC(),
		AllowNegativeBalance: req.AllowNegativeBalance,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if err == ports.ErrDuplicateID {
			return nil, apperror.ErrDuplicateKey(req.ID)
		}
		if errors.Is(err, ports.ErrReadFailed) {
			return nil, apperror.ErrStoreReadFailed(fmt.Errorf("create account: %w", err))
		}
		if ctx.Err() != nil {
			return nil, apperror.ErrIndeterminate(err)
		}
		return nil, apperror.ErrStoreWriteFailed(fmt.Errorf("create account: %w", err))
	}

	// Best-effort: the balance row is advisory, a missing row reads as zero.
	if err := s.balances.Set(ctx, account.ID, decimal.Zero); err != nil {
		s.log.Warn().Err(err).Str("account_id", account.ID).Msg("failed to initialize balance row")
	}

	s.log.Info().
		Str("account_id", account.ID).
		Str("company", account.Company).
		Str("branch", account.Branch).
		Msg("account created")

	return account, nil
}

// UpdateAccount edits mutable metadata. CanEdit gates any change; flipping
// the negative-balance flag additionally needs CanAllowNegative.
func (s *LedgerEngineImpl) UpdateAccount(ctx context.Context, req ports.UpdateAccountRequest) (*domain.Account, error) {
	if !req.Caller.CanEdit {
		return nil, apperror.ErrEditNotPermitted()
	}
	if req.Fields.AllowNegativeBalance != nil && !req.Caller.CanAllowNegative {
		return nil, apperror.ErrEditNotPermitted()
	}

	account, err := s.accounts.Update(ctx, req.ID, req.Fields)
	if err != nil {
		// Update is locate-write-reread. The locate and reread phases are
		// pure reads and their failures keep the read error code; only a
		// failed cell write leaves the row state uncertain.
		if errors.Is(err, ports.ErrReadFailed) {
			return nil, apperror.ErrStoreReadFailed(fmt.Errorf("update account: %w", err))
		}
		if ctx.Err() != nil {
			return nil, apperror.ErrIndeterminate(err)
		}
		return nil, apperror.ErrStoreWriteFailed(fmt.Errorf("update account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound(req.ID)
	}

	s.log.Info().Str("account_id", account.ID).Msg("account updated")
	return account, nil
}

// GetAccount returns the account with its posting history (chronological,
// unparseable timestamps kept in insertion order) and materialized balance.
func (s *LedgerEngineImpl) GetAccount(ctx context.Context, id string) (*ports.AccountView, error) {
	var account *domain.Account
	err := s.retry.do(ctx, func() error {
		var ferr error
		account, ferr = s.accounts.Find(ctx, id)
		return ferr
	})
	if err != nil {
		return nil, apperror.ErrStoreReadFailed(fmt.Errorf("find account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound(id)
	}

	var postings []domain.Posting
	err = s.retry.do(ctx, func() error {
		var qerr error
		postings, qerr = s.ledger.QueryByAccount(ctx, id)
		return qerr
	})
	if err != nil {
		return nil, apperror.ErrStoreReadFailed(fmt.Errorf("query postings: %w", err))
	}
	sort.SliceStable(postings, func(i, j int) bool {
		return postings[i].Timestamp.Before(postings[j].Timestamp)
	})
	if postings == nil {
		postings = []domain.Posting{}
	}

	balance, _, err := s.balances.Get(ctx, id)
	if err != nil {
		return nil, apperror.ErrStoreReadFailed(fmt.Errorf("get balance: %w", err))
	}

	return &ports.AccountView{
		Account:  *account,
		Balance:  balance,
		Postings: postings,
	}, nil
}

// PostTransaction commits one posting if it keeps the balance within the
// account's allowed range. Order of operations matters: every check happens
// before the append, the append is the point of commitment, and everything
// after it is best-effort.
func (s *LedgerEngineImpl) PostTransaction(ctx context.Context, req ports.PostRequest) (*ports.PostResult, error) {
	if !req.Type.Valid() {
		return nil, apperror.ErrInvalidArgument(fmt.Sprintf("unknown transaction type %q", req.Type))
	}
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidArgument("amount must be positive")
	}
	if s.policy.MaxAmountPerPosting.IsPositive() && req.Amount.GreaterThan(s.policy.MaxAmountPerPosting) {
		return nil, apperror.ErrAmountLimitExceeded(s.policy.MaxAmountPerPosting.String())
	}

	var idempKey string
	if req.IdempotencyKey != "" {
		idempKey = domain.BuildIdempotencyKey(req.AccountID, req.IdempotencyKey)

		// Layer 1: Redis idempotency check. Only committed outcomes are
		// cached, so a hit replays directly.
		cached, err := s.idempCache.Get(ctx, idempKey)
		if err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("cache idempotency check failed, falling through to store")
		}
		if cached != nil {
			return s.replayRecord(cached)
		}

		// Layer 2: authoritative row-store check
		idempLog, err := s.idempStore.Get(ctx, idempKey)
		if err != nil {
			return nil, apperror.ErrStoreReadFailed(fmt.Errorf("idempotency check: %w", err))
		}
		if idempLog != nil {
			rec, err := decodeRecord(idempLog.ResponseJSON)
			if err != nil {
				return nil, err
			}
			if rec.Outcome != outcomeIndeterminate {
				return replay(rec), nil
			}
			// A prior attempt died mid-append. Resolve its fate before
			// considering a fresh one.
			resolved, err := s.resolveIndeterminate(ctx, idempKey, rec)
			if err != nil {
				return nil, err
			}
			if resolved != nil {
				return resolved, nil
			}
			// The append never landed; proceed as a first attempt.
		}
	}

	var account *domain.Account
	err := s.retry.do(ctx, func() error {
		var ferr error
		account, ferr = s.accounts.Find(ctx, req.AccountID)
		return ferr
	})
	if err != nil {
		return nil, apperror.ErrStoreReadFailed(fmt.Errorf("find account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound(req.AccountID)
	}

	var current decimal.Decimal
	err = s.retry.do(ctx, func() error {
		var gerr error
		current, _, gerr = s.balances.Get(ctx, req.AccountID)
		return gerr
	})
	if err != nil {
		return nil, apperror.ErrStoreReadFailed(fmt.Errorf("get balance: %w", err))
	}

	// The timestamp is fixed before the append so that, should the append's
	// outcome come back unknown, the posting's full identity is on record
	// and a retry can look for it in the ledger. Second precision matches
	// what the ledger persists, so the recorded identity equals what a
	// query returns.
	posting := domain.Posting{
		Timestamp:      time.Now().UTC().Truncate(time.Second),
		AccountID:      req.AccountID,
		Type:           req.Type,
		Amount:         req.Amount,
		Branch:         req.Branch,
		AgentName:      req.AgentName,
		IdempotencyKey: idempKey,
	}
	newBalance := current.Add(posting.Signed())

	// The rule check reads a possibly stale balance; by the time the append
	// lands, a concurrent posting may have changed it. Accepted: Reconcile
	// flags the resulting policy violation.
	if req.Type == domain.PostingTypeDeduct && newBalance.IsNegative() && !account.AllowNegativeBalance {
		return nil, apperror.ErrNegativeBalanceNotAllowed()
	}

	if ctx.Err() != nil {
		return nil, apperror.ErrCancelled(ctx.Err())
	}

	committed, err := s.ledger.Append(ctx, posting)
	if err != nil {
		// Once the append is issued its outcome must be classified, never
		// assumed. Context expiry mid-write means the row may or may not
		// exist in the store.
		if ctx.Err() != nil {
			if idempKey != "" {
				// The caller's context is dead; the marker write runs on a
				// detached one so the retry can find it and resolve the
				// append's fate instead of issuing a second one.
				s.record(context.WithoutCancel(ctx), idempKey, idempotencyRecord{
					Outcome: outcomeIndeterminate,
					Result:  ports.PostResult{Posting: posting, NewBalance: newBalance},
				})
			}
			return nil, apperror.ErrIndeterminate(err)
		}
		return nil, apperror.ErrStoreWriteFailed(err)
	}

	result := &ports.PostResult{
		Posting:    *committed,
		NewBalance: newBalance,
	}

	// Best-effort: materialization. The ledger row is already committed, so
	// a failure here only leaves the advisory balance stale.
	if err := s.balances.Set(ctx, req.AccountID, newBalance); err != nil {
		s.log.Warn().Err(err).Str("account_id", req.AccountID).Msg("failed to update materialized balance")
	}

	// Best-effort: idempotency record + cache. A lost record degrades a
	// future retry into a duplicate, which reconciliation can surface; it
	// never invalidates the committed posting.
	if idempKey != "" {
		s.record(ctx, idempKey, idempotencyRecord{Outcome: outcomeCommitted, Result: *result})
	}

	s.log.Info().
		Str("account_id", req.AccountID).
		Str("type", string(req.Type)).
		Str("amount", req.Amount.String()).
		Str("new_balance", newBalance.String()).
		Msg("transaction posted")

	return result, nil
}

// record writes the idempotency record to the authoritative side table and,
// for committed outcomes only, to the cache. Both writes are best-effort.
// Indeterminate records stay out of the cache so a retry always reaches the
// store path that resolves them.
func (s *LedgerEngineImpl) record(ctx context.Context, idempKey string, rec idempotencyRecord) {
	respJSON, err := json.Marshal(rec)
	if err != nil {
		s.log.Error().Err(err).Str("key", idempKey).Msg("failed to marshal idempotency record")
		return
	}
	if err := s.idempStore.Put(ctx, &domain.IdempotencyLog{
		Key:          idempKey,
		ResponseJSON: respJSON,
		CreatedAt:    rec.Result.Posting.Timestamp,
	}); err != nil {
		s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to record idempotency key")
	}
	if rec.Outcome == outcomeCommitted {
		if err := s.idempCache.Set(ctx, idempKey, respJSON, idempotencyTTL); err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to cache idempotency key")
		}
	}
}

// resolveIndeterminate decides the fate of a prior append whose outcome was
// unknown when its response went out. The ledger is the source of truth: if
// a posting with the recorded identity exists, the append landed and the
// record is finalized as committed; otherwise nil is returned and the caller
// runs a fresh attempt.
func (s *LedgerEngineImpl) resolveIndeterminate(ctx context.Context, idempKey string, rec idempotencyRecord) (*ports.PostResult, error) {
	var postings []domain.Posting
	err := s.retry.do(ctx, func() error {
		var qerr error
		postings, qerr = s.ledger.QueryByAccount(ctx, rec.Result.Posting.AccountID)
		return qerr
	})
	if err != nil {
		return nil, apperror.ErrStoreReadFailed(fmt.Errorf("resolve prior append: %w", err))
	}
	for _, p := range postings {
		// Matching on full identity can in principle collide with an equal
		// unrelated posting in the same instant; that failure mode skips an
		// append rather than duplicating one.
		if p.SameIdentity(rec.Result.Posting) {
			rec.Outcome = outcomeCommitted
			s.record(ctx, idempKey, rec)
			s.log.Info().Str("key", idempKey).Msg("prior append confirmed in ledger, replaying")
			return replay(rec), nil
		}
	}
	s.log.Info().Str("key", idempKey).Msg("prior append not found in ledger, retrying")
	return nil, nil
}

// replayRecord deserializes a recorded outcome and replays it. Replays never
// touch the ledger: the committed posting is returned as-is.
func (s *LedgerEngineImpl) replayRecord(data []byte) (*ports.PostResult, error) {
	rec, err := decodeRecord(data)
	if err != nil {
		return nil, err
	}
	return replay(rec), nil
}

func decodeRecord(data []byte) (idempotencyRecord, error) {
	var rec idempotencyRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, apperror.InternalError(fmt.Errorf("unmarshal idempotency record: %w", err))
	}
	return rec, nil
}

func replay(rec idempotencyRecord) *ports.PostResult {
	result := rec.Result
	result.Replayed = true
	return &result
}
