package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"balance-ledger/internal/adapter/rowstore"
	"balance-ledger/internal/adapter/rowstore/memory"
	redisStorage "balance-ledger/internal/adapter/storage/redis"
	"balance-ledger/internal/core/ports"
	"balance-ledger/internal/service"
	"balance-ledger/pkg/apperror"
	"balance-ledger/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreliableStore wraps the in-memory store so one armed append on a chosen
// table dies mid-write: the caller's context is cancelled and an error comes
// back, while the row itself may or may not have landed. That is exactly the
// shape of failure the engine must classify as indeterminate.
type unreliableStore struct {
	*memory.Store
	mu        sync.Mutex
	table     string
	landWrite bool
	cancel    context.CancelFunc
	armed     bool
}

func (s *unreliableStore) arm(table string, landWrite bool, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = table
	s.landWrite = landWrite
	s.cancel = cancel
	s.armed = true
}

func (s *unreliableStore) AppendRow(ctx context.Context, table string, cells []string) error {
	s.mu.Lock()
	fire := s.armed && table == s.table
	if fire {
		s.armed = false
	}
	land := s.landWrite
	cancel := s.cancel
	s.mu.Unlock()

	if !fire {
		return s.Store.AppendRow(ctx, table, cells)
	}
	if land {
		if err := s.Store.AppendRow(ctx, table, cells); err != nil {
			return err
		}
	}
	cancel()
	return fmt.Errorf("connection reset mid-write")
}

type idempotencyHarness struct {
	redis  *miniredis.Miniredis
	store  *unreliableStore
	engine *service.LedgerEngineImpl
}

func newIdempotencyHarness(t *testing.T) *idempotencyHarness {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	idempCache := redisStorage.NewIdempotencyCache(rdb)

	store := &unreliableStore{Store: memory.NewStore()}
	accounts := rowstore.NewAccountDirectory(store)
	ledger := rowstore.NewTransactionLedger(store)
	balances := rowstore.NewBalanceStore(store)
	idempStore := rowstore.NewIdempotencyStore(store)

	log := logger.New("error", false)
	engine := service.NewLedgerEngine(accounts, ledger, balances, idempStore, idempCache,
		service.Policy{MaxAmountPerPosting: decimal.NewFromInt(5000)}, log)

	return &idempotencyHarness{redis: mr, store: store, engine: engine}
}

func (h *idempotencyHarness) seedAccount(t *testing.T, id string, opening int64) {
	t.Helper()
	ctx := context.Background()
	_, err := h.engine.CreateAccount(ctx, ports.CreateAccountRequest{ID: id, Name: "Retry Account"})
	require.NoError(t, err)
	_, err = h.engine.PostTransaction(ctx, ports.PostRequest{
		AccountID: id,
		Type:      "ADD",
		Amount:    decimal.NewFromInt(opening),
	})
	require.NoError(t, err)
}

func assertAppCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

// TestRetryAfterIndeterminate_AppendLanded is the dangerous half of the
// indeterminate contract: the append hit the store, the response did not.
// The retry must find the landed posting and replay it, never append twice.
func TestRetryAfterIndeterminate_AppendLanded(t *testing.T) {
	h := newIdempotencyHarness(t)
	h.seedAccount(t, "12345678901234", 100)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.store.arm("transactions", true, cancel)

	req := ports.PostRequest{
		AccountID:      "12345678901234",
		Type:           "DEDUCT",
		Amount:         decimal.NewFromInt(60),
		Branch:         "north",
		AgentName:      "agent-a",
		IdempotencyKey: "retry-001",
	}
	_, err := h.engine.PostTransaction(ctx, req)
	assertAppCode(t, err, "SYS_002")
	require.Equal(t, 2, h.store.RowCount(ports.TableTransactions), "the append landed despite the failed response")

	result, err := h.engine.PostTransaction(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.Replayed, "the retry must recognize the landed append")
	assert.True(t, result.NewBalance.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, 2, h.store.RowCount(ports.TableTransactions), "no second posting row")

	// A third retry replays from the finalized record without touching the
	// ledger again.
	result, err = h.engine.PostTransaction(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.Replayed)
	assert.Equal(t, 2, h.store.RowCount(ports.TableTransactions))
}

// TestRetryAfterIndeterminate_AppendLost covers the other half: the append
// never hit the store. The retry runs as a fresh attempt and commits exactly
// one posting.
func TestRetryAfterIndeterminate_AppendLost(t *testing.T) {
	h := newIdempotencyHarness(t)
	h.seedAccount(t, "12345678901234", 100)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.store.arm("transactions", false, cancel)

	req := ports.PostRequest{
		AccountID:      "12345678901234",
		Type:           "DEDUCT",
		Amount:         decimal.NewFromInt(60),
		IdempotencyKey: "retry-002",
	}
	_, err := h.engine.PostTransaction(ctx, req)
	assertAppCode(t, err, "SYS_002")
	require.Equal(t, 1, h.store.RowCount(ports.TableTransactions), "the append was lost")

	result, err := h.engine.PostTransaction(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.Replayed, "nothing landed, so the retry posts fresh")
	assert.True(t, result.NewBalance.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, 2, h.store.RowCount(ports.TableTransactions), "exactly one posting across both attempts")
}
