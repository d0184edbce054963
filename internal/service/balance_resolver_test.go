package service

import (
	"context"
	"testing"

	"balance-ledger/internal/core/domain"
	"balance-ledger/internal/core/ports/mocks"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type resolverTestDeps struct {
	svc      *BalanceResolverImpl
	accounts *mocks.MockAccountDirectory
	ledger   *mocks.MockTransactionLedger
	balances *mocks.MockBalanceStore
	ctrl     *gomock.Controller
}

func setupBalanceResolver(t *testing.T) *resolverTestDeps {
	ctrl := gomock.NewController(t)
	d := &resolverTestDeps{
		accounts: mocks.NewMockAccountDirectory(ctrl),
		ledger:   mocks.NewMockTransactionLedger(ctrl),
		balances: mocks.NewMockBalanceStore(ctrl),
		ctrl:     ctrl,
	}
	d.svc = NewBalanceResolver(d.accounts, d.ledger, d.balances, zerolog.Nop())
	return d
}

func TestBalanceResolver_Get_AbsentRowIsZero(t *testing.T) {
	d := setupBalanceResolver(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.balances.EXPECT().Get(ctx, "12345678901234").Return(decimal.Zero, false, nil)

	balance, err := d.svc.Get(ctx, "12345678901234")
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestBalanceResolver_Reconcile_Clean(t *testing.T) {
	d := setupBalanceResolver(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	postings := []domain.Posting{
		{AccountID: "12345678901234", Type: domain.PostingTypeAdd, Amount: decimal.NewFromInt(100)},
		{AccountID: "12345678901234", Type: domain.PostingTypeDeduct, Amount: decimal.NewFromInt(40)},
	}

	d.accounts.EXPECT().Find(ctx, "12345678901234").Return(engineAccount(false), nil)
	d.ledger.EXPECT().QueryByAccount(ctx, "12345678901234").Return(postings, nil)
	d.balances.EXPECT().Get(ctx, "12345678901234").Return(decimal.NewFromInt(60), true, nil)

	report, err := d.svc.Reconcile(ctx, "12345678901234")
	require.NoError(t, err)
	assert.False(t, report.Divergent)
	assert.False(t, report.PolicyViolation)
	assert.Equal(t, 2, report.PostingCount)
	assert.True(t, report.Replayed.Equal(decimal.NewFromInt(60)))
}

func TestBalanceResolver_Reconcile_Divergence(t *testing.T) {
	d := setupBalanceResolver(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	postings := []domain.Posting{
		{AccountID: "12345678901234", Type: domain.PostingTypeAdd, Amount: decimal.NewFromInt(100)},
	}

	d.accounts.EXPECT().Find(ctx, "12345678901234").Return(engineAccount(false), nil)
	d.ledger.EXPECT().QueryByAccount(ctx, "12345678901234").Return(postings, nil)
	// Materialized value went stale (a best-effort update was lost).
	d.balances.EXPECT().Get(ctx, "12345678901234").Return(decimal.NewFromInt(90), true, nil)

	report, err := d.svc.Reconcile(ctx, "12345678901234")
	require.NoError(t, err)
	assert.True(t, report.Divergent)
	assert.True(t, report.Materialized.Equal(decimal.NewFromInt(90)))
	assert.True(t, report.Replayed.Equal(decimal.NewFromInt(100)))
}

func TestBalanceResolver_Reconcile_PolicyViolation(t *testing.T) {
	d := setupBalanceResolver(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	// The accepted race outcome: two DEDUCT 60 on balance 100 both landed.
	postings := []domain.Posting{
		{AccountID: "12345678901234", Type: domain.PostingTypeAdd, Amount: decimal.NewFromInt(100)},
		{AccountID: "12345678901234", Type: domain.PostingTypeDeduct, Amount: decimal.NewFromInt(60)},
		{AccountID: "12345678901234", Type: domain.PostingTypeDeduct, Amount: decimal.NewFromInt(60)},
	}

	d.accounts.EXPECT().Find(ctx, "12345678901234").Return(engineAccount(false), nil)
	d.ledger.EXPECT().QueryByAccount(ctx, "12345678901234").Return(postings, nil)
	d.balances.EXPECT().Get(ctx, "12345678901234").Return(decimal.NewFromInt(-20), true, nil)

	report, err := d.svc.Reconcile(ctx, "12345678901234")
	require.NoError(t, err)
	assert.False(t, report.Divergent)
	assert.True(t, report.PolicyViolation)
	assert.True(t, report.Replayed.Equal(decimal.NewFromInt(-20)))
}

func TestBalanceResolver_Reconcile_AccountNotFound(t *testing.T) {
	d := setupBalanceResolver(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.accounts.EXPECT().Find(ctx, "99999999999999").Return(nil, nil)

	_, err := d.svc.Reconcile(ctx, "99999999999999")
	assertCode(t, err, "LED_002")
}

func TestBalanceResolver_ReconcileAll_FlagsDuplicateIDs(t *testing.T) {
	d := setupBalanceResolver(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	// A duplicate id row from a concurrent-create race: reconciled once,
	// flagged in the report rather than silently collapsed.
	d.accounts.EXPECT().ListIDs(ctx).Return([]string{"11111111111111", "11111111111111", "22222222222222"}, nil)
	d.accounts.EXPECT().Find(ctx, "11111111111111").Return(engineAccount(false), nil)
	d.ledger.EXPECT().QueryByAccount(ctx, "11111111111111").Return(nil, nil)
	d.balances.EXPECT().Get(ctx, "11111111111111").Return(decimal.Zero, false, nil)
	other := engineAccount(false)
	other.ID = "22222222222222"
	d.accounts.EXPECT().Find(ctx, "22222222222222").Return(other, nil)
	d.ledger.EXPECT().QueryByAccount(ctx, "22222222222222").Return(nil, nil)
	d.balances.EXPECT().Get(ctx, "22222222222222").Return(decimal.Zero, false, nil)

	reports, err := d.svc.ReconcileAll(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.True(t, reports[0].DuplicateID)
	assert.False(t, reports[1].DuplicateID)
}

func TestBalanceResolver_Reconcile_CountsMalformedPostings(t *testing.T) {
	d := setupBalanceResolver(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	// One corrupt row replays as zero; the good rows still sum.
	postings := []domain.Posting{
		{AccountID: "12345678901234", Type: domain.PostingTypeAdd, Amount: decimal.NewFromInt(100)},
		{AccountID: "12345678901234", Type: "???", Malformed: true},
		{AccountID: "12345678901234", Type: domain.PostingTypeDeduct, Amount: decimal.NewFromInt(30)},
	}
	d.accounts.EXPECT().Find(ctx, "12345678901234").Return(engineAccount(false), nil)
	d.ledger.EXPECT().QueryByAccount(ctx, "12345678901234").Return(postings, nil)
	d.balances.EXPECT().Get(ctx, "12345678901234").Return(decimal.NewFromInt(70), true, nil)

	report, err := d.svc.Reconcile(ctx, "12345678901234")
	require.NoError(t, err)
	assert.Equal(t, 1, report.MalformedPostings)
	assert.Equal(t, 3, report.PostingCount)
	assert.False(t, report.Divergent)
}
