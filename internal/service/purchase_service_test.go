package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trxmining/internal/config"
	"trxmining/internal/model"
	"trxmining/internal/repository"
	"trxmining/internal/tron"
)

var testTopics = config.KafkaTopicConfig{
	PurchaseVerified:    "mining.purchase.verified",
	ReferralSettled:     "mining.referral.settled",
	WithdrawalCompleted: "mining.withdrawal.completed",
}

type purchaseFixture struct {
	svc         *PurchaseService
	txm         *fakeTxm
	locker      *fakeLocker
	verifier    *fakeVerifier
	users       *fakeUserStore
	nodes       *fakeNodeStore
	withdrawals *fakeWithdrawalStore
	outbox      *fakeOutbox
	referrals   *fakeReferralStore
}

func newPurchaseFixture() *purchaseFixture {
	f := &purchaseFixture{
		txm:    &fakeTxm{},
		locker: &fakeLocker{},
		verifier: &fakeVerifier{info: &tron.TransferInfo{
			TxHash:    testTxHash,
			AmountSun: 50_000_000,
			BlockTime: time.Now(),
		}},
		users:       newFakeUserStore(),
		nodes:       newFakeNodeStore(),
		withdrawals: newFakeWithdrawalStore(),
		outbox:      &fakeOutbox{},
		referrals:   &fakeReferralStore{},
	}
	referralSvc := NewReferralService(f.txm, f.users, f.referrals, f.outbox, model.TRXToSun(50), testTopics)
	f.svc = NewPurchaseService(f.txm, f.locker, f.verifier, f.users, f.nodes, f.withdrawals, f.outbox, referralSvc, testTopics)
	return f
}

func TestPurchaseNode_Success(t *testing.T) {
	f := newPurchaseFixture()

	node, err := f.svc.PurchaseNode(context.Background(), 7, "node1", testTxHash)
	require.NoError(t, err)

	assert.Equal(t, model.NodeStatusRunning, node.Status)
	assert.Equal(t, model.TRXToSun(500), node.MiningAmount)
	assert.WithinDuration(t, node.StartDate.Add(30*24*time.Hour), node.EndDate, time.Second)

	assert.True(t, f.users.activeMining[7])
	assert.False(t, f.users.boughtNode4[7])
	assert.Equal(t, []int64{7}, f.locker.locked)
	assert.Equal(t, 1, f.locker.unlocked)

	require.Len(t, f.outbox.messages, 1)
	msg := f.outbox.messages[0]
	assert.Equal(t, "mining.purchase.verified", msg.Topic)
	assert.Equal(t, testTxHash, msg.MessageKey)
	var event map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
	assert.Equal(t, "node1", event["node_id"])
}

func TestPurchaseNode_TopTierSetsFlag(t *testing.T) {
	f := newPurchaseFixture()
	f.verifier.info.AmountSun = model.TRXToSun(250)

	_, err := f.svc.PurchaseNode(context.Background(), 7, "node4", testTxHash)
	require.NoError(t, err)
	assert.True(t, f.users.boughtNode4[7])
}

func TestPurchaseNode_UnknownTier(t *testing.T) {
	f := newPurchaseFixture()

	_, err := f.svc.PurchaseNode(context.Background(), 7, "node9", testTxHash)
	assert.ErrorIs(t, err, ErrInvalidNode)
	assert.Empty(t, f.verifier.hashes)
}

func TestPurchaseNode_HashUsedByEarlierPurchase(t *testing.T) {
	f := newPurchaseFixture()
	used := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	f.nodes.byTxHash[testTxHash] = &model.UserNode{TxHash: testTxHash, CreatedAt: used}

	_, err := f.svc.PurchaseNode(context.Background(), 7, "node1", testTxHash)
	var usedErr *AlreadyUsedError
	require.True(t, errors.As(err, &usedErr))
	assert.Equal(t, "node purchase", usedErr.Where)
	assert.Equal(t, used, usedErr.When)
	assert.Empty(t, f.verifier.hashes)
}

func TestPurchaseNode_HashUsedByWithdrawal(t *testing.T) {
	f := newPurchaseFixture()
	f.withdrawals.byTxHash[testTxHash] = &model.Withdrawal{CreatedAt: time.Now()}

	_, err := f.svc.PurchaseNode(context.Background(), 7, "node1", testTxHash)
	var usedErr *AlreadyUsedError
	require.True(t, errors.As(err, &usedErr))
	assert.Equal(t, "withdrawal", usedErr.Where)
}

func TestPurchaseNode_TierAlreadyRunning(t *testing.T) {
	f := newPurchaseFixture()
	f.nodes.running["node1"] = &model.UserNode{NodeID: "node1", Status: model.NodeStatusRunning}

	_, err := f.svc.PurchaseNode(context.Background(), 7, "node1", testTxHash)
	assert.ErrorIs(t, err, ErrNodeAlreadyRunning)
	assert.Empty(t, f.verifier.hashes)
}

func TestPurchaseNode_VerificationFailureSurfaces(t *testing.T) {
	f := newPurchaseFixture()
	f.verifier.err = &tron.VerificationError{Kind: tron.KindAmountMismatch, Detail: "short paid"}

	_, err := f.svc.PurchaseNode(context.Background(), 7, "node1", testTxHash)
	var verr *tron.VerificationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, tron.KindAmountMismatch, verr.Kind)
	assert.Empty(t, f.nodes.created)
	assert.Empty(t, f.outbox.messages)
}

func TestPurchaseNode_InsertConflictMapsToAlreadyUsed(t *testing.T) {
	f := newPurchaseFixture()
	f.nodes.createErr = repository.ErrTxHashUsed

	_, err := f.svc.PurchaseNode(context.Background(), 7, "node1", testTxHash)
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrTxHashUsed)
	assert.Empty(t, f.outbox.messages)
}

func TestPurchaseNode_SettlesPendingReferral(t *testing.T) {
	f := newPurchaseFixture()
	f.referrals.pending = &model.Referral{ID: 3, ReferrerID: 1, ReferredID: 7, RewardAmount: model.TRXToSun(50)}
	f.referrals.settleWon = true

	_, err := f.svc.PurchaseNode(context.Background(), 7, "node1", testTxHash)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, f.referrals.settled)
	assert.Equal(t, model.TRXToSun(50), f.users.referralCredits[1])
}

func TestGetUserNodes_RecomputesProgress(t *testing.T) {
	f := newPurchaseFixture()
	now := time.Now()
	f.nodes.listed = []model.UserNode{
		{ID: 1, Status: model.NodeStatusRunning, StartDate: now.Add(-15 * 24 * time.Hour), EndDate: now.Add(15 * 24 * time.Hour)},
		{ID: 2, Status: model.NodeStatusCompleted, Progress: 100},
	}

	nodes, err := f.svc.GetUserNodes(context.Background(), 7)
	require.NoError(t, err)
	assert.InDelta(t, 50, nodes[0].Progress, 0.1)
	assert.Equal(t, float64(100), nodes[1].Progress)
	assert.Empty(t, f.nodes.completed)

	// The stored progress cache is refreshed for the running node only.
	assert.InDelta(t, 50, f.nodes.progressUpdates[1], 0.1)
	assert.NotContains(t, f.nodes.progressUpdates, int64(2))
}

func TestGetUserNodes_CompletesElapsedOnRead(t *testing.T) {
	f := newPurchaseFixture()
	now := time.Now()
	f.nodes.listed = []model.UserNode{
		{ID: 1, UserID: 7, Status: model.NodeStatusRunning, MiningAmount: model.TRXToSun(500),
			StartDate: now.Add(-31 * 24 * time.Hour), EndDate: now.Add(-24 * time.Hour)},
	}
	f.users.activeMining[7] = true

	nodes, err := f.svc.GetUserNodes(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, model.NodeStatusCompleted, nodes[0].Status)
	assert.Equal(t, float64(100), nodes[0].Progress)
	assert.Equal(t, []int64{1}, f.nodes.completed)
	assert.Equal(t, model.TRXToSun(500), f.users.mineCredits[7])
	// Completion never closes the mine-withdrawal gate.
	assert.True(t, f.users.activeMining[7])
}

func TestCompleteElapsed_CreditsOnce(t *testing.T) {
	f := newPurchaseFixture()
	f.nodes.expired = []model.UserNode{
		{ID: 1, UserID: 7, Status: model.NodeStatusRunning, MiningAmount: model.TRXToSun(500)},
	}

	completed, err := f.svc.CompleteElapsed(context.Background(), time.Now(), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, completed)
	assert.Equal(t, model.TRXToSun(500), f.users.mineCredits[7])
}

func TestCompleteElapsed_MineGateStaysOpen(t *testing.T) {
	f := newPurchaseFixture()
	f.users.users[7] = &model.User{ID: 7, HasActiveMining: true}
	f.users.activeMining[7] = true
	f.nodes.expired = []model.UserNode{
		{ID: 1, UserID: 7, Status: model.NodeStatusRunning, MiningAmount: model.TRXToSun(500)},
	}

	_, err := f.svc.CompleteElapsed(context.Background(), time.Now(), 100)
	require.NoError(t, err)
	assert.True(t, f.users.activeMining[7])

	// The payout credited by the completion must be withdrawable.
	f.users.users[7].MineBalance = f.users.mineCredits[7]
	cfg := &config.BusinessConfig{MineWithdrawMinTRX: 25, ReferralWithdrawMinTRX: 50}
	withdrawSvc := NewWithdrawService(f.txm, f.locker, f.users, f.withdrawals, f.outbox, cfg, testTopics)
	w, err := withdrawSvc.Withdraw(context.Background(), 7, model.BalanceMine, model.TRXToSun(100), "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t")
	require.NoError(t, err)
	assert.Equal(t, model.TRXToSun(100), w.Amount)
}

func TestCompleteElapsed_SkipsNonRunnable(t *testing.T) {
	f := newPurchaseFixture()
	f.nodes.expired = []model.UserNode{
		{ID: 1, UserID: 7, Status: model.NodeStatusCancelled, MiningAmount: model.TRXToSun(500)},
	}

	completed, err := f.svc.CompleteElapsed(context.Background(), time.Now(), 100)
	require.NoError(t, err)
	assert.Zero(t, completed)
	assert.Empty(t, f.nodes.completed)
	assert.Zero(t, f.users.mineCredits[7])
}

func TestCompleteElapsed_LostRaceDoesNotCredit(t *testing.T) {
	f := newPurchaseFixture()
	f.nodes.expired = []model.UserNode{
		{ID: 1, UserID: 7, Status: model.NodeStatusRunning, MiningAmount: model.TRXToSun(500)},
	}
	f.nodes.completeWon = false

	completed, err := f.svc.CompleteElapsed(context.Background(), time.Now(), 100)
	require.NoError(t, err)
	assert.Zero(t, completed)
	assert.Zero(t, f.users.mineCredits[7])
}
