package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"gorm.io/gorm"

	"trxmining/internal/config"
	"trxmining/internal/model"
)

// PurchaseService owns the node purchase lifecycle: admission checks,
// payment verification, the guarded insert that reserves the transaction
// hash, and completion payouts.
type PurchaseService struct {
	txm         TxManager
	locker      UserLocker
	verifier    PaymentVerifier
	users       UserStore
	nodes       NodeStore
	withdrawals WithdrawalStore
	outbox      OutboxStore
	referrals   *ReferralService
	topics      config.KafkaTopicConfig
}

func NewPurchaseService(
	txm TxManager,
	locker UserLocker,
	verifier PaymentVerifier,
	users UserStore,
	nodes NodeStore,
	withdrawals WithdrawalStore,
	outbox OutboxStore,
	referrals *ReferralService,
	topics config.KafkaTopicConfig,
) *PurchaseService {
	return &PurchaseService{
		txm:         txm,
		locker:      locker,
		verifier:    verifier,
		users:       users,
		nodes:       nodes,
		withdrawals: withdrawals,
		outbox:      outbox,
		referrals:   referrals,
		topics:      topics,
	}
}

type purchaseVerifiedEvent struct {
	UserID    int64  `json:"user_id"`
	NodeID    string `json:"node_id"`
	TxHash    string `json:"tx_hash"`
	AmountSun int64  `json:"amount_sun"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// PurchaseNode verifies the payment behind txHash and activates a mining
// node for the user. The unique index on user_nodes.tx_hash is the real
// duplicate guard; the pre-reads only decorate the error with where and
// when the hash was first used.
func (s *PurchaseService) PurchaseNode(ctx context.Context, userID int64, nodeID, txHash string) (*model.UserNode, error) {
	node, ok := model.NodeByID(nodeID)
	if !ok {
		return nil, ErrInvalidNode
	}

	unlock, err := s.locker.LockUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.checkHashUnused(txHash); err != nil {
		return nil, err
	}

	running, err := s.nodes.GetRunningByUserAndNode(nil, userID, nodeID)
	if err != nil {
		return nil, err
	}
	if running != nil {
		return nil, ErrNodeAlreadyRunning
	}

	info, err := s.verifier.VerifyPayment(ctx, txHash, node.PriceSun())
	if err != nil {
		return nil, err
	}

	now := time.Now()
	userNode := &model.UserNode{
		UserID:       userID,
		NodeID:       node.ID,
		TxHash:       txHash,
		Status:       model.NodeStatusRunning,
		StartDate:    now,
		EndDate:      now.Add(node.Duration()),
		MiningAmount: node.MiningSun(),
		MiningRate:   node.MiningSun() / int64(node.DurationDays),
	}

	err = s.txm.Transaction(func(tx *gorm.DB) error {
		if err := s.nodes.Create(tx, userNode); err != nil {
			return err
		}
		if err := s.users.SetHasActiveMining(tx, userID); err != nil {
			return err
		}
		if node.ID == model.TopNodeID {
			if err := s.users.SetHasBoughtNode4(tx, userID); err != nil {
				return err
			}
		}
		payload, _ := json.Marshal(purchaseVerifiedEvent{
			UserID:    userID,
			NodeID:    node.ID,
			TxHash:    txHash,
			AmountSun: info.AmountSun,
			StartDate: userNode.StartDate.UTC().Format(time.RFC3339),
			EndDate:   userNode.EndDate.UTC().Format(time.RFC3339),
		})
		return s.outbox.Create(tx, &model.OutboxMessage{
			MessageKey: txHash,
			Topic:      s.topics.PurchaseVerified,
			Payload:    string(payload),
			Status:     model.OutboxStatusPending,
		})
	})
	if err != nil {
		return nil, s.mapCreateError(err, txHash)
	}

	// First verified purchase settles the pending referral. A settlement
	// failure must not undo an already committed purchase.
	if s.referrals != nil {
		if err := s.referrals.SettleFirstPurchase(ctx, userID); err != nil {
			log.Printf("[Purchase] referral settlement for user=%d failed: %v", userID, err)
		}
	}

	return userNode, nil
}

// checkHashUnused reads both spend ledgers to give the caller a precise
// already-used error. Racing purchases that pass this check still collide
// on the unique index inside the transaction.
func (s *PurchaseService) checkHashUnused(txHash string) error {
	if existing, err := s.nodes.GetByTxHash(nil, txHash); err != nil {
		return err
	} else if existing != nil {
		return &AlreadyUsedError{Where: "node purchase", When: existing.CreatedAt}
	}
	if existing, err := s.withdrawals.GetByTxHash(nil, txHash); err != nil {
		return err
	} else if existing != nil {
		return &AlreadyUsedError{Where: "withdrawal", When: existing.CreatedAt}
	}
	return nil
}

func (s *PurchaseService) mapCreateError(err error, txHash string) error {
	if existing, readErr := s.nodes.GetByTxHash(nil, txHash); readErr == nil && existing != nil {
		return &AlreadyUsedError{Where: "node purchase", When: existing.CreatedAt}
	}
	return err
}

// GetUserNodes lists the user's nodes with progress recomputed from wall
// time. Nodes whose duration elapsed are completed and credited here, so a
// read between sweeps still observes a finished node as COMPLETED.
func (s *PurchaseService) GetUserNodes(ctx context.Context, userID int64) ([]model.UserNode, error) {
	nodes, err := s.nodes.ListByUserID(nil, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range nodes {
		n := &nodes[i]
		if n.Status != model.NodeStatusRunning {
			continue
		}
		if !now.Before(n.EndDate) {
			if _, err := s.completeNode(n); err != nil {
				log.Printf("[Purchase] completing node=%d failed: %v", n.ID, err)
				continue
			}
			n.Status = model.NodeStatusCompleted
			n.Progress = 100
			continue
		}
		n.Progress = n.ProgressAt(now)
		// Refresh the stored cache so queries that bypass this path see a
		// reasonably fresh value.
		if err := s.nodes.UpdateProgress(nil, n.ID, n.Progress); err != nil {
			log.Printf("[Purchase] caching progress for node=%d failed: %v", n.ID, err)
		}
	}
	return nodes, nil
}

// CompleteElapsed finishes running nodes whose end date has passed. The
// sweep job calls it on a timer.
func (s *PurchaseService) CompleteElapsed(ctx context.Context, now time.Time, batchSize int) (int, error) {
	expired, err := s.nodes.GetRunningExpired(nil, now, batchSize)
	if err != nil {
		return 0, err
	}
	completed := 0
	for i := range expired {
		select {
		case <-ctx.Done():
			return completed, ctx.Err()
		default:
		}
		won, err := s.completeNode(&expired[i])
		if err != nil {
			log.Printf("[Purchase] sweep: completing node=%d failed: %v", expired[i].ID, err)
			continue
		}
		if won {
			completed++
		}
	}
	return completed, nil
}

// completeNode performs the RUNNING -> COMPLETED transition and credits the
// payout. The guarded update makes the credit happen exactly once no matter
// how many sweeps and reads race on the same node. has_active_mining stays
// latched: the mine-withdrawal gate is "ever purchased", so a finished node
// must not lock its own payout.
func (s *PurchaseService) completeNode(node *model.UserNode) (bool, error) {
	if !model.CanTransitionTo(node.Status, model.NodeStatusCompleted) {
		return false, nil
	}
	var won bool
	err := s.txm.Transaction(func(tx *gorm.DB) error {
		var err error
		won, err = s.nodes.Complete(tx, node.ID)
		if err != nil {
			return err
		}
		if !won {
			return nil
		}
		return s.users.CreditMineBalance(tx, node.UserID, node.MiningAmount)
	})
	if err != nil {
		return false, err
	}
	return won, nil
}
