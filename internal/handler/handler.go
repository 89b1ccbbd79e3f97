package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"trxmining/internal/config"
	"trxmining/internal/infrastructure/lock"
	"trxmining/internal/model"
	"trxmining/internal/ratelimit"
	"trxmining/internal/repository"
	"trxmining/internal/service"
	"trxmining/internal/tron"
	"trxmining/pkg/response"
)

type Handler struct {
	users     *service.UserService
	purchases *service.PurchaseService
	referrals *service.ReferralService
	withdraws *service.WithdrawService
	Limiter   *ratelimit.Limiter
}

// NewHandler wires the concrete stack: gorm repositories, the trongrid
// client, redis locks and the services on top of them.
func NewHandler(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *Handler {
	userRepo := repository.NewUserRepository(db)
	nodeRepo := repository.NewNodeRepository(db)
	referralRepo := repository.NewReferralRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	verificationRepo := repository.NewVerificationRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)

	tronClient := tron.NewClient(
		cfg.Tron.APIURL,
		cfg.Tron.APIKey,
		time.Duration(cfg.Tron.RequestTimeoutSec)*time.Second,
		time.Duration(cfg.Tron.MaxTxAgeHours)*time.Hour,
	)
	verifier := service.NewVerificationService(tronClient, verificationRepo, &cfg.Tron)
	locker := lock.NewUserLocker(rdb, 30*time.Second)

	referralSvc := service.NewReferralService(
		db, userRepo, referralRepo, outboxRepo,
		model.TRXToSun(cfg.Business.ReferralRewardTRX), cfg.Kafka.Topic,
	)
	purchaseSvc := service.NewPurchaseService(
		db, locker, verifier, userRepo, nodeRepo, withdrawalRepo, outboxRepo,
		referralSvc, cfg.Kafka.Topic,
	)
	withdrawSvc := service.NewWithdrawService(
		db, locker, userRepo, withdrawalRepo, outboxRepo,
		&cfg.Business, cfg.Kafka.Topic,
	)
	userSvc := service.NewUserService(db, userRepo, referralSvc, &cfg.Business)

	limiter := ratelimit.New(
		cfg.Business.RateLimitPerMinute,
		time.Minute,
		time.Duration(cfg.Business.RateLimitCooldownSec)*time.Second,
	)

	return &Handler{
		users:     userSvc,
		purchases: purchaseSvc,
		referrals: referralSvc,
		withdraws: withdrawSvc,
		Limiter:   limiter,
	}
}

// Purchases exposes the purchase service to background jobs.
func (h *Handler) Purchases() *service.PurchaseService {
	return h.purchases
}

type signupRequest struct {
	Username     string `json:"username" binding:"required,min=3,max=50"`
	Password     string `json:"password" binding:"required,min=6"`
	ReferralCode string `json:"referral_code"`
}

func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	user, err := h.users.Signup(c.Request.Context(), req.Username, req.Password, req.ReferralCode)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, user)
}

type profileResponse struct {
	*model.User
	MineBalanceTRX     string `json:"mine_balance_trx"`
	ReferralBalanceTRX string `json:"referral_balance_trx"`
}

func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	user, err := h.users.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, profileResponse{
		User:               user,
		MineBalanceTRX:     model.FormatTRX(user.MineBalance),
		ReferralBalanceTRX: model.FormatTRX(user.ReferralBalance),
	})
}

func (h *Handler) ListNodes(c *gin.Context) {
	response.Success(c, model.MiningNodes)
}

func (h *Handler) ListUserNodes(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	nodes, err := h.purchases.GetUserNodes(c.Request.Context(), userID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, nodes)
}

type purchaseRequest struct {
	UserID int64  `json:"user_id" binding:"required"`
	NodeID string `json:"node_id" binding:"required"`
	TxHash string `json:"tx_hash" binding:"required"`
}

func (h *Handler) PurchaseNode(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	node, err := h.purchases.PurchaseNode(c.Request.Context(), req.UserID, req.NodeID, req.TxHash)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, node)
}

type withdrawRequest struct {
	UserID      int64  `json:"user_id" binding:"required"`
	BalanceType string `json:"balance_type" binding:"required"`
	AmountSun   int64  `json:"amount_sun" binding:"required,gt=0"`
	ToAddress   string `json:"to_address" binding:"required"`
}

func (h *Handler) Withdraw(c *gin.Context) {
	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	withdrawal, err := h.withdraws.Withdraw(c.Request.Context(), req.UserID, req.BalanceType, req.AmountSun, req.ToAddress)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, withdrawal)
}

type payoutRequest struct {
	WithdrawalNo string `json:"withdrawal_no" binding:"required"`
	TxHash       string `json:"tx_hash" binding:"required"`
}

// RecordPayout is the operational endpoint that attaches the executed
// on-chain payout hash to a withdrawal.
func (h *Handler) RecordPayout(c *gin.Context) {
	var req payoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.withdraws.RecordPayoutTx(c.Request.Context(), req.WithdrawalNo, req.TxHash); err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *Handler) ListWithdrawals(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	withdrawals, err := h.withdraws.ListWithdrawals(c.Request.Context(), userID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, withdrawals)
}

func (h *Handler) ListReferrals(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	referrals, err := h.referrals.ListReferrals(c.Request.Context(), userID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, referrals)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func requireUserID(c *gin.Context) (int64, bool) {
	var query struct {
		UserID int64 `form:"user_id" binding:"required"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "user_id is required")
		return 0, false
	}
	return query.UserID, true
}

// renderError maps service and repository errors onto http status and
// business code.
func (h *Handler) renderError(c *gin.Context, err error) {
	var usedErr *service.AlreadyUsedError
	var verifyErr *tron.VerificationError

	switch {
	case errors.As(err, &usedErr):
		response.Error(c, http.StatusConflict, response.CodeTxAlreadyUsed, usedErr.Error())
	case errors.As(err, &verifyErr):
		status := http.StatusUnprocessableEntity
		if verifyErr.Kind == tron.KindInvalidInput {
			status = http.StatusBadRequest
		}
		response.Error(c, status, response.CodeVerificationFailed, verifyErr.Error())
	case errors.Is(err, service.ErrInvalidNode):
		response.Error(c, http.StatusBadRequest, response.CodeInvalidNode, "unknown mining node")
	case errors.Is(err, service.ErrNodeAlreadyRunning):
		response.Error(c, http.StatusConflict, response.CodeNodeAlreadyRunning, "a node of this tier is already running")
	case errors.Is(err, service.ErrBelowMinimum):
		response.Error(c, http.StatusBadRequest, response.CodeBelowMinimum, "amount is below the withdrawal minimum")
	case errors.Is(err, service.ErrGateNotMet):
		response.Error(c, http.StatusForbidden, response.CodeGateNotMet, "withdrawal requirements not met")
	case errors.Is(err, service.ErrInvalidAddress):
		response.Error(c, http.StatusBadRequest, response.CodeInvalidAddress, "malformed TRON address")
	case errors.Is(err, service.ErrInvalidTxHash):
		response.BadRequest(c, "transaction hash must be 64 hex characters")
	case errors.Is(err, repository.ErrWithdrawalNotFound):
		response.Error(c, http.StatusNotFound, response.CodeWithdrawalNotFound, "withdrawal not found or payout already recorded")
	case errors.Is(err, service.ErrInvalidBalanceType):
		response.BadRequest(c, "balance_type must be MINE or REFERRAL")
	case errors.Is(err, service.ErrInvalidReferral):
		response.Error(c, http.StatusBadRequest, response.CodeInvalidReferralCode, "unknown referral code")
	case errors.Is(err, repository.ErrInsufficientBalance):
		response.Error(c, http.StatusConflict, response.CodeInsufficientBalance, "insufficient balance")
	case errors.Is(err, repository.ErrUsernameTaken):
		response.Error(c, http.StatusConflict, response.CodeUsernameTaken, "username already taken")
	case errors.Is(err, repository.ErrTxHashUsed):
		response.Error(c, http.StatusConflict, response.CodeTxAlreadyUsed, "transaction already used")
	case errors.Is(err, repository.ErrUserNotFound):
		response.Error(c, http.StatusNotFound, response.CodeUserNotFound, "user not found")
	default:
		response.ServerError(c, "internal server error")
	}
}
