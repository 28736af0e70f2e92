package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oxbryte/openly-backend/pkg/custody"
	"github.com/oxbryte/openly-backend/pkg/db/models"
	pkgerrors "github.com/oxbryte/openly-backend/pkg/errors"
	"github.com/oxbryte/openly-backend/pkg/logger"
	"github.com/oxbryte/openly-backend/pkg/money"
)

type custodian interface {
	GetBalance(ctx context.Context, walletID string) (*custody.Balance, error)
	RequestWithdrawal(ctx context.Context, req custody.WithdrawalRequest) (*custody.Withdrawal, error)
}

type sellerDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// BalanceDTO is the dashboard wallet balance.
type BalanceDTO struct {
	WalletID   string `json:"walletId"`
	AmountUSDC string `json:"amountUsdc"`
	AmountUSD  string `json:"amountUsd"`
}

// WithdrawInput is the validated withdrawal payload.
type WithdrawInput struct {
	AmountUSDC  string
	Destination string
}

// WithdrawalDTO acknowledges a submitted withdrawal.
type WithdrawalDTO struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

// Service is the thin wallet surface over the external custodian.
type Service interface {
	Balance(ctx context.Context, userID uuid.UUID) (*BalanceDTO, error)
	Withdraw(ctx context.Context, userID uuid.UUID, input WithdrawInput) (*WithdrawalDTO, error)
}

// ServiceParams collects the wallet service dependencies.
type ServiceParams struct {
	Custody custodian
	Users   sellerDirectory
	Logger  *logger.Logger
}

type service struct {
	custody custodian
	users   sellerDirectory
	logg    *logger.Logger
}

// NewService constructs a wallet service instance.
func NewService(params ServiceParams) (Service, error) {
	if params.Custody == nil {
		return nil, fmt.Errorf("custody client required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{
		custody: params.Custody,
		users:   params.Users,
		logg:    params.Logger,
	}, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (*BalanceDTO, error) {
	wallet, err := s.walletFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	balance, err := s.custody.GetBalance(ctx, wallet)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "custodian balance")
	}

	dto := &BalanceDTO{
		WalletID:   balance.WalletID,
		AmountUSDC: balance.AmountUSDC,
	}
	if micros, parseErr := money.ParseUSDC(balance.AmountUSDC); parseErr == nil {
		dto.AmountUSD = money.USDCToUSD(micros)
	}
	return dto, nil
}

func (s *service) Withdraw(ctx context.Context, userID uuid.UUID, input WithdrawInput) (*WithdrawalDTO, error) {
	amount := strings.TrimSpace(input.AmountUSDC)
	micros, err := money.ParseUSDC(amount)
	if err != nil || micros.Sign() <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amountUsdc must be a positive fixed-point amount")
	}

	wallet, err := s.walletFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	withdrawal, err := s.custody.RequestWithdrawal(ctx, custody.WithdrawalRequest{
		WalletID:    wallet,
		AmountUSDC:  amount,
		Destination: strings.TrimSpace(input.Destination),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "custodian withdrawal")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id":      userID.String(),
			"custodian_tx": withdrawal.TransactionID,
		})
		s.logg.Info(logCtx, "withdrawal submitted")
	}
	return &WithdrawalDTO{
		TransactionID: withdrawal.TransactionID,
		Status:        withdrawal.Status,
	}, nil
}

func (s *service) walletFor(ctx context.Context, userID uuid.UUID) (string, error) {
	seller, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if seller.WalletAddress == nil || *seller.WalletAddress == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "wallet not configured")
	}
	return *seller.WalletAddress, nil
}
