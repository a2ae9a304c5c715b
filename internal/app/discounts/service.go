package discounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Canis-Ignem/total-keepers-be/internal/domain"
	"github.com/Canis-Ignem/total-keepers-be/internal/repository/discount_repo"
	"github.com/Canis-Ignem/total-keepers-be/internal/util"
)

type DiscountService interface {
	// Preview validates a code against an amount without consuming a use.
	Preview(ctx context.Context, code string, originalAmount decimal.Decimal) (*QuoteResponse, error)
	// RedeemTx runs the same checks under a row lock and increments the usage
	// counter inside the caller's transaction.
	RedeemTx(ctx context.Context, tx *sql.Tx, code string, originalAmount decimal.Decimal) (*QuoteResponse, error)

	CreateCode(ctx context.Context, req *CreateCodeRequest) (*CodeResponse, error)
	UpdateCode(ctx context.Context, id string, req *UpdateCodeRequest) (*CodeResponse, error)
	DeactivateCode(ctx context.Context, id string) error
	GetCode(ctx context.Context, id string) (*CodeResponse, error)
	ListCodes(ctx context.Context, activeOnly bool) ([]*CodeResponse, error)
}

type discountService struct {
	repo   discount_repo.DiscountRepository
	logger *zap.Logger
}

func NewDiscountService(repo discount_repo.DiscountRepository, logger *zap.Logger) DiscountService {
	return &discountService{repo: repo, logger: logger}
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return domain.ErrInvalidResultingAmount
	}
	return nil
}

// quote computes the discounted amount for an already-loaded code. Shared by
// Preview and RedeemTx so both apply the identical check sequence.
func (s *discountService) quote(code *domain.DiscountCode, originalAmount decimal.Decimal) (*QuoteResponse, error) {
	if err := code.Validate(originalAmount, time.Now()); err != nil {
		return nil, err
	}

	discountAmount := code.DiscountFor(originalAmount)
	discountedAmount := originalAmount.Sub(discountAmount).Round(2)
	if discountedAmount.IsNegative() {
		return nil, domain.ErrInvalidResultingAmount
	}

	return &QuoteResponse{
		Code:             code.Code,
		DiscountType:     string(code.Type),
		DiscountValue:    code.Value,
		DiscountAmount:   discountAmount,
		DiscountedAmount: discountedAmount,
		Description:      code.Description,
	}, nil
}

func (s *discountService) Preview(ctx context.Context, code string, originalAmount decimal.Decimal) (*QuoteResponse, error) {
	if err := validateAmount(originalAmount); err != nil {
		return nil, err
	}

	normalized := domain.NormalizeCode(code)
	dc, err := s.repo.GetByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("Discount code not found", zap.String("code", normalized))
			return nil, domain.ErrCodeNotFound
		}
		s.logger.Error("Failed to load discount code", zap.String("code", normalized), zap.Error(err))
		return nil, fmt.Errorf("failed to load discount code: %w", err)
	}

	return s.quote(dc, originalAmount)
}

func (s *discountService) RedeemTx(ctx context.Context, tx *sql.Tx, code string, originalAmount decimal.Decimal) (*QuoteResponse, error) {
	if err := validateAmount(originalAmount); err != nil {
		return nil, err
	}

	normalized := domain.NormalizeCode(code)
	dc, err := s.repo.GetByCodeForUpdateTx(ctx, tx, normalized)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCodeNotFound
		}
		s.logger.Error("Failed to lock discount code", zap.String("code", normalized), zap.Error(err))
		return nil, fmt.Errorf("failed to lock discount code: %w", err)
	}

	quote, err := s.quote(dc, originalAmount)
	if err != nil {
		return nil, err
	}

	if err := s.repo.IncrementUsageTx(ctx, tx, dc.ID); err != nil {
		return nil, err
	}

	s.logger.Info("Discount code redeemed",
		zap.String("code", dc.Code),
		zap.String("discount_amount", quote.DiscountAmount.String()),
		zap.Int("uses", dc.Uses+1))
	return quote, nil
}

func (s *discountService) CreateCode(ctx context.Context, req *CreateCodeRequest) (*CodeResponse, error) {
	normalized := domain.NormalizeCode(req.Code)
	if normalized == "" {
		return nil, errors.New("code must not be empty")
	}

	discountType := domain.DiscountType(req.DiscountType)
	if discountType == "" {
		discountType = domain.DiscountTypePercentage
	}
	if discountType != domain.DiscountTypePercentage && discountType != domain.DiscountTypeFixed {
		return nil, fmt.Errorf("unknown discount type %q", req.DiscountType)
	}
	if discountType == domain.DiscountTypePercentage {
		if !req.DiscountValue.IsPositive() || req.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
			return nil, errors.New("percentage must be in (0, 100]")
		}
	} else if !req.DiscountValue.IsPositive() {
		return nil, errors.New("fixed discount must be positive")
	}

	now := time.Now()
	code := &domain.DiscountCode{
		ID:                util.GenerateUUID(),
		Code:              normalized,
		Description:       req.Description,
		Type:              discountType,
		Value:             req.DiscountValue,
		MinOrderAmount:    req.MinOrderAmount,
		MaxDiscountAmount: req.MaxDiscountAmount,
		Active:            req.Active,
		StartsAt:          req.StartsAt,
		ExpiresAt:         req.ExpiresAt,
		MaxUses:           req.MaxUses,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(ctx, code); err != nil {
		if errors.Is(err, domain.ErrCodeExists) {
			return nil, domain.ErrCodeExists
		}
		s.logger.Error("Failed to create discount code", zap.String("code", normalized), zap.Error(err))
		return nil, errors.New("failed to create discount code")
	}

	s.logger.Info("Discount code created",
		zap.String("code", code.Code),
		zap.String("type", string(code.Type)),
		zap.String("value", code.Value.String()))
	return mapCodeToResponse(code), nil
}

func (s *discountService) UpdateCode(ctx context.Context, id string, req *UpdateCodeRequest) (*CodeResponse, error) {
	code, err := s.loadByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Description != nil {
		code.Description = *req.Description
	}
	if req.DiscountValue != nil {
		code.Value = *req.DiscountValue
	}
	if req.MinOrderAmount != nil {
		code.MinOrderAmount = *req.MinOrderAmount
	}
	if req.MaxDiscountAmount != nil {
		code.MaxDiscountAmount = req.MaxDiscountAmount
	}
	if req.Active != nil {
		code.Active = *req.Active
	}
	if req.StartsAt != nil {
		code.StartsAt = req.StartsAt
	}
	if req.ExpiresAt != nil {
		code.ExpiresAt = req.ExpiresAt
	}
	if req.MaxUses != nil {
		code.MaxUses = req.MaxUses
	}

	if err := s.repo.Update(ctx, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCodeNotFound
		}
		s.logger.Error("Failed to update discount code", zap.String("code_id", id), zap.Error(err))
		return nil, errors.New("failed to update discount code")
	}

	s.logger.Info("Discount code updated", zap.String("code", code.Code))
	return mapCodeToResponse(code), nil
}

func (s *discountService) DeactivateCode(ctx context.Context, id string) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrCodeNotFound
		}
		s.logger.Error("Failed to deactivate discount code", zap.String("code_id", id), zap.Error(err))
		return errors.New("failed to deactivate discount code")
	}
	s.logger.Info("Discount code deactivated", zap.String("code_id", id))
	return nil
}

func (s *discountService) GetCode(ctx context.Context, id string) (*CodeResponse, error) {
	code, err := s.loadByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapCodeToResponse(code), nil
}

func (s *discountService) ListCodes(ctx context.Context, activeOnly bool) ([]*CodeResponse, error) {
	codes, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		s.logger.Error("Failed to list discount codes", zap.Error(err))
		return nil, errors.New("failed to list discount codes")
	}
	responses := make([]*CodeResponse, len(codes))
	for i, code := range codes {
		responses[i] = mapCodeToResponse(code)
	}
	return responses, nil
}

func (s *discountService) loadByID(ctx context.Context, id string) (*domain.DiscountCode, error) {
	code, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCodeNotFound
		}
		s.logger.Error("Failed to get discount code", zap.String("code_id", id), zap.Error(err))
		return nil, errors.New("failed to get discount code")
	}
	return code, nil
}
