package discounts

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Canis-Ignem/total-keepers-be/internal/domain"
)

type mockDiscountRepo struct {
	codes      map[string]*domain.DiscountCode
	increments int
}

func newMockDiscountRepo(codes ...*domain.DiscountCode) *mockDiscountRepo {
	m := &mockDiscountRepo{codes: make(map[string]*domain.DiscountCode)}
	for _, c := range codes {
		m.codes[c.Code] = c
	}
	return m
}

func (m *mockDiscountRepo) GetByCode(_ context.Context, code string) (*domain.DiscountCode, error) {
	if c, ok := m.codes[code]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockDiscountRepo) GetByCodeForUpdateTx(ctx context.Context, _ *sql.Tx, code string) (*domain.DiscountCode, error) {
	return m.GetByCode(ctx, code)
}

func (m *mockDiscountRepo) IncrementUsageTx(_ context.Context, _ *sql.Tx, id string) error {
	for _, c := range m.codes {
		if c.ID == id {
			c.Uses++
			m.increments++
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockDiscountRepo) Create(_ context.Context, code *domain.DiscountCode) error {
	if _, ok := m.codes[code.Code]; ok {
		return domain.ErrCodeExists
	}
	m.codes[code.Code] = code
	return nil
}

func (m *mockDiscountRepo) Update(_ context.Context, code *domain.DiscountCode) error {
	m.codes[code.Code] = code
	return nil
}

func (m *mockDiscountRepo) Deactivate(_ context.Context, id string) error {
	for _, c := range m.codes {
		if c.ID == id {
			c.Active = false
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockDiscountRepo) GetByID(_ context.Context, id string) (*domain.DiscountCode, error) {
	for _, c := range m.codes {
		if c.ID == id {
			copied := *c
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockDiscountRepo) List(_ context.Context, activeOnly bool) ([]*domain.DiscountCode, error) {
	var out []*domain.DiscountCode
	for _, c := range m.codes {
		if activeOnly && !c.Active {
			continue
		}
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

func percentageCode(code string, value string) *domain.DiscountCode {
	return &domain.DiscountCode{
		ID:     "id-" + code,
		Code:   code,
		Type:   domain.DiscountTypePercentage,
		Value:  decimal.RequireFromString(value),
		Active: true,
	}
}

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPreview_PercentageExact(t *testing.T) {
	repo := newMockDiscountRepo(percentageCode("CODE10", "10.00"))
	svc := NewDiscountService(repo, zap.NewNop())

	quote, err := svc.Preview(context.Background(), "code10", amount("100.00"))
	require.NoError(t, err)

	assert.True(t, quote.DiscountedAmount.Equal(amount("90.00")),
		"expected 90.00, got %s", quote.DiscountedAmount)
	assert.True(t, quote.DiscountAmount.Equal(amount("10.00")))
	assert.Equal(t, 0, repo.increments, "preview must not consume a use")
}

func TestPreview_IsRepeatable(t *testing.T) {
	repo := newMockDiscountRepo(percentageCode("PROMO10", "10.00"))
	svc := NewDiscountService(repo, zap.NewNop())

	for i := 0; i < 5; i++ {
		quote, err := svc.Preview(context.Background(), "  promo10 ", amount("50.00"))
		require.NoError(t, err)
		assert.True(t, quote.DiscountedAmount.Equal(amount("45.00")))
	}
	assert.Equal(t, 0, repo.increments)
}

func TestPreview_RoundsHalfUp(t *testing.T) {
	repo := newMockDiscountRepo(percentageCode("P15", "15.00"))
	svc := NewDiscountService(repo, zap.NewNop())

	quote, err := svc.Preview(context.Background(), "P15", amount("0.10"))
	require.NoError(t, err)

	// 0.015 rounds up to 0.02.
	assert.True(t, quote.DiscountAmount.Equal(amount("0.02")), "got %s", quote.DiscountAmount)
	assert.True(t, quote.DiscountedAmount.Equal(amount("0.08")))
}

func TestPreview_Errors(t *testing.T) {
	expired := percentageCode("OLD", "10.00")
	past := time.Now().Add(-time.Hour)
	expired.ExpiresAt = &past

	exhausted := percentageCode("USED", "10.00")
	maxUses := 3
	exhausted.MaxUses = &maxUses
	exhausted.Uses = 3

	inactive := percentageCode("OFF", "10.00")
	inactive.Active = false

	future := percentageCode("SOON", "10.00")
	startsAt := time.Now().Add(time.Hour)
	future.StartsAt = &startsAt

	minOrder := percentageCode("BIG", "10.00")
	minOrder.MinOrderAmount = amount("20.00")

	repo := newMockDiscountRepo(expired, exhausted, inactive, future, minOrder)
	svc := NewDiscountService(repo, zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name    string
		code    string
		amount  decimal.Decimal
		wantErr error
	}{
		{"not found", "NOPE", amount("10.00"), domain.ErrCodeNotFound},
		{"expired", "OLD", amount("10.00"), domain.ErrCodeExpired},
		{"usage limit", "USED", amount("10.00"), domain.ErrUsageLimitReached},
		{"inactive", "OFF", amount("10.00"), domain.ErrCodeInactive},
		{"not yet active", "SOON", amount("10.00"), domain.ErrCodeNotYetActive},
		{"min order", "BIG", amount("19.99"), domain.ErrMinOrderNotMet},
		{"non-positive amount", "BIG", amount("0.00"), domain.ErrInvalidResultingAmount},
		{"too many decimals", "BIG", amount("20.001"), domain.ErrInvalidResultingAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Preview(ctx, tt.code, tt.amount)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, 0, repo.increments)
}

func TestRedeemTx_IncrementsUsage(t *testing.T) {
	repo := newMockDiscountRepo(percentageCode("PROMO10", "10.00"))
	svc := NewDiscountService(repo, zap.NewNop())

	quote, err := svc.RedeemTx(context.Background(), nil, "PROMO10", amount("50.00"))
	require.NoError(t, err)

	assert.True(t, quote.DiscountedAmount.Equal(amount("45.00")))
	assert.Equal(t, 1, repo.increments)
	assert.Equal(t, 1, repo.codes["PROMO10"].Uses)
}

func TestRedeemTx_ExpiredDoesNotIncrement(t *testing.T) {
	expired := percentageCode("OLD", "10.00")
	past := time.Now().Add(-time.Minute)
	expired.ExpiresAt = &past

	repo := newMockDiscountRepo(expired)
	svc := NewDiscountService(repo, zap.NewNop())

	_, err := svc.RedeemTx(context.Background(), nil, "OLD", amount("50.00"))
	assert.ErrorIs(t, err, domain.ErrCodeExpired)
	assert.Equal(t, 0, repo.increments)
}

func TestRedeemTx_UsageLimitBoundary(t *testing.T) {
	code := percentageCode("LAST", "10.00")
	maxUses := 1
	code.MaxUses = &maxUses

	repo := newMockDiscountRepo(code)
	svc := NewDiscountService(repo, zap.NewNop())
	ctx := context.Background()

	_, err := svc.RedeemTx(ctx, nil, "LAST", amount("10.00"))
	require.NoError(t, err)

	_, err = svc.RedeemTx(ctx, nil, "LAST", amount("10.00"))
	assert.ErrorIs(t, err, domain.ErrUsageLimitReached)
	assert.Equal(t, 1, repo.increments)
}

func TestQuote_FixedTypeCaps(t *testing.T) {
	fixed := &domain.DiscountCode{
		ID:     "id-F5",
		Code:   "F5",
		Type:   domain.DiscountTypeFixed,
		Value:  amount("5.00"),
		Active: true,
	}
	repo := newMockDiscountRepo(fixed)
	svc := NewDiscountService(repo, zap.NewNop())
	ctx := context.Background()

	// Fixed discount larger than the order is capped at the order amount.
	quote, err := svc.Preview(ctx, "F5", amount("3.00"))
	require.NoError(t, err)
	assert.True(t, quote.DiscountAmount.Equal(amount("3.00")))
	assert.True(t, quote.DiscountedAmount.IsZero())
}

func TestQuote_MaxDiscountCap(t *testing.T) {
	capped := percentageCode("CAP50", "50.00")
	maxDiscount := amount("50.00")
	capped.MaxDiscountAmount = &maxDiscount

	repo := newMockDiscountRepo(capped)
	svc := NewDiscountService(repo, zap.NewNop())

	quote, err := svc.Preview(context.Background(), "CAP50", amount("200.00"))
	require.NoError(t, err)
	assert.True(t, quote.DiscountAmount.Equal(amount("50.00")), "50%% of 200 capped at 50")
	assert.True(t, quote.DiscountedAmount.Equal(amount("150.00")))
}

func TestCreateCode_Validation(t *testing.T) {
	repo := newMockDiscountRepo()
	svc := NewDiscountService(repo, zap.NewNop())
	ctx := context.Background()

	_, err := svc.CreateCode(ctx, &CreateCodeRequest{Code: "X", DiscountType: "percentage", DiscountValue: amount("101")})
	assert.Error(t, err)

	_, err = svc.CreateCode(ctx, &CreateCodeRequest{Code: "X", DiscountType: "percentage", DiscountValue: amount("0")})
	assert.Error(t, err)

	created, err := svc.CreateCode(ctx, &CreateCodeRequest{Code: " promo10 ", DiscountType: "percentage", DiscountValue: amount("10.00"), Active: true})
	require.NoError(t, err)
	assert.Equal(t, "PROMO10", created.Code)

	_, err = svc.CreateCode(ctx, &CreateCodeRequest{Code: "PROMO10", DiscountType: "percentage", DiscountValue: amount("10.00")})
	assert.ErrorIs(t, err, domain.ErrCodeExists)
}
