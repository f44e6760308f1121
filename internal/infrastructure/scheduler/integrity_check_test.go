package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gpms/backend/internal/application/integrity"
	"github.com/gpms/backend/internal/domain/barcode"
)

type MockIntegrityChecker struct {
	mock.Mock
}

func (m *MockIntegrityChecker) ValidateProductIntegrity(ctx context.Context) (*integrity.Report, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integrity.Report), args.Error(1)
}

func (m *MockIntegrityChecker) FixProductIntegrityIssues(ctx context.Context) (*integrity.FixResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integrity.FixResult), args.Error(1)
}

func unhealthyReport() *integrity.Report {
	return &integrity.Report{
		IsHealthy: false,
		MissingBarcodes: []integrity.MissingBarcode{
			{EntityType: barcode.EntityTypeProductUnit, EntityID: uuid.New()},
		},
	}
}

func TestIntegrityCheck_RunOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("healthy report is stored and nothing is fixed", func(t *testing.T) {
		checker := new(MockIntegrityChecker)
		checker.On("ValidateProductIntegrity", mock.Anything).Return(&integrity.Report{IsHealthy: true}, nil)
		job := NewIntegrityCheck(IntegrityCheckConfig{Interval: time.Hour, AutoFix: true}, checker, zap.NewNop())

		job.RunOnce(ctx)

		require.NotNil(t, job.LastReport())
		assert.True(t, job.LastReport().IsHealthy)
		checker.AssertNotCalled(t, "FixProductIntegrityIssues", mock.Anything)
	})

	t.Run("unhealthy report is fixed with auto-fix", func(t *testing.T) {
		checker := new(MockIntegrityChecker)
		checker.On("ValidateProductIntegrity", mock.Anything).Return(unhealthyReport(), nil)
		checker.On("FixProductIntegrityIssues", mock.Anything).Return(&integrity.FixResult{FixedBarcodes: 1}, nil)
		job := NewIntegrityCheck(IntegrityCheckConfig{Interval: time.Hour, AutoFix: true}, checker, zap.NewNop())

		job.RunOnce(ctx)

		checker.AssertExpectations(t)
	})

	t.Run("unhealthy report is only logged without auto-fix", func(t *testing.T) {
		checker := new(MockIntegrityChecker)
		checker.On("ValidateProductIntegrity", mock.Anything).Return(unhealthyReport(), nil)
		job := NewIntegrityCheck(IntegrityCheckConfig{Interval: time.Hour}, checker, zap.NewNop())

		job.RunOnce(ctx)

		checker.AssertNotCalled(t, "FixProductIntegrityIssues", mock.Anything)
	})

	t.Run("failed validation keeps the previous report", func(t *testing.T) {
		checker := new(MockIntegrityChecker)
		checker.On("ValidateProductIntegrity", mock.Anything).Return(&integrity.Report{IsHealthy: true}, nil).Once()
		checker.On("ValidateProductIntegrity", mock.Anything).Return(nil, errors.New("db down")).Once()
		job := NewIntegrityCheck(IntegrityCheckConfig{Interval: time.Hour}, checker, zap.NewNop())

		job.RunOnce(ctx)
		first := job.LastReport()
		job.RunOnce(ctx)

		assert.Same(t, first, job.LastReport())
	})
}

func TestIntegrityCheck_StartStop(t *testing.T) {
	checker := new(MockIntegrityChecker)
	ran := make(chan struct{}, 8)
	checker.On("ValidateProductIntegrity", mock.Anything).Run(func(mock.Arguments) {
		select {
		case ran <- struct{}{}:
		default:
		}
	}).Return(&integrity.Report{IsHealthy: true}, nil)

	job := NewIntegrityCheck(IntegrityCheckConfig{Interval: 10 * time.Millisecond}, checker, zap.NewNop())
	require.NoError(t, job.Start(context.Background()))
	require.NoError(t, job.Start(context.Background()))

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("integrity check did not run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, job.Stop(ctx))
	require.NoError(t, job.Stop(ctx))
}

func TestIntegrityCheck_DisabledWithoutInterval(t *testing.T) {
	checker := new(MockIntegrityChecker)
	job := NewIntegrityCheck(IntegrityCheckConfig{}, checker, zap.NewNop())

	require.NoError(t, job.Start(context.Background()))
	require.NoError(t, job.Stop(context.Background()))
	checker.AssertNotCalled(t, "ValidateProductIntegrity", mock.Anything)
}
