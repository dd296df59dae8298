package training

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/staffplan/pkg/core/model"
	"github.com/jakechorley/staffplan/pkg/db"
)

type mockArtifactWriter struct {
	mu    sync.Mutex
	saved []*model.ModelArtifact
	err   error
}

func (m *mockArtifactWriter) Save(ctx context.Context, modelType string, artifact *model.ModelArtifact) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.saved = append(m.saved, artifact)
	return fmt.Sprintf("%s_%d", modelType, len(m.saved)), nil
}

type mockLedger struct {
	mu   sync.Mutex
	runs []db.TrainingRun
	err  error
}

func (m *mockLedger) AppendTrainingRun(ctx context.Context, run db.TrainingRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.runs = append(m.runs, run)
	return nil
}

func tod(h, m int) *model.TimeOfDay {
	return &model.TimeOfDay{Hour: h, Minute: m}
}

// makeRecords returns n valid records for one employee on consecutive days starting Monday 2024-01-01
func makeRecords(n int, employee string) []model.HistoricalShiftRecord {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := make([]model.HistoricalShiftRecord, n)
	for i := range records {
		records[i] = model.HistoricalShiftRecord{
			EmployeeIdentifier: employee,
			DepartmentName:     "Kitchen",
			ShiftDate:          start.AddDate(0, 0, i),
			StartTime:          tod(9, 0),
			EndTime:            tod(17, 0),
			DurationHours:      8,
			Status:             "published",
		}
	}
	return records
}

func TestTrain_Success(t *testing.T) {
	writer := &mockArtifactWriter{}
	ledger := &mockLedger{}
	trainer := NewTrainer(writer, ledger, zap.NewNop())

	records := append(makeRecords(8, "alice@example.com"), makeRecords(4, "Bob Smith")...)
	result := trainer.Train(context.Background(), records, model.DefaultModelType)

	require.True(t, result.Success, "errors: %v", result.Errors)
	assert.NoError(t, result.Err)
	assert.Equal(t, 12, result.SampleCount)
	assert.Equal(t, 2, result.Metrics.EmployeeCount)
	assert.Equal(t, 6.0, result.Metrics.AvgShiftsPerEmployee)
	assert.Equal(t, 12, result.Metrics.SamplesUsed)
	assert.Equal(t, "preference_predictor_1", result.ArtifactHandle)
	assert.Empty(t, result.Warnings)
	assert.Empty(t, result.Errors)

	require.Len(t, writer.saved, 1)
	artifact := writer.saved[0]
	assert.Equal(t, 12, artifact.SampleCount)
	assert.Len(t, artifact.FeatureMeans, 6)
	assert.Len(t, artifact.FeatureStds, 6)
	require.NotNil(t, artifact.Profile("alice@example.com"))
	require.NotNil(t, artifact.Profile("bob_smith"))

	require.Len(t, ledger.runs, 1)
	run := ledger.runs[0]
	assert.Equal(t, db.TrainingStatusCompleted, run.Status)
	assert.Equal(t, model.DefaultModelType, run.ModelType)
	assert.Equal(t, 12, run.SampleCount)
	assert.Equal(t, "preference_predictor_1", run.ArtifactHandle)
	assert.Equal(t, 2.0, run.Metrics["employee_count"])
	assert.NotNil(t, run.CompletedAt)
	assert.NotEmpty(t, run.ID)
}

func TestTrain_ProfileCountsSumToTotal(t *testing.T) {
	writer := &mockArtifactWriter{}
	trainer := NewTrainer(writer, &mockLedger{}, zap.NewNop())

	records := makeRecords(14, "alice@example.com")
	// Vary buckets and departments
	records[1].StartTime = tod(13, 0)
	records[2].StartTime = tod(18, 30)
	records[3].StartTime = tod(23, 0)
	records[4].DepartmentName = "Bar"

	result := trainer.Train(context.Background(), records, model.DefaultModelType)
	require.True(t, result.Success)

	for key, profile := range writer.saved[0].EmployeeProfiles {
		weekday, bucket, department := 0, 0, 0
		for _, c := range profile.ShiftsByWeekday {
			weekday += c
		}
		for _, c := range profile.ShiftsByTimeBucket {
			bucket += c
		}
		for _, c := range profile.ShiftsByDepartment {
			department += c
		}
		assert.Equal(t, profile.TotalShifts, weekday, key)
		assert.Equal(t, profile.TotalShifts, bucket, key)
		assert.Equal(t, profile.TotalShifts, department, key)
	}
}

func TestTrain_InsufficientData(t *testing.T) {
	writer := &mockArtifactWriter{}
	ledger := &mockLedger{}
	trainer := NewTrainer(writer, ledger, zap.NewNop())

	records := makeRecords(9, "alice@example.com")
	result := trainer.Train(context.Background(), records, model.DefaultModelType)

	assert.False(t, result.Success)
	assert.Equal(t, 9, result.SampleCount)
	assert.Empty(t, result.ArtifactHandle)
	assert.Empty(t, writer.saved, "no artifact should be written")

	var insufficient *InsufficientDataError
	require.ErrorAs(t, result.Err, &insufficient)
	assert.Equal(t, 9, insufficient.Samples)
	assert.Equal(t, 10, insufficient.Required)
	require.Len(t, result.Errors, 1)

	require.Len(t, ledger.runs, 1)
	assert.Equal(t, db.TrainingStatusFailed, ledger.runs[0].Status)
	assert.Contains(t, ledger.runs[0].ErrorMessage, "insufficient training data")
	assert.Empty(t, ledger.runs[0].ArtifactHandle)
}

func TestTrain_InvalidRowsBecomeWarnings(t *testing.T) {
	writer := &mockArtifactWriter{}
	trainer := NewTrainer(writer, &mockLedger{}, zap.NewNop())

	records := makeRecords(10, "alice@example.com")
	records = append(records,
		model.HistoricalShiftRecord{EmployeeIdentifier: "**UNALLOCATED**", DepartmentName: "Kitchen", ShiftDate: time.Now(), StartTime: tod(9, 0), DurationHours: 8},
		model.HistoricalShiftRecord{EmployeeIdentifier: "carol@example.com", ShiftDate: time.Now(), StartTime: tod(9, 0), DurationHours: 8},
		model.HistoricalShiftRecord{EmployeeIdentifier: "carol@example.com", DepartmentName: "Kitchen", StartTime: tod(9, 0), DurationHours: 8},
		model.HistoricalShiftRecord{EmployeeIdentifier: "carol@example.com", DepartmentName: "Kitchen", ShiftDate: time.Now(), DurationHours: 8},
	)

	result := trainer.Train(context.Background(), records, model.DefaultModelType)

	require.True(t, result.Success)
	assert.Equal(t, 10, result.SampleCount)
	assert.Len(t, result.Warnings, 4)
	assert.Equal(t, 1, result.Metrics.EmployeeCount)
}

func TestTrain_ExactlyMinimumSamples(t *testing.T) {
	writer := &mockArtifactWriter{}
	trainer := NewTrainer(writer, &mockLedger{}, zap.NewNop())

	result := trainer.Train(context.Background(), makeRecords(10, "alice@example.com"), model.DefaultModelType)

	require.True(t, result.Success)
	profile := writer.saved[0].Profile("alice@example.com")
	require.NotNil(t, profile)
	assert.Equal(t, 10, profile.TotalShifts)
}

func TestTrain_ConfigurableMinimum(t *testing.T) {
	trainer := NewTrainer(&mockArtifactWriter{}, &mockLedger{}, zap.NewNop(), WithMinSamples(3))

	result := trainer.Train(context.Background(), makeRecords(3, "alice@example.com"), model.DefaultModelType)
	assert.True(t, result.Success)
}

func TestTrain_ArtifactSaveFailure(t *testing.T) {
	ledger := &mockLedger{}
	trainer := NewTrainer(&mockArtifactWriter{err: errors.New("disk full")}, ledger, zap.NewNop())

	result := trainer.Train(context.Background(), makeRecords(10, "alice@example.com"), model.DefaultModelType)

	assert.False(t, result.Success)
	assert.ErrorContains(t, result.Err, "disk full")
	require.Len(t, ledger.runs, 1)
	assert.Equal(t, db.TrainingStatusFailed, ledger.runs[0].Status)
}

func TestTrain_LedgerFailureIsNotSuccess(t *testing.T) {
	writer := &mockArtifactWriter{}
	trainer := NewTrainer(writer, &mockLedger{err: errors.New("db down")}, zap.NewNop())

	result := trainer.Train(context.Background(), makeRecords(10, "alice@example.com"), model.DefaultModelType)

	assert.False(t, result.Success)
	assert.ErrorContains(t, result.Err, "db down")
	assert.NotEmpty(t, result.ArtifactHandle)
}

func TestTrain_DurationUsesClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	clock := func() time.Time {
		calls++
		return start.Add(time.Duration(calls-1) * 1500 * time.Millisecond)
	}
	writer := &mockArtifactWriter{}
	trainer := NewTrainer(writer, &mockLedger{}, zap.NewNop(), WithClock(clock))

	result := trainer.Train(context.Background(), makeRecords(10, "alice@example.com"), model.DefaultModelType)

	require.True(t, result.Success)
	assert.Equal(t, 1.5, result.DurationSeconds)
	assert.True(t, start.Equal(writer.saved[0].TrainedAt))
}

func TestTrain_RepeatedRunsCreateNewArtifacts(t *testing.T) {
	writer := &mockArtifactWriter{}
	ledger := &mockLedger{}
	trainer := NewTrainer(writer, ledger, zap.NewNop())

	first := trainer.Train(context.Background(), makeRecords(10, "alice@example.com"), model.DefaultModelType)
	second := trainer.Train(context.Background(), makeRecords(12, "alice@example.com"), model.DefaultModelType)

	require.True(t, first.Success)
	require.True(t, second.Success)
	assert.NotEqual(t, first.ArtifactHandle, second.ArtifactHandle)
	assert.Len(t, writer.saved, 2)
	assert.Len(t, ledger.runs, 2)
}

func TestTrain_ConcurrentRunsAreSerialised(t *testing.T) {
	writer := &mockArtifactWriter{}
	ledger := &mockLedger{}
	trainer := NewTrainer(writer, ledger, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			trainer.Train(context.Background(), makeRecords(10, "alice@example.com"), model.DefaultModelType)
		}()
	}
	wg.Wait()

	assert.Len(t, writer.saved, 5)
	assert.Len(t, ledger.runs, 5)
}
