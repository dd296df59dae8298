package features

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jakechorley/staffplan/pkg/core/model"
)

// FeatureColumns names the columns of the numeric feature vector in order
var FeatureColumns = []string{
	"weekday",
	"is_weekend",
	"bucket_index",
	"start_hour",
	"duration_hours",
	"is_published",
}

// InputDataError describes a historical record that could not be used.
// It is never fatal: the record is skipped and the error is reported as a warning.
type InputDataError struct {
	Row    int
	Field  string
	Reason string
}

func (e *InputDataError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
	}
	return fmt.Sprintf("row %d: %s %s", e.Row, e.Field, e.Reason)
}

// Feature is the structured representation of a single valid historical record
type Feature struct {
	EmployeeKey   string
	Department    string
	ShiftDate     time.Time
	DayOfWeek     int
	IsWeekend     bool
	TimeBucket    model.TimeBucket
	StartHour     int
	DurationHours float64
	IsPublished   bool
}

// Vector returns the numeric encoding of the feature, ordered as FeatureColumns
func (f Feature) Vector() []float64 {
	return []float64{
		float64(f.DayOfWeek),
		boolToFloat(f.IsWeekend),
		float64(f.TimeBucket.Index()),
		float64(f.StartHour),
		f.DurationHours,
		boolToFloat(f.IsPublished),
	}
}

// Extractor turns historical shift records into features and per-employee profiles.
// Profiles are built incrementally as records are added.
type Extractor struct {
	features []Feature
	profiles map[string]*model.EmployeeProfile
	warnings []string
}

// NewExtractor creates an empty extractor
func NewExtractor() *Extractor {
	return &Extractor{
		features: make([]Feature, 0),
		profiles: make(map[string]*model.EmployeeProfile),
		warnings: make([]string, 0),
	}
}

// Process adds every record and returns the number of valid samples and the warnings
// produced for skipped rows. Row numbers in warnings are 1-based.
func (e *Extractor) Process(records []model.HistoricalShiftRecord) (int, []string) {
	added := 0
	for i, record := range records {
		if err := e.Add(i+1, record); err != nil {
			e.warnings = append(e.warnings, err.Error())
			continue
		}
		added++
	}
	return added, e.Warnings()
}

// Add validates a single record and, if usable, appends its feature and updates the
// owning employee's profile. Returns an *InputDataError if the record was skipped.
func (e *Extractor) Add(row int, record model.HistoricalShiftRecord) error {
	feature, err := extractFeature(row, record)
	if err != nil {
		return err
	}

	e.features = append(e.features, feature)

	profile, ok := e.profiles[feature.EmployeeKey]
	if !ok {
		profile = model.NewEmployeeProfile()
		e.profiles[feature.EmployeeKey] = profile
	}
	profile.TotalShifts++
	profile.TotalHours += feature.DurationHours
	profile.ShiftsByWeekday[feature.DayOfWeek]++
	profile.ShiftsByTimeBucket[feature.TimeBucket]++
	profile.ShiftsByDepartment[feature.Department]++

	return nil
}

func extractFeature(row int, record model.HistoricalShiftRecord) (Feature, error) {
	if model.IsUnallocated(record.EmployeeIdentifier) {
		return Feature{}, &InputDataError{Row: row, Field: "employee", Reason: "is empty or unallocated"}
	}
	department := strings.TrimSpace(record.DepartmentName)
	if department == "" {
		return Feature{}, &InputDataError{Row: row, Field: "department", Reason: "is missing"}
	}
	if record.ShiftDate.IsZero() {
		return Feature{}, &InputDataError{Row: row, Field: "shift date", Reason: "is missing"}
	}
	if record.StartTime == nil {
		return Feature{}, &InputDataError{Row: row, Field: "start time", Reason: "is missing"}
	}
	if record.DurationHours <= 0 || math.IsNaN(record.DurationHours) || math.IsInf(record.DurationHours, 0) {
		return Feature{}, &InputDataError{Row: row, Field: "duration", Reason: fmt.Sprintf("is invalid (%v)", record.DurationHours)}
	}

	day := model.DayIndex(record.ShiftDate)

	return Feature{
		EmployeeKey:   model.NormalizeIdentifier(record.EmployeeIdentifier),
		Department:    department,
		ShiftDate:     model.NormalizeDate(record.ShiftDate),
		DayOfWeek:     day,
		IsWeekend:     model.IsWeekendIndex(day),
		TimeBucket:    model.BucketForHour(record.StartTime.Hour),
		StartHour:     record.StartTime.Hour,
		DurationHours: record.DurationHours,
		IsPublished:   strings.EqualFold(strings.TrimSpace(record.Status), "published"),
	}, nil
}

// Features returns the extracted features in input order
func (e *Extractor) Features() []Feature {
	return e.features
}

// Profiles returns the per-employee statistics keyed by normalised identifier
func (e *Extractor) Profiles() map[string]*model.EmployeeProfile {
	return e.profiles
}

// Warnings returns a copy of the warnings accumulated so far
func (e *Extractor) Warnings() []string {
	return append([]string{}, e.warnings...)
}

// Vectors returns the numeric feature table, one row per feature
func (e *Extractor) Vectors() [][]float64 {
	vectors := make([][]float64, len(e.features))
	for i, f := range e.features {
		vectors[i] = f.Vector()
	}
	return vectors
}

// ColumnStats returns the per-column mean and population standard deviation.
// Returns nil slices for an empty table.
func ColumnStats(vectors [][]float64) (means, stds []float64) {
	if len(vectors) == 0 {
		return nil, nil
	}

	cols := len(vectors[0])
	means = make([]float64, cols)
	stds = make([]float64, cols)

	for _, v := range vectors {
		for c := 0; c < cols; c++ {
			means[c] += v[c]
		}
	}
	n := float64(len(vectors))
	for c := range means {
		means[c] /= n
	}

	for _, v := range vectors {
		for c := 0; c < cols; c++ {
			d := v[c] - means[c]
			stds[c] += d * d
		}
	}
	for c := range stds {
		stds[c] = math.Sqrt(stds[c] / n)
	}

	return means, stds
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
