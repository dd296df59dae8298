package sqlite

import "time"

// Row types mapped by gorm. Dates are stored as YYYY-MM-DD and times as HH:MM text.

type departmentRow struct {
	ID   string `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex;not null"`
}

func (departmentRow) TableName() string { return "departments" }

type employeeRow struct {
	ID              string `gorm:"primaryKey"`
	DepartmentID    string `gorm:"index"`
	FirstName       string `gorm:"not null"`
	LastName        string `gorm:"not null"`
	Email           string
	MaxHoursPerWeek float64 `gorm:"not null;default:40"`
	MinHoursPerWeek float64 `gorm:"not null;default:0"`
	IsActive        bool    `gorm:"not null"`
}

func (employeeRow) TableName() string { return "employees" }

type shiftTemplateRow struct {
	ID                string `gorm:"primaryKey"`
	DepartmentID      string `gorm:"index"`
	Name              string `gorm:"not null"`
	DayOfWeek         int    `gorm:"not null"`
	StartTime         string `gorm:"not null"`
	EndTime           string `gorm:"not null"`
	DurationHours     float64
	RequiredEmployees int
	IsActive          bool `gorm:"not null"`
}

func (shiftTemplateRow) TableName() string { return "shift_templates" }

type timeOffRow struct {
	ID          string `gorm:"primaryKey"`
	EmployeeID  string `gorm:"index;not null"`
	StartDate   string `gorm:"not null"`
	EndDate     string `gorm:"not null"`
	RequestType string
	Status      string `gorm:"not null"`
}

func (timeOffRow) TableName() string { return "time_off_requests" }

type preferenceRow struct {
	ID              string `gorm:"primaryKey"`
	EmployeeID      string `gorm:"index;not null"`
	PreferenceType  string `gorm:"not null"`
	ShiftTemplateID string
	DayOfWeek       *int
	Priority        int
	StartDate       *string
	EndDate         *string
	IsActive        bool `gorm:"not null"`
}

func (preferenceRow) TableName() string { return "employee_preferences" }

type historicalShiftRow struct {
	ID                 uint `gorm:"primaryKey"`
	EmployeeIdentifier string
	DepartmentName     string
	ShiftDate          *string
	StartTime          *string
	EndTime            *string
	DurationHours      float64
	Status             string
	ImportedAt         time.Time `gorm:"autoCreateTime"`
}

func (historicalShiftRow) TableName() string { return "historical_shifts" }

type trainingRunRow struct {
	ID             string             `gorm:"primaryKey"`
	ModelType      string             `gorm:"index;not null"`
	Status         string             `gorm:"not null"`
	StartedAt      time.Time          `gorm:"not null"`
	CompletedAt    *time.Time
	SampleCount    int
	Metrics        map[string]float64 `gorm:"serializer:json"`
	ArtifactHandle string
	ErrorMessage   string
}

func (trainingRunRow) TableName() string { return "training_runs" }

type scheduleRow struct {
	ID                        string `gorm:"primaryKey"`
	Name                      string `gorm:"not null"`
	StartDate                 string `gorm:"not null"`
	EndDate                   string `gorm:"not null"`
	Status                    string `gorm:"not null"`
	GenerationStartedAt       *time.Time
	GenerationCompletedAt     *time.Time
	GenerationDurationSeconds float64
	OptimizerScore            float64
	ModelAssisted             bool
	Notes                     string
}

func (scheduleRow) TableName() string { return "schedules" }

type assignmentRow struct {
	ID              string `gorm:"primaryKey"`
	ScheduleID      string `gorm:"not null;uniqueIndex:idx_assignment_employee_date"`
	EmployeeID      string `gorm:"not null;uniqueIndex:idx_assignment_employee_date"`
	ShiftTemplateID string `gorm:"not null"`
	ShiftDate       string `gorm:"not null;uniqueIndex:idx_assignment_employee_date"`
	StartTime       string
	EndTime         string
	Hours           float64
	IsConfirmed     bool
}

func (assignmentRow) TableName() string { return "assignments" }
