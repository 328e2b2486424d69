package schema

// SystemBackupScheduleTable represents the single-row 'system.backup_schedule' table
type SystemBackupScheduleTable struct {
	Table     string
	ID        string
	Frequency string
	RunTime   string
	DayOfWeek string
	IsEnabled string
	CreatedAt string
	UpdatedAt string
}

var SystemBackupSchedule = SystemBackupScheduleTable{
	Table:     "system.backup_schedule",
	ID:        "id",
	Frequency: "frequency",
	RunTime:   "run_time",
	DayOfWeek: "day_of_week",
	IsEnabled: "is_enabled",
	CreatedAt: "created_at",
	UpdatedAt: "updated_at",
}
