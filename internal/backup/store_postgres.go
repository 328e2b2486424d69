package backup

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/civilregistry/internal/platform/database"
	"github.com/taibuivan/civilregistry/internal/platform/database/schema"
	"github.com/taibuivan/civilregistry/internal/platform/dberr"
)

const scheduleResource = "Backup schedule"

// scheduleRowID pins the single schedule row.
const scheduleRowID = 1

var table = schema.SystemBackupSchedule

// PostgresScheduleStore implements [ScheduleStore] on pgx.
type PostgresScheduleStore struct {
	pool *pgxpool.Pool
}

func NewPostgresScheduleStore(pool *pgxpool.Pool) *PostgresScheduleStore {
	return &PostgresScheduleStore{pool: pool}
}

func scheduleFields(schedule *Schedule) database.Fields {
	return database.Fields{
		database.Bind(table.Frequency, &schedule.Frequency),
		database.Bind(table.RunTime, &schedule.RunTime),
		database.Bind(table.DayOfWeek, &schedule.DayOfWeek),
		database.Bind(table.IsEnabled, &schedule.IsEnabled),
	}
}

func (store *PostgresScheduleStore) Get(ctx context.Context) (*Schedule, error) {
	schedule := &Schedule{}
	bound := scheduleFields(schedule)
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, bound.ColumnList(""), table.Table, table.ID)

	err := database.ScanInto(store.pool.QueryRow(ctx, query, scheduleRowID), bound)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dberr.Wrap(err, scheduleResource)
	}
	return schedule, nil
}

// Save upserts the single row.
func (store *PostgresScheduleStore) Save(ctx context.Context, schedule *Schedule) error {
	id := scheduleRowID
	fields := append(database.Fields{database.Bind(table.ID, &id)}, scheduleFields(schedule)...)
	query := database.UpsertSQL(table.Table, []string{table.ID}, fields, table.UpdatedAt+" = NOW()")

	_, err := store.pool.Exec(ctx, query, fields.Values()...)
	return dberr.Wrap(err, scheduleResource)
}
