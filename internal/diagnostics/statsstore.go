package diagnostics

import (
	"database/sql"
	"fmt"
	"os"

	// Registers the "sqlite3" driver used by sql.Open below.
	_ "github.com/mattn/go-sqlite3"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/dramctl/internal/org"
)

// StatsStore persists EndPhase snapshots of every channel's Stats to a
// SQLite database. Flush is also registered with atexit, so rows still
// buffered are written when the process ends through atexit.Exit.
type StatsStore struct {
	db        *sql.DB
	statement *sql.Stmt

	dbPath  string
	pending []phaseRow

	batchSize int
}

type phaseRow struct {
	channel  string
	rqHit    uint64
	rqMiss   uint64
	wqHit    uint64
	wqMiss   uint64
	wqFull   uint64
	congestT int64
	congestN uint64
}

// NewStatsStore creates a store backed by the SQLite file at path.
func NewStatsStore(path string) *StatsStore {
	s := &StatsStore{dbPath: path, batchSize: 1000}

	atexit.Register(func() { s.Flush() })

	return s
}

// Init opens the database and creates the phase_stats table.
func (s *StatsStore) Init() {
	if _, err := os.Stat(s.dbPath); err == nil {
		panic(fmt.Errorf("diagnostics: database %s already exists", s.dbPath))
	}

	db, err := sql.Open("sqlite3", s.dbPath)
	dieOnErr(err)

	s.db = db

	s.mustExecute(`
		create table phase_stats (
			channel        varchar(200) not null,
			rq_hit         integer not null default 0,
			rq_miss        integer not null default 0,
			wq_hit         integer not null default 0,
			wq_miss        integer not null default 0,
			wq_full        integer not null default 0,
			congested_time integer not null default 0,
			congested_n    integer not null default 0
		);
	`)

	stmt, err := s.db.Prepare(`
		insert into phase_stats
			(channel, rq_hit, rq_miss, wq_hit, wq_miss, wq_full, congested_time, congested_n)
		values (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	dieOnErr(err)

	s.statement = stmt
}

// RecordPhase buffers the RoiStats of every channel for later flushing.
func (s *StatsStore) RecordPhase(channels []*org.Channel) {
	for _, ch := range channels {
		st := ch.RoiStats

		s.pending = append(s.pending, phaseRow{
			channel:  ch.Name(),
			rqHit:    st.RQRowBufferHit,
			rqMiss:   st.RQRowBufferMiss,
			wqHit:    st.WQRowBufferHit,
			wqMiss:   st.WQRowBufferMiss,
			wqFull:   st.WQFull,
			congestT: int64(st.DBusCycleCongested),
			congestN: st.DBusCountCongested,
		})
	}

	if len(s.pending) >= s.batchSize {
		s.Flush()
	}
}

// Flush writes every buffered row to the database in one transaction.
func (s *StatsStore) Flush() {
	if len(s.pending) == 0 {
		return
	}

	s.mustExecute("BEGIN TRANSACTION")
	defer s.mustExecute("COMMIT TRANSACTION")

	for _, row := range s.pending {
		_, err := s.statement.Exec(
			row.channel, row.rqHit, row.rqMiss, row.wqHit, row.wqMiss,
			row.wqFull, row.congestT, row.congestN,
		)
		dieOnErr(err)
	}

	s.pending = s.pending[:0]
}

func (s *StatsStore) mustExecute(query string) {
	_, err := s.db.Exec(query)
	dieOnErr(err)
}
