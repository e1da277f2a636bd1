package seed

import (
	"database/sql"
	"fmt"
	"regexp"

	_ "github.com/denisenkom/go-mssqldb" // for sqlserver
	_ "github.com/go-sql-driver/mysql"   // for mysql
	_ "github.com/lib/pq"                // for postgres

	"api-orchestrator/internal/types"
)

// DBConfig holds database connection configuration
type DBConfig struct {
	Type     string
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// Seeder loads sample rows from a live database into an execution context's
// variables, so AI parameter resolution can ground its completions in real
// records instead of inventing values.
type Seeder struct {
	config DBConfig
	db     *sql.DB
}

// NewSeeder creates a new seeder for the given database
func NewSeeder(config DBConfig) *Seeder {
	return &Seeder{config: config}
}

// Connect establishes the database connection
func (s *Seeder) Connect() error {
	var dsn string
	switch s.config.Type {
	case "postgres":
		dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			s.config.Host, s.config.Port, s.config.User, s.config.Password, s.config.Database)
	case "mysql":
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
			s.config.User, s.config.Password, s.config.Host, s.config.Port, s.config.Database)
	case "sqlserver":
		dsn = fmt.Sprintf("server=%s;port=%d;user id=%s;password=%s;database=%s",
			s.config.Host, s.config.Port, s.config.User, s.config.Password, s.config.Database)
	default:
		return fmt.Errorf("unsupported database type: %s", s.config.Type)
	}

	db, err := sql.Open(s.config.Type, dsn)
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		return err
	}

	s.db = db
	return nil
}

// Close closes the database connection
func (s *Seeder) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SeedVariables samples up to sampleSize rows from each named table and
// stores them as context variables keyed "db:<table>". Tables that cannot
// be sampled are skipped, reported in the returned warning list.
func (s *Seeder) SeedVariables(execCtx *types.ExecutionContext, tables []string, sampleSize int) []string {
	if sampleSize <= 0 {
		sampleSize = 5
	}
	var warnings []string
	for _, table := range tables {
		rows, err := s.sampleTable(table, sampleSize)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("table %q skipped: %v", table, err))
			continue
		}
		execCtx.SetVariable("db:"+table, rows)
	}
	return warnings
}

// ListTables returns the base table names visible to the connection
func (s *Seeder) ListTables() ([]string, error) {
	query := `
		SELECT LOWER(table_name)
		FROM information_schema.tables
		WHERE table_type = 'BASE TABLE'
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func (s *Seeder) sampleTable(table string, limit int) ([]map[string]interface{}, error) {
	// Table names are interpolated into the query, so they must be plain
	// identifiers
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name")
	}

	var query string
	if s.config.Type == "sqlserver" {
		query = fmt.Sprintf("SELECT TOP %d * FROM %s", limit, table)
	} else {
		query = fmt.Sprintf("SELECT * FROM %s LIMIT %d", table, limit)
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var samples []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		record := make(map[string]interface{}, len(columns))
		for i, column := range columns {
			record[column] = normalizeValue(values[i])
		}
		samples = append(samples, record)
	}
	return samples, rows.Err()
}

// normalizeValue makes driver values JSON-friendly; byte slices become
// strings so sampled rows serialize cleanly into prompts
func normalizeValue(value interface{}) interface{} {
	if b, ok := value.([]byte); ok {
		return string(b)
	}
	return value
}
