package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/hatlonely/tablex/table"
	_ "github.com/mattn/go-sqlite3"
)

type SQLOptions struct {
	Driver   string `cfg:"driver" def:"mysql"`
	DSN      string `cfg:"dsn"`
	Host     string `cfg:"host" def:"localhost"`
	Port     string `cfg:"port" def:"3306"`
	Database string `cfg:"database"`
	Username string `cfg:"username"`
	Password string `cfg:"password"`
	Charset  string `cfg:"charset" def:"utf8mb4"`
	MaxConns int    `cfg:"maxConns" def:"10"`
	MaxIdle  int    `cfg:"maxIdle" def:"5"`
}

// SQL 基于 database/sql 的句柄实现
type SQL struct {
	db     *sql.DB
	driver string
}

func NewSQLWithOptions(options *SQLOptions) (*SQL, error) {
	if options == nil {
		return nil, fmt.Errorf("options cannot be nil")
	}

	// 设置默认值
	if options.Driver == "" {
		options.Driver = "mysql"
	}
	if options.Host == "" {
		options.Host = "localhost"
	}
	if options.Port == "" {
		options.Port = "3306"
	}
	if options.Charset == "" {
		options.Charset = "utf8mb4"
	}
	if options.MaxConns == 0 {
		options.MaxConns = 10
	}
	if options.MaxIdle == 0 {
		options.MaxIdle = 5
	}

	dsn := options.DSN
	if dsn == "" {
		switch options.Driver {
		case "mysql":
			dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
				options.Username, options.Password, options.Host, options.Port, options.Database, options.Charset)
		case "sqlite3":
			dsn = options.Database
		default:
			return nil, fmt.Errorf("unsupported driver: %s", options.Driver)
		}
	}

	db, err := sql.Open(options.Driver, dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(options.MaxConns)
	db.SetMaxIdleConns(options.MaxIdle)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &SQL{
		db:     db,
		driver: options.Driver,
	}, nil
}

// 实现 table.Handle 接口
func (s *SQL) Exec(ctx context.Context, query string, args ...any) (table.Result, error) {
	query, args, err := formatQuery(s.driver, query, args)
	if err != nil {
		return table.Result{}, err
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return table.Result{}, err
	}

	// 部分引擎不支持影响行数上报，忽略错误按 0 处理
	changes, err := result.RowsAffected()
	if err != nil {
		changes = 0
	}

	return table.Result{Success: true, Changes: changes}, nil
}

func (s *SQL) First(ctx context.Context, query string, args ...any) (*table.Row, error) {
	query, args, err := formatQuery(s.driver, query, args)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return scanRowToRecord(rows)
}

func (s *SQL) All(ctx context.Context, query string, args ...any) ([]*table.Row, error) {
	query, args, err := formatQuery(s.driver, query, args)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*table.Row
	for rows.Next() {
		record, err := scanRowToRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}

// 辅助函数：扫描数据库行到 Row，保留列的返回顺序
func scanRowToRecord(rows *sql.Rows) (*table.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	values := make([]any, len(columns))
	valuePtrs := make([]any, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	if err := rows.Scan(valuePtrs...); err != nil {
		return nil, err
	}

	record := table.NewRow()
	for i, col := range columns {
		record.Set(col, values[i])
	}

	return record, nil
}
