package database

import (
	"context"
	"fmt"

	"github.com/hatlonely/tablex/table"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type GormOptions struct {
	Driver   string `cfg:"driver" def:"mysql"`
	DSN      string `cfg:"dsn"`
	Host     string `cfg:"host" def:"localhost"`
	Port     string `cfg:"port" def:"3306"`
	Database string `cfg:"database"`
	Username string `cfg:"username"`
	Password string `cfg:"password"`
	Charset  string `cfg:"charset" def:"utf8mb4"`
}

// Gorm 基于 gorm 原生 SQL 接口的句柄实现
// 只使用 Exec/Raw 透传语句，不使用 gorm 的模型映射和链式查询。
// gorm 按出现顺序扫描匿名 ? 绑定参数，所以这里统一先重排为匿名占位符。
type Gorm struct {
	db *gorm.DB
}

func NewGormWithOptions(options *GormOptions) (*Gorm, error) {
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

	dsn := options.DSN
	var dialector gorm.Dialector
	switch options.Driver {
	case "mysql":
		if dsn == "" {
			dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
				options.Username, options.Password, options.Host, options.Port, options.Database, options.Charset)
		}
		dialector = mysql.Open(dsn)
	case "sqlite3":
		if dsn == "" {
			dsn = options.Database
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", options.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	return &Gorm{db: db}, nil
}

// 实现 table.Handle 接口
func (g *Gorm) Exec(ctx context.Context, query string, args ...any) (table.Result, error) {
	query, args, err := formatQuery("mysql", query, args)
	if err != nil {
		return table.Result{}, err
	}

	tx := g.db.WithContext(ctx).Exec(query, args...)
	if tx.Error != nil {
		return table.Result{}, tx.Error
	}

	return table.Result{Success: true, Changes: tx.RowsAffected}, nil
}

func (g *Gorm) First(ctx context.Context, query string, args ...any) (*table.Row, error) {
	query, args, err := formatQuery("mysql", query, args)
	if err != nil {
		return nil, err
	}

	rows, err := g.db.WithContext(ctx).Raw(query, args...).Rows()
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

func (g *Gorm) All(ctx context.Context, query string, args ...any) ([]*table.Row, error) {
	query, args, err := formatQuery("mysql", query, args)
	if err != nil {
		return nil, err
	}

	rows, err := g.db.WithContext(ctx).Raw(query, args...).Rows()
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

func (g *Gorm) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
