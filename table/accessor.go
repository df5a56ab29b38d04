package table

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = validator.New()

// 合法的裸标识符，用于 Increment 的列名校验
var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AccessorOptions 表访问器配置
type AccessorOptions struct {
	// Table 表名
	Table string `cfg:"table" validate:"required"`

	// PrimaryKey 主键列名，必须是行模式中存在的列
	PrimaryKey string `cfg:"primaryKey" validate:"required"`

	// Defaults 插入时的默认列值，调用方未提供的列才会生效
	Defaults *Row `cfg:"defaults"`
}

// Accessor 单表访问器
// 将结构化的 CRUD 意图翻译为带编号占位符的 SQL 语句和有序参数列表，
// 提交给注入的数据库句柄执行。自身不持有任何可变状态，
// 同一实例可以被多个 goroutine 并发使用，隔离性和顺序性由底层引擎保证。
// 每次调用恰好对应一条语句，不会隐式开启事务。
type Accessor[T any] struct {
	handle     Handle
	table      string
	primaryKey string
	defaults   *Row
}

// NewAccessorWithOptions 创建表访问器
// 句柄由调用方持有，其生命周期必须覆盖访问器的整个使用期。
// 不校验表和列在库中是否真实存在，这部分交给引擎在执行期报错；
// 但当 T 是结构体时，会校验主键列在行模式中声明过。
func NewAccessorWithOptions[T any](handle Handle, options *AccessorOptions) (*Accessor[T], error) {
	if handle == nil {
		return nil, errors.New("handle is nil")
	}
	if options == nil {
		return nil, errors.New("options is nil")
	}
	if err := validate.Struct(options); err != nil {
		return nil, errors.WithMessage(err, "invalid options")
	}

	var zero T
	if columns := structColumns(reflect.TypeOf(zero)); columns != nil {
		found := false
		for _, column := range columns {
			if column == options.PrimaryKey {
				found = true
				break
			}
		}
		if !found {
			return nil, errors.Errorf("primary key %s is not a column of %T", options.PrimaryKey, zero)
		}
	}

	defaults := options.Defaults
	if defaults == nil {
		defaults = NewRow()
	}

	return &Accessor[T]{
		handle:     handle,
		table:      options.Table,
		primaryKey: options.PrimaryKey,
		defaults:   defaults,
	}, nil
}

// exec 所有变更语句的唯一出口，统一错误翻译
func (a *Accessor[T]) exec(ctx context.Context, query string, args ...any) (Result, error) {
	result, err := a.handle.Exec(ctx, query, args...)
	if err != nil {
		return Result{}, &QueryExecutionError{Query: query, Err: err}
	}
	if !result.Success {
		return result, &QueryExecutionError{Query: query}
	}
	return result, nil
}

// Insert 插入记录
// 默认列值在前，record 中的列依次覆盖（已有列原位置覆盖，新列追加），
// 生成的列序即合并后的插入顺序，与参数绑定顺序严格一致。
func (a *Accessor[T]) Insert(ctx context.Context, record *Row) (Result, error) {
	merged := a.defaults.Clone()
	record.Range(func(i int, key string, value any) bool {
		merged.Set(key, value)
		return true
	})

	columns := merged.Keys()
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("?%d", i+1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		a.table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "))

	return a.exec(ctx, query, merged.Values()...)
}

// FindOne 按等值条件查询单条记录
// columns 为空表示查询全部列；无匹配时返回 (nil, nil)，不视为错误。
func (a *Accessor[T]) FindOne(ctx context.Context, columns []string, key string, value any) (*T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?1 LIMIT 1",
		selectColumns(columns), a.table, key)

	row, err := a.handle.First(ctx, query, value)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}

	var record T
	if err := scanRow(row, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// FindAll 查询全部记录，顺序为引擎默认返回顺序
func (a *Accessor[T]) FindAll(ctx context.Context, columns []string) ([]T, error) {
	return a.FindMany(ctx, columns, nil)
}

// FindMany 按过滤条件查询多条记录
// filter 中每个键值对生成一个等值子句，按插入顺序以 AND 连接，
// 第 i 个子句绑定第 i 个参数；filter 为空时不生成 WHERE 子句。
func (a *Accessor[T]) FindMany(ctx context.Context, columns []string, filter *Row) ([]T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", selectColumns(columns), a.table)

	var args []any
	if filter.Len() > 0 {
		clauses := make([]string, 0, filter.Len())
		filter.Range(func(i int, key string, value any) bool {
			clauses = append(clauses, fmt.Sprintf("%s = ?%d", key, i+1))
			args = append(args, value)
			return true
		})
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	rows, err := a.handle.All(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	records := make([]T, 0, len(rows))
	for _, row := range rows {
		var record T
		if err := scanRow(row, &record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// FindManyBy 按过滤条件查询多条记录的全部列
func (a *Accessor[T]) FindManyBy(ctx context.Context, filter *Row) ([]T, error) {
	return a.FindMany(ctx, nil, filter)
}

// Update 按等值条件更新记录
// record 为空时不下发任何语句，直接返回 {Success: true, Changes: 0}。
// 参数绑定顺序为 [条件值, 各更新值]，条件占据 1 号位，
// SET 子句的占位符从 2 号开始编号，与绑定顺序保持一致。
func (a *Accessor[T]) Update(ctx context.Context, record *Row, key string, value any) (Result, error) {
	if record.Len() == 0 {
		return Result{Success: true, Changes: 0}, nil
	}

	sets := make([]string, 0, record.Len())
	args := make([]any, 0, record.Len()+1)
	args = append(args, value)
	record.Range(func(i int, column string, v any) bool {
		sets = append(sets, fmt.Sprintf("%s = ?%d", column, i+2))
		args = append(args, v)
		return true
	})

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?1",
		a.table, strings.Join(sets, ", "), key)

	return a.exec(ctx, query, args...)
}

// Delete 按等值条件删除记录
func (a *Accessor[T]) Delete(ctx context.Context, key string, value any) (Result, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?1", a.table, key)
	return a.exec(ctx, query, value)
}

// Increment 按等值条件对数值列做增量更新，step 可以为负
// 列名是标识符，标准 SQL 无法作为参数绑定，只能直接拼接，
// 因此 column 必须是可信的列名而非外部输入，拼接前做裸标识符校验。
// 参数绑定顺序为 [step, 条件值]。
func (a *Accessor[T]) Increment(ctx context.Context, column string, step any, key string, value any) (Result, error) {
	if !identifierRegex.MatchString(column) {
		return Result{}, errors.Errorf("invalid column name: %q", column)
	}

	query := fmt.Sprintf("UPDATE %s SET %s = %s + ?1 WHERE %s = ?2",
		a.table, column, column, key)

	return a.exec(ctx, query, step, value)
}

// Exists 判断是否存在满足等值条件的记录，无匹配不是错误
func (a *Accessor[T]) Exists(ctx context.Context, key string, value any) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = ?1 LIMIT 1", a.table, key)

	row, err := a.handle.First(ctx, query, value)
	if err != nil {
		return false, err
	}
	return row != nil, nil
}

// FindByID 按主键查询单条记录
func (a *Accessor[T]) FindByID(ctx context.Context, columns []string, id any) (*T, error) {
	return a.FindOne(ctx, columns, a.primaryKey, id)
}

// UpdateByID 按主键更新记录
func (a *Accessor[T]) UpdateByID(ctx context.Context, record *Row, id any) (Result, error) {
	return a.Update(ctx, record, a.primaryKey, id)
}

// DeleteByID 按主键删除记录
func (a *Accessor[T]) DeleteByID(ctx context.Context, id any) (Result, error) {
	return a.Delete(ctx, a.primaryKey, id)
}

// IncrementByID 按主键对数值列做增量更新
func (a *Accessor[T]) IncrementByID(ctx context.Context, column string, step any, id any) (Result, error) {
	return a.Increment(ctx, column, step, a.primaryKey, id)
}

// ExistsByID 判断主键对应的记录是否存在
func (a *Accessor[T]) ExistsByID(ctx context.Context, id any) (bool, error) {
	return a.Exists(ctx, a.primaryKey, id)
}

// selectColumns 生成选择列清单，空列表表示全部列
func selectColumns(columns []string) string {
	if len(columns) == 0 {
		return "*"
	}
	return strings.Join(columns, ", ")
}
