package table

import (
	"context"
	"fmt"
)

// Result 变更类操作的执行结果
type Result struct {
	Success bool  // 执行是否成功
	Changes int64 // 引擎上报的影响行数，部分引擎可能不提供
}

// Handle 数据库句柄接口
// 这是本层依赖的全部边界：能够接收一条带位置参数的 SQL 语句，
// 并以变更模式（Exec）或查询模式（First/All）执行。
// 任何满足该接口的引擎（关系型、嵌入式、远程）都可以替换使用。
//
// 语句中的占位符使用 ?N 编号形式（?1, ?2, ...），参数按编号绑定，
// 由各实现负责改写为目标方言的占位符格式。
type Handle interface {
	// Exec 执行变更语句，返回成功标记和影响行数
	Exec(ctx context.Context, query string, args ...any) (Result, error)

	// First 执行查询语句，返回第一条匹配记录；无匹配时返回 (nil, nil)
	First(ctx context.Context, query string, args ...any) (*Row, error)

	// All 执行查询语句，按引擎返回顺序返回全部匹配记录
	All(ctx context.Context, query string, args ...any) ([]*Row, error)
}

// QueryExecutionError 变更语句执行失败错误
// 携带出错的语句文本用于诊断，是本层唯一主动构造的错误类型。
// 查询类操作的错误由句柄原样向上传递，不做包装。
type QueryExecutionError struct {
	Query string
	Err   error
}

func (e *QueryExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("query execution failed: %s: %v", e.Query, e.Err)
	}
	return fmt.Sprintf("query execution failed: %s", e.Query)
}

func (e *QueryExecutionError) Unwrap() error {
	return e.Err
}
