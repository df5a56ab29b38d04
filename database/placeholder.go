package database

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var placeholderRegex = regexp.MustCompile(`\?(\d+)`)

// formatQuery 将 ?N 编号占位符改写为目标方言的占位符格式
// - sqlite3 原生支持 ?N，原样返回
// - postgres 改写为 $N，参数顺序不变
// - mysql 只支持匿名 ?，按占位符在语句中的出现顺序重排参数
func formatQuery(driver string, query string, args []any) (string, []any, error) {
	switch driver {
	case "sqlite3":
		return query, args, nil
	case "postgres":
		return placeholderRegex.ReplaceAllString(query, "$$$1"), args, nil
	case "mysql":
		var reordered []any
		var convErr error
		formatted := placeholderRegex.ReplaceAllStringFunc(query, func(match string) string {
			n, err := strconv.Atoi(strings.TrimPrefix(match, "?"))
			if err != nil || n < 1 || n > len(args) {
				convErr = errors.Errorf("placeholder %s out of range, %d args bound", match, len(args))
				return match
			}
			reordered = append(reordered, args[n-1])
			return "?"
		})
		if convErr != nil {
			return "", nil, convErr
		}
		return formatted, reordered, nil
	default:
		return "", nil, fmt.Errorf("unsupported driver: %s", driver)
	}
}
