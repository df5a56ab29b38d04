package table

import (
	"reflect"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// RowFromStruct 从结构体构建行记录，列序为结构体字段声明顺序
// 列名取 db 标签，标签为 "-" 的字段跳过，无标签时使用字段名。
// 支持的 tag 格式：`db:"column_name"`
func RowFromStruct(v any) *Row {
	row := NewRow()
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return row
	}

	rt := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		name := columnName(field)
		if name == "" {
			continue
		}

		row.Set(name, rv.Field(i).Interface())
	}
	return row
}

// scanRow 将行记录填充到结构体
func scanRow(row *Row, dest any) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return errors.New("dest must be a pointer to struct")
	}

	rv = rv.Elem()
	rt := rv.Type()

	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		name := columnName(field)
		if name == "" {
			continue
		}

		if value, exists := row.Get(name); exists && value != nil {
			fieldValue := rv.Field(i)
			if fieldValue.CanSet() {
				if err := setFieldValue(fieldValue, value); err != nil {
					return errors.WithMessagef(err, "failed to set field %s", name)
				}
			}
		}
	}
	return nil
}

// structColumns 返回结构体类型对应的全部列名，非结构体返回 nil
func structColumns(rt reflect.Type) []string {
	if rt == nil {
		return nil
	}
	for rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return nil
	}

	var columns []string
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		if name := columnName(field); name != "" {
			columns = append(columns, name)
		}
	}
	return columns
}

// columnName 解析字段对应的列名，跳过的字段返回空串
func columnName(field reflect.StructField) string {
	tag := field.Tag.Get("db")
	if tag == "-" {
		return ""
	}
	if tag != "" {
		if idx := strings.Index(tag, ","); idx != -1 {
			return tag[:idx]
		}
		return tag
	}
	return field.Name
}

// setFieldValue 设置字段值，处理数据库驱动常见的类型差异
func setFieldValue(fieldValue reflect.Value, value any) error {
	if value == nil {
		return nil
	}

	valueType := reflect.TypeOf(value)
	fieldType := fieldValue.Type()

	// 特殊处理：BOOLEAN 字段部分驱动返回 int64，需要转换为 bool
	if fieldType.Kind() == reflect.Bool {
		switch v := value.(type) {
		case int64:
			fieldValue.SetBool(v != 0)
			return nil
		case int:
			fieldValue.SetBool(v != 0)
			return nil
		case bool:
			fieldValue.SetBool(v)
			return nil
		}
	}

	// 特殊处理：time.Time 字段
	if fieldType == reflect.TypeOf(time.Time{}) {
		switch v := value.(type) {
		case time.Time:
			fieldValue.Set(reflect.ValueOf(v))
			return nil
		case string:
			// 尝试多种时间格式解析
			timeFormats := []string{
				"2006-01-02 15:04:05.999999-07:00", // SQLite 格式
				"2006-01-02 15:04:05",              // 标准格式
				time.RFC3339,
				time.RFC3339Nano,
			}

			var parsedTime time.Time
			var lastErr error
			for _, format := range timeFormats {
				parsedTime, lastErr = time.Parse(format, v)
				if lastErr == nil {
					fieldValue.Set(reflect.ValueOf(parsedTime))
					return nil
				}
			}
			return errors.Errorf("cannot parse time string %s: %v", v, lastErr)
		}
	}

	// 特殊处理：字符串字段部分驱动返回 []byte
	if fieldType.Kind() == reflect.String {
		if v, ok := value.([]byte); ok {
			fieldValue.SetString(string(v))
			return nil
		}
	}

	// 特殊处理：数据库返回的数字类型转换
	if fieldType.Kind() == reflect.Int && valueType.Kind() == reflect.Int64 {
		fieldValue.SetInt(value.(int64))
		return nil
	}

	if fieldType.Kind() == reflect.Float64 && valueType.Kind() == reflect.Float32 {
		fieldValue.SetFloat(float64(value.(float32)))
		return nil
	}

	if valueType.AssignableTo(fieldType) {
		fieldValue.Set(reflect.ValueOf(value))
		return nil
	}

	if valueType.ConvertibleTo(fieldType) {
		fieldValue.Set(reflect.ValueOf(value).Convert(fieldType))
		return nil
	}

	return errors.Errorf("cannot convert %v to %v", valueType, fieldType)
}
