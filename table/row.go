package table

// Row 有序行记录，列名到列值的映射
// Go 的 map 不保证遍历顺序，而插入语句的列序决定了占位符与值的对应关系，
// 乱序会导致值绑定到错误的列上，所以这里显式维护键的插入顺序。
// 覆盖已有键时保留原位置，只替换值。
type Row struct {
	keys   []string
	values map[string]any
}

// NewRow 创建空行记录
func NewRow() *Row {
	return &Row{
		values: map[string]any{},
	}
}

// RowOf 按键值对创建行记录，参数必须成对出现
// 例如 RowOf("id", 1, "name", "Alice")
func RowOf(pairs ...any) *Row {
	row := NewRow()
	for i := 0; i+1 < len(pairs); i += 2 {
		if key, ok := pairs[i].(string); ok {
			row.Set(key, pairs[i+1])
		}
	}
	return row
}

// Set 设置列值，新列追加到末尾，已有列原位置覆盖
func (r *Row) Set(key string, value any) *Row {
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
	return r
}

// Get 获取列值
func (r *Row) Get(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	value, ok := r.values[key]
	return value, ok
}

// Has 判断列是否存在
func (r *Row) Has(key string) bool {
	if r == nil {
		return false
	}
	_, ok := r.values[key]
	return ok
}

// Len 列数量
func (r *Row) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Keys 按插入顺序返回全部列名
func (r *Row) Keys() []string {
	if r == nil {
		return nil
	}
	keys := make([]string, len(r.keys))
	copy(keys, r.keys)
	return keys
}

// Values 按插入顺序返回全部列值
func (r *Row) Values() []any {
	if r == nil {
		return nil
	}
	values := make([]any, 0, len(r.keys))
	for _, key := range r.keys {
		values = append(values, r.values[key])
	}
	return values
}

// Range 按插入顺序遍历，fn 返回 false 时终止
func (r *Row) Range(fn func(i int, key string, value any) bool) {
	if r == nil {
		return
	}
	for i, key := range r.keys {
		if !fn(i, key, r.values[key]) {
			return
		}
	}
}

// Clone 复制行记录
func (r *Row) Clone() *Row {
	clone := NewRow()
	if r == nil {
		return clone
	}
	for _, key := range r.keys {
		clone.Set(key, r.values[key])
	}
	return clone
}

// Map 转换为普通 map，丢失顺序信息
func (r *Row) Map() map[string]any {
	result := make(map[string]any, r.Len())
	if r == nil {
		return result
	}
	for key, value := range r.values {
		result[key] = value
	}
	return result
}
