package table

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

type testUser struct {
	ID       int       `db:"id"`
	Name     string    `db:"name"`
	Score    float64   `db:"score"`
	Active   bool      `db:"active"`
	CreateAt time.Time `db:"create_at"`
	Ignored  string    `db:"-"`
	Plain    string
}

func TestRowFromStruct(t *testing.T) {
	Convey("测试 RowFromStruct", t, func() {
		Convey("列序与字段声明顺序一致", func() {
			row := RowFromStruct(&testUser{ID: 1, Name: "Alice", Score: 9.5, Plain: "x"})
			So(row.Keys(), ShouldResemble, []string{"id", "name", "score", "active", "create_at", "Plain"})

			value, ok := row.Get("name")
			So(ok, ShouldBeTrue)
			So(value, ShouldEqual, "Alice")
		})

		Convey("标签为 - 的字段被跳过", func() {
			row := RowFromStruct(testUser{Ignored: "secret"})
			So(row.Has("Ignored"), ShouldBeFalse)
		})

		Convey("非结构体返回空行", func() {
			So(RowFromStruct(42).Len(), ShouldEqual, 0)
		})
	})
}

func TestScanRow(t *testing.T) {
	Convey("测试 scanRow", t, func() {
		Convey("按 db 标签填充字段", func() {
			row := RowOf("id", int64(1), "name", "Alice", "score", 9.5)
			var user testUser
			So(scanRow(row, &user), ShouldBeNil)
			So(user.ID, ShouldEqual, 1)
			So(user.Name, ShouldEqual, "Alice")
			So(user.Score, ShouldEqual, 9.5)
		})

		Convey("缺失的列保持零值", func() {
			row := RowOf("id", int64(7))
			var user testUser
			So(scanRow(row, &user), ShouldBeNil)
			So(user.Name, ShouldEqual, "")
		})

		Convey("int64 转换为 bool", func() {
			row := RowOf("active", int64(1))
			var user testUser
			So(scanRow(row, &user), ShouldBeNil)
			So(user.Active, ShouldBeTrue)
		})

		Convey("[]byte 转换为 string", func() {
			row := RowOf("name", []byte("Alice"))
			var user testUser
			So(scanRow(row, &user), ShouldBeNil)
			So(user.Name, ShouldEqual, "Alice")
		})

		Convey("字符串时间解析", func() {
			row := RowOf("create_at", "2024-01-02 03:04:05")
			var user testUser
			So(scanRow(row, &user), ShouldBeNil)
			So(user.CreateAt.Year(), ShouldEqual, 2024)
		})

		Convey("目标必须是结构体指针", func() {
			row := RowOf("id", 1)
			var n int
			So(scanRow(row, &n), ShouldNotBeNil)
			So(scanRow(row, testUser{}), ShouldNotBeNil)
		})
	})
}
