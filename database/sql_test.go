package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hatlonely/tablex/table"
	. "github.com/smartystreets/goconvey/convey"
)

type user struct {
	ID    int     `db:"id"`
	Name  string  `db:"name"`
	Score float64 `db:"score"`
}

func TestSQLWithSQLite(t *testing.T) {
	Convey("sqlite3 端到端场景", t, func() {
		handle, err := NewSQLWithOptions(&SQLOptions{
			Driver:   "sqlite3",
			Database: ":memory:",
		})
		So(err, ShouldBeNil)
		defer handle.Close()

		ctx := context.Background()

		_, err = handle.Exec(ctx, `
			CREATE TABLE users (
				id INTEGER PRIMARY KEY,
				name TEXT NOT NULL,
				score REAL NOT NULL DEFAULT 0
			)
		`)
		So(err, ShouldBeNil)

		accessor, err := table.NewAccessorWithOptions[user](handle, &table.AccessorOptions{
			Table:      "users",
			PrimaryKey: "id",
			Defaults:   table.RowOf("score", 10.0),
		})
		So(err, ShouldBeNil)

		Convey("插入后查询", func() {
			result, err := accessor.Insert(ctx, table.RowOf("id", 1, "name", "Alice"))
			So(err, ShouldBeNil)
			So(result.Success, ShouldBeTrue)
			So(result.Changes, ShouldEqual, 1)

			record, err := accessor.FindOne(ctx, []string{"id", "name"}, "id", 1)
			So(err, ShouldBeNil)
			So(record, ShouldNotBeNil)
			So(record.ID, ShouldEqual, 1)
			So(record.Name, ShouldEqual, "Alice")

			Convey("更新", func() {
				result, err := accessor.Update(ctx, table.RowOf("name", "Alicia"), "id", 1)
				So(err, ShouldBeNil)
				So(result.Changes, ShouldEqual, 1)

				record, err := accessor.FindByID(ctx, nil, 1)
				So(err, ShouldBeNil)
				So(record.Name, ShouldEqual, "Alicia")
			})

			Convey("增量更新反映到后续读取", func() {
				_, err := accessor.Increment(ctx, "score", 5, "id", 1)
				So(err, ShouldBeNil)

				record, err := accessor.FindOne(ctx, []string{"score"}, "id", 1)
				So(err, ShouldBeNil)
				So(record.Score, ShouldEqual, 15) // 默认值 10 + 增量 5

				_, err = accessor.IncrementByID(ctx, "score", -3, 1)
				So(err, ShouldBeNil)

				record, err = accessor.FindByID(ctx, []string{"score"}, 1)
				So(err, ShouldBeNil)
				So(record.Score, ShouldEqual, 12)
			})

			Convey("删除后不再存在", func() {
				result, err := accessor.DeleteByID(ctx, 1)
				So(err, ShouldBeNil)
				So(result.Changes, ShouldEqual, 1)

				exists, err := accessor.ExistsByID(ctx, 1)
				So(err, ShouldBeNil)
				So(exists, ShouldBeFalse)
			})
		})

		Convey("多条记录过滤", func() {
			_, err := accessor.Insert(ctx, table.RowOf("id", 1, "name", "Alice", "score", 1.0))
			So(err, ShouldBeNil)
			_, err = accessor.Insert(ctx, table.RowOf("id", 2, "name", "Bob", "score", 1.0))
			So(err, ShouldBeNil)
			_, err = accessor.Insert(ctx, table.RowOf("id", 3, "name", "Alice", "score", 2.0))
			So(err, ShouldBeNil)

			all, err := accessor.FindAll(ctx, nil)
			So(err, ShouldBeNil)
			So(all, ShouldHaveLength, 3)

			alices, err := accessor.FindManyBy(ctx, table.RowOf("name", "Alice"))
			So(err, ShouldBeNil)
			So(alices, ShouldHaveLength, 2)

			narrowed, err := accessor.FindMany(ctx, []string{"id"}, table.RowOf("name", "Alice", "score", 2.0))
			So(err, ShouldBeNil)
			So(narrowed, ShouldHaveLength, 1)
			So(narrowed[0].ID, ShouldEqual, 3)
			So(narrowed[0].Name, ShouldEqual, "") // 未选择的列保持零值

			exists, err := accessor.Exists(ctx, "name", "Bob")
			So(err, ShouldBeNil)
			So(exists, ShouldBeTrue)
		})

		Convey("违反约束返回 QueryExecutionError", func() {
			_, err := accessor.Insert(ctx, table.RowOf("id", 1, "name", "Alice"))
			So(err, ShouldBeNil)

			_, err = accessor.Insert(ctx, table.RowOf("id", 1, "name", "Alice"))
			So(err, ShouldNotBeNil)
			queryErr, ok := err.(*table.QueryExecutionError)
			So(ok, ShouldBeTrue)
			So(queryErr.Query, ShouldContainSubstring, "INSERT INTO users")
		})
	})
}

func TestSQLWithMock(t *testing.T) {
	Convey("mysql 方言占位符改写", t, func() {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
		So(err, ShouldBeNil)
		defer db.Close()

		handle := &SQL{db: db, driver: "mysql"}
		ctx := context.Background()

		Convey("Exec 重排参数", func() {
			mock.ExpectExec("UPDATE users SET name = ?, score = ? WHERE id = ?").
				WithArgs("Alicia", 9.5, 1).
				WillReturnResult(sqlmock.NewResult(0, 1))

			result, err := handle.Exec(ctx, "UPDATE users SET name = ?2, score = ?3 WHERE id = ?1", 1, "Alicia", 9.5)
			So(err, ShouldBeNil)
			So(result.Success, ShouldBeTrue)
			So(result.Changes, ShouldEqual, 1)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("First 返回首行并保留列序", func() {
			mock.ExpectQuery("SELECT id, name FROM users WHERE id = ? LIMIT 1").
				WithArgs(1).
				WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "Alice"))

			row, err := handle.First(ctx, "SELECT id, name FROM users WHERE id = ?1 LIMIT 1", 1)
			So(err, ShouldBeNil)
			So(row, ShouldNotBeNil)
			So(row.Keys(), ShouldResemble, []string{"id", "name"})
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("First 无匹配返回 nil", func() {
			mock.ExpectQuery("SELECT * FROM users WHERE id = ? LIMIT 1").
				WithArgs(404).
				WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

			row, err := handle.First(ctx, "SELECT * FROM users WHERE id = ?1 LIMIT 1", 404)
			So(err, ShouldBeNil)
			So(row, ShouldBeNil)
		})

		Convey("All 返回全部行", func() {
			mock.ExpectQuery("SELECT * FROM users").
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)))

			rows, err := handle.All(ctx, "SELECT * FROM users")
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 2)
		})
	})
}

func TestNewSQLWithOptions(t *testing.T) {
	Convey("测试 NewSQLWithOptions", t, func() {
		Convey("options 不能为空", func() {
			_, err := NewSQLWithOptions(nil)
			So(err, ShouldNotBeNil)
		})

		Convey("不支持的驱动", func() {
			_, err := NewSQLWithOptions(&SQLOptions{Driver: "oracle"})
			So(err, ShouldNotBeNil)
		})
	})
}
