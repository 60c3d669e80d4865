package pagination_test

import (
	"fmt"
	"time"

	"github.com/patric-chuzhbe/tracky/internal/pagination"
)

func ExampleSplit() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []time.Time{base.Add(3 * time.Minute), base.Add(2 * time.Minute), base.Add(time.Minute)}

	page, err := pagination.NewPage(2, "")
	if err != nil {
		panic(err)
	}

	items, hasMore, cursor := pagination.Split(rows, page.Limit, func(t time.Time) time.Time { return t })
	next, _ := pagination.DecodeCursor(cursor)

	fmt.Println(len(items), hasMore, next.Format(time.TimeOnly))
	// Output:
	// 2 true 00:02:00
}
