package repository

import "strings"

// sortColumn maps a requested sort field onto an allow-listed column.
func sortColumn(requested string, allowed map[string]string, fallback string) string {
	if column, ok := allowed[requested]; ok {
		return column
	}
	return fallback
}

// sortOrder normalises a sort direction, defaulting to DESC.
func sortOrder(requested string) string {
	order := strings.ToUpper(requested)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	return order
}

// pageBounds converts 1-based pagination into LIMIT/OFFSET values.
func pageBounds(page, size int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return size, (page - 1) * size
}
