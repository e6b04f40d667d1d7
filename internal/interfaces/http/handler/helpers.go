package handler

const defaultPageSize = 20

// pageOrDefault mirrors the defaults the services apply so the response
// meta matches the page actually served.
func pageOrDefault(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return page, pageSize
}
