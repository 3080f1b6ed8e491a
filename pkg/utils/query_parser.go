package utils

import (
	"net/url"
	"strconv"
	"strings"

	"servo-system/pkg/types"
)

// ParseFilterFromQuery разбирает строку запроса списочных методов.
// Поддерживаются filter[поле]=значение, sort[поле]=asc|desc (или sort=-поле),
// search, limit, offset, page и withPagination.
func ParseFilterFromQuery(query url.Values) types.Filter {
	filter := types.Filter{
		Sort:   make(map[string]string),
		Filter: make(map[string]interface{}),
		Limit:  10,
		Page:   1,
	}

	for key, values := range query {
		if len(values) == 0 {
			continue
		}
		switch {
		case strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]"):
			filter.Filter[key[7:len(key)-1]] = values[0]
		case strings.HasPrefix(key, "sort[") && strings.HasSuffix(key, "]"):
			dir := values[0]
			if dir != "desc" {
				dir = "asc"
			}
			filter.Sort[key[5:len(key)-1]] = dir
		}
	}

	// Краткая форма сортировки: sort=-created_at.
	if sort := query.Get("sort"); sort != "" {
		if strings.HasPrefix(sort, "-") {
			filter.Sort[sort[1:]] = "desc"
		} else {
			filter.Sort[sort] = "asc"
		}
	}

	if search := query.Get("search"); search != "" {
		filter.Search = search
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			filter.Limit = l
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filter.Offset = o
			if filter.Limit > 0 {
				filter.Page = o/filter.Limit + 1
			}
		}
	}
	// page учитывается только при незаданном offset.
	if pageStr := query.Get("page"); pageStr != "" && filter.Offset == 0 {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			filter.Page = p
			filter.Offset = (p - 1) * filter.Limit
		}
	}
	if query.Get("withPagination") == "true" {
		filter.WithPagination = true
	}

	return filter
}
