package query

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
)

// Pagination 页码从 1 开始
type Pagination struct {
	Page      int
	PageCount int
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageCount
}

func (p Pagination) Limit() int {
	return p.PageCount
}

type SortField struct {
	Field string
	Desc  bool
}

// Request 是校验过的查询请求，构造之后只读
type Request struct {
	pagination Pagination
	sorting    []SortField
	filters    *Node
	needFields []string
	relations  []string
	groupBy    []string
}

// NewRequest 接收 JSON 解码之后的请求体，一次性做完全部校验
//
//	{
//	  "pagination": {"page": 1, "page_count": 10},
//	  "sorting": {"sort_by": "username", "order": "asc"},
//	  "filters": {"and": [{"field": "id", "op": "in", "value": [1, 2, 3]}]},
//	  "need_fields": ["username", "count(id)"],
//	  "group_by": ["username"]
//	}
func NewRequest(body map[string]any) (*Request, error) {
	r := &Request{}
	var err error
	if r.pagination, err = parsePagination(body["pagination"]); err != nil {
		return nil, err
	}
	if r.sorting, err = parseSorting(body["sorting"]); err != nil {
		return nil, err
	}
	if r.filters, err = parseFilters(body["filters"]); err != nil {
		return nil, err
	}
	if r.needFields, err = parseStrings("need_fields", body["need_fields"]); err != nil {
		return nil, err
	}
	if r.relations, err = parseStrings("relations", body["relations"]); err != nil {
		return nil, err
	}
	if r.groupBy, err = parseStrings("group_by", body["group_by"]); err != nil {
		return nil, err
	}
	if len(r.groupBy) > 0 && len(r.needFields) > 0 {
		if err = r.validateGroupBy(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DecodeRequest 直接从 JSON 构造，数字保留成 json.Number
func DecodeRequest(data []byte) (*Request, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil, newValidationError("request body must be a JSON object: %v", err)
	}
	return NewRequest(body)
}

func (r *Request) Pagination() Pagination {
	return r.pagination
}

func (r *Request) Sorting() []SortField {
	return append([]SortField(nil), r.sorting...)
}

// Filters 没有过滤条件时返回 nil
func (r *Request) Filters() *Node {
	return r.filters
}

func (r *Request) NeedFields() []string {
	return append([]string(nil), r.needFields...)
}

// Relations 目前只做校验，不参与查询
func (r *Request) Relations() []string {
	return append([]string(nil), r.relations...)
}

func (r *Request) GroupBy() []string {
	return append([]string(nil), r.groupBy...)
}

func (r *Request) validateGroupBy() error {
	groups := make(map[string]struct{}, len(r.groupBy))
	for _, g := range r.groupBy {
		groups[g] = struct{}{}
	}
	for _, f := range r.needFields {
		if _, ok := groups[f]; ok {
			continue
		}
		if !isAggregate(f) {
			return newValidationError("field '%s' must either be in 'group_by' or be an aggregate function", f)
		}
	}
	return nil
}

func parsePagination(raw any) (Pagination, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return Pagination{}, newValidationError("pagination must include 'page' and 'page_count'")
	}
	rawPage, ok1 := m["page"]
	rawCount, ok2 := m["page_count"]
	if !ok1 || !ok2 {
		return Pagination{}, newValidationError("pagination must include 'page' and 'page_count'")
	}
	page, ok := toInt(rawPage)
	if !ok || page < 1 {
		return Pagination{}, newValidationError("pagination 'page' must be a positive integer")
	}
	count, ok := toInt(rawCount)
	if !ok || count < 1 {
		return Pagination{}, newValidationError("pagination 'page_count' must be a positive integer")
	}
	// offset 不能溢出 int
	if page-1 > math.MaxInt/count {
		return Pagination{}, newValidationError("pagination offset is out of range")
	}
	return Pagination{Page: page, PageCount: count}, nil
}

func parseSorting(raw any) ([]SortField, error) {
	switch s := raw.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		if len(s) == 0 {
			return nil, nil
		}
		rawField, ok1 := s["sort_by"]
		rawOrder, ok2 := s["order"]
		if !ok1 || !ok2 {
			return nil, newValidationError("sorting must include 'sort_by' and 'order'")
		}
		field, ok := rawField.(string)
		if !ok {
			return nil, newValidationError("sorting 'sort_by' should be a string")
		}
		order, ok := rawOrder.(string)
		if !ok {
			return nil, newValidationError("sorting 'order' should be a string")
		}
		return []SortField{{Field: field, Desc: isDesc(order)}}, nil
	case []any:
		res := make([]SortField, 0, len(s))
		for _, elem := range s {
			m, ok := elem.(map[string]any)
			if !ok {
				return nil, newValidationError("each sorting criterion must include 'field' and 'order'")
			}
			rawField, ok1 := m["field"]
			rawOrder, ok2 := m["order"]
			if !ok1 || !ok2 {
				return nil, newValidationError("each sorting criterion must include 'field' and 'order'")
			}
			field, ok1 := rawField.(string)
			order, ok2 := rawOrder.(string)
			if !ok1 || !ok2 {
				return nil, newValidationError("sorting 'field' and 'order' should be strings")
			}
			res = append(res, SortField{Field: field, Desc: isDesc(order)})
		}
		return res, nil
	default:
		return nil, newValidationError("sorting should be a dict or list of sorting criteria")
	}
}

// 只有 desc 倒序，其他取值一律正序
func isDesc(order string) bool {
	return strings.EqualFold(order, "desc")
}

func parseStrings(name string, raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		res := make([]string, 0, len(v))
		for _, elem := range v {
			s, ok := elem.(string)
			if !ok {
				return nil, newValidationError("%s should be a list of strings", name)
			}
			res = append(res, s)
		}
		return res, nil
	default:
		return nil, newValidationError("%s should be a list", name)
	}
}

// toInt 兼容 encoding/json 解出来的 float64 和 json.Number
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || n >= math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}
