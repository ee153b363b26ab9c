package query

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) map[string]any {
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &body))
	return body
}

func TestNewRequest(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		wantErr string
		check   func(t *testing.T, r *Request)
	}{
		{
			name:    "no pagination",
			body:    `{}`,
			wantErr: "query: pagination must include 'page' and 'page_count'",
		},
		{
			name:    "missing page_count",
			body:    `{"pagination":{"page":1}}`,
			wantErr: "query: pagination must include 'page' and 'page_count'",
		},
		{
			name:    "page zero",
			body:    `{"pagination":{"page":0,"page_count":10}}`,
			wantErr: "query: pagination 'page' must be a positive integer",
		},
		{
			name:    "fractional page_count",
			body:    `{"pagination":{"page":1,"page_count":2.5}}`,
			wantErr: "query: pagination 'page_count' must be a positive integer",
		},
		{
			name:    "offset overflow",
			body:    `{"pagination":{"page":4611686018427387904,"page_count":4}}`,
			wantErr: "query: pagination offset is out of range",
		},
		{
			name: "pagination only",
			body: `{"pagination":{"page":3,"page_count":20}}`,
			check: func(t *testing.T, r *Request) {
				assert.Equal(t, Pagination{Page: 3, PageCount: 20}, r.Pagination())
				assert.Equal(t, 40, r.Pagination().Offset())
				assert.Equal(t, 20, r.Pagination().Limit())
				assert.Nil(t, r.Filters())
				assert.Empty(t, r.Sorting())
				assert.Empty(t, r.NeedFields())
			},
		},
		{
			name: "single sorting",
			body: `{"pagination":{"page":1,"page_count":10},"sorting":{"sort_by":"username","order":"DESC"}}`,
			check: func(t *testing.T, r *Request) {
				assert.Equal(t, []SortField{{Field: "username", Desc: true}}, r.Sorting())
			},
		},
		{
			name: "list sorting",
			body: `{"pagination":{"page":1,"page_count":10},"sorting":[{"field":"username","order":"asc"},{"field":"id","order":"desc"}]}`,
			check: func(t *testing.T, r *Request) {
				assert.Equal(t, []SortField{
					{Field: "username"},
					{Field: "id", Desc: true},
				}, r.Sorting())
			},
		},
		{
			name:    "sorting without order",
			body:    `{"pagination":{"page":1,"page_count":10},"sorting":{"sort_by":"username"}}`,
			wantErr: "query: sorting must include 'sort_by' and 'order'",
		},
		{
			name:    "sorting with non string field",
			body:    `{"pagination":{"page":1,"page_count":10},"sorting":{"sort_by":1,"order":"asc"}}`,
			wantErr: "query: sorting 'sort_by' should be a string",
		},
		{
			name:    "sorting list element without field",
			body:    `{"pagination":{"page":1,"page_count":10},"sorting":[{"order":"asc"}]}`,
			wantErr: "query: each sorting criterion must include 'field' and 'order'",
		},
		{
			name:    "sorting wrong shape",
			body:    `{"pagination":{"page":1,"page_count":10},"sorting":"username"}`,
			wantErr: "query: sorting should be a dict or list of sorting criteria",
		},
		{
			name:    "filter dict with unknown keys",
			body:    `{"pagination":{"page":1,"page_count":10},"filters":{"field":"id","op":"=="}}`,
			wantErr: "query: filters must contain only 'and', 'or', or a single filter with 'field', 'op', and 'value'",
		},
		{
			name:    "and is not a list",
			body:    `{"pagination":{"page":1,"page_count":10},"filters":{"and":{"field":"id","op":"==","value":1}}}`,
			wantErr: "query: filters under 'and' must be a list",
		},
		{
			name:    "nested invalid filter",
			body:    `{"pagination":{"page":1,"page_count":10},"filters":{"and":[{"or":[{"field":1,"op":"==","value":1}]}]}}`,
			wantErr: "query: filter 'field' must be a string",
		},
		{
			name:    "filter scalar",
			body:    `{"pagination":{"page":1,"page_count":10},"filters":{"and":[1]}}`,
			wantErr: "query: filters must be a dict or list",
		},
		{
			name: "nested filters",
			body: `{"pagination":{"page":1,"page_count":10},"filters":{"and":[{"or":[{"field":"username","op":"like","value":"admin"}]},{"field":"id","op":"in","value":[1,2,3]}]}}`,
			check: func(t *testing.T, r *Request) {
				f := r.Filters()
				require.NotNil(t, f)
				assert.Equal(t, CombinatorAnd, f.Combinator)
				require.Len(t, f.Children, 2)
				assert.Equal(t, CombinatorOr, f.Children[0].Combinator)
				assert.Equal(t, &Leaf{Field: "id", Op: "in", Value: []any{float64(1), float64(2), float64(3)}}, f.Children[1].Leaf)
			},
		},
		{
			name:    "need_fields not a list",
			body:    `{"pagination":{"page":1,"page_count":10},"need_fields":"id"}`,
			wantErr: "query: need_fields should be a list",
		},
		{
			name:    "relations not a list",
			body:    `{"pagination":{"page":1,"page_count":10},"relations":{}}`,
			wantErr: "query: relations should be a list",
		},
		{
			name: "group by with aggregates",
			body: `{"pagination":{"page":1,"page_count":10},"need_fields":["username","count(id)"],"group_by":["username"]}`,
			check: func(t *testing.T, r *Request) {
				assert.Equal(t, []string{"username", "count(id)"}, r.NeedFields())
				assert.Equal(t, []string{"username"}, r.GroupBy())
			},
		},
		{
			name:    "group by missing field",
			body:    `{"pagination":{"page":1,"page_count":10},"need_fields":["email"],"group_by":["username"]}`,
			wantErr: "query: field 'email' must either be in 'group_by' or be an aggregate function",
		},
		{
			name:    "group by unknown aggregate",
			body:    `{"pagination":{"page":1,"page_count":10},"need_fields":["median(id)"],"group_by":["username"]}`,
			wantErr: "query: field 'median(id)' must either be in 'group_by' or be an aggregate function",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := NewRequest(decode(t, tc.body))
			if tc.wantErr != "" {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.EqualError(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			tc.check(t, r)
		})
	}
}

func TestRequest_AccessorsReturnCopies(t *testing.T) {
	r, err := NewRequest(map[string]any{
		"pagination":  map[string]any{"page": 1, "page_count": 10},
		"need_fields": []any{"id", "username"},
		"relations":   []string{"roles"},
	})
	require.NoError(t, err)
	nf := r.NeedFields()
	nf[0] = "password"
	assert.Equal(t, []string{"id", "username"}, r.NeedFields())
	assert.Equal(t, []string{"roles"}, r.Relations())
}

func TestDecodeRequest(t *testing.T) {
	r, err := DecodeRequest([]byte(`{"pagination":{"page":2,"page_count":5},"filters":{"field":"id","op":"==","value":7}}`))
	require.NoError(t, err)
	assert.Equal(t, Pagination{Page: 2, PageCount: 5}, r.Pagination())
	assert.Equal(t, json.Number("7"), r.Filters().Leaf.Value)

	_, err = DecodeRequest([]byte(`[]`))
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func Test_toInt(t *testing.T) {
	testCases := []struct {
		in     any
		want   int
		wantOk bool
	}{
		{in: 3, want: 3, wantOk: true},
		{in: int64(4), want: 4, wantOk: true},
		{in: float64(5), want: 5, wantOk: true},
		{in: 5.5},
		{in: 1e300},
		{in: json.Number("6"), want: 6, wantOk: true},
		{in: json.Number("6.1")},
		{in: "7"},
	}
	for _, tc := range testCases {
		got, ok := toInt(tc.in)
		assert.Equal(t, tc.wantOk, ok, "%v", tc.in)
		assert.Equal(t, tc.want, got, "%v", tc.in)
	}
}
