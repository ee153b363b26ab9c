package query

import (
	"testing"

	"lightorm/orm"
	"lightorm/orm/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type User struct {
	Id       int64
	Username string
	Email    string
	Age      int64
}

func (User) TableName() string {
	return "users"
}

func userModel(t *testing.T) *model.Model {
	m, err := model.NewRegistry().Get(&User{})
	require.NoError(t, err)
	return m
}

// buildWhere 借助 Selector 把谓词渲染成 SQL
func buildWhere(t *testing.T, n *Node) (*orm.Query, bool) {
	db := memoryDB(t, "filter")
	sel := orm.NewSelector[User](db)
	m, err := sel.Model()
	require.NoError(t, err)
	p, ok := n.Predicate(m)
	if !ok {
		return nil, false
	}
	q, err := sel.Where(p).Build()
	require.NoError(t, err)
	return q, true
}

func leaf(field, op string, value any) *Node {
	return &Node{Leaf: &Leaf{Field: field, Op: op, Value: value}}
}

func TestNode_Predicate(t *testing.T) {
	testCases := []struct {
		name      string
		node      *Node
		wantOk    bool
		wantQuery *orm.Query
	}{
		{
			name: "nil",
		},
		{
			name:   "eq leaf",
			node:   leaf("id", "==", float64(1)),
			wantOk: true,
			wantQuery: &orm.Query{
				SQL:  "SELECT * FROM `users` WHERE `id` = ?;",
				Args: []any{int64(1)},
			},
		},
		{
			name:   "comparison ops",
			node:   &Node{Combinator: CombinatorAnd, Children: []*Node{leaf("age", ">", 1), leaf("age", "<", 9), leaf("age", ">=", 2), leaf("age", "<=", 8), leaf("age", "!=", 5)}},
			wantOk: true,
			wantQuery: &orm.Query{
				SQL:  "SELECT * FROM `users` WHERE ((((`age` > ?) AND (`age` < ?)) AND (`age` >= ?)) AND (`age` <= ?)) AND (`age` != ?);",
				Args: []any{1, 9, 2, 8, 5},
			},
		},
		{
			name: "and of eq",
			node: &Node{Combinator: CombinatorAnd, Children: []*Node{
				leaf("id", "==", 1),
				leaf("username", "==", "a"),
			}},
			wantOk: true,
			wantQuery: &orm.Query{
				SQL:  "SELECT * FROM `users` WHERE (`id` = ?) AND (`username` = ?);",
				Args: []any{1, "a"},
			},
		},
		{
			name: "or of eq",
			node: &Node{Combinator: CombinatorOr, Children: []*Node{
				leaf("id", "==", 1),
				leaf("username", "==", "a"),
			}},
			wantOk: true,
			wantQuery: &orm.Query{
				SQL:  "SELECT * FROM `users` WHERE (`id` = ?) OR (`username` = ?);",
				Args: []any{1, "a"},
			},
		},
		{
			name: "unknown field dropped",
			node: &Node{Combinator: CombinatorAnd, Children: []*Node{
				leaf("id", "==", 1),
				leaf("nickname", "==", "x"),
				leaf("username", "==", "a"),
			}},
			wantOk: true,
			wantQuery: &orm.Query{
				SQL:  "SELECT * FROM `users` WHERE (`id` = ?) AND (`username` = ?);",
				Args: []any{1, "a"},
			},
		},
		{
			name: "unknown op and nil value dropped",
			node: &Node{Combinator: CombinatorAnd, Children: []*Node{
				leaf("id", "~", 1),
				leaf("email", "==", nil),
				leaf("username", "==", "a"),
			}},
			wantOk: true,
			wantQuery: &orm.Query{
				SQL:  "SELECT * FROM `users` WHERE `username` = ?;",
				Args: []any{"a"},
			},
		},
		{
			name:   "all children dropped",
			node:   &Node{Combinator: CombinatorOr, Children: []*Node{leaf("nickname", "==", 1)}},
			wantOk: true,
			wantQuery: &orm.Query{
				SQL: "SELECT * FROM `users` WHERE (1=1);",
			},
		},
		{
			name:   "like wraps wildcards",
			node:   leaf("username", "like", "adm"),
			wantOk: true,
			wantQuery: &orm.Query{
				SQL:  "SELECT * FROM `users` WHERE `username` LIKE ?;",
				Args: []any{"%adm%"},
			},
		},
		{
			name:   "in list",
			node:   leaf("id", "in", []any{float64(1), float64(2), float64(3)}),
			wantOk: true,
			wantQuery: &orm.Query{
				SQL:  "SELECT * FROM `users` WHERE `id` IN (?,?,?);",
				Args: []any{int64(1), int64(2), int64(3)},
			},
		},
		{
			name: "in scalar dropped",
			node: leaf("id", "in", 1),
		},
		{
			name:   "in empty matches nothing",
			node:   leaf("id", "in", []any{}),
			wantOk: true,
			wantQuery: &orm.Query{
				SQL: "SELECT * FROM `users` WHERE (1=0);",
			},
		},
		{
			name: "in empty inside and",
			node: &Node{Combinator: CombinatorAnd, Children: []*Node{
				leaf("age", ">", float64(18)),
				leaf("id", "in", []any{}),
			}},
			wantOk: true,
			wantQuery: &orm.Query{
				SQL:  "SELECT * FROM `users` WHERE (`age` > ?) AND ((1=0));",
				Args: []any{int64(18)},
			},
		},
		{
			name: "nested",
			node: &Node{Combinator: CombinatorAnd, Children: []*Node{
				{Combinator: CombinatorOr, Children: []*Node{
					leaf("username", "like", "admin"),
					leaf("username", "like", "Jane"),
				}},
				leaf("Id", "in", []any{1, 2, 3}),
			}},
			wantOk: true,
			wantQuery: &orm.Query{
				SQL:  "SELECT * FROM `users` WHERE ((`username` LIKE ?) OR (`username` LIKE ?)) AND (`id` IN (?,?,?));",
				Args: []any{"%admin%", "%Jane%", 1, 2, 3},
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q, ok := buildWhere(t, tc.node)
			assert.Equal(t, tc.wantOk, ok)
			if !ok {
				return
			}
			assert.Equal(t, tc.wantQuery, q)
		})
	}
}

func Test_normalize(t *testing.T) {
	assert.Equal(t, int64(3), normalize(float64(3)))
	assert.Equal(t, 3.5, normalize(3.5))
	assert.Equal(t, "a", normalize("a"))
}
