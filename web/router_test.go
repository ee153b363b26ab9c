package web

import (
	"fmt"
	"net/http"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouter_AddRoute(t *testing.T) {
	// 第一个步骤构造路由树，第二个步骤校验路由树
	testRoutes := []struct {
		method string
		path   string
	}{
		{
			method: http.MethodGet,
			path:   "/",
		},
		{
			method: http.MethodGet,
			path:   "/metrics",
		},
		{
			method: http.MethodGet,
			path:   "/api/v1.0/users",
		},
		{
			method: http.MethodGet,
			path:   "/api/v1.0/users/:id",
		},
		{
			method: http.MethodGet,
			path:   "/static/*",
		},
		{
			method: http.MethodPost,
			path:   "/api/v1.0/users",
		},
		{
			method: http.MethodPost,
			path:   "/api/v1.0/users/query",
		},
	}
	var mockHandler HandleFunc = func(ctx *Context) {}
	r := newRouter()
	for _, route := range testRoutes {
		r.addRoute(route.method, route.path, mockHandler)
	}

	// handler 不可比，不能直接 assert.Equal
	wantRouter := &router{
		trees: map[string]*node{
			http.MethodGet: {
				path:    "/",
				handler: mockHandler,
				children: map[string]*node{
					"metrics": {
						path:    "metrics",
						handler: mockHandler,
					},
					"api": {
						path: "api",
						children: map[string]*node{
							"v1.0": {
								path: "v1.0",
								children: map[string]*node{
									"users": {
										path:    "users",
										handler: mockHandler,
										paramChild: &node{
											path:    ":id",
											handler: mockHandler,
										},
									},
								},
							},
						},
					},
					"static": {
						path: "static",
						starChild: &node{
							path:    "*",
							handler: mockHandler,
						},
					},
				},
			},
			http.MethodPost: {
				path: "/",
				children: map[string]*node{
					"api": {
						path: "api",
						children: map[string]*node{
							"v1.0": {
								path: "v1.0",
								children: map[string]*node{
									"users": {
										path:    "users",
										handler: mockHandler,
										children: map[string]*node{
											"query": {
												path:    "query",
												handler: mockHandler,
											},
										},
									},
								},
							},
						},
					},
				},
			},
		},
	}
	msg, ok := wantRouter.equal(&r)
	assert.True(t, ok, msg)

	r = newRouter()
	assert.Panics(t, func() {
		r.addRoute(http.MethodGet, "", mockHandler)
	})
	assert.PanicsWithValue(t, "web: route path must not end with '/'", func() {
		r.addRoute(http.MethodGet, "/a/b/c/", mockHandler)
	})
	assert.PanicsWithValue(t, "web: route path must start with '/'", func() {
		r.addRoute(http.MethodGet, "abc", mockHandler)
	})
	assert.PanicsWithValue(t, "web: route path must not contain '//', got [/a//b]", func() {
		r.addRoute(http.MethodGet, "/a//b", mockHandler)
	})

	r = newRouter()
	r.addRoute(http.MethodGet, "/", mockHandler)
	assert.PanicsWithValue(t, "web: duplicate route [/]", func() {
		r.addRoute(http.MethodGet, "/", mockHandler)
	})
	r.addRoute(http.MethodGet, "/users", mockHandler)
	assert.PanicsWithValue(t, "web: duplicate route [/users]", func() {
		r.addRoute(http.MethodGet, "/users", mockHandler)
	})

	r = newRouter()
	r.addRoute(http.MethodGet, "/a/*", mockHandler)
	assert.Panics(t, func() {
		r.addRoute(http.MethodGet, "/a/:id", mockHandler)
	})
	r.addRoute(http.MethodGet, "/b/:id", mockHandler)
	assert.Panics(t, func() {
		r.addRoute(http.MethodGet, "/b/*", mockHandler)
	})
	assert.Panics(t, func() {
		r.addRoute(http.MethodGet, "/b/:name", mockHandler)
	})
	// 同名参数可以继续往下注册
	assert.NotPanics(t, func() {
		r.addRoute(http.MethodGet, "/b/:id/detail", mockHandler)
	})
}

// equal string是一个错误信息 帮助排查问题
func (r *router) equal(y *router) (string, bool) {
	if len(r.trees) != len(y.trees) {
		return "http method 数量不相等", false
	}
	for k, v := range r.trees {
		dst, ok := y.trees[k]
		if !ok {
			return fmt.Sprintf("找不到对应的http method %s", k), false
		}
		msg, equal := v.equal(dst)
		if !equal {
			return msg, false
		}
	}
	return "", true
}

func (n *node) equal(y *node) (string, bool) {
	if y == nil {
		return fmt.Sprintf("目标节点 %s 为 nil", n.path), false
	}
	if n.path != y.path {
		return fmt.Sprintf("节点路径不匹配 %s %s", n.path, y.path), false
	}
	if len(n.children) != len(y.children) {
		return fmt.Sprintf("%s 子节点数量不相等", n.path), false
	}
	if n.starChild != nil {
		msg, ok := n.starChild.equal(y.starChild)
		if !ok {
			return msg, ok
		}
	}
	if n.paramChild != nil {
		msg, ok := n.paramChild.equal(y.paramChild)
		if !ok {
			return msg, ok
		}
	}
	// 比较 handler 需要使用反射
	nHandler := reflect.ValueOf(n.handler)
	yHandler := reflect.ValueOf(y.handler)
	if nHandler != yHandler {
		return fmt.Sprintf("%s handler 不相等", n.path), false
	}
	for path, c := range n.children {
		dst, ok := y.children[path]
		if !ok {
			return fmt.Sprintf("子节点%s不存在", path), false
		}
		msg, ok := c.equal(dst)
		if !ok {
			return msg, false
		}
	}
	return "", true
}

func TestRouter_findRoute(t *testing.T) {
	testRoutes := []struct {
		method string
		path   string
	}{
		{
			method: http.MethodDelete,
			path:   "/",
		},
		{
			method: http.MethodGet,
			path:   "/api/v1.0/users",
		},
		{
			method: http.MethodGet,
			path:   "/api/v1.0/users/:id",
		},
		{
			method: http.MethodGet,
			path:   "/static/*",
		},
		{
			method: http.MethodPost,
			path:   "/api/v1.0/users/query",
		},
	}
	r := newRouter()
	var mockHandler HandleFunc = func(ctx *Context) {}
	for _, route := range testRoutes {
		r.addRoute(route.method, route.path, mockHandler)
	}

	testCases := []struct {
		name   string
		method string
		path   string

		wantFound bool
		info      *matchInfo
	}{
		{
			name:   "method not found",
			method: http.MethodOptions,
			path:   "/api/v1.0/users",
		},
		{
			name:   "path not found",
			method: http.MethodGet,
			path:   "/api/v2.0/users",
		},
		{
			name:      "root",
			method:    http.MethodDelete,
			path:      "/",
			wantFound: true,
			info: &matchInfo{
				n: &node{
					path:    "/",
					handler: mockHandler,
				},
			},
		},
		{
			// 命中但没有 handler
			name:      "no handler",
			method:    http.MethodPost,
			path:      "/api/v1.0/users",
			wantFound: true,
			info: &matchInfo{
				n: &node{
					path: "users",
					children: map[string]*node{
						"query": {
							path:    "query",
							handler: mockHandler,
						},
					},
				},
			},
		},
		{
			name:      "static",
			method:    http.MethodPost,
			path:      "/api/v1.0/users/query",
			wantFound: true,
			info: &matchInfo{
				n: &node{
					path:    "query",
					handler: mockHandler,
				},
			},
		},
		{
			name:      "path param",
			method:    http.MethodGet,
			path:      "/api/v1.0/users/42",
			wantFound: true,
			info: &matchInfo{
				n: &node{
					path:    ":id",
					handler: mockHandler,
				},
				pathParams: map[string]string{
					"id": "42",
				},
			},
		},
		{
			name:      "star",
			method:    http.MethodGet,
			path:      "/static/app.js",
			wantFound: true,
			info: &matchInfo{
				n: &node{
					path:    "*",
					handler: mockHandler,
				},
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			info, found := r.findRoute(tc.method, tc.path)
			assert.Equal(t, tc.wantFound, found)
			if !found {
				return
			}
			assert.Equal(t, tc.info.pathParams, info.pathParams)
			msg, ok := tc.info.n.equal(info.n)
			assert.True(t, ok, msg)
		})
	}
}
