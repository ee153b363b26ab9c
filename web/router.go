package web

import (
	"fmt"
	"strings"
)

// router 每个 HTTP method 对应一棵路由树
type router struct {
	// http method => 路由树根节点
	trees map[string]*node
}

func newRouter() router {
	return router{
		trees: map[string]*node{},
	}
}

// addRoute path 必须以 / 开头，不能以 / 结尾，中间也不能有连续的 //
func (r *router) addRoute(method string, path string, handleFunc HandleFunc) {
	if path == "" {
		panic("web: route path must not be empty")
	}
	root, ok := r.trees[method]
	if !ok {
		root = &node{
			path: "/",
		}
		r.trees[method] = root
	}
	if path[0] != '/' {
		panic("web: route path must start with '/'")
	}
	if path != "/" && path[len(path)-1] == '/' {
		panic("web: route path must not end with '/'")
	}

	// 根节点特殊处理
	if path == "/" {
		if root.handler != nil {
			panic("web: duplicate route [/]")
		}
		root.handler = handleFunc
		root.route = "/"
		return
	}
	segs := strings.Split(path[1:], "/")
	for _, seg := range segs {
		if seg == "" {
			panic(fmt.Sprintf("web: route path must not contain '//', got [%s]", path))
		}
		// 中途有节点不存在则需要创建
		root = root.childOrCreate(seg)
	}
	if root.handler != nil {
		panic(fmt.Sprintf("web: duplicate route [%s]", path))
	}
	root.handler = handleFunc
	root.route = path
}

func (r *router) findRoute(method string, path string) (*matchInfo, bool) {
	root, ok := r.trees[method]
	if !ok {
		return nil, false
	}
	if path == "/" {
		return &matchInfo{
			n: root,
		}, true
	}
	path = strings.Trim(path, "/")
	segs := strings.Split(path, "/")
	var pathParams map[string]string
	for _, seg := range segs {
		child, paramChild, found := root.childOf(seg)
		if !found {
			return nil, false
		}
		// 命中路由参数
		if paramChild {
			if pathParams == nil {
				pathParams = make(map[string]string)
			}
			// path 是 :id 形式
			pathParams[child.path[1:]] = seg
		}
		root = child
	}

	// 节点存在，但是不是用户注册的要看 handler
	return &matchInfo{
		n:          root,
		pathParams: pathParams,
	}, true
}

// childOf 优先考虑静态匹配，匹配不上再考虑路径参数和通配符匹配
// 第二个返回值标记是否是路径参数，第三个标记命中了没有
func (n *node) childOf(path string) (*node, bool, bool) {
	if n.children == nil {
		if n.paramChild != nil {
			return n.paramChild, true, true
		}
		return n.starChild, false, n.starChild != nil
	}
	child, ok := n.children[path]
	if !ok {
		if n.paramChild != nil {
			return n.paramChild, true, true
		}
		return n.starChild, false, n.starChild != nil
	}
	return child, false, ok
}

func (n *node) childOrCreate(seg string) *node {
	if seg[0] == ':' {
		if n.starChild != nil {
			panic("web: cannot register a path parameter next to a wildcard")
		}
		if n.paramChild == nil {
			n.paramChild = &node{
				path: seg,
			}
		} else if n.paramChild.path != seg {
			panic(fmt.Sprintf("web: path parameter conflict, existing [%s] new [%s]", n.paramChild.path, seg))
		}
		return n.paramChild
	}
	if seg == "*" {
		if n.paramChild != nil {
			panic("web: cannot register a wildcard next to a path parameter")
		}
		if n.starChild == nil {
			n.starChild = &node{
				path: seg,
			}
		}
		return n.starChild
	}
	if n.children == nil {
		n.children = map[string]*node{}
	}
	res, ok := n.children[seg]
	if !ok {
		res = &node{
			path: seg,
		}
		n.children[seg] = res
	}
	return res
}

type node struct {
	route string

	path string

	// 静态匹配的节点，子 path 到子节点的映射
	children map[string]*node

	// 通配符 * 匹配
	starChild *node
	// 路径参数
	paramChild *node
	// 用户注册的业务逻辑
	handler HandleFunc
}

type matchInfo struct {
	n          *node
	pathParams map[string]string
}
