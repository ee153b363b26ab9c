package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
)

type Context struct {
	Req *http.Request

	// Resp 如果用户直接使用这个。那么用户就绕开了RespData和RespStatusCode，那么部分middleware无法运作
	Resp http.ResponseWriter

	// 这个主要是为了个 middleware读写用的
	RespData       []byte
	RespStatusCode int

	PathParams map[string]string

	// query的缓存
	queryValues url.Values

	MatchRoute string

	UserValues map[string]any
}

func (c *Context) RespJSONOK(val any) error {
	return c.RespJSON(http.StatusOK, val)
}

// RespJSON 只写 RespData，真正的写出由 server 在链路末尾完成
func (c *Context) RespJSON(status int, val any) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.Resp.Header().Set("Content-Type", "application/json")
	c.RespData = data
	c.RespStatusCode = status
	return nil
}

// RespError 统一的错误响应体 {"error": "..."}
func (c *Context) RespError(status int, err error) {
	if jsonErr := c.RespJSON(status, map[string]string{"error": err.Error()}); jsonErr != nil {
		c.RespStatusCode = http.StatusInternalServerError
		c.RespData = []byte(err.Error())
	}
}

// BindJSON 数字用 json.Number 表示，保留整数精度
func (c *Context) BindJSON(val any) error {
	if val == nil {
		return errors.New("web: input is nil")
	}
	if c.Req.Body == nil {
		return errors.New("web: body is nil")
	}
	decoder := json.NewDecoder(c.Req.Body)
	decoder.UseNumber()
	return decoder.Decode(val)
}

// QueryValue Query 调用的 parseQuery 没有缓存，在这里缓存住
func (c *Context) QueryValue(key string) StringValue {
	if c.queryValues == nil {
		c.queryValues = c.Req.URL.Query()
	}
	vals, ok := c.queryValues[key]
	if !ok {
		return StringValue{"", ErrKeyNotFound}
	}
	return StringValue{vals[0], nil}
}

func (c *Context) PathValue(key string) StringValue {
	val, ok := c.PathParams[key]
	if !ok {
		return StringValue{"", ErrKeyNotFound}
	}
	return StringValue{val, nil}
}

var ErrKeyNotFound = errors.New("web: key not found")

type StringValue struct {
	value string
	err   error
}

func (s StringValue) AsString() (string, error) {
	return s.value, s.err
}

func (s StringValue) AsInt64() (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return strconv.ParseInt(s.value, 10, 64)
}
