package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"lightorm/orm/model"

	"github.com/xeipuuv/gojsonschema"
)

// UserBase 是用户相关表所在的命名空间，对应配置里的 model
const UserBase model.Base = "accounts"

var errInvalidUser = errors.New("app: invalid user")

// userSchema 约束创建用户的请求体
const userSchema = `{
	"type": "object",
	"required": ["username", "email"],
	"properties": {
		"id": {"type": "integer", "minimum": 1},
		"username": {"type": "string", "minLength": 4, "maxLength": 25},
		"email": {"type": "string", "pattern": "^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\\.[a-zA-Z0-9-.]+$"},
		"age": {"type": "integer", "minimum": 0}
	}
}`

var userValidator = func() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(userSchema))
	if err != nil {
		panic(err)
	}
	return s
}()

type User struct {
	Id       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Age      int64  `json:"age"`
}

func (User) TableName() string {
	return "users"
}

func (User) ModelBase() model.Base {
	return UserBase
}

// decodeUsers 单个对象和数组都可以，每个元素先过 schema 校验
func decodeUsers(raw json.RawMessage) ([]*User, error) {
	raw = bytes.TrimSpace(raw)
	var docs []json.RawMessage
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &docs); err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidUser, err)
		}
	} else {
		docs = []json.RawMessage{raw}
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no users", errInvalidUser)
	}
	users := make([]*User, 0, len(docs))
	for i, doc := range docs {
		if err := validateUser(doc); err != nil {
			return nil, fmt.Errorf("%w: users[%d]: %v", errInvalidUser, i, err)
		}
		u := &User{}
		if err := json.Unmarshal(doc, u); err != nil {
			return nil, fmt.Errorf("%w: users[%d]: %v", errInvalidUser, i, err)
		}
		users = append(users, u)
	}
	return users, nil
}

func validateUser(doc json.RawMessage) error {
	res, err := userValidator.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return err
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, desc := range res.Errors() {
		msgs = append(msgs, desc.String())
	}
	return errors.New(strings.Join(msgs, "; "))
}
