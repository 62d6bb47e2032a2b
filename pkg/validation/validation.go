// Package validation 注册业务自定义的 binding 校验规则
package validation

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// 允许的角色（与 model 中常量保持一致）
var roles = map[string]bool{
	"worker":              true,
	"auditor":             true,
	"manager":             true,
	"admin":               true,
	"quality_director":    true,
	"production_director": true,
}

var once sync.Once

// Register 向 gin 默认校验器注册自定义规则，可重复调用
//
//	fives_score  评分 1-5
//	fives_role   合法角色
//	fives_date   YYYY-MM-DD 日期字符串
func Register() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonTagName)
		_ = v.RegisterValidation("fives_score", validateScore)
		_ = v.RegisterValidation("fives_role", validateRole)
		_ = v.RegisterValidation("fives_date", validateDate)
	})
}

func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

func validateScore(fl validator.FieldLevel) bool {
	s := fl.Field().Int()
	return s >= 1 && s <= 5
}

func validateRole(fl validator.FieldLevel) bool {
	return roles[fl.Field().String()]
}

func validateDate(fl validator.FieldLevel) bool {
	if fl.Field().String() == "" {
		return true
	}
	_, err := time.Parse("2006-01-02", fl.Field().String())
	return err == nil
}
