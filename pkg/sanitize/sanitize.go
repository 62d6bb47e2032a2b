// Package sanitize 清洗用户输入的自由文本（备注、描述、评论）
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text 去除所有 HTML 标签并裁剪首尾空白
func Text(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}

// Ptr 对可选文本做同样的清洗，nil 原样返回
func Ptr(s *string) *string {
	if s == nil {
		return nil
	}
	v := Text(*s)
	return &v
}
