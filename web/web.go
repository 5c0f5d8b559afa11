// Package web 内嵌前台与后台的模板和静态资源。
package web

import "embed"

//go:embed templates/*.html
var Templates embed.FS

//go:embed static
var Static embed.FS
