package main

import (
	_ "embed"
	"html/template"
)

//go:embed web/index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

type indexData struct {
	CharLimit int
}
