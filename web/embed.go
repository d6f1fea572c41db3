// Package web embeds the dashboard's HTML templates and static assets.
package web

import "embed"

// TemplatesFS embeds the page and partial templates.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds css and images served under /static/.
//
//go:embed static/*
var StaticFS embed.FS
