// Package dashboard embeds the HTML templates and styles of the run dashboard.
package dashboard

import "embed"

//go:embed assets/*
var Assets embed.FS

//go:embed templates/*.html
var Templates embed.FS
