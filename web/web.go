// Package web embeds the chat page and its assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var files embed.FS

// Index returns the chat page.
func Index() ([]byte, error) {
	return files.ReadFile("static/index.html")
}

// Assets returns the static directory rooted at its contents.
func Assets() (fs.FS, error) {
	return fs.Sub(files, "static")
}
