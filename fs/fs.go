// Package appfs exposes the application's embedded static files:
// database migrations, email templates and validation assets.
package appfs

import "embed"

//go:embed migrations all:assets
var FS embed.FS
