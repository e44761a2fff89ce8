// Package main is the entry point for the sorobonto GraphQL server.
package main

import (
	// Compiled-in modules register themselves with registry.Default.
	_ "github.com/Dawdaborje/sorobonto-backend/apps/blog"
	_ "github.com/Dawdaborje/sorobonto-backend/apps/status"
)

func main() {
	Execute()
}
