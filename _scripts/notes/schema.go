package main

import (
	"strings"
	"sync"
)

var (
	mu    sync.Mutex
	notes []string
)

var Query = map[string]any{
	"notes": func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), notes...)
	},
}

var Mutation = map[string]any{
	"addNote": func(args struct{ Text string }) []string {
		mu.Lock()
		defer mu.Unlock()
		notes = append(notes, strings.TrimSpace(args.Text))
		return append([]string(nil), notes...)
	},
}
