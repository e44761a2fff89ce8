// Package status is a compiled-in, query-only module reporting the server
// version and clock.
package status

import (
	"time"

	"github.com/Dawdaborje/sorobonto-backend/registry"
	"github.com/Dawdaborje/sorobonto-backend/schemabuilder"
)

const ModuleID = "status"

// Version is set at build time with -ldflags.
var Version = "dev"

var now = time.Now

func init() {
	registry.MustRegister(ModuleID, Load)
}

// Load registers version and serverTime.
func Load(sb *schemabuilder.Schema) error {
	query := sb.Query()
	query.FieldFunc("version", func() string {
		return Version
	}, "The running server version.")
	query.FieldFunc("serverTime", func() time.Time {
		return now().UTC()
	}, "The current server time.")
	return nil
}
