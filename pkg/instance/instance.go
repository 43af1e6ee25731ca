package instance

import "github.com/clodamigoles/dossiers.vevo/pkg/env"

// GetID identifies the running process in startup logs.
// VEVO_INSTANCE_ID wins, then the platform DYNO name, then "local".
func GetID() string {
	return env.Get("VEVO_INSTANCE_ID", env.Get("DYNO", "local"))
}
