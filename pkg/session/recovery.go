package session

import (
	"encoding/json"
	"os"
	"time"

	"github.com/adrg/xdg"
	"github.com/golang/glog"

	"github.com/mfld-dnx/dnx/pkg/state"
)

// recoveryMarker is the on-disk shape of the file a Session writes to the
// user's XDG cache dir while a flash is in flight, so a killed `dnx flash`
// can report what state it died in on the next run -- the one piece of
// dnx-core::session::SessionConfig's persistence this module keeps, in the
// teacher's pkg/cache.pathFor idiom rather than as a resumable config.
type recoveryMarker struct {
	State     string    `json:"state"`
	UpdatedAt time.Time `json:"updated_at"`
}

func recoveryMarkerPath() (string, error) {
	return xdg.CacheFile("dnx/session.json")
}

// writeRecoveryMarker records the session's current state, best-effort: a
// failure to persist it never aborts a flash in progress.
func writeRecoveryMarker(s state.DnxState) {
	path, err := recoveryMarkerPath()
	if err != nil {
		glog.V(1).Infof("session: recovery marker path: %v", err)
		return
	}
	data, err := json.Marshal(recoveryMarker{State: s.String(), UpdatedAt: time.Now()})
	if err != nil {
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		glog.V(1).Infof("session: writing recovery marker: %v", err)
	}
}

// clearRecoveryMarker removes the marker once a session reaches a clean
// Complete; an aborted session leaves it in place on purpose.
func clearRecoveryMarker() {
	path, err := recoveryMarkerPath()
	if err != nil {
		return
	}
	os.Remove(path)
}

// ReadRecoveryMarker reports the state a previous session last recorded
// before it stopped, if a marker is present. Used by `dnx flash` to warn
// the user when a prior run died mid-transfer.
func ReadRecoveryMarker() (stateName string, updatedAt time.Time, ok bool) {
	path, err := recoveryMarkerPath()
	if err != nil {
		return "", time.Time{}, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", time.Time{}, false
	}
	var m recoveryMarker
	if err := json.Unmarshal(data, &m); err != nil {
		return "", time.Time{}, false
	}
	return m.State, m.UpdatedAt, true
}
