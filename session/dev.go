package session

// DevSession mirrors the handful of rc_client_raintegration state
// transitions relevant to an embedding library (not a GUI): a developer
// tool attached to the same process can force hardcore off and gate
// whether a host-initiated reload is currently allowed. There is no DLL
// loading here, only the two latches a host needs to check.
type DevSession struct {
	hardcoreDisabledByIntegration bool
	reloadBlocked                 bool
}

// SetHardcoreDisabledByIntegration latches hardcore off on behalf of an
// attached developer tool; once set it stays set, across game loads, until
// SetHardcoreDisabledByIntegration(false) is called.
func (d *DevSession) SetHardcoreDisabledByIntegration(disabled bool) {
	d.hardcoreDisabledByIntegration = disabled
}

// HardcoreDisabledByIntegration reports whether a developer tool has
// latched hardcore off for the current session.
func (d *DevSession) HardcoreDisabledByIntegration() bool {
	return d.hardcoreDisabledByIntegration
}

// SetAllowReload controls whether a host-initiated reload (BeginChangeMedia
// against the already-loaded hash) is currently permitted; a developer tool
// clears this while it is mid-edit to avoid racing the host's own reload.
// Permitted by default.
func (d *DevSession) SetAllowReload(allow bool) {
	d.reloadBlocked = !allow
}

// AllowReload reports whether a reload is currently permitted (true unless
// an attached developer tool has blocked it).
func (d *DevSession) AllowReload() bool {
	return !d.reloadBlocked
}
