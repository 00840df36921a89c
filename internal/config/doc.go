// Package config persists g6ctl state between runs.
//
// The configuration file lives in the platform config directory
// (~/.config/g6ctl/config.yaml on Linux) and holds two things: the last
// known device profile, rewritten after every successful settings change,
// and application preferences such as the drain read budget. The profile is
// replayed as the assumed state before the first device read of a session,
// so a freshly started CLI shows sensible values even before the resync
// completes.
//
// Saves are atomic (write to a temp file, then rename) so a crash mid-write
// never leaves a corrupt file.
package config
