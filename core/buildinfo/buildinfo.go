package buildinfo

import "strings"

// Set at link time:
//
//	-X 'github.com/m3rciful/likebot/core/buildinfo.Version=v1.2.3'
//	-X 'github.com/m3rciful/likebot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/likebot/core/buildinfo.Date=2025-08-30T12:00:00Z'
var (
	// Version reports the semantic version or tag of the build.
	Version = "dev"
	// Commit reports the source control commit used for the build.
	Commit = "local"
	// Date reports the build timestamp in RFC3339 format.
	Date = ""
)

// Summary renders "version (commit, date)" skipping empty parts.
func Summary() string {
	var meta []string
	if c := strings.TrimSpace(Commit); c != "" {
		meta = append(meta, c)
	}
	if d := strings.TrimSpace(Date); d != "" {
		meta = append(meta, d)
	}
	v := strings.TrimSpace(Version)
	if v == "" {
		v = "dev"
	}
	if len(meta) == 0 {
		return v
	}
	return v + " (" + strings.Join(meta, ", ") + ")"
}
