// Package adb drives a device through the adb executable.
package adb

import (
	"regexp"
	"strings"
)

// DeviceEntry is one row of adb devices output.
type DeviceEntry struct {
	Serial string
	State  string
}

var activityRe = regexp.MustCompile(` ([a-zA-Z0-9_.]+)/(\S+)`)

// ParseDevices parses adb devices output, skipping the header and daemon notices.
func ParseDevices(out string) []DeviceEntry {
	var entries []DeviceEntry
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of devices") || strings.HasPrefix(line, "*") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		entries = append(entries, DeviceEntry{Serial: fields[0], State: fields[1]})
	}
	return entries
}

// ParseForeground returns the package from the first line containing any marker
// and a component name, or "".
func ParseForeground(out string, markers ...string) string {
	for _, line := range strings.Split(out, "\n") {
		if !containsAny(line, markers) {
			continue
		}
		if m := activityRe.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}

// ParsePackages parses pm list packages output in either package:name or
// package:path=name form.
func ParsePackages(out string) []string {
	var pkgs []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		rest, ok := strings.CutPrefix(line, "package:")
		if !ok {
			continue
		}
		if i := strings.LastIndex(rest, "="); i >= 0 {
			rest = rest[i+1:]
		}
		if rest = strings.TrimSpace(rest); rest != "" {
			pkgs = append(pkgs, rest)
		}
	}
	return pkgs
}

// containsAny reports whether s contains one of subs.
func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
