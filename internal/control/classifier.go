// Package control translates viewer input into device key and touch commands.
package control

import "strings"

// Classifier decides whether a foreground package wants LauncherControl.
type Classifier interface {
	IsLauncher(pkg string) bool
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(pkg string) bool

// IsLauncher calls f.
func (f ClassifierFunc) IsLauncher(pkg string) bool { return f(pkg) }

// SubstringClassifier matches packages containing any marker.
// The default markers select the stock home app and its companions.
type SubstringClassifier struct {
	Markers []string
}

// IsLauncher reports whether pkg contains one of the markers.
func (c SubstringClassifier) IsLauncher(pkg string) bool {
	if pkg == "" {
		return false
	}
	for _, m := range c.Markers {
		if m != "" && strings.Contains(pkg, m) {
			return true
		}
	}
	return false
}
