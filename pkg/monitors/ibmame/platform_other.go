//go:build !aix || !cgo
// +build !aix !cgo

package ibmame

// NewPlatform returns the native statistics API for this OS.  Outside of AIX
// every query fails, so all metrics report their failure sentinel.
func NewPlatform() Platform {
	return unsupportedPlatform{}
}
