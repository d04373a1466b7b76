package hostid

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Dimensions returns the host dimensions added to every datapoint.  An
// explicit hostname always wins over the one looked up from the OS.
func Dimensions(hostname string, useFullyQualifiedHost *bool) map[string]string {
	log.Info("Fetching host id dimensions")

	var g dimGatherer

	g.GatherDim("host", func() string {
		if hostname != "" {
			return hostname
		}
		// The defaults lib can't tell false from unset, so a nil pointer
		// means the FQDN is wanted.
		return getHostname(useFullyQualifiedHost == nil || *useFullyQualifiedHost)
	})

	return g.WaitForDimensions()
}

// Runs the dim lookups in parallel to keep them off the startup path.
type dimGatherer struct {
	lock sync.Mutex
	dims map[string]string
	wg   sync.WaitGroup
}

// GatherDim inserts the given dim key based on the output of the provider
// func.  If the output is blank, the dimension will not be inserted.
func (dg *dimGatherer) GatherDim(key string, provider func() string) {
	dg.lock.Lock()
	if dg.dims == nil {
		dg.dims = make(map[string]string)
	}
	dg.lock.Unlock()

	dg.wg.Add(1)
	go func() {
		defer dg.wg.Done()
		res := provider()
		if res == "" {
			return
		}
		dg.lock.Lock()
		dg.dims[key] = res
		dg.lock.Unlock()
	}()
}

func (dg *dimGatherer) WaitForDimensions() map[string]string {
	dg.wg.Wait()
	dg.lock.Lock()
	defer dg.lock.Unlock()
	if dg.dims == nil {
		return map[string]string{}
	}
	return dg.dims
}
