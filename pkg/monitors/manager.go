package monitors

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/signalfx/golib/v3/datapoint"
	"github.com/signalfx/golib/v3/sfxclient"
	log "github.com/sirupsen/logrus"

	"github.com/signalfx/ibmame-agent/pkg/core/config"
	"github.com/signalfx/ibmame-agent/pkg/monitors/types"
	"github.com/signalfx/ibmame-agent/pkg/utils"
)

// MonitorManager coordinates the startup and shutdown of monitors based on the
// configuration provided by the user.  Every monitor is started as soon as
// its config is seen and shut down once its config disappears.
type MonitorManager struct {
	monitorConfigs map[uint64]config.MonitorCustomConfig
	activeMonitors []*ActiveMonitor
	badConfigs     map[uint64]*config.MonitorConfig
	lock           sync.Mutex

	DPs chan<- []*datapoint.Datapoint

	idGenerator func() string
}

// NewMonitorManager creates a new instance of the MonitorManager that sends
// datapoints from all of its monitors to dps.
func NewMonitorManager(dps chan<- []*datapoint.Datapoint) *MonitorManager {
	return &MonitorManager{
		monitorConfigs: make(map[uint64]config.MonitorCustomConfig),
		activeMonitors: make([]*ActiveMonitor, 0),
		badConfigs:     make(map[uint64]*config.MonitorConfig),
		DPs:            dps,
		idGenerator:    newIDGenerator(),
	}
}

func newIDGenerator() func() string {
	var lock sync.Mutex
	next := 0
	return func() string {
		lock.Lock()
		defer lock.Unlock()
		next++
		return strconv.Itoa(next)
	}
}

// Configure receives a list of monitor configurations.  It will start up any
// new monitors and shut down those whose config is gone.
func (mm *MonitorManager) Configure(confs []config.MonitorConfig, intervalSeconds int) {
	mm.lock.Lock()
	defer mm.lock.Unlock()

	for i := range confs {
		confs[i].IntervalSeconds = utils.FirstNonZero(confs[i].IntervalSeconds, intervalSeconds)
	}

	requireSoloTrue := anyMarkedSolo(confs)

	newConfig, deletedHashes := diffNewConfig(confs, mm.allConfigHashes())

	for _, hash := range deletedHashes {
		mm.deleteMonitorsByConfigHash(hash)

		delete(mm.monitorConfigs, hash)
		delete(mm.badConfigs, hash)
	}

	for i := range newConfig {
		conf := newConfig[i]
		hash := conf.Hash()

		if requireSoloTrue && !conf.Solo {
			log.Infof("Solo mode is active, skipping monitor of type %s", conf.Type)
			continue
		}

		monConfig, err := mm.handleNewConfig(&conf, hash)
		if err != nil {
			log.WithFields(log.Fields{
				"monitorType": conf.Type,
				"error":       err,
			}).Error("Could not process configuration for monitor")
			conf.ValidationError = err.Error()
			mm.badConfigs[hash] = &conf
			continue
		}

		mm.monitorConfigs[hash] = monConfig
	}
}

func (mm *MonitorManager) allConfigHashes() map[uint64]bool {
	hashes := make(map[uint64]bool)
	for h := range mm.monitorConfigs {
		hashes[h] = true
	}
	for h := range mm.badConfigs {
		hashes[h] = true
	}
	return hashes
}

// Returns the any new configs and any removed config hashes
func diffNewConfig(confs []config.MonitorConfig, oldHashes map[uint64]bool) ([]config.MonitorConfig, []uint64) {
	newConfigHashes := make(map[uint64]bool)
	var newConfig []config.MonitorConfig
	for i := range confs {
		hash := confs[i].Hash()
		if newConfigHashes[hash] {
			log.WithFields(log.Fields{
				"monitorType": confs[i].Type,
				"config":      confs[i],
			}).Error("Monitor config is duplicated")
			continue
		}

		if !oldHashes[hash] {
			newConfig = append(newConfig, confs[i])
		}

		newConfigHashes[hash] = true
	}

	var deletedHashes []uint64
	for hash := range oldHashes {
		// If we didn't see it in the latest config slice then we need to
		// delete anything using it.
		if !newConfigHashes[hash] {
			deletedHashes = append(deletedHashes, hash)
		}
	}

	return newConfig, deletedHashes
}

func (mm *MonitorManager) handleNewConfig(conf *config.MonitorConfig, hash uint64) (config.MonitorCustomConfig, error) {
	monConfig, err := getCustomConfigForMonitor(conf)
	if err != nil {
		return nil, err
	}

	if configOnlyAllowsSingleInstance(monConfig) {
		if len(mm.monitorConfigsForType(conf.Type)) > 0 {
			return nil, fmt.Errorf("monitor type %s only allows a single instance at a time", conf.Type)
		}
	}

	return monConfig, mm.createAndConfigureNewMonitor(monConfig, hash)
}

func (mm *MonitorManager) monitorConfigsForType(monitorType string) []config.MonitorCustomConfig {
	var out []config.MonitorCustomConfig
	for _, conf := range mm.monitorConfigs {
		if conf.MonitorConfigCore().Type == monitorType {
			out = append(out, conf)
		}
	}
	return out
}

func (mm *MonitorManager) createAndConfigureNewMonitor(monConfig config.MonitorCustomConfig, configHash uint64) error {
	id := types.MonitorID(mm.idGenerator())
	coreConfig := monConfig.MonitorConfigCore()
	monitorType := coreConfig.Type

	log.WithFields(log.Fields{
		"monitorType": monitorType,
		"monitorID":   id,
	}).Info("Creating new monitor")

	instance := newMonitor(monitorType)
	if instance == nil {
		return fmt.Errorf("could not create new monitor of type %s", monitorType)
	}

	output := &monitorOutput{
		monitorType: monitorType,
		monitorID:   id,
		configHash:  configHash,
		dpChan:      mm.DPs,
		extraDims:   map[string]string{},
	}

	am := &ActiveMonitor{
		id:         id,
		configHash: configHash,
		instance:   instance,
		output:     output,
	}

	if err := am.configureMonitor(monConfig); err != nil {
		return err
	}
	mm.activeMonitors = append(mm.activeMonitors, am)

	return nil
}

func (mm *MonitorManager) deleteMonitorsByConfigHash(hash uint64) {
	kept := mm.activeMonitors[:0]
	for _, am := range mm.activeMonitors {
		if am.configHash == hash {
			log.WithFields(log.Fields{
				"monitorID": am.id,
			}).Info("Shutting down monitor")
			am.Shutdown()
			continue
		}
		kept = append(kept, am)
	}
	mm.activeMonitors = kept
}

// ActiveMonitorIDs returns the ids of the running monitors
func (mm *MonitorManager) ActiveMonitorIDs() []types.MonitorID {
	mm.lock.Lock()
	defer mm.lock.Unlock()

	ids := make([]types.MonitorID, 0, len(mm.activeMonitors))
	for _, am := range mm.activeMonitors {
		ids = append(ids, am.id)
	}
	return ids
}

// BadConfigs returns the configs that could not be turned into monitors,
// with ValidationError describing why.
func (mm *MonitorManager) BadConfigs() []config.MonitorConfig {
	mm.lock.Lock()
	defer mm.lock.Unlock()

	out := make([]config.MonitorConfig, 0, len(mm.badConfigs))
	for _, conf := range mm.badConfigs {
		out = append(out, *conf)
	}
	return out
}

// InternalMetrics returns the collection counters of every active monitor
func (mm *MonitorManager) InternalMetrics() []*datapoint.Datapoint {
	mm.lock.Lock()
	defer mm.lock.Unlock()

	var dps []*datapoint.Datapoint
	for _, am := range mm.activeMonitors {
		calls, failures, overruns := am.Stats()
		dims := map[string]string{
			"monitorType": am.config.MonitorConfigCore().Type,
			"monitorID":   string(am.id),
		}
		dps = append(dps,
			sfxclient.Cumulative("sfxagent.monitor_collections", dims, int64(calls)),
			sfxclient.Cumulative("sfxagent.monitor_collection_failures", dims, int64(failures)),
			sfxclient.Cumulative("sfxagent.monitor_interval_overruns", dims, int64(overruns)),
		)
	}
	return dps
}

// Shutdown will shutdown all managed monitors and deinitialize the manager.
func (mm *MonitorManager) Shutdown() {
	mm.lock.Lock()
	defer mm.lock.Unlock()

	for i := range mm.activeMonitors {
		mm.activeMonitors[i].Shutdown()
	}
	mm.activeMonitors = nil
	mm.monitorConfigs = make(map[uint64]config.MonitorCustomConfig)
	mm.badConfigs = make(map[uint64]*config.MonitorConfig)
}
