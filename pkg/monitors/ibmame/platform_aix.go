//go:build aix && cgo
// +build aix,cgo

package ibmame

/*
#cgo LDFLAGS: -lperfstat

#include <errno.h>
#include <string.h>
#include <sys/types.h>
#include <sys/vminfo.h>
#include <libperfstat.h>

// cgo cannot reach into the bitfield union of perfstat_partition_total_t, so
// the fields are copied out into a flat struct here.
typedef struct {
	int ame_enabled;
	int ame_version;
	unsigned long long true_memory;
	unsigned long long expanded_memory;
	unsigned long long target_memexp_factr;
	unsigned long long current_memexp_factr;
	unsigned long long target_cpool_size;
	unsigned long long max_cpool_size;
	unsigned long long min_ucpool_size;
	unsigned long long ame_deficit_size;
	unsigned long long cmcs_total_time;
} ame_partition_t;

static int ame_partition_total(ame_partition_t *out) {
	perfstat_partition_total_t p;

	memset(&p, 0, sizeof(p));
	if (perfstat_partition_total(NULL, &p, sizeof(perfstat_partition_total_t), 1) == -1) {
		return errno ? errno : -1;
	}

	out->ame_enabled = p.type.b.ame_enabled ? 1 : 0;
	out->ame_version = (int) p.ame_version;
	out->true_memory = p.true_memory;
	out->expanded_memory = p.expanded_memory;
	out->target_memexp_factr = p.target_memexp_factr;
	out->current_memexp_factr = p.current_memexp_factr;
	out->target_cpool_size = p.target_cpool_size;
	out->max_cpool_size = p.max_cpool_size;
	out->min_ucpool_size = p.min_ucpool_size;
	out->ame_deficit_size = p.ame_deficit_size;
	out->cmcs_total_time = p.cmcs_total_time;
	return 0;
}

static int ame_vminfo(unsigned long long *tgt, unsigned long long *actual) {
	struct vminfo vmi;

	memset(&vmi, 0, sizeof(vmi));
	if (vmgetinfo(&vmi, VMINFO, sizeof(vmi)) == -1) {
		return errno ? errno : -1;
	}

	*tgt = vmi.ame_factor_tgt;
	*actual = vmi.ame_factor_actual;
	return 0;
}
*/
import "C"

import (
	"syscall"
)

type perfstatPlatform struct{}

// NewPlatform returns the libperfstat backed statistics API.
func NewPlatform() Platform {
	return perfstatPlatform{}
}

func (perfstatPlatform) PartitionTotal() (*PartitionTotal, error) {
	var p C.ame_partition_t
	if rc := C.ame_partition_total(&p); rc != 0 {
		return nil, queryError("perfstat_partition_total", syscall.Errno(rc))
	}

	return &PartitionTotal{
		AMEEnabled:          p.ame_enabled != 0,
		AMEVersion:          int(p.ame_version),
		TrueMemory:          uint64(p.true_memory),
		ExpandedMemory:      uint64(p.expanded_memory),
		TargetMemExpFactor:  uint64(p.target_memexp_factr),
		CurrentMemExpFactor: uint64(p.current_memexp_factr),
		TargetCPoolSize:     uint64(p.target_cpool_size),
		MaxCPoolSize:        uint64(p.max_cpool_size),
		MinUCPoolSize:       uint64(p.min_ucpool_size),
		AMEDeficitSize:      uint64(p.ame_deficit_size),
		CMCSTotalTime:       uint64(p.cmcs_total_time),
	}, nil
}

func (perfstatPlatform) VMInfo() (*VMInfo, error) {
	var tgt, actual C.ulonglong
	if rc := C.ame_vminfo(&tgt, &actual); rc != 0 {
		return nil, queryError("vmgetinfo", syscall.Errno(rc))
	}

	return &VMInfo{
		AMEFactorTarget: uint64(tgt),
		AMEFactorActual: uint64(actual),
	}, nil
}
