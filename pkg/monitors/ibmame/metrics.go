package ibmame

// GAUGE(ame_enabled): Whether Active Memory Expansion is enabled on the
// partition ("yes" or "no").

// GAUGE(ame_version): The AME version reported by libperfstat.

// GAUGE(true_memory): Bytes of true (physical) memory of the partition.

// GAUGE(expanded_memory): Bytes of expanded memory presented to the partition.

// GAUGE(target_memexp_factr): The configured target memory expansion factor.

// GAUGE(current_memexp_factr): The currently achieved memory expansion factor.

// GAUGE(target_cpool_size): Target size of the compressed pool in bytes.

// GAUGE(max_cpool_size): Maximum size of the compressed pool in bytes.

// GAUGE(min_ucpool_size): Minimum size of the uncompressed pool in bytes.

// GAUGE(ame_deficit_size): Bytes of memory deficit when the target
// expansion factor cannot be reached.

// GAUGE(ame_cores_used): Number of cores spent compressing and decompressing
// memory, averaged over the last collection interval.

// MetricID identifies a metric and is its index in both the descriptor table
// and the poll dispatch table.
type MetricID int

// The metrics, in the order the host polls them
const (
	AMEEnabled MetricID = iota
	AMEVersion
	TrueMemory
	ExpandedMemory
	TargetMemExpFactor
	CurrentMemExpFactor
	TargetCPoolSize
	MaxCPoolSize
	MinUCPoolSize
	AMEDeficitSize
	AMECoresUsed
	numMetrics
)

// Slope describes which way a metric's value may move between reports.
type Slope string

// Slope values understood by the host
const (
	SlopeZero        Slope = "zero"
	SlopePositive    Slope = "positive"
	SlopeNegative    Slope = "negative"
	SlopeBoth        Slope = "both"
	SlopeUnspecified Slope = "unspecified"
)

// udpHeaderSize is added to each metric's payload size to estimate its size
// on the wire.
const udpHeaderSize = 28

// GroupMetadataKey is the metadata key holding a metric's group name.
const GroupMetadataKey = "GROUP"

// Descriptor is the static description of one metric.
type Descriptor struct {
	Name string `yaml:"name"`
	// The longest the host should go without reporting the metric, in
	// seconds.  Advisory only.
	Tmax        int               `yaml:"tmax"`
	Type        ValueType         `yaml:"type"`
	Units       string            `yaml:"units"`
	Slope       Slope             `yaml:"slope"`
	Format      string            `yaml:"format"`
	Size        int               `yaml:"size"`
	Description string            `yaml:"description"`
	Metadata    map[string]string `yaml:"metadata,omitempty"`
}

var descriptors = [numMetrics]Descriptor{
	AMEEnabled:          {Name: "ame_enabled", Tmax: 1200, Type: String, Slope: SlopeBoth, Format: "%s", Size: udpHeaderSize + 32, Description: "Is AME enabled?"},
	AMEVersion:          {Name: "ame_version", Tmax: 1200, Type: String, Slope: SlopeBoth, Format: "%s", Size: udpHeaderSize + 32, Description: "AME Version"},
	TrueMemory:          {Name: "true_memory", Tmax: 15, Type: Double, Units: "bytes", Slope: SlopeBoth, Format: "%.0f", Size: udpHeaderSize + 16, Description: "True Memory Size"},
	ExpandedMemory:      {Name: "expanded_memory", Tmax: 15, Type: Double, Units: "bytes", Slope: SlopeBoth, Format: "%.0f", Size: udpHeaderSize + 16, Description: "Expanded Memory Size"},
	TargetMemExpFactor:  {Name: "target_memexp_factr", Tmax: 180, Type: Float, Slope: SlopeBoth, Format: "%.2f", Size: udpHeaderSize + 8, Description: "Target Memory Expansion Factor"},
	CurrentMemExpFactor: {Name: "current_memexp_factr", Tmax: 15, Type: Float, Slope: SlopeBoth, Format: "%.2f", Size: udpHeaderSize + 8, Description: "Current Memory Expansion Factor"},
	TargetCPoolSize:     {Name: "target_cpool_size", Tmax: 180, Type: Double, Units: "bytes", Slope: SlopeBoth, Format: "%.0f", Size: udpHeaderSize + 16, Description: "Target Compressed Pool Size"},
	MaxCPoolSize:        {Name: "max_cpool_size", Tmax: 180, Type: Double, Units: "bytes", Slope: SlopeBoth, Format: "%.0f", Size: udpHeaderSize + 16, Description: "Max Size of Compressed Pool"},
	MinUCPoolSize:       {Name: "min_ucpool_size", Tmax: 180, Type: Double, Units: "bytes", Slope: SlopeBoth, Format: "%.0f", Size: udpHeaderSize + 16, Description: "Min Size of Uncompressed Pool"},
	AMEDeficitSize:      {Name: "ame_deficit_size", Tmax: 180, Type: Double, Units: "bytes", Slope: SlopeBoth, Format: "%.0f", Size: udpHeaderSize + 16, Description: "Deficit Memory Size"},
	AMECoresUsed:        {Name: "ame_cores_used", Tmax: 15, Type: Float, Units: "CPUs", Slope: SlopeBoth, Format: "%.4f", Size: udpHeaderSize + 8, Description: "Amount of Cores used for AME"},
}

// NumMetrics is the number of metrics the module exposes.
const NumMetrics = int(numMetrics)

// Valid reports whether id names a metric.
func (id MetricID) Valid() bool {
	return id >= 0 && id < numMetrics
}

func (id MetricID) String() string {
	if !id.Valid() {
		return "unknown"
	}
	return descriptors[id].Name
}

// Descriptors returns a copy of the descriptor table in MetricID order.
func Descriptors() []Descriptor {
	out := make([]Descriptor, numMetrics)
	for i := range descriptors {
		out[i] = descriptors[i].copy()
	}
	return out
}

// MetricIDByName looks up a metric by its name.
func MetricIDByName(name string) (MetricID, bool) {
	for i := range descriptors {
		if descriptors[i].Name == name {
			return MetricID(i), true
		}
	}
	return -1, false
}

func (d Descriptor) copy() Descriptor {
	if d.Metadata != nil {
		md := make(map[string]string, len(d.Metadata))
		for k, v := range d.Metadata {
			md[k] = v
		}
		d.Metadata = md
	}
	return d
}
