package main

import (
	"flag"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"

	"github.com/signalfx/ibmame-agent/pkg/monitors/ibmame"
)

// doPoll loads the AME module, waits one interval so that ame_cores_used has
// a baseline and prints every metric once.
func doPoll(args []string) {
	set := flag.NewFlagSet("poll", flag.ExitOnError)
	interval := set.Duration("interval", time.Second, "time between the baseline sample and the reported one")
	pageSize := set.Int("pageSize", ibmame.DefaultPageSize, "bytes per page reported by libperfstat")
	_ = set.Parse(args)

	log.SetOutput(os.Stderr)

	module := ibmame.NewModule(ibmame.NewPlatform(), ibmame.WithPageSize(*pageSize))
	if err := module.Init(); err != nil {
		log.WithError(err).Fatal("Could not initialize the AME module")
	}
	defer module.Cleanup()

	time.Sleep(*interval)
	pollTable(os.Stdout, module)
}

func pollTable(w io.Writer, module *ibmame.Module) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Value", "Units", "Description"})
	table.SetAutoWrapText(false)

	for i := 0; i < ibmame.NumMetrics; i++ {
		d := module.Descriptor(ibmame.MetricID(i))
		v := module.Poll(i)
		table.Append([]string{d.Name, v.Format(d.Format), d.Units, d.Description})
	}
	table.Render()
}
