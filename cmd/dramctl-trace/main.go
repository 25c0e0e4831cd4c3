// Command dramctl-trace replays a synthetic memory-access trace against a
// standalone controller and reports the resulting channel statistics. It
// exists to exercise the module end to end without a full simulation
// engine driving it.
package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sarchlab/dramctl"
	"github.com/sarchlab/dramctl/internal/diagnostics"
	"github.com/sarchlab/dramctl/internal/signal"
)

var (
	numAccesses int
	writeRatio  float64
	seed        int64
	dbPath      string
	monitorPort int
	openBrowser bool
)

var rootCmd = &cobra.Command{
	Use:   "dramctl-trace",
	Short: "Replay a synthetic access trace against a dramctl controller.",
	Run:   runTrace,
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "dramctl-trace: failed to load .env: %v\n", err)
	}

	rootCmd.Flags().IntVar(&numAccesses, "accesses", 10000, "number of accesses to replay")
	rootCmd.Flags().Float64Var(&writeRatio, "write-ratio", 0.3, "fraction of accesses that are writes")
	rootCmd.Flags().Int64Var(&seed, "seed", 1, "random seed for the synthetic trace")
	rootCmd.Flags().StringVar(&dbPath, "stats-db", "", "if set, persist phase stats to this SQLite file")
	rootCmd.Flags().IntVar(&monitorPort, "monitor-port", 0, "if set, serve live stats on this HTTP port")
	rootCmd.Flags().BoolVar(&openBrowser, "open-browser", false, "open the diagnostics dashboard in a browser once it starts")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runTrace(_ *cobra.Command, _ []string) {
	comp := dramctl.MakeBuilder().Build("MC")
	comp.Controller().BeginPhase()

	if monitorPort > 0 {
		mon := diagnostics.NewMonitor(comp).WithPortNumber(monitorPort)
		if openBrowser {
			mon = mon.WithOpenBrowser()
		}

		mon.StartServer()
	}

	var store *diagnostics.StatsStore
	if dbPath != "" {
		store = diagnostics.NewStatsStore(dbPath)
		store.Init()
	}

	rng := rand.New(rand.NewSource(seed))
	size := comp.Controller().Size()

	var now signal.Time

	// Drive the loop at the controller's own clock period rather than an
	// assumed 1GHz, so the trace ticks at the granularity tCAS/tRCD/tRP
	// are actually expressed in.
	period := comp.Controller().Channels()[0].ClockPeriod()

	for i := 0; i < numAccesses; i++ {
		addr := uint64(rng.Int63()) % size

		var upstream *demoUpstream
		if rng.Float64() < writeRatio {
			upstream = newDemoUpstream(addr, make([]byte, 64), true)
		} else {
			upstream = newDemoUpstream(addr, nil, false)
		}

		for !upstream.drained() {
			comp.Controller().Operate(now, []dramctl.Upstream{upstream})
			now += period
		}
	}

	comp.Controller().EndPhase()

	if store != nil {
		store.RecordPhase(comp.Controller().Channels())
		store.Flush()
	}

	for _, ch := range comp.Controller().Channels() {
		st := ch.RoiStats
		fmt.Printf("%s: rq_hit=%d rq_miss=%d wq_hit=%d wq_miss=%d wq_full=%d congested=%d/%d\n",
			ch.Name(), st.RQRowBufferHit, st.RQRowBufferMiss,
			st.WQRowBufferHit, st.WQRowBufferMiss, st.WQFull,
			st.DBusCountCongested, st.DBusCycleCongested)
	}
}
