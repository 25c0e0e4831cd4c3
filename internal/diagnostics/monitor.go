// Package diagnostics exposes the controller's runtime state over HTTP
// for external inspection: live per-channel statistics, a deadlock dump,
// and process resource usage. The controller core itself never imports
// this package; a driver wires a *dramctl.Comp into a Monitor explicitly.
package diagnostics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // profiling endpoints are opt-in via StartServer
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/dramctl/internal/org"
)

// ChannelSource is the narrow view a Monitor needs of a running
// controller: its name and the current per-channel statistics.
type ChannelSource interface {
	Name() string
	Channels() []*org.Channel
}

// Monitor turns a controller into an inspectable HTTP server.
type Monitor struct {
	source      ChannelSource
	portNumber  int
	openBrowser bool
}

// NewMonitor creates a Monitor over source.
func NewMonitor(source ChannelSource) *Monitor {
	return &Monitor{source: source}
}

// WithPortNumber sets the port the monitor listens on; a value below 1000
// is rejected in favor of an OS-assigned port, matching the corpus's
// refusal to bind privileged ports.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"diagnostics: port %d is not allowed, using a random port instead\n", portNumber)

		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithOpenBrowser makes StartServer open the dashboard in the user's
// default browser once the listener is up, instead of only printing its
// URL.
func (m *Monitor) WithOpenBrowser() *Monitor {
	m.openBrowser = true

	return m
}

// StartServer starts serving the monitor's routes in the background and
// returns immediately.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()
	r.HandleFunc("/api/stats", m.listStats)
	r.HandleFunc("/api/deadlock", m.listDeadlock)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.HandleFunc("/api/channel/{name}", m.listChannelDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	http.Handle("/", r)

	actualPort := ":0"
	if m.portNumber >= 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d", listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "dramctl diagnostics listening on %s\n", url)

	if m.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			fmt.Fprintf(os.Stderr, "diagnostics: could not open browser: %v\n", err)
		}
	}

	go func() {
		err := http.Serve(listener, nil)
		dieOnErr(err)
	}()
}

// findChannelOr404 looks up the channel named name, writing a 404 and
// returning nil if it isn't found.
func (m *Monitor) findChannelOr404(w http.ResponseWriter, name string) *org.Channel {
	for _, ch := range m.source.Channels() {
		if ch.Name() == name {
			return ch
		}
	}

	http.Error(w, fmt.Sprintf("channel %q not found", name), http.StatusNotFound)

	return nil
}

// listChannelDetails serializes a channel's exported state one level
// deep, for ad-hoc inspection without a fixed response schema.
func (m *Monitor) listChannelDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	ch := m.findChannelOr404(w, name)
	if ch == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(ch)
	serializer.SetMaxDepth(1)

	err := serializer.Serialize(w)
	dieOnErr(err)
}

// fieldReq names a single field on a channel, dot-separated for nested
// access (e.g. "Stats.RQRowBufferHit").
type fieldReq struct {
	ChannelName string `json:"channel_name,omitempty"`
	FieldName   string `json:"field_name,omitempty"`
}

// listFieldValue serializes one field of one channel, drilling into
// nested struct fields named in req.FieldName.
func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]

	req := fieldReq{}

	err := json.Unmarshal([]byte(jsonString), &req)
	dieOnErr(err)

	ch := m.findChannelOr404(w, req.ChannelName)
	if ch == nil {
		return
	}

	fields := strings.Split(req.FieldName, ".")

	serializer := goseth.NewSerializer()
	serializer.SetRoot(ch)
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(fields)
	dieOnErr(err)

	err = serializer.Serialize(w)
	dieOnErr(err)
}

func (m *Monitor) listStats(w http.ResponseWriter, _ *http.Request) {
	type snapshot struct {
		Name string    `json:"name"`
		Sim  org.Stats `json:"sim_stats"`
		Roi  org.Stats `json:"roi_stats"`
	}

	snapshots := make([]snapshot, 0, len(m.source.Channels()))
	for _, ch := range m.source.Channels() {
		snapshots = append(snapshots, snapshot{
			Name: ch.Name(),
			Sim:  ch.Stats,
			Roi:  ch.RoiStats,
		})
	}

	body, err := json.Marshal(snapshots)
	dieOnErr(err)

	_, err = w.Write(body)
	dieOnErr(err)
}

func (m *Monitor) listDeadlock(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	for i, ch := range m.source.Channels() {
		fmt.Fprintf(buf, "DRAM Channel %d\n", i)

		for _, entry := range ch.DeadlockEntries() {
			fmt.Fprintf(buf, "  %s address: %#x v_addr: %#x\n", entry.Queue, entry.Address, entry.VAddress)
		}
	}

	_, err := w.Write(buf.Bytes())
	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memInfo, err := proc.MemoryInfo()
	dieOnErr(err)

	body, err := json.Marshal(resourceRsp{CPUPercent: cpuPercent, MemorySize: memInfo.RSS})
	dieOnErr(err)

	_, err = w.Write(body)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)
	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	body, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(body)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
