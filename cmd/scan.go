package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"firestige.xyz/nlyzer/internal/capture"
	"firestige.xyz/nlyzer/internal/config"
	"firestige.xyz/nlyzer/internal/filter"
	"firestige.xyz/nlyzer/internal/log"
	"firestige.xyz/nlyzer/internal/metrics"
	"firestige.xyz/nlyzer/internal/selector"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Capture and dissect frames on one device",
	Long: `Capture frames on one device and print every frame accepted by the filter.

Without --device the available devices are listed and the device is chosen
interactively; the prompt gives up after the configured selection timeout.
SIGINT or SIGTERM stops the capture within one read interval.

Examples:
  nlyzer scan                                   # choose the device interactively
  nlyzer scan -d eth0 --summary                 # one line per frame on eth0
  nlyzer scan -d eth0 --script dns.lua          # filter with the filter() function in dns.lua
  nlyzer scan -d eth0 -p 53,5353                # only DNS and mDNS ports
  nlyzer scan -c nlyzer.yml --engine afpacket   # AF_PACKET ring instead of libpcap`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		defer log.Close()

		if err := applyScanFlags(cmd, cfg); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if cfg.Metrics.Enabled {
			srv := metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path)
			if err := srv.Start(ctx); err != nil {
				return err
			}
			defer srv.Stop(context.Background())
		}

		deps, err := scanDepsFromConfig(cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return runScan(ctx, deps, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

var (
	scanDevice  string
	scanSummary bool
	scanScript  string
	scanEngine  string
	scanPorts   []int
)

func init() {
	scanCmd.Flags().StringVarP(&scanDevice, "device", "d", "", "capture device name (skips the interactive prompt)")
	scanCmd.Flags().BoolVar(&scanSummary, "summary", false, "print one summary line per frame")
	scanCmd.Flags().StringVar(&scanScript, "script", "", "Lua filter script (overrides filter.script)")
	scanCmd.Flags().StringVar(&scanEngine, "engine", "", "capture engine: pcap or afpacket (overrides capture.engine)")
	scanCmd.Flags().IntSliceVarP(&scanPorts, "port", "p", nil, "only frames with one of these TCP/UDP ports reach the script (overrides filter.ports)")
}

// applyScanFlags overlays the flags the user set on cfg.
func applyScanFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("summary") && scanSummary {
		cfg.Output.Mode = config.OutputModeSummary
	}
	if cmd.Flags().Changed("script") {
		cfg.Filter.Script = scanScript
	}
	if cmd.Flags().Changed("port") {
		cfg.Filter.Ports = append([]int(nil), scanPorts...)
	}
	if cmd.Flags().Changed("engine") {
		engine, err := capture.ParseEngine(scanEngine)
		if err != nil {
			return err
		}
		cfg.Capture.Engine = string(engine)
	}
	return cfg.ValidateAndApplyDefaults()
}

// scanDeps is everything runScan needs; tests replace the device side.
type scanDeps struct {
	Lister        capture.DeviceLister
	Resolver      capture.DeviceResolver
	Opener        capture.Opener
	Open          capture.OpenOptions
	Mode          capture.OutputMode
	Buffer        int // console queue length
	LoadPredicate capture.PredicateLoader
}

// drainTimeout bounds how long runScan waits for queued lines on exit.
const drainTimeout = 2 * time.Second

func scanDepsFromConfig(cfg *config.Config, in io.Reader, out io.Writer) (scanDeps, error) {
	engine, err := capture.ParseEngine(cfg.Capture.Engine)
	if err != nil {
		return scanDeps{}, err
	}
	opener, err := capture.NewOpener(engine)
	if err != nil {
		return scanDeps{}, err
	}
	mode, err := capture.ParseOutputMode(cfg.Output.Mode)
	if err != nil {
		return scanDeps{}, err
	}

	var resolver capture.DeviceResolver = selector.New(in, out, cfg.Selection.Timeout)
	if scanDevice != "" {
		resolver = capture.StaticResolver{Name: scanDevice}
	}

	return scanDeps{
		Lister:        capture.PcapLister{},
		Resolver:      resolver,
		Opener:        opener,
		Open:          capture.OpenOptionsFromConfig(cfg.Capture),
		Mode:          mode,
		Buffer:        cfg.Output.Buffer,
		LoadPredicate: predicateLoader(cfg.Filter),
	}, nil
}

// predicateLoader builds the Lua predicate, preceded by a port match when
// filter.ports is set.
func predicateLoader(fc config.FilterConfig) capture.PredicateLoader {
	return func() (filter.Predicate, error) {
		lua, err := filter.LoadLuaPredicate(fc.Script, fc.Function)
		if err != nil {
			return nil, err
		}
		if len(fc.Ports) == 0 {
			return lua, nil
		}
		return filter.NewChain(filter.PortPredicate{Ports: fc.Ports}, lua), nil
	}
}

// runScan captures until ctx is done, the stream ends or the session
// fails. Frames go to out; status lines and the final counters go to status.
func runScan(ctx context.Context, deps scanDeps, out, status io.Writer) error {
	cancel := capture.NewCancellation()
	stopAfter := context.AfterFunc(ctx, cancel.Cancel)
	defer stopAfter()

	sink := capture.NewWriterSink(out, deps.Buffer)
	s := capture.NewScanner(capture.ScannerOptions{
		Lister:        deps.Lister,
		Resolver:      deps.Resolver,
		Opener:        deps.Opener,
		Open:          deps.Open,
		Mode:          deps.Mode,
		Sink:          sink,
		LoadPredicate: deps.LoadPredicate,
		OnStatus:      func(msg string) { fmt.Fprintln(status, msg) },
	})

	err := s.Scan(ctx, cancel)

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), drainTimeout)
	defer cancelDrain()
	if cerr := sink.Close(drainCtx); cerr != nil {
		log.GetLogger().WithError(cerr).Warn("output not fully written")
	}

	if dev := s.Device(); dev != "" {
		st := s.Stats()
		fmt.Fprintf(status, "%s: %d frames read, %d accepted, %d rejected, %d truncated, %d dropped\n",
			dev, st.Read, st.Accepted, st.Rejected, st.Truncated, sink.Drops())
	}
	return err
}
