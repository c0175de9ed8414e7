package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/irlisten/internal/broadlinkrm"
	"git.home.luguber.info/inful/irlisten/internal/capture"
	"git.home.luguber.info/inful/irlisten/internal/combination"
	"git.home.luguber.info/inful/irlisten/internal/config"
	"git.home.luguber.info/inful/irlisten/internal/logfields"
	"git.home.luguber.info/inful/irlisten/internal/retry"
	"git.home.luguber.info/inful/irlisten/internal/smartir"
	"git.home.luguber.info/inful/irlisten/internal/state"
	"git.home.luguber.info/inful/irlisten/internal/version"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"irlisten.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Listen struct {
		File          string   `arg:"" help:"SmartIR climate JSON file to learn codes for"`
		NoTempOnMode  []string `help:"Operation mode whose IR code ignores temperature (repeatable)"`
		NoSwingOnMode []string `help:"Operation mode whose IR code ignores swing (repeatable)"`
		AllowPartial  bool     `help:"Write the output document even when the off command is missing"`
		FlushOnAbort  bool     `help:"Write a best-effort output document when the run is interrupted"`
	} `cmd:"" help:"Learn IR codes for every mode/temperature combination and emit a SmartIR document"`

	Discover struct {
		Timeout time.Duration `help:"How long to wait for device answers" default:"5s"`
	} `cmd:"" help:"Find Broadlink devices on the local network"`

	Send struct {
		File string `arg:"" help:"SmartIR climate JSON file whose snapshot holds the code"`
		Key  string `arg:"" help:"Combination key to transmit, e.g. 'cool|low|18' or 'off'"`
	} `cmd:"" help:"Transmit a previously learned code for verification"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	ctx := kong.Parse(&CLI)

	// Set up logging
	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	switch ctx.Command() {
	case "listen <file>":
		if err := runListen(); err != nil {
			slog.Error("Listen failed", logfields.Error(err))
			os.Exit(1)
		}
	case "discover":
		if err := runDiscover(CLI.Discover.Timeout); err != nil {
			slog.Error("Discover failed", logfields.Error(err))
			os.Exit(1)
		}
	case "send <file> <key>":
		if err := runSend(CLI.Send.File, CLI.Send.Key); err != nil {
			slog.Error("Send failed", logfields.Error(err))
			os.Exit(1)
		}
	case "init":
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", logfields.Error(err))
			os.Exit(1)
		}
	case "version":
		fmt.Printf("irlisten %s (commit %s, built %s)\n",
			version.Version, version.GitCommit, version.BuildTime)
	}
}

func runListen() error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}
	if err := cfg.ValidateDevice(); err != nil {
		return err
	}

	spec, err := smartir.LoadFile(CLI.Listen.File)
	if err != nil {
		return err
	}
	if !spec.HasModes() {
		slog.Warn("Climate file declares no mode axes; only the off command can be learned",
			logfields.Path(CLI.Listen.File))
	}

	snapPath := state.SnapshotPath(CLI.Listen.File)
	st, err := state.Load(snapPath, filepath.Base(CLI.Listen.File))
	if err != nil {
		// Recoverable: the run starts fresh, but the operator should know.
		slog.Warn("Ignoring unreadable partial snapshot", logfields.Path(snapPath), logfields.Error(err))
	} else if st.Len() > 0 {
		slog.Info("Resuming from partial snapshot",
			logfields.Path(snapPath), logfields.Captured(st.Len()))
	}

	dev, err := connectDevice(cfg)
	if err != nil {
		return err
	}
	slog.Info("Connected to device",
		logfields.Device(dev.Name()), logfields.Addr(cfg.Device.Host))

	orch, err := capture.NewOrchestrator(dev, spec.Space(), st, snapPath, promptOperator, capture.Options{
		Timeout:        cfg.Capture.Timeout,
		NoTempOnModes:  CLI.Listen.NoTempOnMode,
		NoSwingOnModes: CLI.Listen.NoSwingOnMode,
	})
	if err != nil {
		return err
	}

	runCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sum, err := orch.Run(runCtx)
	if err != nil {
		return err
	}

	if sum.Aborted {
		slog.Info("Interrupted; captured combinations are saved for the next run",
			logfields.Path(snapPath))
		if !CLI.Listen.FlushOnAbort {
			return nil
		}
		return writeDocument(spec, st, false, snapPath, sum)
	}

	return writeDocument(spec, st, !CLI.Listen.AllowPartial, snapPath, sum)
}

// writeDocument assembles and writes the output file. The snapshot is removed
// only after a complete run with nothing left pending; otherwise it stays so
// a later run can fill the blanks.
func writeDocument(spec *smartir.ClimateSpec, st *state.PartialState, strict bool,
	snapPath string, sum capture.Summary) error {

	doc, err := smartir.Assemble(spec, st.Codes, strict)
	if err != nil {
		if errors.Is(err, smartir.ErrIncompleteResult) {
			return fmt.Errorf("%w (rerun to capture it, or pass --allow-partial)", err)
		}
		return err
	}

	outPath := spec.OutputPath(time.Now())
	if err := smartir.WriteDocument(outPath, doc); err != nil {
		return err
	}
	fmt.Printf("Created new file %s\n", outPath)

	if !sum.Aborted && sum.Pending == 0 {
		if err := state.Remove(snapPath); err != nil {
			return err
		}
	} else {
		slog.Info("Keeping partial snapshot for a future run",
			logfields.Path(snapPath), logfields.Pending(sum.Pending))
	}
	return nil
}

func runDiscover(timeout time.Duration) error {
	slog.Info("Searching for Broadlink devices", slog.Duration("timeout", timeout))

	infos, err := broadlinkrm.Discover(timeout)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("No Broadlink devices found.")
		return nil
	}

	for _, info := range infos {
		fmt.Printf("%s  type=%s (%s)  mac=%s\n", info.Addr, info.TypeID(), info.TypeName, info.MAC)
	}
	fmt.Printf("\nCopy the device block into %s:\n", CLI.Config)
	fmt.Printf("device:\n  type: %q\n  host: %q\n  mac: %q\n",
		infos[0].TypeID(), infos[0].Addr, infos[0].MAC)
	return nil
}

func runSend(file, key string) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}
	if err := cfg.ValidateDevice(); err != nil {
		return err
	}

	snapPath := state.SnapshotPath(file)
	st, err := state.Load(snapPath, filepath.Base(file))
	if err != nil {
		return err
	}
	code, ok := st.Code(key)
	if !ok || code == "" {
		return fmt.Errorf("no learned code for combination %q in %s", key, snapPath)
	}

	dev, err := connectDevice(cfg)
	if err != nil {
		return err
	}
	if err := dev.Send(code); err != nil {
		return err
	}
	slog.Info("Code sent", logfields.Combination(key), logfields.Device(dev.Name()))
	return nil
}

func connectDevice(cfg *config.Config) (*broadlinkrm.Device, error) {
	pol := retry.NewPolicy(retry.BackoffMode(cfg.Retry.Backoff),
		cfg.Retry.Initial, cfg.Retry.Max, cfg.Retry.MaxRetries)
	return broadlinkrm.Connect(cfg.Device, cfg.Capture, pol)
}

// promptOperator tells the operator which combination the device is about to
// listen for.
func promptOperator(c combination.Combination) {
	fmt.Println("------------------------------")
	if c.Off {
		fmt.Println("Let's learn the OFF command:")
		fmt.Println("turn the unit ON with the remote, then press its power button while 'Listening' is shown.")
	} else {
		fmt.Printf("Let's learn the IR command for:\n  %s\n", c)
		fmt.Println("Set the remote to the combination above and press a button while 'Listening' is shown.")
	}
	fmt.Println("Listening... (Ctrl-C to stop; progress is saved)")
}
