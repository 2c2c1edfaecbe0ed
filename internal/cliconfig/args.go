package cliconfig

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/beastreplay/pkg/replay"
)

// StdinName is the input argument that selects standard input.
const StdinName = "-"

// Pass is one replay of one input with the running state in effect when the
// input was named on the command line.
type Pass struct {
	Input  string
	Config Config
}

// Invocation is the parsed command line.
type Invocation struct {
	ConfigPath string
	Help       bool
	Version    bool

	// Passes are in command-line order.
	Passes []Pass

	// Final is the running state after the last argument. Process-wide
	// settings such as the log level are taken from it.
	Final Config
}

// ParseArgs walks args once. Flags update the running state, starting from
// base, and every other argument becomes a Pass that snapshots the state at
// that point. A later flag never affects an earlier input.
func ParseArgs(args []string, base Config) (Invocation, error) {
	inv := Invocation{Final: base}
	fs := NewFlagSet(&inv.Final, &inv)

	rest := args
	for {
		if err := fs.Parse(rest); err != nil {
			return inv, err
		}
		rest = fs.Args()

		// Everything after a bare "--" is an input, even if it looks like a flag.
		if fs.ArgsLenAtDash() == 0 {
			for _, input := range rest {
				if err := inv.addPass(input); err != nil {
					return inv, err
				}
			}
			return inv, nil
		}
		if len(rest) == 0 {
			return inv, nil
		}
		if err := inv.addPass(rest[0]); err != nil {
			return inv, err
		}
		rest = rest[1:]
	}
}

func (inv *Invocation) addPass(input string) error {
	p := Pass{Input: input, Config: inv.Final}
	if err := p.Validate(); err != nil {
		return err
	}
	inv.Passes = append(inv.Passes, p)
	return nil
}

// Validate checks the running state against the input it applies to.
// Following reads raw bytes as they are appended, so it cannot be combined
// with a compressed input.
func (p Pass) Validate() error {
	if err := p.Config.Validate(); err != nil {
		return fmt.Errorf("%s: %w", p.Input, err)
	}
	if p.Config.Follow && p.Input != StdinName && strings.HasSuffix(p.Input, ".gz") {
		return fmt.Errorf("%s: %w: cannot follow a compressed file", p.Input, ErrInvalid)
	}
	return nil
}

// ConfigPathFromArgs returns the value of the last --config flag in args
// without interpreting anything else, so the file can be loaded before the
// running state is parsed.
func ConfigPathFromArgs(args []string) string {
	var path string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			break
		}
		switch {
		case a == "--config" && i+1 < len(args):
			path = args[i+1]
			i++
		case strings.HasPrefix(a, "--config="):
			path = strings.TrimPrefix(a, "--config=")
		}
	}
	return path
}

// NewFlagSet builds the command-line flags bound to cfg and inv. It is used
// by ParseArgs and for rendering help.
func NewFlagSet(cfg *Config, inv *Invocation) *pflag.FlagSet {
	fs := pflag.NewFlagSet("beastreplay", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.SortFlags = false

	toggle(fs, "beast", "interpret timestamps as 12 MHz Beast counters", stringChoice(&cfg.Clock, replay.ClockBeast.String(), "radarcape"))
	toggle(fs, "radarcape", "interpret timestamps as Radarcape GPS seconds and nanoseconds", stringChoice(&cfg.Clock, replay.ClockRadarcape.String(), "beast"))
	toggle(fs, "raw", "write the original frame bytes", stringChoice(&cfg.Output, replay.OutputRaw.String(), "show"))
	toggle(fs, "show", "write one line of text per message", stringChoice(&cfg.Output, replay.OutputShow.String(), "raw"))
	toggle(fs, "delay", "pace output by message timestamps", boolChoice(&cfg.Delay, true, "no-delay"))
	toggle(fs, "no-delay", "write messages as fast as they are decoded", boolChoice(&cfg.Delay, false, "delay"))
	toggle(fs, "follow", "keep reading a file that is still being written", boolChoice(&cfg.Follow, true, "no-follow"))
	toggle(fs, "no-follow", "stop at end of file", boolChoice(&cfg.Follow, false, "follow"))

	fs.Float64Var(&cfg.Speed, "speed", cfg.Speed, "divide every scheduled wait by this factor")
	fs.DurationVar(&cfg.MaxGap, "max-gap", cfg.MaxGap, "skip waits longer than this (0 disables)")
	fs.DurationVar(&cfg.SleepThreshold, "sleep-threshold", cfg.SleepThreshold, "only sleep for waits longer than this")
	fs.IntVar(&cfg.ChunkSize, "chunk-size", cfg.ChunkSize, "bytes requested per read")
	fs.DurationVar(&cfg.FollowIdle, "follow-idle", cfg.FollowIdle, "stop following after this long without new data (0 waits forever)")

	fs.StringVar(&inv.ConfigPath, "config", "", "path to config file (default: $HOME/.beastreplay/config.toml)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve prometheus metrics on this address")
	fs.BoolVarP(&inv.Help, "help", "h", false, "show help")
	fs.BoolVar(&inv.Version, "version", false, "print the version")
	return fs
}

func toggle(fs *pflag.FlagSet, name, usage string, v pflag.Value) {
	fs.VarPF(v, name, "", usage).NoOptDefVal = "true"
}

// choice is a flag that, when set to true, stores a fixed value into a shared
// destination. Several choices share one destination so the last one given
// wins. Setting a choice to false is rejected in favour of its opposite flag.
type choice struct {
	set      func()
	active   func() bool
	opposite string
}

func stringChoice(dst *string, value, opposite string) *choice {
	return &choice{
		set:      func() { *dst = value },
		active:   func() bool { return strings.EqualFold(*dst, value) },
		opposite: opposite,
	}
}

func boolChoice(dst *bool, value bool, opposite string) *choice {
	return &choice{
		set:      func() { *dst = value },
		active:   func() bool { return *dst == value },
		opposite: opposite,
	}
}

func (c *choice) String() string { return strconv.FormatBool(c.active()) }

func (c *choice) Set(s string) error {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return errors.New("expects no value")
	}
	if !b {
		return fmt.Errorf("use --%s instead", c.opposite)
	}
	c.set()
	return nil
}

func (c *choice) Type() string { return "bool" }
