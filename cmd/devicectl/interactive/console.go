// Package interactive provides the operator console for devicectl: a
// readline-driven command loop for inspecting device state and issuing
// manual calls against a running runtime.Runtime.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/latticeworks/devicert/pkg/automation"
	"github.com/latticeworks/devicert/pkg/registry"
	"github.com/latticeworks/devicert/pkg/runtime"
	"github.com/latticeworks/devicert/pkg/wire"
)

// Console handles interactive mode for devicectl.
type Console struct {
	term *readline.Instance
	rt   *runtime.Runtime
}

// New creates a console reading from stdin/stdout via readline.
func New(rt *runtime.Runtime) (*Console, error) {
	inst, err := readline.New("devicectl> ")
	if err != nil {
		return nil, err
	}
	return &Console{term: inst, rt: rt}, nil
}

// Close releases the underlying readline instance.
func (c *Console) Close() error {
	return c.term.Close()
}

// Run starts the interactive command loop. It returns when ctx is
// cancelled or the operator types quit/exit.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.term.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			cancel()
			return
		}
		if err != nil {
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()
		case "devices", "ls":
			c.cmdDevices()
		case "status":
			c.cmdStatus(args)
		case "mode":
			c.cmdMode(args)
		case "param":
			c.cmdParam(args)
		case "call":
			c.cmdCall(args)
		case "quit", "exit", "q":
			fmt.Println("Exiting...")
			cancel()
			return
		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (c *Console) printHelp() {
	fmt.Print(`
devicectl console commands:
  devices                              - List known devices
  status [device-handle]               - Show runtime status, or one device's cached state
  mode [get|set <IDLE|MANUAL|AUTO|FAULT>] - Show or change the operating mode
  param list                           - List defined parameters
  param get <name>                     - Read a parameter value
  param set <name> <value>             - Write a parameter value
  call <provider/device> <function> [arg=value ...] - Invoke a device function
  help                                  - Show this help
  quit                                  - Exit the console
`)
}

func (c *Console) cmdDevices() {
	devices := c.rt.Devices.AllDevices()
	if len(devices) == 0 {
		fmt.Println("No devices discovered")
		return
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Handle() < devices[j].Handle() })
	for _, d := range devices {
		fmt.Printf("  %s  %q  signals=%d functions=%d\n", d.Handle(), d.Label, len(d.SignalsByID), len(d.FunctionsByID))
	}
}

func (c *Console) cmdStatus(args []string) {
	if len(args) == 0 {
		fmt.Printf("Mode:       %s\n", c.rt.ModeManager.Current())
		fmt.Printf("Devices:    %d\n", c.rt.StateCache.DeviceCount())
		fmt.Printf("Providers:  %d\n", len(c.rt.Sessions.GetAll()))
		return
	}

	handle := args[0]
	snap, ok := c.rt.StateCache.GetDeviceState(handle)
	if !ok {
		fmt.Printf("Unknown device: %s\n", handle)
		return
	}
	fmt.Printf("Device:     %s\n", snap.Handle)
	fmt.Printf("Available:  %v\n", snap.Available)
	fmt.Printf("Last poll:  %s\n", snap.LastPollTime.Format("15:04:05"))
	for id, v := range snap.Signals {
		fmt.Printf("  %s = %s (%s)\n", id, v.Value, v.Quality)
	}
}

func (c *Console) cmdMode(args []string) {
	if len(args) == 0 || args[0] == "get" {
		fmt.Println(c.rt.ModeManager.Current())
		return
	}
	if args[0] != "set" || len(args) < 2 {
		fmt.Println("Usage: mode [get|set <IDLE|MANUAL|AUTO|FAULT>]")
		return
	}
	m, ok := automation.ParseMode(strings.ToUpper(args[1]))
	if !ok {
		fmt.Printf("Unrecognized mode: %s\n", args[1])
		return
	}
	if err := c.rt.ModeManager.SetMode(m); err != nil {
		fmt.Printf("Mode change rejected: %v\n", err)
		return
	}
	fmt.Println("OK")
}

func (c *Console) cmdParam(args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: param list | param get <name> | param set <name> <value>")
		return
	}
	switch args[0] {
	case "list":
		defs := c.rt.Parameters.AllDefinitions()
		names := make([]string, 0, len(defs))
		for name := range defs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			d := defs[name]
			fmt.Printf("  %s = %s (%s)\n", name, d.Value, d.Type)
		}
	case "get":
		if len(args) < 2 {
			fmt.Println("Usage: param get <name>")
			return
		}
		v, ok := c.rt.Parameters.Get(args[1])
		if !ok {
			fmt.Printf("Unknown parameter: %s\n", args[1])
			return
		}
		fmt.Println(v)
	case "set":
		if len(args) < 3 {
			fmt.Println("Usage: param set <name> <value>")
			return
		}
		def, ok := c.rt.Parameters.GetDefinition(args[1])
		if !ok {
			fmt.Printf("Unknown parameter: %s\n", args[1])
			return
		}
		v, err := parseTypedValue(def.Type, strings.Join(args[2:], " "))
		if err != nil {
			fmt.Printf("Invalid value: %v\n", err)
			return
		}
		if err := c.rt.Parameters.Set(args[1], v); err != nil {
			fmt.Printf("Set rejected: %v\n", err)
			return
		}
		fmt.Println("OK")
	default:
		fmt.Println("Usage: param list | param get <name> | param set <name> <value>")
	}
}

func (c *Console) cmdCall(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: call <provider/device> <function> [arg=value ...]")
		return
	}
	handle, functionName := args[0], args[1]

	providerID, deviceID, err := registry.ParseHandle(handle)
	if err != nil {
		fmt.Printf("Invalid device handle: %v\n", err)
		return
	}
	dev, ok := c.rt.Devices.GetDevice(providerID, deviceID)
	if !ok {
		fmt.Printf("Unknown device: %s\n", handle)
		return
	}
	fn, ok := dev.FunctionsByName[functionName]
	if !ok {
		fmt.Printf("Unknown function %q on device %s\n", functionName, handle)
		return
	}

	argValues, err := parseCallArgs(fn, args[2:])
	if err != nil {
		fmt.Printf("Argument error: %v\n", err)
		return
	}

	success, errMsg, results := c.rt.Router.Call(handle, functionName, argValues)
	if !success {
		fmt.Printf("Call failed: %s\n", errMsg)
		return
	}
	fmt.Println("OK")
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s = %s\n", name, results[name])
	}
}

// parseCallArgs parses "name=value" tokens against a function's declared
// argument types.
func parseCallArgs(fn wire.FunctionSpec, tokens []string) (map[string]wire.Value, error) {
	specByName := make(map[string]wire.ArgSpec, len(fn.Args))
	for _, a := range fn.Args {
		specByName[a.Name] = a
	}

	out := make(map[string]wire.Value, len(tokens))
	for _, tok := range tokens {
		name, raw, ok := strings.Cut(tok, "=")
		if !ok {
			return nil, fmt.Errorf("expected name=value, got %q", tok)
		}
		spec, ok := specByName[name]
		if !ok {
			return nil, fmt.Errorf("unknown argument %q", name)
		}
		v, err := parseTypedValue(spec.ValueType, raw)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

func parseTypedValue(t wire.ValueType, raw string) (wire.Value, error) {
	switch t {
	case wire.TypeDouble:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return wire.Value{}, err
		}
		return wire.DoubleValue(f), nil
	case wire.TypeInt64:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return wire.Value{}, err
		}
		return wire.Int64Value(i), nil
	case wire.TypeUint64:
		u, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return wire.Value{}, err
		}
		return wire.Uint64Value(u), nil
	case wire.TypeBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return wire.Value{}, err
		}
		return wire.BoolValue(b), nil
	case wire.TypeString:
		return wire.StringValue(raw), nil
	case wire.TypeBytes:
		return wire.BytesValue([]byte(raw)), nil
	default:
		return wire.Value{}, fmt.Errorf("unsupported value type %s", t)
	}
}
