package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"isyhub/internal/config"
	"isyhub/plugins/isy"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	// Command Info logs stay quiet in CLI use.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "nodes":
		nodesCmd(ctx, os.Args[2:])
	case "groups":
		groupsCmd(ctx, os.Args[2:])
	case "programs":
		programsCmd(ctx, os.Args[2:])
	case "device":
		deviceCmd(ctx, os.Args[2:])
	case "scene":
		sceneCmd(ctx, os.Args[2:])
	case "program":
		programCmd(ctx, os.Args[2:])
	case "get":
		getCmd(ctx, os.Args[2:])
	case "dump":
		dumpCmd(ctx, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func commonFlags(flags *flag.FlagSet) (configPath *string, jsonOut *bool) {
	configPath = flags.String("config", config.DefaultPath, "Path to config.yaml")
	jsonOut = flags.Bool("json", false, "Emit JSON instead of a table")
	return configPath, jsonOut
}

func buildClient(configPath string) *isy.Client {
	cfg, err := config.Load(configPath)
	if err != nil {
		fatal("load config", err)
	}
	if cfg.ISY == nil {
		fatal("isy", fmt.Errorf("config has no isy section"))
	}
	clientCfg, err := isy.FromConfig(cfg.ISY)
	if err != nil {
		fatal("isy config", err)
	}
	client, err := isy.NewClient(clientCfg)
	if err != nil {
		fatal("isy client", err)
	}
	return client
}

func nodesCmd(ctx context.Context, args []string) {
	flags := flag.NewFlagSet("nodes", flag.ExitOnError)
	configPath, jsonOut := commonFlags(flags)
	_ = flags.Parse(args)

	client := buildClient(*configPath)
	inventory, err := client.Inventory(ctx)
	if err != nil {
		fatal("fetch inventory", err)
	}

	out := outputMode{json: *jsonOut}
	if out.json {
		out.printJSON(inventory.Nodes)
		return
	}
	rows := [][]string{{"ADDRESS", "NAME", "STATE"}}
	for _, rec := range inventory.Nodes {
		rows = append(rows, []string{
			rec.Get("address").Text(),
			rec.Get("name").ScalarText(),
			stateOf(rec),
		})
	}
	out.table(rows)
}

func groupsCmd(ctx context.Context, args []string) {
	flags := flag.NewFlagSet("groups", flag.ExitOnError)
	configPath, jsonOut := commonFlags(flags)
	_ = flags.Parse(args)

	client := buildClient(*configPath)
	inventory, err := client.Inventory(ctx)
	if err != nil {
		fatal("fetch inventory", err)
	}

	out := outputMode{json: *jsonOut}
	if out.json {
		out.printJSON(inventory.Groups)
		return
	}
	rows := [][]string{{"ADDRESS", "NAME", "MEMBERS"}}
	for _, rec := range inventory.Groups {
		rows = append(rows, []string{
			rec.Get("address").Text(),
			rec.Get("name").ScalarText(),
			strconv.Itoa(rec.Get("members").Len()),
		})
	}
	out.table(rows)
}

func programsCmd(ctx context.Context, args []string) {
	flags := flag.NewFlagSet("programs", flag.ExitOnError)
	configPath, jsonOut := commonFlags(flags)
	_ = flags.Parse(args)

	client := buildClient(*configPath)
	programs, err := client.Programs(ctx)
	if err != nil {
		fatal("fetch programs", err)
	}

	out := outputMode{json: *jsonOut}
	if out.json {
		out.printJSON(programs)
		return
	}
	rows := [][]string{{"ID", "NAME", "ENABLED", "STATUS", "LAST RUN"}}
	for _, rec := range programs {
		rows = append(rows, []string{
			rec.Get("id").Text(),
			rec.Get("name").ScalarText(),
			rec.Get("enabled").ScalarText(),
			rec.Get("status").ScalarText(),
			rec.Get("lastRunTime").ScalarText(),
		})
	}
	out.table(rows)
}

func deviceCmd(ctx context.Context, args []string) {
	flags := flag.NewFlagSet("device", flag.ExitOnError)
	configPath, jsonOut := commonFlags(flags)
	_ = flags.Parse(args)
	rest := flags.Args()
	if len(rest) < 1 {
		fatal("device", fmt.Errorf("usage: isyhub-cli device <name|address> [on|off|level <0-100>]"))
	}

	client := buildClient(*configPath)
	device, err := client.Device(ctx, rest[0])
	if err != nil {
		fatal("device", err)
	}

	out := outputMode{json: *jsonOut}
	if len(rest) == 1 {
		if out.json {
			out.printJSON(device.Record())
			return
		}
		out.table([][]string{
			{"address", device.Address()},
			{"name", device.Name()},
			{"state", stateOf(device.Record())},
		})
		return
	}

	switch rest[1] {
	case "on":
		err = device.On(ctx)
	case "off":
		err = device.Off(ctx)
	case "level":
		if len(rest) < 3 {
			fatal("device level", fmt.Errorf("missing level value"))
		}
		level, convErr := strconv.Atoi(rest[2])
		if convErr != nil {
			fatal("device level", fmt.Errorf("invalid level %q", rest[2]))
		}
		err = device.OnLevel(ctx, level)
	default:
		fatal("device", fmt.Errorf("unknown action %q", rest[1]))
	}
	if err != nil {
		fatal("device "+rest[1], err)
	}
	printOK(out, "device", device.Address(), rest[1])
}

func sceneCmd(ctx context.Context, args []string) {
	flags := flag.NewFlagSet("scene", flag.ExitOnError)
	configPath, jsonOut := commonFlags(flags)
	_ = flags.Parse(args)
	rest := flags.Args()
	if len(rest) < 1 {
		fatal("scene", fmt.Errorf("usage: isyhub-cli scene <name|address> [on|off]"))
	}

	client := buildClient(*configPath)
	scene, err := client.Scene(ctx, rest[0])
	if err != nil {
		fatal("scene", err)
	}

	out := outputMode{json: *jsonOut}
	if len(rest) == 1 {
		if out.json {
			out.printJSON(scene.Record())
			return
		}
		out.table([][]string{
			{"address", scene.Address()},
			{"name", scene.Name()},
			{"members", strconv.Itoa(len(scene.Members()))},
		})
		return
	}

	switch rest[1] {
	case "on":
		err = scene.On(ctx)
	case "off":
		err = scene.Off(ctx)
	default:
		fatal("scene", fmt.Errorf("unknown action %q", rest[1]))
	}
	if err != nil {
		fatal("scene "+rest[1], err)
	}
	printOK(out, "scene", scene.Address(), rest[1])
}

func programCmd(ctx context.Context, args []string) {
	flags := flag.NewFlagSet("program", flag.ExitOnError)
	configPath, jsonOut := commonFlags(flags)
	_ = flags.Parse(args)
	rest := flags.Args()
	if len(rest) < 1 {
		fatal("program", fmt.Errorf("usage: isyhub-cli program <name|id> [run|runThen|runElse]"))
	}

	client := buildClient(*configPath)
	program, err := client.Program(ctx, rest[0])
	if err != nil {
		fatal("program", err)
	}

	out := outputMode{json: *jsonOut}
	if len(rest) == 1 {
		if out.json {
			out.printJSON(program.Record())
			return
		}
		lastRun := ""
		if t, ok := program.LastRunTime(); ok {
			lastRun = t.Format("2006-01-02 15:04:05")
		}
		out.table([][]string{
			{"id", program.ID()},
			{"name", program.Name()},
			{"enabled", strconv.FormatBool(program.Enabled())},
			{"status", strconv.FormatBool(program.Status())},
			{"last run", lastRun},
		})
		return
	}

	switch rest[1] {
	case "run":
		err = program.Run(ctx)
	case "runThen":
		err = program.RunThen(ctx)
	case "runElse":
		err = program.RunElse(ctx)
	default:
		fatal("program", fmt.Errorf("unknown action %q", rest[1]))
	}
	if err != nil {
		fatal("program "+rest[1], err)
	}
	printOK(out, "program", program.ID(), rest[1])
}

func getCmd(ctx context.Context, args []string) {
	flags := flag.NewFlagSet("get", flag.ExitOnError)
	configPath, _ := commonFlags(flags)
	_ = flags.Parse(args)
	rest := flags.Args()
	if len(rest) < 1 {
		fatal("get", fmt.Errorf("usage: isyhub-cli get <rest-path>"))
	}

	client := buildClient(*configPath)
	tree, err := client.Fetch(ctx, rest[0])
	if err != nil {
		fatal("get "+rest[0], err)
	}
	outputMode{json: true}.printJSON(tree)
}

func dumpCmd(ctx context.Context, args []string) {
	flags := flag.NewFlagSet("dump", flag.ExitOnError)
	configPath, _ := commonFlags(flags)
	_ = flags.Parse(args)
	rest := flags.Args()
	if len(rest) < 1 {
		fatal("dump", fmt.Errorf("usage: isyhub-cli dump <inventory|programs>"))
	}

	client := buildClient(*configPath)
	switch rest[0] {
	case "inventory":
		inventory, err := client.Inventory(ctx)
		if err != nil {
			fatal("dump inventory", err)
		}
		dumpValue(inventory)
	case "programs":
		programs, err := client.Programs(ctx)
		if err != nil {
			fatal("dump programs", err)
		}
		dumpValue(programs)
	default:
		fatal("dump", fmt.Errorf("unknown target %q", rest[0]))
	}
}

func usage() {
	fmt.Println("isyhub-cli <command> [flags] [args]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  nodes    [--json]")
	fmt.Println("  groups   [--json]")
	fmt.Println("  programs [--json]")
	fmt.Println("  device   <name|address> [on|off|level <0-100>]")
	fmt.Println("  scene    <name|address> [on|off]")
	fmt.Println("  program  <name|id> [run|runThen|runElse]")
	fmt.Println("  get      <rest-path>")
	fmt.Println("  dump     <inventory|programs>")
	fmt.Println("")
	fmt.Println("Flags go before positional args: isyhub-cli device --json lamp")
}

func fatal(action string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", action, err)
	os.Exit(1)
}
