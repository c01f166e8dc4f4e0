package isy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"isyhub/internal/xmldict"
)

const nodesDocument = `<?xml version="1.0" encoding="UTF-8"?>
<nodes>
  <root>
    <name>My Lighting</name>
  </root>
  <node flag="128" nodeDefId="DimmerLampSwitch">
    <address>11 22 33 1</address>
    <name>Kitchen Light</name>
    <type>1.32.65.0</type>
    <enabled>true</enabled>
    <pnode>11 22 33 1</pnode>
    <property id="ST" value="255" formatted=" On " uom="%/on/off"/>
  </node>
  <group flag="132">
    <address>22822</address>
    <name>Evening Scene</name>
    <members>
      <link type="16">11 22 33 1</link>
    </members>
  </group>
</nodes>`

const programsDocument = `<?xml version="1.0" encoding="UTF-8"?>
<programs>
  <program id="0001" parentId="0001" folder="true" status="false">
    <name>My Programs</name>
  </program>
  <program id="0012" parentId="0001" folder="false" status="true">
    <name>Night Mode</name>
    <enabled>true</enabled>
    <runAtStartup>false</runAtStartup>
    <lastRunTime>2024/06/01  9:05:03 PM</lastRunTime>
    <lastFinishTime>2024/06/01  9:05:04 PM</lastFinishTime>
    <nextScheduledRunTime></nextScheduledRunTime>
  </program>
  <program id="004A" parentId="0001" folder="false" status="false">
    <name>Away Mode</name>
    <enabled>false</enabled>
  </program>
</programs>`

func TestClientFlow(t *testing.T) {
	var commands []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assertAuth(t, r)
		w.Header().Set("Content-Type", "text/xml; charset=UTF-8")
		switch r.URL.Path {
		case "/rest/nodes":
			_, _ = io.WriteString(w, nodesDocument)
		case "/rest/programs":
			if r.URL.RawQuery != "subfolders=true" {
				t.Fatalf("unexpected programs query: %s", r.URL.RawQuery)
			}
			_, _ = io.WriteString(w, programsDocument)
		case "/rest/nodes/11 22 33 1/cmd/DON/255",
			"/rest/nodes/11 22 33 1/cmd/DOF",
			"/rest/nodes/22822/cmd/DON",
			"/rest/programs/0012/runThen":
			commands = append(commands, r.URL.EscapedPath())
			_, _ = io.WriteString(w, `<RestResponse succeeded="true"><status>200</status></RestResponse>`)
		case "/rest/programs/004A/run":
			commands = append(commands, r.URL.EscapedPath())
			_, _ = io.WriteString(w, `<RestResponse succeeded="false"><status>404</status></RestResponse>`)
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client, err := NewClient(Config{
		Host:              strings.TrimPrefix(server.URL, "http://"),
		Username:          "admin",
		Password:          "hub-secret",
		RequestsPerSecond: 100,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx := context.Background()

	inv, err := client.Inventory(ctx)
	if err != nil {
		t.Fatalf("Inventory: %v", err)
	}
	if len(inv.Nodes) != 1 || len(inv.Groups) != 1 {
		t.Fatalf("unexpected inventory: %d nodes, %d groups", len(inv.Nodes), len(inv.Groups))
	}
	node := inv.Nodes[0]
	if node.Get("flag").Kind != xmldict.KindInt || node.Get("flag").Int != 128 {
		t.Fatalf("unexpected flag: %s", node.Get("flag"))
	}
	if node.Get("address").Text() != "11 22 33 1" {
		t.Fatalf("unexpected address: %s", node.Get("address"))
	}
	props := node.Get("properties")
	if props == nil || props.Kind != xmldict.KindList || len(props.List) != 1 {
		t.Fatalf("unexpected properties: %s", props)
	}
	if props.List[0].Get("rawvalue").Text() != "255" {
		t.Fatalf("unexpected rawvalue: %s", props.List[0].Get("rawvalue"))
	}
	if props.List[0].Get("value").Text() != "On" {
		t.Fatalf("unexpected value: %s", props.List[0].Get("value"))
	}
	members := inv.Groups[0].Get("members")
	if members == nil || len(members.List) != 1 || members.List[0].Get("address").Text() != "11 22 33 1" {
		t.Fatalf("unexpected members: %s", members)
	}

	device, err := client.Device(ctx, "Kitchen Light")
	if err != nil {
		t.Fatalf("Device: %v", err)
	}
	if device.Address() != "11 22 33 1" {
		t.Fatalf("unexpected device address: %s", device.Address())
	}
	if state := device.State(); state == nil || state.Get("rawvalue").Text() != "255" {
		t.Fatalf("unexpected device state: %s", state)
	}
	if err := device.OnLevel(ctx, 100); err != nil {
		t.Fatalf("OnLevel: %v", err)
	}
	if err := device.Off(ctx); err != nil {
		t.Fatalf("Off: %v", err)
	}

	scene, err := client.Scene(ctx, "22822")
	if err != nil {
		t.Fatalf("Scene: %v", err)
	}
	if scene.Name() != "Evening Scene" {
		t.Fatalf("unexpected scene name: %s", scene.Name())
	}
	if err := scene.On(ctx); err != nil {
		t.Fatalf("scene On: %v", err)
	}

	program, err := client.Program(ctx, "Night Mode")
	if err != nil {
		t.Fatalf("Program: %v", err)
	}
	if program.ID() != "0012" {
		t.Fatalf("unexpected program id: %s", program.ID())
	}
	if !program.Enabled() || !program.Status() {
		t.Fatalf("unexpected program flags: enabled=%v status=%v", program.Enabled(), program.Status())
	}
	lastRun, ok := program.LastRunTime()
	if !ok {
		t.Fatalf("expected a last run time")
	}
	want := time.Date(2024, 6, 1, 21, 5, 3, 0, time.UTC)
	if !lastRun.Equal(want) {
		t.Fatalf("unexpected last run time: %s", lastRun)
	}
	if !program.Record().Get("nextScheduledRunTime").IsNull() {
		t.Fatalf("expected null nextScheduledRunTime, got %s", program.Record().Get("nextScheduledRunTime"))
	}
	if err := program.RunThen(ctx); err != nil {
		t.Fatalf("RunThen: %v", err)
	}

	failing, err := client.Program(ctx, "Away Mode")
	if err != nil {
		t.Fatalf("Program: %v", err)
	}
	var cmdErr CommandError
	if err := failing.Run(ctx); !errors.As(err, &cmdErr) {
		t.Fatalf("expected CommandError, got %v", err)
	}
	if cmdErr.Target != "004A" || cmdErr.Cmd != "run" {
		t.Fatalf("unexpected command error: %+v", cmdErr)
	}

	var nfErr NotFoundError
	if _, err := client.Device(ctx, "basement"); !errors.As(err, &nfErr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	// Folders match by name but never resolve to a runnable program.
	if _, err := client.Program(ctx, "My Programs"); !errors.As(err, &nfErr) {
		t.Fatalf("expected NotFoundError for folder, got %v", err)
	}

	wantCommands := []string{
		"/rest/nodes/11%2022%2033%201/cmd/DON/255",
		"/rest/nodes/11%2022%2033%201/cmd/DOF",
		"/rest/nodes/22822/cmd/DON",
		"/rest/programs/0012/runThen",
		"/rest/programs/004A/run",
	}
	if len(commands) != len(wantCommands) {
		t.Fatalf("unexpected commands: %v", commands)
	}
	for i, want := range wantCommands {
		if commands[i] != want {
			t.Fatalf("command %d: expected %s, got %s", i, want, commands[i])
		}
	}
}

func TestClientHTTPStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "controller busy", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := NewClient(Config{
		Host:     strings.TrimPrefix(server.URL, "http://"),
		Username: "admin",
		Password: "hub-secret",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	var httpErr HTTPStatusError
	if _, err := client.Inventory(context.Background()); !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPStatusError, got %v", err)
	}
	if httpErr.Status != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status: %d", httpErr.Status)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{Username: "admin"}); err == nil {
		t.Fatalf("expected error for missing host")
	}
	if _, err := NewClient(Config{Host: "isy.local"}); err == nil {
		t.Fatalf("expected error for missing username")
	}
}

func assertAuth(t *testing.T, r *http.Request) {
	t.Helper()
	username, password, ok := r.BasicAuth()
	if !ok || username != "admin" || password != "hub-secret" {
		t.Fatalf("unexpected credentials: %s / %s", username, password)
	}
}
