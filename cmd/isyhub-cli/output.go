package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/davecgh/go-spew/spew"

	"isyhub/internal/xmldict"
)

type outputMode struct {
	json bool
}

func (o outputMode) printJSON(value any) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		fatal("format json", err)
	}
	fmt.Println(string(data))
}

func (o outputMode) table(rows [][]string) {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintln(w, joinRow(row))
	}
	_ = w.Flush()
}

func joinRow(row []string) string {
	if len(row) == 0 {
		return ""
	}
	out := row[0]
	for i := 1; i < len(row); i++ {
		out += "\t" + row[i]
	}
	return out
}

func printOK(out outputMode, kind, ref, action string) {
	if out.json {
		out.printJSON(map[string]string{"kind": kind, "ref": ref, "action": action, "status": "ok"})
		return
	}
	fmt.Printf("ok: %s %s %s\n", kind, ref, action)
}

// stateOf renders a device record's current ST property for tables,
// preferring the controller's formatted value.
func stateOf(rec *xmldict.Node) string {
	properties := rec.Get("properties")
	if properties == nil {
		return ""
	}
	for _, prop := range properties.List {
		if prop.Get("id").Text() != "ST" {
			continue
		}
		if v := prop.Get("value").ScalarText(); v != "" {
			return v
		}
		return prop.Get("rawvalue").ScalarText()
	}
	return ""
}

func dumpValue(value any) {
	spew.Dump(value)
}
