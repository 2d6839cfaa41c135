package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alokkulkarni/agentOchestrator-sub002/pkg/api"
)

// renderHealth formats a health document for the terminal. With raw set the
// original response body is returned indented but otherwise untouched.
func renderHealth(doc api.HealthDocument, raw []byte, rawFlag bool) string {
	if rawFlag {
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return string(raw)
		}
		return buf.String()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "status: %s\n", doc.Status)
	if !doc.Timestamp.IsZero() {
		fmt.Fprintf(&b, "time:   %s\n", doc.Timestamp.Local().Format(time.RFC3339))
	}
	if len(doc.Checks) > 0 {
		w := tabwriter.NewWriter(&b, 2, 4, 2, ' ', 0)
		for _, c := range doc.Checks {
			msg := c.Message
			if msg == "" {
				msg = "-"
			}
			fmt.Fprintf(w, "  %s\t%s\t%dms\t%s\n", c.Name, c.Status, c.DurationMS, msg)
		}
		w.Flush()
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderProviders(doc api.ProvidersDocument) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tHEALTHY\tMODELS")
	for _, p := range doc.Providers {
		models := strings.Join(p.Models, ",")
		if models == "" {
			models = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", p.Name, p.Type, p.Healthy, models)
	}
	w.Flush()
	return b.String()
}

func renderStatus(project string, overall api.Status, checks []api.Check) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", project, overall)
	w := tabwriter.NewWriter(&b, 2, 4, 2, ' ', 0)
	for _, c := range checks {
		msg := c.Message
		if msg == "" {
			msg = "-"
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", statusMark(c.Status), c.Name, c.Status, msg)
	}
	w.Flush()
	return b.String()
}

func statusMark(s api.Status) string {
	switch s {
	case api.StatusHealthy:
		return "+"
	case api.StatusDegraded:
		return "~"
	case api.StatusUnknown:
		return "?"
	default:
		return "!"
	}
}
