// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/devblok/koruhal/core"
)

type deviceReport struct {
	Index      int               `json:"index"`
	Preferred  bool              `json:"preferred"`
	Name       string            `json:"name"`
	Type       string            `json:"type"`
	API        string            `json:"api"`
	Driver     uint32            `json:"driver_version"`
	VendorID   uint32            `json:"vendor_id"`
	DeviceID   uint32            `json:"device_id"`
	Memory     uint64            `json:"device_local_memory"`
	Queues     []queueReport     `json:"queue_families"`
	Features   []string          `json:"features"`
	Extensions []string          `json:"extensions"`
	Limits     core.Limits       `json:"limits"`
	Heaps      []core.MemoryHeap `json:"heaps"`
	Types      []core.MemoryType `json:"memory_types"`
}

type queueReport struct {
	Flags string `json:"flags"`
	Count uint32 `json:"count"`
}

func newDevicesCmd(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List physical devices and their capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := &session{}
			defer s.close()

			backend, err := opts.bootstrap(s)
			if err != nil {
				return err
			}
			reports := newDeviceReports(backend)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(reports)
			}
			return printDevices(cmd.OutOrStdout(), backend.DriverName(), reports)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the capability snapshots as JSON")
	return cmd
}

func newDeviceReports(backend *core.Backend) []deviceReport {
	preferred, _, err := backend.PreferredDevice()
	if err != nil {
		preferred = -1
	}
	devices := backend.Devices()
	reports := make([]deviceReport, 0, len(devices))
	for i, d := range devices {
		major, minor, patch := core.SplitVersion(d.Properties.APIVersion)
		r := deviceReport{
			Index:      i,
			Preferred:  i == preferred,
			Name:       d.Properties.Name,
			Type:       d.Properties.Type.String(),
			API:        fmt.Sprintf("%d.%d.%d", major, minor, patch),
			Driver:     d.Properties.DriverVersion,
			VendorID:   d.Properties.VendorID,
			DeviceID:   d.Properties.DeviceID,
			Memory:     d.Memory.DeviceLocalSize(),
			Features:   d.Features.Enabled(),
			Extensions: d.Extensions,
			Limits:     d.Properties.Limits,
			Heaps:      d.Memory.Heaps,
			Types:      d.Memory.Types,
		}
		for _, q := range d.QueueFamilies {
			r.Queues = append(r.Queues, queueReport{Flags: q.Flags.String(), Count: q.Count})
		}
		reports = append(reports, r)
	}
	return reports
}

func printDevices(out io.Writer, driver string, reports []deviceReport) error {
	if len(reports) == 0 {
		_, err := fmt.Fprintf(out, "%s: no physical devices\n", driver)
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\tINDEX\tNAME\tTYPE\tAPI\tMEMORY\tQUEUES")
	for _, r := range reports {
		mark := ""
		if r.Preferred {
			mark = "*"
		}
		queues := make([]string, 0, len(r.Queues))
		for _, q := range r.Queues {
			queues = append(queues, fmt.Sprintf("%s x%d", q.Flags, q.Count))
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%d MiB\t%s\n",
			mark, r.Index, r.Name, r.Type, r.API, r.Memory>>20, strings.Join(queues, ", "))
	}
	return w.Flush()
}
