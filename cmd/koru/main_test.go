// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

func execute(args ...string) (string, error) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestDevicesTable(t *testing.T) {
	c := qt.New(t)
	out, err := execute("devices", "--driver", "headless", "--log-level", "error")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "Koru Headless Integrated")
	c.Assert(out, qt.Contains, "graphics|compute|transfer x16")
	c.Assert(out, qt.Matches, `(?s).*\*\s+1\s+Koru Headless Discrete.*`)
}

func TestDevicesJSON(t *testing.T) {
	c := qt.New(t)
	out, err := execute("devices", "--driver", "headless", "--json", "--log-level", "error")
	c.Assert(err, qt.IsNil)

	var reports []deviceReport
	c.Assert(json.Unmarshal([]byte(out), &reports), qt.IsNil)
	c.Assert(reports, qt.HasLen, 2)
	c.Assert(reports[0].Preferred, qt.IsFalse)
	c.Assert(reports[1].Preferred, qt.IsTrue)
	c.Assert(reports[1].Type, qt.Equals, "discrete gpu")
	c.Assert(reports[1].API, qt.Equals, "1.1.0")
	c.Assert(reports[1].Memory, qt.Equals, uint64(4<<30))
	c.Assert(reports[1].Extensions, qt.DeepEquals, []string{"VK_KHR_swapchain"})
}

func TestUnknownDriver(t *testing.T) {
	c := qt.New(t)
	_, err := execute("devices", "--driver", "glide")
	c.Assert(err, qt.ErrorMatches, `unknown driver "glide"`)
}

func TestRunOffscreen(t *testing.T) {
	c := qt.New(t)
	dir := c.TempDir()
	path := filepath.Join(dir, "frame.png")
	cfg := filepath.Join(dir, "koru.yaml")
	c.Assert(os.WriteFile(cfg, []byte("window:\n  width: 64\n  height: 48\n"), 0o644), qt.IsNil)

	_, err := execute("run", "--driver", "headless", "--config", cfg,
		"--frames", "3", "--fps", "0", "--png", path, "--log-level", "error")
	c.Assert(err, qt.IsNil)

	f, err := os.Open(path)
	c.Assert(err, qt.IsNil)
	defer f.Close()
	img, err := png.Decode(f)
	c.Assert(err, qt.IsNil)
	c.Assert(img.Bounds().Dx(), qt.Equals, 64)
	c.Assert(img.Bounds().Dy(), qt.Equals, 48)
}

func TestRunUnknownWindow(t *testing.T) {
	c := qt.New(t)
	_, err := execute("run", "--driver", "headless", "--frames", "1", "--window", "x11", "--log-level", "error")
	c.Assert(err, qt.ErrorMatches, `unknown window "x11"`)
}

func TestBootstrapFailureIsReported(t *testing.T) {
	c := qt.New(t)
	_, err := execute("devices", "--driver", "vulkan", "--library", "libkoru_does_not_exist.so.0", "--log-level", "error")
	c.Assert(err, qt.ErrorMatches, "driver library libkoru_does_not_exist.so.0: .*")
}
