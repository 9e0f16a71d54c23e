// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/koruhal/core"
	"github.com/devblok/koruhal/driver/headless"
	"github.com/devblok/koruhal/driver/vulkan"
)

// Driver names accepted by --driver.
const (
	driverVulkan    = vulkan.DriverName
	driverVulkanSDL = vulkan.SDLDriverName
	driverHeadless  = headless.DriverName
)

type options struct {
	driver     string
	library    string
	configPath string
	envFile    string
	logLevel   string

	configuration core.Configuration
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "koru",
		Short:         "Graphics backend bootstrap and frame driver",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.driver, "driver", driverVulkan, "driver binding: vulkan|vulkan-sdl|headless")
	flags.StringVar(&opts.library, "library", "", "driver library to open, defaults to the platform loader")
	flags.StringVar(&opts.configPath, "config", "", "configuration file (.toml, .yaml or .json)")
	flags.StringVar(&opts.envFile, "env-file", "", "dotenv file loaded before the configuration")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level: debug|info|warn|error")

	root.AddCommand(newDevicesCmd(opts), newRunCmd(opts))
	return root
}

func (o *options) load() error {
	level, err := log.ParseLevel(o.logLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	if o.envFile != "" {
		if err := core.LoadEnvFile(o.envFile); err != nil {
			return fmt.Errorf("env file: %s", err)
		}
	}
	cfg, err := core.LoadConfiguration(o.configPath)
	if err != nil {
		return fmt.Errorf("configuration: %s", err)
	}
	o.configuration = cfg
	return nil
}

// session keeps what has to be released when a command returns.
type session struct {
	cleanups []func()
	sdl      bool
}

func (s *session) onClose(f func()) {
	s.cleanups = append(s.cleanups, f)
}

func (s *session) close() {
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		s.cleanups[i]()
	}
	s.cleanups = nil
}

func (s *session) initSDL() error {
	if s.sdl {
		return nil
	}
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("sdl.Init(): %s", err)
	}
	s.sdl = true
	s.onClose(sdl.Quit)
	return nil
}

func (o *options) newDriver(s *session) (core.Driver, error) {
	switch o.driver {
	case driverVulkan:
		return vulkan.New(o.library), nil
	case driverVulkanSDL:
		if err := s.initSDL(); err != nil {
			return nil, err
		}
		return vulkan.NewSDL(), nil
	case driverHeadless:
		return headless.New(
			headless.NewDevice("Koru Headless Integrated", core.DeviceTypeIntegratedGPU),
			headless.NewDevice("Koru Headless Discrete", core.DeviceTypeDiscreteGPU),
		), nil
	default:
		return nil, fmt.Errorf("unknown driver %q", o.driver)
	}
}

// bootstrap creates the backend, which is destroyed when s is closed.
func (o *options) bootstrap(s *session) (*core.Backend, error) {
	drv, err := o.newDriver(s)
	if err != nil {
		return nil, err
	}
	info, err := o.configuration.Application.ApplicationInfo()
	if err != nil {
		return nil, err
	}
	backend, err := core.Create(drv, info, o.configuration.Backend)
	if err != nil {
		return nil, err
	}
	s.onClose(func() {
		if err := backend.Destroy(); err != nil {
			log.WithError(err).Warn("backend teardown failed")
		}
	})
	return backend, nil
}
