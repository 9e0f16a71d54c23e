// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	log "github.com/sirupsen/logrus"
)

// enumerateDevices captures a snapshot of every physical device.
// limit caps the number of devices accepted, 0 means no cap.
func enumerateDevices(commands InstanceCommands, limit int) ([]PhysicalDeviceInfo, error) {
	handles, err := enumeratePhysicalDevices(commands, limit)
	if err != nil {
		return nil, err
	}
	devices := make([]PhysicalDeviceInfo, 0, len(handles))
	for _, dev := range handles {
		info, err := newPhysicalDeviceInfo(commands, dev)
		if err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{
			"name":   info.Properties.Name,
			"type":   info.Properties.Type,
			"queues": len(info.QueueFamilies),
		}).Debug("physical device captured")
		devices = append(devices, info)
	}
	return devices, nil
}

func enumeratePhysicalDevices(commands InstanceCommands, limit int) ([]Handle, error) {
	var count uint32
	if err := check("vkEnumeratePhysicalDevices", commands.EnumeratePhysicalDevices(&count, nil)); err != nil {
		return nil, err
	}
	if limit > 0 && int(count) > limit {
		return nil, &CapacityError{Limit: limit, Reported: int(count)}
	}
	if count == 0 {
		return nil, nil
	}

	handles := make([]Handle, count)
	if err := check("vkEnumeratePhysicalDevices", commands.EnumeratePhysicalDevices(&count, handles)); err != nil {
		return nil, err
	}
	// The driver may report fewer devices on the second call, never more.
	return handles[:count], nil
}

func newPhysicalDeviceInfo(commands InstanceCommands, dev Handle) (PhysicalDeviceInfo, error) {
	families, err := queueFamilies(commands, dev)
	if err != nil {
		return PhysicalDeviceInfo{}, err
	}
	extensions, err := deviceExtensions(commands, dev)
	if err != nil {
		return PhysicalDeviceInfo{}, err
	}
	return PhysicalDeviceInfo{
		Device:        dev,
		Properties:    commands.PhysicalDeviceProperties(dev),
		QueueFamilies: families,
		Memory:        commands.MemoryProperties(dev),
		Features:      commands.Features(dev),
		Extensions:    extensions,
	}, nil
}

func queueFamilies(commands InstanceCommands, dev Handle) ([]QueueFamily, error) {
	var count uint32
	commands.QueueFamilyProperties(dev, &count, nil)
	families := make([]QueueFamily, count)
	filled := count
	if count > 0 {
		commands.QueueFamilyProperties(dev, &filled, families)
	}
	if filled != count {
		return nil, &MismatchError{
			Op:      "vkGetPhysicalDeviceQueueFamilyProperties",
			Device:  dev,
			Counted: count,
			Filled:  filled,
		}
	}
	return families, nil
}

func deviceExtensions(commands InstanceCommands, dev Handle) ([]string, error) {
	var count uint32
	if err := check("vkEnumerateDeviceExtensionProperties", commands.DeviceExtensions(dev, &count, nil)); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	names := make([]string, count)
	filled := count
	if err := check("vkEnumerateDeviceExtensionProperties", commands.DeviceExtensions(dev, &filled, names)); err != nil {
		return nil, err
	}
	if filled != count {
		return nil, &MismatchError{
			Op:      "vkEnumerateDeviceExtensionProperties",
			Device:  dev,
			Counted: count,
			Filled:  filled,
		}
	}
	return names, nil
}
