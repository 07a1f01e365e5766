// Copyright 2025 The VLReflow Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vlreflow/oven/control"
)

type pidConfig struct {
	KP float64 `yaml:"kp"`
	KI float64 `yaml:"ki"`
	KD float64 `yaml:"kd"`
}

type config struct {
	// SerialPort is the console transport; empty means stdio.
	SerialPort  string    `yaml:"serial_port"`
	Baud        int       `yaml:"baud"`
	StorePath   string    `yaml:"store_path"`
	StoreSize   int       `yaml:"store_size"`
	MetricsAddr string    `yaml:"metrics_addr"`
	SPIPort     string    `yaml:"spi_port"`
	SSRPin      string    `yaml:"ssr_pin"`
	PID         pidConfig `yaml:"pid"`
}

func defaultConfig() config {
	return config{
		Baud:        115200,
		StorePath:   "oven.eeprom",
		StoreSize:   4096,
		MetricsAddr: ":9090",
		SPIPort:     "",
		SSRPin:      "GPIO17",
		PID:         pidConfig{KP: control.DefaultKP, KI: control.DefaultKI, KD: control.DefaultKD},
	}
}

func loadConfig(path string, c *config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("config %s: %v", path, err)
	}
	return nil
}
