// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The goccp authors

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ecukit/goccp/pkg/ccp"
)

// elementConfig is one measurement signal in the profile file.
type elementConfig struct {
	Name      string  `mapstructure:"name"`
	Address   uint32  `mapstructure:"address"`
	Extension uint8   `mapstructure:"extension"`
	Size      uint8   `mapstructure:"size"`
	Signed    bool    `mapstructure:"signed"`
	Float     bool    `mapstructure:"float"`
	Scale     float64 `mapstructure:"scale"`
	Offset    float64 `mapstructure:"offset"`
}

// initConfig loads the optional profile file and lets it supply
// defaults for any flag the user did not pass on the command line.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("goccp")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/goccp")
	}
	viper.SetEnvPrefix("GOCCP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil // profile is optional
		}
		return fmt.Errorf("read config: %w", err)
	}

	applyProfileDefaults()
	return nil
}

// applyProfileDefaults copies profile values into flag variables that
// still hold their defaults. Explicit flags always win.
func applyProfileDefaults() {
	f := rootCmd.PersistentFlags()
	setString := func(flag, key string, dst *string) {
		if !f.Changed(flag) && viper.IsSet(key) {
			*dst = viper.GetString(key)
		}
	}
	setInt := func(flag, key string, dst *int) {
		if !f.Changed(flag) && viper.IsSet(key) {
			*dst = viper.GetInt(key)
		}
	}

	setString("interface", "bus.interface", &canIface)
	setString("port", "bus.port", &portName)
	setInt("baud", "bus.baud", &serialBaud)
	setInt("bitrate", "bus.bitrate", &canBitrate)
	setString("url", "bus.url", &wsURL)
	setString("username", "bus.username", &wsUsername)
	if !f.Changed("no-ssl-verify") && viper.IsSet("bus.no_ssl_verify") {
		wsNoSSLVerify = viper.GetBool("bus.no_ssl_verify")
	}

	if !f.Changed("cro-id") && viper.IsSet("ccp.cro_id") {
		croID = viper.GetUint32("ccp.cro_id")
	}
	if !f.Changed("dto-id") && viper.IsSet("ccp.dto_id") {
		dtoID = viper.GetUint32("ccp.dto_id")
	}
	if !f.Changed("station") && viper.IsSet("ccp.station_address") {
		stationAddress = uint16(viper.GetUint32("ccp.station_address"))
	}
	if !f.Changed("extended") && viper.IsSet("ccp.extended_ids") {
		extendedIDs = viper.GetBool("ccp.extended_ids")
	}
}

// loadElements reads the profile's element list, the signals a DAQ
// session acquires.
func loadElements() ([]ccp.Element, error) {
	var configs []elementConfig
	if err := viper.UnmarshalKey("elements", &configs); err != nil {
		return nil, fmt.Errorf("parse elements: %w", err)
	}
	if len(configs) == 0 {
		return nil, fmt.Errorf("no elements in profile (set them under the 'elements' key, or pass --config)")
	}

	elements := make([]ccp.Element, len(configs))
	for i, c := range configs {
		e := ccp.Element{
			Name:      c.Name,
			Address:   c.Address,
			Extension: c.Extension,
			Size:      c.Size,
			Signed:    c.Signed,
			Float:     c.Float,
			Scale:     c.Scale,
			Offset:    c.Offset,
		}
		if e.Name == "" {
			return nil, fmt.Errorf("element %d has no name", i)
		}
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("element %s: %w", e.Name, err)
		}
		elements[i] = e
	}
	return elements, nil
}
