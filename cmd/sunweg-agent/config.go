// SPDX-FileCopyrightText: 2025 SunWEG Agent Contributors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/goschtalt/goschtalt"
	_ "github.com/goschtalt/goschtalt/pkg/typical"
	_ "github.com/goschtalt/properties-decoder"
	_ "github.com/goschtalt/yaml-decoder"
	_ "github.com/goschtalt/yaml-encoder"
	"github.com/xmidt-org/arrange/arrangehttp"
	"github.com/xmidt-org/retry"
	"github.com/xmidt-org/sallust"
	"gopkg.in/dealancer/validate.v2"

	"github.com/sunweg-labs/sunweg-agent/internal/configuration"
)

//go:embed default-config.yaml
var defaultConfigFile []byte

// Config is the configuration for the sunweg-agent.
type Config struct {
	Website   Website
	Poller    Poller
	Telemetry Telemetry
	Mqtt      Mqtt
	Logger    sallust.Config
	Externals []configuration.External
}

// Website contains everything needed to talk to the SunWEG platform.
type Website struct {
	// URL is the base URL of the SunWEG API.
	URL string

	// Username and Password are the portal credentials.  These are
	// usually supplied through an external secrets file.
	Username string
	Password string

	// PlantID selects the plant whose per plant values are exported.
	// An unknown id falls back to the first plant the account can see.
	PlantID string

	// PlantName overrides the plant name used in labels.  When empty
	// the name reported by the platform is used.
	PlantName string

	// LoginPath overrides the authentication endpoint path.
	LoginPath string

	// UserAgent overrides the User-Agent header sent to the platform.
	UserAgent string

	// TokenTTL is how long an issued token is assumed to stay valid.
	TokenTTL time.Duration

	// ExpiryMargin renews the token this much before TokenTTL is up.
	ExpiryMargin time.Duration

	// HTTPClient is the configuration for the HTTP client used to talk
	// to the platform.
	HTTPClient arrangehttp.ClientConfig
}

// Poller controls the collection schedule.
type Poller struct {
	// Interval is the time between successful collection cycles.
	Interval time.Duration

	// FetchTimeout bounds a single collection cycle.
	FetchTimeout time.Duration

	// RetryPolicy sets the retry policy used for delaying between
	// retries after transport failures.
	RetryPolicy retry.Config
}

// Telemetry configures the HTTP endpoint serving Prometheus metrics
// and the admin handlers.
type Telemetry struct {
	// Disable turns the telemetry endpoint off.
	Disable bool

	// Address is the listen address, like ":9578".
	Address string
}

// Mqtt configures the Home Assistant MQTT publisher.  An empty broker
// URL disables publishing.
type Mqtt struct {
	// Broker is the MQTT broker URL (mqtt://, mqtts:// or ssl://).
	Broker string

	// Username and Password authenticate against the broker.
	Username string
	Password string

	// DeviceID is the stable identifier used in topics and in the HA
	// device registry.
	DeviceID string

	// DeviceName is the human readable name shown in the HA UI.
	DeviceName string

	// DiscoveryPrefix overrides the HA discovery topic prefix.
	DiscoveryPrefix string

	// PublishInterval is the time between state publishes.
	PublishInterval time.Duration
}

// Collect and process the configuration files and env vars and
// produce a configuration object.
func provideConfig(cli *CLI) (*goschtalt.Config, error) {
	gs, err := goschtalt.New(
		goschtalt.StdCfgLayout(applicationName, cli.Files...),
		goschtalt.ConfigIs("two_words"),
		goschtalt.DefaultUnmarshalOptions(
			goschtalt.WithValidator(
				goschtalt.ValidatorFunc(validate.Validate),
			),
		),
		// Seed the program with the default, built-in configuration
		goschtalt.AddBuffer("!built-in.yaml", defaultConfigFile, goschtalt.AsDefault()),
	)
	if err != nil {
		return nil, err
	}

	// Externals are a list of individually processed external configuration
	// files.  Each external configuration file is processed and the resulting
	// map is used to populate the configuration.
	//
	// This is done after the initial configuration has been calculated because
	// the external configurations are listed in the configuration.
	if err = configuration.Apply(gs, "externals", false); err != nil {
		return nil, err
	}

	if cli.Default != "" {
		err := os.WriteFile("./"+cli.Default, defaultConfigFile, 0644) // nolint: gosec
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(-1)
		}
		os.Exit(0)
	}

	if cli.Show {
		// The configuration is shown, then the program exits.
		//
		// Exit with success because if the configuration is broken it will be
		// very hard to debug where the problem originates.  This way you can
		// see the configuration and then run the service with the same
		// configuration to see the error.
		fmt.Fprintln(os.Stdout, gs.Explain().String())

		out, err := gs.Marshal()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
		} else {
			fmt.Fprintln(os.Stdout, "## Final Configuration\n---\n"+string(out))
		}

		os.Exit(0)
	}

	var tmp Config
	err = gs.Unmarshal(goschtalt.Root, &tmp)
	if err != nil {
		fmt.Fprintln(os.Stderr, "There is a critical error in the configuration.")
		fmt.Fprintln(os.Stderr, "Run with -s/--show to see the configuration.")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		// Exit here to prevent a very difficult to debug error from occurring.
		os.Exit(0)
	}

	return gs, nil
}
