package cmd

import (
	_ "embed"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/traffic-sim/sim"
)

//go:embed demo_network.yaml
var demoNetworkYAML []byte

// loadDescription reads the network description at path, or the built-in
// demo network when path is empty.
func loadDescription(path string) (*sim.NetworkDescription, error) {
	if path == "" {
		logrus.Infof("no --config given, using the built-in demo network")
		return sim.ParseNetworkDescription(demoNetworkYAML)
	}
	return sim.LoadNetworkDescription(path)
}
