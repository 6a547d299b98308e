package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/code-payments/pda-provisioner/pkg/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		logrus.StandardLogger().WithField("type", "provisioner").WithError(err).Error("command failed")
		os.Exit(1)
	}
}
