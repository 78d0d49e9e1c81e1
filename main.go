package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/anicoll/localtuya-ir/cmd"
)

func main() {
	app := &cli.App{
		Name:   "localtuya-ir",
		Usage:  "exposes local tuya ir blaster buttons to home assistant",
		Action: cmd.ButtonCommand,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "devices-file",
				EnvVars: []string{"DEVICES_FILE"},
				Value:   "devices.yaml",
			},
			&cli.StringFlag{
				Name:    "mqtt-host",
				EnvVars: []string{"MQTT_HOST"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "mqtt-user",
				EnvVars: []string{"MQTT_USER"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "mqtt-pass",
				EnvVars: []string{"MQTT_PASS"},
				Value:   "",
			},
			&cli.BoolFlag{
				Name:    "bridge-ssl",
				EnvVars: []string{"BRIDGE_SSL"},
				Value:   false,
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "INFO",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
