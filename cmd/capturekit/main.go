// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli"
	"go.uber.org/zap/zapcore"

	"github.com/capturekit/capturekit/internal/capture"
	"github.com/capturekit/capturekit/pkg/log"
	"github.com/capturekit/capturekit/pkg/util/paramtable"
)

const componentsKey = "components"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "dev"

type metadata struct {
	components *capture.Components
	verbose    bool
	w          io.Writer
}

func main() {
	app := cli.NewApp()
	app.Name = "capturekit"
	app.Usage = "load, rotate and transfer captured documents"
	app.Version = version
	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr
	app.Flags = []cli.Flag{
		cli.StringSliceFlag{
			Name:  "config, c",
			Usage: " yaml config `FILE`, later files win",
		},
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: " debug logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "warm",
			Usage:     "load documents into the data and photo caches",
			ArgsUsage: "URI...",
			Action:    runWarm,
		},
		{
			Name:      "transfer",
			Usage:     "send a document through the size limited boundary and back",
			ArgsUsage: "URI",
			Action:    runTransfer,
		},
		{
			Name:      "rotate",
			Usage:     "rotate documents and write them back",
			ArgsUsage: "URI...",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "degrees, d",
					Value: 90,
					Usage: " clockwise rotation, a multiple of 90 `DEGREES`",
				},
			},
			Action: runRotate,
		},
		{
			Name:  "metrics",
			Usage: "serve prometheus metrics",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "listen, l",
					Value: ":9091",
					Usage: " listen on `HOST:PORT`",
				},
			},
			Action: runMetrics,
		},
	}

	app.Before = func(c *cli.Context) error {
		paramtable.Init(c.GlobalStringSlice("config")...)
		params := paramtable.Get()
		if err := capture.InitLogger(params); err != nil {
			return err
		}
		verbose := c.GlobalBool("verbose")
		if verbose {
			log.SetLevel(zapcore.DebugLevel)
		}

		components, err := capture.NewComponents(params)
		if err != nil {
			return err
		}
		c.App.Metadata[componentsKey] = &metadata{
			components: components,
			verbose:    verbose,
			w:          c.App.Writer,
		}
		return nil
	}

	app.After = func(c *cli.Context) error {
		m, ok := c.App.Metadata[componentsKey].(*metadata)
		if !ok {
			return nil
		}
		m.components.Close()
		return log.Sync()
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(app.ErrWriter, "terminated with error: %s\n", err)
		os.Exit(1)
	}
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}
