package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/Comcast/netparse/core"
	"github.com/Comcast/netparse/interpreters"
	"github.com/Comcast/netparse/util"
)

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.LUTC)
}

func evaluator(name string) (core.Evaluator, error) {
	return interpreters.Find(name)
}

func main() {

	var (
		configFile = flag.String("c", "", "optional TOML configuration file")
		httpPort   = flag.String("h", "", "control plane (HTTP) service port")
		websockets = flag.Bool("w", false, "start WebSockets service")
		rulesDir   = flag.String("r", "", "directory of rule documents")
		evName     = flag.String("e", "", "expression evaluator")
		dbFile     = flag.String("p", "", "optional bbolt filename for facts")
		broker     = flag.String("m", "", "optional MQTT broker (tcp://host:port)")
		timeout    = flag.Duration("t", 0, "parse timeout")
		verbose    = flag.Bool("v", false, "verbose logging")
	)

	flag.Parse()

	cfg, err := LoadConfig(*configFile)
	if err != nil {
		log.Fatal(err)
	}

	// Explicit flags override the configuration file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "h":
			cfg.HTTP = *httpPort
		case "w":
			cfg.WebSockets = *websockets
		case "r":
			cfg.Rules = *rulesDir
		case "e":
			cfg.Evaluator = *evName
		case "p":
			cfg.DB = *dbFile
		case "m":
			cfg.MQTT.Broker = *broker
		case "t":
			cfg.Timeout.Duration = *timeout
		case "v":
			cfg.Verbose = *verbose
		}
	})

	util.Logging = cfg.Verbose

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	s, err := NewService(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close(ctx)

	if cfg.MQTT.Broker != "" {
		c := NewMQTTCouplings(ctx, cfg.MQTT, s)
		if err = c.Start(ctx); err != nil {
			log.Fatal(err)
		}
		defer c.Stop(ctx)
	}

	if cfg.HTTP != "" {
		go func() {
			if err := s.HTTPServer(ctx, cfg.HTTP, cfg.WebSockets); err != nil {
				log.Printf("HTTP server: %v", err)
				cancel()
			}
		}()
	}

	<-ctx.Done()

	log.Printf("main terminating")
}
