package main

import (
	"flag"
	"net/http"

	"github.com/golang/glog"
	"github.com/prebid/prebid-beacon/config"
	"github.com/prebid/prebid-beacon/router"
	"github.com/prebid/prebid-beacon/server"
	"github.com/spf13/viper"
)

// Version is the release of this build.
var Version = "dev"

// Rev holds binary revision string
// Set manually at build time using:
//    go build -ldflags "-X main.Rev=`git rev-parse --short HEAD`"
var Rev string

func main() {
	flag.Parse() // required for glog flags and testing package flags

	cfg, err := loadConfig()
	if err != nil {
		glog.Exitf("Configuration could not be loaded or did not pass validation: %v", err)
	}

	err = serve(cfg)
	if err != nil {
		glog.Exitf("prebid-beacon failed: %v", err)
	}
}

const configFileName = "pbb"

func loadConfig() (*config.Configuration, error) {
	v := viper.New()
	config.SetupViper(v, configFileName)
	return config.New(v)
}

func serve(cfg *config.Configuration) error {
	r, err := router.New(cfg)
	if err != nil {
		return err
	}
	defer r.Shutdown()

	var handler http.Handler = r
	if cfg.EnableCORS {
		handler = router.SupportCORS(r)
	}
	return server.Listen(cfg, router.NoCache{Handler: handler}, router.Admin(Version, Rev, r.MetricsEngine), r.MetricsEngine)
}
