// Package main is the process entrypoint: it loads configuration, stands
// up metrics reporting, wires the offer processor (C4) and reconciler
// (C5) to a concrete Mesos v1 driver, and campaigns for leadership.
// Grounded on the upstream QueueRunner.run()/FrameworkRunner bootstrap
// sequence and on cmd/jobmgr/main.go's kingpin flag shape.
package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"github.com/dcos/scheduler-core/background"
	"github.com/dcos/scheduler-core/clock"
	"github.com/dcos/scheduler-core/config"
	"github.com/dcos/scheduler-core/driver"
	"github.com/dcos/scheduler-core/framework"
	"github.com/dcos/scheduler-core/leader"
	"github.com/dcos/scheduler-core/mesosapi"
	"github.com/dcos/scheduler-core/mesosdriver"
	"github.com/dcos/scheduler-core/metrics"
	"github.com/dcos/scheduler-core/offer"
	"github.com/dcos/scheduler-core/reconcile"
	"github.com/dcos/scheduler-core/statestore"
)

const appName = "scheduler-core"

var (
	version string
	app     = kingpin.New(appName, "Cluster resource scheduler core")

	debug = app.Flag(
		"debug", "enable debug logging").
		Short('d').
		Default("false").
		Envar("ENABLE_DEBUG_LOGGING").
		Bool()

	cfgFiles = app.Flag(
		"config",
		"YAML config files (can be provided multiple times to merge configs)").
		Short('c').
		Required().
		ExistingFiles()

	httpPort = app.Flag(
		"http-port", "port the /health and /metrics endpoints listen on "+
			"(http_port override) (set $PORT to override)").
		Envar("PORT").
		Int()

	zkServers = app.Flag(
		"election-zk-server",
		"election Zookeeper servers; may be given multiple times "+
			"(election.zk_servers override) (set $ELECTION_ZK_SERVERS to override)").
		Envar("ELECTION_ZK_SERVERS").
		Strings()

	mesosMaster = app.Flag(
		"mesos-master", "Mesos master host:port (mesos.master override) "+
			"(set $MESOS_MASTER to override)").
		Envar("MESOS_MASTER").
		String()
)

// Config is the top-level process configuration, merged from cfgFiles and
// then overridden by flags/env vars above.
type Config struct {
	HTTPPort int                   `yaml:"http_port"`
	Metrics  metrics.Config        `yaml:"metrics"`
	Election leader.ElectionConfig `yaml:"election"`
	Mesos    mesosdriver.Config    `yaml:"mesos"`
}

func main() {
	app.Version(version)
	app.HelpFlag.Short('h')
	kingpin.MustParse(app.Parse(os.Args[1:]))

	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	var cfg Config
	if err := config.Parse(&cfg, *cfgFiles...); err != nil {
		log.WithError(err).Fatal("scheduler-core: failed to load configuration")
	}
	if *httpPort != 0 {
		cfg.HTTPPort = *httpPort
	}
	if len(*zkServers) > 0 {
		cfg.Election.ZKServers = *zkServers
	}
	if *mesosMaster != "" {
		cfg.Mesos.Master = *mesosMaster
	}

	rootScope, scopeCloser, mux := metrics.Init(&cfg.Metrics, appName, time.Second)
	defer scopeCloser.Close()
	go func() {
		addr := ":" + itoa(cfg.HTTPPort)
		log.WithField("addr", addr).Info("scheduler-core: serving /health and /metrics")
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.WithError(err).Error("scheduler-core: http server exited")
		}
	}()

	mesosClient := mesosdriver.New(&cfg.Mesos)

	// The placement/evaluation algorithm is a deployment-specific
	// collaborator; until one is wired in, offers are declined so the
	// process is safe to run standalone.
	evalClient := declineAllClient{}

	processor := offer.New(evalClient, mesosClient, rootScope.SubScope("offer"))
	reconciler := reconcile.New(statestore.NewFixture(), mesosClient, clock.Real{}, rootScope.SubScope("reconcile"))

	backgroundMgr, err := background.NewManager()
	if err != nil {
		log.WithError(err).Fatal("scheduler-core: failed to create background manager")
	}

	candidateID := leader.NewID(cfg.HTTPPort, 0)

	runner, err := framework.NewRunner(processor, reconciler, backgroundMgr, candidateID)
	if err != nil {
		log.WithError(err).Fatal("scheduler-core: failed to create framework runner")
	}

	candidate, err := leader.NewCandidate(cfg.Election, rootScope, appName, runner)
	if err != nil {
		log.WithError(err).Fatal("scheduler-core: failed to create leader candidate")
	}

	go runMesosEventLoop(mesosClient, runner)

	if err := candidate.Start(); err != nil {
		log.WithError(err).Fatal("scheduler-core: failed to start leader election")
	}

	select {}
}

// runMesosEventLoop subscribes to the Mesos master and feeds inbound
// events to runner, resubscribing after a fixed ShortDeclineInterval pause
// whenever the stream ends. It registers the process-wide driver handle
// once, before the first subscribe attempt, whether or not that attempt
// succeeds.
func runMesosEventLoop(mesosClient *mesosdriver.Client, runner *framework.Runner) {
	registered := false
	for {
		if !registered {
			framework.RegisterDriver(mesosClient)
			registered = true
		}
		if err := mesosClient.Run(context.Background(), runner); err != nil {
			log.WithError(err).Warn("scheduler-core: mesos event stream ended, reconnecting")
		}
		time.Sleep(driver.ShortDeclineInterval)
	}
}

// declineAllClient is the default MesosEventClient: it declines every
// offer and reports no unexpected resources. A real deployment replaces
// this with an evaluator composed over plan.Plan.
type declineAllClient struct{}

func (declineAllClient) Offers(offers []mesosapi.Offer) offer.OfferResponse {
	return offer.OfferResponse{Result: offer.ResultProcessed, UnusedOffers: offers}
}

func (declineAllClient) GetUnexpectedResources(unusedOffers []mesosapi.Offer) offer.UnexpectedResourcesResponse {
	return offer.UnexpectedResourcesResponse{Result: offer.ResultProcessed}
}

func (declineAllClient) Status(status mesosapi.TaskStatus) {}

func itoa(n int) string {
	if n == 0 {
		return "8080"
	}
	return strconv.Itoa(n)
}
