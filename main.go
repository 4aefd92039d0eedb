package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"strings"

	"github.com/peterbourgon/ff"
	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/dinghy-sim/api"
	"github.com/a-bouts/dinghy-sim/config"
	"github.com/a-bouts/dinghy-sim/store"
	"github.com/a-bouts/dinghy-sim/xmpp"
)

func main() {

	fs := flag.NewFlagSet("dinghy-sim", flag.ExitOnError)
	var (
		debug        = fs.Bool("debug", false, "debug logs")
		cpuprofile   = fs.Bool("cpuprofile", false, "profile the tick requests")
		addr         = fs.String("addr", ":8888", "listen address")
		scenario     = fs.String("scenario", "scenario.yaml", "scenario file")
		autostart    = fs.Bool("autostart", false, "start the clock at launch")
		record       = fs.String("record", "", "sqlite file recording the decision log")
		origins      = fs.String("cors-origins", "*", "comma separated allowed origins")
		xmppHost     = fs.String("xmpp-host", "", "")
		xmppJid      = fs.String("xmpp-jid", "", "")
		xmppPassword = fs.String("xmpp-password", "", "")
		xmppTo       = fs.String("xmpp-to", "", "")
	)
	ff.Parse(fs, os.Args[1:], ff.WithEnvVarNoPrefix())

	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	s, err := config.Load(*scenario)
	if err != nil {
		log.WithError(err).Fatal("Cannot load scenario")
	}
	c, err := s.Build()
	if err != nil {
		log.WithError(err).Fatal("Invalid scenario")
	}

	ctx := context.Background()

	if len(*record) > 0 {
		r, err := store.Open(*record)
		if err != nil {
			log.WithError(err).Fatal("Cannot open recording")
		}
		defer r.Close()
		events, unsub := c.Subscribe(ctx)
		defer unsub()
		go r.Run(ctx, events)
	}

	x := xmpp.New(xmpp.Config{Host: *xmppHost, Jid: *xmppJid, Password: *xmppPassword, To: *xmppTo})
	if x.Configured() {
		events, unsub := c.Subscribe(ctx)
		defer unsub()
		go x.Run(ctx, events)
	}

	if *autostart {
		if err := c.Start(); err != nil {
			log.WithError(err).Fatal("Cannot start simulation")
		}
	}

	router := api.InitServer(*cpuprofile, c)

	log.WithField("scenario", s.Name).Infof("Start server on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, api.Handler(router, strings.Split(*origins, ","))))
}
