package xmpp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"

	"github.com/a-bouts/dinghy-sim/sim"
	"github.com/mattn/go-xmpp"
	log "github.com/sirupsen/logrus"
)

var ErrNotConfigured = errors.New("missing xmpp config")

type (
	// Config of the account sending the race messages.
	Config struct {
		Host     string
		Jid      string
		Password string
		To       string
	}

	Xmpp struct {
		Config Config
		// send is replaced in tests.
		send func(text string) error
	}
)

func New(c Config) *Xmpp {
	x := &Xmpp{Config: c}
	x.send = x.chat
	return x
}

func (x *Xmpp) Configured() bool {
	return len(x.Config.Jid) > 0 && len(x.Config.Password) > 0 && len(x.Config.To) > 0
}

func serverName(jid string) string {
	parts := strings.Split(jid, "@")
	return parts[len(parts)-1]
}

func (x *Xmpp) Send(message string) error {
	if !x.Configured() {
		return ErrNotConfigured
	}
	return x.send(message)
}

func (x *Xmpp) chat(message string) error {
	host := x.Config.Host
	if len(host) == 0 {
		host = serverName(x.Config.Jid)
	}

	xmpp.DefaultConfig = tls.Config{
		ServerName: strings.Split(host, ":")[0],
	}

	options := xmpp.Options{
		Host:          host,
		User:          x.Config.Jid,
		Password:      x.Config.Password,
		NoTLS:         true,
		StartTLS:      true,
		Debug:         false,
		Session:       false,
		Status:        "xa",
		StatusMessage: "Race committee",
	}

	log.WithField("host", host).Debug("Create xmpp client")
	talk, err := options.NewClient()
	if err != nil {
		return err
	}
	defer talk.Close()

	_, err = talk.Send(xmpp.Chat{Remote: x.Config.To, Type: "chat", Text: message})
	return err
}

// Finishes returns one message per boat finishing in the event.
func Finishes(ev sim.Event) []string {
	var messages []string
	for _, id := range ev.Finished {
		messages = append(messages, fmt.Sprintf("%s finished after %s", id, duration(ev.Seconds)))
	}
	return messages
}

func duration(seconds float64) string {
	s := int(seconds)
	return fmt.Sprintf("%dm%02ds", s/60, s%60)
}

// Run sends the finish messages of the events until the channel is closed or ctx is done.
func (x *Xmpp) Run(ctx context.Context, events <-chan sim.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			for _, m := range Finishes(ev) {
				if err := x.Send(m); err != nil {
					log.WithError(err).Warn("Cannot send finish message")
				}
			}
		}
	}
}
