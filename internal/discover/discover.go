// Package discover announces the gateway's KISS-over-TCP and AGWPE
// listeners via mDNS/DNS-SD, grounded directly on the prior Go port's
// dns_sd.go, adapted from direwolf's single "KISS over TCP" service to
// also advertise the AGWPE listener spec.md §6 configures.
package discover

import (
	"context"
	"fmt"

	"github.com/brutella/dnssd"

	"github.com/n7gw/tncgw/internal/gwlog"
)

const (
	ServiceKissTCP = "_kiss-tnc._tcp"
	ServiceAGWPE   = "_agwpe._tcp"
)

// Announcer advertises one or more services and can be stopped as a
// unit.
type Announcer struct {
	responder dnssd.Responder
	cancel    context.CancelFunc
}

// Announce starts advertising name as both a KISS-over-TCP service on
// kissPort and an AGWPE service on agwpePort. A zero port skips that
// service.
func Announce(name string, kissPort, agwpePort int) (*Announcer, error) {
	log := gwlog.For("discover")

	rp, err := dnssd.NewResponder()
	if err != nil {
		return nil, fmt.Errorf("discover: creating responder: %w", err)
	}

	if kissPort > 0 {
		if err := addService(rp, name, ServiceKissTCP, kissPort); err != nil {
			return nil, err
		}
	}
	if agwpePort > 0 {
		if err := addService(rp, name, ServiceAGWPE, agwpePort); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := rp.Respond(ctx); err != nil && ctx.Err() == nil {
			log.Errorf("mDNS responder stopped: %v", err)
		}
	}()

	log.Infof("advertising %q (kiss=%d agwpe=%d)", name, kissPort, agwpePort)
	return &Announcer{responder: rp, cancel: cancel}, nil
}

func addService(rp dnssd.Responder, name, serviceType string, port int) error {
	sv, err := dnssd.NewService(dnssd.Config{Name: name, Type: serviceType, Port: port})
	if err != nil {
		return fmt.Errorf("discover: creating service %s: %w", serviceType, err)
	}
	if _, err := rp.Add(sv); err != nil {
		return fmt.Errorf("discover: adding service %s: %w", serviceType, err)
	}
	return nil
}

// Stop ends mDNS advertisement.
func (a *Announcer) Stop() {
	a.cancel()
}
