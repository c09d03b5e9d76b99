package net

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/mdns"

	"DesignStudio/internal/logging"
)

const serviceType = "_designstudio._tcp"

// Advertise announces the render stream on the local network under the
// design's name. Shut the returned server down to withdraw it.
func Advertise(design string, port int) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}
	service, err := mdns.NewMDNSService(host, serviceType, "", "", port, nil, []string{"design=" + design, "path=/ws"})
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	logging.For("net").Info("stream advertised", "service", serviceType, "host", host, "port", port)
	return server, nil
}

// Stream is a render stream found on the network.
type Stream struct {
	Host string
	Addr string
	Info []string
}

// Browse looks for advertised streams for up to timeout, calling found for
// each one with an IPv4 address.
func Browse(ctx context.Context, timeout time.Duration, found func(Stream)) error {
	entries := make(chan *mdns.ServiceEntry, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			found(Stream{Host: e.Host, Addr: fmt.Sprintf("%s:%d", e.AddrV4, e.Port), Info: e.InfoFields})
		}
	}()
	params := mdns.DefaultParams(serviceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	err := mdns.QueryContext(ctx, params)
	close(entries)
	<-done
	if err != nil {
		return fmt.Errorf("browse %s: %w", serviceType, err)
	}
	return nil
}
