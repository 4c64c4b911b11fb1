// Package config parses the node's CLI flags using
// github.com/jessevdk/go-flags.
package config

import (
	"fmt"
	"net"

	"github.com/jessevdk/go-flags"
)

// Options is the node's full CLI surface.
type Options struct {
	P2PAddr     string   `long:"p2p" description:"address to listen on for peer connections" default:"127.0.0.1:6000"`
	APIAddr     string   `long:"api" description:"address to listen on for the HTTP control plane" default:"127.0.0.1:7000"`
	Connect     []string `short:"c" long:"connect" description:"address of a peer to connect to on startup (repeatable)"`
	P2PWorkers  int      `long:"p2p-workers" description:"number of gossip worker goroutines" default:"4"`
	Verbose     []bool   `short:"v" long:"verbose" description:"increase logging verbosity (repeatable)"`
	KeyFile     string   `long:"key-file" description:"path to the node's PKCS#8 Ed25519 key" default:"key_pair.pem"`
}

// Parse parses args (typically os.Args[1:]) into an Options, resolving
// every address-shaped flag to catch malformed addresses early. The
// caller exits with status 1 on a non-nil error.
func Parse(args []string) (*Options, error) {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &opts, nil
}

func (o *Options) validate() error {
	if err := resolvable(o.P2PAddr); err != nil {
		return fmt.Errorf("config: --p2p %q: %w", o.P2PAddr, err)
	}
	if err := resolvable(o.APIAddr); err != nil {
		return fmt.Errorf("config: --api %q: %w", o.APIAddr, err)
	}
	for _, peer := range o.Connect {
		if err := resolvable(peer); err != nil {
			return fmt.Errorf("config: --connect %q: %w", peer, err)
		}
	}
	if o.P2PWorkers < 1 {
		return fmt.Errorf("config: --p2p-workers must be >= 1, got %d", o.P2PWorkers)
	}
	return nil
}

func resolvable(addr string) error {
	_, err := net.ResolveTCPAddr("tcp", addr)
	return err
}

// Verbosity returns the number of times -v was supplied.
func (o *Options) Verbosity() int {
	return len(o.Verbose)
}
