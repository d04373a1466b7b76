package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kardianos/service"
	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/signalfx/ibmame-agent/pkg/core"
	"github.com/signalfx/ibmame-agent/pkg/selfdescribe"
)

var (
	// Version for agent
	Version string

	// BuiltTime for the agent
	BuiltTime string
)

const defaultConfigPath = "/etc/signalfx/ibmame-agent.yaml"

const shutdownTimeout = 10 * time.Second

func init() {
	log.SetFormatter(&prefixed.TextFormatter{})
	log.SetLevel(log.InfoLevel)
	log.SetOutput(os.Stdout)
}

// flags is used to store parsed flag values
type flags struct {
	// version prints the agent version string
	version bool
	// configPath is the agent config file
	configPath string
	// debug turns on debug logging before the config is read
	debug bool
	// service installs, uninstalls, starts or stops the agent as a system
	// service (SRC subsystem on AIX)
	service string
}

func getFlags(args []string) *flags {
	flags := &flags{}
	set := flag.NewFlagSet(args[0], flag.ExitOnError)

	set.BoolVar(&flags.version, "version", false, "print agent version")
	set.StringVar(&flags.configPath, "config", defaultConfigPath, "agent config path")
	set.BoolVar(&flags.debug, "debug", false, "print debugging output")
	set.StringVar(&flags.service, "service", "", "'start', 'stop', 'restart', 'install' or 'uninstall' the agent as a system service.  The -config flag is passed on to the installed service.")

	// The set is configured to exit on errors so we don't need to check the
	// return value here.
	_ = set.Parse(args[1:])
	if len(set.Args()) > 0 {
		os.Stderr.WriteString("Non-flag parameters are not accepted\n")
		set.Usage()
		os.Exit(2)
	}
	return flags
}

// program runs the agent under the service manager, which also works when
// the agent is started from a terminal.
type program struct {
	configPath string

	lock   sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func (p *program) Start(s service.Service) error {
	ctx, cancel := context.WithCancel(context.Background())
	p.lock.Lock()
	p.cancel = cancel
	p.done = make(chan struct{})
	p.lock.Unlock()

	go p.run(ctx)
	return nil
}

func (p *program) run(ctx context.Context) {
	defer close(p.done)

	hupCh := make(chan os.Signal, 1)
	signal.Notify(hupCh, syscall.SIGHUP)
	defer signal.Stop(hupCh)

	for {
		runCtx, cancelRun := context.WithCancel(ctx)
		errCh := make(chan error, 1)
		go func() {
			log.Info("Starting up agent version " + Version)
			errCh <- core.Startup(runCtx, p.configPath)
		}()

		select {
		case <-hupCh:
			log.Info("Forcing agent reset")
			cancelRun()
			<-errCh
			continue
		case err := <-errCh:
			cancelRun()
			if err != nil {
				log.WithError(err).Error("Agent stopped")
				os.Exit(1)
			}
			return
		}
	}
}

func (p *program) Stop(s service.Service) error {
	p.lock.Lock()
	cancel, done := p.cancel, p.done
	p.lock.Unlock()

	if cancel == nil {
		return nil
	}

	log.Info("Stopping agent")
	cancel()
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		log.Error("Shutdown timed out, forcing process down")
	}
	return nil
}

// Print out agent self-description of config/metadata
func doSelfDescribe() {
	log.SetOutput(os.Stderr)
	out, err := selfdescribe.YAML()
	if err != nil {
		log.WithError(err).Fatal("Could not describe the agent")
	}
	fmt.Print(string(out))
}

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "selfdescribe":
			doSelfDescribe()
			os.Exit(0)
		case "poll":
			doPoll(os.Args[2:])
			os.Exit(0)
		}
	}

	flags := getFlags(os.Args)

	if flags.debug {
		log.SetLevel(log.DebugLevel)
	}

	if flags.version {
		fmt.Printf("agent-version: %s, built-time: %s\n", Version, BuiltTime)
		os.Exit(0)
	}

	svc, err := service.New(&program{configPath: flags.configPath}, &service.Config{
		Name:        "ibmame-agent",
		DisplayName: "AIX Active Memory Expansion metrics agent",
		Description: "Collects Active Memory Expansion statistics and serves them in the Prometheus format",
		Arguments:   []string{"-config", flags.configPath},
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to find or create the service")
	}

	if flags.service != "" {
		err = service.Control(svc, flags.service)
	} else {
		// Run blocks until the service manager or an interrupt stops the
		// agent, whether or not it is installed as a service.
		err = svc.Run()
	}

	if err != nil {
		log.WithError(err).Fatal("Failed to control the service")
	}
}
