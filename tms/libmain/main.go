// Package libmain provides common main function which does extra work
package libmain

import (
	"flag"
	"fmt"
	golog "log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path"
	"runtime"
	"syscall"

	"aisbridge/gogroup"
	"aisbridge/tms/log"

	"github.com/kardianos/osext"
	"github.com/spf13/pflag"
)

// Set at link time with -ldflags "-X aisbridge/tms/libmain.VersionNumber=..."
var (
	VersionNumber = "dev"
	VersionDate   = "unknown"
)

var (
	// Background routines which much exit before we exit
	TsiBackground gogroup.GoGroup

	ProfilePort  string
	PrintVersion bool
)

func init() {
	pflag.StringVar(&ProfilePort, "profile", "", "Profile and listen on this port e.g. localhost:6060")
	pflag.BoolVar(&PrintVersion, "version", false, "Print version then exit")
}

// Main parses the command line, sets up logging and signal handling, then
// runs realMain in the background group until it is canceled.
func Main(realMain func(gogroup.GoGroup)) {
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
	pflag.Parse()
	log.RegisterTracers()

	exe, err := osext.Executable()
	if err != nil {
		golog.Fatalf("Cannot find executable: %v", err)
	}
	name := path.Base(exe)

	if PrintVersion {
		fmt.Printf("%v version: %v build date %v\n", name, VersionNumber, VersionDate)
		os.Exit(0)
	}

	runtime.SetBlockProfileRate(0)
	runtime.SetCPUProfileRate(0)
	if ProfilePort != "" {
		runtime.SetBlockProfileRate(10)
		runtime.SetCPUProfileRate(1000)
		go func() { golog.Println(http.ListenAndServe(ProfilePort, nil)) }()
	}

	log.Init(name)
	TsiBackground = gogroup.New(nil, "background")
	TsiBackground.ErrCallback(func(err error) {
		pe, ok := err.(gogroup.PanicError)
		if ok {
			log.Error("Panic in TsiBackground goroutine: %v\n%v", pe.Msg, pe.Stack)
		} else {
			log.Error("Error in TsiBackground goroutine: %v", err)
		}
	})

	sigch := make(chan os.Signal, 2)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigch
		log.Info("Got %v, cancelling main context", sig)
		if EnvDevelopment() {
			log.Info("TMS_ENV=development, killing program")
			os.Exit(1)
		}
		TsiBackground.Cancel(nil)

		sig = <-sigch
		log.Info("Got second %v, killing program", sig)
		os.Exit(1)
	}()

	// Run real main
	TsiBackground.Run(func(g gogroup.GoGroup) error {
		realMain(g)
		return nil
	})

	// Run and wait for cancel to make sure there's at least one thing in the
	// TsiBackground group.
	TsiBackground.Run(func(g gogroup.GoGroup) error {
		<-g.Done()
		return nil
	})

	TsiBackground.Wait()
	TsiBackground.Cancel(nil)
}

func EnvDevelopment() bool {
	switch os.Getenv("TMS_ENV") {
	case "development":
		return true
	}
	return false
}
