package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/samber/do/v2"
	flag "github.com/spf13/pflag"
	"github.com/willie68/go_mapmosaic/configs"
	"github.com/willie68/go_mapmosaic/internal"
	"github.com/willie68/go_mapmosaic/internal/api"
	"github.com/willie68/go_mapmosaic/internal/calibration"
	"github.com/willie68/go_mapmosaic/internal/config"
	"github.com/willie68/go_mapmosaic/internal/logging"
	"github.com/willie68/go_mapmosaic/internal/mosaic"
	"github.com/willie68/go_mapmosaic/internal/operator"
	"github.com/willie68/go_mapmosaic/internal/pipeline"
	"github.com/willie68/go_mapmosaic/internal/shttp"
	"github.com/willie68/go_mapmosaic/pkg/fileutils"
)

var (
	log         *slog.Logger
	configFile  string
	showVersion bool
	initConfig  bool
	resume      bool
	assemble    bool
	mode        string
	output      string
	surfaceType string
	port        int
)

func init() {
	flag.BoolVarP(&initConfig, "init", "i", false, "init config, writes out a default config.")
	flag.BoolVarP(&showVersion, "version", "v", false, "showing the version")
	flag.StringVarP(&configFile, "config", "c", "config.yaml", "this is the path and filename to the config file")
	flag.BoolVarP(&resume, "resume", "r", false, "resume a capture, stored frames are kept, only missing frames are captured")
	flag.BoolVarP(&assemble, "assemble", "a", false, "only assemble the stored frames, nothing is captured")
	flag.StringVarP(&mode, "mode", "m", "", "calibration mode, box or center, overwrites the config")
	flag.StringVarP(&output, "output", "o", "", "output file of the map (.png, .jpg, .tiff), overwrites the config")
	flag.StringVarP(&surfaceType, "surface", "s", "", "capture surface, browser or tiles, overwrites the config")
	flag.IntVarP(&port, "port", "p", -1, "port of the preview server, 0 disables it, overwrites the config")
	flag.Usage = func() {
		fmt.Printf("Usage of %s:\n", os.Args[0])
		fmt.Println("more on https://github.com/willie68/go_mapmosaic")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("examples:")
		fmt.Println("write a default config and capture a map with the browser")
		fmt.Printf("%s -i > config.yaml\n", os.Args[0])
		fmt.Printf("%s -c config.yaml\n", os.Args[0])
		fmt.Println("continue an aborted capture")
		fmt.Printf("%s -c config.yaml -r\n", os.Args[0])
		fmt.Println("build the map again out of the stored frames")
		fmt.Printf("%s -c config.yaml -a -o map.jpg\n", os.Args[0])
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()
	if showVersion {
		fmt.Println(config.NewVersion().String())
		return 0
	}
	if initConfig {
		fmt.Println(configs.ConfigFile)
		return 0
	}
	if !fileutils.FileExists(configFile) {
		fmt.Fprint(os.Stderr, "no config given or doesn't exist.\r\n\r\n")
		flag.Usage()
		return 1
	}
	if err := config.Load(configFile); err != nil {
		fmt.Fprintf(os.Stderr, "%v\r\n", err)
		return 1
	}
	config.SetParameter(
		config.WithMode(mode),
		config.WithOutput(output),
		config.WithSurface(surfaceType),
		config.WithPort(port),
	)
	cm, err := calibration.ParseMode(config.Get().Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\r\n", err)
		return 1
	}

	inj := do.New()
	internal.Init(inj)
	defer internal.Stop(inj)

	log = logging.New("main")
	log.Debug(fmt.Sprintf("config:\n%s", config.JSON()))
	log.Info(config.NewVersion().String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if !assemble {
		if err := internal.InitSurface(inj); err != nil {
			log.Error(fmt.Sprintf("can't open the capture surface: %v", err))
			return 1
		}
	}

	router, err := api.Routes(inj)
	if err != nil {
		log.Error(fmt.Sprintf("could not create api routes: %v", err))
		return 1
	}
	sh := do.MustInvoke[*shttp.SHttp](inj)
	if err := sh.StartServers(router); err != nil {
		log.Warn(fmt.Sprintf("preview server not started: %v", err))
	}

	op := operator.New(os.Stdin, os.Stdout, *do.MustInvoke[*mosaic.Config](inj), do.MustInvoke[*mosaic.Board](inj))
	opts := pipeline.Options{
		Mode:         cm,
		Resume:       resume,
		AssembleOnly: assemble,
	}
	if err := pipeline.New(inj, op).Run(ctx, opts); err != nil {
		log.Error(fmt.Sprintf("map not created: %v", err))
		return 1
	}
	log.Info("finished")
	return 0
}
