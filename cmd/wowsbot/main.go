package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/Barabama/WoWsBot/internal/config"
	"github.com/Barabama/WoWsBot/internal/controller"
	"github.com/Barabama/WoWsBot/internal/game"
	"github.com/Barabama/WoWsBot/internal/listener"
	"github.com/Barabama/WoWsBot/internal/locator"
	"github.com/Barabama/WoWsBot/internal/logging"
	"github.com/Barabama/WoWsBot/internal/pkg/paths"
)

const Title string = "WoWsBot"

var (
	resourcesFlag = flag.String("resources", "resources", "directory holding config.json, user.json, templates and models")
	levelFlag     = flag.String("log-level", "", "log level, overrides log_level in user.json")
)

func main() {
	defer handlePanic()
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "[%s] %v\n", Title, err)
		os.Exit(1)
	}
}

func run() error {
	start := time.Now()

	dir, err := paths.ResolveResourceDir(*resourcesFlag)
	if err != nil {
		return err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	user, err := config.LoadUser(dir)
	if err != nil {
		return err
	}

	level := user.LogLevel
	if *levelFlag != "" {
		level = *levelFlag
	}
	root, closer, err := logging.Setup(level, user.LogsDir, start)
	if err != nil {
		return err
	}
	defer closer.Close()
	log := logging.Component(root, "main")

	setConsoleTitle(Title, log)
	log.Info().Str("resources", dir).Strs("titles", user.Titles()).Str("process", user.Process).
		Msgf("Press %s to start and %s to stop, Ctrl+C to quit", listener.StartKey, listener.StopKey)

	game.Init()
	assets := locator.NewAssets(cfg, root)
	defer assets.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lis := listener.New(root)
	go lis.Start(ctx)

	finder := controller.WindowFinderFunc(func() ([]controller.Window, error) {
		return findWindows(cfg, user, root)
	})
	factory := controller.NewFactory(controller.Deps{
		Config: cfg,
		User:   user,
		Assets: assets,
		Input:  game.Input{},
		Log:    root,
	})

	ctrl := controller.New(cfg, lis, finder, factory, root)
	if err := ctrl.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	game.ReleaseAllKey()
	log.Info().Dur("uptime", time.Since(start).Round(time.Second)).Msg("Bye")
	return nil
}

func findWindows(cfg *config.Config, user *config.User, log zerolog.Logger) ([]controller.Window, error) {
	infos, err := game.FindWindows(user.Process, user.Titles())
	if err != nil {
		return nil, err
	}
	windows := make([]controller.Window, 0, len(infos))
	for _, info := range infos {
		w, err := game.NewWindow(info, cfg, log)
		if err != nil {
			return nil, err
		}
		log.Info().Str("title", info.Title).Int("pid", info.Pid).Msg("Game window found")
		windows = append(windows, w)
	}
	return windows, nil
}

func handlePanic() {
	if r := recover(); r != nil {
		game.ReleaseAllKey()
		fmt.Println("\n============ panic ===============")
		fmt.Printf("%v\n", r)

		fmt.Print("Press Enter to exit...")
		bufio.NewReader(os.Stdin).ReadString('\n')
	}
}
