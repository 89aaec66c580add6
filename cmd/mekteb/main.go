package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/common-nighthawk/go-figure"

	"github.com/mektebapp/go-mekteb-client/attendance"
	"github.com/mektebapp/go-mekteb-client/auth"
	"github.com/mektebapp/go-mekteb-client/client"
	"github.com/mektebapp/go-mekteb-client/comments"
	"github.com/mektebapp/go-mekteb-client/internal/config"
	"github.com/mektebapp/go-mekteb-client/internal/errors"
	"github.com/mektebapp/go-mekteb-client/internal/logging"
	"github.com/mektebapp/go-mekteb-client/news"
	"github.com/mektebapp/go-mekteb-client/parents"
	"github.com/mektebapp/go-mekteb-client/profile"
	"github.com/mektebapp/go-mekteb-client/sessions"
	"github.com/mektebapp/go-mekteb-client/students"
	"github.com/mektebapp/go-mekteb-client/tokenstore"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = fmt.Errorf("panic recovered")
		}
	}()

	flags := flag.NewFlagSet("mekteb", flag.ContinueOnError)
	configPath := flags.String("config", "", "path to a yaml config file")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		usage()
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return errors.Wrapf(err, "loading config")
	}

	app := newApp(cfg)
	app.session.Hydrate()
	app.session.OnLogout(func() {
		fmt.Fprintln(os.Stderr, "Session expired, please log in again.")
	})

	command, rest := flags.Arg(0), flags.Args()[1:]
	if command == "login" || command == "register" {
		displayAppname(cfg.AppName)
	}
	return app.dispatch(context.Background(), command, rest)
}

// app holds the wired service graph for one CLI invocation.
type app struct {
	session    *sessions.Manager
	auth       *auth.Service
	students   *students.Service
	attendance *attendance.Service
	comments   *comments.Service
	news       *news.Service
	parents    *parents.Service
	profile    *profile.Service
}

func newApp(cfg *config.Config) *app {
	log := logging.New(cfg.LogLevel)
	store := tokenstore.NewFileRepo(cfg.CredentialsFile)
	session := sessions.NewManager(store, log)
	authService := auth.NewService(cfg.APIURL, cfg.RequestTimeout, log)

	api := client.New(
		client.Config{BaseURL: cfg.APIURL, Timeout: cfg.RequestTimeout},
		store, session, authService, log,
	)

	return &app{
		session:    session,
		auth:       authService,
		students:   students.NewService(api),
		attendance: attendance.NewService(api),
		comments:   comments.NewService(api),
		news:       news.NewService(api),
		parents:    parents.NewService(api),
		profile:    profile.NewService(api),
	}
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.login(ctx, args)
	case "register":
		return a.register(ctx, args)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami()
	case "students":
		return a.studentsCmd(ctx, args)
	case "attendance":
		return a.attendanceCmd(ctx, args)
	case "comments":
		return a.commentsCmd(ctx, args)
	case "news":
		return a.newsCmd(ctx, args)
	case "connect":
		return a.connect(ctx, args)
	case "profile":
		return a.profileCmd(ctx, args)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: mekteb [-config file] <command>

Commands:
  login      -username -password        log in and store the session
  register   -username -password ...    create an account
  logout                                end the session
  whoami                                show the logged in user
  students   list|add|rm ...            manage the roster
  attendance mark|list|summary ...      record and view attendance
  comments   list|add ...               read and write daily comments
  news       list|post ...              read and publish announcements
  connect    -key                       link a parent account to a student
  profile    show|update ...            view and edit the account profile`)
}
