package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fjod/go_cart/storefront/configs"
	"github.com/fjod/go_cart/storefront/internal/app"
)

const usage = `usage: storefront [flags] <command> [args]

commands:
  login <email> <password>       sign in and remember the session
  logout                         end the session
  products [-category c | -brand b] [-search s] [-page n] [-limit n]
                                 browse the catalog
  product <id>                   show one product
  cart                           show the cart
  cart add <product> [qty]       add a product
  cart qty <item> <qty>          change a quantity
  cart rm <item>                 remove an item
  cart clear                     empty the cart
  wishlist [add|rm <product>]    show or edit the wish list
  orders                         list orders
  addresses                      list shipping addresses
  address add | edit <id> | rm <id>
                                 edit shipping addresses
  default-address <id>           make an address the default one
  checkout [-method card|wallet] [-address id]
                                 pay for the cart

flags:
`

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config", getEnv("STOREFRONT_CONFIG_DIR", "./configs"), "directory holding base.yaml")
	envName := flag.String("env", os.Getenv("APP_ENV"), "config overlay to apply, e.g. dev")
	metricsAddr := flag.String("metrics-addr", "", "serve prometheus metrics on this address")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := configs.Load(*configDir, *envName)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	in := bufio.NewReader(os.Stdin)
	a, err := app.New(ctx, cfg, app.WithPresenter(newTerminalPresenter(in, os.Stdout)))
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.Close()

	if *metricsAddr != "" {
		srv := &http.Server{
			Addr:              *metricsAddr,
			Handler:           promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.Logger.Error("metrics server failed", "error", err)
			}
		}()
		defer srv.Close()
	}

	cli := &cli{app: a, in: in, out: os.Stdout}
	if err := cli.run(ctx, flag.Args()); err != nil {
		a.Close()
		if errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "%v\n\n", err)
			flag.Usage()
			os.Exit(2)
		}
		log.Fatalf("%s: %v", flag.Arg(0), err)
	}
}
