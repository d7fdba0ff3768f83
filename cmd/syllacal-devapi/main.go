package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/tgienger/syllacal/internal/config"
	"github.com/tgienger/syllacal/internal/devapi"
)

func main() {
	envFile := flag.String("env", "", "path to a .env file (default ./.env)")
	addr := flag.String("addr", "", "listen address (overrides SYLLACAL_DEVAPI_ADDR)")
	failRate := flag.Float64("fail-rate", -1, "fraction of mutating requests to fail with 503")
	noSeed := flag.Bool("empty", false, "start with no courses or deadlines")
	mint := flag.String("token", "", "print a bearer token for this subject and exit")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	dc := cfg.DevAPI
	if *addr != "" {
		dc.Addr = *addr
	}
	if *failRate >= 0 {
		dc.FailRate = *failRate
	}

	var auth *devapi.Auth
	if dc.Secret != "" {
		auth = devapi.NewAuth(dc.Secret)
	}

	if *mint != "" {
		if auth == nil {
			fmt.Fprintln(os.Stderr, "No secret configured; set SYLLACAL_DEVAPI_SECRET")
			os.Exit(1)
		}
		token, err := auth.Issue(*mint, dc.TokenTTL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error issuing token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	data := devapi.NewDataset()
	if dc.Seed && !*noSeed {
		data = devapi.Seed(time.Now())
	}

	logger := log.New(os.Stderr, "devapi ", log.LstdFlags)
	opts := []devapi.Option{devapi.WithLogger(logger), devapi.WithFailRate(dc.FailRate)}
	if auth != nil {
		opts = append(opts, devapi.WithAuth(auth))
	}

	logger.Printf("listening on %s (auth: %t, fail rate: %.2f)", dc.Addr, auth != nil, dc.FailRate)
	if err := devapi.New(data, opts...).ListenAndServe(dc.Addr); err != nil {
		logger.Fatal(err)
	}
}
