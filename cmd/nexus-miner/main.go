// Copyright (C) 2026 The Nexus Miner Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Command nexus-miner wires the session state machine to a live TCP
// connection, a pool of search workers, and the ambient status/alert/
// history surfaces.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"nexusminer/internal/alert"
	"nexusminer/internal/config"
	"nexusminer/internal/conn"
	"nexusminer/internal/falcon"
	"nexusminer/internal/history"
	"nexusminer/internal/logx"
	"nexusminer/internal/session"
	"nexusminer/internal/signer"
	"nexusminer/internal/statusapi"
	"nexusminer/internal/template"
	"nexusminer/internal/worker"
)

func main() {
	cfg, err := config.Load("config.json")
	if err != nil {
		for _, line := range config.GuidanceLines() {
			fmt.Fprintln(os.Stderr, line)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	level := logx.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = logx.LevelDebug
	case "trace":
		level = logx.LevelTrace
	case "warn":
		level = logx.LevelWarn
	}
	log := logx.New("miner", level)

	notifier, err := alert.New(cfg.DiscordWebhook)
	if err != nil {
		log.Warnf("alerting disabled: %v", err)
	}

	histPath := cfg.HistoryDBPath
	if histPath == "" {
		histPath = "history.db"
	}
	hist, err := history.Open(histPath)
	if err != nil {
		log.Errf("could not open history store: %v", err)
		os.Exit(1)
	}
	defer hist.Close()

	var keys *falcon.KeyPair
	if cfg.FalconMinerPubkeyHex != "" && cfg.FalconMinerPrivkeyHex != "" {
		keys, err = falcon.KeyPairFromHex(cfg.FalconMinerPubkeyHex, cfg.FalconMinerPrivkeyHex)
		if err != nil {
			log.Critical("failed to load Falcon key pair from configuration", err.Error())
			os.Exit(1)
		}
	} else if !cfg.PoolMode {
		log.Critical(config.GuidanceLines()...)
		os.Exit(1)
	}
	if keys != nil {
		defer keys.Destroy()
	}

	var channel uint8 = 2
	if cfg.MiningMode == "PRIME" {
		channel = 1
	}

	sg := signer.New(keys, log)

	tmpl := template.New(uint32(channel), log, nil)

	workers := make([]worker.Worker, 0, len(cfg.Workers))
	if len(cfg.Workers) == 0 {
		workers = append(workers, worker.NewCPUWorker(0))
	}
	for _, wc := range cfg.Workers {
		switch wc.Hardware {
		case "gpu":
			workers = append(workers, worker.NewExternalWorker(wc.ID, "gpu"))
		case "fpga":
			workers = append(workers, worker.NewExternalWorker(wc.ID, "fpga"))
		default:
			workers = append(workers, worker.NewCPUWorker(wc.ID))
		}
	}
	workerMgr := worker.NewManager(workers...)
	defer workerMgr.Close()

	var policy session.Policy = session.SoloPolicy{}
	if cfg.PoolMode {
		policy = session.PoolPolicy{
			GetHeightInterval: time.Duration(cfg.GetHeightIntervalS) * time.Second,
			PingEvery:         time.Duration(cfg.PingIntervalS) * time.Second,
		}
	}

	addr := cfg.WalletIP + ":" + strconv.Itoa(int(cfg.Port))
	retry := time.Duration(cfg.ConnectionRetryIntervalS) * time.Second
	if retry <= 0 {
		retry = 5 * time.Second
	}

	connMgr := conn.NewManager(addr, retry, log, nil)
	connMgr.SetUnstableCallback(3, notifier.ConnectionUnstable)

	machine := session.New(session.Config{
		Policy:  policy,
		Sender:  connMgr,
		Log:     log,
		Address: cfg.MinerAddress,
		Channel: channel,
		Keys:    keys,
		Signer:  sg,
		Tmpl:    tmpl,
		Workers: workerMgr,

		OnAuthFailed: func(reason string) {
			notifier.AuthRejected(reason)
		},
		OnSubmit: func(height uint32, ch uint8, nonce uint64) {
			if err := hist.Record(history.Entry{Height: height, Channel: ch, Nonce: nonce, Timestamp: time.Now().Unix(), Result: "PENDING"}); err != nil {
				log.Warnf("history record failed: %v", err)
			}
		},
		OnSubmitResult: func(accepted bool, height uint32, ch uint8, nonce uint64) {
			result := "REJECT"
			if accepted {
				result = "ACCEPT"
				notifier.BlockAccepted(height, ch)
			}
			if err := hist.UpdateResult(height, nonce, result); err != nil {
				log.Warnf("history update failed: %v", err)
			}
		},
	})
	connMgr.SetHandler(machine)

	var statusSrv *statusapi.Server
	if cfg.StatusAPIAddr != "" {
		statusSrv = statusapi.New(machine, workerMgr, hist)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if statusSrv != nil {
		go func() {
			srv := &http.Server{Addr: cfg.StatusAPIAddr, Handler: statusSrv.Router()}
			log.Infof("status api listening on %s", cfg.StatusAPIAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Warnf("status api exited: %v", err)
			}
		}()

		stop := make(chan struct{})
		defer close(stop)
		go statusSrv.Run(5*time.Second, stop)
	}

	if err := connMgr.Run(ctx); err != nil && ctx.Err() == nil {
		log.Errf("connection manager exited: %v", err)
		os.Exit(1)
	}
}
