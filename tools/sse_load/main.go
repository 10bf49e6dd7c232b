// Command sse_load opens many concurrent connections to a verdict
// stream endpoint and reports event throughput.
//
// Usage:
//
//	sse_load --url http://localhost:8080/verdicts/stream --conns 500 --dur 1m
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

type counters struct {
	connected   atomic.Int64
	connectErrs atomic.Int64
	streamErrs  atomic.Int64
	verdicts    atomic.Int64
	heartbeats  atomic.Int64
}

func main() {
	var (
		targetURL   string
		connections int
		duration    time.Duration
		rampUp      time.Duration
	)

	flag.StringVar(&targetURL, "url", "http://localhost:8080/verdicts/stream", "SSE endpoint URL")
	flag.IntVar(&connections, "conns", 500, "number of concurrent connections to open")
	flag.DurationVar(&duration, "dur", 60*time.Second, "test duration (0 for until interrupted)")
	flag.DurationVar(&rampUp, "ramp", 0, "ramp-up window for connection starts")
	flag.Parse()

	if connections <= 0 {
		log.Fatalf("invalid conns: %d", connections)
	}
	if rampUp == 0 && connections > 100 {
		// spread starts so the listener backlog survives the stampede
		rampUp = time.Duration(connections/500) * time.Second
		if rampUp < time.Second {
			rampUp = time.Second
		}
		log.Printf("no ramp-up specified, using %s", rampUp)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if duration > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, duration)
		defer cancelTimeout()
	}

	client := &http.Client{
		Transport: &http.Transport{
			MaxConnsPerHost:     connections + 100,
			MaxIdleConns:        connections + 100,
			MaxIdleConnsPerHost: connections + 100,
			DisableCompression:  true,
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
	}

	log.Printf("starting SSE load: url=%s conns=%d duration=%s ramp=%s", targetURL, connections, duration, rampUp)

	var stats counters
	var wg sync.WaitGroup
	start := time.Now()

	var interval time.Duration
	if rampUp > 0 {
		interval = rampUp / time.Duration(connections)
	}

	for i := 0; i < connections; i++ {
		if i > 0 && interval > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(interval):
			}
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			consume(ctx, client, targetURL, &stats)
		}()
	}

	progress := time.NewTicker(5 * time.Second)
	go func() {
		defer progress.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-progress.C:
				log.Printf("status: connected=%d connect_errs=%d stream_errs=%d verdicts=%d heartbeats=%d elapsed=%s",
					stats.connected.Load(), stats.connectErrs.Load(), stats.streamErrs.Load(),
					stats.verdicts.Load(), stats.heartbeats.Load(), time.Since(start).Truncate(time.Second))
			}
		}
	}()

	wg.Wait()

	elapsed := time.Since(start)
	if elapsed <= 0 {
		elapsed = time.Millisecond
	}
	fmt.Printf("done: connected=%d connect_errs=%d stream_errs=%d verdicts=%d heartbeats=%d elapsed=%s verdicts/s=%.2f\n",
		stats.connected.Load(), stats.connectErrs.Load(), stats.streamErrs.Load(),
		stats.verdicts.Load(), stats.heartbeats.Load(),
		elapsed.Truncate(time.Millisecond), float64(stats.verdicts.Load())/elapsed.Seconds())
}

// consume holds one SSE connection open and counts what arrives on it.
func consume(ctx context.Context, client *http.Client, url string, stats *counters) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		stats.connectErrs.Add(1)
		return
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := client.Do(req)
	if err != nil {
		stats.connectErrs.Add(1)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		stats.connectErrs.Add(1)
		return
	}
	stats.connected.Add(1)

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if ctx.Err() == nil {
				stats.streamErrs.Add(1)
			}
			return
		}
		switch {
		case strings.HasPrefix(line, "event: verdict"):
			stats.verdicts.Add(1)
		case strings.HasPrefix(line, ":"):
			stats.heartbeats.Add(1)
		}
	}
}
